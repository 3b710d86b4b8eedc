package plans

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// Catalog is the read side of the plan collaborator: slug lookup, free-tier
// discovery, and price-sorted listings for upgrade suggestions.
type Catalog interface {
	// FindBySlug returns the plan with the given slug.
	FindBySlug(ctx context.Context, slug string) (Plan, error)

	// FreeTier returns the cheapest plan without billing, if one exists.
	// A missing free tier is not an error; expired trials cancel instead.
	FreeTier(ctx context.Context) (Plan, bool, error)

	// ListActive returns all public plans sorted ascending by price.
	ListActive(ctx context.Context) ([]Plan, error)

	// SuggestUpgrades returns plans strictly more expensive than the current
	// one, sorted ascending by price.
	SuggestUpgrades(ctx context.Context, current Plan) ([]Plan, error)
}

// catalog holds an immutable snapshot of plans loaded at construction time.
// Thread-safety relies on this immutability; there are no runtime mutations.
type catalog struct {
	plans  map[string]Plan
	sorted []Plan // public plans, ascending by price
}

// NewCatalog loads plans from the source, validates them, and returns an
// immutable catalog. Configuration errors surface at startup rather than on
// the first enforcement decision.
func NewCatalog(ctx context.Context, src Source) (Catalog, error) {
	if src == nil {
		panic("plans: Source is required")
	}

	loaded, err := src.Load(ctx)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}

	if err := validatePlans(loaded); err != nil {
		return nil, err
	}

	sorted := make([]Plan, 0, len(loaded))
	for _, plan := range loaded {
		if plan.Public {
			sorted = append(sorted, plan)
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Price.Amount == sorted[j].Price.Amount {
			return sorted[i].Slug < sorted[j].Slug
		}
		return sorted[i].Price.Amount < sorted[j].Price.Amount
	})

	return &catalog{plans: loaded, sorted: sorted}, nil
}

func (c *catalog) FindBySlug(ctx context.Context, slug string) (Plan, error) {
	plan, exists := c.plans[slug]
	if !exists {
		return Plan{}, ErrPlanNotFound
	}
	return plan, nil
}

func (c *catalog) FreeTier(ctx context.Context) (Plan, bool, error) {
	var free Plan
	found := false
	for _, plan := range c.plans {
		if !plan.IsFree() {
			continue
		}
		if !found || plan.Price.Amount < free.Price.Amount {
			free = plan
			found = true
		}
	}
	return free, found, nil
}

func (c *catalog) ListActive(ctx context.Context) ([]Plan, error) {
	out := make([]Plan, len(c.sorted))
	copy(out, c.sorted)
	return out, nil
}

func (c *catalog) SuggestUpgrades(ctx context.Context, current Plan) ([]Plan, error) {
	out := make([]Plan, 0, len(c.sorted))
	for _, plan := range c.sorted {
		if plan.Price.Amount > current.Price.Amount {
			out = append(out, plan)
		}
	}
	return out, nil
}

// validatePlans ensures plan configurations are internally consistent.
func validatePlans(plans map[string]Plan) error {
	for slug, plan := range plans {
		if plan.Slug != slug {
			return errors.Join(ErrInvalidPlanConfiguration,
				fmt.Errorf("plan slug mismatch: map key %s != plan.Slug %s", slug, plan.Slug))
		}

		if plan.TrialDays < 0 {
			return errors.Join(ErrInvalidPlanConfiguration,
				fmt.Errorf("plan %s has negative trial days: %d", slug, plan.TrialDays))
		}

		for dim, limit := range map[string]int64{
			"active":    plan.Limits.Active,
			"completed": plan.Limits.Completed,
			"total":     plan.Limits.Total,
		} {
			if limit < Unlimited {
				return errors.Join(ErrInvalidPlanConfiguration,
					fmt.Errorf("plan %s has invalid %s limit: %d", slug, dim, limit))
			}
		}
	}
	return nil
}
