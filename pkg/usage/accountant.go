package usage

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/jtbomar/bomizzel-ticketing-system-sub005/pkg/plans"
)

// Stats is the derived usage view for a tenant. Each count is non-negative and
// recomputed on demand; it is never stored.
type Stats struct {
	Active    int64 `json:"active"`
	Completed int64 `json:"completed"`
	Total     int64 `json:"total"`
	Archived  int64 `json:"archived"`
}

// Percentages holds percentage-of-limit per quota dimension.
// Unlimited dimensions report 0 so they never trip a warning.
type Percentages struct {
	Active    int `json:"active"`
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// TicketStore exposes the count queries the engine needs from the ticket
// store. Implementations must reflect ticket state at the moment of the call.
type TicketStore interface {
	CountActive(ctx context.Context, tenantID uuid.UUID) (int64, error)
	CountCompleted(ctx context.Context, tenantID uuid.UUID) (int64, error)
	CountArchived(ctx context.Context, tenantID uuid.UUID) (int64, error)
	CountTotal(ctx context.Context, tenantID uuid.UUID) (int64, error)
}

// Accountant derives usage stats and limit percentages for tenants.
type Accountant struct {
	tickets TicketStore
}

// NewAccountant creates an Accountant over the given ticket store.
// Panics if the store is nil to fail fast during initialization.
func NewAccountant(tickets TicketStore) *Accountant {
	if tickets == nil {
		panic("usage: TicketStore is required")
	}
	return &Accountant{tickets: tickets}
}

// CurrentUsage returns the tenant's ticket counts as of now.
// No caching: concurrent ticket mutations are visible to the next call.
func (a *Accountant) CurrentUsage(ctx context.Context, tenantID uuid.UUID) (Stats, error) {
	var stats Stats
	var err error

	if stats.Active, err = a.tickets.CountActive(ctx, tenantID); err != nil {
		return Stats{}, errors.Join(ErrFailedToCountTickets, err)
	}
	if stats.Completed, err = a.tickets.CountCompleted(ctx, tenantID); err != nil {
		return Stats{}, errors.Join(ErrFailedToCountTickets, err)
	}
	if stats.Archived, err = a.tickets.CountArchived(ctx, tenantID); err != nil {
		return Stats{}, errors.Join(ErrFailedToCountTickets, err)
	}
	if stats.Total, err = a.tickets.CountTotal(ctx, tenantID); err != nil {
		return Stats{}, errors.Join(ErrFailedToCountTickets, err)
	}

	return stats, nil
}

// PercentageUsed derives percentage-of-limit for each quota dimension.
// Unlimited yields 0, a zero limit counts as already at 100%, and values above
// 100 are preserved so callers can see overshoot.
func (a *Accountant) PercentageUsed(stats Stats, limits plans.TicketLimits) Percentages {
	return Percentages{
		Active:    percentage(stats.Active, limits.Active),
		Completed: percentage(stats.Completed, limits.Completed),
		Total:     percentage(stats.Total, limits.Total),
	}
}

func percentage(used, limit int64) int {
	if limit == plans.Unlimited {
		return 0
	}
	if limit == 0 {
		return 100
	}
	return int((used * 100) / limit)
}
