package subscription

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jtbomar/bomizzel-ticketing-system-sub005/pkg/notifier"
	"github.com/jtbomar/bomizzel-ticketing-system-sub005/pkg/plans"
)

// ExpiryOutcome reports how an expired trial was resolved.
type ExpiryOutcome string

const (
	OutcomeConvertedToFree ExpiryOutcome = "converted_to_free"
	OutcomeCancelled       ExpiryOutcome = "cancelled"
)

// Trial extensions are bounded so support can grant goodwill without
// open-ended free usage.
const (
	MinExtensionDays = 1
	MaxExtensionDays = 30
)

// Lifecycle drives subscriptions through the trial/active/cancelled state
// machine. Every operation validates before mutating, performs exactly one
// atomic store write, and only notifies after the write has committed.
type Lifecycle struct {
	store   Store
	catalog plans.Catalog
	notify  notifier.Notifier
	logger  *slog.Logger
}

// LifecycleOption configures a Lifecycle.
type LifecycleOption func(*Lifecycle)

// WithNotifier sets the fire-and-forget notification channel.
func WithNotifier(n notifier.Notifier) LifecycleOption {
	return func(l *Lifecycle) {
		if n != nil {
			l.notify = n
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) LifecycleOption {
	return func(l *Lifecycle) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLifecycle creates a Lifecycle over the given store and plan catalog.
// Panics if either is nil to fail fast during initialization.
func NewLifecycle(store Store, catalog plans.Catalog, opts ...LifecycleOption) *Lifecycle {
	if store == nil {
		panic("subscription: Store is required")
	}
	if catalog == nil {
		panic("subscription: plans.Catalog is required")
	}

	l := &Lifecycle{
		store:   store,
		catalog: catalog,
		notify:  notifier.NoopNotifier{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// StartTrial creates a trial subscription for a tenant that has none.
// trialDays must be positive; the trial window also bounds the first billing
// period (currentPeriodEnd == trialEnd).
func (l *Lifecycle) StartTrial(ctx context.Context, tenantID uuid.UUID, planSlug string, trialDays int) (*Subscription, error) {
	if trialDays <= 0 {
		return nil, ErrNoTrialSupport
	}

	if _, err := l.findPlan(ctx, planSlug); err != nil {
		return nil, err
	}

	if _, err := l.store.GetByTenant(ctx, tenantID); err == nil {
		return nil, ErrAlreadySubscribed
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	trialEnd := now.AddDate(0, 0, trialDays)

	sub := &Subscription{
		ID:                 uuid.New(),
		TenantID:           tenantID,
		PlanSlug:           planSlug,
		Status:             StatusTrial,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   trialEnd,
		TrialStart:         &now,
		TrialEnd:           &trialEnd,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := l.store.Create(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// ProvisionActive creates an active subscription bypassing the trial, for
// tenants provisioned directly (sales-led deals, internal accounts).
func (l *Lifecycle) ProvisionActive(ctx context.Context, tenantID uuid.UUID, planSlug string) (*Subscription, error) {
	plan, err := l.findPlan(ctx, planSlug)
	if err != nil {
		return nil, err
	}

	if _, err := l.store.GetByTenant(ctx, tenantID); err == nil {
		return nil, ErrAlreadySubscribed
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()

	sub := &Subscription{
		ID:                 uuid.New(),
		TenantID:           tenantID,
		PlanSlug:           planSlug,
		Status:             StatusActive,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   plan.PeriodEnd(now),
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := l.store.Create(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// ConvertToPaid converts a trial to a paid subscription. Only valid from
// trial and only while the trial window is open. The payment reference comes
// from the external payment processor; the engine records it verbatim.
func (l *Lifecycle) ConvertToPaid(ctx context.Context, subID uuid.UUID, paymentRef string) (*Subscription, error) {
	sub, err := l.store.GetByID(ctx, subID)
	if err != nil {
		return nil, err
	}

	to, err := nextStatus(sub.Status, TransitionConvert)
	if err != nil {
		return nil, ErrNotInTrial
	}

	now := time.Now().UTC()
	if sub.IsTrialExpiredAt(now) {
		return nil, ErrTrialExpired
	}

	plan, err := l.findPlan(ctx, sub.PlanSlug)
	if err != nil {
		return nil, err
	}

	next := sub.clone()
	next.Status = to
	next.CurrentPeriodStart = now
	next.CurrentPeriodEnd = plan.PeriodEnd(now)
	next.UpdatedAt = now
	next.Metadata = append(next.Metadata, MetadataEvent{
		Kind:       EventConversion,
		At:         now,
		PaymentRef: paymentRef,
		ToPlan:     sub.PlanSlug,
	})

	if err := l.store.Update(ctx, next); err != nil {
		return nil, err
	}

	l.send(ctx, notifier.EventTrialConverted, next.TenantID, map[string]any{
		"plan":        next.PlanSlug,
		"payment_ref": paymentRef,
	})
	return next, nil
}

// CancelTrial cancels a subscription still in trial, recording the reason.
func (l *Lifecycle) CancelTrial(ctx context.Context, subID uuid.UUID, reason string) (*Subscription, error) {
	sub, err := l.store.GetByID(ctx, subID)
	if err != nil {
		return nil, err
	}

	to, err := nextStatus(sub.Status, TransitionCancelTrial)
	if err != nil {
		return nil, ErrNotInTrial
	}

	now := time.Now().UTC()

	next := sub.clone()
	next.Status = to
	next.UpdatedAt = now
	next.Metadata = append(next.Metadata, MetadataEvent{
		Kind:                 EventCancellation,
		At:                   now,
		Reason:               reason,
		CancelledDuringTrial: true,
	})

	if err := l.store.Update(ctx, next); err != nil {
		return nil, err
	}

	l.send(ctx, notifier.EventTrialCancelled, next.TenantID, map[string]any{
		"reason": reason,
	})
	return next, nil
}

// ExtendTrial advances the trial window by additionalDays (1 to 30) and
// appends an extension record. The extension log only ever grows, so the full
// history stays reconstructable.
func (l *Lifecycle) ExtendTrial(ctx context.Context, subID uuid.UUID, additionalDays int, reason string) (*Subscription, error) {
	if additionalDays < MinExtensionDays || additionalDays > MaxExtensionDays {
		return nil, ErrInvalidExtension
	}

	sub, err := l.store.GetByID(ctx, subID)
	if err != nil {
		return nil, err
	}

	if _, err := nextStatus(sub.Status, TransitionExtendTrial); err != nil {
		return nil, ErrNotInTrial
	}
	if sub.TrialEnd == nil {
		return nil, ErrTrialEndMissing
	}

	now := time.Now().UTC()
	newEnd := sub.TrialEnd.AddDate(0, 0, additionalDays)

	next := sub.clone()
	next.TrialEnd = &newEnd
	next.CurrentPeriodEnd = newEnd
	next.UpdatedAt = now
	next.Metadata = append(next.Metadata, MetadataEvent{
		Kind:           EventExtension,
		At:             now,
		AdditionalDays: additionalDays,
		Reason:         reason,
		NewTrialEnd:    &newEnd,
	})

	if err := l.store.Update(ctx, next); err != nil {
		return nil, err
	}

	l.send(ctx, notifier.EventTrialExtended, next.TenantID, map[string]any{
		"additional_days": additionalDays,
		"new_trial_end":   newEnd,
	})
	return next, nil
}

// ProcessExpiredTrial resolves an expired trial: migrate to the free tier
// when one exists, cancel otherwise. Invoked only by the expiration sweep,
// never by a user action. The notifier call happens after the state write and
// its failure never rolls the transition back.
func (l *Lifecycle) ProcessExpiredTrial(ctx context.Context, subID uuid.UUID) (ExpiryOutcome, error) {
	sub, err := l.store.GetByID(ctx, subID)
	if err != nil {
		return "", err
	}

	if sub.Status != StatusTrial {
		return "", ErrNotInTrial
	}

	now := time.Now().UTC()

	free, hasFree, err := l.catalog.FreeTier(ctx)
	if err != nil {
		return "", errors.Join(ErrStoreUnavailable, err)
	}

	next := sub.clone()
	next.UpdatedAt = now

	var outcome ExpiryOutcome
	var event notifier.Event
	var payload map[string]any

	if hasFree {
		to, terr := nextStatus(sub.Status, TransitionExpireFree)
		if terr != nil {
			return "", terr
		}
		next.Status = to
		next.PlanSlug = free.Slug
		next.CurrentPeriodStart = now
		next.CurrentPeriodEnd = free.PeriodEnd(now)
		next.Metadata = append(next.Metadata, MetadataEvent{
			Kind:     EventPlanMigrated,
			At:       now,
			FromPlan: sub.PlanSlug,
			ToPlan:   free.Slug,
			Outcome:  string(OutcomeConvertedToFree),
		})
		outcome = OutcomeConvertedToFree
		event = notifier.EventTrialConvertedToFree
		payload = map[string]any{"from_plan": sub.PlanSlug, "to_plan": free.Slug}
	} else {
		to, terr := nextStatus(sub.Status, TransitionExpireEnd)
		if terr != nil {
			return "", terr
		}
		next.Status = to
		next.Metadata = append(next.Metadata, MetadataEvent{
			Kind:    EventCancellation,
			At:      now,
			Reason:  "trial_expired",
			Outcome: string(OutcomeCancelled),
		})
		outcome = OutcomeCancelled
		event = notifier.EventTrialCancelled
		payload = map[string]any{"reason": "trial_expired"}
	}

	if err := l.store.Update(ctx, next); err != nil {
		return "", err
	}

	l.send(ctx, event, next.TenantID, payload)
	return outcome, nil
}

// findPlan resolves a plan slug, mapping catalog errors into the engine's
// typed taxonomy.
func (l *Lifecycle) findPlan(ctx context.Context, slug string) (plans.Plan, error) {
	plan, err := l.catalog.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, plans.ErrPlanNotFound) {
			return plans.Plan{}, ErrPlanNotFound
		}
		return plans.Plan{}, errors.Join(ErrStoreUnavailable, err)
	}
	return plan, nil
}

// send delivers a lifecycle notification best-effort: failures are logged,
// never propagated.
func (l *Lifecycle) send(ctx context.Context, event notifier.Event, tenantID uuid.UUID, payload map[string]any) {
	if err := l.notify.Send(ctx, event, tenantID, payload); err != nil {
		l.logger.WarnContext(ctx, "notification delivery failed",
			slog.String("event", string(event)),
			slog.String("tenant_id", tenantID.String()),
			slog.String("error", err.Error()),
		)
	}
}
