package limits

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/jtbomar/bomizzel-ticketing-system-sub005/pkg/plans"
	"github.com/jtbomar/bomizzel-ticketing-system-sub005/pkg/subscription"
	"github.com/jtbomar/bomizzel-ticketing-system-sub005/pkg/usage"
)

// UsageSource derives live usage stats. Satisfied by usage.Accountant.
type UsageSource interface {
	CurrentUsage(ctx context.Context, tenantID uuid.UUID) (usage.Stats, error)
	PercentageUsed(stats usage.Stats, limits plans.TicketLimits) usage.Percentages
}

// SubscriptionSource resolves a tenant's subscription. Satisfied by
// subscription.Store.
type SubscriptionSource interface {
	GetByTenant(ctx context.Context, tenantID uuid.UUID) (*subscription.Subscription, error)
}

// Enforcer makes admission decisions for ticket mutations.
type Enforcer struct {
	usage   UsageSource
	subs    SubscriptionSource
	catalog plans.Catalog
	logger  *slog.Logger

	// Per-tenant admission locks. At most one read-usage-then-decide section
	// runs per tenant, which removes the check-then-act race between
	// concurrent creations for the same tenant. Entries are never evicted;
	// one mutex per active tenant is an acceptable footprint.
	locks sync.Map // uuid.UUID -> *sync.Mutex
}

// EnforcerOption configures an Enforcer.
type EnforcerOption func(*Enforcer)

// WithEnforcerLogger sets the structured logger.
func WithEnforcerLogger(logger *slog.Logger) EnforcerOption {
	return func(e *Enforcer) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEnforcer creates an Enforcer. Panics if a dependency is nil to fail
// fast during initialization.
func NewEnforcer(usageSrc UsageSource, subs SubscriptionSource, catalog plans.Catalog, opts ...EnforcerOption) *Enforcer {
	if usageSrc == nil {
		panic("limits: UsageSource is required")
	}
	if subs == nil {
		panic("limits: SubscriptionSource is required")
	}
	if catalog == nil {
		panic("limits: plans.Catalog is required")
	}

	e := &Enforcer{
		usage:   usageSrc,
		subs:    subs,
		catalog: catalog,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CheckCreate decides whether the tenant may create one more ticket.
func (e *Enforcer) CheckCreate(ctx context.Context, tenantID uuid.UUID) Result {
	return e.check(ctx, tenantID, OpCreate, 1)
}

// CheckComplete decides whether the tenant may complete one more ticket.
func (e *Enforcer) CheckComplete(ctx context.Context, tenantID uuid.UUID) Result {
	return e.check(ctx, tenantID, OpComplete, 1)
}

// CheckBulk decides whether count additional operations fit within quota,
// all-or-nothing: the decision must land before any of them is applied.
// A non-positive count or unknown operation fails closed (validation, not a
// dependency failure).
func (e *Enforcer) CheckBulk(ctx context.Context, tenantID uuid.UUID, op OperationType, count int) Result {
	if count <= 0 {
		return Result{Allowed: false, Reason: fmt.Sprintf("invalid bulk count: %d", count)}
	}
	if op != OpCreate && op != OpComplete {
		return Result{Allowed: false, Reason: fmt.Sprintf("unknown operation type: %s", op)}
	}
	return e.check(ctx, tenantID, op, int64(count))
}

func (e *Enforcer) check(ctx context.Context, tenantID uuid.UUID, op OperationType, count int64) Result {
	unlock := e.lockTenant(tenantID)
	defer unlock()

	plan, eff, err := e.resolveLimits(ctx, tenantID)
	if err != nil {
		return e.failOpen(ctx, tenantID, "plan resolution failed", err)
	}

	// Fully unlimited plans skip the usage query entirely.
	if eff.IsUnlimited() {
		return Result{Allowed: true, Limits: eff}
	}

	stats, err := e.usage.CurrentUsage(ctx, tenantID)
	if err != nil {
		return e.failOpen(ctx, tenantID, "usage lookup failed", err)
	}

	switch op {
	case OpCreate:
		// Active takes precedence over total when both would be exceeded:
		// closing tickets is the more actionable remedy for the caller.
		if !plans.Allows(eff.Active, stats.Active, count) {
			return e.deny(ctx, LimitActive, plan, eff, stats, count)
		}
		if !plans.Allows(eff.Total, stats.Total, count) {
			return e.deny(ctx, LimitTotal, plan, eff, stats, count)
		}
	case OpComplete:
		if !plans.Allows(eff.Completed, stats.Completed, count) {
			return e.deny(ctx, LimitCompleted, plan, eff, stats, count)
		}
	}

	return Result{Allowed: true, CurrentUsage: stats, Limits: eff}
}

// UsageWarnings reports quota dimensions crossing 75% (warning) or 90%
// (critical). Any warning attaches upgrade suggestions.
func (e *Enforcer) UsageWarnings(ctx context.Context, tenantID uuid.UUID) (WarningReport, error) {
	plan, eff, err := e.resolveLimits(ctx, tenantID)
	if err != nil {
		return WarningReport{}, err
	}

	stats, err := e.usage.CurrentUsage(ctx, tenantID)
	if err != nil {
		return WarningReport{}, err
	}

	pct := e.usage.PercentageUsed(stats, eff)

	report := WarningReport{}
	for _, dim := range []struct {
		limitType LimitType
		percent   int
		used      int64
		limit     int64
	}{
		{LimitActive, pct.Active, stats.Active, eff.Active},
		{LimitCompleted, pct.Completed, stats.Completed, eff.Completed},
		{LimitTotal, pct.Total, stats.Total, eff.Total},
	} {
		severity, ok := severityFor(dim.percent)
		if !ok {
			continue
		}
		report.Warnings = append(report.Warnings, Warning{
			LimitType:   dim.limitType,
			Severity:    severity,
			PercentUsed: dim.percent,
			Message: fmt.Sprintf("You have used %d%% of your %s ticket limit (%d of %d).",
				dim.percent, dim.limitType, dim.used, dim.limit),
		})
	}

	if len(report.Warnings) > 0 {
		report.UpgradeMessage = "You are approaching your plan limits. Upgrade to keep creating tickets without interruption."
		if suggested, err := e.catalog.SuggestUpgrades(ctx, plan); err == nil {
			report.SuggestedPlans = suggested
		}
	}

	return report, nil
}

// resolveLimits loads the tenant's subscription and plan and resolves the
// effective limits, honoring negotiated custom pricing.
func (e *Enforcer) resolveLimits(ctx context.Context, tenantID uuid.UUID) (plans.Plan, plans.TicketLimits, error) {
	sub, err := e.subs.GetByTenant(ctx, tenantID)
	if err != nil {
		return plans.Plan{}, plans.TicketLimits{}, err
	}

	plan, err := e.catalog.FindBySlug(ctx, sub.PlanSlug)
	if err != nil {
		return plans.Plan{}, plans.TicketLimits{}, err
	}

	return plan, sub.EffectiveLimits(plan), nil
}

// failOpen permits the operation when the enforcement decision itself cannot
// be computed. Logged as its own condition so it is never mistaken for a
// legitimate denial in monitoring.
func (e *Enforcer) failOpen(ctx context.Context, tenantID uuid.UUID, cause string, err error) Result {
	e.logger.WarnContext(ctx, "limit check failed open",
		slog.String("tenant_id", tenantID.String()),
		slog.String("cause", cause),
		slog.String("error", err.Error()),
	)
	return Result{Allowed: true, Reason: "fail-open: " + cause}
}

func (e *Enforcer) deny(ctx context.Context, limitType LimitType, plan plans.Plan, eff plans.TicketLimits, stats usage.Stats, count int64) Result {
	res := Result{
		Allowed:      false,
		LimitType:    limitType,
		CurrentUsage: stats,
		Limits:       eff,
		Reason: fmt.Sprintf("%s ticket limit reached: adding %d would exceed the limit of %d",
			limitType, count, limitFor(eff, limitType)),
		UpgradeMessage: fmt.Sprintf("You have reached your plan's %s ticket limit. Upgrade your plan to increase your limits.", limitType),
	}

	if suggested, err := e.catalog.SuggestUpgrades(ctx, plan); err == nil {
		res.SuggestedPlans = suggested
	}
	return res
}

func (e *Enforcer) lockTenant(tenantID uuid.UUID) func() {
	v, _ := e.locks.LoadOrStore(tenantID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func severityFor(percent int) (Severity, bool) {
	switch {
	case percent >= 90:
		return SeverityCritical, true
	case percent >= 75:
		return SeverityWarning, true
	default:
		return "", false
	}
}

func limitFor(limits plans.TicketLimits, limitType LimitType) int64 {
	switch limitType {
	case LimitActive:
		return limits.Active
	case LimitCompleted:
		return limits.Completed
	default:
		return limits.Total
	}
}
