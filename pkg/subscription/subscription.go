package subscription

import (
	"time"

	"github.com/google/uuid"

	"github.com/jtbomar/bomizzel-ticketing-system-sub005/pkg/plans"
)

// Status represents the current state of a subscription.
type Status string

const (
	StatusTrial     Status = "trial"
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
	StatusSuspended Status = "suspended" // reached only via external billing failure
)

// EventKind tags a metadata audit record.
type EventKind string

const (
	EventExtension    EventKind = "extension"
	EventCancellation EventKind = "cancellation"
	EventConversion   EventKind = "conversion"
	EventPlanMigrated EventKind = "plan_migrated"
)

// MetadataEvent is one entry of the append-only audit trail. The log is an
// ordered sequence of tagged records rather than an untyped dictionary, so
// extension history, cancellation reasons, and conversion timestamps stay
// reconstructable and type-safe.
type MetadataEvent struct {
	Kind                 EventKind  `json:"kind"`
	At                   time.Time  `json:"at"`
	Reason               string     `json:"reason,omitempty"`
	AdditionalDays       int        `json:"additional_days,omitempty"`
	NewTrialEnd          *time.Time `json:"new_trial_end,omitempty"`
	PaymentRef           string     `json:"payment_ref,omitempty"`
	Outcome              string     `json:"outcome,omitempty"`
	FromPlan             string     `json:"from_plan,omitempty"`
	ToPlan               string     `json:"to_plan,omitempty"`
	CancelledDuringTrial bool       `json:"cancelled_during_trial,omitempty"`
}

// CustomPricing optionally overrides plan price and limits for negotiated
// deals. Nil fields fall through to the plan.
type CustomPricing struct {
	Price  *plans.Money        `json:"price,omitempty"`
	Limits *plans.TicketLimits `json:"limits,omitempty"`
}

// Subscription is a tenant's subscription record. One per tenant (or per user
// in self-service mode, with the user ID standing in as tenant ID).
type Subscription struct {
	ID                 uuid.UUID
	TenantID           uuid.UUID
	PlanSlug           string
	Status             Status
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time // invariant: never before CurrentPeriodStart
	TrialStart         *time.Time
	TrialEnd           *time.Time // retained after trial for historical record
	CustomPricing      *CustomPricing
	Metadata           []MetadataEvent // append-only audit trail
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// IsTrialing returns true if the subscription is in trial status.
func (s *Subscription) IsTrialing() bool {
	return s.Status == StatusTrial
}

// IsActive returns true if the subscription is active (paid or free tier).
func (s *Subscription) IsActive() bool {
	return s.Status == StatusActive
}

// IsCancelled returns true if the subscription reached its terminal state.
func (s *Subscription) IsCancelled() bool {
	return s.Status == StatusCancelled
}

// IsTrialExpiredAt reports whether the trial window ended before now.
// Only meaningful while the subscription is still trialing; once status
// leaves trial, TrialEnd is historical and no longer authoritative.
func (s *Subscription) IsTrialExpiredAt(now time.Time) bool {
	if s.TrialEnd == nil {
		return false
	}
	return now.After(*s.TrialEnd)
}

// TrialDaysRemainingAt returns the days left in the trial at a given time,
// rounding partial days up. Returns 0 outside an active trial.
func (s *Subscription) TrialDaysRemainingAt(now time.Time) int {
	if !s.IsTrialing() || s.TrialEnd == nil {
		return 0
	}

	remaining := s.TrialEnd.Sub(now)
	if remaining <= 0 {
		return 0
	}

	days := remaining.Hours() / 24
	return int(days + 0.5)
}

// EffectiveLimits resolves the quota limits in force for this subscription:
// the negotiated override when present, otherwise the plan's limits.
func (s *Subscription) EffectiveLimits(plan plans.Plan) plans.TicketLimits {
	if s.CustomPricing != nil && s.CustomPricing.Limits != nil {
		return *s.CustomPricing.Limits
	}
	return plan.Limits
}

// EffectivePrice resolves the price in force for this subscription.
func (s *Subscription) EffectivePrice(plan plans.Plan) plans.Money {
	if s.CustomPricing != nil && s.CustomPricing.Price != nil {
		return *s.CustomPricing.Price
	}
	return plan.Price
}

// clone returns a deep copy so lifecycle mutations never alias store state.
func (s *Subscription) clone() *Subscription {
	out := *s

	if s.TrialStart != nil {
		t := *s.TrialStart
		out.TrialStart = &t
	}
	if s.TrialEnd != nil {
		t := *s.TrialEnd
		out.TrialEnd = &t
	}
	if s.CustomPricing != nil {
		cp := CustomPricing{}
		if s.CustomPricing.Price != nil {
			p := *s.CustomPricing.Price
			cp.Price = &p
		}
		if s.CustomPricing.Limits != nil {
			l := *s.CustomPricing.Limits
			cp.Limits = &l
		}
		out.CustomPricing = &cp
	}

	out.Metadata = make([]MetadataEvent, len(s.Metadata))
	copy(out.Metadata, s.Metadata)

	return &out
}
