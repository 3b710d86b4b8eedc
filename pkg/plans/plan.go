package plans

import "time"

// Unlimited indicates no limit for a quota dimension (-1 chosen for SQL compatibility).
const Unlimited int64 = -1

// Money represents a monetary amount in the smallest currency unit.
// For example, $29.00 USD would be Amount: 2900, Currency: "USD".
type Money struct {
	Amount   int64  `yaml:"amount" json:"amount"`
	Currency string `yaml:"currency" json:"currency"`
}

// BillingInterval represents the billing frequency for a subscription plan.
type BillingInterval string

const (
	IntervalNone    BillingInterval = "none" // Free plans with no billing
	IntervalMonthly BillingInterval = "monthly"
	IntervalAnnual  BillingInterval = "annual"
)

// TicketLimits holds the three ticket quota dimensions of a plan.
// Each value is either a non-negative cap or Unlimited.
type TicketLimits struct {
	Active    int64 `yaml:"active" json:"active"`
	Completed int64 `yaml:"completed" json:"completed"`
	Total     int64 `yaml:"total" json:"total"`
}

// IsUnlimited reports whether all three dimensions are unlimited.
func (l TicketLimits) IsUnlimited() bool {
	return l.Active == Unlimited && l.Completed == Unlimited && l.Total == Unlimited
}

// Allows reports whether adding requested items to used stays within limit.
// The Unlimited sentinel always allows; a zero limit never does.
func Allows(limit, used, requested int64) bool {
	if limit == Unlimited {
		return true
	}
	return used+requested <= limit
}

// Plan describes a subscription plan and its ticket quotas.
type Plan struct {
	Slug        string          `yaml:"slug" json:"slug"`
	Name        string          `yaml:"name" json:"name"`
	Description string          `yaml:"description" json:"description,omitempty"`
	Price       Money           `yaml:"price" json:"price"`
	Interval    BillingInterval `yaml:"interval" json:"interval"`
	TrialDays   int             `yaml:"trial_days" json:"trial_days"`
	Limits      TicketLimits    `yaml:"limits" json:"limits"`
	Public      bool            `yaml:"public" json:"public"` // available for self-service signup
}

// IsFree reports whether the plan has no billing attached.
func (p Plan) IsFree() bool {
	return p.Interval == IntervalNone
}

// TrialEndsAt calculates when the trial period ends.
// Returns startedAt unchanged if the plan has no trial.
func (p Plan) TrialEndsAt(startedAt time.Time) time.Time {
	if p.TrialDays <= 0 {
		return startedAt
	}
	return startedAt.AddDate(0, 0, p.TrialDays).UTC()
}

// PeriodEnd advances one billing interval from the given time.
// Free plans roll monthly so the current period invariant still holds.
func (p Plan) PeriodEnd(from time.Time) time.Time {
	switch p.Interval {
	case IntervalAnnual:
		return from.AddDate(1, 0, 0).UTC()
	default:
		return from.AddDate(0, 1, 0).UTC()
	}
}
