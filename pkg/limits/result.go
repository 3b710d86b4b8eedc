package limits

import (
	"github.com/jtbomar/bomizzel-ticketing-system-sub005/pkg/plans"
	"github.com/jtbomar/bomizzel-ticketing-system-sub005/pkg/usage"
)

// LimitType names the quota dimension a decision or warning refers to.
type LimitType string

const (
	LimitActive    LimitType = "active"
	LimitCompleted LimitType = "completed"
	LimitTotal     LimitType = "total"
)

// OperationType names the ticket mutation being admitted.
type OperationType string

const (
	OpCreate   OperationType = "create"
	OpComplete OperationType = "complete"
)

// Result is the output contract of an admission check. On denial it carries
// everything the caller needs to surface a 429-equivalent response verbatim.
type Result struct {
	Allowed        bool               `json:"allowed"`
	Reason         string             `json:"reason,omitempty"`
	LimitType      LimitType          `json:"limit_type,omitempty"`
	CurrentUsage   usage.Stats        `json:"current_usage"`
	Limits         plans.TicketLimits `json:"limits"`
	UpgradeMessage string             `json:"upgrade_message,omitempty"`
	SuggestedPlans []plans.Plan       `json:"suggested_plans,omitempty"`
}

// Severity grades a usage warning.
type Severity string

const (
	SeverityWarning  Severity = "warning"  // crossed 75% of a limit
	SeverityCritical Severity = "critical" // crossed 90% of a limit
)

// Warning flags one quota dimension approaching its limit.
type Warning struct {
	LimitType   LimitType `json:"limit_type"`
	Severity    Severity  `json:"severity"`
	PercentUsed int       `json:"percent_used"`
	Message     string    `json:"message"`
}

// WarningReport aggregates per-dimension warnings with upgrade guidance.
// SuggestedPlans is attached only when at least one warning fired.
type WarningReport struct {
	Warnings       []Warning    `json:"warnings"`
	SuggestedPlans []plans.Plan `json:"suggested_plans,omitempty"`
	UpgradeMessage string       `json:"upgrade_message,omitempty"`
}
