package notifier

import (
	"context"

	"github.com/google/uuid"
)

// Event names a lifecycle message type.
type Event string

const (
	EventTrialReminder        Event = "trial_reminder"
	EventTrialConverted       Event = "trial_converted"
	EventTrialConvertedToFree Event = "trial_converted_to_free"
	EventTrialCancelled       Event = "trial_cancelled"
	EventTrialExtended        Event = "trial_extended"
)

// Notifier sends a lifecycle message for a tenant. The returned error exists
// for logging only; callers must not let it affect control flow.
type Notifier interface {
	Send(ctx context.Context, event Event, tenantID uuid.UUID, payload map[string]any) error
}

// NoopNotifier discards every message. Useful as a default and in tests.
type NoopNotifier struct{}

func (NoopNotifier) Send(ctx context.Context, event Event, tenantID uuid.UUID, payload map[string]any) error {
	return nil
}
