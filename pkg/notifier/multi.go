package notifier

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// MultiNotifier fans a message out to several channels.
// Per-channel failures are logged and skipped; delivery stays best-effort.
type MultiNotifier struct {
	notifiers []Notifier
	logger    *slog.Logger
}

// MultiOption configures a MultiNotifier.
type MultiOption func(*MultiNotifier)

// WithMultiLogger sets the logger used for per-channel failures.
func WithMultiLogger(logger *slog.Logger) MultiOption {
	return func(m *MultiNotifier) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewMultiNotifier creates a fan-out notifier over the given channels.
func NewMultiNotifier(notifiers []Notifier, opts ...MultiOption) *MultiNotifier {
	m := &MultiNotifier{
		notifiers: notifiers,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MultiNotifier) Send(ctx context.Context, event Event, tenantID uuid.UUID, payload map[string]any) error {
	for i, n := range m.notifiers {
		if err := n.Send(ctx, event, tenantID, payload); err != nil {
			m.logger.LogAttrs(ctx, slog.LevelError, "failed to deliver notification",
				slog.String("event", string(event)),
				slog.String("tenant_id", tenantID.String()),
				slog.Int("notifier_index", i),
				slog.String("error", err.Error()),
			)
			continue
		}
	}
	return nil
}
