package notifier

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// LogNotifier writes every message to the structured log. Handy in
// development and as a tracing tap inside a MultiNotifier.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a log-backed notifier.
// A nil logger falls back to slog.Default().
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(ctx context.Context, event Event, tenantID uuid.UUID, payload map[string]any) error {
	n.logger.InfoContext(ctx, "subscription notification",
		slog.String("event", string(event)),
		slog.String("tenant_id", tenantID.String()),
		slog.Any("payload", payload),
	)
	return nil
}
