package sweep

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jtbomar/bomizzel-ticketing-system-sub005/pkg/notifier"
	"github.com/jtbomar/bomizzel-ticketing-system-sub005/pkg/subscription"
)

// reminderOffsets are the days-before-trial-end marks at which a reminder
// goes out.
var reminderOffsets = []int{7, 3, 1}

// TrialLister is the slice of the subscription store the sweeps read from.
type TrialLister interface {
	ListExpiredTrials(ctx context.Context, asOf time.Time) ([]*subscription.Subscription, error)
	ListTrialsEndingBetween(ctx context.Context, from, to time.Time) ([]*subscription.Subscription, error)
}

// TrialProcessor resolves a single expired trial. Satisfied by
// subscription.Lifecycle.
type TrialProcessor interface {
	ProcessExpiredTrial(ctx context.Context, subID uuid.UUID) (subscription.ExpiryOutcome, error)
}

// ReminderReport summarizes one reminder sweep run.
type ReminderReport struct {
	Processed int `json:"processed"`
	Sent      int `json:"sent"`
	Skipped   int `json:"skipped"` // already reminded for the offset+day
	Errors    int `json:"errors"`
}

// ExpirationReport summarizes one expiration sweep run.
type ExpirationReport struct {
	Processed int `json:"processed"`
	Converted int `json:"converted"` // moved to the free tier
	Cancelled int `json:"cancelled"`
	Errors    int `json:"errors"`
}

// Sweeper implements the two periodic jobs. It owns no timer; the Scheduler
// (or a test) decides when a run happens and with which reference time.
type Sweeper struct {
	store     TrialLister
	processor TrialProcessor
	notify    notifier.Notifier
	reminders ReminderLog
	logger    *slog.Logger
}

// SweeperOption configures a Sweeper.
type SweeperOption func(*Sweeper)

// WithSweeperLogger sets the structured logger.
func WithSweeperLogger(logger *slog.Logger) SweeperOption {
	return func(s *Sweeper) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSweeper creates a Sweeper. Panics if a dependency is nil to fail fast
// during initialization.
func NewSweeper(store TrialLister, processor TrialProcessor, notify notifier.Notifier, reminders ReminderLog, opts ...SweeperOption) *Sweeper {
	if store == nil {
		panic("sweep: TrialLister is required")
	}
	if processor == nil {
		panic("sweep: TrialProcessor is required")
	}
	if notify == nil {
		notify = notifier.NoopNotifier{}
	}
	if reminders == nil {
		panic("sweep: ReminderLog is required")
	}

	s := &Sweeper{
		store:     store,
		processor: processor,
		notify:    notify,
		reminders: reminders,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunReminderSweep sends trial-ending reminders for every offset whose
// calendar day (server time) contains a trial end. The reminder log keeps
// re-runs within the same day from re-sending.
func (s *Sweeper) RunReminderSweep(ctx context.Context, now time.Time) ReminderReport {
	var report ReminderReport

	for _, offset := range reminderOffsets {
		day := now.AddDate(0, 0, offset)
		from := startOfDay(day)
		to := from.Add(24*time.Hour - time.Nanosecond)
		dayKey := from.Format("2006-01-02")

		trials, err := s.store.ListTrialsEndingBetween(ctx, from, to)
		if err != nil {
			s.logger.ErrorContext(ctx, "reminder sweep: listing trials failed",
				slog.Int("offset_days", offset),
				slog.String("error", err.Error()),
			)
			report.Errors++
			continue
		}

		for _, sub := range trials {
			report.Processed++

			first, err := s.reminders.MarkSent(ctx, sub.ID, offset, dayKey)
			if err != nil {
				s.logger.ErrorContext(ctx, "reminder sweep: dedup check failed",
					slog.String("subscription_id", sub.ID.String()),
					slog.Int("offset_days", offset),
					slog.String("error", err.Error()),
				)
				report.Errors++
				continue
			}
			if !first {
				report.Skipped++
				continue
			}

			payload := map[string]any{
				"days_remaining": offset,
				"plan":           sub.PlanSlug,
			}
			if sub.TrialEnd != nil {
				payload["trial_end"] = *sub.TrialEnd
			}
			if err := s.notify.Send(ctx, notifier.EventTrialReminder, sub.TenantID, payload); err != nil {
				// Best-effort channel: the dedup claim stands, the miss is
				// counted, the sweep moves on.
				s.logger.WarnContext(ctx, "reminder sweep: notification failed",
					slog.String("subscription_id", sub.ID.String()),
					slog.String("error", err.Error()),
				)
				report.Errors++
				continue
			}
			report.Sent++
		}
	}

	return report
}

// RunExpirationSweep resolves every trial whose window closed before now.
// A per-subscription failure is logged and counted; the sweep continues with
// the next subscription rather than aborting the batch.
func (s *Sweeper) RunExpirationSweep(ctx context.Context, now time.Time) ExpirationReport {
	var report ExpirationReport

	trials, err := s.store.ListExpiredTrials(ctx, now)
	if err != nil {
		s.logger.ErrorContext(ctx, "expiration sweep: listing trials failed",
			slog.String("error", err.Error()),
		)
		report.Errors++
		return report
	}

	for _, sub := range trials {
		report.Processed++

		outcome, err := s.processor.ProcessExpiredTrial(ctx, sub.ID)
		if err != nil {
			s.logger.ErrorContext(ctx, "expiration sweep: processing trial failed",
				slog.String("subscription_id", sub.ID.String()),
				slog.String("tenant_id", sub.TenantID.String()),
				slog.String("error", err.Error()),
			)
			report.Errors++
			continue
		}

		switch outcome {
		case subscription.OutcomeConvertedToFree:
			report.Converted++
		case subscription.OutcomeCancelled:
			report.Cancelled++
		}
	}

	return report
}

// startOfDay truncates to midnight in the time's own location, so the
// reminder window follows server-local calendar days.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
