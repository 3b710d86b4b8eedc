package sweep

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Scheduler drives the sweeper on independent timers, off the request path.
// One mutex guards both jobs: if a run is still going when the next tick
// fires, the tick is skipped rather than stacked, and a running sweep always
// finishes on its own.
type Scheduler struct {
	sweeper *Sweeper
	logger  *slog.Logger

	reminderInterval   time.Duration
	expirationInterval time.Duration

	mu sync.Mutex
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithReminderInterval sets how often the reminder sweep runs.
func WithReminderInterval(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d > 0 {
			s.reminderInterval = d
		}
	}
}

// WithExpirationInterval sets how often the expiration sweep runs.
func WithExpirationInterval(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d > 0 {
			s.expirationInterval = d
		}
	}
}

// WithSchedulerLogger sets the structured logger.
func WithSchedulerLogger(logger *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewScheduler creates a Scheduler over the given sweeper.
// Reminders default to hourly; expiration checks default to every 15 minutes.
func NewScheduler(sweeper *Sweeper, opts ...SchedulerOption) *Scheduler {
	if sweeper == nil {
		panic("sweep: Sweeper is required")
	}

	s := &Scheduler{
		sweeper:            sweeper,
		logger:             slog.Default(),
		reminderInterval:   time.Hour,
		expirationInterval: 15 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start runs both sweep loops until the context is cancelled. Each job fires
// once immediately, then on its own ticker. Returns ctx.Err() on shutdown.
func (s *Scheduler) Start(ctx context.Context) error {
	reminderTicker := time.NewTicker(s.reminderInterval)
	defer reminderTicker.Stop()
	expirationTicker := time.NewTicker(s.expirationInterval)
	defer expirationTicker.Stop()

	s.runReminder(ctx)
	s.runExpiration(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "sweep scheduler shutting down")
			return ctx.Err()
		case <-reminderTicker.C:
			s.runReminder(ctx)
		case <-expirationTicker.C:
			s.runExpiration(ctx)
		}
	}
}

func (s *Scheduler) runReminder(ctx context.Context) {
	if !s.mu.TryLock() {
		s.logger.WarnContext(ctx, "reminder sweep skipped: previous sweep still running")
		return
	}
	defer s.mu.Unlock()

	report := s.sweeper.RunReminderSweep(ctx, time.Now())
	s.logger.InfoContext(ctx, "reminder sweep finished",
		slog.Int("processed", report.Processed),
		slog.Int("sent", report.Sent),
		slog.Int("skipped", report.Skipped),
		slog.Int("errors", report.Errors),
	)
}

func (s *Scheduler) runExpiration(ctx context.Context) {
	if !s.mu.TryLock() {
		s.logger.WarnContext(ctx, "expiration sweep skipped: previous sweep still running")
		return
	}
	defer s.mu.Unlock()

	report := s.sweeper.RunExpirationSweep(ctx, time.Now())
	s.logger.InfoContext(ctx, "expiration sweep finished",
		slog.Int("processed", report.Processed),
		slog.Int("converted", report.Converted),
		slog.Int("cancelled", report.Cancelled),
		slog.Int("errors", report.Errors),
	)
}
