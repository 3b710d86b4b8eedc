package sweep_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jtbomar/bomizzel-ticketing-system-sub005/pkg/notifier"
	"github.com/jtbomar/bomizzel-ticketing-system-sub005/pkg/plans"
	"github.com/jtbomar/bomizzel-ticketing-system-sub005/pkg/subscription"
	"github.com/jtbomar/bomizzel-ticketing-system-sub005/pkg/sweep"
)

type sentReminder struct {
	event    notifier.Event
	tenantID uuid.UUID
	payload  map[string]any
}

type captureNotifier struct {
	mu   sync.Mutex
	sent []sentReminder
}

func (n *captureNotifier) Send(ctx context.Context, event notifier.Event, tenantID uuid.UUID, payload map[string]any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentReminder{event: event, tenantID: tenantID, payload: payload})
	return nil
}

func (n *captureNotifier) messages() []sentReminder {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]sentReminder, len(n.sent))
	copy(out, n.sent)
	return out
}

func sweepPlans() map[string]plans.Plan {
	return map[string]plans.Plan{
		"free": {
			Slug:     "free",
			Interval: plans.IntervalNone,
			Limits:   plans.TicketLimits{Active: 5, Completed: 20, Total: 25},
			Public:   true,
		},
		"pro": {
			Slug:      "pro",
			Price:     plans.Money{Amount: 2900, Currency: "USD"},
			Interval:  plans.IntervalMonthly,
			TrialDays: 14,
			Limits:    plans.TicketLimits{Active: 100, Completed: 500, Total: 600},
			Public:    true,
		},
	}
}

func seedTrialEnding(t *testing.T, store *subscription.MemoryStore, trialEnd time.Time) *subscription.Subscription {
	t.Helper()

	now := time.Now().UTC()
	start := trialEnd.AddDate(0, 0, -14)
	sub := &subscription.Subscription{
		ID:                 uuid.New(),
		TenantID:           uuid.New(),
		PlanSlug:           "pro",
		Status:             subscription.StatusTrial,
		CurrentPeriodStart: start,
		CurrentPeriodEnd:   trialEnd,
		TrialStart:         &start,
		TrialEnd:           &trialEnd,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	require.NoError(t, store.Create(context.Background(), sub))
	return sub
}

func newSweepFixture(t *testing.T, planSet map[string]plans.Plan) (*sweep.Sweeper, *subscription.MemoryStore, *captureNotifier) {
	t.Helper()

	catalog, err := plans.NewCatalog(context.Background(), plans.NewInMemSource(planSet))
	require.NoError(t, err)

	store := subscription.NewMemoryStore()
	notify := &captureNotifier{}
	lifecycle := subscription.NewLifecycle(store, catalog, subscription.WithNotifier(notify))
	sweeper := sweep.NewSweeper(store, lifecycle, notify, sweep.NewMemoryReminderLog())
	return sweeper, store, notify
}

func TestSweeper_RunReminderSweep(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("sends one reminder per offset hit", func(t *testing.T) {
		t.Parallel()

		sweeper, store, notify := newSweepFixture(t, sweepPlans())
		now := time.Now().UTC()

		at7 := seedTrialEnding(t, store, now.AddDate(0, 0, 7))
		at3 := seedTrialEnding(t, store, now.AddDate(0, 0, 3))
		at1 := seedTrialEnding(t, store, now.AddDate(0, 0, 1))
		seedTrialEnding(t, store, now.AddDate(0, 0, 5)) // no offset lands here

		report := sweeper.RunReminderSweep(ctx, now)
		assert.Equal(t, 3, report.Processed)
		assert.Equal(t, 3, report.Sent)
		assert.Zero(t, report.Skipped)
		assert.Zero(t, report.Errors)

		msgs := notify.messages()
		require.Len(t, msgs, 3)

		daysByTenant := map[uuid.UUID]any{}
		for _, msg := range msgs {
			assert.Equal(t, notifier.EventTrialReminder, msg.event)
			daysByTenant[msg.tenantID] = msg.payload["days_remaining"]
		}
		assert.Equal(t, 7, daysByTenant[at7.TenantID])
		assert.Equal(t, 3, daysByTenant[at3.TenantID])
		assert.Equal(t, 1, daysByTenant[at1.TenantID])
	})

	t.Run("second run on the same day sends nothing", func(t *testing.T) {
		t.Parallel()

		sweeper, store, notify := newSweepFixture(t, sweepPlans())
		now := time.Now().UTC()
		seedTrialEnding(t, store, now.AddDate(0, 0, 7))

		first := sweeper.RunReminderSweep(ctx, now)
		assert.Equal(t, 1, first.Sent)

		second := sweeper.RunReminderSweep(ctx, now.Add(time.Hour))
		assert.Equal(t, 1, second.Processed)
		assert.Zero(t, second.Sent)
		assert.Equal(t, 1, second.Skipped)

		assert.Len(t, notify.messages(), 1)
	})

	t.Run("extension re-arms earlier offsets", func(t *testing.T) {
		t.Parallel()

		sweeper, store, notify := newSweepFixture(t, sweepPlans())
		now := time.Now().UTC()
		sub := seedTrialEnding(t, store, now.AddDate(0, 0, 1))

		report := sweeper.RunReminderSweep(ctx, now)
		assert.Equal(t, 1, report.Sent)

		// After a 6-day extension the trial ends 7 days out again; the 7-day
		// reminder fires for its own day key.
		loaded, err := store.GetByID(ctx, sub.ID)
		require.NoError(t, err)
		newEnd := loaded.TrialEnd.AddDate(0, 0, 6)
		loaded.TrialEnd = &newEnd
		loaded.CurrentPeriodEnd = newEnd
		require.NoError(t, store.Update(ctx, loaded))

		report = sweeper.RunReminderSweep(ctx, now)
		assert.Equal(t, 1, report.Sent)
		assert.Len(t, notify.messages(), 2)
	})
}

func TestSweeper_RunExpirationSweep(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("migrates every expired trial to the free tier", func(t *testing.T) {
		t.Parallel()

		sweeper, store, _ := newSweepFixture(t, sweepPlans())
		now := time.Now().UTC()

		for i := 0; i < 3; i++ {
			seedTrialEnding(t, store, now.AddDate(0, 0, -1))
		}
		stillOpen := seedTrialEnding(t, store, now.AddDate(0, 0, 5))

		report := sweeper.RunExpirationSweep(ctx, now)
		assert.Equal(t, 3, report.Processed)
		assert.Equal(t, 3, report.Converted)
		assert.Zero(t, report.Cancelled)
		assert.Zero(t, report.Errors)

		// No expired trial is left behind.
		remaining, err := store.ListExpiredTrials(ctx, now)
		require.NoError(t, err)
		assert.Empty(t, remaining)

		untouched, err := store.GetByID(ctx, stillOpen.ID)
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusTrial, untouched.Status)
	})

	t.Run("cancels when no free tier exists", func(t *testing.T) {
		t.Parallel()

		paidOnly := sweepPlans()
		delete(paidOnly, "free")
		sweeper, store, _ := newSweepFixture(t, paidOnly)
		now := time.Now().UTC()

		sub := seedTrialEnding(t, store, now.AddDate(0, 0, -2))

		report := sweeper.RunExpirationSweep(ctx, now)
		assert.Equal(t, 1, report.Processed)
		assert.Equal(t, 1, report.Cancelled)

		stored, err := store.GetByID(ctx, sub.ID)
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusCancelled, stored.Status)
	})

	t.Run("a failing subscription does not abort the batch", func(t *testing.T) {
		t.Parallel()

		catalog, err := plans.NewCatalog(ctx, plans.NewInMemSource(sweepPlans()))
		require.NoError(t, err)

		store := subscription.NewMemoryStore()
		now := time.Now().UTC()
		bad := seedTrialEnding(t, store, now.AddDate(0, 0, -1))
		good := seedTrialEnding(t, store, now.AddDate(0, 0, -1))

		lifecycle := subscription.NewLifecycle(store, catalog)
		processor := &flakyProcessor{inner: lifecycle, failID: bad.ID}
		sweeper := sweep.NewSweeper(store, processor, notifier.NoopNotifier{}, sweep.NewMemoryReminderLog())

		report := sweeper.RunExpirationSweep(ctx, now)
		assert.Equal(t, 2, report.Processed)
		assert.Equal(t, 1, report.Converted)
		assert.Equal(t, 1, report.Errors)

		converted, err := store.GetByID(ctx, good.ID)
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusActive, converted.Status)

		stuck, err := store.GetByID(ctx, bad.ID)
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusTrial, stuck.Status)
	})
}

type flakyProcessor struct {
	inner  *subscription.Lifecycle
	failID uuid.UUID
}

func (p *flakyProcessor) ProcessExpiredTrial(ctx context.Context, subID uuid.UUID) (subscription.ExpiryOutcome, error) {
	if subID == p.failID {
		return "", errors.New("store write failed")
	}
	return p.inner.ProcessExpiredTrial(ctx, subID)
}

func TestMemoryReminderLog_MarkSent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	log := sweep.NewMemoryReminderLog()
	subID := uuid.New()

	first, err := log.MarkSent(ctx, subID, 7, "2025-06-08")
	require.NoError(t, err)
	assert.True(t, first)

	again, err := log.MarkSent(ctx, subID, 7, "2025-06-08")
	require.NoError(t, err)
	assert.False(t, again)

	// Different offset and different day are separate claims.
	otherOffset, err := log.MarkSent(ctx, subID, 3, "2025-06-08")
	require.NoError(t, err)
	assert.True(t, otherOffset)

	otherDay, err := log.MarkSent(ctx, subID, 7, "2025-06-09")
	require.NoError(t, err)
	assert.True(t, otherDay)
}
