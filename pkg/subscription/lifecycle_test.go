package subscription_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jtbomar/bomizzel-ticketing-system-sub005/pkg/notifier"
	"github.com/jtbomar/bomizzel-ticketing-system-sub005/pkg/plans"
	"github.com/jtbomar/bomizzel-ticketing-system-sub005/pkg/subscription"
)

type sentMessage struct {
	event    notifier.Event
	tenantID uuid.UUID
	payload  map[string]any
}

// recordingNotifier captures every message for assertions.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (n *recordingNotifier) Send(ctx context.Context, event notifier.Event, tenantID uuid.UUID, payload map[string]any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMessage{event: event, tenantID: tenantID, payload: payload})
	return nil
}

func (n *recordingNotifier) messages() []sentMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]sentMessage, len(n.sent))
	copy(out, n.sent)
	return out
}

func lifecyclePlans() map[string]plans.Plan {
	return map[string]plans.Plan{
		"free": {
			Slug:     "free",
			Name:     "Free",
			Interval: plans.IntervalNone,
			Limits:   plans.TicketLimits{Active: 5, Completed: 20, Total: 25},
			Public:   true,
		},
		"pro": {
			Slug:      "pro",
			Name:      "Pro",
			Price:     plans.Money{Amount: 2900, Currency: "USD"},
			Interval:  plans.IntervalMonthly,
			TrialDays: 14,
			Limits:    plans.TicketLimits{Active: 100, Completed: 500, Total: 600},
			Public:    true,
		},
	}
}

func newLifecycle(t *testing.T, planSet map[string]plans.Plan) (*subscription.Lifecycle, *subscription.MemoryStore, *recordingNotifier) {
	t.Helper()

	catalog, err := plans.NewCatalog(context.Background(), plans.NewInMemSource(planSet))
	require.NoError(t, err)

	store := subscription.NewMemoryStore()
	notify := &recordingNotifier{}
	lc := subscription.NewLifecycle(store, catalog, subscription.WithNotifier(notify))
	return lc, store, notify
}

// seedTrial inserts a trial subscription directly, so tests can control the
// trial window.
func seedTrial(t *testing.T, store *subscription.MemoryStore, trialEnd time.Time) *subscription.Subscription {
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

func TestLifecycle_StartTrial(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("creates a fourteen day trial", func(t *testing.T) {
		t.Parallel()

		lc, _, _ := newLifecycle(t, lifecyclePlans())
		tenantID := uuid.New()

		before := time.Now().UTC()
		sub, err := lc.StartTrial(ctx, tenantID, "pro", 14)
		require.NoError(t, err)

		assert.Equal(t, subscription.StatusTrial, sub.Status)
		assert.Equal(t, tenantID, sub.TenantID)
		require.NotNil(t, sub.TrialEnd)
		expectedEnd := before.AddDate(0, 0, 14)
		assert.WithinDuration(t, expectedEnd, *sub.TrialEnd, 5*time.Second)
		// The trial window bounds the first billing period.
		assert.Equal(t, *sub.TrialEnd, sub.CurrentPeriodEnd)

		// The audit trail starts empty; only lifecycle mutations append to it.
		assert.Empty(t, sub.Metadata)
	})

	t.Run("second subscription for the same tenant", func(t *testing.T) {
		t.Parallel()

		lc, _, _ := newLifecycle(t, lifecyclePlans())
		tenantID := uuid.New()

		_, err := lc.StartTrial(ctx, tenantID, "pro", 14)
		require.NoError(t, err)

		_, err = lc.StartTrial(ctx, tenantID, "pro", 14)
		assert.ErrorIs(t, err, subscription.ErrAlreadySubscribed)
	})

	t.Run("plan without trial support", func(t *testing.T) {
		t.Parallel()

		lc, _, _ := newLifecycle(t, lifecyclePlans())

		_, err := lc.StartTrial(ctx, uuid.New(), "free", 0)
		assert.ErrorIs(t, err, subscription.ErrNoTrialSupport)
	})

	t.Run("unknown plan", func(t *testing.T) {
		t.Parallel()

		lc, _, _ := newLifecycle(t, lifecyclePlans())

		_, err := lc.StartTrial(ctx, uuid.New(), "nonexistent", 14)
		assert.ErrorIs(t, err, subscription.ErrPlanNotFound)
	})
}

func TestLifecycle_ProvisionActive(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	lc, _, _ := newLifecycle(t, lifecyclePlans())
	tenantID := uuid.New()

	sub, err := lc.ProvisionActive(ctx, tenantID, "pro")
	require.NoError(t, err)

	assert.Equal(t, subscription.StatusActive, sub.Status)
	assert.Nil(t, sub.TrialEnd)
	assert.Empty(t, sub.Metadata)

	_, err = lc.ProvisionActive(ctx, tenantID, "pro")
	assert.ErrorIs(t, err, subscription.ErrAlreadySubscribed)
}

func TestLifecycle_ConvertToPaid(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("converts an open trial", func(t *testing.T) {
		t.Parallel()

		lc, store, notify := newLifecycle(t, lifecyclePlans())
		sub := seedTrial(t, store, time.Now().UTC().AddDate(0, 0, 7))

		converted, err := lc.ConvertToPaid(ctx, sub.ID, "pay_123")
		require.NoError(t, err)

		assert.Equal(t, subscription.StatusActive, converted.Status)
		assert.True(t, converted.CurrentPeriodEnd.After(converted.CurrentPeriodStart))

		require.Len(t, converted.Metadata, 1)
		last := converted.Metadata[0]
		assert.Equal(t, subscription.EventConversion, last.Kind)
		assert.Equal(t, "pay_123", last.PaymentRef)

		msgs := notify.messages()
		require.Len(t, msgs, 1)
		assert.Equal(t, notifier.EventTrialConverted, msgs[0].event)
		assert.Equal(t, sub.TenantID, msgs[0].tenantID)
	})

	t.Run("double conversion is rejected", func(t *testing.T) {
		t.Parallel()

		lc, store, _ := newLifecycle(t, lifecyclePlans())
		sub := seedTrial(t, store, time.Now().UTC().AddDate(0, 0, 7))

		_, err := lc.ConvertToPaid(ctx, sub.ID, "pay_1")
		require.NoError(t, err)

		_, err = lc.ConvertToPaid(ctx, sub.ID, "pay_2")
		assert.ErrorIs(t, err, subscription.ErrNotInTrial)
	})

	t.Run("expired trial cannot convert", func(t *testing.T) {
		t.Parallel()

		lc, store, _ := newLifecycle(t, lifecyclePlans())
		sub := seedTrial(t, store, time.Now().UTC().AddDate(0, 0, -1))

		_, err := lc.ConvertToPaid(ctx, sub.ID, "pay_1")
		assert.ErrorIs(t, err, subscription.ErrTrialExpired)
	})

	t.Run("unknown subscription", func(t *testing.T) {
		t.Parallel()

		lc, _, _ := newLifecycle(t, lifecyclePlans())

		_, err := lc.ConvertToPaid(ctx, uuid.New(), "pay_1")
		assert.ErrorIs(t, err, subscription.ErrNotFound)
	})
}

func TestLifecycle_CancelTrial(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("cancels and records the reason", func(t *testing.T) {
		t.Parallel()

		lc, store, notify := newLifecycle(t, lifecyclePlans())
		sub := seedTrial(t, store, time.Now().UTC().AddDate(0, 0, 7))

		cancelled, err := lc.CancelTrial(ctx, sub.ID, "not a fit")
		require.NoError(t, err)

		assert.Equal(t, subscription.StatusCancelled, cancelled.Status)
		require.Len(t, cancelled.Metadata, 1)
		last := cancelled.Metadata[0]
		assert.Equal(t, subscription.EventCancellation, last.Kind)
		assert.Equal(t, "not a fit", last.Reason)
		assert.True(t, last.CancelledDuringTrial)

		msgs := notify.messages()
		require.Len(t, msgs, 1)
		assert.Equal(t, notifier.EventTrialCancelled, msgs[0].event)
	})

	t.Run("active subscription cannot cancel as trial", func(t *testing.T) {
		t.Parallel()

		lc, _, _ := newLifecycle(t, lifecyclePlans())
		sub, err := lc.ProvisionActive(ctx, uuid.New(), "pro")
		require.NoError(t, err)

		_, err = lc.CancelTrial(ctx, sub.ID, "whatever")
		assert.ErrorIs(t, err, subscription.ErrNotInTrial)
	})
}

func TestLifecycle_ExtendTrial(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("pushes the trial end forward and appends one record", func(t *testing.T) {
		t.Parallel()

		lc, store, _ := newLifecycle(t, lifecyclePlans())
		trialEnd := time.Now().UTC().AddDate(0, 0, 3)
		sub := seedTrial(t, store, trialEnd)

		extended, err := lc.ExtendTrial(ctx, sub.ID, 7, "goodwill")
		require.NoError(t, err)

		require.NotNil(t, extended.TrialEnd)
		assert.Equal(t, trialEnd.AddDate(0, 0, 7), *extended.TrialEnd)
		assert.Equal(t, *extended.TrialEnd, extended.CurrentPeriodEnd)
		assert.Equal(t, subscription.StatusTrial, extended.Status)

		// Exactly one record after one extension.
		require.Len(t, extended.Metadata, 1)
		last := extended.Metadata[0]
		assert.Equal(t, subscription.EventExtension, last.Kind)
		assert.Equal(t, 7, last.AdditionalDays)
		assert.Equal(t, "goodwill", last.Reason)
	})

	t.Run("extensions accumulate", func(t *testing.T) {
		t.Parallel()

		lc, store, _ := newLifecycle(t, lifecyclePlans())
		trialEnd := time.Now().UTC().AddDate(0, 0, 3)
		sub := seedTrial(t, store, trialEnd)

		_, err := lc.ExtendTrial(ctx, sub.ID, 5, "first")
		require.NoError(t, err)
		extended, err := lc.ExtendTrial(ctx, sub.ID, 3, "second")
		require.NoError(t, err)

		require.NotNil(t, extended.TrialEnd)
		assert.Equal(t, trialEnd.AddDate(0, 0, 8), *extended.TrialEnd)
		// one record per extension, in order
		require.Len(t, extended.Metadata, 2)
		assert.Equal(t, 5, extended.Metadata[0].AdditionalDays)
		assert.Equal(t, 3, extended.Metadata[1].AdditionalDays)
	})

	t.Run("extension bounds", func(t *testing.T) {
		t.Parallel()

		lc, store, _ := newLifecycle(t, lifecyclePlans())
		sub := seedTrial(t, store, time.Now().UTC().AddDate(0, 0, 3))

		for _, days := range []int{0, -1, 31} {
			_, err := lc.ExtendTrial(ctx, sub.ID, days, "out of range")
			assert.ErrorIs(t, err, subscription.ErrInvalidExtension, "days=%d", days)
		}
	})

	t.Run("only trials can be extended", func(t *testing.T) {
		t.Parallel()

		lc, _, _ := newLifecycle(t, lifecyclePlans())
		sub, err := lc.ProvisionActive(ctx, uuid.New(), "pro")
		require.NoError(t, err)

		_, err = lc.ExtendTrial(ctx, sub.ID, 7, "nope")
		assert.ErrorIs(t, err, subscription.ErrNotInTrial)
	})
}

func TestLifecycle_ProcessExpiredTrial(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("migrates to the free tier when one exists", func(t *testing.T) {
		t.Parallel()

		lc, store, notify := newLifecycle(t, lifecyclePlans())
		sub := seedTrial(t, store, time.Now().UTC().AddDate(0, 0, -1))

		outcome, err := lc.ProcessExpiredTrial(ctx, sub.ID)
		require.NoError(t, err)
		assert.Equal(t, subscription.OutcomeConvertedToFree, outcome)

		stored, err := store.GetByID(ctx, sub.ID)
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusActive, stored.Status)
		assert.Equal(t, "free", stored.PlanSlug)

		require.Len(t, stored.Metadata, 1)
		last := stored.Metadata[0]
		assert.Equal(t, subscription.EventPlanMigrated, last.Kind)
		assert.Equal(t, "pro", last.FromPlan)
		assert.Equal(t, "free", last.ToPlan)

		msgs := notify.messages()
		require.Len(t, msgs, 1)
		assert.Equal(t, notifier.EventTrialConvertedToFree, msgs[0].event)
	})

	t.Run("cancels when no free tier is configured", func(t *testing.T) {
		t.Parallel()

		paidOnly := lifecyclePlans()
		delete(paidOnly, "free")
		lc, store, notify := newLifecycle(t, paidOnly)
		sub := seedTrial(t, store, time.Now().UTC().AddDate(0, 0, -1))

		outcome, err := lc.ProcessExpiredTrial(ctx, sub.ID)
		require.NoError(t, err)
		assert.Equal(t, subscription.OutcomeCancelled, outcome)

		stored, err := store.GetByID(ctx, sub.ID)
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusCancelled, stored.Status)

		require.Len(t, stored.Metadata, 1)
		last := stored.Metadata[0]
		assert.Equal(t, subscription.EventCancellation, last.Kind)
		assert.Equal(t, "trial_expired", last.Reason)

		msgs := notify.messages()
		require.Len(t, msgs, 1)
		assert.Equal(t, notifier.EventTrialCancelled, msgs[0].event)
	})

	t.Run("only trials are processed", func(t *testing.T) {
		t.Parallel()

		lc, _, _ := newLifecycle(t, lifecyclePlans())
		sub, err := lc.ProvisionActive(ctx, uuid.New(), "pro")
		require.NoError(t, err)

		_, err = lc.ProcessExpiredTrial(ctx, sub.ID)
		assert.ErrorIs(t, err, subscription.ErrNotInTrial)
	})
}

func TestSubscription_TrialDaysRemainingAt(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	end := now.AddDate(0, 0, 7)
	sub := &subscription.Subscription{Status: subscription.StatusTrial, TrialEnd: &end}
	assert.Equal(t, 7, sub.TrialDaysRemainingAt(now))

	// Partial days round up.
	endSoon := now.Add(36 * time.Hour)
	sub = &subscription.Subscription{Status: subscription.StatusTrial, TrialEnd: &endSoon}
	assert.Equal(t, 2, sub.TrialDaysRemainingAt(now))

	past := now.AddDate(0, 0, -1)
	sub = &subscription.Subscription{Status: subscription.StatusTrial, TrialEnd: &past}
	assert.Equal(t, 0, sub.TrialDaysRemainingAt(now))

	sub = &subscription.Subscription{Status: subscription.StatusActive, TrialEnd: &end}
	assert.Equal(t, 0, sub.TrialDaysRemainingAt(now))
}

func TestSubscription_EffectiveLimits(t *testing.T) {
	t.Parallel()

	plan := plans.Plan{Limits: plans.TicketLimits{Active: 10, Completed: 50, Total: 60}}

	sub := &subscription.Subscription{}
	assert.Equal(t, plan.Limits, sub.EffectiveLimits(plan))

	custom := plans.TicketLimits{Active: 500, Completed: plans.Unlimited, Total: plans.Unlimited}
	sub.CustomPricing = &subscription.CustomPricing{Limits: &custom}
	assert.Equal(t, custom, sub.EffectiveLimits(plan))
}
