package subscription

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store defines subscription persistence. Each tenant has at most one
// subscription; TenantID carries a unique constraint.
//
// Update must be a single atomic write covering every field including the
// metadata log, so a lifecycle mutation can never be half-applied.
type Store interface {
	// Create inserts a new subscription.
	// Returns ErrAlreadySubscribed if the tenant already has one.
	Create(ctx context.Context, sub *Subscription) error

	// GetByID retrieves a subscription by its ID.
	// Returns ErrNotFound if no subscription exists.
	GetByID(ctx context.Context, id uuid.UUID) (*Subscription, error)

	// GetByTenant retrieves the subscription for a tenant.
	// Returns ErrNotFound if no subscription exists.
	GetByTenant(ctx context.Context, tenantID uuid.UUID) (*Subscription, error)

	// Update atomically replaces the stored record.
	// Returns ErrNotFound if the subscription does not exist.
	Update(ctx context.Context, sub *Subscription) error

	// ListExpiredTrials returns subscriptions still in trial whose trial end
	// is strictly before asOf.
	ListExpiredTrials(ctx context.Context, asOf time.Time) ([]*Subscription, error)

	// ListTrialsEndingBetween returns subscriptions in trial whose trial end
	// falls within [from, to].
	ListTrialsEndingBetween(ctx context.Context, from, to time.Time) ([]*Subscription, error)
}
