package subscription

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jtbomar/bomizzel-ticketing-system-sub005/pkg/pg"
)

// PostgresStore persists subscriptions in the subscriptions table created by
// migrations/00001_create_subscriptions.sql. The metadata audit trail and the
// custom pricing override are JSONB documents written together with the rest
// of the row, so every lifecycle mutation is one atomic UPDATE.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed subscription store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("subscription: pgx pool is required")
	}
	return &PostgresStore{pool: pool}
}

const subscriptionColumns = `id, tenant_id, plan_slug, status,
	current_period_start, current_period_end, trial_start, trial_end,
	custom_pricing, metadata, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, sub *Subscription) error {
	metadata, customPricing, err := marshalDocs(sub)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO subscriptions (`+subscriptionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		sub.ID, sub.TenantID, sub.PlanSlug, string(sub.Status),
		sub.CurrentPeriodStart, sub.CurrentPeriodEnd, sub.TrialStart, sub.TrialEnd,
		customPricing, metadata, sub.CreatedAt, sub.UpdatedAt,
	)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return ErrAlreadySubscribed
		}
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id uuid.UUID) (*Subscription, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = $1`, id)
	return scanSubscription(row)
}

func (s *PostgresStore) GetByTenant(ctx context.Context, tenantID uuid.UUID) (*Subscription, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+subscriptionColumns+` FROM subscriptions WHERE tenant_id = $1`, tenantID)
	return scanSubscription(row)
}

func (s *PostgresStore) Update(ctx context.Context, sub *Subscription) error {
	metadata, customPricing, err := marshalDocs(sub)
	if err != nil {
		return err
	}

	// One UPDATE carries status, period, trial window, pricing override and
	// the full metadata log. The record is either entirely the new version or
	// entirely the old one.
	tag, err := s.pool.Exec(ctx, `
		UPDATE subscriptions SET
			plan_slug = $2,
			status = $3,
			current_period_start = $4,
			current_period_end = $5,
			trial_start = $6,
			trial_end = $7,
			custom_pricing = $8,
			metadata = $9,
			updated_at = $10
		WHERE id = $1`,
		sub.ID, sub.PlanSlug, string(sub.Status),
		sub.CurrentPeriodStart, sub.CurrentPeriodEnd, sub.TrialStart, sub.TrialEnd,
		customPricing, metadata, sub.UpdatedAt,
	)
	if err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListExpiredTrials(ctx context.Context, asOf time.Time) ([]*Subscription, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+subscriptionColumns+` FROM subscriptions
		WHERE status = 'trial' AND trial_end IS NOT NULL AND trial_end < $1
		ORDER BY trial_end`, asOf)
	if err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}
	defer rows.Close()
	return collectSubscriptions(rows)
}

func (s *PostgresStore) ListTrialsEndingBetween(ctx context.Context, from, to time.Time) ([]*Subscription, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+subscriptionColumns+` FROM subscriptions
		WHERE status = 'trial' AND trial_end IS NOT NULL
			AND trial_end >= $1 AND trial_end <= $2
		ORDER BY trial_end`, from, to)
	if err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}
	defer rows.Close()
	return collectSubscriptions(rows)
}

func marshalDocs(sub *Subscription) (metadata, customPricing []byte, err error) {
	events := sub.Metadata
	if events == nil {
		events = []MetadataEvent{}
	}
	metadata, err = json.Marshal(events)
	if err != nil {
		return nil, nil, errors.Join(ErrStoreUnavailable, err)
	}

	if sub.CustomPricing != nil {
		customPricing, err = json.Marshal(sub.CustomPricing)
		if err != nil {
			return nil, nil, errors.Join(ErrStoreUnavailable, err)
		}
	}
	return metadata, customPricing, nil
}

func scanSubscription(row pgx.Row) (*Subscription, error) {
	var sub Subscription
	var status string
	var metadata []byte
	var customPricing []byte

	err := row.Scan(
		&sub.ID, &sub.TenantID, &sub.PlanSlug, &status,
		&sub.CurrentPeriodStart, &sub.CurrentPeriodEnd, &sub.TrialStart, &sub.TrialEnd,
		&customPricing, &metadata, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Join(ErrStoreUnavailable, err)
	}

	sub.Status = Status(status)

	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &sub.Metadata); err != nil {
			return nil, errors.Join(ErrStoreUnavailable, err)
		}
	}
	if len(customPricing) > 0 {
		sub.CustomPricing = &CustomPricing{}
		if err := json.Unmarshal(customPricing, sub.CustomPricing); err != nil {
			return nil, errors.Join(ErrStoreUnavailable, err)
		}
	}

	return &sub, nil
}

func collectSubscriptions(rows pgx.Rows) ([]*Subscription, error) {
	var out []*Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}
	return out, nil
}
