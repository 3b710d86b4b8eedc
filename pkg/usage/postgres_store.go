package usage

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresTicketStore reads ticket counts from the ticketing schema.
// The engine never writes through this store; ticket CRUD lives elsewhere.
type PostgresTicketStore struct {
	pool *pgxpool.Pool
}

// NewPostgresTicketStore creates a read-only ticket counter over the pool.
func NewPostgresTicketStore(pool *pgxpool.Pool) *PostgresTicketStore {
	if pool == nil {
		panic("usage: pgx pool is required")
	}
	return &PostgresTicketStore{pool: pool}
}

func (s *PostgresTicketStore) count(ctx context.Context, query string, tenantID uuid.UUID) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, query, tenantID).Scan(&n); err != nil {
		return 0, errors.Join(ErrFailedToCountTickets, err)
	}
	return n, nil
}

// CountActive counts open, unarchived tickets for the tenant.
func (s *PostgresTicketStore) CountActive(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	return s.count(ctx, `
		SELECT COUNT(*) FROM tickets
		WHERE tenant_id = $1 AND status NOT IN ('completed', 'closed') AND archived_at IS NULL`,
		tenantID)
}

// CountCompleted counts completed, unarchived tickets for the tenant.
func (s *PostgresTicketStore) CountCompleted(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	return s.count(ctx, `
		SELECT COUNT(*) FROM tickets
		WHERE tenant_id = $1 AND status IN ('completed', 'closed') AND archived_at IS NULL`,
		tenantID)
}

// CountArchived counts archived tickets for the tenant.
func (s *PostgresTicketStore) CountArchived(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	return s.count(ctx, `
		SELECT COUNT(*) FROM tickets
		WHERE tenant_id = $1 AND archived_at IS NOT NULL`,
		tenantID)
}

// CountTotal counts all unarchived tickets for the tenant.
// Archived tickets fall out of the total quota so archival frees capacity.
func (s *PostgresTicketStore) CountTotal(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	return s.count(ctx, `
		SELECT COUNT(*) FROM tickets
		WHERE tenant_id = $1 AND archived_at IS NULL`,
		tenantID)
}
