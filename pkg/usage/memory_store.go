package usage

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryTicketStore is an in-memory TicketStore for tests and local wiring.
// Counts are set per tenant and read back atomically.
type MemoryTicketStore struct {
	mu     sync.RWMutex
	counts map[uuid.UUID]Stats
}

// NewMemoryTicketStore returns an empty in-memory ticket store.
func NewMemoryTicketStore() *MemoryTicketStore {
	return &MemoryTicketStore{counts: make(map[uuid.UUID]Stats)}
}

// SetCounts replaces the stored counts for a tenant.
func (s *MemoryTicketStore) SetCounts(tenantID uuid.UUID, stats Stats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[tenantID] = stats
}

func (s *MemoryTicketStore) get(tenantID uuid.UUID) Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counts[tenantID]
}

func (s *MemoryTicketStore) CountActive(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	return s.get(tenantID).Active, nil
}

func (s *MemoryTicketStore) CountCompleted(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	return s.get(tenantID).Completed, nil
}

func (s *MemoryTicketStore) CountArchived(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	return s.get(tenantID).Archived, nil
}

func (s *MemoryTicketStore) CountTotal(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	return s.get(tenantID).Total, nil
}
