package subscription

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store for tests and local wiring.
// All reads and writes operate on deep copies so callers can never mutate
// stored state outside Update.
type MemoryStore struct {
	mu       sync.RWMutex
	byID     map[uuid.UUID]*Subscription
	byTenant map[uuid.UUID]uuid.UUID
}

// NewMemoryStore returns an empty in-memory subscription store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:     make(map[uuid.UUID]*Subscription),
		byTenant: make(map[uuid.UUID]uuid.UUID),
	}
}

func (s *MemoryStore) Create(ctx context.Context, sub *Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byTenant[sub.TenantID]; exists {
		return ErrAlreadySubscribed
	}

	s.byID[sub.ID] = sub.clone()
	s.byTenant[sub.TenantID] = sub.ID
	return nil
}

func (s *MemoryStore) GetByID(ctx context.Context, id uuid.UUID) (*Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, exists := s.byID[id]
	if !exists {
		return nil, ErrNotFound
	}
	return sub.clone(), nil
}

func (s *MemoryStore) GetByTenant(ctx context.Context, tenantID uuid.UUID) (*Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.byTenant[tenantID]
	if !exists {
		return nil, ErrNotFound
	}
	return s.byID[id].clone(), nil
}

func (s *MemoryStore) Update(ctx context.Context, sub *Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[sub.ID]; !exists {
		return ErrNotFound
	}

	// Single map assignment of a fresh copy keeps the whole record, metadata
	// log included, atomic under the store mutex.
	s.byID[sub.ID] = sub.clone()
	return nil
}

func (s *MemoryStore) ListExpiredTrials(ctx context.Context, asOf time.Time) ([]*Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Subscription
	for _, sub := range s.byID {
		if sub.Status != StatusTrial || sub.TrialEnd == nil {
			continue
		}
		if sub.TrialEnd.Before(asOf) {
			out = append(out, sub.clone())
		}
	}
	return out, nil
}

func (s *MemoryStore) ListTrialsEndingBetween(ctx context.Context, from, to time.Time) ([]*Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Subscription
	for _, sub := range s.byID {
		if sub.Status != StatusTrial || sub.TrialEnd == nil {
			continue
		}
		end := *sub.TrialEnd
		if !end.Before(from) && !end.After(to) {
			out = append(out, sub.clone())
		}
	}
	return out, nil
}
