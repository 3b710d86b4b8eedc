package sweep

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// ReminderLog records which reminders have gone out. MarkSent has
// set-if-absent semantics: it returns true exactly once per
// subscription+offset+day key, which gives the reminder sweep its
// at-most-once delivery guarantee per trigger window.
type ReminderLog interface {
	MarkSent(ctx context.Context, subID uuid.UUID, offsetDays int, day string) (first bool, err error)
}

// MemoryReminderLog is an in-memory ReminderLog for tests and single-node
// deployments.
type MemoryReminderLog struct {
	mu   sync.Mutex
	sent map[reminderKey]struct{}
}

type reminderKey struct {
	subID      uuid.UUID
	offsetDays int
	day        string
}

// NewMemoryReminderLog returns an empty in-memory reminder log.
func NewMemoryReminderLog() *MemoryReminderLog {
	return &MemoryReminderLog{sent: make(map[reminderKey]struct{})}
}

func (l *MemoryReminderLog) MarkSent(ctx context.Context, subID uuid.UUID, offsetDays int, day string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := reminderKey{subID: subID, offsetDays: offsetDays, day: day}
	if _, exists := l.sent[key]; exists {
		return false, nil
	}
	l.sent[key] = struct{}{}
	return true, nil
}
