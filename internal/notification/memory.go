package notification

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"loan-recovery/internal/pkg/apperrors"
)

// MemoryStore is an in-process sink that retains delivered notifications per
// user and backs the /notifications API.
type MemoryStore struct {
	mu     sync.Mutex
	byUser map[int64][]*Notification
	nextID int64
	logger *slog.Logger
}

var _ Sink = (*MemoryStore)(nil)

func NewMemoryStore(logger *slog.Logger) *MemoryStore {
	return &MemoryStore{
		byUser: make(map[int64][]*Notification),
		nextID: 1,
		logger: logger.With(slog.String("component", "notificationMemoryStore")),
	}
}

func (m *MemoryStore) Deliver(ctx context.Context, n Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	n.ID = m.nextID
	m.nextID++
	n.Read = false
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	m.byUser[n.UserID] = append(m.byUser[n.UserID], &n)

	m.logger.InfoContext(ctx, "Notification delivered",
		"notificationID", n.ID, "userID", n.UserID, "kind", n.Kind)
	return nil
}

// ListByUser returns the user's notifications, newest first.
func (m *MemoryStore) ListByUser(userID int64) []Notification {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Notification, 0, len(m.byUser[userID]))
	for _, n := range m.byUser[userID] {
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *MemoryStore) UnreadCount(userID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, n := range m.byUser[userID] {
		if !n.Read {
			count++
		}
	}
	return count
}

// MarkRead flags a single notification as read. The user must own it.
func (m *MemoryStore) MarkRead(userID, notificationID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, n := range m.byUser[userID] {
		if n.ID == notificationID {
			n.Read = true
			return nil
		}
	}
	return fmt.Errorf("%w: notification %d", apperrors.ErrNotFound, notificationID)
}

// MarkAllRead flags every notification of the user as read and returns how
// many were affected.
func (m *MemoryStore) MarkAllRead(userID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, n := range m.byUser[userID] {
		if !n.Read {
			n.Read = true
			count++
		}
	}
	return count
}
