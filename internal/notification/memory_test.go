package notification

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"loan-recovery/internal/pkg/apperrors"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, nil))

func TestMemoryStoreDeliverAssignsIDs(t *testing.T) {
	store := NewMemoryStore(logger)
	ctx := context.Background()

	assert.NoError(t, store.Deliver(ctx, Notification{UserID: 1, Kind: KindLoanAssignment}))
	assert.NoError(t, store.Deliver(ctx, Notification{UserID: 1, Kind: KindLoanAssignment}))
	assert.NoError(t, store.Deliver(ctx, Notification{UserID: 2, Kind: KindLoanAssignment}))

	first := store.ListByUser(1)
	assert.Len(t, first, 2)
	assert.Len(t, store.ListByUser(2), 1)
	assert.NotEqual(t, first[0].ID, first[1].ID)
}

func TestMemoryStoreListNewestFirst(t *testing.T) {
	store := NewMemoryStore(logger)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	store.Deliver(ctx, Notification{UserID: 1, Message: "old", CreatedAt: base})
	store.Deliver(ctx, Notification{UserID: 1, Message: "new", CreatedAt: base.Add(time.Hour)})

	got := store.ListByUser(1)
	assert.Equal(t, "new", got[0].Message)
	assert.Equal(t, "old", got[1].Message)
}

func TestMemoryStoreMarkRead(t *testing.T) {
	store := NewMemoryStore(logger)
	ctx := context.Background()

	store.Deliver(ctx, Notification{UserID: 1})
	store.Deliver(ctx, Notification{UserID: 1})
	assert.Equal(t, 2, store.UnreadCount(1))

	id := store.ListByUser(1)[0].ID
	assert.NoError(t, store.MarkRead(1, id))
	assert.Equal(t, 1, store.UnreadCount(1))

	// marking again is harmless
	assert.NoError(t, store.MarkRead(1, id))
	assert.Equal(t, 1, store.UnreadCount(1))
}

func TestMemoryStoreMarkReadScopedToOwner(t *testing.T) {
	store := NewMemoryStore(logger)
	ctx := context.Background()

	store.Deliver(ctx, Notification{UserID: 1})
	id := store.ListByUser(1)[0].ID

	err := store.MarkRead(2, id)

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Equal(t, 1, store.UnreadCount(1))
}

func TestMemoryStoreMarkAllRead(t *testing.T) {
	store := NewMemoryStore(logger)
	ctx := context.Background()

	store.Deliver(ctx, Notification{UserID: 1})
	store.Deliver(ctx, Notification{UserID: 1})
	store.Deliver(ctx, Notification{UserID: 2})

	assert.Equal(t, 2, store.MarkAllRead(1))
	assert.Equal(t, 0, store.UnreadCount(1))
	assert.Equal(t, 1, store.UnreadCount(2))

	assert.Equal(t, 0, store.MarkAllRead(1))
}
