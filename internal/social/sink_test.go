package social

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/fieldhouse/fieldhouse/internal/cache"
	"github.com/fieldhouse/fieldhouse/internal/models"
)

func TestEmit(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	alice := h.createAccount(t, "alice", false)
	bob := h.createAccount(t, "bob", true)

	notif, err := h.sink.Emit(ctx, bob.ID, alice.ID, models.NotifyTypeLike, "42")
	require.NoError(t, err)
	require.NotNil(t, notif)
	assert.NotZero(t, notif.ID)
	assert.Equal(t, bob.ID, notif.RecipientID)
	assert.Equal(t, alice.ID, notif.ActorID)
	assert.False(t, notif.IsRead)
	assert.False(t, notif.ActionStatus.Valid, "a like is not actionable")
	require.True(t, notif.Payload.Valid)
	assert.Equal(t, "42", notif.Payload.String)
}

func TestEmit_SelfIsSilentNoOp(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.createAccount(t, "alice", false)

	notif, err := h.sink.Emit(ctx, alice.ID, alice.ID, models.NotifyTypeLike, "42")
	require.NoError(t, err)
	assert.Nil(t, notif)
	assert.Empty(t, h.notificationsFor(t, alice.ID))
}

func TestEmit_NoInvalidationInsideTransaction(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	alice := h.createAccount(t, "alice", false)
	bob := h.createAccount(t, "bob", true)

	rec := newRecordingCache()
	h.sink.cache = rec

	// a reader between an early key drop and the commit would cache the
	// pre-commit count, so the open transaction must not touch the cache
	err := h.db.Transaction(func(tx *gorm.DB) error {
		_, err := h.sink.emit(ctx, tx, bob.ID, alice.ID, models.NotifyTypeLike, "1")
		require.NoError(t, err)
		assert.Empty(t, rec.deletes, "cache invalidated before commit")
		return nil
	})
	require.NoError(t, err)
}

func TestEmit_InvalidatesAfterWrite(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	alice := h.createAccount(t, "alice", false)
	bob := h.createAccount(t, "bob", true)

	rec := newRecordingCache()
	h.sink.cache = rec

	_, err := h.sink.Emit(ctx, bob.ID, alice.ID, models.NotifyTypeLike, "1")
	require.NoError(t, err)
	assert.Equal(t, []string{cache.CounterKey("unread", bob.ID)}, rec.deletes)

	// the swallowed self-notify leaves the cache alone
	rec.deletes = nil
	_, err = h.sink.Emit(ctx, bob.ID, bob.ID, models.NotifyTypeLike, "1")
	require.NoError(t, err)
	assert.Empty(t, rec.deletes)
}

func TestMutateActionStatus(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	alice := h.createAccount(t, "alice", false)
	bob := h.createAccount(t, "bob", true)

	notif, err := h.sink.Emit(ctx, bob.ID, alice.ID, models.NotifyTypeFollowRequest, "rel-1")
	require.NoError(t, err)
	require.True(t, notif.ActionStatus.Valid)
	require.Equal(t, models.ActionStatusPending, notif.ActionStatus.String)

	require.NoError(t, h.sink.MutateActionStatus(ctx, notif.ID, models.ActionStatusAccepted))

	// already handled, the second mutation must not win
	err = h.sink.MutateActionStatus(ctx, notif.ID, models.ActionStatusDeclined)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	var stored models.Notification
	require.NoError(t, h.db.First(&stored, notif.ID).Error)
	assert.Equal(t, models.ActionStatusAccepted, stored.ActionStatus.String)
}

func TestMutateActionStatus_Rejections(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	alice := h.createAccount(t, "alice", false)
	bob := h.createAccount(t, "bob", true)

	err := h.sink.MutateActionStatus(ctx, 12345, models.ActionStatusAccepted)
	assert.ErrorIs(t, err, ErrNotFound)

	err = h.sink.MutateActionStatus(ctx, 1, "maybe")
	assert.ErrorIs(t, err, ErrInvalidOperation)

	// a non-actionable notification has no action status to move
	like, err := h.sink.Emit(ctx, bob.ID, alice.ID, models.NotifyTypeLike, "7")
	require.NoError(t, err)
	err = h.sink.MutateActionStatus(ctx, like.ID, models.ActionStatusAccepted)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestMarkRead(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	alice := h.createAccount(t, "alice", false)
	bob := h.createAccount(t, "bob", true)

	notif, err := h.sink.Emit(ctx, bob.ID, alice.ID, models.NotifyTypeComment, "9")
	require.NoError(t, err)

	count, err := h.sink.UnreadCount(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// marking through the wrong recipient matches nothing and is not an error
	require.NoError(t, h.sink.MarkRead(ctx, notif.ID, alice.ID))
	count, err = h.sink.UnreadCount(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.NoError(t, h.sink.MarkRead(ctx, notif.ID, bob.ID))
	require.NoError(t, h.sink.MarkRead(ctx, notif.ID, bob.ID))
	count, err = h.sink.UnreadCount(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestMarkAllRead(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	alice := h.createAccount(t, "alice", false)
	bob := h.createAccount(t, "bob", true)

	for i := 0; i < 3; i++ {
		_, err := h.sink.Emit(ctx, bob.ID, alice.ID, models.NotifyTypeLike, "")
		require.NoError(t, err)
	}

	before := h.reloadAccount(t, bob.ID).LastreadAt
	require.NoError(t, h.sink.MarkAllRead(ctx, bob.ID))

	count, err := h.sink.UnreadCount(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
	assert.True(t, h.reloadAccount(t, bob.ID).LastreadAt.After(before))

	// idempotent on an already-clean feed
	require.NoError(t, h.sink.MarkAllRead(ctx, bob.ID))
}

// seedNotification inserts a row with a controlled timestamp, bypassing Emit,
// so pagination and sweep assertions are deterministic.
func (h *harness) seedNotification(t *testing.T, recipientID, actorID int64, typeID int16, createdAt time.Time, read bool) *models.Notification {
	t.Helper()

	notif := &models.Notification{
		Type:        typeID,
		RecipientID: recipientID,
		ActorID:     actorID,
		IsRead:      read,
		CreatedAt:   createdAt,
	}
	if models.ActionableTypes[typeID] {
		notif.ActionStatus = sql.NullString{String: models.ActionStatusPending, Valid: true}
	}
	require.NoError(t, h.db.Create(notif).Error)
	return notif
}

func TestListForRecipient_Pagination(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	alice := h.createAccount(t, "alice", false)
	bob := h.createAccount(t, "bob", true)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	var ids []int64
	for i := 0; i < 5; i++ {
		n := h.seedNotification(t, bob.ID, alice.ID, models.NotifyTypeLike, base.Add(time.Duration(i)*time.Second), false)
		ids = append(ids, n.ID)
	}

	var seen []int64
	cursor := ""
	pages := 0
	for {
		notifs, next, err := h.sink.ListForRecipient(ctx, bob.ID, ListOptions{Cursor: cursor, Limit: 2})
		require.NoError(t, err)
		for _, n := range notifs {
			seen = append(seen, n.ID)
		}
		pages++
		if next == "" || len(notifs) == 0 {
			break
		}
		cursor = next
	}

	// newest first, every row exactly once
	assert.Equal(t, []int64{ids[4], ids[3], ids[2], ids[1], ids[0]}, seen)
	assert.LessOrEqual(t, pages, 4)
}

func TestListForRecipient_Filters(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	alice := h.createAccount(t, "alice", false)
	bob := h.createAccount(t, "bob", true)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	h.seedNotification(t, bob.ID, alice.ID, models.NotifyTypeLike, base, true)
	h.seedNotification(t, bob.ID, alice.ID, models.NotifyTypeComment, base.Add(time.Second), false)
	h.seedNotification(t, alice.ID, bob.ID, models.NotifyTypeLike, base.Add(2*time.Second), false)

	notifs, _, err := h.sink.ListForRecipient(ctx, bob.ID, ListOptions{})
	require.NoError(t, err)
	assert.Len(t, notifs, 2, "other recipients' rows must not leak")

	notifs, _, err = h.sink.ListForRecipient(ctx, bob.ID, ListOptions{UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.Equal(t, models.NotifyTypeComment, notifs[0].Type)

	likeType := models.NotifyTypeLike
	notifs, _, err = h.sink.ListForRecipient(ctx, bob.ID, ListOptions{Type: &likeType})
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.Equal(t, models.NotifyTypeLike, notifs[0].Type)
}

func TestListForRecipient_BadCursor(t *testing.T) {
	h := newHarness(t)
	bob := h.createAccount(t, "bob", true)

	_, _, err := h.sink.ListForRecipient(context.Background(), bob.ID, ListOptions{Cursor: "!!not-base64!!"})
	assert.ErrorIs(t, err, ErrInvalidOperation)
}

func TestSweep(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	alice := h.createAccount(t, "alice", false)
	bob := h.createAccount(t, "bob", true)

	old := time.Now().UTC().Add(-30 * 24 * time.Hour)
	recent := time.Now().UTC().Add(-time.Hour)

	h.seedNotification(t, bob.ID, alice.ID, models.NotifyTypeLike, old, true)
	unreadOld := h.seedNotification(t, bob.ID, alice.ID, models.NotifyTypeComment, old, false)
	readRecent := h.seedNotification(t, bob.ID, alice.ID, models.NotifyTypeLike, recent, true)

	removed, err := h.sink.Sweep(ctx, 7*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	var remaining []*models.Notification
	require.NoError(t, h.db.Order("id").Find(&remaining).Error)
	require.Len(t, remaining, 2)
	assert.Equal(t, unreadOld.ID, remaining[0].ID, "unread rows survive regardless of age")
	assert.Equal(t, readRecent.ID, remaining[1].ID, "recent rows survive regardless of read state")

	// the sweep already ran clean, a second pass removes nothing
	removed, err = h.sink.Sweep(ctx, 7*24*time.Hour)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestNotifyTypeName(t *testing.T) {
	assert.Equal(t, "follow_request", NotifyTypeName(models.NotifyTypeFollowRequest))
	assert.Equal(t, "new_follower", NotifyTypeName(models.NotifyTypeNewFollower))
	assert.Equal(t, "unknown", NotifyTypeName(99))
}
