package social

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldhouse/fieldhouse/internal/cache"
	"github.com/fieldhouse/fieldhouse/internal/models"
)

func TestCreatePost(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.createAccount(t, "alice", false)

	post, err := h.activity.CreatePost(ctx, alice.ID, "shot a 79 at the muni", "golf")
	require.NoError(t, err)
	assert.NotZero(t, post.ID)
	require.True(t, post.Sport.Valid)
	assert.Equal(t, "golf", post.Sport.String)
	assert.Equal(t, int64(1), h.reloadAccount(t, alice.ID).PostCount)

	_, err = h.activity.CreatePost(ctx, alice.ID, "", "")
	assert.ErrorIs(t, err, ErrInvalidOperation)
}

func TestLikePost(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	alice := h.createAccount(t, "alice", false)
	carol := h.createAccount(t, "carol", false)

	post, err := h.activity.CreatePost(ctx, alice.ID, "pickup game at 6", "basketball")
	require.NoError(t, err)

	require.NoError(t, h.activity.LikePost(ctx, carol.ID, post.ID))

	var stored models.Post
	require.NoError(t, h.db.First(&stored, post.ID).Error)
	assert.Equal(t, int64(1), stored.LikeCount)

	notifs := h.notificationsFor(t, alice.ID)
	require.Len(t, notifs, 1)
	assert.Equal(t, models.NotifyTypeLike, notifs[0].Type)
	assert.Equal(t, carol.ID, notifs[0].ActorID)

	err = h.activity.LikePost(ctx, carol.ID, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLikePost_InvalidatesUnreadAfterCommit(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	alice := h.createAccount(t, "alice", false)
	carol := h.createAccount(t, "carol", false)

	rec := newRecordingCache()
	h.sink.cache = rec

	post, err := h.activity.CreatePost(ctx, alice.ID, "course review", "golf")
	require.NoError(t, err)

	// warm the author's unread counter, then mutate
	unreadKey := cache.CounterKey("unread", alice.ID)
	require.NoError(t, rec.SetInt64(unreadKey, 0, time.Minute))

	require.NoError(t, h.activity.LikePost(ctx, carol.ID, post.ID))
	assert.Contains(t, rec.deletes, unreadKey)

	// the next read recomputes from the store instead of the stale counter
	count, err := h.sink.UnreadCount(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// a self-like never notifies, so it must not churn the cache either
	rec.deletes = nil
	require.NoError(t, h.activity.LikePost(ctx, alice.ID, post.ID))
	assert.Empty(t, rec.deletes)
}

func TestLikePost_OwnPost(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.createAccount(t, "alice", false)

	post, err := h.activity.CreatePost(ctx, alice.ID, "new clubs day", "golf")
	require.NoError(t, err)

	// the like counts, the notification does not
	require.NoError(t, h.activity.LikePost(ctx, alice.ID, post.ID))

	var stored models.Post
	require.NoError(t, h.db.First(&stored, post.ID).Error)
	assert.Equal(t, int64(1), stored.LikeCount)
	assert.Empty(t, h.notificationsFor(t, alice.ID))
}

func TestCommentPost(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	alice := h.createAccount(t, "alice", false)
	carol := h.createAccount(t, "carol", false)

	post, err := h.activity.CreatePost(ctx, alice.ID, "back nine in 38", "golf")
	require.NoError(t, err)

	require.NoError(t, h.activity.CommentPost(ctx, carol.ID, post.ID, "nice round"))

	notifs := h.notificationsFor(t, alice.ID)
	require.Len(t, notifs, 1)
	assert.Equal(t, models.NotifyTypeComment, notifs[0].Type)

	err = h.activity.CommentPost(ctx, carol.ID, post.ID, "")
	assert.ErrorIs(t, err, ErrInvalidOperation)
}

func TestTagAccount(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	alice := h.createAccount(t, "alice", false)
	carol := h.createAccount(t, "carol", false)

	post, err := h.activity.CreatePost(ctx, alice.ID, "doubles with @carol", "tennis")
	require.NoError(t, err)

	require.NoError(t, h.activity.TagAccount(ctx, alice.ID, post.ID, carol.ID))

	notifs := h.notificationsFor(t, carol.ID)
	require.Len(t, notifs, 1)
	assert.Equal(t, models.NotifyTypeTag, notifs[0].Type)
	assert.Equal(t, alice.ID, notifs[0].ActorID)

	err = h.activity.TagAccount(ctx, alice.ID, post.ID, 999)
	assert.ErrorIs(t, err, ErrInvalidOperation)
}
