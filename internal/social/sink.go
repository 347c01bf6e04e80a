package social

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fieldhouse/fieldhouse/internal/cache"
	"github.com/fieldhouse/fieldhouse/internal/db"
	"github.com/fieldhouse/fieldhouse/internal/models"
	"github.com/fieldhouse/fieldhouse/pkg/logging"
)

// counterCache is the slice of the Redis cache the social core uses for
// derived counters. *cache.Cache satisfies it, including as a nil pointer
// when the cache is disabled.
type counterCache interface {
	GetInt64(key string) (int64, bool)
	SetInt64(key string, value int64, ttl time.Duration) error
	Delete(keys ...string) error
}

// Sink is the append-only notification log. Entries are created as side
// effects of social actions; afterwards only is_read and action_status
// mutate, until the retention sweep deletes read entries.
type Sink struct {
	db     *gorm.DB
	cache  counterCache
	logger *zap.Logger
}

// NewSink creates a new notification sink
func NewSink(database *gorm.DB, redisCache *cache.Cache) *Sink {
	return &Sink{
		db:     database,
		cache:  redisCache,
		logger: logging.GetLogger().With(zap.String("component", "notification-sink")),
	}
}

// Emit appends a notification for recipient caused by actor. Self-notify
// (recipient == actor) is an expected no-op in several caller flows, e.g.
// liking your own post, so it is swallowed rather than surfaced: the result
// is (nil, nil) and nothing is stored.
func (s *Sink) Emit(ctx context.Context, recipientID, actorID int64, typeID int16, payload string) (*models.Notification, error) {
	notif, err := s.emit(ctx, s.db, recipientID, actorID, typeID, payload)
	if err != nil || notif == nil {
		return notif, err
	}
	s.invalidateUnread(recipientID)
	return notif, nil
}

// emit is Emit running on a caller-supplied handle, so engine transitions
// can append notifications inside their own transaction. It never touches
// the cache: the write is not committed yet, and dropping the unread key
// here would let a concurrent reader cache the pre-commit count. Callers
// invalidate after their transaction returns.
func (s *Sink) emit(ctx context.Context, tx *gorm.DB, recipientID, actorID int64, typeID int16, payload string) (*models.Notification, error) {
	if recipientID == actorID {
		s.logger.Debug("Skipped self-notification",
			zap.Int64("account", recipientID),
			zap.Int16("type", typeID))
		return nil, nil
	}

	notif := &models.Notification{
		Type:        typeID,
		RecipientID: recipientID,
		ActorID:     actorID,
		CreatedAt:   time.Now().UTC(),
	}
	if payload != "" {
		notif.Payload = sql.NullString{String: payload, Valid: true}
	}
	if models.ActionableTypes[typeID] {
		notif.ActionStatus = sql.NullString{String: models.ActionStatusPending, Valid: true}
	}

	if err := tx.WithContext(ctx).Create(notif).Error; err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	s.logger.Debug("Notification emitted",
		zap.Int64("recipient", recipientID),
		zap.Int64("actor", actorID),
		zap.String("type", NotifyTypeName(typeID)),
		zap.Int64("id", notif.ID))
	return notif, nil
}

// MutateActionStatus resolves an actionable notification. Only follow-request
// notifications whose action status is still pending may move, and they move
// exactly once; a double accept or decline fails with ErrInvalidTransition.
func (s *Sink) MutateActionStatus(ctx context.Context, id int64, newStatus string) error {
	if newStatus != models.ActionStatusAccepted && newStatus != models.ActionStatusDeclined {
		return fmt.Errorf("%w: action status %q", ErrInvalidOperation, newStatus)
	}
	return s.mutateActionStatus(ctx, s.db, id, newStatus)
}

func (s *Sink) mutateActionStatus(ctx context.Context, tx *gorm.DB, id int64, newStatus string) error {
	result := tx.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND type_id = ? AND action_status = ?",
			id, models.NotifyTypeFollowRequest, models.ActionStatusPending).
		Update("action_status", newStatus)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var notif models.Notification
		err := tx.WithContext(ctx).First(&notif, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: notification %d", ErrNotFound, id)
		}
		if err != nil {
			return err
		}
		return fmt.Errorf("%w: notification %d already handled", ErrInvalidTransition, id)
	}
	return nil
}

// resolveRequestNotification flips the follow-request notification tied to a
// relationship id. A missing row is tolerated: the notification may have been
// swept, or the edge may predate the request flow.
func (s *Sink) resolveRequestNotification(ctx context.Context, tx *gorm.DB, relationshipID string, newStatus string) error {
	result := tx.WithContext(ctx).
		Model(&models.Notification{}).
		Where("type_id = ? AND payload = ? AND action_status = ?",
			models.NotifyTypeFollowRequest, relationshipID, models.ActionStatusPending).
		Update("action_status", newStatus)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		s.logger.Debug("No pending request notification to resolve",
			zap.String("relationship", relationshipID),
			zap.String("status", newStatus))
	}
	return nil
}

// MarkRead marks one of the recipient's notifications read. Idempotent.
func (s *Sink) MarkRead(ctx context.Context, id, recipientID int64) error {
	repo := db.NewNotificationRepository(db.NewRepository(s.db))
	if err := repo.MarkRead(ctx, id, recipientID); err != nil {
		return err
	}
	s.invalidateUnread(recipientID)
	return nil
}

// MarkAllRead marks all of the recipient's notifications read and advances
// the lastread_at watermark. Idempotent.
func (s *Sink) MarkAllRead(ctx context.Context, recipientID int64) error {
	repo := db.NewRepository(s.db)
	if err := db.NewNotificationRepository(repo).MarkAllRead(ctx, recipientID); err != nil {
		return err
	}
	if err := db.NewAccountRepository(repo).SetLastRead(ctx, recipientID, time.Now().UTC()); err != nil {
		return err
	}
	s.invalidateUnread(recipientID)
	return nil
}

// ListOptions narrows and paginates ListForRecipient
type ListOptions struct {
	UnreadOnly bool
	Type       *int16
	Cursor     string
	Limit      int
}

// ListForRecipient returns a reverse-chronological page of the recipient's
// notifications and the cursor for the next page ("" when exhausted).
func (s *Sink) ListForRecipient(ctx context.Context, recipientID int64, opts ListOptions) ([]*models.Notification, string, error) {
	limit := opts.Limit
	if limit > 100 {
		limit = 100
	}
	if limit < 1 {
		limit = 50
	}

	before, err := DecodeCursor(opts.Cursor)
	if err != nil {
		return nil, "", err
	}

	repo := db.NewNotificationRepository(db.NewRepository(s.db))
	notifs, err := repo.ListForRecipient(ctx, recipientID, db.NotificationFilter{
		UnreadOnly: opts.UnreadOnly,
		Type:       opts.Type,
		Before:     before,
		Limit:      limit,
	})
	if err != nil {
		return nil, "", err
	}

	next := ""
	if len(notifs) == limit {
		last := notifs[len(notifs)-1]
		next = EncodeCursor(last.CreatedAt, fmt.Sprintf("%d", last.ID))
	}
	return notifs, next, nil
}

// UnreadCount returns the recipient's unread notification count, cached in
// Redis for a short TTL and invalidated on every mutation.
func (s *Sink) UnreadCount(ctx context.Context, recipientID int64) (int64, error) {
	key := cache.CounterKey("unread", recipientID)
	if count, ok := s.cache.GetInt64(key); ok {
		return count, nil
	}

	repo := db.NewNotificationRepository(db.NewRepository(s.db))
	count, err := repo.CountUnread(ctx, recipientID)
	if err != nil {
		return 0, err
	}

	if err := s.cache.SetInt64(key, count, time.Minute); err != nil && !errors.Is(err, cache.ErrCacheDisabled) {
		s.logger.Warn("Failed to cache unread count", zap.Error(err))
	}
	return count, nil
}

// Sweep deletes notifications that are read and older than the retention
// window, returning the number of rows removed.
func (s *Sink) Sweep(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention)
	repo := db.NewNotificationRepository(db.NewRepository(s.db))
	removed, err := repo.DeleteReadBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep notifications: %w", err)
	}
	if removed > 0 {
		s.logger.Info("Swept read notifications",
			zap.Int64("removed", removed),
			zap.Time("cutoff", cutoff))
	}
	return removed, nil
}

// invalidateUnread drops the recipient's cached unread counter so the next
// read recomputes from the store
func (s *Sink) invalidateUnread(recipientID int64) {
	if err := s.cache.Delete(cache.CounterKey("unread", recipientID)); err != nil && !errors.Is(err, cache.ErrCacheDisabled) {
		s.logger.Warn("Failed to invalidate unread count", zap.Error(err))
	}
}

// NotifyTypeName returns the wire name for a notification type
func NotifyTypeName(typeID int16) string {
	names := map[int16]string{
		models.NotifyTypeFollowRequest:  "follow_request",
		models.NotifyTypeFollowAccepted: "follow_accepted",
		models.NotifyTypeNewFollower:    "new_follower",
		models.NotifyTypeLike:           "like",
		models.NotifyTypeComment:        "comment",
		models.NotifyTypeTag:            "tag",
		models.NotifyTypeMention:        "mention",
	}
	if name, ok := names[typeID]; ok {
		return name
	}
	return "unknown"
}
