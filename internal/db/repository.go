package db

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/fieldhouse/fieldhouse/internal/models"
)

// Repository provides database access methods
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// AccountRepository provides account-related database operations
type AccountRepository struct {
	*Repository
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(repo *Repository) *AccountRepository {
	return &AccountRepository{Repository: repo}
}

// GetByID retrieves an account by ID
func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).First(&account, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// GetByHandle retrieves an account by handle
func (r *AccountRepository) GetByHandle(ctx context.Context, handle string) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).Where("handle = ?", handle).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// GetByIDs retrieves multiple accounts by IDs
func (r *AccountRepository) GetByIDs(ctx context.Context, ids []int64) ([]*models.Account, error) {
	var accounts []*models.Account
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// Create creates a new account
func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	return r.db.WithContext(ctx).Create(account).Error
}

// Update updates an account
func (r *AccountRepository) Update(ctx context.Context, account *models.Account) error {
	return r.db.WithContext(ctx).Save(account).Error
}

// SetLastRead updates the lastread_at watermark for an account
func (r *AccountRepository) SetLastRead(ctx context.Context, id int64, date time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ?", id).
		Update("lastread_at", date).Error
}

// RelationshipRepository provides follow-edge database operations
type RelationshipRepository struct {
	*Repository
}

// NewRelationshipRepository creates a new relationship repository
func NewRelationshipRepository(repo *Repository) *RelationshipRepository {
	return &RelationshipRepository{Repository: repo}
}

// GetByID retrieves a relationship by ID
func (r *RelationshipRepository) GetByID(ctx context.Context, id string) (*models.Relationship, error) {
	var rel models.Relationship
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&rel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rel, nil
}

// GetByPair retrieves the edge for an ordered (follower, followee) pair
func (r *RelationshipRepository) GetByPair(ctx context.Context, followerID, followeeID int64) (*models.Relationship, error) {
	var rel models.Relationship
	if err := r.db.WithContext(ctx).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		First(&rel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rel, nil
}

// ListByFollowee lists edges pointing at followee with the given status,
// newest first, using a (created_at, id) keyset cursor
func (r *RelationshipRepository) ListByFollowee(ctx context.Context, followeeID int64, status models.RelationshipStatus, before *Keyset, limit int) ([]*models.Relationship, error) {
	query := r.db.WithContext(ctx).
		Where("followee_id = ? AND status = ?", followeeID, status)
	query = applyKeyset(query, before)

	var rels []*models.Relationship
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&rels).Error; err != nil {
		return nil, err
	}
	return rels, nil
}

// ListByFollower lists edges originating at follower with the given status,
// newest first, using a (created_at, id) keyset cursor
func (r *RelationshipRepository) ListByFollower(ctx context.Context, followerID int64, status models.RelationshipStatus, before *Keyset, limit int) ([]*models.Relationship, error) {
	query := r.db.WithContext(ctx).
		Where("follower_id = ? AND status = ?", followerID, status)
	query = applyKeyset(query, before)

	var rels []*models.Relationship
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&rels).Error; err != nil {
		return nil, err
	}
	return rels, nil
}

// Keyset identifies a position in a reverse-chronological listing. ID is a
// string so the same cursor shape serves relationship (uuid) and
// notification (int64, rendered decimal) pages.
type Keyset struct {
	CreatedAt time.Time
	ID        string
}

// applyKeyset restricts a reverse-chronological query to rows strictly
// before the keyset position
func applyKeyset(query *gorm.DB, before *Keyset) *gorm.DB {
	if before == nil {
		return query
	}
	return query.Where(
		"(created_at < ?) OR (created_at = ? AND id < ?)",
		before.CreatedAt, before.CreatedAt, before.ID,
	)
}

// NotificationRepository provides notification database operations
type NotificationRepository struct {
	*Repository
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(repo *Repository) *NotificationRepository {
	return &NotificationRepository{Repository: repo}
}

// Create creates a new notification
func (r *NotificationRepository) Create(ctx context.Context, notif *models.Notification) error {
	return r.db.WithContext(ctx).Create(notif).Error
}

// GetByID retrieves a notification by ID
func (r *NotificationRepository) GetByID(ctx context.Context, id int64) (*models.Notification, error) {
	var notif models.Notification
	if err := r.db.WithContext(ctx).First(&notif, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &notif, nil
}

// NotificationFilter narrows ListForRecipient results
type NotificationFilter struct {
	UnreadOnly bool
	Type       *int16
	Before     *Keyset
	Limit      int
}

// ListForRecipient lists a recipient's notifications newest first
func (r *NotificationRepository) ListForRecipient(ctx context.Context, recipientID int64, filter NotificationFilter) ([]*models.Notification, error) {
	query := r.db.WithContext(ctx).Where("recipient_id = ?", recipientID)
	if filter.UnreadOnly {
		query = query.Where("is_read = ?", false)
	}
	if filter.Type != nil {
		query = query.Where("type_id = ?", *filter.Type)
	}
	query = applyKeyset(query, filter.Before)

	var notifs []*models.Notification
	if err := query.Order("created_at DESC, id DESC").Limit(filter.Limit).Find(&notifs).Error; err != nil {
		return nil, err
	}
	return notifs, nil
}

// CountUnread counts unread notifications for a recipient
func (r *NotificationRepository) CountUnread(ctx context.Context, recipientID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&count).Error
	return count, err
}

// MarkRead marks one of the recipient's notifications read. Idempotent; a
// repeat call matches zero rows and is not an error.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, recipientID int64) error {
	return r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Update("is_read", true).Error
}

// MarkAllRead marks all of the recipient's notifications read
func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipientID int64) error {
	return r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Update("is_read", true).Error
}

// DeleteReadBefore removes read notifications created before the cutoff and
// returns the number of rows deleted
func (r *NotificationRepository) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("is_read = ? AND created_at < ?", true, cutoff).
		Delete(&models.Notification{})
	return result.RowsAffected, result.Error
}

// PostRepository provides post-related database operations
type PostRepository struct {
	*Repository
}

// NewPostRepository creates a new post repository
func NewPostRepository(repo *Repository) *PostRepository {
	return &PostRepository{Repository: repo}
}

// GetByID retrieves a post by ID
func (r *PostRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

// Create creates a new post
func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}
