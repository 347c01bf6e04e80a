package social

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fieldhouse/fieldhouse/internal/models"
	"github.com/fieldhouse/fieldhouse/pkg/logging"
	"github.com/fieldhouse/fieldhouse/pkg/telemetry"
)

// Activity fans post interactions out to the notification sink. It exists to
// exercise the non-follow notification types; the post CRUD surface itself
// lives elsewhere in the application.
type Activity struct {
	db     *gorm.DB
	sink   *Sink
	logger *zap.Logger
}

// NewActivity creates a new activity fan-out
func NewActivity(database *gorm.DB, sink *Sink) *Activity {
	return &Activity{
		db:     database,
		sink:   sink,
		logger: logging.GetLogger().With(zap.String("component", "activity")),
	}
}

// LikePost records a like and notifies the post author. Liking your own post
// bumps the counter but never notifies: the sink swallows the self-notify.
func (a *Activity) LikePost(ctx context.Context, actorID, postID int64) error {
	ctx, span := telemetry.StartSpan(ctx, "social.like_post")
	defer span.End()

	var notified int64
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		post, err := a.loadPost(tx, postID)
		if err != nil {
			return err
		}

		if err := tx.Model(&models.Post{}).
			Where("id = ?", postID).
			Update("like_count", gorm.Expr("like_count + 1")).Error; err != nil {
			return fmt.Errorf("failed to update like count: %w", err)
		}

		notif, err := a.sink.emit(ctx, tx, post.AuthorID, actorID, models.NotifyTypeLike, strconv.FormatInt(postID, 10))
		if notif != nil {
			notified = notif.RecipientID
		}
		return err
	})
	if err != nil {
		return err
	}
	if notified != 0 {
		a.sink.invalidateUnread(notified)
	}
	return nil
}

// CommentPost records a comment and notifies the post author
func (a *Activity) CommentPost(ctx context.Context, actorID, postID int64, body string) error {
	ctx, span := telemetry.StartSpan(ctx, "social.comment_post")
	defer span.End()

	if body == "" {
		return fmt.Errorf("%w: empty comment body", ErrInvalidOperation)
	}

	var notified int64
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		post, err := a.loadPost(tx, postID)
		if err != nil {
			return err
		}

		notif, err := a.sink.emit(ctx, tx, post.AuthorID, actorID, models.NotifyTypeComment, strconv.FormatInt(postID, 10))
		if notif != nil {
			notified = notif.RecipientID
		}
		return err
	})
	if err != nil {
		return err
	}
	if notified != 0 {
		a.sink.invalidateUnread(notified)
	}
	return nil
}

// TagAccount notifies an account that it was tagged on a post
func (a *Activity) TagAccount(ctx context.Context, actorID, postID, taggedID int64) error {
	ctx, span := telemetry.StartSpan(ctx, "social.tag_account")
	defer span.End()

	var notified int64
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := a.loadPost(tx, postID); err != nil {
			return err
		}

		var account models.Account
		if err := tx.First(&account, taggedID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: unknown account %d", ErrInvalidOperation, taggedID)
			}
			return err
		}

		notif, err := a.sink.emit(ctx, tx, taggedID, actorID, models.NotifyTypeTag, strconv.FormatInt(postID, 10))
		if notif != nil {
			notified = notif.RecipientID
		}
		return err
	})
	if err != nil {
		return err
	}
	if notified != 0 {
		a.sink.invalidateUnread(notified)
	}
	return nil
}

// CreatePost creates a post and bumps the author's post counter
func (a *Activity) CreatePost(ctx context.Context, authorID int64, body, sport string) (*models.Post, error) {
	if body == "" {
		return nil, fmt.Errorf("%w: empty post body", ErrInvalidOperation)
	}

	now := time.Now().UTC()
	post := &models.Post{
		AuthorID:  authorID,
		Body:      body,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if sport != "" {
		post.Sport = sql.NullString{String: sport, Valid: true}
	}

	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(post).Error; err != nil {
			return fmt.Errorf("failed to create post: %w", err)
		}
		return tx.Model(&models.Account{}).
			Where("id = ?", authorID).
			Update("post_count", gorm.Expr("post_count + 1")).Error
	})
	if err != nil {
		return nil, err
	}

	a.logger.Debug("Created post",
		zap.Int64("author", authorID),
		zap.Int64("post", post.ID))
	return post, nil
}

func (a *Activity) loadPost(tx *gorm.DB, postID int64) (*models.Post, error) {
	var post models.Post
	if err := tx.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: post %d", ErrNotFound, postID)
		}
		return nil, err
	}
	return &post, nil
}
