package social

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fieldhouse/fieldhouse/internal/cache"
	"github.com/fieldhouse/fieldhouse/internal/db"
	"github.com/fieldhouse/fieldhouse/internal/models"
	"github.com/fieldhouse/fieldhouse/pkg/logging"
	"github.com/fieldhouse/fieldhouse/pkg/telemetry"
)

// Engine drives the relationship state machine. A follow edge is in one of
// three states: no row, pending, accepted. Every transition runs as a single
// database transaction covering the edge write, the follower/following
// counters and the notification side effects; the unique index on
// (follower_id, followee_id) is the only concurrency primitive.
type Engine struct {
	db     *gorm.DB
	cache  counterCache
	sink   *Sink
	logger *zap.Logger
}

// NewEngine creates a new relationship engine
func NewEngine(database *gorm.DB, redisCache *cache.Cache, sink *Sink) *Engine {
	return &Engine{
		db:     database,
		cache:  redisCache,
		sink:   sink,
		logger: logging.GetLogger().With(zap.String("component", "relationship-engine")),
	}
}

// Decision is the followee's answer to a pending follow request
type Decision string

// Decision values
const (
	DecisionAccept  Decision = "accept"
	DecisionDecline Decision = "decline"
)

// Follow creates an edge from actor to target. A private target yields a
// pending edge plus a follow-request notification; a public target yields an
// accepted edge plus a new-follower notification. Relationship ids are never
// reused: a re-follow after a decline gets a fresh id.
func (e *Engine) Follow(ctx context.Context, actorID, targetID int64) (*models.Relationship, error) {
	ctx, span := telemetry.StartSpan(ctx, "social.follow")
	defer span.End()

	if actorID == targetID {
		return nil, fmt.Errorf("%w: cannot follow yourself", ErrInvalidOperation)
	}

	target, err := e.requireAccount(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if _, err := e.requireAccount(ctx, actorID); err != nil {
		return nil, err
	}

	status := models.RelationshipAccepted
	if target.IsPrivate {
		status = models.RelationshipPending
	}

	now := time.Now().UTC()
	rel := &models.Relationship{
		ID:         uuid.NewString(),
		FollowerID: actorID,
		FolloweeID: targetID,
		Status:     status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Relationship
		err := tx.Where("follower_id = ? AND followee_id = ?", actorID, targetID).
			First(&existing).Error
		if err == nil {
			if existing.Status == models.RelationshipAccepted {
				return fmt.Errorf("%w: %d -> %d", ErrAlreadyFollowing, actorID, targetID)
			}
			return fmt.Errorf("%w: request %s still pending", ErrAlreadyExists, existing.ID)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check existing relationship: %w", err)
		}

		if err := tx.Create(rel).Error; err != nil {
			// Loser of a concurrent duplicate follow lands here via the
			// unique index rather than the existence check above.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: %d -> %d", ErrAlreadyExists, actorID, targetID)
			}
			return fmt.Errorf("failed to create relationship: %w", err)
		}

		if status == models.RelationshipAccepted {
			if err := bumpFollowCounts(tx, actorID, targetID, 1); err != nil {
				return err
			}
			_, err = e.sink.emit(ctx, tx, targetID, actorID, models.NotifyTypeNewFollower, rel.ID)
			return err
		}

		_, err = e.sink.emit(ctx, tx, targetID, actorID, models.NotifyTypeFollowRequest, rel.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.invalidateCounts(actorID, targetID)
	e.logger.Debug("Processed follow",
		zap.Int64("follower", actorID),
		zap.Int64("followee", targetID),
		zap.String("status", string(status)))
	return rel, nil
}

// Respond resolves a pending follow request. Only the followee may respond.
// Accepting flips the edge to accepted, resolves the originating notification
// and notifies the requester; declining deletes the edge and resolves the
// notification without telling the requester anything.
func (e *Engine) Respond(ctx context.Context, actorID int64, relationshipID string, decision Decision) (*models.Relationship, error) {
	ctx, span := telemetry.StartSpan(ctx, "social.respond")
	defer span.End()

	switch decision {
	case DecisionAccept, DecisionDecline:
	default:
		return nil, fmt.Errorf("%w: decision %q", ErrInvalidOperation, decision)
	}

	var rel models.Relationship
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("id = ?", relationshipID).First(&rel).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: relationship %s", ErrNotFound, relationshipID)
		}
		if err != nil {
			return fmt.Errorf("failed to load relationship: %w", err)
		}
		if rel.FolloweeID != actorID {
			return fmt.Errorf("%w: only the followee may respond", ErrInvalidOperation)
		}

		if decision == DecisionAccept {
			return e.acceptTx(ctx, tx, &rel)
		}
		return e.declineTx(ctx, tx, &rel)
	})
	if err != nil {
		return nil, err
	}

	e.invalidateCounts(rel.FollowerID, rel.FolloweeID)
	e.logger.Debug("Processed response",
		zap.String("relationship", rel.ID),
		zap.String("decision", string(decision)))
	if decision == DecisionDecline {
		return nil, nil
	}
	return &rel, nil
}

// acceptTx moves a pending edge to accepted. The guarded UPDATE keyed on the
// pending status makes a concurrent double accept lose deterministically
// instead of double-firing the follow-accepted notification.
func (e *Engine) acceptTx(ctx context.Context, tx *gorm.DB, rel *models.Relationship) error {
	now := time.Now().UTC()
	result := tx.Model(&models.Relationship{}).
		Where("id = ? AND status = ?", rel.ID, models.RelationshipPending).
		Updates(map[string]interface{}{"status": models.RelationshipAccepted, "updated_at": now})
	if result.Error != nil {
		return fmt.Errorf("failed to accept relationship: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: relationship %s is not pending", ErrInvalidTransition, rel.ID)
	}
	rel.Status = models.RelationshipAccepted
	rel.UpdatedAt = now

	if err := bumpFollowCounts(tx, rel.FollowerID, rel.FolloweeID, 1); err != nil {
		return err
	}
	if err := e.sink.resolveRequestNotification(ctx, tx, rel.ID, models.ActionStatusAccepted); err != nil {
		return err
	}
	_, err := e.sink.emit(ctx, tx, rel.FollowerID, rel.FolloweeID, models.NotifyTypeFollowAccepted, rel.ID)
	return err
}

// declineTx deletes a pending edge. No notification reaches the requester:
// they discover the decline only by the edge being gone.
func (e *Engine) declineTx(ctx context.Context, tx *gorm.DB, rel *models.Relationship) error {
	result := tx.Where("id = ? AND status = ?", rel.ID, models.RelationshipPending).
		Delete(&models.Relationship{})
	if result.Error != nil {
		return fmt.Errorf("failed to decline relationship: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: relationship %s is not pending", ErrInvalidTransition, rel.ID)
	}
	return e.sink.resolveRequestNotification(ctx, tx, rel.ID, models.ActionStatusDeclined)
}

// Unfollow deletes the actor's edge to target, pending or accepted. No
// notification is emitted; a not-yet-handled follow-request notification on
// the followee's side becomes inert.
func (e *Engine) Unfollow(ctx context.Context, actorID, targetID int64) error {
	ctx, span := telemetry.StartSpan(ctx, "social.unfollow")
	defer span.End()

	if actorID == targetID {
		return fmt.Errorf("%w: cannot unfollow yourself", ErrInvalidOperation)
	}
	return e.deleteEdge(ctx, actorID, targetID)
}

// RemoveFollower deletes followerID's edge to the actor. Either party owns
// the edge, so the followee may sever it just like the follower can.
func (e *Engine) RemoveFollower(ctx context.Context, actorID, followerID int64) error {
	ctx, span := telemetry.StartSpan(ctx, "social.remove_follower")
	defer span.End()

	if actorID == followerID {
		return fmt.Errorf("%w: cannot remove yourself", ErrInvalidOperation)
	}
	return e.deleteEdge(ctx, followerID, actorID)
}

func (e *Engine) deleteEdge(ctx context.Context, followerID, followeeID int64) error {
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rel models.Relationship
		err := tx.Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
			First(&rel).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: no relationship %d -> %d", ErrNotFound, followerID, followeeID)
		}
		if err != nil {
			return fmt.Errorf("failed to load relationship: %w", err)
		}

		result := tx.Where("id = ?", rel.ID).Delete(&models.Relationship{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete relationship: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: relationship %s", ErrNotFound, rel.ID)
		}

		if rel.Status == models.RelationshipAccepted {
			return bumpFollowCounts(tx, followerID, followeeID, -1)
		}
		return nil
	})
	if err != nil {
		return err
	}

	e.invalidateCounts(followerID, followeeID)
	e.logger.Debug("Deleted relationship",
		zap.Int64("follower", followerID),
		zap.Int64("followee", followeeID))
	return nil
}

// Get returns the current edge for the ordered (follower, followee) pair, or
// nil when no edge exists. Callers must re-derive relationship state through
// this after every mutating action instead of trusting optimistic local
// state.
func (e *Engine) Get(ctx context.Context, followerID, followeeID int64) (*models.Relationship, error) {
	repo := db.NewRelationshipRepository(db.NewRepository(e.db))
	return repo.GetByPair(ctx, followerID, followeeID)
}

// requireAccount resolves an account id or fails with ErrInvalidOperation
func (e *Engine) requireAccount(ctx context.Context, id int64) (*models.Account, error) {
	account, err := db.NewAccountRepository(db.NewRepository(e.db)).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, fmt.Errorf("%w: unknown account %d", ErrInvalidOperation, id)
	}
	return account, nil
}

// bumpFollowCounts adjusts the denormalized counters on both accounts inside
// the transition's transaction
func bumpFollowCounts(tx *gorm.DB, followerID, followeeID int64, delta int64) error {
	if err := tx.Model(&models.Account{}).
		Where("id = ?", followerID).
		Update("following", gorm.Expr("following + ?", delta)).Error; err != nil {
		return fmt.Errorf("failed to update following count: %w", err)
	}
	if err := tx.Model(&models.Account{}).
		Where("id = ?", followeeID).
		Update("followers", gorm.Expr("followers + ?", delta)).Error; err != nil {
		return fmt.Errorf("failed to update follower count: %w", err)
	}
	return nil
}

// invalidateCounts drops both accounts' cached counters after a committed
// transition, so any read that follows the mutation sees store truth
func (e *Engine) invalidateCounts(followerID, followeeID int64) {
	err := e.cache.Delete(
		cache.CounterKey("followers", followeeID),
		cache.CounterKey("following", followerID),
		cache.CounterKey("unread", followerID),
		cache.CounterKey("unread", followeeID),
	)
	if err != nil && !errors.Is(err, cache.ErrCacheDisabled) {
		e.logger.Warn("Failed to invalidate counters", zap.Error(err))
	}
}
