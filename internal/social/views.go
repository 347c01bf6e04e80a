package social

import (
	"context"
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

// Views are thin read projections over the relationship store. They carry no
// state of their own and reflect the store at read time; the only cache is
// the counter cache, which the engine invalidates on every transition.
type Views struct {
	db     *gorm.DB
	cache  counterCache
	logger *zap.Logger
}

// NewViews creates the read-side projections
func NewViews(database *gorm.DB, redisCache *cache.Cache) *Views {
	return &Views{
		db:     database,
		cache:  redisCache,
		logger: logging.GetLogger().With(zap.String("component", "social-views")),
	}
}

// FollowEntry is one row of a followers/following/pending listing
type FollowEntry struct {
	RelationshipID string    `json:"relationship_id"`
	AccountID      int64     `json:"account_id"`
	Handle         string    `json:"handle"`
	Since          time.Time `json:"since"`
}

// Followers lists accounts following accountID (accepted edges only),
// newest first
func (v *Views) Followers(ctx context.Context, accountID int64, cursor string, limit int) ([]FollowEntry, string, error) {
	return v.listEdges(ctx, accountID, models.RelationshipAccepted, edgeSideFollowee, cursor, limit)
}

// Following lists accounts accountID follows (accepted edges only),
// newest first
func (v *Views) Following(ctx context.Context, accountID int64, cursor string, limit int) ([]FollowEntry, string, error) {
	return v.listEdges(ctx, accountID, models.RelationshipAccepted, edgeSideFollower, cursor, limit)
}

// PendingRequests lists follow requests awaiting the viewer's decision. The
// projection is keyed on the viewer identity itself, so nobody can read
// another account's queue.
func (v *Views) PendingRequests(ctx context.Context, viewerID int64, cursor string, limit int) ([]FollowEntry, string, error) {
	return v.listEdges(ctx, viewerID, models.RelationshipPending, edgeSideFollowee, cursor, limit)
}

type edgeSide int

const (
	edgeSideFollowee edgeSide = iota // list the followers of the account
	edgeSideFollower                 // list who the account follows
)

func (v *Views) listEdges(ctx context.Context, accountID int64, status models.RelationshipStatus, side edgeSide, cursor string, limit int) ([]FollowEntry, string, error) {
	if limit > 1000 {
		limit = 1000
	}
	if limit < 1 {
		limit = 100
	}

	before, err := DecodeCursor(cursor)
	if err != nil {
		return nil, "", err
	}

	repo := db.NewRepository(v.db)
	relRepo := db.NewRelationshipRepository(repo)

	var rels []*models.Relationship
	if side == edgeSideFollowee {
		rels, err = relRepo.ListByFollowee(ctx, accountID, status, before, limit)
	} else {
		rels, err = relRepo.ListByFollower(ctx, accountID, status, before, limit)
	}
	if err != nil {
		return nil, "", err
	}

	accountRepo := db.NewAccountRepository(repo)
	entries := make([]FollowEntry, 0, len(rels))
	for _, rel := range rels {
		otherID := rel.FollowerID
		if side == edgeSideFollower {
			otherID = rel.FolloweeID
		}

		account, err := accountRepo.GetByID(ctx, otherID)
		if err != nil {
			return nil, "", err
		}
		if account == nil {
			// Edge to a deleted account: drop the row, keep the page
			continue
		}

		entries = append(entries, FollowEntry{
			RelationshipID: rel.ID,
			AccountID:      account.ID,
			Handle:         account.Handle,
			Since:          rel.CreatedAt,
		})
	}

	next := ""
	if len(rels) == limit {
		last := rels[len(rels)-1]
		next = EncodeCursor(last.CreatedAt, last.ID)
	}
	return entries, next, nil
}

// FollowCounts returns the denormalized follower/following counters for an
// account, served from the counter cache when warm
func (v *Views) FollowCounts(ctx context.Context, accountID int64) (followers, following int64, err error) {
	followersKey := cache.CounterKey("followers", accountID)
	followingKey := cache.CounterKey("following", accountID)

	cachedFollowers, okFollowers := v.cache.GetInt64(followersKey)
	cachedFollowing, okFollowing := v.cache.GetInt64(followingKey)
	if okFollowers && okFollowing {
		return cachedFollowers, cachedFollowing, nil
	}

	account, err := db.NewAccountRepository(db.NewRepository(v.db)).GetByID(ctx, accountID)
	if err != nil {
		return 0, 0, err
	}
	if account == nil {
		return 0, 0, fmt.Errorf("%w: account %d", ErrNotFound, accountID)
	}

	if err := v.cache.SetInt64(followersKey, account.Followers, time.Minute); err != nil && !errors.Is(err, cache.ErrCacheDisabled) {
		v.logger.Warn("Failed to cache follower count", zap.Error(err))
	}
	if err := v.cache.SetInt64(followingKey, account.Following, time.Minute); err != nil && !errors.Is(err, cache.ErrCacheDisabled) {
		v.logger.Warn("Failed to cache following count", zap.Error(err))
	}
	return account.Followers, account.Following, nil
}
