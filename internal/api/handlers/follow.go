package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fieldhouse/fieldhouse/internal/db"
	"github.com/fieldhouse/fieldhouse/internal/social"
	"github.com/fieldhouse/fieldhouse/pkg/logging"
)

// FollowAPI exposes the relationship state machine over JSON-RPC
type FollowAPI struct {
	repo   *db.Repository
	engine *social.Engine
	views  *social.Views
	logger *zap.Logger
}

// NewFollowAPI creates a new follow API
func NewFollowAPI(repo *db.Repository, engine *social.Engine, views *social.Views) *FollowAPI {
	return &FollowAPI{
		repo:   repo,
		engine: engine,
		views:  views,
		logger: logging.GetLogger().With(zap.String("component", "api-follow")),
	}
}

// Follow handles social.follow
func (f *FollowAPI) Follow(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p map[string]interface{}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid parameters format")
	}

	ctx := c.Request.Context()
	actor, err := resolveHandle(ctx, f.repo, paramString(p, "actor"))
	if err != nil {
		return nil, err
	}
	target, err := resolveHandle(ctx, f.repo, paramString(p, "target"))
	if err != nil {
		return nil, err
	}

	rel, err := f.engine.Follow(ctx, actor.ID, target.ID)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"relationship_id": rel.ID,
		"status":          rel.Status,
	}, nil
}

// RespondToRequest handles social.respond_to_request
func (f *FollowAPI) RespondToRequest(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p map[string]interface{}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid parameters format")
	}

	ctx := c.Request.Context()
	actor, err := resolveHandle(ctx, f.repo, paramString(p, "actor"))
	if err != nil {
		return nil, err
	}

	relationshipID := paramString(p, "relationship_id")
	if relationshipID == "" {
		return nil, fmt.Errorf("%w: missing relationship_id", social.ErrInvalidOperation)
	}
	decision := social.Decision(paramString(p, "decision"))

	rel, err := f.engine.Respond(ctx, actor.ID, relationshipID, decision)
	if err != nil {
		return nil, err
	}

	if rel == nil {
		// Declined: the edge is gone
		return map[string]interface{}{"status": "declined"}, nil
	}
	return map[string]interface{}{
		"relationship_id": rel.ID,
		"status":          rel.Status,
	}, nil
}

// Unfollow handles social.unfollow
func (f *FollowAPI) Unfollow(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p map[string]interface{}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid parameters format")
	}

	ctx := c.Request.Context()
	actor, err := resolveHandle(ctx, f.repo, paramString(p, "actor"))
	if err != nil {
		return nil, err
	}
	target, err := resolveHandle(ctx, f.repo, paramString(p, "target"))
	if err != nil {
		return nil, err
	}

	if err := f.engine.Unfollow(ctx, actor.ID, target.ID); err != nil {
		return nil, err
	}
	return map[string]interface{}{"status": "removed"}, nil
}

// RemoveFollower handles social.remove_follower
func (f *FollowAPI) RemoveFollower(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p map[string]interface{}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid parameters format")
	}

	ctx := c.Request.Context()
	actor, err := resolveHandle(ctx, f.repo, paramString(p, "actor"))
	if err != nil {
		return nil, err
	}
	follower, err := resolveHandle(ctx, f.repo, paramString(p, "follower"))
	if err != nil {
		return nil, err
	}

	if err := f.engine.RemoveFollower(ctx, actor.ID, follower.ID); err != nil {
		return nil, err
	}
	return map[string]interface{}{"status": "removed"}, nil
}

// GetRelationship handles social.get_relationship. Clients call this after
// every mutating action instead of trusting optimistic local state.
func (f *FollowAPI) GetRelationship(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p map[string]interface{}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid parameters format")
	}

	ctx := c.Request.Context()
	follower, err := resolveHandle(ctx, f.repo, paramString(p, "follower"))
	if err != nil {
		return nil, err
	}
	followee, err := resolveHandle(ctx, f.repo, paramString(p, "followee"))
	if err != nil {
		return nil, err
	}

	rel, err := f.engine.Get(ctx, follower.ID, followee.ID)
	if err != nil {
		return nil, err
	}
	if rel == nil {
		return map[string]interface{}{"status": "none"}, nil
	}
	return map[string]interface{}{
		"relationship_id": rel.ID,
		"status":          rel.Status,
	}, nil
}

// ListFollowers handles social.list_followers
func (f *FollowAPI) ListFollowers(c *gin.Context, params json.RawMessage) (interface{}, error) {
	return f.list(c, params, "account", f.views.Followers)
}

// ListFollowing handles social.list_following
func (f *FollowAPI) ListFollowing(c *gin.Context, params json.RawMessage) (interface{}, error) {
	return f.list(c, params, "account", f.views.Following)
}

// ListPendingRequests handles social.list_pending_requests. The queue is
// keyed on the acting identity, so only the followee sees their requests.
func (f *FollowAPI) ListPendingRequests(c *gin.Context, params json.RawMessage) (interface{}, error) {
	return f.list(c, params, "actor", f.views.PendingRequests)
}

func (f *FollowAPI) list(c *gin.Context, params json.RawMessage, accountKey string, view func(ctx context.Context, accountID int64, cursor string, limit int) ([]social.FollowEntry, string, error)) (interface{}, error) {
	var p map[string]interface{}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid parameters format")
	}

	ctx := c.Request.Context()
	account, err := resolveHandle(ctx, f.repo, paramString(p, accountKey))
	if err != nil {
		return nil, err
	}

	entries, next, err := view(ctx, account.ID, paramString(p, "cursor"), paramInt(p, "limit", 100))
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"entries":     entries,
		"next_cursor": next,
	}, nil
}

// GetFollowCount handles social.get_follow_count
func (f *FollowAPI) GetFollowCount(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p map[string]interface{}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid parameters format")
	}

	ctx := c.Request.Context()
	account, err := resolveHandle(ctx, f.repo, paramString(p, "account"))
	if err != nil {
		return nil, err
	}

	followers, following, err := f.views.FollowCounts(ctx, account.ID)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"account":         account.Handle,
		"follower_count":  followers,
		"following_count": following,
	}, nil
}
