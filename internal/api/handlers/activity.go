package handlers

import (
	"encoding/json"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/fieldhouse/fieldhouse/internal/db"
	"github.com/fieldhouse/fieldhouse/internal/social"
)

// ActivityAPI exposes post interactions that fan out notifications
type ActivityAPI struct {
	repo     *db.Repository
	activity *social.Activity
}

// NewActivityAPI creates a new activity API
func NewActivityAPI(repo *db.Repository, activity *social.Activity) *ActivityAPI {
	return &ActivityAPI{repo: repo, activity: activity}
}

// CreatePost handles social.create_post
func (a *ActivityAPI) CreatePost(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p map[string]interface{}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid parameters format")
	}

	ctx := c.Request.Context()
	actor, err := resolveHandle(ctx, a.repo, paramString(p, "actor"))
	if err != nil {
		return nil, err
	}

	post, err := a.activity.CreatePost(ctx, actor.ID, paramString(p, "body"), paramString(p, "sport"))
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"post_id": post.ID}, nil
}

// LikePost handles social.like_post
func (a *ActivityAPI) LikePost(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p map[string]interface{}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid parameters format")
	}

	ctx := c.Request.Context()
	actor, err := resolveHandle(ctx, a.repo, paramString(p, "actor"))
	if err != nil {
		return nil, err
	}

	postID, ok := paramInt64(p, "post_id")
	if !ok {
		return nil, fmt.Errorf("%w: missing post_id", social.ErrInvalidOperation)
	}

	if err := a.activity.LikePost(ctx, actor.ID, postID); err != nil {
		return nil, err
	}
	return map[string]interface{}{"status": "ok"}, nil
}

// CommentPost handles social.comment_post
func (a *ActivityAPI) CommentPost(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p map[string]interface{}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid parameters format")
	}

	ctx := c.Request.Context()
	actor, err := resolveHandle(ctx, a.repo, paramString(p, "actor"))
	if err != nil {
		return nil, err
	}

	postID, ok := paramInt64(p, "post_id")
	if !ok {
		return nil, fmt.Errorf("%w: missing post_id", social.ErrInvalidOperation)
	}

	if err := a.activity.CommentPost(ctx, actor.ID, postID, paramString(p, "body")); err != nil {
		return nil, err
	}
	return map[string]interface{}{"status": "ok"}, nil
}

// TagAccount handles social.tag_account
func (a *ActivityAPI) TagAccount(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p map[string]interface{}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid parameters format")
	}

	ctx := c.Request.Context()
	actor, err := resolveHandle(ctx, a.repo, paramString(p, "actor"))
	if err != nil {
		return nil, err
	}
	tagged, err := resolveHandle(ctx, a.repo, paramString(p, "tagged"))
	if err != nil {
		return nil, err
	}

	postID, ok := paramInt64(p, "post_id")
	if !ok {
		return nil, fmt.Errorf("%w: missing post_id", social.ErrInvalidOperation)
	}

	if err := a.activity.TagAccount(ctx, actor.ID, postID, tagged.ID); err != nil {
		return nil, err
	}
	return map[string]interface{}{"status": "ok"}, nil
}
