package handlers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fieldhouse/fieldhouse/internal/db"
	"github.com/fieldhouse/fieldhouse/internal/social"
)

// ProfileAPI provides account profile lookups
type ProfileAPI struct {
	repo  *db.Repository
	views *social.Views
}

// NewProfileAPI creates a new profile API
func NewProfileAPI(repo *db.Repository, views *social.Views) *ProfileAPI {
	return &ProfileAPI{repo: repo, views: views}
}

// GetProfile handles social.get_profile
func (p *ProfileAPI) GetProfile(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var pMap map[string]interface{}
	if err := json.Unmarshal(params, &pMap); err != nil {
		return nil, fmt.Errorf("invalid parameters format")
	}

	ctx := c.Request.Context()
	account, err := resolveHandle(ctx, p.repo, paramString(pMap, "account"))
	if err != nil {
		return nil, err
	}

	followers, following, err := p.views.FollowCounts(ctx, account.ID)
	if err != nil {
		return nil, err
	}

	profile := map[string]interface{}{
		"id":              account.ID,
		"handle":          account.Handle,
		"is_private":      account.IsPrivate,
		"created":         account.CreatedAt.Format(time.RFC3339),
		"post_count":      account.PostCount,
		"follower_count":  followers,
		"following_count": following,
		"profile_image":   account.ProfileImage,
	}
	if account.DisplayName.Valid {
		profile["display_name"] = account.DisplayName.String
	}
	if account.Bio.Valid {
		profile["bio"] = account.Bio.String
	}
	if account.Sport.Valid {
		profile["sport"] = account.Sport.String
	}

	return profile, nil
}
