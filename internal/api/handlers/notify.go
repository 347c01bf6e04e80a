package handlers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fieldhouse/fieldhouse/internal/db"
	"github.com/fieldhouse/fieldhouse/internal/models"
	"github.com/fieldhouse/fieldhouse/internal/social"
)

// NotifyAPI exposes the notification sink over JSON-RPC
type NotifyAPI struct {
	repo *db.Repository
	sink *social.Sink
}

// NewNotifyAPI creates a new notify API
func NewNotifyAPI(repo *db.Repository, sink *social.Sink) *NotifyAPI {
	return &NotifyAPI{repo: repo, sink: sink}
}

// notifyTypeIDs maps wire names back to type ids for the type filter
var notifyTypeIDs = map[string]int16{
	"follow_request":  models.NotifyTypeFollowRequest,
	"follow_accepted": models.NotifyTypeFollowAccepted,
	"new_follower":    models.NotifyTypeNewFollower,
	"like":            models.NotifyTypeLike,
	"comment":         models.NotifyTypeComment,
	"tag":             models.NotifyTypeTag,
	"mention":         models.NotifyTypeMention,
}

// List handles notifications.list
func (n *NotifyAPI) List(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p map[string]interface{}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid parameters format")
	}

	ctx := c.Request.Context()
	account, err := resolveHandle(ctx, n.repo, paramString(p, "account"))
	if err != nil {
		return nil, err
	}

	opts := social.ListOptions{
		UnreadOnly: paramBool(p, "unread_only"),
		Cursor:     paramString(p, "cursor"),
		Limit:      paramInt(p, "limit", 50),
	}
	if typeName := paramString(p, "type"); typeName != "" {
		typeID, ok := notifyTypeIDs[typeName]
		if !ok {
			return nil, fmt.Errorf("%w: unknown notification type %q", social.ErrInvalidOperation, typeName)
		}
		opts.Type = &typeID
	}

	notifs, next, err := n.sink.ListForRecipient(ctx, account.ID, opts)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"notifications": n.renderNotifications(c, notifs),
		"next_cursor":   next,
	}, nil
}

// UnreadCount handles notifications.unread_count
func (n *NotifyAPI) UnreadCount(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p map[string]interface{}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid parameters format")
	}

	ctx := c.Request.Context()
	account, err := resolveHandle(ctx, n.repo, paramString(p, "account"))
	if err != nil {
		return nil, err
	}

	unread, err := n.sink.UnreadCount(ctx, account.ID)
	if err != nil {
		return nil, err
	}

	lastread := account.LastreadAt.Format(time.RFC3339)
	if account.LastreadAt.IsZero() {
		lastread = "1970-01-01T00:00:00Z"
	}

	return map[string]interface{}{
		"lastread": lastread,
		"unread":   unread,
	}, nil
}

// MarkRead handles notifications.mark_read
func (n *NotifyAPI) MarkRead(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p map[string]interface{}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid parameters format")
	}

	ctx := c.Request.Context()
	account, err := resolveHandle(ctx, n.repo, paramString(p, "account"))
	if err != nil {
		return nil, err
	}

	id, ok := paramInt64(p, "id")
	if !ok {
		return nil, fmt.Errorf("%w: missing notification id", social.ErrInvalidOperation)
	}

	if err := n.sink.MarkRead(ctx, id, account.ID); err != nil {
		return nil, err
	}
	return map[string]interface{}{"status": "ok"}, nil
}

// MarkAllRead handles notifications.mark_all_read
func (n *NotifyAPI) MarkAllRead(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p map[string]interface{}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid parameters format")
	}

	ctx := c.Request.Context()
	account, err := resolveHandle(ctx, n.repo, paramString(p, "account"))
	if err != nil {
		return nil, err
	}

	if err := n.sink.MarkAllRead(ctx, account.ID); err != nil {
		return nil, err
	}
	return map[string]interface{}{"status": "ok"}, nil
}

// renderNotifications renders notifications with actor handles resolved
func (n *NotifyAPI) renderNotifications(c *gin.Context, notifs []*models.Notification) []interface{} {
	ctx := c.Request.Context()
	accountRepo := db.NewAccountRepository(n.repo)

	result := make([]interface{}, 0, len(notifs))
	for _, notif := range notifs {
		entry := map[string]interface{}{
			"id":      notif.ID,
			"type":    social.NotifyTypeName(notif.Type),
			"is_read": notif.IsRead,
			"date":    notif.CreatedAt.Format(time.RFC3339),
		}

		if actor, err := accountRepo.GetByID(ctx, notif.ActorID); err == nil && actor != nil {
			entry["actor"] = actor.Handle
		}
		if notif.Payload.Valid {
			entry["payload"] = notif.Payload.String
		}
		if notif.ActionStatus.Valid {
			entry["action_status"] = notif.ActionStatus.String
		}

		result = append(result, entry)
	}
	return result
}
