package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fieldhouse/fieldhouse/internal/api/handlers"
	"github.com/fieldhouse/fieldhouse/internal/cache"
	"github.com/fieldhouse/fieldhouse/internal/db"
	"github.com/fieldhouse/fieldhouse/internal/social"
	"github.com/fieldhouse/fieldhouse/pkg/logging"
)

// Router sets up API routes
type Router struct {
	handler *JSONRPCHandler
	db      *db.DB
	cache   *cache.Cache
	logger  *zap.Logger
}

// NewRouter creates a new API router
func NewRouter(database *db.DB, redisCache *cache.Cache) *Router {
	handler := NewJSONRPCHandler()
	router := &Router{
		handler: handler,
		db:      database,
		cache:   redisCache,
		logger:  logging.GetLogger().With(zap.String("component", "api-router")),
	}

	// Register all API methods
	router.registerMethods()

	return router
}

// SetupRoutes sets up all API routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	// Health check endpoints
	engine.GET("/health", r.healthHandler)
	engine.GET("/.well-known/healthcheck.json", r.healthHandler)

	// JSON-RPC endpoint
	engine.POST("/", r.handler.Handle)
}

// registerMethods registers all API methods
func (r *Router) registerMethods() {
	repo := db.NewRepository(r.db.DB)

	sink := social.NewSink(r.db.DB, r.cache)
	engine := social.NewEngine(r.db.DB, r.cache, sink)
	views := social.NewViews(r.db.DB, r.cache)
	activity := social.NewActivity(r.db.DB, sink)

	// Relationship lifecycle
	follow := handlers.NewFollowAPI(repo, engine, views)
	r.handler.RegisterMethod("social.follow", follow.Follow)
	r.handler.RegisterMethod("social.respond_to_request", follow.RespondToRequest)
	r.handler.RegisterMethod("social.unfollow", follow.Unfollow)
	r.handler.RegisterMethod("social.remove_follower", follow.RemoveFollower)
	r.handler.RegisterMethod("social.get_relationship", follow.GetRelationship)
	r.handler.RegisterMethod("social.get_follow_count", follow.GetFollowCount)
	r.handler.RegisterMethod("social.list_followers", follow.ListFollowers)
	r.handler.RegisterMethod("social.list_following", follow.ListFollowing)
	r.handler.RegisterMethod("social.list_pending_requests", follow.ListPendingRequests)

	// Profiles
	profile := handlers.NewProfileAPI(repo, views)
	r.handler.RegisterMethod("social.get_profile", profile.GetProfile)

	// Post activity fan-out
	activityAPI := handlers.NewActivityAPI(repo, activity)
	r.handler.RegisterMethod("social.create_post", activityAPI.CreatePost)
	r.handler.RegisterMethod("social.like_post", activityAPI.LikePost)
	r.handler.RegisterMethod("social.comment_post", activityAPI.CommentPost)
	r.handler.RegisterMethod("social.tag_account", activityAPI.TagAccount)

	// Notifications
	notify := handlers.NewNotifyAPI(repo, sink)
	r.handler.RegisterMethod("notifications.list", notify.List)
	r.handler.RegisterMethod("notifications.unread_count", notify.UnreadCount)
	r.handler.RegisterMethod("notifications.mark_read", notify.MarkRead)
	r.handler.RegisterMethod("notifications.mark_all_read", notify.MarkAllRead)
}

// healthHandler handles health check requests
func (r *Router) healthHandler(c *gin.Context) {
	c.JSON(200, gin.H{
		"status":  "OK",
		"service": "fieldhouse-api",
	})
}
