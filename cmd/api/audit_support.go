package main

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"

	"github.com/yourusername/postboard/internal/apierr"
	"github.com/yourusername/postboard/internal/audit"
	"github.com/yourusername/postboard/internal/auth"
	"github.com/yourusername/postboard/internal/config"
	"github.com/yourusername/postboard/internal/models"
	"github.com/yourusername/postboard/internal/store"
)

// activityLimit は GET /me/activity が返す最大件数です。
const activityLimit = 50

type activityLister interface {
	ListAuditEvents(ctx context.Context, userID string, limit int) ([]models.AuditEvent, error)
}

// setupAudit は監査イベントの記録先を返します。
// QUEUE_REDIS_URL が設定されていれば Asynq キューとワーカーを起動します。
func setupAudit(cfg *config.Config, db *store.Store, logger *log.Logger) (audit.Recorder, func(), error) {
	if cfg.QueueRedisURL == "" {
		return audit.NewDirect(db, logger), func() {}, nil
	}

	manager, err := audit.NewManager(cfg.QueueRedisURL, db, logger)
	if err != nil {
		return nil, nil, err
	}
	manager.StartWorkers()
	return manager, manager.Shutdown, nil
}

func setupUserCache(cfg *config.Config, db *store.Store, logger *log.Logger) (*store.UserCache, error) {
	opt, err := redis.ParseURL(cfg.CacheRedisURL)
	if err != nil {
		return nil, err
	}
	return store.NewUserCache(redis.NewClient(opt), cfg.UserCacheTTL, db, logger), nil
}

// clientIPMiddleware は監査イベントに添えるクライアントIPをリクエストのコンテキストに載せます。
func clientIPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := audit.WithClientIP(c.Request.Context(), c.ClientIP())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func activityHandler(lister activityLister, logger *log.Logger) func(*gin.Context, auth.Identity) {
	return func(c *gin.Context, id auth.Identity) {
		events, err := lister.ListAuditEvents(c.Request.Context(), id.UserID, activityLimit)
		if err != nil {
			apierr.Respond(c, logger, apierr.Storage(err))
			return
		}
		c.JSON(http.StatusOK, gin.H{"events": events})
	}
}
