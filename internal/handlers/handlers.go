// Package handlers holds the HTTP API surface.
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"webforge/internal/auth"
	"webforge/internal/builder"
	"webforge/internal/cache"
	"webforge/internal/config"
	"webforge/internal/deploy"
	"webforge/internal/engines"
	"webforge/internal/websocket"
)

// StandardResponse is the envelope for non-collection replies.
type StandardResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
}

// Handler bundles the dependencies all endpoints share.
type Handler struct {
	Cfg       *config.Config
	DB        *gorm.DB
	JWT       *auth.JWTService
	Builder   *builder.Builder
	Deployer  *deploy.Deployer
	Analytics *engines.Analytics
	Hub       *websocket.Hub
	Cache     *cache.Cache
}

// New creates the handler set.
func New(cfg *config.Config, db *gorm.DB, jwt *auth.JWTService, b *builder.Builder, d *deploy.Deployer, a *engines.Analytics, hub *websocket.Hub, c *cache.Cache) *Handler {
	return &Handler{Cfg: cfg, DB: db, JWT: jwt, Builder: b, Deployer: d, Analytics: a, Hub: hub, Cache: c}
}

func parsePaginationParams(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

func paginate(page, limit int) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset((page - 1) * limit).Limit(limit)
	}
}
