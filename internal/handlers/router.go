package handlers

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"webforge/internal/metrics"
	"webforge/internal/middleware"
	"webforge/internal/preview"
)

// SetupRouter assembles the gin engine with the full middleware chain and
// all routes.
func SetupRouter(h *Handler, previewServer *preview.Server) *gin.Engine {
	if h.Cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.Recovery())
	r.Use(metrics.PrometheusMiddleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	rateLimiter := middleware.NewIPRateLimiter(300, 30)
	r.Use(rateLimiter.Middleware())

	r.GET("/health", h.Health)
	r.GET("/metrics", metrics.Handler())

	// Generated sites
	previewServer.Register(r)

	v1 := r.Group("/api/v1")
	{
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", h.Register)
			authGroup.POST("/login", h.Login)
			authGroup.POST("/refresh", h.RefreshToken)
		}

		protected := v1.Group("")
		protected.Use(middleware.RequireAuth(h.JWT))
		{
			protected.GET("/auth/me", h.Me)

			protected.POST("/projects", h.CreateProject)
			protected.GET("/projects", h.GetProjects)
			protected.GET("/projects/:slug", h.GetProject)
			protected.POST("/projects/:slug/tests/run", h.RunTests)
			protected.POST("/projects/:slug/deploy", h.DeployProject)

			protected.GET("/dashboard", h.Dashboard)

			protected.GET("/chat/:session/history", h.ChatHistory)
			protected.GET("/ws/:session", h.ChatWS)
		}
	}

	return r
}
