// webforge server: chat-driven website builder with a self-healing build
// loop and heuristic regression testing.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"webforge/internal/ai"
	"webforge/internal/auth"
	"webforge/internal/builder"
	"webforge/internal/cache"
	"webforge/internal/config"
	"webforge/internal/db"
	"webforge/internal/deploy"
	"webforge/internal/engines"
	"webforge/internal/handlers"
	"webforge/internal/logging"
	"webforge/internal/preview"
	"webforge/internal/websocket"
)

func main() {
	cfg := config.Load()

	logging.Init()
	defer logging.Sync()
	log := logging.S()

	database, err := db.Open(cfg.DatabaseURL, cfg.SQLitePath, cfg.IsProduction())
	if err != nil {
		log.Fatalw("failed to open database", "error", err)
	}
	if err := db.Migrate(database); err != nil {
		log.Fatalw("failed to run migrations", "error", err)
	}

	redisClient := db.NewRedis(cfg.RedisURL)
	statusCache := cache.New(redisClient, "webforge")

	var llm ai.Generator
	aiRouter := ai.NewRouter(cfg.OpenAIKey, cfg.ClaudeKey)
	aiRouter.SetStore(database)
	if aiRouter.Available() {
		llm = aiRouter
	} else {
		log.Warn("no AI providers configured, running on built-in generation only")
	}
	defer aiRouter.Close()

	workspace, err := builder.NewWorkspace(cfg.WorkspaceDir)
	if err != nil {
		log.Fatalw("failed to prepare workspace", "error", err)
	}

	hub := websocket.NewHub()
	go hub.Run()
	defer hub.Shutdown()

	analytics := engines.NewAnalytics(engines.DefaultThresholds)
	siteBuilder := builder.New(cfg, database, workspace, llm, analytics, hub)
	deployer := deploy.NewDeployer(database)
	jwtService := auth.NewJWTService(cfg.JWTSecret, "webforge", cfg.AccessTokenTTL)

	handler := handlers.New(cfg, database, jwtService, siteBuilder, deployer, analytics, hub, statusCache)
	hub.SetChatHandler(handler.HandleChat)

	router := handlers.SetupRouter(handler, preview.NewServer(cfg.WorkspaceDir))

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // websocket connections and long builds stream past 30s
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Infow("webforge server starting", "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("forced shutdown", "error", err)
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
}
