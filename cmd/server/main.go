package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/HammerMeetNail/socialcore/internal/cache"
	"github.com/HammerMeetNail/socialcore/internal/config"
	"github.com/HammerMeetNail/socialcore/internal/database"
	"github.com/HammerMeetNail/socialcore/internal/handlers"
	"github.com/HammerMeetNail/socialcore/internal/logging"
	"github.com/HammerMeetNail/socialcore/internal/middleware"
	"github.com/HammerMeetNail/socialcore/internal/services"
	"github.com/HammerMeetNail/socialcore/internal/transcript"
	"github.com/HammerMeetNail/socialcore/migrations"
)

func main() {
	if err := run(); err != nil {
		logging.Error("Application error", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
}

func run() error {
	logger := logging.New()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	level := logging.ParseLevel(cfg.Server.LogLevel)
	if cfg.Server.Debug {
		level = logging.LevelDebug
	}
	logger.SetLevel(level)
	logging.SetDefaultLevel(level)

	logger.Info("Starting socialcore server", map[string]interface{}{"env": cfg.Server.Environment})

	logger.Info("Connecting to PostgreSQL", map[string]interface{}{
		"host": cfg.Database.Host,
		"port": cfg.Database.Port,
	})
	db, err := database.NewPostgresDB(cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer db.Close()

	migrator, err := database.NewMigrator(cfg.Database.DSN(), migrations.FS)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	if err := migrator.Up(); err != nil {
		_ = migrator.Close()
		return fmt.Errorf("running migrations: %w", err)
	}
	_ = migrator.Close()
	logger.Info("Migrations completed")

	logger.Info("Connecting to Redis", map[string]interface{}{"addr": cfg.Redis.Addr()})
	redisDB, err := database.NewRedisDB(cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer func() { _ = redisDB.Close() }()

	gormDB, err := database.NewGormDB(cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("opening transcript store: %w", err)
	}
	defer func() {
		if sqlDB, err := gormDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	dbAdapter := services.NewPoolAdapter(db.Pool)
	redisAdapter := services.NewRedisAdapter(redisDB.Client)

	readCache := cache.New(cache.NewRedisStore(redisDB.Client), map[string]time.Duration{
		cache.RegionFriendList:      cfg.Cache.FriendListTTL,
		cache.RegionPendingRequests: cfg.Cache.PendingRequestsTTL,
		cache.RegionUnreadCount:     cfg.Cache.UnreadCountTTL,
	})

	sessionService := services.NewSessionService(redisAdapter, cfg.Session.TTL)
	userService := services.NewUserService(dbAdapter, sessionService)
	friendService := services.NewFriendService(dbAdapter, userService, readCache)
	messageService := services.NewMessageService(dbAdapter, friendService, userService, readCache)
	transcriptStore := transcript.NewStore(gormDB)

	healthHandler := handlers.NewHealthHandler(db, redisDB)
	sessionHandler := handlers.NewSessionHandler(userService, sessionService, cfg.Server.Secure)
	userHandler := handlers.NewUserHandler(userService)
	friendHandler := handlers.NewFriendHandler(friendService)
	messageHandler := handlers.NewMessageHandler(messageService, userService)
	conversationHandler := handlers.NewConversationHandler(transcriptStore)

	authMiddleware := middleware.NewAuthMiddleware(sessionService, userService)
	loginLimiter := middleware.NewLoginRateLimiter(redisAdapter, cfg.RateLimit.LoginPerMinute)
	requestLogger := middleware.NewRequestLogger(logger)
	requireAuth := authMiddleware.RequireAuth
	adminOnly := middleware.AdminOnly(cfg.Server.AdminToken)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.HandleFunc("GET /ready", healthHandler.Ready)
	mux.HandleFunc("GET /live", healthHandler.Live)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Sessions
	mux.Handle("POST /api/sessions", loginLimiter.Limit(http.HandlerFunc(sessionHandler.Login)))
	mux.Handle("DELETE /api/sessions/current", requireAuth(http.HandlerFunc(sessionHandler.Logout)))
	mux.Handle("POST /api/sessions/invalidate", adminOnly(http.HandlerFunc(sessionHandler.InvalidateAll)))

	// Users
	mux.HandleFunc("POST /api/users", userHandler.Register)
	mux.Handle("GET /api/users/me", requireAuth(http.HandlerFunc(userHandler.Me)))
	mux.Handle("GET /api/users/{id}/online", requireAuth(http.HandlerFunc(sessionHandler.IsOnline)))
	mux.Handle("PUT /api/users/{id}/status", adminOnly(http.HandlerFunc(userHandler.SetStatus)))

	// Friends
	mux.Handle("POST /api/friend-requests", requireAuth(http.HandlerFunc(friendHandler.SendRequest)))
	mux.Handle("POST /api/friend-requests/{id}/accept", requireAuth(http.HandlerFunc(friendHandler.AcceptRequest)))
	mux.Handle("POST /api/friend-requests/{id}/reject", requireAuth(http.HandlerFunc(friendHandler.RejectRequest)))
	mux.Handle("GET /api/friend-requests/pending", requireAuth(http.HandlerFunc(friendHandler.ListPending)))
	mux.Handle("GET /api/friend-requests/sent", requireAuth(http.HandlerFunc(friendHandler.ListSent)))
	mux.Handle("GET /api/friends", requireAuth(http.HandlerFunc(friendHandler.ListFriends)))

	// Messages
	mux.Handle("POST /api/messages", requireAuth(http.HandlerFunc(messageHandler.Send)))
	mux.Handle("GET /api/messages/unread-count", requireAuth(http.HandlerFunc(messageHandler.UnreadCount)))
	mux.Handle("GET /api/messages/{counterpartyId}", requireAuth(http.HandlerFunc(messageHandler.History)))
	mux.Handle("POST /api/messages/{id}/read", requireAuth(http.HandlerFunc(messageHandler.MarkRead)))
	mux.Handle("POST /api/messages/{counterpartyId}/read-all", requireAuth(http.HandlerFunc(messageHandler.MarkConversationRead)))

	// Conversation transcripts
	mux.Handle("POST /api/conversations", requireAuth(http.HandlerFunc(conversationHandler.Create)))
	mux.Handle("GET /api/conversations/{id}", requireAuth(http.HandlerFunc(conversationHandler.Get)))
	mux.Handle("DELETE /api/conversations/{id}", requireAuth(http.HandlerFunc(conversationHandler.Delete)))
	mux.Handle("POST /api/conversations/{id}/entries", requireAuth(http.HandlerFunc(conversationHandler.Append)))
	mux.Handle("GET /api/conversations/{id}/entries", requireAuth(http.HandlerFunc(conversationHandler.History)))

	// Middleware chain, innermost first. Metrics must wrap the mux directly
	// so it sees the matched route pattern.
	var handler http.Handler = mux
	handler = middleware.Metrics(handler)
	handler = authMiddleware.Authenticate(handler)
	handler = requestLogger.Apply(handler)
	handler = middleware.RequestID(handler)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan struct{})
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("Server is shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		server.SetKeepAlivesEnabled(false)
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Could not gracefully shutdown the server", map[string]interface{}{
				"error": err.Error(),
			})
		}
		close(done)
	}()

	logger.Info("Server listening", map[string]interface{}{"addr": addr})
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	logger.Info("Server stopped")
	return nil
}
