package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/BanhTuanKiet/ProjectManagement-sub001/config"
	"github.com/BanhTuanKiet/ProjectManagement-sub001/db"
	"github.com/BanhTuanKiet/ProjectManagement-sub001/handlers"
	"github.com/BanhTuanKiet/ProjectManagement-sub001/middleware"
	"github.com/BanhTuanKiet/ProjectManagement-sub001/services"
	"github.com/BanhTuanKiet/ProjectManagement-sub001/utils"
)

func main() {
	// Load configuration
	cfg := config.LoadConfig()

	// Initialize logger
	logger := utils.NewLogger(cfg.LogLevel)

	// Connect to database
	database, err := db.Connect(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}

	// Membership store, with a Redis read-through cache when Redis is
	// reachable. Presence itself is in-process; the cache only saves
	// SQL round-trips on reconnect storms.
	var members services.MembershipStore = services.NewGormMembershipStore(database)
	if redisClient := connectRedis(cfg, logger); redisClient != nil {
		defer redisClient.Close()
		members = services.NewCachedMembershipStore(members, redisClient, cfg.MembershipCacheTTL, logger)
	}

	// Initialize realtime services
	registry := services.NewPresenceRegistry(members, logger)
	rooms := services.NewTaskRooms()
	broadcaster := services.NewBroadcaster(registry, rooms, logger)
	notifier := services.NewNotifier(registry, broadcaster)
	collab := services.NewCollabService(registry, rooms, broadcaster, logger)

	// Initialize handlers
	wsHandler := handlers.NewWSHandler(collab, cfg, logger)
	eventHandler := handlers.NewEventHandler(notifier, collab, logger)

	// Setup Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.CORS())

	// Health check endpoint
	router.GET("/health", handlers.HealthCheck)

	// WebSocket endpoint with JWT authentication
	router.GET("/ws", middleware.Auth(cfg.JWTSecret), wsHandler.Handle)

	// Internal API for the CRUD layer
	v1 := router.Group("/api/v1")
	v1.Use(middleware.Auth(cfg.JWTSecret))
	{
		events := v1.Group("/events")
		{
			events.POST("/task", eventHandler.TaskEvent)
			events.POST("/project", eventHandler.ProjectEvent)
			events.POST("/assignment", eventHandler.AssignmentEvent)
		}

		v1.GET("/presence/online", eventHandler.OnlineUsers)
		v1.GET("/tasks/:id/viewers", eventHandler.TaskViewers)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Starting Realtime Service", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Disconnect every client; each connection runs its own cleanup
	collab.Shutdown()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exited")
}

// connectRedis returns a working Redis client or nil. The service runs
// fine without the membership cache, so a missing Redis only warns.
func connectRedis(cfg *config.Config, logger *utils.Logger) *redis.Client {
	if cfg.RedisURL == "" {
		return nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Warn("Invalid Redis URL, membership cache disabled", "error", err)
		return nil
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis unreachable, membership cache disabled", "error", err)
		client.Close()
		return nil
	}

	logger.Info("Connected to Redis")
	return client
}
