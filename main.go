package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dws-org/dws-frontend/internal/di"
	"github.com/dws-org/dws-frontend/internal/middleware"
	"github.com/dws-org/dws-frontend/pkg/config"
	"github.com/dws-org/dws-frontend/pkg/logger"
	"github.com/dws-org/dws-frontend/pkg/metrics"
	"github.com/dws-org/dws-frontend/pkg/redis"
	"github.com/dws-org/dws-frontend/pkg/telemetry"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logCfg := &logger.Config{
		Level:       cfg.App.LogLevel,
		ServiceName: cfg.App.Name,
		Development: cfg.IsDevelopment(),
	}
	if err := logger.Init(logCfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	appLog.Info("Starting storefront...")

	ctx := context.Background()

	// Initialize tracing
	_, err = telemetry.Init(ctx, &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    cfg.OTel.ServiceName,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
		SampleRatio:    cfg.OTel.SampleRatio,
	})
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Telemetry init failed: %v", err))
	}
	defer telemetry.Shutdown(ctx)

	// Initialize the event cache. The storefront works without it, so a
	// connection failure only disables caching.
	var cache *redis.Client
	if cfg.Redis.Enabled {
		cache, err = redis.NewClient(ctx, &redis.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			appLog.Warn(fmt.Sprintf("Redis unavailable, event caching disabled: %v", err))
			cache = nil
		} else {
			defer cache.Close()
			appLog.Info("Redis connected, event caching enabled")
		}
	}

	// Build dependency injection container
	container := di.NewContainer(&di.ContainerConfig{
		Config: cfg,
		Logger: appLog,
		Redis:  cache,
	})

	// Setup Gin
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger(appLog))
	router.Use(telemetry.TracingMiddleware(cfg.OTel.ServiceName))
	router.Use(metrics.Middleware(cfg.App.Name))
	router.Use(middleware.Session(container.SessionProvider, appLog))

	// Health check and scrape endpoints
	router.GET("/health", container.HealthHandler.Health)
	router.GET("/ready", container.HealthHandler.Ready)
	router.GET("/metrics", metrics.Handler())

	// View-model endpoints
	views := router.Group("/views")
	{
		views.GET("/home", container.ViewHandler.Home)
		views.GET("/events/:id", container.ViewHandler.EventDetail)

		authed := views.Group("")
		authed.Use(middleware.RequireAuth())
		{
			authed.GET("/purchases", container.ViewHandler.Purchases)
		}

		organiser := views.Group("/manage")
		organiser.Use(middleware.RequireOrganiser())
		{
			organiser.GET("", container.ViewHandler.ManagedEvents)
			organiser.POST("/events", container.ViewHandler.CreateEvent)
		}
	}

	// Forwarded API routes pass through to the backends unchanged,
	// rate limited per client IP
	api := router.Group("/api")
	if cfg.RateLimit.Enabled {
		var store middleware.Scripter
		if cache != nil {
			store = cache
		}
		api.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}, store, appLog))
	}
	api.Any("/*path", container.Forwarder.Handler())

	// Create HTTP server
	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 2 * time.Second,
	}

	// Start server in goroutine
	go func() {
		appLog.Info(fmt.Sprintf("Storefront listening on %s", cfg.Server.Addr()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal(fmt.Sprintf("Failed to start server: %v", err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("Shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Fatal(fmt.Sprintf("Server forced to shutdown: %v", err))
	}

	appLog.Info("Server exited gracefully")
}
