// Package main is the entry point for the heritage catalog service.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/heritago/backend/internal/auth"
	"github.com/heritago/backend/internal/cache"
	"github.com/heritago/backend/internal/config"
	"github.com/heritago/backend/internal/database"
	"github.com/heritago/backend/internal/gateway"
	"github.com/heritago/backend/internal/handler"
	"github.com/heritago/backend/internal/metrics"
	"github.com/heritago/backend/internal/models"
	"github.com/heritago/backend/internal/search"
	"github.com/heritago/backend/internal/storage"
)

func main() {
	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	role := flag.String("role", "", "Service role: gateway or handler (overrides SERVICE_ROLE env var)")
	port := flag.String("port", "", "Server port (overrides SERVER_PORT env var)")
	flag.Parse()

	if *role != "" {
		os.Setenv("SERVICE_ROLE", *role)
	}
	if *port != "" {
		os.Setenv("SERVER_PORT", *port)
	}

	app := fx.New(
		fx.Provide(
			loadConfig,
			newLogger,
			metrics.New,
			newGinEngine,
		),
		fx.Invoke(startServer),
	)

	app.Run()
}

// loadConfig reads the environment and refuses unsafe settings.
func loadConfig() (*config.Config, error) {
	cfg := config.New()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newLogger creates a new zap logger based on the environment.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// newGinEngine creates and configures a new Gin engine.
func newGinEngine(cfg *config.Config, logger *zap.Logger, m *metrics.Metrics) *gin.Engine {
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(ginzap.Ginzap(logger, time.RFC3339, true))
	engine.Use(ginzap.RecoveryWithZap(logger, true))
	engine.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:          12 * time.Hour,
	}))
	engine.Use(m.Middleware())

	engine.GET("/metrics", gin.WrapH(m.Handler()))

	return engine
}

// handlerDeps are the connections the handler role owns.
type handlerDeps struct {
	repo  *database.PostgresRepository
	redis *redis.Client
}

func (d *handlerDeps) close() {
	if d.repo != nil {
		d.repo.Close()
	}
	if d.redis != nil {
		_ = d.redis.Close()
	}
}

// newHandler connects the handler role's backing services.
func newHandler(cfg *config.Config, logger *zap.Logger) (*handler.Handler, *handlerDeps, error) {
	deps := &handlerDeps{}

	repo, err := database.NewPostgresRepository(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	deps.repo = repo

	redisClient, err := cache.NewRedisClient(cfg, logger)
	if err != nil {
		deps.close()
		return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	deps.redis = redisClient

	media, err := storage.New(cfg, logger)
	if err != nil {
		deps.close()
		return nil, nil, fmt.Errorf("failed to set up media store: %w", err)
	}

	searcher, err := search.NewClient(cfg, logger)
	if err != nil {
		deps.close()
		return nil, nil, err
	}

	h := handler.NewHandler(handler.Options{
		Heritages:       repo,
		Multimedia:      repo,
		Annotations:     repo,
		Users:           repo,
		HeritageCache:   cache.NewRedisCache[models.Heritage](redisClient, logger, cache.HeritagePrefix, cfg.CacheTTL),
		AnnotationCache: cache.NewRedisCache[models.Annotation](redisClient, logger, cache.AnnotationPrefix, cfg.CacheTTL),
		Search:          searcher,
		HeritageIndex:   cfg.HeritageIndex,
		AnnotationIndex: cfg.AnnotationIndex,
		Media:           media,
		MaxUploadBytes:  cfg.MaxUploadBytes,

		TrustForwardedHeaders: cfg.TrustForwardedHeaders,

		Tokens: auth.NewTokenService(cfg),
		Logger: logger,
	})

	return h, deps, nil
}

// startServer starts the HTTP server based on the configured role.
func startServer(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger, engine *gin.Engine) error {
	logger.Info("Starting service",
		zap.String("role", cfg.Role),
		zap.String("port", cfg.ServerPort),
	)

	apiV1 := engine.Group("/api/v1")

	var deps *handlerDeps

	if cfg.IsHandler() {
		h, d, err := newHandler(cfg, logger)
		if err != nil {
			logger.Error("Failed to start handler", zap.Error(err))
			return err
		}
		deps = d
		h.RegisterRoutes(apiV1)

		engine.GET("/health", func(c *gin.Context) {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			status, code := "healthy", http.StatusOK
			if err := deps.repo.Ping(ctx); err != nil {
				status, code = "degraded", http.StatusServiceUnavailable
			}
			c.JSON(code, gin.H{
				"status":  status,
				"role":    cfg.Role,
				"service": "heritago",
			})
		})

		logger.Info("Handler routes registered")
	} else {
		gw := gateway.NewGateway(cfg, logger)
		gw.RegisterRoutes(apiV1)
		engine.GET("/health", gw.HealthCheck)

		logger.Info("Gateway routes registered",
			zap.String("handler_url", cfg.HandlerURL),
		)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: engine,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				logger.Info("Server starting", zap.String("addr", server.Addr))
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Fatal("Server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Server shutting down")

			err := server.Shutdown(ctx)
			if deps != nil {
				deps.close()
			}
			return err
		},
	})

	return nil
}
