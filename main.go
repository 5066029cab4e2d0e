package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vcscsvcscs/stride/apps/backend/internal/analytics"
	"github.com/vcscsvcscs/stride/apps/backend/internal/config"
	"github.com/vcscsvcscs/stride/apps/backend/internal/handler"
	"github.com/vcscsvcscs/stride/apps/backend/internal/middleware"
	"github.com/vcscsvcscs/stride/apps/backend/internal/milestone"
	"github.com/vcscsvcscs/stride/apps/backend/internal/repository"
	"github.com/vcscsvcscs/stride/apps/backend/internal/service"
	"github.com/vcscsvcscs/stride/apps/backend/internal/stats"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	serviceName    = "stride-backend"
	serviceVersion = "1.0.0"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logger, err := newLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	logger.Info("Configuration loaded successfully",
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.String("achievement_store", cfg.Storage.Backend),
	)

	pool, err := newPool(context.Background(), cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := pool.Ping(context.Background()); err != nil {
		logger.Fatal("Failed to ping database", zap.Error(err))
	}
	logger.Info("Successfully connected to database")

	if cfg.Database.AutoMigrate {
		if err := repository.Migrate(context.Background(), pool, logger); err != nil {
			logger.Fatal("Failed to migrate database", zap.Error(err))
		}
	}

	// Achievement store
	var store milestone.AchievementStore
	var badgerDB *badger.DB
	switch cfg.Storage.Backend {
	case config.BackendBadger:
		badgerDB, err = repository.OpenBadger(cfg.Storage.BadgerPath)
		if err != nil {
			logger.Fatal("Failed to open badger", zap.Error(err), zap.String("path", cfg.Storage.BadgerPath))
		}
		store = repository.NewBadgerAchievementStore(badgerDB, logger)
	case config.BackendMemory:
		logger.Warn("Achievements are kept in memory and lost on restart")
		store = milestone.NewMemoryStore()
	default:
		store = repository.NewAchievementRepository(pool, logger)
	}

	// Analytics
	var sink *analytics.AsyncSink
	var tracker analytics.Sink = analytics.NopSink{}
	if cfg.Analytics.Enabled {
		var next analytics.Sink = analytics.NewLogSink(logger)
		if cfg.Analytics.Sink == config.SinkDatabase {
			next = analytics.NewDatabaseSink(pool, logger)
		}
		sink = analytics.NewAsyncSink(next, cfg.Analytics.BufferSize, cfg.Milestones.AnalyticsTimeout, logger)
		tracker = sink
	}

	engine := milestone.NewEngine(
		milestone.MustRegistry(milestone.DefaultDefinitions()),
		store,
		tracker,
		milestone.EngineConfig{
			StoreTimeout:     cfg.Milestones.StoreTimeout,
			AnalyticsTimeout: cfg.Milestones.AnalyticsTimeout,
		},
		logger,
	)

	// Repositories
	stepRepo := repository.NewStepRepository(pool, logger)
	socialRepo := repository.NewSocialRepository(pool, logger)

	// Services
	metrics := service.NewMetricSource(stepRepo, socialRepo, stats.NewCalculator(cfg.Steps.DefaultDailyGoal), logger)
	stepService := service.NewStepService(stepRepo, metrics, engine, tracker, logger)
	socialService := service.NewSocialService(socialRepo, metrics, engine, tracker, logger)
	achievementService := service.NewAchievementService(engine, tracker, cfg.Milestones.EnableReset, logger)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Recovery must be first
	r.Use(middleware.RecoveryMiddleware(logger))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID", middleware.UserIDHeader},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RequestLoggingMiddleware(logger))
	r.Use(middleware.ErrorLoggingMiddleware(logger))

	handler.RegisterRoutes(r, handler.Routes{
		Steps:        handler.NewStepHandler(stepService, logger),
		Social:       handler.NewSocialHandler(socialService, logger),
		Achievements: handler.NewAchievementHandler(achievementService, logger),
		Health:       handler.NewHealthHandler(pool, serviceName, serviceVersion, logger),
	}, middleware.UserContextMiddleware(logger))

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	if sink != nil {
		if err := sink.Close(ctx); err != nil {
			logger.Error("Analytics events lost on shutdown", zap.Error(err))
		}
	}

	if badgerDB != nil {
		if err := badgerDB.Close(); err != nil {
			logger.Error("Failed to close badger", zap.Error(err))
		}
	}

	pool.Close()

	logger.Info("Server exited")
}

// newLogger builds a JSON or console zap logger at the configured level
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zapCfg := zap.NewDevelopmentConfig()
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.Encoding = cfg.Logging.Format

	return zapCfg.Build(zap.Fields(zap.String("service", serviceName)))
}

// newPool creates the pgx pool with the configured limits
func newPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	if cfg.Database.MaxOpenConns > 0 {
		poolCfg.MaxConns = int32(cfg.Database.MaxOpenConns)
	}
	if cfg.Database.MaxIdleConns > 0 {
		poolCfg.MinConns = int32(cfg.Database.MaxIdleConns)
	}
	if cfg.Database.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime
	}

	return pgxpool.NewWithConfig(ctx, poolCfg)
}
