// Package app wires configuration, storage and services into the objects
// the server and the operator CLI run.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"rentflow-backend/internal/auth"
	"rentflow-backend/internal/cache"
	"rentflow-backend/internal/config"
	"rentflow-backend/internal/database"
	"rentflow-backend/internal/db"
	"rentflow-backend/internal/handlers"
	"rentflow-backend/internal/health"
	router "rentflow-backend/internal/http"
	"rentflow-backend/internal/middleware"
	"rentflow-backend/internal/repositories"
	"rentflow-backend/internal/services"
	"rentflow-backend/internal/storage"
	"rentflow-backend/internal/timeutil"
	"rentflow-backend/migrations"
)

type App struct {
	Config *config.Config
	Logger *zap.Logger
	Pool   *pgxpool.Pool

	Users *repositories.UserRepository

	TrustScores    *services.TrustScoreService
	Payments       *services.PaymentService
	Ratings        *services.RatingService
	Reconciliation *services.ReconciliationService
	Overdue        *services.OverdueService
}

// New connects to the database, applies pending migrations and builds the
// services. Redis and the import archive are optional and only logged when
// unavailable.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := database.NewMigrator(pool, migrations.FS, logger).RunMigrations(migrateCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if err := cache.Init(cfg); err != nil {
		logger.Warn("redis cache unavailable, trust scores will not be cached", zap.Error(err))
	}

	var archiver services.Archiver
	if cfg.Archive.Usable() {
		a, err := storage.NewArchiver(ctx, cfg.Archive)
		if err != nil {
			logger.Warn("import archive disabled", zap.Error(err))
		} else {
			archiver = a
		}
	}

	clock := services.Clock(timeutil.Now)

	userRepo := repositories.NewUserRepository(pool)
	leaseRepo := repositories.NewLeaseRepository(pool)
	paymentRepo := repositories.NewPaymentRepository(pool)
	ratingRepo := repositories.NewRatingRepository(pool)

	trustScores := services.NewTrustScoreService(userRepo, paymentRepo, ratingRepo, cache.NewTrustScores(cfg.Redis.TrustScoreTTL), logger)
	matcher := services.NewPaymentMatcher(paymentRepo, clock)

	return &App{
		Config:         cfg,
		Logger:         logger,
		Pool:           pool,
		Users:          userRepo,
		TrustScores:    trustScores,
		Payments:       services.NewPaymentService(paymentRepo, leaseRepo, trustScores, clock, logger),
		Ratings:        services.NewRatingService(ratingRepo, leaseRepo, trustScores, cfg.Scoring.RecalculateOnRating, logger),
		Reconciliation: services.NewReconciliationService(leaseRepo, matcher, trustScores, archiver, logger),
		Overdue:        services.NewOverdueService(paymentRepo, trustScores, cfg.Scoring.OverdueGraceDays, clock, logger),
	}, nil
}

// Handler builds the HTTP API.
func (a *App) Handler() http.Handler {
	return router.NewRouter(
		a.Config,
		a.Logger,
		handlers.NewPaymentHandler(a.Payments, a.Reconciliation, a.Config.Import.MaxUploadKB<<10, a.Logger),
		handlers.NewRatingHandler(a.Ratings, a.Logger),
		handlers.NewTrustScoreHandler(a.TrustScores, a.Logger),
		handlers.NewHealthHandler(health.NewHealthChecker(a.Pool, cache.IsHealthy)),
		middleware.NewAuthMiddleware(auth.NewJWTManager(a.Config), a.Users),
	)
}

func (a *App) Close() {
	if err := cache.Close(); err != nil {
		a.Logger.Warn("redis close failed", zap.Error(err))
	}
	a.Pool.Close()
}
