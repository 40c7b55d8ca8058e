package builder

import (
	"context"
	"fmt"
	"time"

	"github.com/futig/docchat/internal/config"
	"github.com/futig/docchat/internal/repository"
	"github.com/futig/docchat/internal/session"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// setupDatabase creates a new database connection pool
func setupDatabase(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.DBMaxConns)
	poolConfig.MinConns = int32(cfg.DBMinConns)
	poolConfig.MaxConnLifetime = cfg.DBMaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.DBMaxConnIdleTime
	poolConfig.HealthCheckPeriod = cfg.DBHealthCheckPeriod

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("database connection pool established",
		zap.Int32("max_conns", poolConfig.MaxConns),
		zap.Int32("min_conns", poolConfig.MinConns),
		zap.Duration("max_conn_lifetime", poolConfig.MaxConnLifetime),
	)

	return pool, nil
}

// setupSessionStorage returns the configured session backend. The postgres
// backend also gets its migrations applied and a cleanup loop for expired
// rows that runs until ctx is done.
func setupSessionStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (session.Storage, *pgxpool.Pool, error) {
	if cfg.SessionCfg.Store != config.SessionStorePostgres {
		logger.Info("using in-memory session store", zap.Duration("ttl", cfg.SessionCfg.TTL))
		return session.NewMemoryStorage(cfg.SessionCfg.TTL, cfg.SessionCfg.CleanupInterval), nil, nil
	}

	db, err := setupDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("setup database: %w", err)
	}

	logger.Info("Running database migrations")
	if err := repository.RunMigrations(cfg.DatabaseURL); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("Database migrations completed successfully")

	repo := repository.NewSessionPostgres(db, cfg.SessionCfg.TTL)
	go cleanupExpiredSessions(ctx, repo, cfg.SessionCfg.CleanupInterval, logger)

	return repo, db, nil
}

func cleanupExpiredSessions(ctx context.Context, repo *repository.SessionPostgres, every time.Duration, logger *zap.Logger) {
	if every <= 0 {
		return
	}

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.DeleteExpired(ctx)
			if err != nil {
				logger.Warn("failed to delete expired sessions", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Debug("expired sessions deleted", zap.Int64("count", n))
			}
		}
	}
}
