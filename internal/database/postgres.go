package database

import (
	"context"
	"fmt"

	"github.com/freakyfit/freakyfit-api/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var DB *pgxpool.Pool

func poolConfig(dbURL string, pool config.DBPoolConfig) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if pool.MaxConns > 0 {
		cfg.MaxConns = pool.MaxConns
	}
	if pool.MinConns > 0 && pool.MinConns <= cfg.MaxConns {
		cfg.MinConns = pool.MinConns
	}
	if pool.MaxConnLifetime > 0 {
		cfg.MaxConnLifetime = pool.MaxConnLifetime
	}
	if pool.MaxConnIdleTime > 0 {
		cfg.MaxConnIdleTime = pool.MaxConnIdleTime
	}
	if pool.HealthCheckPeriod > 0 {
		cfg.HealthCheckPeriod = pool.HealthCheckPeriod
	}
	if pool.ConnectTimeout > 0 {
		cfg.ConnConfig.ConnectTimeout = pool.ConnectTimeout
	}
	return cfg, nil
}

// ConnectDB opens the shared pool and fails unless the first ping succeeds
// within the connect timeout.
func ConnectDB(dbURL string, pool config.DBPoolConfig, logger *zap.Logger) error {
	cfg, err := poolConfig(dbURL, pool)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if timeout := cfg.ConnConfig.ConnectTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	p, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open postgres pool: %w", err)
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return fmt.Errorf("ping postgres: %w", err)
	}

	DB = p
	logger.Info("connected to postgres",
		zap.String("host", cfg.ConnConfig.Host),
		zap.String("database", cfg.ConnConfig.Database),
		zap.Int32("max_conns", cfg.MaxConns),
		zap.Int32("min_conns", cfg.MinConns),
	)
	return nil
}

func CloseDB() {
	if DB != nil {
		DB.Close()
	}
}
