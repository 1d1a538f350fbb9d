package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jaimenoain/ceeq/internal/config"
	"github.com/jaimenoain/ceeq/internal/fingerprint"
	"github.com/jaimenoain/ceeq/internal/retry"
	"github.com/jaimenoain/ceeq/internal/session"
	"github.com/jaimenoain/ceeq/internal/store"
)

// connectRetry covers backends that are still starting when we are,
// typically under docker-compose.
func connectRetry(name string) retry.Config {
	cfg := retry.Default()
	cfg.MaxAttempts = 5
	cfg.OnRetry = func(attempt int, err error) {
		zap.L().Warn("backend not ready, retrying",
			zap.String("backend", name),
			zap.Int("attempt", attempt),
			zap.Error(err))
	}
	return cfg
}

// newStore builds the configured store backend.
func newStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		if cfg.Store.DatabaseURL == "" {
			return nil, fmt.Errorf("store.database_url is required for the postgres driver")
		}
		return retry.DoVal(ctx, connectRetry("postgres"), func(ctx context.Context) (store.Store, error) {
			return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &cfg.Store.Pool)
		})
	case "memory":
		return store.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// newSessions picks Redis when configured, process memory otherwise.
func newSessions(ctx context.Context, cfg *config.Config) (session.Store, error) {
	ttl := time.Duration(cfg.Session.TTLHours) * time.Hour
	if cfg.Session.RedisURL == "" {
		return session.NewMemoryStore(ttl), nil
	}
	return retry.DoVal(ctx, connectRetry("redis"), func(ctx context.Context) (session.Store, error) {
		return session.NewRedisStore(cfg.Session.RedisURL, ttl)
	})
}

// newHasher fails fast when the fingerprint secret is missing: without
// it no collision check is trustworthy.
func newHasher(cfg *config.Config) (*fingerprint.Hasher, error) {
	return fingerprint.NewHasher(cfg.Fingerprint.Secret)
}
