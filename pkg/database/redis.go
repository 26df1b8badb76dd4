package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"chatx-backend/pkg/config"
	"chatx-backend/pkg/logger"
)

// RedisClient wraps the Redis client with degraded mode support.
// When Redis is unreachable the relay keeps running; presence mirroring
// is best-effort and resumes when the health check sees Redis again.
type RedisClient struct {
	Client *redis.Client

	degradedMode   bool
	degradedModeMu sync.RWMutex
}

// NewRedisDB creates a new Redis client from config
func NewRedisDB(cfg *config.RedisConfig) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.Timeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	})

	rc := &RedisClient{Client: client}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		rc.setDegraded(true)
		return rc, fmt.Errorf("failed to ping redis: %w", err)
	}

	return rc, nil
}

// Close closes the Redis connection
func (rc *RedisClient) Close() error {
	if rc.Client != nil {
		return rc.Client.Close()
	}
	return nil
}

// IsDegraded returns true if Redis is currently unreachable
func (rc *RedisClient) IsDegraded() bool {
	rc.degradedModeMu.RLock()
	defer rc.degradedModeMu.RUnlock()
	return rc.degradedMode
}

func (rc *RedisClient) setDegraded(degraded bool) {
	rc.degradedModeMu.Lock()
	changed := rc.degradedMode != degraded
	rc.degradedMode = degraded
	rc.degradedModeMu.Unlock()

	if changed {
		if degraded {
			logger.Warn("redis entered degraded mode")
		} else {
			logger.Info("redis recovered from degraded mode")
		}
	}
}

// StartHealthCheck pings Redis periodically and flips degraded mode.
// Blocks until ctx is cancelled; run it in a goroutine.
func (rc *RedisClient) StartHealthCheck(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			err := rc.Client.Ping(pingCtx).Err()
			cancel()

			if err != nil {
				logger.Debug("redis health check failed", zap.Error(err))
			}
			rc.setDegraded(err != nil)
		}
	}
}
