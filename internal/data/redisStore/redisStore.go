package redisStore

import (
	"context"
	"fmt"
	"time"

	"github.com/akolanti/DocQA/internal/config"
	"github.com/akolanti/DocQA/pkg/logger_i"
	"github.com/redis/go-redis/v9"
)

const pingTimeout = 3 * time.Second

// Store is a thin key/value view over one redis logical DB.
type Store struct {
	client *redis.Client
	db     int
	logger *logger_i.Logger
}

// NewRedisStore connects to db on the configured server and fails if it does not answer a ping.
func NewRedisStore(ctx context.Context, settings config.RedisSettings, db int) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:                  settings.Addr,
		Password:              settings.Password,
		DB:                    db,
		ContextTimeoutEnabled: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis %s is offline: %w", settings.Addr, err)
	}

	s := NewStoreFromClient(client)
	s.db = db
	s.logger.Info("Redis store ready", "addr", settings.Addr, "db", db)
	return s, nil
}

// NewStoreFromClient wraps an existing client, e.g. one pointed at miniredis.
func NewStoreFromClient(client *redis.Client) *Store {
	return &Store{
		client: client,
		logger: logger_i.NewLogger("redis_store"),
	}
}

func (s *Store) Close() error {
	s.logger.Info("Closing Redis store", "db", s.db)
	return s.client.Close()
}
