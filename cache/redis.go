package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	// Client is nil when redis is unavailable; every helper then reports a
	// miss and callers fall through to the database.
	Client *redis.Client
	ctx    = context.Background()
)

var errDisabled = errors.New("cache disabled")

// Init connects to redis. A failed connection is reported but leaves the
// cache disabled rather than blocking startup.
func Init(logger *zap.Logger) error {
	host := os.Getenv("REDIS_HOST")
	if host == "" {
		host = "localhost"
	}
	port := os.Getenv("REDIS_PORT")
	if port == "" {
		port = "6379"
	}
	addr := fmt.Sprintf("%s:%s", host, port)

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis_unavailable_cache_disabled",
			zap.String("addr", addr),
			zap.Error(err),
		)
		return err
	}

	Client = client
	logger.Info("redis_connected", zap.String("addr", addr))
	return nil
}

// Set stores a JSON-encoded value with a TTL.
func Set(key string, value interface{}, expiration time.Duration) error {
	if Client == nil {
		return errDisabled
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}
	return Client.Set(ctx, key, data, expiration).Err()
}

// Get reads a value into dest; a miss or a disabled cache returns an error.
func Get(key string, dest interface{}) error {
	if Client == nil {
		return errDisabled
	}
	val, err := Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return fmt.Errorf("cache miss: %w", err)
	} else if err != nil {
		return fmt.Errorf("cache get failed: %w", err)
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return fmt.Errorf("cache unmarshal failed: %w", err)
	}
	return nil
}

// Delete removes a key.
func Delete(key string) error {
	if Client == nil {
		return errDisabled
	}
	return Client.Del(ctx, key).Err()
}

// Close shuts the connection down.
func Close() error {
	if Client != nil {
		return Client.Close()
	}
	return nil
}
