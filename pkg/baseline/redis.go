// Redis-backed baseline storage for teams sharing one suppression set
// across CI workers.
package baseline

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig configures the Redis baseline backend.
type RedisConfig struct {
	// Address is the Redis server address (e.g., "localhost:6379")
	Address string

	// Password for Redis authentication (optional)
	Password string

	// Database number to use (default: 0)
	Database int

	// Prefix is prepended to all fingerprint keys
	Prefix string

	// TTL is the time-to-live for fingerprints (0 = no expiration)
	TTL time.Duration

	// Timeout for Redis operations
	Timeout time.Duration

	// PoolSize is the maximum number of connections
	PoolSize int

	// MinIdleConns is the minimum number of idle connections
	MinIdleConns int
}

// DefaultRedisConfig returns sensible defaults.
func DefaultRedisConfig(address string) RedisConfig {
	return RedisConfig{
		Address:      address,
		Prefix:       "loclint:baseline:",
		Timeout:      5 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	}
}

// RedisStore keeps the baseline in Redis for low-latency shared access.
type RedisStore struct {
	cfg    RedisConfig
	client *redis.Client
}

// OpenRedis connects a Redis-backed baseline.
func OpenRedis(cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.Database,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis %s: %w", cfg.Address, err)
	}

	return &RedisStore{cfg: cfg, client: client}, nil
}

// Has implements Store.
func (s *RedisStore) Has(ctx context.Context, fingerprint string) (bool, error) {
	n, err := s.client.Exists(ctx, s.cfg.Prefix+fingerprint).Result()
	if err != nil {
		return false, fmt.Errorf("baseline lookup: %w", err)
	}
	return n > 0, nil
}

// Record implements Store.
func (s *RedisStore) Record(ctx context.Context, fingerprint string) error {
	if err := s.client.Set(ctx, s.cfg.Prefix+fingerprint, time.Now().UTC().Format(time.RFC3339), s.cfg.TTL).Err(); err != nil {
		return fmt.Errorf("baseline record: %w", err)
	}
	return nil
}

// Close releases the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
