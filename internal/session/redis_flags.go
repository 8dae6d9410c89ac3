package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ratings/internal/microservices/http-api/models"
)

const keyPrefix = "ratings:session:"

// NewRedisClient parses a redis:// URL and verifies the connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return rdb, nil
}

// RedisFlags keeps one hash per session: ratings:session:<sid> -> {itemKey: unix time}.
type RedisFlags struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisFlags(client *redis.Client, ttl time.Duration) *RedisFlags {
	return &RedisFlags{client: client, ttl: ttl}
}

func (f *RedisFlags) HasRated(ctx context.Context, sessionID string, key models.ItemKey) (bool, error) {
	ok, err := f.client.HExists(ctx, keyPrefix+sessionID, key.String()).Result()
	if err != nil {
		return false, fmt.Errorf("read session flag: %w", err)
	}
	return ok, nil
}

func (f *RedisFlags) ClaimRated(ctx context.Context, sessionID string, key models.ItemKey) (bool, error) {
	hash := keyPrefix + sessionID
	pipe := f.client.TxPipeline()
	claimed := pipe.HSetNX(ctx, hash, key.String(), time.Now().Unix())
	pipe.Expire(ctx, hash, f.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("claim session flag: %w", err)
	}
	return claimed.Val(), nil
}

func (f *RedisFlags) ReleaseRated(ctx context.Context, sessionID string, key models.ItemKey) error {
	if err := f.client.HDel(ctx, keyPrefix+sessionID, key.String()).Err(); err != nil {
		return fmt.Errorf("release session flag: %w", err)
	}
	return nil
}
