// Package idempotency implements port.IdempotencyStore on Redis for
// multi-instance deployments and on the in-memory cache for a single node.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// pending marks a key whose operation is still running.
const pending = "\x00pending"

// Redis keeps claims and results under "idempotency:<key>".
type Redis struct {
	rdb *redis.Client
}

// NewRedis connects to Redis and checks the connection.
func NewRedis(ctx context.Context, addr, password string, db int) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &Redis{rdb: rdb}, nil
}

func redisKey(key string) string { return "idempotency:" + key }

func (r *Redis) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := r.rdb.SetNX(ctx, redisKey(key), pending, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire idempotency key: %w", err)
	}
	return ok, nil
}

func (r *Redis) Complete(ctx context.Context, key string, result []byte, ttl time.Duration) error {
	if err := r.rdb.Set(ctx, redisKey(key), result, ttl).Err(); err != nil {
		return fmt.Errorf("store idempotency result: %w", err)
	}
	return nil
}

func (r *Redis) Result(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.rdb.Get(ctx, redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read idempotency result: %w", err)
	}
	if string(val) == pending {
		return nil, false, nil
	}
	return val, true, nil
}

func (r *Redis) Release(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, redisKey(key)).Err()
}

// Ping checks the Redis connection.
func (r *Redis) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (r *Redis) Close() error {
	return r.rdb.Close()
}
