package services

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisNil is returned by RedisClient.Get when the key does not exist.
var ErrRedisNil = redis.Nil

// RedisClient covers the key/value and set operations used by the session
// store and the cache layer.
type RedisClient interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, expiration time.Duration) error
	SMembers(ctx context.Context, key string) ([]string, error)
	SRem(ctx context.Context, key string, members ...string) error
	// SetIndexed writes key and adds member to indexKey in one MULTI/EXEC.
	// The index expires with its newest entry.
	SetIndexed(ctx context.Context, key string, value any, expiration time.Duration, indexKey, member string) error
	// DelIndexed deletes key and removes member from indexKey atomically.
	DelIndexed(ctx context.Context, key, indexKey, member string) error
}

type redisAdapter struct {
	client redis.UniversalClient
}

func NewRedisAdapter(client redis.UniversalClient) RedisClient {
	return &redisAdapter{client: client}
}

func (r *redisAdapter) Get(ctx context.Context, key string) (string, error) {
	return r.client.Get(ctx, key).Result()
}

func (r *redisAdapter) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	return r.client.Set(ctx, key, value, expiration).Err()
}

func (r *redisAdapter) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

func (r *redisAdapter) Incr(ctx context.Context, key string) (int64, error) {
	return r.client.Incr(ctx, key).Result()
}

func (r *redisAdapter) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return r.client.Expire(ctx, key, expiration).Err()
}

func (r *redisAdapter) SMembers(ctx context.Context, key string) ([]string, error) {
	return r.client.SMembers(ctx, key).Result()
}

func (r *redisAdapter) SRem(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	args := make([]any, len(members))
	for i, m := range members {
		args[i] = m
	}
	return r.client.SRem(ctx, key, args...).Err()
}

func (r *redisAdapter) SetIndexed(ctx context.Context, key string, value any, expiration time.Duration, indexKey, member string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, value, expiration)
		pipe.SAdd(ctx, indexKey, member)
		pipe.Expire(ctx, indexKey, expiration)
		return nil
	})
	return err
}

func (r *redisAdapter) DelIndexed(ctx context.Context, key, indexKey, member string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.SRem(ctx, indexKey, member)
		return nil
	})
	return err
}

func isRedisNil(err error) bool {
	return errors.Is(err, redis.Nil)
}
