// Package kv provides the key-value store the engine persists through.
package kv

import (
	"context"
	"errors"
	"strings"

	"rendez/internal/models"
	"rendez/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Store is the associative store consumed by the engine. Keys are opaque
// strings composed by callers; no transactions or compare-and-swap are
// assumed.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	ListKeys(ctx context.Context, prefix string) ([]string, error)
}

type metricsHook struct{}

func (h metricsHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h metricsHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		if err != nil && !errors.Is(err, redis.Nil) {
			observability.KVErrorRate.WithLabelValues(cmd.Name()).Inc()
		}
		return err
	}
}

func (h metricsHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		if err != nil && !errors.Is(err, redis.Nil) {
			observability.KVErrorRate.WithLabelValues("pipeline").Inc()
		}
		return err
	}
}

// redisStore implements Store on a Redis client.
type redisStore struct {
	client *redis.Client
}

// NewRedisStore returns a Store backed by the given Redis client.
func NewRedisStore(client *redis.Client) Store {
	return &redisStore{client: client}
}

// Connect dials Redis at addr (host:port or redis:// URL) and returns a
// Store over it. The connection is verified with a ping.
func Connect(ctx context.Context, addr string) (Store, error) {
	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, models.NewUpstreamError("key-value store", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}

	client := redis.NewClient(opts)
	client.AddHook(metricsHook{})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, models.NewUpstreamError("key-value store", err)
	}
	return NewRedisStore(client), nil
}

func (s *redisStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, models.NewUpstreamError("key-value store", err)
	}
	return val, true, nil
}

func (s *redisStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return models.NewUpstreamError("key-value store", err)
	}
	return nil
}

func (s *redisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return models.NewUpstreamError("key-value store", err)
	}
	return nil
}

func (s *redisStore) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, models.NewUpstreamError("key-value store", err)
	}
	return keys, nil
}
