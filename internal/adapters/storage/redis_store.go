package storage

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/eleven-am/panther/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RedisStore shares the cached token between processes through redis. Keys carry no TTL.
type RedisStore struct {
	client *redis.Client
	key    string
	atKey  string
	logger *slog.Logger
}

func NewRedisStore(ctx context.Context, redisURL, tokenKey string, logger *slog.Logger) (*RedisStore, error) {
	if redisURL == "" {
		return nil, domain.NewComponentError("redis-store", "open", domain.ErrInvalidConfig)
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, domain.NewComponentError("redis-store", "parse-url", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, domain.NewComponentError("redis-store", "ping", err)
	}

	return NewRedisStoreWithClient(client, tokenKey, logger), nil
}

func NewRedisStoreWithClient(client *redis.Client, tokenKey string, logger *slog.Logger) *RedisStore {
	if logger == nil {
		logger = slog.Default()
	}
	if tokenKey == "" {
		tokenKey = domain.DefaultTokenKey
	}

	return &RedisStore{
		client: client,
		key:    tokenKey,
		atKey:  domain.StoredAtKey(tokenKey),
		logger: logger.With("component", "redis-store"),
	}
}

func (s *RedisStore) Get(ctx context.Context) (domain.CachedToken, bool, error) {
	values, err := s.client.MGet(ctx, s.key, s.atKey).Result()
	if err != nil {
		if errors.Is(err, redis.ErrClosed) {
			return domain.CachedToken{}, false, domain.ErrStoreClosed
		}
		return domain.CachedToken{}, false, domain.NewComponentError("redis-store", "get", err)
	}

	value, _ := values[0].(string)
	if value == "" {
		return domain.CachedToken{}, false, nil
	}

	token := domain.CachedToken{Value: value}
	if raw, ok := values[1].(string); ok {
		token.StoredAt = parseStoredAt(raw)
	}
	return token, true, nil
}

func (s *RedisStore) Put(ctx context.Context, token domain.CachedToken) error {
	if token.IsZero() {
		return domain.NewComponentError("redis-store", "put", domain.ErrInvalidInput)
	}
	if token.StoredAt.IsZero() {
		token.StoredAt = time.Now()
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key, token.Value, 0)
		pipe.Set(ctx, s.atKey, formatStoredAt(token.StoredAt), 0)
		return nil
	})
	if err != nil {
		return domain.NewComponentError("redis-store", "put", err)
	}

	s.logger.Debug("access token persisted", "key", s.key)
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key, s.atKey).Err(); err != nil {
		return domain.NewComponentError("redis-store", "clear", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
