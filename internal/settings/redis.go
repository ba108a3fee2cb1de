package settings

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisConfig configures a RedisStore.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string // key prefix, defaults to "snakedraw:settings:"
}

// RedisStore keeps each key as a hash with one field per slot.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Addr, err)
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "snakedraw:settings:"
	}
	return &RedisStore{client: client, prefix: prefix}, nil
}

func (r *RedisStore) Load(ctx context.Context, key string) (Settings, error) {
	if err := validKey(key); err != nil {
		return Settings{}, err
	}
	fields, err := r.client.HGetAll(ctx, r.prefix+key).Result()
	if err != nil {
		return Settings{}, fmt.Errorf("read settings hash: %w", err)
	}
	if len(fields) == 0 {
		return Settings{}, notFound(key)
	}
	return FromFields(fields)
}

func (r *RedisStore) Save(ctx context.Context, key string, s Settings) error {
	if err := validKey(key); err != nil {
		return err
	}
	if err := r.client.HSet(ctx, r.prefix+key, s.Fields()).Err(); err != nil {
		return fmt.Errorf("write settings hash: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
