package kvtab

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisStore maps the Store primitives directly onto Redis commands.
// Commands run under context.Background(): this layer adds no timeouts
// or cancellation, those belong to the client's dial and read options.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{rdb: client}
}

func (s *RedisStore) Client() *redis.Client {
	return s.rdb
}

func (s *RedisStore) Get(key string) (string, bool, error) {
	v, err := s.rdb.Get(context.Background(), key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *RedisStore) Set(key, value string) error {
	return s.rdb.Set(context.Background(), key, value, 0).Err()
}

func (s *RedisStore) Incr(key string, delta int64) (int64, error) {
	return s.rdb.IncrBy(context.Background(), key, delta).Result()
}

func (s *RedisStore) Del(key string) error {
	return s.rdb.Del(context.Background(), key).Err()
}

func (s *RedisStore) Keys(pattern string) ([]string, error) {
	return s.rdb.Keys(context.Background(), pattern).Result()
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
