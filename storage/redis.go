package storage

import (
	"context"
	"fmt"
	"time"

	"appointment-watcher/types"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey — ключ, под которым лежит состояние.
const DefaultRedisKey = "appointments:state"

// RedisStore хранит тот же JSON, что и FileStore, под одним ключом.
type RedisStore struct {
	client *redis.Client
	key    string
	now    func() time.Time
}

func NewRedisStore(addr, password string, db int) *RedisStore {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,     // например: "localhost:6379"
		Password: password, // можно пустым
		DB:       db,
	})
	return &RedisStore{client: rdb, key: DefaultRedisKey, now: time.Now}
}

// Load: redis.Nil — состояние ещё не сохранялось.
func (s *RedisStore) Load(ctx context.Context) (types.MonitorState, error) {
	val, err := s.client.Get(ctx, s.key).Bytes()
	if err == redis.Nil {
		return types.MonitorState{}, nil
	}
	if err != nil {
		return types.MonitorState{}, fmt.Errorf("redis get %s: %w", s.key, err)
	}
	return decode(val, s.now())
}

// Save заменяет значение целиком (SET без TTL).
func (s *RedisStore) Save(ctx context.Context, state types.MonitorState) error {
	data, err := encode(state)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
