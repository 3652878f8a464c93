package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Abandoned dialogues expire instead of lingering forever.
const sessionTTL = 15 * time.Minute

// RedisStore keeps registration sessions in Redis, so the bot process can
// be restarted mid-dialogue without losing state.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(addr string) *RedisStore {
	return &RedisStore{rdb: redis.NewClient(&redis.Options{Addr: addr})}
}

func sessionKey(chatID int64) string {
	return fmt.Sprintf("register:%d", chatID)
}

func (s *RedisStore) Get(ctx context.Context, chatID int64) (*Registration, error) {
	data, err := s.rdb.Get(ctx, sessionKey(chatID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r := &Registration{}
	if err := json.Unmarshal(data, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *RedisStore) Set(ctx context.Context, chatID int64, r *Registration) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, sessionKey(chatID), data, sessionTTL).Err()
}

func (s *RedisStore) Delete(ctx context.Context, chatID int64) error {
	return s.rdb.Del(ctx, sessionKey(chatID)).Err()
}
