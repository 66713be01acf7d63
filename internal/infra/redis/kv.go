package redis

import (
	"context"
	"errors"

	"geohis-quiz-service/internal/domain"

	"github.com/redis/go-redis/v9"
)

// Store is a Redis implementation of app.KeyValueStore. Leaderboard blobs are
// plain string values and never expire.
type Store struct {
	client *redis.Client
}

func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.client.Set(ctx, key, value, 0).Err()
}
