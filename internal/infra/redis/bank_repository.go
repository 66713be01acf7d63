package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"time"

	"geohis-quiz-service/internal/domain"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// BankLoader fetches question banks from a backing store (e.g., Postgres).
type BankLoader interface {
	LoadBank(ctx context.Context, topicID string) (domain.Bank, error)
}

// BankRepository caches whole banks as JSON under quiz:bank:{topicID} with a
// jittered TTL and falls back to the loader on a miss.
type BankRepository struct {
	client *redis.Client
	loader BankLoader
	ttl    time.Duration
	sf     singleflight.Group
}

func NewBankRepository(client *redis.Client, loader BankLoader, ttl time.Duration) *BankRepository {
	return &BankRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
	}
}

func (r *BankRepository) GetBank(ctx context.Context, topicID string) (domain.Bank, error) {
	key := r.bankKey(topicID)

	if bank, ok, err := r.cached(ctx, key); err == nil && ok {
		return bank, nil
	}

	result, err, _ := r.sf.Do(topicID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if bank, ok, err := r.cached(ctx, key); err == nil && ok {
			return bank, nil
		}

		bank, err := r.loader.LoadBank(ctx, topicID)
		if err != nil {
			return domain.Bank{}, err
		}

		raw, err := json.Marshal(bank)
		if err != nil {
			return domain.Bank{}, err
		}
		// best-effort cache fill
		_ = r.client.Set(ctx, key, raw, r.ttlWithJitter()).Err()
		return bank, nil
	})
	if err != nil {
		return domain.Bank{}, err
	}
	return result.(domain.Bank), nil
}

func (r *BankRepository) cached(ctx context.Context, key string) (domain.Bank, bool, error) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Bank{}, false, nil
	}
	if err != nil {
		return domain.Bank{}, false, err
	}
	var bank domain.Bank
	if err := json.Unmarshal(raw, &bank); err != nil {
		return domain.Bank{}, false, err
	}
	return bank, true, nil
}

func (r *BankRepository) bankKey(topicID string) string {
	return "quiz:bank:" + topicID
}

func (r *BankRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// locked top-level source, safe across concurrent singleflight callbacks
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(rand.Int63n(jitterMax+1))
}
