package redis

import (
	"context"
	"testing"
	"time"

	"geohis-quiz-service/internal/domain"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestBankRepositoryCachesInRedis(t *testing.T) {
	ctx := context.Background()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	loader := &countingLoader{bank: sampleBank()}
	repo := NewBankRepository(client, loader, time.Minute)

	bank, err := repo.GetBank(ctx, "landforms")
	if err != nil {
		t.Fatalf("get bank: %v", err)
	}
	if len(bank.Questions) != 1 || bank.Questions[0].ID != "lf-q1" {
		t.Fatalf("unexpected bank %+v", bank)
	}
	if !mr.Exists("quiz:bank:landforms") {
		t.Fatalf("expected cache key to be set")
	}

	if _, err := repo.GetBank(ctx, "landforms"); err != nil {
		t.Fatalf("get bank 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}
}

type countingLoader struct {
	bank  domain.Bank
	calls int
}

func (l *countingLoader) LoadBank(_ context.Context, topicID string) (domain.Bank, error) {
	l.calls++
	if topicID != l.bank.TopicID {
		return domain.Bank{}, domain.ErrBankNotFound
	}
	return l.bank, nil
}

func sampleBank() domain.Bank {
	return domain.Bank{
		TopicID: "landforms",
		Questions: []domain.Question{
			{
				ID:            "lf-q1",
				Type:          domain.MultipleChoice,
				Difficulty:    domain.Easy,
				Prompt:        "What is a mountain range?",
				Options:       []string{"A group of large mountains", "A flat elevated area"},
				CorrectOption: 0,
			},
		},
	}
}
