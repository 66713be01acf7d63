package memory

import (
	"context"
	"errors"
	"testing"

	"geohis-quiz-service/internal/domain"
)

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, domain.ErrKeyNotFound) {
		t.Fatalf("expected key-not-found, got %v", err)
	}

	if err := store.Set(ctx, "k", []byte("v1")); err != nil {
		t.Fatalf("set: %v", err)
	}
	value, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(value) != "v1" {
		t.Fatalf("expected v1, got %s", value)
	}

	// Returned bytes are a copy; mutating them must not change the store.
	value[0] = 'x'
	again, _ := store.Get(ctx, "k")
	if string(again) != "v1" {
		t.Fatalf("store value was mutated through a read: %s", again)
	}
}
