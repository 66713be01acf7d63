package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"geohis-quiz-service/internal/domain"

	"github.com/google/uuid"
)

// KeyValueStore abstracts leaderboard persistence (in-memory, Redis, etc).
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// BankRepository loads question banks (from cache/backing store).
type BankRepository interface {
	GetBank(ctx context.Context, topicID string) (domain.Bank, error)
}

const (
	rankingKeyPrefix   = "geohis:rankings:"
	maxEntriesPerTopic = 100

	// DefaultRankingLimit is the leaderboard page size.
	DefaultRankingLimit = 10
	// DefaultBestScoresLimit caps per-player best-score lookups.
	DefaultBestScoresLimit = 5
)

// RankingStore keeps a per-topic leaderboard capped at the top 100 entries,
// ordered by score descending with recency breaking ties.
type RankingStore struct {
	kv    KeyValueStore
	now   func() time.Time
	newID func() string
}

// NewRankingStore builds a store with wall-clock timestamps and UUID entry ids.
func NewRankingStore(kv KeyValueStore) *RankingStore {
	return NewRankingStoreWithClock(kv, time.Now)
}

// NewRankingStoreWithClock injects the clock for deterministic tests.
func NewRankingStoreWithClock(kv KeyValueStore, now func() time.Time) *RankingStore {
	return &RankingStore{kv: kv, now: now, newID: uuid.NewString}
}

// SaveRanking appends a finished result to the topic's leaderboard, re-sorts,
// truncates to the top 100 and persists. Persistence failures are logged and
// reported as nil; the session result itself is never rolled back.
func (r *RankingStore) SaveRanking(ctx context.Context, topicID string, result domain.GameResult) *domain.RankingEntry {
	entries, err := r.load(ctx, topicID)
	if err != nil {
		log.Printf("ranking: load %s failed: %v", topicID, err)
		return nil
	}

	entry := domain.RankingEntry{
		ID:        r.newID(),
		TopicID:   topicID,
		Initials:  result.Initials,
		Avatar:    result.Avatar,
		Score:     result.Score,
		Correct:   result.Correct,
		Total:     result.Total,
		Stars:     result.Stars,
		MaxStreak: result.MaxStreak,
		Date:      r.now(),
	}

	entries = append(entries, entry)
	sortEntries(entries)
	if len(entries) > maxEntriesPerTopic {
		entries = entries[:maxEntriesPerTopic]
	}

	if err := r.store(ctx, topicID, entries); err != nil {
		log.Printf("ranking: save %s failed: %v", topicID, err)
		return nil
	}
	return &entry
}

// GetTopicRanking returns the top limit entries in stored order. A
// non-positive limit falls back to the default page size.
func (r *RankingStore) GetTopicRanking(ctx context.Context, topicID string, limit int) []domain.RankingEntry {
	if limit <= 0 {
		limit = DefaultRankingLimit
	}
	entries, err := r.load(ctx, topicID)
	if err != nil {
		log.Printf("ranking: load %s failed: %v", topicID, err)
		return nil
	}
	if limit > len(entries) {
		limit = len(entries)
	}
	return entries[:limit]
}

// GetRankPosition reports the 1-based position of an entry within the full
// stored list, or -1 when absent.
func (r *RankingStore) GetRankPosition(ctx context.Context, topicID, entryID string) int {
	entries, err := r.load(ctx, topicID)
	if err != nil {
		log.Printf("ranking: load %s failed: %v", topicID, err)
		return -1
	}
	for i, entry := range entries {
		if entry.ID == entryID {
			return i + 1
		}
	}
	return -1
}

// GetPlayerBestScores filters the topic's leaderboard by player initials,
// case-insensitively, preserving stored order.
func (r *RankingStore) GetPlayerBestScores(ctx context.Context, topicID, initials string, limit int) []domain.RankingEntry {
	if limit <= 0 {
		limit = DefaultBestScoresLimit
	}
	entries, err := r.load(ctx, topicID)
	if err != nil {
		log.Printf("ranking: load %s failed: %v", topicID, err)
		return nil
	}
	var best []domain.RankingEntry
	for _, entry := range entries {
		if strings.EqualFold(entry.Initials, initials) {
			best = append(best, entry)
			if len(best) == limit {
				break
			}
		}
	}
	return best
}

// GetTopicStats aggregates plays, average and highest score, and the count of
// distinct players for a topic.
func (r *RankingStore) GetTopicStats(ctx context.Context, topicID string) domain.TopicStats {
	entries, err := r.load(ctx, topicID)
	if err != nil {
		log.Printf("ranking: load %s failed: %v", topicID, err)
		return domain.TopicStats{}
	}
	if len(entries) == 0 {
		return domain.TopicStats{}
	}

	sum := 0
	players := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		sum += entry.Score
		players[strings.ToUpper(entry.Initials)] = struct{}{}
	}
	return domain.TopicStats{
		TotalPlays:    len(entries),
		AverageScore:  int(float64(sum)/float64(len(entries)) + 0.5),
		HighestScore:  entries[0].Score,
		UniquePlayers: len(players),
	}
}

// ClearTopic wipes a topic's leaderboard.
func (r *RankingStore) ClearTopic(ctx context.Context, topicID string) error {
	return r.store(ctx, topicID, []domain.RankingEntry{})
}

func (r *RankingStore) load(ctx context.Context, topicID string) ([]domain.RankingEntry, error) {
	raw, err := r.kv.Get(ctx, rankingKey(topicID))
	if errors.Is(err, domain.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var entries []domain.RankingEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode ranking list: %w", err)
	}
	return entries, nil
}

func (r *RankingStore) store(ctx context.Context, topicID string, entries []domain.RankingEntry) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode ranking list: %w", err)
	}
	return r.kv.Set(ctx, rankingKey(topicID), raw)
}

func rankingKey(topicID string) string {
	return rankingKeyPrefix + topicID
}

// sortEntries applies the storage ordering: score descending, then date
// descending so a more recent result wins ties.
func sortEntries(entries []domain.RankingEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Date.After(entries[j].Date)
	})
}
