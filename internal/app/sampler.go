package app

import (
	"math/rand"
	"time"

	"geohis-quiz-service/internal/domain"
)

// Per-session draw quotas by difficulty stratum.
const (
	easyQuota   = 4
	mediumQuota = 4
	hardQuota   = 2
)

// Sampler draws a stratified random question set from a bank.
type Sampler struct {
	rnd *rand.Rand
}

// NewSampler builds a sampler around the given randomness source. Pass a
// seeded source in tests for deterministic draws; nil falls back to a
// time-seeded one.
func NewSampler(rnd *rand.Rand) *Sampler {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Sampler{rnd: rnd}
}

// Select partitions the bank by difficulty, draws up to 4 easy, 4 medium and
// 2 hard questions without replacement, and reshuffles the concatenation so
// difficulty order is not observable. Short strata contribute what they have,
// so the result may hold fewer than 10 questions. The bank is never mutated.
func (s *Sampler) Select(bank []domain.Question) []domain.Question {
	var easy, medium, hard []domain.Question
	for _, q := range bank {
		switch q.Difficulty {
		case domain.Easy:
			easy = append(easy, q)
		case domain.Medium:
			medium = append(medium, q)
		case domain.Hard:
			hard = append(hard, q)
		}
	}

	selected := s.draw(easy, easyQuota)
	selected = append(selected, s.draw(medium, mediumQuota)...)
	selected = append(selected, s.draw(hard, hardQuota)...)

	s.rnd.Shuffle(len(selected), func(i, j int) {
		selected[i], selected[j] = selected[j], selected[i]
	})
	return selected
}

// draw shuffles a copy of the stratum and takes the first count questions.
func (s *Sampler) draw(stratum []domain.Question, count int) []domain.Question {
	shuffled := make([]domain.Question, len(stratum))
	copy(shuffled, stratum)
	s.rnd.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	if count > len(shuffled) {
		count = len(shuffled)
	}
	return shuffled[:count]
}
