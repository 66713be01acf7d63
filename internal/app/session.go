package app

import (
	"strings"
	"sync"
	"time"

	"geohis-quiz-service/internal/domain"
)

// State is the game session lifecycle phase.
type State string

const (
	StatePlayerConfig State = "PLAYER_CONFIG"
	StatePlaying      State = "PLAYING"
	StateFeedback     State = "FEEDBACK"
	StateResults      State = "RESULTS"
)

// Session drives a single player through configuration, play, per-question
// feedback and results. All mutation goes through the transition methods; the
// mutex keeps re-entrant submits from writing two records for one question.
type Session struct {
	mu        sync.Mutex
	player    domain.Player
	state     State
	questions []domain.Question
	index     int
	answers   []domain.AnswerRecord
	current   *domain.AnswerRecord
	streak    int
	maxStreak int

	sampler *Sampler
	now     func() time.Time
}

// NewSession builds a session with production randomness and clock.
func NewSession() *Session {
	return NewSessionWithOptions(NewSampler(nil), time.Now)
}

// NewSessionWithOptions injects the sampler and clock for deterministic tests.
func NewSessionWithOptions(sampler *Sampler, now func() time.Time) *Session {
	if sampler == nil {
		sampler = NewSampler(nil)
	}
	if now == nil {
		now = time.Now
	}
	return &Session{state: StatePlayerConfig, sampler: sampler, now: now}
}

// ConfigurePlayer records the player identity. Initials need at least two
// characters and an avatar must be chosen before a game can start.
func (s *Session) ConfigurePlayer(initials, avatar string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StatePlayerConfig {
		return domain.ErrInvalidTransition
	}
	trimmed := strings.TrimSpace(initials)
	if len([]rune(trimmed)) < 2 {
		return domain.ErrInitialsTooShort
	}
	if avatar == "" {
		return domain.ErrAvatarRequired
	}
	s.player = domain.Player{Initials: trimmed, Avatar: avatar}
	return nil
}

// StartGame samples the question set and transitions to PLAYING. The bank is
// read-only; the session owns a fresh selection.
func (s *Session) StartGame(bank []domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StatePlayerConfig {
		return domain.ErrInvalidTransition
	}
	if len([]rune(s.player.Initials)) < 2 {
		return domain.ErrInitialsTooShort
	}
	if s.player.Avatar == "" {
		return domain.ErrAvatarRequired
	}

	selected := s.sampler.Select(bank)
	if len(selected) == 0 {
		return domain.ErrEmptyBank
	}

	s.questions = selected
	s.index = 0
	s.answers = nil
	s.current = nil
	s.streak = 0
	s.maxStreak = 0
	s.state = StatePlaying
	return nil
}

// SubmitAnswer evaluates the raw input for the current question, appends the
// answer record, updates the streak counters and transitions to FEEDBACK. On
// incomplete or mismatched input no record is written and play continues.
func (s *Session) SubmitAnswer(raw domain.AnswerPayload) (domain.AnswerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StatePlaying {
		return domain.AnswerRecord{}, domain.ErrInvalidTransition
	}

	question := s.questions[s.index]
	correct, err := Evaluate(question, raw)
	if err != nil {
		return domain.AnswerRecord{}, err
	}

	record := domain.AnswerRecord{
		QuestionID: question.ID,
		Answer:     raw,
		IsCorrect:  correct,
		Timestamp:  s.now(),
	}
	s.answers = append(s.answers, record)
	s.current = &record

	if correct {
		s.streak++
		if s.streak > s.maxStreak {
			s.maxStreak = s.streak
		}
	} else {
		s.streak = 0
	}

	s.state = StateFeedback
	return record, nil
}

// NextQuestion leaves FEEDBACK: it advances to the next question, or to
// RESULTS when the set is exhausted. Anywhere else it is a no-op.
func (s *Session) NextQuestion() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateFeedback {
		return
	}
	s.current = nil
	if s.index+1 < len(s.questions) {
		s.index++
		s.state = StatePlaying
	} else {
		s.state = StateResults
	}
}

// ResetGame clears every session field and returns to PLAYER_CONFIG.
func (s *Session) ResetGame() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.player = domain.Player{}
	s.questions = nil
	s.index = 0
	s.answers = nil
	s.current = nil
	s.streak = 0
	s.maxStreak = 0
	s.state = StatePlayerConfig
}

// State reports the current lifecycle phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Player returns the configured player identity.
func (s *Session) Player() domain.Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.player
}

// CurrentQuestion returns the question at the cursor, if any.
func (s *Session) CurrentQuestion() (domain.Question, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.questions) == 0 || s.index >= len(s.questions) {
		return domain.Question{}, false
	}
	return s.questions[s.index], true
}

// CurrentIndex is the zero-based cursor into the selected set.
func (s *Session) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// QuestionCount is the size of the selected set.
func (s *Session) QuestionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.questions)
}

// Answers returns a copy of the answer log.
func (s *Session) Answers() []domain.AnswerRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	answers := make([]domain.AnswerRecord, len(s.answers))
	copy(answers, s.answers)
	return answers
}

// CurrentAnswer returns the record being shown in FEEDBACK, if any.
func (s *Session) CurrentAnswer() (domain.AnswerRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return domain.AnswerRecord{}, false
	}
	return *s.current, true
}

// Streak is the count of consecutive correct answers.
func (s *Session) Streak() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streak
}

// MaxStreak is the best streak reached this session; it never decreases.
func (s *Session) MaxStreak() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxStreak
}

// Score derives the running score from the answer log.
func (s *Session) Score() domain.Score {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ComputeScore(s.answers)
}

// Result packages the finished session for the ranking store.
func (s *Session) Result() domain.GameResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	score := ComputeScore(s.answers)
	return domain.GameResult{
		Initials:  s.player.Initials,
		Avatar:    s.player.Avatar,
		Score:     score.Percentage,
		Correct:   score.Correct,
		Total:     score.Total,
		Stars:     score.Stars,
		MaxStreak: s.maxStreak,
	}
}
