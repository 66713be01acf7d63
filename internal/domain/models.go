package domain

import "time"

// QuestionType discriminates the five supported answer formats.
type QuestionType string

const (
	MultipleChoice QuestionType = "multipleChoice"
	TrueFalse      QuestionType = "trueFalse"
	FillBlanks     QuestionType = "fillBlanks"
	Matching       QuestionType = "matching"
	Classify       QuestionType = "classify"
)

// Difficulty labels the stratum a question is sampled from.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// Pair is one left/right association of a matching question.
type Pair struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

// ClassifyItem is one item of a classify question with its ground-truth category.
type ClassifyItem struct {
	ID       int    `json:"id"`
	Text     string `json:"text"`
	Category string `json:"category"`
}

// Question is an immutable question-bank entry. Only the payload fields for
// its Type are populated; evaluators treat anything else as an authoring bug.
type Question struct {
	ID          string       `json:"id"`
	Type        QuestionType `json:"type"`
	Difficulty  Difficulty   `json:"difficulty"`
	Prompt      string       `json:"question"`
	Explanation string       `json:"explanation,omitempty"`

	// multipleChoice
	Options       []string `json:"options,omitempty"`
	CorrectOption int      `json:"correctOption,omitempty"`

	// trueFalse
	Answer bool `json:"answer,omitempty"`

	// fillBlanks: accepted variants per blank, in blank order.
	Blanks [][]string `json:"blanks,omitempty"`

	// matching
	Pairs []Pair `json:"pairs,omitempty"`

	// classify
	Categories []string       `json:"categories,omitempty"`
	Items      []ClassifyItem `json:"items,omitempty"`
}

// Bank is the full question pool for one topic.
type Bank struct {
	TopicID   string     `json:"topicId"`
	Questions []Question `json:"questions"`
}

// AnswerPayload is the finished raw input for one question. The presentation
// layer owns all interaction; the engine only ever sees the final value.
type AnswerPayload interface {
	answerPayload()
}

// ChoiceAnswer is the payload for multipleChoice questions.
type ChoiceAnswer struct {
	SelectedIndex int `json:"selectedIndex"`
}

// BoolAnswer is the payload for trueFalse questions.
type BoolAnswer struct {
	Selected bool `json:"selected"`
}

// BlanksAnswer carries one user input per blank, in blank order.
type BlanksAnswer struct {
	Inputs []string `json:"inputs"`
}

// MatchingAnswer carries the user's final ordering of the right column:
// RightOrder[i] is the original pair index of the right item the user placed
// next to left item i.
type MatchingAnswer struct {
	RightOrder []int `json:"rightOrder"`
}

// ClassifyAnswer maps each item ID to the category the user placed it in.
type ClassifyAnswer struct {
	Placements map[int]string `json:"placements"`
}

func (ChoiceAnswer) answerPayload()   {}
func (BoolAnswer) answerPayload()     {}
func (BlanksAnswer) answerPayload()   {}
func (MatchingAnswer) answerPayload() {}
func (ClassifyAnswer) answerPayload() {}

// Player identifies who is playing a session.
type Player struct {
	Initials string `json:"initials"`
	Avatar   string `json:"avatar"`
}

// AnswerRecord is the immutable log entry written once per answered question.
type AnswerRecord struct {
	QuestionID string        `json:"questionId"`
	Answer     AnswerPayload `json:"answer"`
	IsCorrect  bool          `json:"isCorrect"`
	Timestamp  time.Time     `json:"timestamp"`
}

// Score is derived from the answer log, never stored independently.
type Score struct {
	Correct    int `json:"correct"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
	Stars      int `json:"stars"`
}

// GameResult is the finished-session summary handed to the ranking store.
type GameResult struct {
	Initials  string `json:"initials"`
	Avatar    string `json:"avatar"`
	Score     int    `json:"score"`
	Correct   int    `json:"correct"`
	Total     int    `json:"total"`
	Stars     int    `json:"stars"`
	MaxStreak int    `json:"maxStreak"`
}

// RankingEntry is one persisted leaderboard record. The JSON field names are
// the storage contract; changing them breaks previously saved leaderboards.
type RankingEntry struct {
	ID        string    `json:"id"`
	TopicID   string    `json:"topicId"`
	Initials  string    `json:"initials"`
	Avatar    string    `json:"avatar"`
	Score     int       `json:"score"`
	Correct   int       `json:"correct"`
	Total     int       `json:"total"`
	Stars     int       `json:"stars"`
	MaxStreak int       `json:"maxStreak"`
	Date      time.Time `json:"date"`
}

// TopicStats aggregates a topic's leaderboard.
type TopicStats struct {
	TotalPlays    int `json:"totalPlays"`
	AverageScore  int `json:"averageScore"`
	HighestScore  int `json:"highestScore"`
	UniquePlayers int `json:"uniquePlayers"`
}
