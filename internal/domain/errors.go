package domain

import "errors"

var (
	// ErrBankNotFound indicates the topic's question bank could not be loaded.
	ErrBankNotFound = errors.New("question bank not found")
	// ErrEmptyBank is returned when a game is started from a bank with no questions.
	ErrEmptyBank = errors.New("question bank has no questions")
	// ErrInvalidTransition is returned for actions not legal in the current game state.
	ErrInvalidTransition = errors.New("action not valid in current game state")
	// ErrInitialsTooShort rejects player initials shorter than two characters.
	ErrInitialsTooShort = errors.New("player initials must have at least 2 characters")
	// ErrAvatarRequired rejects starting a game before an avatar is chosen.
	ErrAvatarRequired = errors.New("player avatar not chosen")
	// ErrIncompleteAnswer means the raw input is missing parts (unfilled blank,
	// unplaced item); evaluation is refused and no record is written.
	ErrIncompleteAnswer = errors.New("answer is incomplete")
	// ErrAnswerMismatch means the payload shape does not fit the question type.
	ErrAnswerMismatch = errors.New("answer payload does not match question type")
	// ErrMalformedQuestion flags a content-authoring bug; evaluation fails fast
	// rather than silently mis-scoring.
	ErrMalformedQuestion = errors.New("malformed question data")
	// ErrUnknownQuestionType means no evaluator is registered for the type.
	ErrUnknownQuestionType = errors.New("unknown question type")
	// ErrKeyNotFound is the key-value store's miss sentinel.
	ErrKeyNotFound = errors.New("key not found")
)
