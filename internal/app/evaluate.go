package app

import (
	"fmt"
	"strings"
	"unicode"

	"geohis-quiz-service/internal/domain"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// evaluatorFunc checks a finished raw answer against its question.
type evaluatorFunc func(q domain.Question, raw domain.AnswerPayload) (bool, error)

var evaluators = map[domain.QuestionType]evaluatorFunc{
	domain.MultipleChoice: evaluateMultipleChoice,
	domain.TrueFalse:      evaluateTrueFalse,
	domain.FillBlanks:     evaluateFillBlanks,
	domain.Matching:       evaluateMatching,
	domain.Classify:       evaluateClassify,
}

// Evaluate routes by question type to the matching evaluator and returns the
// correctness verdict. It never mutates the question or the payload.
func Evaluate(q domain.Question, raw domain.AnswerPayload) (bool, error) {
	eval, ok := evaluators[q.Type]
	if !ok {
		return false, fmt.Errorf("%w: %q", domain.ErrUnknownQuestionType, q.Type)
	}
	return eval(q, raw)
}

func evaluateMultipleChoice(q domain.Question, raw domain.AnswerPayload) (bool, error) {
	answer, ok := raw.(domain.ChoiceAnswer)
	if !ok {
		return false, fmt.Errorf("%w: multipleChoice expects a selected index", domain.ErrAnswerMismatch)
	}
	if len(q.Options) == 0 || q.CorrectOption < 0 || q.CorrectOption >= len(q.Options) {
		return false, fmt.Errorf("%w: question %s has no valid correct option", domain.ErrMalformedQuestion, q.ID)
	}
	return answer.SelectedIndex == q.CorrectOption, nil
}

func evaluateTrueFalse(q domain.Question, raw domain.AnswerPayload) (bool, error) {
	answer, ok := raw.(domain.BoolAnswer)
	if !ok {
		return false, fmt.Errorf("%w: trueFalse expects a boolean", domain.ErrAnswerMismatch)
	}
	return answer.Selected == q.Answer, nil
}

func evaluateFillBlanks(q domain.Question, raw domain.AnswerPayload) (bool, error) {
	answer, ok := raw.(domain.BlanksAnswer)
	if !ok {
		return false, fmt.Errorf("%w: fillBlanks expects one input per blank", domain.ErrAnswerMismatch)
	}
	if len(q.Blanks) == 0 {
		return false, fmt.Errorf("%w: question %s has no blanks", domain.ErrMalformedQuestion, q.ID)
	}
	if len(answer.Inputs) != len(q.Blanks) {
		return false, fmt.Errorf("%w: question %s expects %d blanks, got %d inputs",
			domain.ErrMalformedQuestion, q.ID, len(q.Blanks), len(answer.Inputs))
	}
	for _, input := range answer.Inputs {
		if strings.TrimSpace(input) == "" {
			return false, fmt.Errorf("%w: all blanks must be filled", domain.ErrIncompleteAnswer)
		}
	}
	for i, input := range answer.Inputs {
		variants := q.Blanks[i]
		if len(variants) == 0 {
			return false, fmt.Errorf("%w: question %s blank %d has no accepted variants",
				domain.ErrMalformedQuestion, q.ID, i)
		}
		if !matchesAnyVariant(input, variants) {
			return false, nil
		}
	}
	return true, nil
}

func matchesAnyVariant(input string, variants []string) bool {
	normalized := normalizeBlank(input)
	for _, variant := range variants {
		if normalized == normalizeBlank(variant) {
			return true
		}
	}
	return false
}

func normalizeBlank(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	// Decompose to NFD, drop combining marks, recompose, so "méseta" and
	// "meseta" compare equal. The chain holds per-call buffer state and must
	// be built per call; Evaluate runs concurrently across connections.
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(stripMarks, s)
	if err != nil {
		return s
	}
	return stripped
}

func evaluateMatching(q domain.Question, raw domain.AnswerPayload) (bool, error) {
	answer, ok := raw.(domain.MatchingAnswer)
	if !ok {
		return false, fmt.Errorf("%w: matching expects a right-column ordering", domain.ErrAnswerMismatch)
	}
	if len(q.Pairs) == 0 {
		return false, fmt.Errorf("%w: question %s has no pairs", domain.ErrMalformedQuestion, q.ID)
	}
	if len(answer.RightOrder) != len(q.Pairs) {
		return false, fmt.Errorf("%w: question %s expects %d right items, got %d",
			domain.ErrAnswerMismatch, q.ID, len(q.Pairs), len(answer.RightOrder))
	}
	seen := make(map[int]bool, len(answer.RightOrder))
	for _, original := range answer.RightOrder {
		if original < 0 || original >= len(q.Pairs) || seen[original] {
			return false, fmt.Errorf("%w: right-column ordering is not a permutation", domain.ErrAnswerMismatch)
		}
		seen[original] = true
	}
	// Left order is fixed; the user is correct only when every right item sits
	// back at its original pairing position.
	for position, original := range answer.RightOrder {
		if original != position {
			return false, nil
		}
	}
	return true, nil
}

func evaluateClassify(q domain.Question, raw domain.AnswerPayload) (bool, error) {
	answer, ok := raw.(domain.ClassifyAnswer)
	if !ok {
		return false, fmt.Errorf("%w: classify expects item placements", domain.ErrAnswerMismatch)
	}
	if len(q.Items) == 0 || len(q.Categories) == 0 {
		return false, fmt.Errorf("%w: question %s has no items or categories", domain.ErrMalformedQuestion, q.ID)
	}
	known := make(map[string]bool, len(q.Categories))
	for _, category := range q.Categories {
		known[category] = true
	}
	itemIDs := make(map[int]bool, len(q.Items))
	for _, item := range q.Items {
		itemIDs[item.ID] = true
		if _, placed := answer.Placements[item.ID]; !placed {
			return false, fmt.Errorf("%w: every item must be placed into a category", domain.ErrIncompleteAnswer)
		}
	}
	for id, category := range answer.Placements {
		if !itemIDs[id] {
			return false, fmt.Errorf("%w: placement references unknown item %d", domain.ErrAnswerMismatch, id)
		}
		if !known[category] {
			return false, fmt.Errorf("%w: placement references unknown category %q", domain.ErrAnswerMismatch, category)
		}
	}
	// All-or-nothing: a single misplaced item fails the question.
	for _, item := range q.Items {
		if answer.Placements[item.ID] != item.Category {
			return false, nil
		}
	}
	return true, nil
}
