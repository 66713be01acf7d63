package app_test

import (
	"testing"

	"geohis-quiz-service/internal/app"
	"geohis-quiz-service/internal/domain"
)

func recordsWith(correct, incorrect int) []domain.AnswerRecord {
	var records []domain.AnswerRecord
	for i := 0; i < correct; i++ {
		records = append(records, domain.AnswerRecord{IsCorrect: true})
	}
	for i := 0; i < incorrect; i++ {
		records = append(records, domain.AnswerRecord{IsCorrect: false})
	}
	return records
}

func TestComputeScore(t *testing.T) {
	cases := []struct {
		name               string
		correct, incorrect int
		want               domain.Score
	}{
		{"empty log", 0, 0, domain.Score{}},
		{"perfect", 10, 0, domain.Score{Correct: 10, Total: 10, Percentage: 100, Stars: 3}},
		{"three stars at 90", 9, 1, domain.Score{Correct: 9, Total: 10, Percentage: 90, Stars: 3}},
		{"two stars at 70", 7, 3, domain.Score{Correct: 7, Total: 10, Percentage: 70, Stars: 2}},
		{"one star at 50", 5, 5, domain.Score{Correct: 5, Total: 10, Percentage: 50, Stars: 1}},
		{"no stars below 50", 4, 6, domain.Score{Correct: 4, Total: 10, Percentage: 40, Stars: 0}},
		{"rounds percentage", 2, 1, domain.Score{Correct: 2, Total: 3, Percentage: 67, Stars: 1}},
	}

	for _, tc := range cases {
		got := app.ComputeScore(recordsWith(tc.correct, tc.incorrect))
		if got != tc.want {
			t.Errorf("%s: expected %+v, got %+v", tc.name, tc.want, got)
		}
	}
}
