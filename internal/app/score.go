package app

import (
	"math"

	"geohis-quiz-service/internal/domain"
)

// ComputeScore derives the final score from the answer log. It is recomputed
// on demand and never cached.
func ComputeScore(answers []domain.AnswerRecord) domain.Score {
	correct := 0
	for _, record := range answers {
		if record.IsCorrect {
			correct++
		}
	}
	total := len(answers)

	percentage := 0
	if total > 0 {
		percentage = int(math.Round(100 * float64(correct) / float64(total)))
	}

	stars := 0
	switch {
	case percentage >= 90:
		stars = 3
	case percentage >= 70:
		stars = 2
	case percentage >= 50:
		stars = 1
	}

	return domain.Score{
		Correct:    correct,
		Total:      total,
		Percentage: percentage,
		Stars:      stars,
	}
}
