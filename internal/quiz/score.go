package quiz

import "github.com/cris-imc/invitaciones-sub001/internal/models"

// Score counts answers matching each question's designated correct option.
// Extra answers beyond the question list are ignored, missing ones count as
// wrong.
func Score(questions []models.TriviaQuestion, answers []int) int {
	score := 0
	for i, q := range questions {
		if i < len(answers) && answers[i] == q.CorrectOption {
			score++
		}
	}
	return score
}
