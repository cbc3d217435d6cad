package quiz

import (
	"testing"

	"github.com/cris-imc/invitaciones-sub001/internal/models"
)

func TestScore(t *testing.T) {
	questions := []models.TriviaQuestion{
		{Question: "q1", Options: []string{"a", "b"}, CorrectOption: 0},
		{Question: "q2", Options: []string{"a", "b", "c"}, CorrectOption: 2},
		{Question: "q3", Options: []string{"a", "b"}, CorrectOption: 1},
	}

	tests := []struct {
		name    string
		answers []int
		want    int
	}{
		{"all correct", []int{0, 2, 1}, 3},
		{"all wrong", []int{1, 0, 0}, 0},
		{"partial", []int{0, 0, 1}, 2},
		{"missing answers count as wrong", []int{0}, 1},
		{"extra answers ignored", []int{0, 2, 1, 0, 0}, 3},
		{"empty", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(questions, tt.answers); got != tt.want {
				t.Errorf("Score(%v) = %d, want %d", tt.answers, got, tt.want)
			}
		})
	}
}
