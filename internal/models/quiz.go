package models

import (
	"time"

	"github.com/google/uuid"
)

// QuizResponse is one guest's completed trivia attempt. At most one exists
// per (invitation, guest token), or per (invitation, guest name) when the
// guest followed the general link without a token.
type QuizResponse struct {
	ID             uuid.UUID `json:"id"`
	InvitationID   uuid.UUID `json:"invitationId"`
	GuestName      string    `json:"guestName"`
	GuestToken     *string   `json:"guestToken,omitempty"`
	Answers        []int     `json:"answers"` // chosen option index per question
	Score          int       `json:"score"`
	TotalQuestions int       `json:"totalQuestions"`
	CreatedAt      time.Time `json:"createdAt"`
}

// QuizStats is the read-side aggregation over all responses of an invitation.
type QuizStats struct {
	TotalResponses    int `json:"totalResponses"`
	AveragePercentage int `json:"averagePercentage"`
}
