package models

import (
	"time"

	"github.com/google/uuid"
)

// Album is the collaborative photo container owned 1:1 by an invitation.
type Album struct {
	ID             uuid.UUID `json:"id"`
	InvitationID   uuid.UUID `json:"invitationId"`
	UploadsEnabled bool      `json:"permitirSubida"`
	Moderation     bool      `json:"moderacion"` // require approval before public display
	CreatedAt      time.Time `json:"createdAt"`
}

// Photo is an image uploaded to an album. Approved gates public visibility
// only; the object is stored regardless.
type Photo struct {
	ID         uuid.UUID `json:"id"`
	AlbumID    uuid.UUID `json:"albumId"`
	URL        string    `json:"url"`
	UploadedBy string    `json:"subidaPor"`
	Approved   bool      `json:"aprobada"`
	CreatedAt  time.Time `json:"createdAt"`
}
