package models

import (
	"time"

	"github.com/google/uuid"
)

// GuestType distinguishes single invitees from family entries.
type GuestType string

const (
	GuestIndividual GuestType = "INDIVIDUAL"
	GuestFamily     GuestType = "FAMILY"
)

// GuestStatus is the RSVP state of a guest.
type GuestStatus string

const (
	GuestPending   GuestStatus = "PENDING"
	GuestConfirmed GuestStatus = "CONFIRMED"
	GuestDeclined  GuestStatus = "DECLINED"
)

// Guest is an invitee entry. Token is the unguessable bearer credential used
// to build the personalized invitation URL. AttendingCount is 0 unless
// Status is CONFIRMED; for FAMILY guests it never exceeds ExpectedCount.
type Guest struct {
	ID             uuid.UUID   `json:"id"`
	InvitationID   uuid.UUID   `json:"invitationId"`
	Name           string      `json:"nombre"`
	Type           GuestType   `json:"tipo"`
	ExpectedCount  int         `json:"cupoMaximo"`
	Token          string      `json:"token"`
	Status         GuestStatus `json:"estado"`
	AttendingCount int         `json:"asistentes"`
	Message        string      `json:"mensaje,omitempty"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}
