package models

import (
	"time"

	"github.com/google/uuid"
)

// InvitationType is the kind of event the microsite celebrates.
type InvitationType string

const (
	TypeBoda       InvitationType = "boda"
	TypeQuince     InvitationType = "quince"
	TypeCumple     InvitationType = "cumple"
	TypeBautizo    InvitationType = "bautizo"
	TypeBabyShower InvitationType = "babyshower"
)

// InvitationStatus is the lifecycle state of an invitation. Only ACTIVA
// invitations are publicly resolvable by slug.
type InvitationStatus string

const (
	StatusActiva   InvitationStatus = "ACTIVA"
	StatusBorrador InvitationStatus = "BORRADOR"
	StatusPausada  InvitationStatus = "PAUSADA"
)

// ThemeConfig is the color/typography configuration for a template skin.
// Stored serialized in the tema column; round-trip fidelity matters.
type ThemeConfig struct {
	Template       string `json:"plantilla"`
	PrimaryColor   string `json:"colorPrimario"`
	SecondaryColor string `json:"colorSecundario"`
	AccentColor    string `json:"colorAcento"`
	TitleFont      string `json:"fuenteTitulos"`
	BodyFont       string `json:"fuenteTexto"`
}

// TriviaQuestion is one multiple-choice question of the invitation's quiz.
type TriviaQuestion struct {
	Question      string   `json:"pregunta"`
	Options       []string `json:"opciones"`
	CorrectOption int      `json:"respuestaCorrecta"` // index into Options
}

// TimelineEntry is one row of the event schedule (cronograma).
type TimelineEntry struct {
	Time  string `json:"time"`
	Title string `json:"title"`
	Icon  string `json:"icon"`
}

// Invitation is one event microsite, the root aggregate. Album, guests and
// quiz responses are owned rows removed with it.
type Invitation struct {
	ID      uuid.UUID        `json:"id"`
	OwnerID uuid.UUID        `json:"-"`
	Slug    string           `json:"slug"`
	Type    InvitationType   `json:"tipo"`
	Status  InvitationStatus `json:"estado"`

	EventName      string    `json:"nombreEvento"`
	EventDate      time.Time `json:"fechaEvento"`
	Venue          string    `json:"lugar"`
	VenueAddress   string    `json:"direccion"`
	WelcomeMessage string    `json:"mensajeBienvenida"`
	CoverImageURL  string    `json:"portadaUrl"`

	DressCodeEnabled bool   `json:"dressCodeHabilitado"`
	DressCode        string `json:"dressCode"`

	MusicEnabled bool   `json:"musicaHabilitada"`
	MusicURL     string `json:"musicaUrl"`

	GiftEnabled bool   `json:"mesaRegalosHabilitada"`
	GiftMessage string `json:"mensajeRegalos"`
	BankInfo    string `json:"datosBancarios"`

	GalleryEnabled bool     `json:"galeriaHabilitada"`
	GalleryPhotos  []string `json:"galeria,omitempty"`

	TriviaEnabled bool             `json:"triviaHabilitada"`
	Trivia        []TriviaQuestion `json:"trivia,omitempty"`

	TimelineEnabled bool            `json:"cronogramaHabilitado"`
	Timeline        []TimelineEntry `json:"cronograma,omitempty"`

	Theme *ThemeConfig `json:"tema,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RSVPSummary aggregates guest responses for an invitation.
type RSVPSummary struct {
	Pending        int `json:"pendientes"`
	Confirmed      int `json:"confirmados"`
	Declined       int `json:"rechazados"`
	AttendingTotal int `json:"totalAsistentes"`
}
