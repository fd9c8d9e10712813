package models

import (
	"time"

	"github.com/google/uuid"
)

// RegistrationStatus is the state of an event registration.
type RegistrationStatus string

const (
	RegistrationStatusRegistered RegistrationStatus = "registered"
	RegistrationStatusCancelled  RegistrationStatus = "cancelled"
)

// Event is a single event on a calendar. CalendarID is the scope the demerit
// policy switch applies to.
type Event struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CalendarID  uuid.UUID `json:"calendar_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	CoverURL    string    `json:"cover_url,omitempty"`

	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`

	// Capacity 0 means unlimited.
	Capacity  int       `json:"capacity"`
	CreatedBy uuid.UUID `json:"created_by"`
}

// Registration ties a user to an event.
type Registration struct {
	ID        uuid.UUID          `json:"id"`
	EventID   uuid.UUID          `json:"event_id"`
	UserID    uuid.UUID          `json:"user_id"`
	Status    RegistrationStatus `json:"status"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// CheckIn records attendance at an event.
type CheckIn struct {
	ID          uuid.UUID `json:"id"`
	EventID     uuid.UUID `json:"event_id"`
	UserID      uuid.UUID `json:"user_id"`
	CheckedInBy string    `json:"checked_in_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
