package models

import (
	"time"

	"github.com/google/uuid"
)

// DemeritStatus is the lifecycle state of a demerit record.
type DemeritStatus string

const (
	DemeritStatusActive     DemeritStatus = "active"
	DemeritStatusAppealed   DemeritStatus = "appealed"
	DemeritStatusOverturned DemeritStatus = "overturned"
	DemeritStatusExpired    DemeritStatus = "expired"
)

// AppealStatus is the lifecycle state of an appeal.
type AppealStatus string

const (
	AppealStatusPending     AppealStatus = "pending"
	AppealStatusUnderReview AppealStatus = "under_review"
	AppealStatusApproved    AppealStatus = "approved"
	AppealStatusRejected    AppealStatus = "rejected"
)

// RestrictionKind is a named capability removed from a user.
type RestrictionKind string

const (
	RestrictionCannotRegisterEvents RestrictionKind = "cannot_register_events"
	RestrictionCannotCreateEvents   RestrictionKind = "cannot_create_events"
	RestrictionAccountSuspended     RestrictionKind = "account_suspended"
)

// DemeritReason is a key into the reason catalog.
type DemeritReason string

const (
	ReasonNoShow                DemeritReason = "no_show"
	ReasonLateCancellation      DemeritReason = "late_cancellation"
	ReasonInappropriateBehavior DemeritReason = "inappropriate_behavior"
	ReasonSpam                  DemeritReason = "spam"
	ReasonViolation             DemeritReason = "violation"
)

// ReasonPoints maps each catalog reason to its default point value.
var ReasonPoints = map[DemeritReason]int{
	ReasonNoShow:                10,
	ReasonLateCancellation:      5,
	ReasonInappropriateBehavior: 20,
	ReasonSpam:                  15,
	ReasonViolation:             25,
}

// Demerit is a point penalty attached to a user, optionally tied to an event.
// Records are never deleted; the expiry sweep transitions old active records
// to expired.
type Demerit struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	UserID  uuid.UUID  `json:"user_id"`
	EventID *uuid.UUID `json:"event_id,omitempty"`

	Reason      DemeritReason `json:"reason"`
	Points      int           `json:"points"`
	Description string        `json:"description,omitempty"`
	CreatedBy   string        `json:"created_by"`

	Status   DemeritStatus `json:"status"`
	AppealID *uuid.UUID    `json:"appeal_id,omitempty"`
}

// Appeal is a user-initiated contestation of exactly one demerit.
type Appeal struct {
	ID          uuid.UUID `json:"id"`
	DemeritID   uuid.UUID `json:"demerit_id"`
	UserID      uuid.UUID `json:"user_id"`
	Reason      string    `json:"reason"`
	Description string    `json:"description,omitempty"`

	Status      AppealStatus `json:"status"`
	SubmittedAt time.Time    `json:"submitted_at"`
	ReviewedAt  *time.Time   `json:"reviewed_at,omitempty"`
	ReviewedBy  string       `json:"reviewed_by,omitempty"`
	ReviewNotes string       `json:"review_notes,omitempty"`
}

// UserRestriction is the derived, cached restriction snapshot for a user.
// RestrictedUntil is part of the shape but is never populated.
type UserRestriction struct {
	UserID          uuid.UUID         `json:"user_id"`
	TotalPoints     int               `json:"total_points"`
	Restrictions    []RestrictionKind `json:"restrictions"`
	RestrictedUntil *time.Time        `json:"restricted_until,omitempty"`
	Notifications   []string          `json:"notifications"`
	ComputedAt      time.Time         `json:"computed_at"`
}

// Has reports whether the snapshot carries the given restriction.
func (r *UserRestriction) Has(kind RestrictionKind) bool {
	if r == nil {
		return false
	}
	for _, k := range r.Restrictions {
		if k == kind {
			return true
		}
	}
	return false
}

// DemeritSettings is the per-calendar policy switch. PointsThreshold is a
// stored display hint for dashboards; the restriction bands are fixed.
type DemeritSettings struct {
	CalendarID      uuid.UUID `json:"calendar_id"`
	Enabled         bool      `json:"enabled"`
	PointsThreshold int       `json:"points_threshold"`
}

// DefaultPointsThreshold is used when a calendar has no settings row.
const DefaultPointsThreshold = 50
