package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DemeritAuditAction names a ledger or appeal mutation in the audit trail.
type DemeritAuditAction string

const (
	AuditDemeritIssued   DemeritAuditAction = "demerit_issued"
	AuditDemeritExpired  DemeritAuditAction = "demerit_expired"
	AuditAppealSubmitted DemeritAuditAction = "appeal_submitted"
	AuditAppealApproved  DemeritAuditAction = "appeal_approved"
	AuditAppealRejected  DemeritAuditAction = "appeal_rejected"
)

// DemeritAuditEntry is one audit-trail document (Mongo "demerit_audit").
type DemeritAuditEntry struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`

	Action    DemeritAuditAction `bson:"action" json:"action"`
	DemeritID string             `bson:"demerit_id" json:"demerit_id"`
	AppealID  string             `bson:"appeal_id,omitempty" json:"appeal_id,omitempty"`
	UserID    string             `bson:"user_id" json:"user_id"`
	Actor     string             `bson:"actor,omitempty" json:"actor,omitempty"`
	Points    int                `bson:"points,omitempty" json:"points,omitempty"`
	Details   string             `bson:"details,omitempty" json:"details,omitempty"`
}
