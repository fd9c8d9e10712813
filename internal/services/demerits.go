package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/evently-hq/evently-backend/internal/apperr"
	"github.com/evently-hq/evently-backend/internal/models"
	"github.com/evently-hq/evently-backend/internal/store"
)

const (
	// DemeritMaxAge is how long an active demerit counts before the sweep
	// transitions it to expired.
	DemeritMaxAge = 365 * 24 * time.Hour

	// Threshold clamp for the per-calendar setting.
	MinPointsThreshold = 0
	MaxPointsThreshold = 1000
)

// AddDemeritParams carries the inputs for issuing a demerit.
type AddDemeritParams struct {
	UserID      uuid.UUID
	Reason      models.DemeritReason
	Points      int
	EventID     *uuid.UUID
	Description string
	CreatedBy   string
}

// DemeritService owns the demerit ledger, the appeal workflow, and the
// per-calendar policy switch. Every mutation that changes a user's
// active-point total recomputes their restriction snapshot.
type DemeritService struct {
	store        store.DemeritStore
	restrictions *RestrictionService
}

// NewDemeritService returns a DemeritService over the given store and
// restriction evaluator.
func NewDemeritService(st store.DemeritStore, restrictions *RestrictionService) *DemeritService {
	return &DemeritService{store: st, restrictions: restrictions}
}

// Restrictions exposes the evaluator for callers that enforce restrictions.
func (s *DemeritService) Restrictions() *RestrictionService {
	return s.restrictions
}

// AddDemerit appends a demerit with status active and recomputes the user's
// restrictions. Points must be positive; a zero Points falls back to the
// reason catalog's default when the reason is a known key.
func (s *DemeritService) AddDemerit(ctx context.Context, p AddDemeritParams) (*models.Demerit, error) {
	if p.UserID == uuid.Nil {
		return nil, apperr.Validationf("userId is required")
	}
	if p.Reason == "" {
		return nil, apperr.Validationf("reason is required")
	}
	if p.CreatedBy == "" {
		return nil, apperr.Validationf("createdBy is required")
	}
	if p.Points == 0 {
		p.Points = models.ReasonPoints[p.Reason]
	}
	if p.Points <= 0 {
		return nil, apperr.Validationf("points must be a positive integer")
	}

	demerit := &models.Demerit{
		ID:          uuid.New(),
		CreatedAt:   time.Now().UTC(),
		UserID:      p.UserID,
		EventID:     p.EventID,
		Reason:      p.Reason,
		Points:      p.Points,
		Description: p.Description,
		CreatedBy:   p.CreatedBy,
		Status:      models.DemeritStatusActive,
	}

	if err := s.store.InsertDemerit(ctx, demerit); err != nil {
		return nil, err
	}

	if _, err := s.restrictions.Recompute(ctx, p.UserID); err != nil {
		return nil, err
	}

	RecordDemeritAudit(models.DemeritAuditEntry{
		Action:    models.AuditDemeritIssued,
		DemeritID: demerit.ID.String(),
		UserID:    demerit.UserID.String(),
		Actor:     demerit.CreatedBy,
		Points:    demerit.Points,
		Details:   string(demerit.Reason),
	})

	return demerit, nil
}

// HasDemeritForEvent reports whether the user already carries a demerit with
// the given reason for the event, in any status. Callers that issue demerits
// per event (no-show marking) use it to stay idempotent across repeats.
func (s *DemeritService) HasDemeritForEvent(ctx context.Context, userID, eventID uuid.UUID, reason models.DemeritReason) (bool, error) {
	demerits, err := s.store.DemeritsByUser(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, d := range demerits {
		if d.Reason == reason && d.EventID != nil && *d.EventID == eventID {
			return true, nil
		}
	}
	return false, nil
}

// UserDemerits returns all records for the user, any status, in append order.
func (s *DemeritService) UserDemerits(ctx context.Context, userID uuid.UUID) ([]models.Demerit, error) {
	return s.store.DemeritsByUser(ctx, userID)
}

// ActiveDemerits returns the user's demerits currently in active status.
func (s *DemeritService) ActiveDemerits(ctx context.Context, userID uuid.UUID) ([]models.Demerit, error) {
	return s.store.ActiveDemeritsByUser(ctx, userID)
}

// UserTotalPoints sums points over the user's active demerits.
func (s *DemeritService) UserTotalPoints(ctx context.Context, userID uuid.UUID) (int, error) {
	active, err := s.store.ActiveDemeritsByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, d := range active {
		total += d.Points
	}
	return total, nil
}

// ClearExpiredDemerits transitions active demerits strictly older than one
// year to expired and recomputes restrictions for each affected user. It
// returns the number of records expired. Scheduling is the caller's job.
func (s *DemeritService) ClearExpiredDemerits(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-DemeritMaxAge)
	stale, err := s.store.ActiveDemeritsBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	affected := make(map[uuid.UUID]struct{})
	for i := range stale {
		d := stale[i]
		d.Status = models.DemeritStatusExpired
		if err := s.store.UpdateDemerit(ctx, &d); err != nil {
			return 0, err
		}
		affected[d.UserID] = struct{}{}

		RecordDemeritAudit(models.DemeritAuditEntry{
			Action:    models.AuditDemeritExpired,
			DemeritID: d.ID.String(),
			UserID:    d.UserID.String(),
			Points:    d.Points,
		})
	}

	for userID := range affected {
		if _, err := s.restrictions.Recompute(ctx, userID); err != nil {
			return 0, err
		}
	}

	return len(stale), nil
}

// SubmitAppeal files an appeal against an active demerit. Appeals are
// single-shot: a demerit that already carries an appeal reference cannot be
// appealed again, even after a rejection returned it to active.
func (s *DemeritService) SubmitAppeal(ctx context.Context, demeritID, userID uuid.UUID, reason, description string) (*models.Appeal, error) {
	if reason == "" {
		return nil, apperr.Validationf("reason is required")
	}

	demerit, err := s.store.DemeritByID(ctx, demeritID)
	if err != nil {
		return nil, err
	}
	if demerit == nil {
		return nil, apperr.NotFoundf("demerit %s not found", demeritID)
	}
	if demerit.UserID != userID {
		return nil, apperr.Authorizationf("you can only appeal your own demerits")
	}
	if demerit.Status != models.DemeritStatusActive {
		return nil, apperr.InvalidStatef("demerit is %s and cannot be appealed", demerit.Status)
	}
	if demerit.AppealID != nil {
		return nil, apperr.InvalidStatef("demerit has already been appealed")
	}

	appeal := &models.Appeal{
		ID:          uuid.New(),
		DemeritID:   demerit.ID,
		UserID:      userID,
		Reason:      reason,
		Description: description,
		Status:      models.AppealStatusPending,
		SubmittedAt: time.Now().UTC(),
	}

	if err := s.store.InsertAppeal(ctx, appeal); err != nil {
		return nil, err
	}

	demerit.Status = models.DemeritStatusAppealed
	demerit.AppealID = &appeal.ID
	if err := s.store.UpdateDemerit(ctx, demerit); err != nil {
		return nil, err
	}

	// An appealed demerit no longer counts toward the total.
	if _, err := s.restrictions.Recompute(ctx, userID); err != nil {
		return nil, err
	}

	RecordDemeritAudit(models.DemeritAuditEntry{
		Action:    models.AuditAppealSubmitted,
		DemeritID: demerit.ID.String(),
		AppealID:  appeal.ID.String(),
		UserID:    userID.String(),
		Details:   reason,
	})

	return appeal, nil
}

// ReviewAppeal resolves a pending appeal. Approval overturns the demerit,
// permanently excluding its points; rejection returns it to active. Both
// outcomes recompute the owner's restrictions.
func (s *DemeritService) ReviewAppeal(ctx context.Context, appealID uuid.UUID, status models.AppealStatus, reviewedBy, reviewNotes string) (*models.Appeal, error) {
	if status != models.AppealStatusApproved && status != models.AppealStatusRejected {
		return nil, apperr.Validationf("review status must be approved or rejected")
	}
	if reviewedBy == "" {
		return nil, apperr.Validationf("reviewedBy is required")
	}

	appeal, err := s.store.AppealByID(ctx, appealID)
	if err != nil {
		return nil, err
	}
	if appeal == nil {
		return nil, apperr.NotFoundf("appeal %s not found", appealID)
	}
	if appeal.Status == models.AppealStatusApproved || appeal.Status == models.AppealStatusRejected {
		return nil, apperr.InvalidStatef("appeal has already been reviewed")
	}

	demerit, err := s.store.DemeritByID(ctx, appeal.DemeritID)
	if err != nil {
		return nil, err
	}
	if demerit == nil {
		return nil, apperr.NotFoundf("demerit %s not found", appeal.DemeritID)
	}

	now := time.Now().UTC()
	appeal.Status = status
	appeal.ReviewedAt = &now
	appeal.ReviewedBy = reviewedBy
	appeal.ReviewNotes = reviewNotes
	if err := s.store.UpdateAppeal(ctx, appeal); err != nil {
		return nil, err
	}

	auditAction := models.AuditAppealRejected
	if status == models.AppealStatusApproved {
		demerit.Status = models.DemeritStatusOverturned
		auditAction = models.AuditAppealApproved
	} else {
		// Points count again; the appeal reference stays as history, which is
		// what blocks a second appeal.
		demerit.Status = models.DemeritStatusActive
	}
	if err := s.store.UpdateDemerit(ctx, demerit); err != nil {
		return nil, err
	}

	if _, err := s.restrictions.Recompute(ctx, demerit.UserID); err != nil {
		return nil, err
	}

	RecordDemeritAudit(models.DemeritAuditEntry{
		Action:    auditAction,
		DemeritID: demerit.ID.String(),
		AppealID:  appeal.ID.String(),
		UserID:    demerit.UserID.String(),
		Actor:     reviewedBy,
		Details:   reviewNotes,
	})

	return appeal, nil
}

// PendingAppeals returns appeals awaiting review.
func (s *DemeritService) PendingAppeals(ctx context.Context) ([]models.Appeal, error) {
	return s.store.PendingAppeals(ctx)
}

// UserAppeals returns all appeals filed by the user.
func (s *DemeritService) UserAppeals(ctx context.Context, userID uuid.UUID) ([]models.Appeal, error) {
	return s.store.AppealsByUser(ctx, userID)
}

// AppealByID returns one appeal.
func (s *DemeritService) AppealByID(ctx context.Context, id uuid.UUID) (*models.Appeal, error) {
	appeal, err := s.store.AppealByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appeal == nil {
		return nil, apperr.NotFoundf("appeal %s not found", id)
	}
	return appeal, nil
}

// DemeritByID returns one demerit.
func (s *DemeritService) DemeritByID(ctx context.Context, id uuid.UUID) (*models.Demerit, error) {
	demerit, err := s.store.DemeritByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if demerit == nil {
		return nil, apperr.NotFoundf("demerit %s not found", id)
	}
	return demerit, nil
}

// SetDemeritSystemEnabled upserts the per-calendar policy switch. The
// threshold is clamped by rejection: values outside 0..1000 fail validation.
func (s *DemeritService) SetDemeritSystemEnabled(ctx context.Context, calendarID uuid.UUID, enabled bool, pointsThreshold int) (*models.DemeritSettings, error) {
	if calendarID == uuid.Nil {
		return nil, apperr.Validationf("calendarId is required")
	}
	if pointsThreshold == 0 {
		pointsThreshold = models.DefaultPointsThreshold
	}
	if pointsThreshold < MinPointsThreshold || pointsThreshold > MaxPointsThreshold {
		return nil, apperr.Validationf("pointsThreshold must be between %d and %d", MinPointsThreshold, MaxPointsThreshold)
	}

	settings := models.DemeritSettings{
		CalendarID:      calendarID,
		Enabled:         enabled,
		PointsThreshold: pointsThreshold,
	}
	if err := s.store.UpsertSettings(ctx, settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// GetDemeritSettings returns the calendar's settings, defaulting to
// {enabled:false, pointsThreshold:50} when unset.
func (s *DemeritService) GetDemeritSettings(ctx context.Context, calendarID uuid.UUID) (*models.DemeritSettings, error) {
	settings, err := s.store.SettingsByCalendar(ctx, calendarID)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		return &models.DemeritSettings{
			CalendarID:      calendarID,
			Enabled:         false,
			PointsThreshold: models.DefaultPointsThreshold,
		}, nil
	}
	return settings, nil
}

// IsDemeritSystemEnabled reports whether the calendar has the system on.
func (s *DemeritService) IsDemeritSystemEnabled(ctx context.Context, calendarID uuid.UUID) (bool, error) {
	settings, err := s.GetDemeritSettings(ctx, calendarID)
	if err != nil {
		return false, err
	}
	return settings.Enabled, nil
}
