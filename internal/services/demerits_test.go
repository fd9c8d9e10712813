package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evently-hq/evently-backend/internal/apperr"
	"github.com/evently-hq/evently-backend/internal/models"
	"github.com/evently-hq/evently-backend/internal/store"
)

func newTestService() (*DemeritService, *store.MemoryStore) {
	st := store.NewMemoryStore()
	restrictions := NewRestrictionService(st)
	return NewDemeritService(st, restrictions), st
}

func issue(t *testing.T, svc *DemeritService, userID uuid.UUID, reason models.DemeritReason, points int) *models.Demerit {
	t.Helper()
	d, err := svc.AddDemerit(context.Background(), AddDemeritParams{
		UserID:    userID,
		Reason:    reason,
		Points:    points,
		CreatedBy: "admin-1",
	})
	require.NoError(t, err)
	return d
}

func TestAddDemeritValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	tests := []struct {
		name   string
		params AddDemeritParams
	}{
		{"missing user", AddDemeritParams{Reason: models.ReasonSpam, Points: 5, CreatedBy: "admin-1"}},
		{"missing reason", AddDemeritParams{UserID: uuid.New(), Points: 5, CreatedBy: "admin-1"}},
		{"missing createdBy", AddDemeritParams{UserID: uuid.New(), Reason: models.ReasonSpam, Points: 5}},
		{"negative points", AddDemeritParams{UserID: uuid.New(), Reason: models.ReasonSpam, Points: -3, CreatedBy: "admin-1"}},
		{"zero points, unknown reason", AddDemeritParams{UserID: uuid.New(), Reason: "made_up", CreatedBy: "admin-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddDemerit(ctx, tt.params)
			assert.True(t, apperr.IsKind(err, apperr.KindValidation), "want validation error, got %v", err)
		})
	}
}

func TestAddDemeritDefaultsPointsFromCatalog(t *testing.T) {
	svc, _ := newTestService()
	userID := uuid.New()

	d, err := svc.AddDemerit(context.Background(), AddDemeritParams{
		UserID:    userID,
		Reason:    models.ReasonNoShow,
		CreatedBy: "admin-1",
	})
	require.NoError(t, err)
	assert.Equal(t, 10, d.Points)
	assert.Equal(t, models.DemeritStatusActive, d.Status)
	assert.Nil(t, d.AppealID)
}

func TestUserTotalPointsSumsActiveOnly(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	userID := uuid.New()

	issue(t, svc, userID, models.ReasonNoShow, 10)
	d := issue(t, svc, userID, models.ReasonSpam, 15)
	issue(t, svc, uuid.New(), models.ReasonViolation, 25) // someone else

	total, err := svc.UserTotalPoints(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 25, total)

	// Appealing one pulls its points out of the total.
	_, err = svc.SubmitAppeal(ctx, d.ID, userID, "wrongly issued", "")
	require.NoError(t, err)

	total, err = svc.UserTotalPoints(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 10, total)
}

// Repeated no-show marking for the same event must not double-charge a user.
func TestHasDemeritForEvent(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	userID := uuid.New()
	eventID := uuid.New()

	_, err := svc.AddDemerit(ctx, AddDemeritParams{
		UserID:    userID,
		Reason:    models.ReasonNoShow,
		EventID:   &eventID,
		CreatedBy: "admin-1",
	})
	require.NoError(t, err)

	already, err := svc.HasDemeritForEvent(ctx, userID, eventID, models.ReasonNoShow)
	require.NoError(t, err)
	assert.True(t, already)

	// Different event, different reason, different user: no match.
	already, err = svc.HasDemeritForEvent(ctx, userID, uuid.New(), models.ReasonNoShow)
	require.NoError(t, err)
	assert.False(t, already)

	already, err = svc.HasDemeritForEvent(ctx, userID, eventID, models.ReasonLateCancellation)
	require.NoError(t, err)
	assert.False(t, already)

	already, err = svc.HasDemeritForEvent(ctx, uuid.New(), eventID, models.ReasonNoShow)
	require.NoError(t, err)
	assert.False(t, already)

	// Status changes do not reopen the guard: an overturned no_show still
	// counts as already adjudicated for this event.
	d, err := svc.AddDemerit(ctx, AddDemeritParams{
		UserID:    userID,
		Reason:    models.ReasonNoShow,
		EventID:   &eventID,
		CreatedBy: "admin-1",
	})
	require.NoError(t, err)
	appeal, err := svc.SubmitAppeal(ctx, d.ID, userID, "was present", "")
	require.NoError(t, err)
	_, err = svc.ReviewAppeal(ctx, appeal.ID, models.AppealStatusApproved, "admin-2", "")
	require.NoError(t, err)

	already, err = svc.HasDemeritForEvent(ctx, userID, eventID, models.ReasonNoShow)
	require.NoError(t, err)
	assert.True(t, already)
}

func TestSubmitAppealGuards(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	owner := uuid.New()
	d := issue(t, svc, owner, models.ReasonInappropriateBehavior, 20)

	_, err := svc.SubmitAppeal(ctx, d.ID, owner, "", "")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = svc.SubmitAppeal(ctx, uuid.New(), owner, "reason", "")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	_, err = svc.SubmitAppeal(ctx, d.ID, uuid.New(), "reason", "")
	assert.True(t, apperr.IsKind(err, apperr.KindAuthorization))

	// First appeal succeeds, second is blocked while the first is open.
	_, err = svc.SubmitAppeal(ctx, d.ID, owner, "reason", "details")
	require.NoError(t, err)
	_, err = svc.SubmitAppeal(ctx, d.ID, owner, "reason again", "")
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidState))
}

func TestAppealIsSingleShotAfterRejection(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	owner := uuid.New()
	d := issue(t, svc, owner, models.ReasonViolation, 25)

	appeal, err := svc.SubmitAppeal(ctx, d.ID, owner, "dispute", "")
	require.NoError(t, err)

	_, err = svc.ReviewAppeal(ctx, appeal.ID, models.AppealStatusRejected, "admin-2", "no grounds")
	require.NoError(t, err)

	// Rejection puts the demerit back to active, but the appeal reference
	// stays and blocks a second attempt.
	got, err := svc.DemeritByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DemeritStatusActive, got.Status)
	require.NotNil(t, got.AppealID)
	assert.Equal(t, appeal.ID, *got.AppealID)

	_, err = svc.SubmitAppeal(ctx, d.ID, owner, "try again", "")
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidState))

	// Points count again after the rejection.
	total, err := svc.UserTotalPoints(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 25, total)
}

func TestApprovedAppealOverturnsPermanently(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	owner := uuid.New()
	d := issue(t, svc, owner, models.ReasonInappropriateBehavior, 20)
	issue(t, svc, owner, models.ReasonNoShow, 10)

	appeal, err := svc.SubmitAppeal(ctx, d.ID, owner, "mistaken identity", "")
	require.NoError(t, err)

	reviewed, err := svc.ReviewAppeal(ctx, appeal.ID, models.AppealStatusApproved, "admin-2", "confirmed")
	require.NoError(t, err)
	assert.Equal(t, models.AppealStatusApproved, reviewed.Status)
	assert.Equal(t, "admin-2", reviewed.ReviewedBy)
	require.NotNil(t, reviewed.ReviewedAt)

	got, err := svc.DemeritByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DemeritStatusOverturned, got.Status)

	total, err := svc.UserTotalPoints(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 10, total)

	// Overturned records survive the expiry sweep untouched.
	_, err = svc.ClearExpiredDemerits(ctx)
	require.NoError(t, err)
	got, err = svc.DemeritByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DemeritStatusOverturned, got.Status)
}

func TestReviewAppealGuards(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	owner := uuid.New()
	d := issue(t, svc, owner, models.ReasonSpam, 15)
	appeal, err := svc.SubmitAppeal(ctx, d.ID, owner, "dispute", "")
	require.NoError(t, err)

	_, err = svc.ReviewAppeal(ctx, appeal.ID, "maybe", "admin-2", "")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = svc.ReviewAppeal(ctx, appeal.ID, models.AppealStatusApproved, "", "")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = svc.ReviewAppeal(ctx, uuid.New(), models.AppealStatusApproved, "admin-2", "")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	_, err = svc.ReviewAppeal(ctx, appeal.ID, models.AppealStatusApproved, "admin-2", "")
	require.NoError(t, err)

	// Already reviewed.
	_, err = svc.ReviewAppeal(ctx, appeal.ID, models.AppealStatusRejected, "admin-3", "")
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidState))
}

func TestClearExpiredDemerits(t *testing.T) {
	svc, st := newTestService()
	ctx := context.Background()
	userID := uuid.New()

	// One stale active record, one fresh, one stale but already overturned.
	stale := &models.Demerit{
		ID:        uuid.New(),
		CreatedAt: time.Now().UTC().Add(-400 * 24 * time.Hour),
		UserID:    userID,
		Reason:    models.ReasonNoShow,
		Points:    10,
		CreatedBy: "admin-1",
		Status:    models.DemeritStatusActive,
	}
	require.NoError(t, st.InsertDemerit(ctx, stale))

	overturned := &models.Demerit{
		ID:        uuid.New(),
		CreatedAt: time.Now().UTC().Add(-400 * 24 * time.Hour),
		UserID:    userID,
		Reason:    models.ReasonSpam,
		Points:    15,
		CreatedBy: "admin-1",
		Status:    models.DemeritStatusOverturned,
	}
	require.NoError(t, st.InsertDemerit(ctx, overturned))

	fresh := issue(t, svc, userID, models.ReasonViolation, 25)

	expired, err := svc.ClearExpiredDemerits(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	got, err := svc.DemeritByID(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DemeritStatusExpired, got.Status)

	got, err = svc.DemeritByID(ctx, overturned.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DemeritStatusOverturned, got.Status)

	got, err = svc.DemeritByID(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DemeritStatusActive, got.Status)

	total, err := svc.UserTotalPoints(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 25, total)

	// Idempotent: nothing left to expire.
	expired, err = svc.ClearExpiredDemerits(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, expired)
}

func TestDemeritSettingsDefaultsAndClamp(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	calendarID := uuid.New()

	// Unset calendar gets the disabled default.
	settings, err := svc.GetDemeritSettings(ctx, calendarID)
	require.NoError(t, err)
	assert.False(t, settings.Enabled)
	assert.Equal(t, models.DefaultPointsThreshold, settings.PointsThreshold)

	enabled, err := svc.IsDemeritSystemEnabled(ctx, calendarID)
	require.NoError(t, err)
	assert.False(t, enabled)

	// Zero threshold falls back to the default on configure.
	settings, err = svc.SetDemeritSystemEnabled(ctx, calendarID, true, 0)
	require.NoError(t, err)
	assert.True(t, settings.Enabled)
	assert.Equal(t, models.DefaultPointsThreshold, settings.PointsThreshold)

	enabled, err = svc.IsDemeritSystemEnabled(ctx, calendarID)
	require.NoError(t, err)
	assert.True(t, enabled)

	_, err = svc.SetDemeritSystemEnabled(ctx, calendarID, true, 1001)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = svc.SetDemeritSystemEnabled(ctx, calendarID, true, -5)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = svc.SetDemeritSystemEnabled(ctx, uuid.Nil, true, 50)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestPendingAndUserAppeals(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	owner := uuid.New()

	d1 := issue(t, svc, owner, models.ReasonNoShow, 10)
	d2 := issue(t, svc, owner, models.ReasonSpam, 15)

	a1, err := svc.SubmitAppeal(ctx, d1.ID, owner, "first", "")
	require.NoError(t, err)
	a2, err := svc.SubmitAppeal(ctx, d2.ID, owner, "second", "")
	require.NoError(t, err)

	pending, err := svc.PendingAppeals(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	_, err = svc.ReviewAppeal(ctx, a1.ID, models.AppealStatusRejected, "admin-2", "")
	require.NoError(t, err)

	pending, err = svc.PendingAppeals(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, a2.ID, pending[0].ID)

	all, err := svc.UserAppeals(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

// Walks a user through the escalation bands: a clean slate, then 10 points,
// then 50, then 80, checking the restriction snapshot at each step.
func TestEscalationScenario(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	userID := uuid.New()

	assert.Nil(t, svc.Restrictions().GetUserRestrictions(ctx, userID))

	issue(t, svc, userID, models.ReasonNoShow, 10)
	snap := svc.Restrictions().GetUserRestrictions(ctx, userID)
	require.NotNil(t, snap)
	assert.Equal(t, 10, snap.TotalPoints)
	assert.Empty(t, snap.Restrictions)

	issue(t, svc, userID, models.ReasonViolation, 40)
	snap = svc.Restrictions().GetUserRestrictions(ctx, userID)
	assert.Equal(t, 50, snap.TotalPoints)
	assert.True(t, snap.Has(models.RestrictionCannotRegisterEvents))
	assert.False(t, snap.Has(models.RestrictionCannotCreateEvents))

	d := issue(t, svc, userID, models.ReasonViolation, 30)
	snap = svc.Restrictions().GetUserRestrictions(ctx, userID)
	assert.Equal(t, 80, snap.TotalPoints)
	assert.True(t, snap.Has(models.RestrictionCannotRegisterEvents))
	assert.True(t, snap.Has(models.RestrictionCannotCreateEvents))
	assert.False(t, snap.Has(models.RestrictionAccountSuspended))

	// A successful appeal walks the user back below both bands.
	appeal, err := svc.SubmitAppeal(ctx, d.ID, userID, "dispute", "")
	require.NoError(t, err)
	_, err = svc.ReviewAppeal(ctx, appeal.ID, models.AppealStatusApproved, "admin-2", "")
	require.NoError(t, err)

	snap = svc.Restrictions().GetUserRestrictions(ctx, userID)
	assert.Equal(t, 50, snap.TotalPoints)
	assert.True(t, snap.Has(models.RestrictionCannotRegisterEvents))
	assert.False(t, snap.Has(models.RestrictionCannotCreateEvents))
}
