package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evently-hq/evently-backend/internal/models"
)

func TestMemoryStoreDemeritLifecycle(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	userID := uuid.New()

	missing, err := st.DemeritByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)

	d1 := &models.Demerit{
		ID:        uuid.New(),
		CreatedAt: time.Now().UTC().Add(-2 * time.Hour),
		UserID:    userID,
		Reason:    models.ReasonNoShow,
		Points:    10,
		CreatedBy: "admin-1",
		Status:    models.DemeritStatusActive,
	}
	d2 := &models.Demerit{
		ID:        uuid.New(),
		CreatedAt: time.Now().UTC().Add(-time.Hour),
		UserID:    userID,
		Reason:    models.ReasonSpam,
		Points:    15,
		CreatedBy: "admin-1",
		Status:    models.DemeritStatusActive,
	}
	require.NoError(t, st.InsertDemerit(ctx, d1))
	require.NoError(t, st.InsertDemerit(ctx, d2))

	// Append order is preserved.
	all, err := st.DemeritsByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, d1.ID, all[0].ID)
	assert.Equal(t, d2.ID, all[1].ID)

	// Mutating the returned copy must not touch stored state.
	all[0].Status = models.DemeritStatusExpired
	got, err := st.DemeritByID(ctx, d1.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DemeritStatusActive, got.Status)

	d1.Status = models.DemeritStatusOverturned
	require.NoError(t, st.UpdateDemerit(ctx, d1))

	active, err := st.ActiveDemeritsByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, d2.ID, active[0].ID)
}

func TestMemoryStoreActiveDemeritsBefore(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	cutoff := time.Now().UTC().Add(-365 * 24 * time.Hour)

	old := &models.Demerit{
		ID:        uuid.New(),
		CreatedAt: cutoff.Add(-time.Hour),
		UserID:    uuid.New(),
		Reason:    models.ReasonViolation,
		Points:    25,
		CreatedBy: "admin-1",
		Status:    models.DemeritStatusActive,
	}
	oldAppealed := &models.Demerit{
		ID:        uuid.New(),
		CreatedAt: cutoff.Add(-time.Hour),
		UserID:    uuid.New(),
		Reason:    models.ReasonViolation,
		Points:    25,
		CreatedBy: "admin-1",
		Status:    models.DemeritStatusAppealed,
	}
	recent := &models.Demerit{
		ID:        uuid.New(),
		CreatedAt: cutoff.Add(time.Hour),
		UserID:    uuid.New(),
		Reason:    models.ReasonViolation,
		Points:    25,
		CreatedBy: "admin-1",
		Status:    models.DemeritStatusActive,
	}
	require.NoError(t, st.InsertDemerit(ctx, old))
	require.NoError(t, st.InsertDemerit(ctx, oldAppealed))
	require.NoError(t, st.InsertDemerit(ctx, recent))

	stale, err := st.ActiveDemeritsBefore(ctx, cutoff)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, old.ID, stale[0].ID)
}

func TestMemoryStoreAppeals(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	userID := uuid.New()

	a1 := &models.Appeal{
		ID:          uuid.New(),
		DemeritID:   uuid.New(),
		UserID:      userID,
		Reason:      "first",
		Status:      models.AppealStatusPending,
		SubmittedAt: time.Now().UTC(),
	}
	a2 := &models.Appeal{
		ID:          uuid.New(),
		DemeritID:   uuid.New(),
		UserID:      userID,
		Reason:      "second",
		Status:      models.AppealStatusUnderReview,
		SubmittedAt: time.Now().UTC(),
	}
	a3 := &models.Appeal{
		ID:          uuid.New(),
		DemeritID:   uuid.New(),
		UserID:      uuid.New(),
		Reason:      "third",
		Status:      models.AppealStatusRejected,
		SubmittedAt: time.Now().UTC(),
	}
	for _, a := range []*models.Appeal{a1, a2, a3} {
		require.NoError(t, st.InsertAppeal(ctx, a))
	}

	// pending covers both pending and under_review.
	pending, err := st.PendingAppeals(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	byUser, err := st.AppealsByUser(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, byUser, 2)

	a1.Status = models.AppealStatusApproved
	require.NoError(t, st.UpdateAppeal(ctx, a1))
	pending, err = st.PendingAppeals(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, a2.ID, pending[0].ID)
}

func TestMemoryStoreSettings(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	calendarID := uuid.New()

	none, err := st.SettingsByCalendar(ctx, calendarID)
	require.NoError(t, err)
	assert.Nil(t, none)

	require.NoError(t, st.UpsertSettings(ctx, models.DemeritSettings{
		CalendarID:      calendarID,
		Enabled:         true,
		PointsThreshold: 60,
	}))
	require.NoError(t, st.UpsertSettings(ctx, models.DemeritSettings{
		CalendarID:      calendarID,
		Enabled:         false,
		PointsThreshold: 80,
	}))

	got, err := st.SettingsByCalendar(ctx, calendarID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.Enabled)
	assert.Equal(t, 80, got.PointsThreshold)
}
