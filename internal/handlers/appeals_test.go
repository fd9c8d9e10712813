package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evently-hq/evently-backend/internal/models"
	"github.com/evently-hq/evently-backend/internal/services"
)

func issueForAppeal(t *testing.T, svc *services.DemeritService, userID uuid.UUID) *models.Demerit {
	t.Helper()
	d, err := svc.AddDemerit(context.Background(), services.AddDemeritParams{
		UserID:    userID,
		Reason:    models.ReasonInappropriateBehavior,
		CreatedBy: "admin-1",
	})
	require.NoError(t, err)
	return d
}

func TestPostAppealsSubmitAndReview(t *testing.T) {
	svc := setupDemeritHandlers(t)
	userID := uuid.New()
	demerit := issueForAppeal(t, svc, userID)

	rec, env := doJSON(t, PostAppeals, http.MethodPost, "/api/demerits/appeals", map[string]interface{}{
		"action":    "submit",
		"demeritId": demerit.ID.String(),
		"userId":    userID.String(),
		"reason":    "I was there",
	})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, env.Success)
	appeal, ok := env.Data["appeal"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "pending", appeal["status"])
	appealID := appeal["id"].(string)

	rec, env = doJSON(t, PostAppeals, http.MethodPost, "/api/demerits/appeals", map[string]interface{}{
		"action":      "review",
		"appealId":    appealID,
		"status":      "approved",
		"reviewedBy":  "admin-2",
		"reviewNotes": "confirmed attendance",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	reviewed, ok := env.Data["appeal"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "approved", reviewed["status"])
	assert.Equal(t, "admin-2", reviewed["reviewed_by"])

	got, err := svc.DemeritByID(context.Background(), demerit.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DemeritStatusOverturned, got.Status)
}

func TestPostAppealsSubmitWrongOwner(t *testing.T) {
	svc := setupDemeritHandlers(t)
	demerit := issueForAppeal(t, svc, uuid.New())

	rec, env := doJSON(t, PostAppeals, http.MethodPost, "/api/demerits/appeals", map[string]interface{}{
		"action":    "submit",
		"demeritId": demerit.ID.String(),
		"userId":    uuid.New().String(),
		"reason":    "not mine",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, env.Success)
}

func TestPostAppealsDoubleSubmitConflicts(t *testing.T) {
	svc := setupDemeritHandlers(t)
	userID := uuid.New()
	demerit := issueForAppeal(t, svc, userID)

	body := map[string]interface{}{
		"action":    "submit",
		"demeritId": demerit.ID.String(),
		"userId":    userID.String(),
		"reason":    "dispute",
	}
	rec, _ := doJSON(t, PostAppeals, http.MethodPost, "/api/demerits/appeals", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, env := doJSON(t, PostAppeals, http.MethodPost, "/api/demerits/appeals", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.False(t, env.Success)
}

func TestPostAppealsReviewMissingAppeal(t *testing.T) {
	setupDemeritHandlers(t)

	rec, env := doJSON(t, PostAppeals, http.MethodPost, "/api/demerits/appeals", map[string]interface{}{
		"action":     "review",
		"appealId":   uuid.New().String(),
		"status":     "approved",
		"reviewedBy": "admin-2",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, env.Success)
}

func TestGetAppealsPendingJoinsDemerit(t *testing.T) {
	svc := setupDemeritHandlers(t)
	userID := uuid.New()
	demerit := issueForAppeal(t, svc, userID)
	_, err := svc.SubmitAppeal(context.Background(), demerit.ID, userID, "dispute", "")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/demerits/appeals?pending=true", nil)
	rec := httptest.NewRecorder()
	GetAppeals(rec, req)

	var env envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	assert.Equal(t, http.StatusOK, rec.Code)
	items, ok := env.Data["appeals"].([]interface{})
	require.True(t, ok)
	require.Len(t, items, 1)

	item := items[0].(map[string]interface{})
	require.Contains(t, item, "appeal")
	require.Contains(t, item, "demerit")
	joined := item["demerit"].(map[string]interface{})
	assert.Equal(t, demerit.ID.String(), joined["id"])
	assert.Equal(t, "appealed", joined["status"])
}

func TestGetAppealsRequiresFilter(t *testing.T) {
	setupDemeritHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/demerits/appeals", nil)
	rec := httptest.NewRecorder()
	GetAppeals(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
