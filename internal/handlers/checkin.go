package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/evently-hq/evently-backend/internal/database"
	"github.com/evently-hq/evently-backend/internal/models"
	"github.com/evently-hq/evently-backend/internal/services"
)

// CheckInRequest represents the request to check a guest in.
type CheckInRequest struct {
	EventID     string `json:"eventId"`
	UserID      string `json:"userId"`
	CheckedInBy string `json:"checkedInBy,omitempty"`
}

// MarkNoShowsRequest represents the admin request to issue no-show demerits
// after an event has ended.
type MarkNoShowsRequest struct {
	EventID  string `json:"eventId"`
	IssuedBy string `json:"issuedBy"`
}

// CheckInUser handles POST /api/checkin. The check-in is broadcast to the
// live feed for dashboards.
func CheckInUser(w http.ResponseWriter, r *http.Request) {
	var req CheckInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	eventID, err := uuid.Parse(req.EventID)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid eventId")
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid userId")
		return
	}

	event, err := eventByID(eventID)
	if err != nil {
		respondMessage(w, http.StatusInternalServerError, "Failed to fetch event")
		return
	}
	if event == nil {
		respondMessage(w, http.StatusNotFound, "Event not found")
		return
	}

	var regStatus string
	err = database.PostgresDB.QueryRow(`
		SELECT status FROM event_registrations WHERE event_id = $1 AND user_id = $2
	`, eventID, userID).Scan(&regStatus)
	if err != nil && err != sql.ErrNoRows {
		respondMessage(w, http.StatusInternalServerError, "Failed to check registration")
		return
	}
	if err == sql.ErrNoRows || regStatus != string(models.RegistrationStatusRegistered) {
		respondMessage(w, http.StatusConflict, "User is not registered for this event")
		return
	}

	now := time.Now().UTC()
	result, err := database.PostgresDB.Exec(`
		INSERT INTO event_checkins (id, event_id, user_id, checked_in_by, created_at)
		VALUES (gen_random_uuid(), $1, $2, $3, $4)
		ON CONFLICT (event_id, user_id) DO NOTHING
	`, eventID, userID, req.CheckedInBy, now)
	if err != nil {
		respondMessage(w, http.StatusInternalServerError, "Failed to check in")
		return
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		respondMessage(w, http.StatusConflict, "User is already checked in")
		return
	}

	// Feed is best effort; the check-in itself is already recorded.
	_ = services.PublishCheckInEvent(r.Context(), services.CheckInEvent{
		Type:      "check_in",
		EventID:   eventID.String(),
		UserID:    userID.String(),
		CheckedBy: req.CheckedInBy,
		Timestamp: now,
	})

	respondJSON(w, http.StatusCreated, apiResponse{Success: true, Message: "Checked in"})
}

// GetCheckIns handles GET /api/checkin?eventId=.
func GetCheckIns(w http.ResponseWriter, r *http.Request) {
	eventID, err := uuid.Parse(r.URL.Query().Get("eventId"))
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid eventId")
		return
	}

	rows, err := database.PostgresDB.Query(`
		SELECT id, event_id, user_id, COALESCE(checked_in_by, ''), created_at
		FROM event_checkins
		WHERE event_id = $1
		ORDER BY created_at
	`, eventID)
	if err != nil {
		respondMessage(w, http.StatusInternalServerError, "Failed to fetch check-ins")
		return
	}
	defer rows.Close()

	checkins := []models.CheckIn{}
	for rows.Next() {
		var c models.CheckIn
		if err := rows.Scan(&c.ID, &c.EventID, &c.UserID, &c.CheckedInBy, &c.CreatedAt); err != nil {
			respondMessage(w, http.StatusInternalServerError, "Failed to fetch check-ins")
			return
		}
		checkins = append(checkins, c)
	}

	respondData(w, http.StatusOK, map[string]interface{}{
		"checkins": checkins,
		"total":    len(checkins),
	})
}

// MarkNoShows handles POST /api/checkin/no-shows. After the event ends, every
// registered user without a check-in gets a no_show demerit, provided the
// calendar has the demerit system enabled. Safe to repeat: users already
// holding a no_show demerit for the event are skipped.
func MarkNoShows(w http.ResponseWriter, r *http.Request) {
	var req MarkNoShowsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	eventID, err := uuid.Parse(req.EventID)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid eventId")
		return
	}
	if req.IssuedBy == "" {
		respondMessage(w, http.StatusBadRequest, "issuedBy is required")
		return
	}

	event, err := eventByID(eventID)
	if err != nil {
		respondMessage(w, http.StatusInternalServerError, "Failed to fetch event")
		return
	}
	if event == nil {
		respondMessage(w, http.StatusNotFound, "Event not found")
		return
	}
	if time.Now().Before(event.EndsAt) {
		respondMessage(w, http.StatusConflict, "Event has not ended yet")
		return
	}

	enabled, err := demeritService.IsDemeritSystemEnabled(r.Context(), event.CalendarID)
	if err != nil {
		respondError(w, err)
		return
	}
	if !enabled {
		respondMessage(w, http.StatusConflict, "Demerit system is not enabled for this calendar")
		return
	}

	rows, err := database.PostgresDB.Query(`
		SELECT r.user_id
		FROM event_registrations r
		LEFT JOIN event_checkins c ON c.event_id = r.event_id AND c.user_id = r.user_id
		WHERE r.event_id = $1 AND r.status = 'registered' AND c.id IS NULL
	`, eventID)
	if err != nil {
		respondMessage(w, http.StatusInternalServerError, "Failed to find no-shows")
		return
	}
	defer rows.Close()

	noShows := []uuid.UUID{}
	for rows.Next() {
		var userID uuid.UUID
		if err := rows.Scan(&userID); err != nil {
			respondMessage(w, http.StatusInternalServerError, "Failed to find no-shows")
			return
		}
		noShows = append(noShows, userID)
	}

	issued := []string{}
	for _, userID := range noShows {
		already, err := demeritService.HasDemeritForEvent(r.Context(), userID, eventID, models.ReasonNoShow)
		if err != nil {
			respondError(w, err)
			return
		}
		if already {
			continue
		}

		_, err = demeritService.AddDemerit(r.Context(), services.AddDemeritParams{
			UserID:      userID,
			Reason:      models.ReasonNoShow,
			EventID:     &eventID,
			Description: "Did not attend \"" + event.Name + "\"",
			CreatedBy:   req.IssuedBy,
		})
		if err != nil {
			respondError(w, err)
			return
		}
		issued = append(issued, userID.String())
	}

	respondData(w, http.StatusOK, map[string]interface{}{
		"issued":  len(issued),
		"userIds": issued,
	})
}
