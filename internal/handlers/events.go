package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/evently-hq/evently-backend/internal/database"
	"github.com/evently-hq/evently-backend/internal/models"
	"github.com/evently-hq/evently-backend/internal/services"
)

// LateCancellationWindow is how close to the event start a cancellation
// counts as late and earns a demerit (when the calendar has the system on).
const LateCancellationWindow = 24 * time.Hour

// CreateEventRequest represents the request to create an event.
type CreateEventRequest struct {
	CalendarID  string    `json:"calendarId"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	CoverURL    string    `json:"coverUrl,omitempty"`
	StartsAt    time.Time `json:"startsAt"`
	EndsAt      time.Time `json:"endsAt"`
	Capacity    int       `json:"capacity,omitempty"`
	CreatedBy   string    `json:"createdBy"`
}

// RegisterRequest represents the request to register a user for an event.
type RegisterRequest struct {
	EventID string `json:"eventId"`
	UserID  string `json:"userId"`
}

// CreateEvent handles POST /api/events.
func CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		respondMessage(w, http.StatusBadRequest, "Event name is required")
		return
	}
	calendarID, err := uuid.Parse(req.CalendarID)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid calendarId")
		return
	}
	createdBy, err := uuid.Parse(req.CreatedBy)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid createdBy")
		return
	}
	if req.StartsAt.IsZero() || req.EndsAt.IsZero() || !req.EndsAt.After(req.StartsAt) {
		respondMessage(w, http.StatusBadRequest, "Event must end after it starts")
		return
	}
	if req.Capacity < 0 {
		respondMessage(w, http.StatusBadRequest, "Capacity cannot be negative")
		return
	}

	// Demerit restrictions gate event creation.
	restrictions := demeritService.Restrictions()
	if restrictions.HasRestriction(r.Context(), createdBy, models.RestrictionAccountSuspended) {
		respondMessage(w, http.StatusForbidden, "Your account is suspended")
		return
	}
	if restrictions.HasRestriction(r.Context(), createdBy, models.RestrictionCannotCreateEvents) {
		respondMessage(w, http.StatusForbidden, "You are not allowed to create events due to demerit points")
		return
	}

	eventID := uuid.New()
	now := time.Now().UTC()

	_, err = database.PostgresDB.Exec(`
		INSERT INTO events (id, created_at, updated_at, calendar_id, name, description, location, cover_url, starts_at, ends_at, capacity, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, eventID, now, now, calendarID, req.Name, req.Description, req.Location, req.CoverURL, req.StartsAt.UTC(), req.EndsAt.UTC(), req.Capacity, createdBy)
	if err != nil {
		respondMessage(w, http.StatusInternalServerError, "Failed to create event")
		return
	}

	respondData(w, http.StatusCreated, map[string]interface{}{
		"event": map[string]interface{}{
			"id":          eventID.String(),
			"calendar_id": calendarID.String(),
			"name":        req.Name,
			"description": req.Description,
			"location":    req.Location,
			"cover_url":   req.CoverURL,
			"starts_at":   req.StartsAt.UTC(),
			"ends_at":     req.EndsAt.UTC(),
			"capacity":    req.Capacity,
			"created_by":  createdBy.String(),
			"created_at":  now,
		},
	})
}

const eventColumns = `id, created_at, updated_at, calendar_id, name, description, location, cover_url, starts_at, ends_at, capacity, created_by`

func scanEvent(row interface{ Scan(...interface{}) error }) (*models.Event, error) {
	var e models.Event
	var description, location, coverURL sql.NullString
	err := row.Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt, &e.CalendarID, &e.Name, &description, &location, &coverURL, &e.StartsAt, &e.EndsAt, &e.Capacity, &e.CreatedBy)
	if err != nil {
		return nil, err
	}
	e.Description = description.String
	e.Location = location.String
	e.CoverURL = coverURL.String
	return &e, nil
}

func eventByID(id uuid.UUID) (*models.Event, error) {
	row := database.PostgresDB.QueryRow(`SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	event, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return event, err
}

// GetEvents handles GET /api/events, with optional ?id= or ?calendarId=.
func GetEvents(w http.ResponseWriter, r *http.Request) {
	if idParam := r.URL.Query().Get("id"); idParam != "" {
		eventID, err := uuid.Parse(idParam)
		if err != nil {
			respondMessage(w, http.StatusBadRequest, "Invalid event id")
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
		respondData(w, http.StatusOK, map[string]interface{}{"event": event})
		return
	}

	query := `SELECT ` + eventColumns + ` FROM events ORDER BY starts_at`
	args := []interface{}{}
	if calParam := r.URL.Query().Get("calendarId"); calParam != "" {
		calendarID, err := uuid.Parse(calParam)
		if err != nil {
			respondMessage(w, http.StatusBadRequest, "Invalid calendarId")
			return
		}
		query = `SELECT ` + eventColumns + ` FROM events WHERE calendar_id = $1 ORDER BY starts_at`
		args = append(args, calendarID)
	}

	rows, err := database.PostgresDB.Query(query, args...)
	if err != nil {
		respondMessage(w, http.StatusInternalServerError, "Failed to fetch events")
		return
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			respondMessage(w, http.StatusInternalServerError, "Failed to fetch events")
			return
		}
		events = append(events, *event)
	}

	respondData(w, http.StatusOK, map[string]interface{}{
		"events": events,
		"total":  len(events),
	})
}

// RegisterForEvent handles POST /api/events/register.
func RegisterForEvent(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
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
	if time.Now().After(event.StartsAt) {
		respondMessage(w, http.StatusConflict, "Registration is closed for this event")
		return
	}

	// Demerit restrictions gate registration.
	restrictions := demeritService.Restrictions()
	if restrictions.HasRestriction(r.Context(), userID, models.RestrictionAccountSuspended) {
		respondMessage(w, http.StatusForbidden, "Your account is suspended")
		return
	}
	if restrictions.HasRestriction(r.Context(), userID, models.RestrictionCannotRegisterEvents) {
		respondMessage(w, http.StatusForbidden, "You are not allowed to register for events due to demerit points")
		return
	}

	if event.Capacity > 0 {
		var registered int
		err := database.PostgresDB.QueryRow(`
			SELECT COUNT(*) FROM event_registrations WHERE event_id = $1 AND status = 'registered'
		`, eventID).Scan(&registered)
		if err != nil {
			respondMessage(w, http.StatusInternalServerError, "Failed to check capacity")
			return
		}
		if registered >= event.Capacity {
			respondMessage(w, http.StatusConflict, "This event is full")
			return
		}
	}

	now := time.Now().UTC()
	_, err = database.PostgresDB.Exec(`
		INSERT INTO event_registrations (id, event_id, user_id, status, created_at, updated_at)
		VALUES (gen_random_uuid(), $1, $2, 'registered', $3, $3)
		ON CONFLICT (event_id, user_id)
		DO UPDATE SET status = 'registered', updated_at = $3
	`, eventID, userID, now)
	if err != nil {
		respondMessage(w, http.StatusInternalServerError, "Failed to register for event")
		return
	}

	respondJSON(w, http.StatusCreated, apiResponse{Success: true, Message: "Registered for event"})
}

// CancelRegistration handles DELETE /api/events/register?eventId=&userId=.
// Cancelling inside the late window earns a late_cancellation demerit when
// the calendar's demerit system is enabled.
func CancelRegistration(w http.ResponseWriter, r *http.Request) {
	eventID, err := uuid.Parse(r.URL.Query().Get("eventId"))
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid eventId")
		return
	}
	userID, err := uuid.Parse(r.URL.Query().Get("userId"))
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

	result, err := database.PostgresDB.Exec(`
		UPDATE event_registrations
		SET status = 'cancelled', updated_at = NOW()
		WHERE event_id = $1 AND user_id = $2 AND status = 'registered'
	`, eventID, userID)
	if err != nil {
		respondMessage(w, http.StatusInternalServerError, "Failed to cancel registration")
		return
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		respondMessage(w, http.StatusNotFound, "No active registration found")
		return
	}

	lateCancellation := false
	until := time.Until(event.StartsAt)
	if until > 0 && until < LateCancellationWindow {
		enabled, err := demeritService.IsDemeritSystemEnabled(r.Context(), event.CalendarID)
		if err == nil && enabled {
			_, err := demeritService.AddDemerit(r.Context(), services.AddDemeritParams{
				UserID:      userID,
				Reason:      models.ReasonLateCancellation,
				EventID:     &eventID,
				Description: "Cancelled registration for \"" + event.Name + "\" less than 24 hours before start",
				CreatedBy:   "system:registration",
			})
			lateCancellation = err == nil
		}
	}

	respondData(w, http.StatusOK, map[string]interface{}{
		"cancelled":        true,
		"lateCancellation": lateCancellation,
	})
}

// GetRegistrations handles GET /api/events/registrations?eventId=.
func GetRegistrations(w http.ResponseWriter, r *http.Request) {
	eventID, err := uuid.Parse(r.URL.Query().Get("eventId"))
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid eventId")
		return
	}

	rows, err := database.PostgresDB.Query(`
		SELECT id, event_id, user_id, status, created_at, updated_at
		FROM event_registrations
		WHERE event_id = $1
		ORDER BY created_at
	`, eventID)
	if err != nil {
		respondMessage(w, http.StatusInternalServerError, "Failed to fetch registrations")
		return
	}
	defer rows.Close()

	registrations := []models.Registration{}
	for rows.Next() {
		var reg models.Registration
		if err := rows.Scan(&reg.ID, &reg.EventID, &reg.UserID, &reg.Status, &reg.CreatedAt, &reg.UpdatedAt); err != nil {
			respondMessage(w, http.StatusInternalServerError, "Failed to fetch registrations")
			return
		}
		registrations = append(registrations, reg)
	}

	respondData(w, http.StatusOK, map[string]interface{}{
		"registrations": registrations,
		"total":         len(registrations),
	})
}
