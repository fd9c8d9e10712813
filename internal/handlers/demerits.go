package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/evently-hq/evently-backend/internal/models"
	"github.com/evently-hq/evently-backend/internal/services"
)

var demeritService *services.DemeritService

// InitDemeritSystem wires the demerit service into the handler package.
func InitDemeritSystem(svc *services.DemeritService) {
	demeritService = svc
}

// PostDemeritsRequest is the action-dispatch body for POST /api/demerits.
type PostDemeritsRequest struct {
	Action string `json:"action"`

	// action: "configure"
	CalendarID      string `json:"calendarId,omitempty"`
	Enabled         bool   `json:"enabled,omitempty"`
	PointsThreshold int    `json:"pointsThreshold,omitempty"`

	// action: "issue"
	UserID      string `json:"userId,omitempty"`
	Reason      string `json:"reason,omitempty"`
	Points      int    `json:"points,omitempty"`
	EventID     string `json:"eventId,omitempty"`
	Description string `json:"description,omitempty"`
	IssuedBy    string `json:"issuedBy,omitempty"`
}

// GetDemerits handles GET /api/demerits?userId=... and ?calendarId=...
func GetDemerits(w http.ResponseWriter, r *http.Request) {
	if userParam := r.URL.Query().Get("userId"); userParam != "" {
		userID, err := uuid.Parse(userParam)
		if err != nil {
			respondMessage(w, http.StatusBadRequest, "Invalid userId")
			return
		}

		demerits, err := demeritService.UserDemerits(r.Context(), userID)
		if err != nil {
			respondError(w, err)
			return
		}
		totalPoints, err := demeritService.UserTotalPoints(r.Context(), userID)
		if err != nil {
			respondError(w, err)
			return
		}

		respondData(w, http.StatusOK, map[string]interface{}{
			"demerits":    demerits,
			"totalPoints": totalPoints,
		})
		return
	}

	if calParam := r.URL.Query().Get("calendarId"); calParam != "" {
		calendarID, err := uuid.Parse(calParam)
		if err != nil {
			respondMessage(w, http.StatusBadRequest, "Invalid calendarId")
			return
		}

		settings, err := demeritService.GetDemeritSettings(r.Context(), calendarID)
		if err != nil {
			respondError(w, err)
			return
		}

		respondData(w, http.StatusOK, map[string]interface{}{
			"settings": settings,
		})
		return
	}

	respondMessage(w, http.StatusBadRequest, "userId or calendarId is required")
}

// PostDemerits handles POST /api/demerits with action "configure" or "issue".
func PostDemerits(w http.ResponseWriter, r *http.Request) {
	var req PostDemeritsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	switch req.Action {
	case "configure":
		calendarID, err := uuid.Parse(req.CalendarID)
		if err != nil {
			respondMessage(w, http.StatusBadRequest, "Invalid calendarId")
			return
		}
		settings, err := demeritService.SetDemeritSystemEnabled(r.Context(), calendarID, req.Enabled, req.PointsThreshold)
		if err != nil {
			respondError(w, err)
			return
		}
		respondData(w, http.StatusOK, map[string]interface{}{
			"settings": settings,
		})

	case "issue":
		userID, err := uuid.Parse(req.UserID)
		if err != nil {
			respondMessage(w, http.StatusBadRequest, "Invalid userId")
			return
		}
		var eventID *uuid.UUID
		if req.EventID != "" {
			id, err := uuid.Parse(req.EventID)
			if err != nil {
				respondMessage(w, http.StatusBadRequest, "Invalid eventId")
				return
			}
			eventID = &id
		}

		demerit, err := demeritService.AddDemerit(r.Context(), services.AddDemeritParams{
			UserID:      userID,
			Reason:      models.DemeritReason(req.Reason),
			Points:      req.Points,
			EventID:     eventID,
			Description: req.Description,
			CreatedBy:   req.IssuedBy,
		})
		if err != nil {
			respondError(w, err)
			return
		}
		respondData(w, http.StatusCreated, map[string]interface{}{
			"demerit": demerit,
		})

	default:
		respondMessage(w, http.StatusBadRequest, "Unknown action")
	}
}

// SweepExpiredDemerits handles POST /api/demerits/sweep. Meant to be hit by
// an external scheduler (cron); the service does no scheduling of its own.
func SweepExpiredDemerits(w http.ResponseWriter, r *http.Request) {
	expired, err := demeritService.ClearExpiredDemerits(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, map[string]interface{}{
		"expired": expired,
	})
}

// GetRestrictions handles GET /api/demerits/restrictions?userId=...
// Returns the last computed snapshot, or null if the user has never been
// through a recompute.
func GetRestrictions(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.URL.Query().Get("userId"))
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid userId")
		return
	}

	snapshot := demeritService.Restrictions().GetUserRestrictions(r.Context(), userID)
	respondData(w, http.StatusOK, map[string]interface{}{
		"restrictions": snapshot,
	})
}

// GetDemeritAudit handles GET /api/admin/demerits/audit?userId=&limit=
func GetDemeritAudit(w http.ResponseWriter, r *http.Request) {
	var limit int64
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		parsed, err := strconv.ParseInt(limitParam, 10, 64)
		if err != nil || parsed < 0 {
			respondMessage(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = parsed
	}

	entries, err := services.GetDemeritAudit(r.Context(), r.URL.Query().Get("userId"), limit)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
	})
}
