package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/evently-hq/evently-backend/internal/models"
)

// PostAppealsRequest is the action-dispatch body for POST /api/demerits/appeals.
type PostAppealsRequest struct {
	Action string `json:"action"`

	// action: "submit"
	DemeritID   string `json:"demeritId,omitempty"`
	UserID      string `json:"userId,omitempty"`
	Reason      string `json:"reason,omitempty"`
	Description string `json:"description,omitempty"`

	// action: "review"
	AppealID    string `json:"appealId,omitempty"`
	Status      string `json:"status,omitempty"`
	ReviewedBy  string `json:"reviewedBy,omitempty"`
	ReviewNotes string `json:"reviewNotes,omitempty"`
}

// appealWithDemerit joins an appeal with its demerit for display.
func appealWithDemerit(ctx context.Context, appeal models.Appeal) map[string]interface{} {
	item := map[string]interface{}{
		"appeal": appeal,
	}
	if demerit, err := demeritService.DemeritByID(ctx, appeal.DemeritID); err == nil {
		item["demerit"] = demerit
	}
	return item
}

// GetAppeals handles GET /api/demerits/appeals?userId=... and ?pending=true
func GetAppeals(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("pending") == "true" {
		appeals, err := demeritService.PendingAppeals(r.Context())
		if err != nil {
			respondError(w, err)
			return
		}
		items := make([]map[string]interface{}, 0, len(appeals))
		for _, appeal := range appeals {
			items = append(items, appealWithDemerit(r.Context(), appeal))
		}
		respondData(w, http.StatusOK, map[string]interface{}{
			"appeals": items,
		})
		return
	}

	if userParam := r.URL.Query().Get("userId"); userParam != "" {
		userID, err := uuid.Parse(userParam)
		if err != nil {
			respondMessage(w, http.StatusBadRequest, "Invalid userId")
			return
		}
		appeals, err := demeritService.UserAppeals(r.Context(), userID)
		if err != nil {
			respondError(w, err)
			return
		}
		items := make([]map[string]interface{}, 0, len(appeals))
		for _, appeal := range appeals {
			items = append(items, appealWithDemerit(r.Context(), appeal))
		}
		respondData(w, http.StatusOK, map[string]interface{}{
			"appeals": items,
		})
		return
	}

	respondMessage(w, http.StatusBadRequest, "userId or pending=true is required")
}

// PostAppeals handles POST /api/demerits/appeals with action "submit" or "review".
func PostAppeals(w http.ResponseWriter, r *http.Request) {
	var req PostAppealsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	switch req.Action {
	case "submit":
		demeritID, err := uuid.Parse(req.DemeritID)
		if err != nil {
			respondMessage(w, http.StatusBadRequest, "Invalid demeritId")
			return
		}
		userID, err := uuid.Parse(req.UserID)
		if err != nil {
			respondMessage(w, http.StatusBadRequest, "Invalid userId")
			return
		}

		appeal, err := demeritService.SubmitAppeal(r.Context(), demeritID, userID, req.Reason, req.Description)
		if err != nil {
			respondError(w, err)
			return
		}
		respondData(w, http.StatusCreated, map[string]interface{}{
			"appeal": appeal,
		})

	case "review":
		appealID, err := uuid.Parse(req.AppealID)
		if err != nil {
			respondMessage(w, http.StatusBadRequest, "Invalid appealId")
			return
		}

		appeal, err := demeritService.ReviewAppeal(r.Context(), appealID, models.AppealStatus(req.Status), req.ReviewedBy, req.ReviewNotes)
		if err != nil {
			respondError(w, err)
			return
		}
		respondData(w, http.StatusOK, map[string]interface{}{
			"appeal": appeal,
		})

	default:
		respondMessage(w, http.StatusBadRequest, "Unknown action")
	}
}
