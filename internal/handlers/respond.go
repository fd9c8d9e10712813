package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/evently-hq/evently-backend/internal/apperr"
)

// apiResponse is the envelope every endpoint answers with.
type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, resp apiResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

func respondData(w http.ResponseWriter, status int, data interface{}) {
	respondJSON(w, status, apiResponse{Success: true, Data: data})
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, apiResponse{Success: status < 400, Message: message})
}

// respondError translates service errors into the envelope. Typed errors keep
// their message; anything else becomes a generic 500 so internals don't leak.
func respondError(w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "Something went wrong. Please try again."
	}
	respondJSON(w, status, apiResponse{Success: false, Message: message})
}
