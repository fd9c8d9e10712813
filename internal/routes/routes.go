package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/evently-hq/evently-backend/internal/handlers"
)

func SetupRoutes(r *chi.Mux) {
	// Demerit ledger and per-calendar settings
	r.Get("/api/demerits", handlers.GetDemerits)
	r.Post("/api/demerits", handlers.PostDemerits)
	r.Post("/api/demerits/sweep", handlers.SweepExpiredDemerits)
	r.Get("/api/demerits/restrictions", handlers.GetRestrictions)

	// Appeal workflow
	r.Get("/api/demerits/appeals", handlers.GetAppeals)
	r.Post("/api/demerits/appeals", handlers.PostAppeals)

	// Admin views
	r.Get("/api/admin/demerits/audit", handlers.GetDemeritAudit)

	// Events and registrations
	r.Post("/api/events", handlers.CreateEvent)
	r.Get("/api/events", handlers.GetEvents)
	r.Post("/api/events/register", handlers.RegisterForEvent)
	r.Delete("/api/events/register", handlers.CancelRegistration)
	r.Get("/api/events/registrations", handlers.GetRegistrations)

	// Check-in
	r.Post("/api/checkin", handlers.CheckInUser)
	r.Get("/api/checkin", handlers.GetCheckIns)
	r.Post("/api/checkin/no-shows", handlers.MarkNoShows)

	// File upload routes
	r.Post("/api/upload", handlers.UploadFile)

	// WebSocket endpoint for the live check-in feed (dashboard view)
	r.Get("/ws/checkins", handlers.CheckInFeed)
}
