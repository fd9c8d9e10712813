package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/evently-hq/evently-backend/internal/models"
)

// DemeritStore is the persistence boundary for the demerit ledger, appeals,
// and the per-calendar policy switch. The Postgres implementation backs the
// server; the memory implementation backs tests.
type DemeritStore interface {
	InsertDemerit(ctx context.Context, d *models.Demerit) error
	DemeritByID(ctx context.Context, id uuid.UUID) (*models.Demerit, error)
	// DemeritsByUser returns all records for the user, any status, in append order.
	DemeritsByUser(ctx context.Context, userID uuid.UUID) ([]models.Demerit, error)
	ActiveDemeritsByUser(ctx context.Context, userID uuid.UUID) ([]models.Demerit, error)
	// ActiveDemeritsBefore returns active records created strictly before cutoff.
	ActiveDemeritsBefore(ctx context.Context, cutoff time.Time) ([]models.Demerit, error)
	UpdateDemerit(ctx context.Context, d *models.Demerit) error

	InsertAppeal(ctx context.Context, a *models.Appeal) error
	AppealByID(ctx context.Context, id uuid.UUID) (*models.Appeal, error)
	AppealsByUser(ctx context.Context, userID uuid.UUID) ([]models.Appeal, error)
	PendingAppeals(ctx context.Context) ([]models.Appeal, error)
	UpdateAppeal(ctx context.Context, a *models.Appeal) error

	UpsertSettings(ctx context.Context, s models.DemeritSettings) error
	// SettingsByCalendar returns nil (no error) when the calendar has no row.
	SettingsByCalendar(ctx context.Context, calendarID uuid.UUID) (*models.DemeritSettings, error)
}
