package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/evently-hq/evently-backend/internal/models"
)

// PostgresStore implements DemeritStore over the shared PostgreSQL handle.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an already-connected database handle.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const demeritColumns = `id, created_at, user_id, event_id, reason, points, description, created_by, status, appeal_id`

func scanDemerit(row interface{ Scan(...interface{}) error }) (*models.Demerit, error) {
	var d models.Demerit
	var eventID, appealID sql.NullString
	var description sql.NullString
	err := row.Scan(&d.ID, &d.CreatedAt, &d.UserID, &eventID, &d.Reason, &d.Points, &description, &d.CreatedBy, &d.Status, &appealID)
	if err != nil {
		return nil, err
	}
	if eventID.Valid {
		id, err := uuid.Parse(eventID.String)
		if err == nil {
			d.EventID = &id
		}
	}
	if appealID.Valid {
		id, err := uuid.Parse(appealID.String)
		if err == nil {
			d.AppealID = &id
		}
	}
	d.Description = description.String
	return &d, nil
}

func (s *PostgresStore) InsertDemerit(ctx context.Context, d *models.Demerit) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO demerits (id, created_at, user_id, event_id, reason, points, description, created_by, status, appeal_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, d.ID, d.CreatedAt, d.UserID, uuidOrNil(d.EventID), d.Reason, d.Points, d.Description, d.CreatedBy, d.Status, uuidOrNil(d.AppealID))
	return err
}

func (s *PostgresStore) DemeritByID(ctx context.Context, id uuid.UUID) (*models.Demerit, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+demeritColumns+` FROM demerits WHERE id = $1`, id)
	d, err := scanDemerit(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return d, err
}

func (s *PostgresStore) DemeritsByUser(ctx context.Context, userID uuid.UUID) ([]models.Demerit, error) {
	return s.queryDemerits(ctx, `SELECT `+demeritColumns+` FROM demerits WHERE user_id = $1 ORDER BY created_at, id`, userID)
}

func (s *PostgresStore) ActiveDemeritsByUser(ctx context.Context, userID uuid.UUID) ([]models.Demerit, error) {
	return s.queryDemerits(ctx, `
		SELECT `+demeritColumns+` FROM demerits
		WHERE user_id = $1 AND status = $2
		ORDER BY created_at, id
	`, userID, models.DemeritStatusActive)
}

func (s *PostgresStore) ActiveDemeritsBefore(ctx context.Context, cutoff time.Time) ([]models.Demerit, error) {
	return s.queryDemerits(ctx, `
		SELECT `+demeritColumns+` FROM demerits
		WHERE status = $1 AND created_at < $2
		ORDER BY created_at, id
	`, models.DemeritStatusActive, cutoff)
}

func (s *PostgresStore) queryDemerits(ctx context.Context, query string, args ...interface{}) ([]models.Demerit, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Demerit{}
	for rows.Next() {
		d, err := scanDemerit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdateDemerit(ctx context.Context, d *models.Demerit) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE demerits
		SET status = $2, appeal_id = $3, description = $4
		WHERE id = $1
	`, d.ID, d.Status, uuidOrNil(d.AppealID), d.Description)
	return err
}

const appealColumns = `id, demerit_id, user_id, reason, description, status, submitted_at, reviewed_at, reviewed_by, review_notes`

func scanAppeal(row interface{ Scan(...interface{}) error }) (*models.Appeal, error) {
	var a models.Appeal
	var reviewedAt sql.NullTime
	var reviewedBy, reviewNotes, description sql.NullString
	err := row.Scan(&a.ID, &a.DemeritID, &a.UserID, &a.Reason, &description, &a.Status, &a.SubmittedAt, &reviewedAt, &reviewedBy, &reviewNotes)
	if err != nil {
		return nil, err
	}
	if reviewedAt.Valid {
		t := reviewedAt.Time
		a.ReviewedAt = &t
	}
	a.ReviewedBy = reviewedBy.String
	a.ReviewNotes = reviewNotes.String
	a.Description = description.String
	return &a, nil
}

func (s *PostgresStore) InsertAppeal(ctx context.Context, a *models.Appeal) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO appeals (id, demerit_id, user_id, reason, description, status, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, a.ID, a.DemeritID, a.UserID, a.Reason, a.Description, a.Status, a.SubmittedAt)
	return err
}

func (s *PostgresStore) AppealByID(ctx context.Context, id uuid.UUID) (*models.Appeal, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+appealColumns+` FROM appeals WHERE id = $1`, id)
	a, err := scanAppeal(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return a, err
}

func (s *PostgresStore) AppealsByUser(ctx context.Context, userID uuid.UUID) ([]models.Appeal, error) {
	return s.queryAppeals(ctx, `SELECT `+appealColumns+` FROM appeals WHERE user_id = $1 ORDER BY submitted_at, id`, userID)
}

func (s *PostgresStore) PendingAppeals(ctx context.Context) ([]models.Appeal, error) {
	return s.queryAppeals(ctx, `
		SELECT `+appealColumns+` FROM appeals
		WHERE status IN ($1, $2)
		ORDER BY submitted_at, id
	`, models.AppealStatusPending, models.AppealStatusUnderReview)
}

func (s *PostgresStore) queryAppeals(ctx context.Context, query string, args ...interface{}) ([]models.Appeal, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Appeal{}
	for rows.Next() {
		a, err := scanAppeal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdateAppeal(ctx context.Context, a *models.Appeal) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE appeals
		SET status = $2, reviewed_at = $3, reviewed_by = $4, review_notes = $5
		WHERE id = $1
	`, a.ID, a.Status, a.ReviewedAt, nullString(a.ReviewedBy), nullString(a.ReviewNotes))
	return err
}

func (s *PostgresStore) UpsertSettings(ctx context.Context, set models.DemeritSettings) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO demerit_settings (calendar_id, enabled, points_threshold, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (calendar_id)
		DO UPDATE SET enabled = EXCLUDED.enabled, points_threshold = EXCLUDED.points_threshold, updated_at = NOW()
	`, set.CalendarID, set.Enabled, set.PointsThreshold)
	return err
}

func (s *PostgresStore) SettingsByCalendar(ctx context.Context, calendarID uuid.UUID) (*models.DemeritSettings, error) {
	var set models.DemeritSettings
	err := s.db.QueryRowContext(ctx, `
		SELECT calendar_id, enabled, points_threshold FROM demerit_settings WHERE calendar_id = $1
	`, calendarID).Scan(&set.CalendarID, &set.Enabled, &set.PointsThreshold)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &set, nil
}

func uuidOrNil(id *uuid.UUID) interface{} {
	if id == nil {
		return nil
	}
	return *id
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
