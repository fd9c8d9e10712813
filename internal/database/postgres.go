package database

import (
	"database/sql"
	"log"
	"time"

	_ "github.com/lib/pq"
)

var PostgresDB *sql.DB

// ConnectPostgres connects to PostgreSQL database
func ConnectPostgres(postgresURI string) error {
	var err error

	PostgresDB, err = sql.Open("postgres", postgresURI)
	if err != nil {
		return err
	}

	// Set connection pool settings
	PostgresDB.SetMaxOpenConns(25)
	PostgresDB.SetMaxIdleConns(5)
	PostgresDB.SetConnMaxLifetime(5 * time.Minute)

	// Test connection
	if err = PostgresDB.Ping(); err != nil {
		return err
	}

	log.Println("✅ Connected to PostgreSQL")

	// Initialize tables
	if err = InitPostgresTables(); err != nil {
		return err
	}

	return nil
}

// InitPostgresTables creates all necessary tables if they don't exist.
// User identities live in a separate service, so user_id columns are plain
// UUIDs without foreign keys.
func InitPostgresTables() error {
	queries := []string{
		// Events table
		`CREATE TABLE IF NOT EXISTS events (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
			calendar_id UUID NOT NULL,
			name VARCHAR(255) NOT NULL,
			description TEXT,
			location VARCHAR(255),
			cover_url TEXT,
			starts_at TIMESTAMP NOT NULL,
			ends_at TIMESTAMP NOT NULL,
			capacity INTEGER NOT NULL DEFAULT 0,
			created_by UUID NOT NULL
		)`,

		// Event registrations table
		`CREATE TABLE IF NOT EXISTS event_registrations (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			event_id UUID NOT NULL REFERENCES events(id) ON DELETE CASCADE,
			user_id UUID NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'registered',
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
			UNIQUE(event_id, user_id)
		)`,

		// Event check-ins table
		`CREATE TABLE IF NOT EXISTS event_checkins (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			event_id UUID NOT NULL REFERENCES events(id) ON DELETE CASCADE,
			user_id UUID NOT NULL,
			checked_in_by VARCHAR(255),
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			UNIQUE(event_id, user_id)
		)`,

		// Demerits table (append-only; status transitions only, no deletes)
		`CREATE TABLE IF NOT EXISTS demerits (
			id UUID PRIMARY KEY,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			user_id UUID NOT NULL,
			event_id UUID,
			reason VARCHAR(50) NOT NULL,
			points INTEGER NOT NULL CHECK (points > 0),
			description TEXT,
			created_by VARCHAR(255) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'active',
			appeal_id UUID
		)`,

		// Appeals table
		`CREATE TABLE IF NOT EXISTS appeals (
			id UUID PRIMARY KEY,
			demerit_id UUID NOT NULL REFERENCES demerits(id),
			user_id UUID NOT NULL,
			reason VARCHAR(100) NOT NULL,
			description TEXT,
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			submitted_at TIMESTAMP NOT NULL DEFAULT NOW(),
			reviewed_at TIMESTAMP,
			reviewed_by VARCHAR(255),
			review_notes TEXT
		)`,

		// Per-calendar demerit settings table
		`CREATE TABLE IF NOT EXISTS demerit_settings (
			calendar_id UUID PRIMARY KEY,
			enabled BOOLEAN NOT NULL DEFAULT FALSE,
			points_threshold INTEGER NOT NULL DEFAULT 50,
			updated_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,

		// Create indexes for better performance
		`CREATE INDEX IF NOT EXISTS idx_events_calendar_id ON events(calendar_id)`,
		`CREATE INDEX IF NOT EXISTS idx_events_starts_at ON events(starts_at)`,
		`CREATE INDEX IF NOT EXISTS idx_event_registrations_event_id ON event_registrations(event_id)`,
		`CREATE INDEX IF NOT EXISTS idx_event_registrations_user_id ON event_registrations(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_event_checkins_event_id ON event_checkins(event_id)`,
		`CREATE INDEX IF NOT EXISTS idx_demerits_user_id ON demerits(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_demerits_status ON demerits(status)`,
		`CREATE INDEX IF NOT EXISTS idx_demerits_created_at ON demerits(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_appeals_demerit_id ON appeals(demerit_id)`,
		`CREATE INDEX IF NOT EXISTS idx_appeals_user_id ON appeals(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_appeals_status ON appeals(status)`,
	}

	for _, query := range queries {
		if _, err := PostgresDB.Exec(query); err != nil {
			return err
		}
	}

	log.Println("✅ PostgreSQL tables initialized")
	return nil
}

// DisconnectPostgres closes the PostgreSQL connection
func DisconnectPostgres() error {
	if PostgresDB != nil {
		return PostgresDB.Close()
	}
	return nil
}
