package store

import (
	"context"
	"fmt"
)

// schema is applied at every start. Every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id              BIGSERIAL PRIMARY KEY,
		email           TEXT NOT NULL UNIQUE,
		first_name      TEXT NOT NULL,
		last_name       TEXT NOT NULL,
		matric_number   TEXT,
		department      TEXT NOT NULL,
		faculty         TEXT NOT NULL,
		hashed_password TEXT NOT NULL,
		profile_type    TEXT NOT NULL CHECK (profile_type IN ('student', 'lecturer'))
	)`,
	`CREATE INDEX IF NOT EXISTS idx_users_matric_number ON users (matric_number)`,
	`CREATE TABLE IF NOT EXISTS attendance_sessions (
		id               BIGSERIAL PRIMARY KEY,
		session_id       TEXT NOT NULL UNIQUE,
		course_name      TEXT NOT NULL,
		session_start    TIMESTAMP NOT NULL,
		session_end      TIMESTAMP NOT NULL,
		session_duration INTEGER NOT NULL,
		created_by       BIGINT REFERENCES users (id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_attendance_sessions_course ON attendance_sessions (course_name)`,
	`CREATE INDEX IF NOT EXISTS idx_attendance_sessions_start ON attendance_sessions (session_start)`,
	`CREATE TABLE IF NOT EXISTS attendances (
		id         BIGSERIAL PRIMARY KEY,
		session_id BIGINT NOT NULL REFERENCES attendance_sessions (id),
		student_id BIGINT NOT NULL REFERENCES users (id),
		timestamp  TIMESTAMP NOT NULL,
		ip_address TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_attendances_session ON attendances (session_id)`,
}

// EnsureSchema creates missing tables and indexes.
func (d *DB) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := d.Client.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
