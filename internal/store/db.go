package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// DB wraps sql.DB for Postgres using pgx.
type DB struct {
	Client *sql.DB
}

// NewDB creates a Postgres connection with sane defaults and applies the schema.
func NewDB(connString string) (*DB, error) {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	if err := db.PingContext(context.Background()); err != nil {
		return nil, err
	}
	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &DB{Client: db}, nil
}

func migrate(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS classes (
		id         UUID PRIMARY KEY,
		name       TEXT NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS teachers (
		id            UUID PRIMARY KEY,
		name          TEXT NOT NULL,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role          TEXT NOT NULL DEFAULT 'teacher',
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS students (
		id         UUID PRIMARY KEY,
		name       TEXT NOT NULL,
		roll_no    TEXT NOT NULL UNIQUE,
		class_id   UUID NOT NULL REFERENCES classes(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS subjects (
		id         UUID PRIMARY KEY,
		name       TEXT NOT NULL,
		code       TEXT NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS subject_teachers (
		subject_id UUID NOT NULL REFERENCES subjects(id) ON DELETE CASCADE,
		teacher_id UUID NOT NULL REFERENCES teachers(id) ON DELETE CASCADE,
		PRIMARY KEY (subject_id, teacher_id)
	);

	CREATE TABLE IF NOT EXISTS subject_classes (
		subject_id UUID NOT NULL REFERENCES subjects(id) ON DELETE CASCADE,
		class_id   UUID NOT NULL REFERENCES classes(id) ON DELETE CASCADE,
		PRIMARY KEY (subject_id, class_id)
	);

	CREATE TABLE IF NOT EXISTS teacher_classes (
		teacher_id UUID NOT NULL REFERENCES teachers(id) ON DELETE CASCADE,
		class_id   UUID NOT NULL REFERENCES classes(id) ON DELETE CASCADE,
		PRIMARY KEY (teacher_id, class_id)
	);

	-- Attendance references are intentionally not foreign keys: students and
	-- subjects are deleted independently and historical records survive them.
	-- class_id is denormalized from the student and may be NULL on legacy rows
	-- (cmd/repair backfills it).
	CREATE TABLE IF NOT EXISTS attendance (
		id         UUID PRIMARY KEY,
		class_id   UUID,
		student_id UUID NOT NULL,
		subject_id UUID NOT NULL,
		date       DATE NOT NULL,
		session    TEXT NOT NULL DEFAULT 'Default',
		status     TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (class_id, student_id, subject_id, date, session)
	);

	CREATE INDEX IF NOT EXISTS idx_attendance_class_date ON attendance (class_id, date);
	CREATE INDEX IF NOT EXISTS idx_attendance_student    ON attendance (student_id);
	CREATE INDEX IF NOT EXISTS idx_students_class        ON students (class_id);
	`
	_, err := db.Exec(schema)
	return err
}

// Close closes the underlying connection.
func (d *DB) Close() error {
	if d == nil || d.Client == nil {
		return nil
	}
	return d.Client.Close()
}
