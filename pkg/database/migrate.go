package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema statements are idempotent so migrate can run on every deploy.
//
// The partial unique index on appointments is the storage-level guarantee
// behind "at most one scheduled appointment per (doctor, minute)": the
// store truncates scheduled_at to the minute before insert, and concurrent
// inserts for the same slot race on the index instead of on an application
// pre-check. scheduled_at is a plain TIMESTAMP; the engine compares local
// clinic time only, and expression indexes over timestamptz are not
// immutable in Postgres.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS doctors (
		id             UUID PRIMARY KEY,
		name           TEXT NOT NULL,
		specialization TEXT NOT NULL,
		email          TEXT NOT NULL UNIQUE,
		phone          TEXT NOT NULL DEFAULT '',
		created_at     TIMESTAMP NOT NULL DEFAULT now(),
		updated_at     TIMESTAMP NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS patients (
		id         UUID PRIMARY KEY,
		first_name TEXT NOT NULL DEFAULT '',
		last_name  TEXT NOT NULL DEFAULT '',
		email      TEXT NOT NULL UNIQUE,
		phone      TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT now(),
		updated_at TIMESTAMP NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS appointments (
		id           UUID PRIMARY KEY,
		patient_id   UUID NOT NULL REFERENCES patients (id),
		doctor_id    UUID NOT NULL REFERENCES doctors (id),
		scheduled_at TIMESTAMP NOT NULL,
		status       TEXT NOT NULL DEFAULT 'scheduled'
			CHECK (status IN ('scheduled', 'completed', 'cancelled')),
		notes        TEXT NOT NULL DEFAULT '',
		created_at   TIMESTAMP NOT NULL DEFAULT now(),
		updated_at   TIMESTAMP NOT NULL DEFAULT now()
	)`,

	`CREATE UNIQUE INDEX IF NOT EXISTS appointments_doctor_slot_uniq
		ON appointments (doctor_id, scheduled_at)
		WHERE status = 'scheduled'`,

	`CREATE INDEX IF NOT EXISTS appointments_patient_idx
		ON appointments (patient_id, scheduled_at DESC)`,

	`CREATE INDEX IF NOT EXISTS appointments_doctor_day_idx
		ON appointments (doctor_id, status, scheduled_at)`,

	`CREATE INDEX IF NOT EXISTS appointments_status_due_idx
		ON appointments (status, scheduled_at)`,
}

// Migrate applies the schema inside a single transaction.
func Migrate(ctx context.Context, conn *sql.DB) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration tx: %w", err)
	}

	for _, stmt := range migrations {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migrations: %w", err)
	}
	return nil
}
