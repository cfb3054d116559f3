package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/clinicbook/backend/internal/booking"
	"github.com/clinicbook/backend/internal/domain"
)

const slotUniqConstraint = "appointments_doctor_slot_uniq"

const apptColumns = `id, patient_id, doctor_id, scheduled_at, status, notes, created_at, updated_at`

func scanAppointment(row interface{ Scan(...any) error }) (*domain.Appointment, error) {
	var a domain.Appointment
	err := row.Scan(
		&a.ID, &a.PatientID, &a.DoctorID, &a.ScheduledAt,
		&a.Status, &a.Notes, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (p *Postgres) CreateAppointment(ctx context.Context, params CreateAppointmentParams) (*domain.Appointment, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	// Truncate to the minute so the partial unique index compares slots,
	// not full timestamps: requests differing only in seconds collide.
	at := booking.MinuteOf(params.ScheduledAt)

	row := p.conn.QueryRowContext(ctx, `
		INSERT INTO appointments (id, patient_id, doctor_id, scheduled_at, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+apptColumns,
		newID(), params.PatientID, params.DoctorID, at, domain.StatusScheduled, params.Notes,
	)

	appt, err := scanAppointment(row)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" && pqErr.Constraint == slotUniqConstraint {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("create appointment: %w", err)
	}
	return appt, nil
}

func (p *Postgres) GetAppointment(ctx context.Context, id uuid.UUID) (*domain.Appointment, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	row := p.conn.QueryRowContext(ctx, `
		SELECT `+apptColumns+`
		FROM appointments
		WHERE id = $1`,
		id,
	)

	appt, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return appt, nil
}

func (p *Postgres) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*domain.Appointment, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	rows, err := p.conn.QueryContext(ctx, `
		SELECT `+apptColumns+`
		FROM appointments
		WHERE patient_id = $1
		ORDER BY scheduled_at DESC`,
		patientID,
	)
	if err != nil {
		return nil, fmt.Errorf("list appointments for patient: %w", err)
	}
	defer rows.Close()

	return collectAppointments(rows)
}

func (p *Postgres) ListScheduledForDoctorDay(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]*domain.Appointment, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	rows, err := p.conn.QueryContext(ctx, `
		SELECT `+apptColumns+`
		FROM appointments
		WHERE doctor_id = $1
		  AND status = $2
		  AND scheduled_at >= $3
		  AND scheduled_at < $4
		ORDER BY scheduled_at ASC`,
		doctorID, domain.StatusScheduled, start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("list scheduled for doctor day: %w", err)
	}
	defer rows.Close()

	return collectAppointments(rows)
}

func (p *Postgres) SlotTaken(ctx context.Context, doctorID uuid.UUID, at time.Time) (bool, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	var taken bool
	err := p.conn.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE doctor_id = $1
			  AND scheduled_at = $2
			  AND status = $3
		)`,
		doctorID, booking.MinuteOf(at), domain.StatusScheduled,
	).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("check slot taken: %w", err)
	}
	return taken, nil
}

func (p *Postgres) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, status domain.Status) error {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	// Scheduled is the only legal source state; matching on it also
	// closes the race against the auto-complete sweep.
	res, err := p.conn.ExecContext(ctx, `
		UPDATE appointments
		SET status = $2, updated_at = now()
		WHERE id = $1 AND status = $3`,
		id, status, domain.StatusScheduled,
	)
	if err != nil {
		return fmt.Errorf("update appointment status: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update appointment status: %w", err)
	}
	if n > 0 {
		return nil
	}

	// Distinguish "missing" from "already terminal".
	var exists bool
	if err := p.conn.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM appointments WHERE id = $1)`, id,
	).Scan(&exists); err != nil {
		return fmt.Errorf("update appointment status: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	return ErrStaleStatus
}

func (p *Postgres) CompleteOverdue(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	res, err := p.conn.ExecContext(ctx, `
		UPDATE appointments
		SET status = $1, updated_at = now()
		WHERE status = $2 AND scheduled_at < $3`,
		domain.StatusCompleted, domain.StatusScheduled, now,
	)
	if err != nil {
		return 0, fmt.Errorf("complete overdue appointments: %w", err)
	}
	return res.RowsAffected()
}

func (p *Postgres) ListScheduledBetween(ctx context.Context, from, to time.Time) ([]*domain.Appointment, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	rows, err := p.conn.QueryContext(ctx, `
		SELECT `+apptColumns+`
		FROM appointments
		WHERE status = $1
		  AND scheduled_at >= $2
		  AND scheduled_at < $3
		ORDER BY scheduled_at ASC`,
		domain.StatusScheduled, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("list scheduled between: %w", err)
	}
	defer rows.Close()

	return collectAppointments(rows)
}

func collectAppointments(rows *sql.Rows) ([]*domain.Appointment, error) {
	var out []*domain.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		out = append(out, appt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate appointments: %w", err)
	}
	return out, nil
}
