// Package store is the persistence layer for the booking engine. The
// double-booking invariant is enforced here, by a partial unique index on
// (doctor_id, scheduled_at) WHERE status='scheduled', not by an
// application-level pre-check, so concurrent requests for the same slot
// are serialized by Postgres and losers observe ErrConflict.
package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/clinicbook/backend/internal/domain"
)

type CreateAppointmentParams struct {
	PatientID   uuid.UUID
	DoctorID    uuid.UUID
	ScheduledAt time.Time
	Notes       string
}

type AppointmentStore interface {
	// CreateAppointment atomically checks the slot invariant and inserts.
	// Under concurrent requests for the same (doctor, minute) slot exactly
	// one call succeeds; the rest return ErrConflict.
	CreateAppointment(ctx context.Context, p CreateAppointmentParams) (*domain.Appointment, error)

	GetAppointment(ctx context.Context, id uuid.UUID) (*domain.Appointment, error)

	// ListForPatient returns the patient's appointments ordered by
	// scheduled_at descending.
	ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*domain.Appointment, error)

	// ListScheduledForDoctorDay returns scheduled appointments whose
	// start falls on the given local day, ascending.
	ListScheduledForDoctorDay(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]*domain.Appointment, error)

	// SlotTaken reports whether a scheduled appointment already occupies
	// the minute-truncated instant for the doctor. This is the fast-path
	// check; CreateAppointment remains the source of truth.
	SlotTaken(ctx context.Context, doctorID uuid.UUID, at time.Time) (bool, error)

	// UpdateAppointmentStatus moves a scheduled appointment to the given
	// status. ErrNotFound if the row does not exist, ErrStaleStatus if it
	// is no longer scheduled.
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, status domain.Status) error

	// CompleteOverdue transitions every scheduled appointment with a
	// start before now to completed, returning the number of rows moved.
	CompleteOverdue(ctx context.Context, now time.Time) (int64, error)

	// ListScheduledBetween returns scheduled appointments with
	// from <= scheduled_at < to, ascending. Used by the reminder job.
	ListScheduledBetween(ctx context.Context, from, to time.Time) ([]*domain.Appointment, error)
}

type DoctorStore interface {
	GetDoctor(ctx context.Context, id uuid.UUID) (*domain.Doctor, error)
	ListDoctors(ctx context.Context) ([]*domain.Doctor, error)
	CreateDoctor(ctx context.Context, d *domain.Doctor) (*domain.Doctor, error)
}

type PatientStore interface {
	GetPatient(ctx context.Context, id uuid.UUID) (*domain.Patient, error)
}

// Postgres implements all store interfaces over a shared *sql.DB pool.
// Every query runs under queryTimeout unless the caller already carries a
// deadline, so a stuck connection cannot pin a request or worker forever.
type Postgres struct {
	conn         *sql.DB
	queryTimeout time.Duration
}

func NewPostgres(conn *sql.DB, queryTimeout time.Duration) *Postgres {
	return &Postgres{conn: conn, queryTimeout: queryTimeout}
}

// withTimeout attaches the default deadline to contexts that have none.
// A caller-supplied deadline always wins.
func (p *Postgres) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.queryTimeout <= 0 {
		return ctx, func() {}
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, p.queryTimeout)
}

var (
	_ AppointmentStore = (*Postgres)(nil)
	_ DoctorStore      = (*Postgres)(nil)
	_ PatientStore     = (*Postgres)(nil)
)

func newID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails when the entropy source does; nothing
		// sensible to do but stop.
		panic(err)
	}
	return id
}
