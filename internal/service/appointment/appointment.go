package appointment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/clinicbook/backend/internal/booking"
	"github.com/clinicbook/backend/internal/domain"
	"github.com/clinicbook/backend/internal/store"
	"github.com/clinicbook/backend/pkg/clock"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type BookRequest struct {
	PatientID   uuid.UUID
	DoctorID    uuid.UUID
	ScheduledAt time.Time
	Notes       string
}

// View is an appointment as presented to clients, with the
// cancellation-window flag evaluated against the current clock.
type View struct {
	domain.Appointment
	CanCancel bool `json:"can_cancel"`
}

// ---------------------------------------------------------------------------
// Collaborators
// ---------------------------------------------------------------------------

// Publisher is the slice of the NATS connection the service needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// GridCache drops the cached availability grid for a doctor's day after a
// booking or cancellation changes it.
type GridCache interface {
	Invalidate(ctx context.Context, doctorID uuid.UUID, day time.Time)
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	Book(ctx context.Context, req BookRequest) (*View, error)
	Cancel(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*View, error)
	ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*View, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

const (
	SubjectCreated   = "clinicbook.appointment.created."
	SubjectCancelled = "clinicbook.appointment.cancelled."
)

type appointmentService struct {
	appts    store.AppointmentStore
	doctors  store.DoctorStore
	patients store.PatientStore
	clk      clock.Clock
	pub      Publisher
	cache    GridCache
}

func New(
	appts store.AppointmentStore,
	doctors store.DoctorStore,
	patients store.PatientStore,
	clk clock.Clock,
	pub Publisher,
	cache GridCache,
) Service {
	return &appointmentService{
		appts:    appts,
		doctors:  doctors,
		patients: patients,
		clk:      clk,
		pub:      pub,
		cache:    cache,
	}
}

func (s *appointmentService) Book(ctx context.Context, req BookRequest) (*View, error) {
	now := s.clk.Now()

	if err := booking.ValidateBooking(req.ScheduledAt, now); err != nil {
		return nil, err
	}

	if _, err := s.patients.GetPatient(ctx, req.PatientID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("look up patient: %w", err)
	}
	if _, err := s.doctors.GetDoctor(ctx, req.DoctorID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrDoctorNotFound
		}
		return nil, fmt.Errorf("look up doctor: %w", err)
	}

	// Fast-path rejection so most double-booking attempts get a clean
	// error without burning an insert. The unique index still decides
	// the race for requests that pass this check concurrently.
	at := booking.MinuteOf(req.ScheduledAt)
	taken, err := s.appts.SlotTaken(ctx, req.DoctorID, at)
	if err != nil {
		return nil, fmt.Errorf("check slot: %w", err)
	}
	if taken {
		return nil, booking.ErrSlotTaken
	}

	appt, err := s.appts.CreateAppointment(ctx, store.CreateAppointmentParams{
		PatientID:   req.PatientID,
		DoctorID:    req.DoctorID,
		ScheduledAt: at,
		Notes:       req.Notes,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, booking.ErrSlotTaken
		}
		return nil, fmt.Errorf("book appointment: %w", err)
	}

	s.publish(SubjectCreated, appt.ID)
	s.cache.Invalidate(ctx, appt.DoctorID, appt.ScheduledAt)

	return s.view(appt), nil
}

func (s *appointmentService) Cancel(ctx context.Context, id uuid.UUID) error {
	appt, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	now := s.clk.Now()
	if err := booking.ValidateCancellation(appt, now); err != nil {
		return err
	}

	if err := s.appts.UpdateAppointmentStatus(ctx, id, domain.StatusCancelled); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return ErrNotFound
		case errors.Is(err, store.ErrStaleStatus):
			// Lost a race against the completion sweep.
			return booking.ErrNotScheduled
		}
		return fmt.Errorf("cancel appointment: %w", err)
	}

	s.publish(SubjectCancelled, appt.ID)
	s.cache.Invalidate(ctx, appt.DoctorID, appt.ScheduledAt)

	return nil
}

func (s *appointmentService) GetByID(ctx context.Context, id uuid.UUID) (*View, error) {
	appt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(appt), nil
}

func (s *appointmentService) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*View, error) {
	appts, err := s.appts.ListForPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}

	views := make([]*View, 0, len(appts))
	for _, appt := range appts {
		s.autoComplete(ctx, appt)
		views = append(views, s.view(appt))
	}
	return views, nil
}

// load fetches an appointment and applies lazy auto-completion, so
// reads never observe a scheduled appointment whose time has passed.
func (s *appointmentService) load(ctx context.Context, id uuid.UUID) (*domain.Appointment, error) {
	appt, err := s.appts.GetAppointment(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	s.autoComplete(ctx, appt)
	return appt, nil
}

func (s *appointmentService) autoComplete(ctx context.Context, appt *domain.Appointment) {
	if !booking.AutoComplete(appt, s.clk.Now()) {
		return
	}
	err := s.appts.UpdateAppointmentStatus(ctx, appt.ID, domain.StatusCompleted)
	if err != nil && !errors.Is(err, store.ErrStaleStatus) {
		// The in-memory flip already happened; the sweep will persist
		// it on its next pass.
		slog.Warn("persist auto-complete failed", "appointment_id", appt.ID, "err", err)
	}
}

func (s *appointmentService) view(appt *domain.Appointment) *View {
	return &View{
		Appointment: *appt,
		CanCancel:   booking.CanCancel(appt, s.clk.Now()),
	}
}

func (s *appointmentService) publish(prefix string, id uuid.UUID) {
	if err := s.pub.Publish(prefix+id.String(), []byte(id.String())); err != nil {
		slog.Warn("publish appointment event failed", "subject", prefix+id.String(), "err", err)
	}
}
