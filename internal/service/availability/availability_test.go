package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clinicbook/backend/internal/booking"
	"github.com/clinicbook/backend/internal/domain"
	"github.com/clinicbook/backend/internal/store"
)

type fakeStore struct {
	doctorID uuid.UUID
	appts    []*domain.Appointment
	calls    int
}

func (f *fakeStore) GetDoctor(_ context.Context, id uuid.UUID) (*domain.Doctor, error) {
	if id != f.doctorID {
		return nil, store.ErrNotFound
	}
	return &domain.Doctor{ID: id, Name: "Okafor"}, nil
}

func (f *fakeStore) ListDoctors(context.Context) ([]*domain.Doctor, error) { return nil, nil }

func (f *fakeStore) CreateDoctor(_ context.Context, d *domain.Doctor) (*domain.Doctor, error) {
	return d, nil
}

func (f *fakeStore) ListScheduledForDoctorDay(_ context.Context, doctorID uuid.UUID, day time.Time) ([]*domain.Appointment, error) {
	f.calls++
	var out []*domain.Appointment
	for _, a := range f.appts {
		if a.DoctorID == doctorID && a.ScheduledAt.Year() == day.Year() && a.ScheduledAt.YearDay() == day.YearDay() {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateAppointment(context.Context, store.CreateAppointmentParams) (*domain.Appointment, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeStore) GetAppointment(context.Context, uuid.UUID) (*domain.Appointment, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeStore) ListForPatient(context.Context, uuid.UUID) ([]*domain.Appointment, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeStore) SlotTaken(context.Context, uuid.UUID, time.Time) (bool, error) {
	return false, errors.New("not implemented")
}
func (f *fakeStore) UpdateAppointmentStatus(context.Context, uuid.UUID, domain.Status) error {
	return errors.New("not implemented")
}
func (f *fakeStore) CompleteOverdue(context.Context, time.Time) (int64, error) {
	return 0, errors.New("not implemented")
}
func (f *fakeStore) ListScheduledBetween(context.Context, time.Time, time.Time) ([]*domain.Appointment, error) {
	return nil, errors.New("not implemented")
}

func TestDaySlots(t *testing.T) {
	ctx := context.Background()
	doctorID := uuid.New()

	scheduled := func(hour, minute int) *domain.Appointment {
		return &domain.Appointment{
			ID:          uuid.New(),
			DoctorID:    doctorID,
			ScheduledAt: time.Date(2026, time.March, 10, hour, minute, 0, 0, time.Local),
			Status:      domain.StatusScheduled,
		}
	}

	t.Run("full grid for empty day", func(t *testing.T) {
		fs := &fakeStore{doctorID: doctorID}
		svc := New(fs, fs, nil, 0)

		grid, err := svc.DaySlots(ctx, doctorID, "2026-03-10")
		if err != nil {
			t.Fatalf("DaySlots() error = %v", err)
		}
		if grid.Date != "2026-03-10" {
			t.Errorf("Date = %q", grid.Date)
		}
		if len(grid.Slots) != booking.SlotsPerDay {
			t.Fatalf("len(Slots) = %d, want %d", len(grid.Slots), booking.SlotsPerDay)
		}
		for _, s := range grid.Slots {
			if !s.IsAvailable {
				t.Errorf("slot %s unavailable on an empty day", s.Time)
			}
		}
	})

	t.Run("booked slots are marked", func(t *testing.T) {
		fs := &fakeStore{
			doctorID: doctorID,
			appts:    []*domain.Appointment{scheduled(9, 0), scheduled(14, 30)},
		}
		svc := New(fs, fs, nil, 0)

		grid, err := svc.DaySlots(ctx, doctorID, "2026-03-10")
		if err != nil {
			t.Fatalf("DaySlots() error = %v", err)
		}

		want := map[string]bool{"09:00": false, "09:30": true, "14:30": false, "15:00": true}
		for _, s := range grid.Slots {
			if avail, ok := want[s.Time]; ok && s.IsAvailable != avail {
				t.Errorf("slot %s available = %v, want %v", s.Time, s.IsAvailable, avail)
			}
		}
	})

	t.Run("invalid date forms", func(t *testing.T) {
		fs := &fakeStore{doctorID: doctorID}
		svc := New(fs, fs, nil, 0)

		for _, date := range []string{"10-03-2026", "2026-3-10", "2026-03-10T00:00:00", "not-a-date", ""} {
			_, err := svc.DaySlots(ctx, doctorID, date)
			if !errors.Is(err, booking.ErrInvalidDate) {
				t.Errorf("DaySlots(%q) error = %v, want ErrInvalidDate", date, err)
			}
		}
	})

	t.Run("unknown doctor", func(t *testing.T) {
		fs := &fakeStore{doctorID: doctorID}
		svc := New(fs, fs, nil, 0)

		_, err := svc.DaySlots(ctx, uuid.New(), "2026-03-10")
		if !errors.Is(err, ErrDoctorNotFound) {
			t.Errorf("DaySlots() error = %v, want ErrDoctorNotFound", err)
		}
	})

	t.Run("store consulted per call without cache", func(t *testing.T) {
		fs := &fakeStore{doctorID: doctorID}
		svc := New(fs, fs, nil, time.Minute)

		if _, err := svc.DaySlots(ctx, doctorID, "2026-03-10"); err != nil {
			t.Fatalf("DaySlots() error = %v", err)
		}
		if _, err := svc.DaySlots(ctx, doctorID, "2026-03-10"); err != nil {
			t.Fatalf("DaySlots() error = %v", err)
		}
		if fs.calls != 2 {
			t.Errorf("store calls = %d, want 2", fs.calls)
		}
	})
}
