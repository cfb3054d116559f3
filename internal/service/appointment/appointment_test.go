package appointment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clinicbook/backend/internal/booking"
	"github.com/clinicbook/backend/internal/domain"
	"github.com/clinicbook/backend/internal/store"
	"github.com/clinicbook/backend/pkg/clock"
)

// ---------------------------------------------------------------------------
// In-memory fakes
// ---------------------------------------------------------------------------

type slotKey struct {
	doctorID uuid.UUID
	at       time.Time
}

type fakeStore struct {
	mu       sync.Mutex
	appts    map[uuid.UUID]*domain.Appointment
	doctors  map[uuid.UUID]*domain.Doctor
	patients map[uuid.UUID]*domain.Patient
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		appts:    make(map[uuid.UUID]*domain.Appointment),
		doctors:  make(map[uuid.UUID]*domain.Doctor),
		patients: make(map[uuid.UUID]*domain.Patient),
	}
}

func (f *fakeStore) addDoctor() uuid.UUID {
	id := uuid.New()
	f.doctors[id] = &domain.Doctor{ID: id, Name: "Chen", Email: "chen@clinic.test"}
	return id
}

func (f *fakeStore) addPatient() uuid.UUID {
	id := uuid.New()
	f.patients[id] = &domain.Patient{ID: id, FirstName: "Sam", Email: "sam@test"}
	return id
}

func (f *fakeStore) CreateAppointment(_ context.Context, p store.CreateAppointmentParams) (*domain.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	at := booking.MinuteOf(p.ScheduledAt)
	for _, a := range f.appts {
		if a.DoctorID == p.DoctorID && a.ScheduledAt.Equal(at) && a.Status == domain.StatusScheduled {
			return nil, store.ErrConflict
		}
	}

	a := &domain.Appointment{
		ID:          uuid.New(),
		PatientID:   p.PatientID,
		DoctorID:    p.DoctorID,
		ScheduledAt: at,
		Status:      domain.StatusScheduled,
		Notes:       p.Notes,
	}
	f.appts[a.ID] = a
	return copyAppt(a), nil
}

func (f *fakeStore) GetAppointment(_ context.Context, id uuid.UUID) (*domain.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.appts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return copyAppt(a), nil
}

func (f *fakeStore) ListForPatient(_ context.Context, patientID uuid.UUID) ([]*domain.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Appointment
	for _, a := range f.appts {
		if a.PatientID == patientID {
			out = append(out, copyAppt(a))
		}
	}
	return out, nil
}

func (f *fakeStore) ListScheduledForDoctorDay(_ context.Context, doctorID uuid.UUID, day time.Time) ([]*domain.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Appointment
	for _, a := range f.appts {
		if a.DoctorID == doctorID && a.Status == domain.StatusScheduled &&
			a.ScheduledAt.Year() == day.Year() && a.ScheduledAt.YearDay() == day.YearDay() {
			out = append(out, copyAppt(a))
		}
	}
	return out, nil
}

func (f *fakeStore) SlotTaken(_ context.Context, doctorID uuid.UUID, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	at = booking.MinuteOf(at)
	for _, a := range f.appts {
		if a.DoctorID == doctorID && a.ScheduledAt.Equal(at) && a.Status == domain.StatusScheduled {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) UpdateAppointmentStatus(_ context.Context, id uuid.UUID, status domain.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.appts[id]
	if !ok {
		return store.ErrNotFound
	}
	if a.Status != domain.StatusScheduled {
		return store.ErrStaleStatus
	}
	a.Status = status
	return nil
}

func (f *fakeStore) CompleteOverdue(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, a := range f.appts {
		if a.Status == domain.StatusScheduled && a.ScheduledAt.Before(now) {
			a.Status = domain.StatusCompleted
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) ListScheduledBetween(_ context.Context, from, to time.Time) ([]*domain.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Appointment
	for _, a := range f.appts {
		if a.Status == domain.StatusScheduled && !a.ScheduledAt.Before(from) && a.ScheduledAt.Before(to) {
			out = append(out, copyAppt(a))
		}
	}
	return out, nil
}

func (f *fakeStore) GetDoctor(_ context.Context, id uuid.UUID) (*domain.Doctor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.doctors[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return d, nil
}

func (f *fakeStore) ListDoctors(_ context.Context) ([]*domain.Doctor, error) { return nil, nil }

func (f *fakeStore) CreateDoctor(_ context.Context, d *domain.Doctor) (*domain.Doctor, error) {
	return d, nil
}

func (f *fakeStore) GetPatient(_ context.Context, id uuid.UUID) (*domain.Patient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.patients[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return p, nil
}

func copyAppt(a *domain.Appointment) *domain.Appointment {
	cp := *a
	return &cp
}

type fakePublisher struct {
	mu       sync.Mutex
	subjects []string
	err      error
}

func (p *fakePublisher) Publish(subject string, _ []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.subjects = append(p.subjects, subject)
	return nil
}

type nopCache struct{}

func (nopCache) Invalidate(context.Context, uuid.UUID, time.Time) {}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var clinicNow = time.Date(2026, time.March, 10, 8, 0, 0, 0, time.Local)

func newService(fs *fakeStore, now time.Time) (Service, *fakePublisher) {
	pub := &fakePublisher{}
	return New(fs, fs, fs, clock.Fixed(now), pub, nopCache{}), pub
}

// ---------------------------------------------------------------------------
// Book
// ---------------------------------------------------------------------------

func TestBook(t *testing.T) {
	ctx := context.Background()
	slot := clinicNow.Add(2 * time.Hour)

	t.Run("creates scheduled appointment", func(t *testing.T) {
		fs := newFakeStore()
		doctorID, patientID := fs.addDoctor(), fs.addPatient()
		svc, pub := newService(fs, clinicNow)

		got, err := svc.Book(ctx, BookRequest{
			PatientID:   patientID,
			DoctorID:    doctorID,
			ScheduledAt: slot,
			Notes:       "first visit",
		})
		if err != nil {
			t.Fatalf("Book() error = %v", err)
		}
		if got.Status != domain.StatusScheduled {
			t.Errorf("status = %s, want scheduled", got.Status)
		}
		if !got.CanCancel {
			t.Error("CanCancel = false for a slot two hours out")
		}
		if len(pub.subjects) != 1 || pub.subjects[0] != SubjectCreated+got.ID.String() {
			t.Errorf("published subjects = %v", pub.subjects)
		}
	})

	t.Run("truncates seconds to the slot minute", func(t *testing.T) {
		fs := newFakeStore()
		doctorID, patientID := fs.addDoctor(), fs.addPatient()
		svc, _ := newService(fs, clinicNow)

		got, err := svc.Book(ctx, BookRequest{
			PatientID:   patientID,
			DoctorID:    doctorID,
			ScheduledAt: slot.Add(42 * time.Second),
		})
		if err != nil {
			t.Fatalf("Book() error = %v", err)
		}
		if !got.ScheduledAt.Equal(slot) {
			t.Errorf("ScheduledAt = %v, want %v", got.ScheduledAt, slot)
		}
	})

	t.Run("rejects past slot", func(t *testing.T) {
		fs := newFakeStore()
		doctorID, patientID := fs.addDoctor(), fs.addPatient()
		svc, _ := newService(fs, clinicNow)

		_, err := svc.Book(ctx, BookRequest{
			PatientID:   patientID,
			DoctorID:    doctorID,
			ScheduledAt: clinicNow.Add(-time.Minute),
		})
		if !errors.Is(err, booking.ErrPastDate) {
			t.Errorf("Book() error = %v, want ErrPastDate", err)
		}
	})

	t.Run("rejects taken slot", func(t *testing.T) {
		fs := newFakeStore()
		doctorID, patientID := fs.addDoctor(), fs.addPatient()
		otherPatient := fs.addPatient()
		svc, _ := newService(fs, clinicNow)

		if _, err := svc.Book(ctx, BookRequest{PatientID: patientID, DoctorID: doctorID, ScheduledAt: slot}); err != nil {
			t.Fatalf("first Book() error = %v", err)
		}
		_, err := svc.Book(ctx, BookRequest{PatientID: otherPatient, DoctorID: doctorID, ScheduledAt: slot})
		if !errors.Is(err, booking.ErrSlotTaken) {
			t.Errorf("second Book() error = %v, want ErrSlotTaken", err)
		}
	})

	t.Run("unknown patient", func(t *testing.T) {
		fs := newFakeStore()
		doctorID := fs.addDoctor()
		svc, _ := newService(fs, clinicNow)

		_, err := svc.Book(ctx, BookRequest{PatientID: uuid.New(), DoctorID: doctorID, ScheduledAt: slot})
		if !errors.Is(err, ErrPatientNotFound) {
			t.Errorf("Book() error = %v, want ErrPatientNotFound", err)
		}
	})

	t.Run("unknown doctor", func(t *testing.T) {
		fs := newFakeStore()
		patientID := fs.addPatient()
		svc, _ := newService(fs, clinicNow)

		_, err := svc.Book(ctx, BookRequest{PatientID: patientID, DoctorID: uuid.New(), ScheduledAt: slot})
		if !errors.Is(err, ErrDoctorNotFound) {
			t.Errorf("Book() error = %v, want ErrDoctorNotFound", err)
		}
	})
}

func TestPublishFailureDoesNotFailOperation(t *testing.T) {
	ctx := context.Background()
	fs := newFakeStore()
	doctorID, patientID := fs.addDoctor(), fs.addPatient()
	slot := clinicNow.Add(4 * time.Hour)

	pub := &fakePublisher{err: errors.New("nats connection closed")}
	svc := New(fs, fs, fs, clock.Fixed(clinicNow), pub, nopCache{})

	got, err := svc.Book(ctx, BookRequest{
		PatientID:   patientID,
		DoctorID:    doctorID,
		ScheduledAt: slot,
	})
	if err != nil {
		t.Fatalf("Book() error = %v, want success despite publish failure", err)
	}
	if got.Status != domain.StatusScheduled {
		t.Errorf("status = %s, want scheduled", got.Status)
	}

	if err := svc.Cancel(ctx, got.ID); err != nil {
		t.Fatalf("Cancel() error = %v, want success despite publish failure", err)
	}
	stored, _ := fs.GetAppointment(ctx, got.ID)
	if stored.Status != domain.StatusCancelled {
		t.Errorf("stored status = %s, want cancelled", stored.Status)
	}
}

func TestBookConcurrentSameSlot(t *testing.T) {
	ctx := context.Background()
	fs := newFakeStore()
	doctorID := fs.addDoctor()
	slot := clinicNow.Add(3 * time.Hour)

	const callers = 8
	patients := make([]uuid.UUID, callers)
	for i := range patients {
		patients[i] = fs.addPatient()
	}

	svc, _ := newService(fs, clinicNow)

	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Book(ctx, BookRequest{
				PatientID:   patients[i],
				DoctorID:    doctorID,
				ScheduledAt: slot,
			})
		}(i)
	}
	wg.Wait()

	var wins, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, booking.ErrSlotTaken):
			conflicts++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Errorf("winners = %d, want exactly 1 (conflicts = %d)", wins, conflicts)
	}
}

// ---------------------------------------------------------------------------
// Cancel
// ---------------------------------------------------------------------------

func TestCancel(t *testing.T) {
	ctx := context.Background()

	book := func(t *testing.T, fs *fakeStore, at time.Time) uuid.UUID {
		t.Helper()
		doctorID, patientID := fs.addDoctor(), fs.addPatient()
		svc, _ := newService(fs, at.Add(-24*time.Hour))
		v, err := svc.Book(ctx, BookRequest{PatientID: patientID, DoctorID: doctorID, ScheduledAt: at})
		if err != nil {
			t.Fatalf("seed Book() error = %v", err)
		}
		return v.ID
	}

	t.Run("inside window is rejected", func(t *testing.T) {
		fs := newFakeStore()
		at := clinicNow.Add(time.Hour)
		id := book(t, fs, at)

		// 59m59s of lead time.
		svc, _ := newService(fs, at.Add(-booking.CancelMinLead+time.Second))
		if err := svc.Cancel(ctx, id); !errors.Is(err, booking.ErrTooLate) {
			t.Errorf("Cancel() error = %v, want ErrTooLate", err)
		}
	})

	t.Run("exactly one hour ahead is allowed", func(t *testing.T) {
		fs := newFakeStore()
		at := clinicNow.Add(4 * time.Hour)
		id := book(t, fs, at)

		svc, pub := newService(fs, at.Add(-booking.CancelMinLead))
		if err := svc.Cancel(ctx, id); err != nil {
			t.Fatalf("Cancel() error = %v", err)
		}
		got, err := svc.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if got.Status != domain.StatusCancelled {
			t.Errorf("status = %s, want cancelled", got.Status)
		}
		if len(pub.subjects) != 1 || pub.subjects[0] != SubjectCancelled+id.String() {
			t.Errorf("published subjects = %v", pub.subjects)
		}
	})

	t.Run("past appointment auto-completes then rejects", func(t *testing.T) {
		fs := newFakeStore()
		at := clinicNow.Add(time.Hour)
		id := book(t, fs, at)

		svc, _ := newService(fs, at.Add(time.Minute))
		if err := svc.Cancel(ctx, id); !errors.Is(err, booking.ErrNotScheduled) {
			t.Errorf("Cancel() error = %v, want ErrNotScheduled", err)
		}
		got, _ := svc.GetByID(ctx, id)
		if got.Status != domain.StatusCompleted {
			t.Errorf("status after lazy completion = %s, want completed", got.Status)
		}
	})

	t.Run("cancelled twice", func(t *testing.T) {
		fs := newFakeStore()
		at := clinicNow.Add(4 * time.Hour)
		id := book(t, fs, at)

		svc, _ := newService(fs, clinicNow)
		if err := svc.Cancel(ctx, id); err != nil {
			t.Fatalf("first Cancel() error = %v", err)
		}
		if err := svc.Cancel(ctx, id); !errors.Is(err, booking.ErrNotScheduled) {
			t.Errorf("second Cancel() error = %v, want ErrNotScheduled", err)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		fs := newFakeStore()
		svc, _ := newService(fs, clinicNow)
		if err := svc.Cancel(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
			t.Errorf("Cancel() error = %v, want ErrNotFound", err)
		}
	})
}

// ---------------------------------------------------------------------------
// Reads
// ---------------------------------------------------------------------------

func TestGetByIDLazyCompletion(t *testing.T) {
	ctx := context.Background()
	fs := newFakeStore()
	doctorID, patientID := fs.addDoctor(), fs.addPatient()
	at := clinicNow.Add(time.Hour)

	svc, _ := newService(fs, clinicNow)
	v, err := svc.Book(ctx, BookRequest{PatientID: patientID, DoctorID: doctorID, ScheduledAt: at})
	if err != nil {
		t.Fatalf("Book() error = %v", err)
	}

	later, _ := newService(fs, at.Add(time.Minute))
	got, err := later.GetByID(ctx, v.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Status != domain.StatusCompleted {
		t.Errorf("status = %s, want completed", got.Status)
	}
	if got.CanCancel {
		t.Error("CanCancel = true for a completed appointment")
	}

	// The transition must have been persisted, not just reflected in
	// the returned view.
	stored, _ := fs.GetAppointment(ctx, v.ID)
	if stored.Status != domain.StatusCompleted {
		t.Errorf("stored status = %s, want completed", stored.Status)
	}
}

func TestListForPatient(t *testing.T) {
	ctx := context.Background()
	fs := newFakeStore()
	doctorID, patientID := fs.addDoctor(), fs.addPatient()

	svc, _ := newService(fs, clinicNow)
	for _, offset := range []time.Duration{time.Hour, 3 * time.Hour, 26 * time.Hour} {
		_, err := svc.Book(ctx, BookRequest{
			PatientID:   patientID,
			DoctorID:    doctorID,
			ScheduledAt: clinicNow.Add(offset),
		})
		if err != nil {
			t.Fatalf("Book() error = %v", err)
		}
	}

	// Two hours later the first appointment is overdue.
	later, _ := newService(fs, clinicNow.Add(2*time.Hour))
	views, err := later.ListForPatient(ctx, patientID)
	if err != nil {
		t.Fatalf("ListForPatient() error = %v", err)
	}
	if len(views) != 3 {
		t.Fatalf("len(views) = %d, want 3", len(views))
	}

	var completed int
	for _, v := range views {
		if v.Status == domain.StatusCompleted {
			completed++
			if v.CanCancel {
				t.Error("CanCancel = true for completed appointment")
			}
		}
	}
	if completed != 1 {
		t.Errorf("completed = %d, want 1", completed)
	}

	other, err := later.ListForPatient(ctx, uuid.New())
	if err != nil {
		t.Fatalf("ListForPatient() error = %v", err)
	}
	if len(other) != 0 {
		t.Errorf("len(views) for unknown patient = %d, want 0", len(other))
	}
}
