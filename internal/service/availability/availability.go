// Package availability serves the per-doctor day grid of bookable slots.
// Grids are cached in Redis with a short TTL and invalidated on every
// booking or cancellation that touches the day.
package availability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/clinicbook/backend/internal/booking"
	"github.com/clinicbook/backend/internal/store"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type Grid struct {
	DoctorID uuid.UUID      `json:"doctor_id"`
	Date     string         `json:"date"` // YYYY-MM-DD
	Slots    []booking.Slot `json:"slots"`
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	// DaySlots returns the 16-slot grid for the doctor's day. The date
	// must be strict YYYY-MM-DD; anything else fails with
	// booking.ErrInvalidDate.
	DaySlots(ctx context.Context, doctorID uuid.UUID, date string) (*Grid, error)

	// Invalidate drops the cached grid covering the given instant's day.
	Invalidate(ctx context.Context, doctorID uuid.UUID, day time.Time)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type availabilityService struct {
	appts   store.AppointmentStore
	doctors store.DoctorStore
	rdb     *redis.Client
	ttl     time.Duration
}

// New builds the service. rdb may be nil; caching is then skipped.
func New(appts store.AppointmentStore, doctors store.DoctorStore, rdb *redis.Client, ttl time.Duration) Service {
	return &availabilityService{appts: appts, doctors: doctors, rdb: rdb, ttl: ttl}
}

func (s *availabilityService) DaySlots(ctx context.Context, doctorID uuid.UUID, date string) (*Grid, error) {
	day, err := booking.ParseDay(date)
	if err != nil {
		return nil, err
	}

	if _, err := s.doctors.GetDoctor(ctx, doctorID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrDoctorNotFound
		}
		return nil, fmt.Errorf("look up doctor: %w", err)
	}

	key := gridKey(doctorID, day)
	if grid := s.cached(ctx, key); grid != nil {
		return grid, nil
	}

	appts, err := s.appts.ListScheduledForDoctorDay(ctx, doctorID, day)
	if err != nil {
		return nil, fmt.Errorf("list day appointments: %w", err)
	}

	booked := make([]time.Time, 0, len(appts))
	for _, a := range appts {
		booked = append(booked, a.ScheduledAt)
	}

	grid := &Grid{
		DoctorID: doctorID,
		Date:     day.Format("2006-01-02"),
		Slots:    booking.DayGrid(day, booked),
	}

	s.put(ctx, key, grid)
	return grid, nil
}

func (s *availabilityService) Invalidate(ctx context.Context, doctorID uuid.UUID, day time.Time) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, gridKey(doctorID, day)).Err(); err != nil {
		slog.Warn("drop availability cache failed", "doctor_id", doctorID, "err", err)
	}
}

// Cache reads and writes are best effort; any Redis failure falls back to
// the store.
func (s *availabilityService) cached(ctx context.Context, key string) *Grid {
	if s.rdb == nil {
		return nil
	}
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("read availability cache failed", "key", key, "err", err)
		}
		return nil
	}
	var grid Grid
	if err := json.Unmarshal(raw, &grid); err != nil {
		slog.Warn("decode availability cache failed", "key", key, "err", err)
		return nil
	}
	return &grid
}

func (s *availabilityService) put(ctx context.Context, key string, grid *Grid) {
	if s.rdb == nil || s.ttl <= 0 {
		return
	}
	raw, err := json.Marshal(grid)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, key, raw, s.ttl).Err(); err != nil {
		slog.Warn("write availability cache failed", "key", key, "err", err)
	}
}

func gridKey(doctorID uuid.UUID, day time.Time) string {
	return fmt.Sprintf("availability:%s:%s", doctorID, day.Format("2006-01-02"))
}
