package booking

import (
	"fmt"
	"time"
)

// The working day is a fixed business rule: 16 half-hour slots from 09:00
// to 17:00 clinic-local time. Doctor-specific working hours are out of
// scope for the engine.
const (
	DayStartHour = 9
	DayEndHour   = 17
	SlotMinutes  = 30
	SlotsPerDay  = (DayEndHour - DayStartHour) * 60 / SlotMinutes
)

// Slot is one bookable interval in a doctor's day grid.
type Slot struct {
	Start       time.Time `json:"-"`
	Time        string    `json:"time"` // "HH:MM"
	IsAvailable bool      `json:"is_available"`
}

const dayLayout = "2006-01-02"

// ParseDay parses a strict YYYY-MM-DD date. Anything else, including
// near-miss forms like "2024-6-10", fails with ErrInvalidDate; the engine
// never guesses a nearby valid date.
func ParseDay(s string) (time.Time, error) {
	day, err := time.ParseInLocation(dayLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	if day.Format(dayLayout) != s {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return day, nil
}

// DayGrid generates the ordered slot grid for one day, marking occupancy
// against the starts of existing scheduled appointments. A slot is taken
// when an appointment's time of day falls within [slot, slot+30m). The
// grid is a pure function of its inputs; it performs no writes.
func DayGrid(day time.Time, booked []time.Time) []Slot {
	occupied := make(map[int]bool, len(booked))
	for _, b := range booked {
		m := b.Hour()*60 + b.Minute()
		if m < DayStartHour*60 || m >= DayEndHour*60 {
			continue
		}
		occupied[(m-DayStartHour*60)/SlotMinutes] = true
	}

	slots := make([]Slot, 0, SlotsPerDay)
	for i := 0; i < SlotsPerDay; i++ {
		start := time.Date(day.Year(), day.Month(), day.Day(), DayStartHour, 0, 0, 0, day.Location()).
			Add(time.Duration(i*SlotMinutes) * time.Minute)
		slots = append(slots, Slot{
			Start:       start,
			Time:        start.Format("15:04"),
			IsAvailable: !occupied[i],
		})
	}
	return slots
}
