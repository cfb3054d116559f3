package booking

import (
	"errors"
	"testing"
	"time"
)

func TestParseDay(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{name: "valid", in: "2024-06-10"},
		{name: "missing leading zero", in: "2024-6-10", wantErr: true},
		{name: "garbage", in: "next tuesday", wantErr: true},
		{name: "wrong separator", in: "2024/06/10", wantErr: true},
		{name: "out of range month", in: "2024-13-01", wantErr: true},
		{name: "empty", in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			day, err := ParseDay(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidDate) {
					t.Errorf("ParseDay(%q) error = %v, want ErrInvalidDate", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDay(%q) error = %v", tt.in, err)
			}
			if got := day.Format("2006-01-02"); got != tt.in {
				t.Errorf("ParseDay(%q) = %s", tt.in, got)
			}
		})
	}
}

func TestDayGridShape(t *testing.T) {
	day, _ := ParseDay("2024-06-10")
	slots := DayGrid(day, nil)

	if len(slots) != SlotsPerDay {
		t.Fatalf("len(slots) = %d, want %d", len(slots), SlotsPerDay)
	}
	if slots[0].Time != "09:00" {
		t.Errorf("first slot = %s, want 09:00", slots[0].Time)
	}
	if slots[len(slots)-1].Time != "16:30" {
		t.Errorf("last slot = %s, want 16:30", slots[len(slots)-1].Time)
	}

	for i, s := range slots {
		if !s.IsAvailable {
			t.Errorf("slot %s unavailable on an empty day", s.Time)
		}
		if i == 0 {
			continue
		}
		if step := s.Start.Sub(slots[i-1].Start); step != SlotMinutes*time.Minute {
			t.Errorf("step between %s and %s = %v", slots[i-1].Time, s.Time, step)
		}
	}
}

func TestDayGridOccupancy(t *testing.T) {
	day, _ := ParseDay("2024-06-10")

	tests := []struct {
		name        string
		booked      []time.Time
		unavailable []string
	}{
		{
			name:        "booking on the slot boundary",
			booked:      []time.Time{time.Date(2024, 6, 10, 9, 0, 0, 0, time.Local)},
			unavailable: []string{"09:00"},
		},
		{
			name:        "booking inside a slot window",
			booked:      []time.Time{time.Date(2024, 6, 10, 9, 15, 0, 0, time.Local)},
			unavailable: []string{"09:00"},
		},
		{
			name: "multiple bookings",
			booked: []time.Time{
				time.Date(2024, 6, 10, 10, 0, 0, 0, time.Local),
				time.Date(2024, 6, 10, 16, 30, 0, 0, time.Local),
			},
			unavailable: []string{"10:00", "16:30"},
		},
		{
			name:        "booking outside working hours is ignored",
			booked:      []time.Time{time.Date(2024, 6, 10, 8, 0, 0, 0, time.Local)},
			unavailable: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slots := DayGrid(day, tt.booked)

			want := make(map[string]bool, len(tt.unavailable))
			for _, s := range tt.unavailable {
				want[s] = true
			}

			for _, s := range slots {
				if s.IsAvailable == want[s.Time] {
					t.Errorf("slot %s available = %v, want %v", s.Time, s.IsAvailable, !want[s.Time])
				}
			}
		})
	}
}

func TestDayGridIsPure(t *testing.T) {
	day, _ := ParseDay("2024-06-10")
	booked := []time.Time{time.Date(2024, 6, 10, 9, 0, 0, 0, time.Local)}

	first := DayGrid(day, booked)
	second := DayGrid(day, booked)

	if len(first) != len(second) {
		t.Fatalf("grid length changed between calls: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Time != second[i].Time || first[i].IsAvailable != second[i].IsAvailable {
			t.Errorf("slot %d differs between calls: %+v vs %+v", i, first[i], second[i])
		}
	}
}
