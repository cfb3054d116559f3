// Package booking holds the pure scheduling policy: slot-grid generation,
// booking and cancellation validation, and the auto-completion transition.
// Nothing here performs I/O; callers supply the current time and a snapshot
// of existing appointments.
package booking

import (
	"time"

	"github.com/clinicbook/backend/internal/domain"
)

// CancelMinLead is the minimum margin between "now" and the appointment
// start for a cancellation to be accepted. Exactly one hour is allowed;
// anything strictly less is rejected.
const CancelMinLead = time.Hour

// MinuteOf truncates t to minute precision. Slot occupancy and the
// double-booking invariant are defined on this value, so two requests that
// differ only in seconds land on the same slot.
func MinuteOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, t.Location())
}

// ValidateBooking checks the temporal constraint on a new booking.
// Conflict with an existing appointment is checked against the store
// snapshot by the caller (and again by the storage layer at insert time).
func ValidateBooking(requestedAt, now time.Time) error {
	if requestedAt.Before(now) {
		return ErrPastDate
	}
	return nil
}

// ValidateCancellation applies the cancellation policy in order: state,
// pastness, then the one-hour window.
func ValidateCancellation(appt *domain.Appointment, now time.Time) error {
	if appt.Status != domain.StatusScheduled {
		return ErrNotScheduled
	}
	if appt.ScheduledAt.Before(now) {
		return ErrAlreadyPast
	}
	if appt.ScheduledAt.Sub(now) < CancelMinLead {
		return ErrTooLate
	}
	return nil
}

// CanCancel is the read-side predicate behind the UI's "Cancel" button.
// It never mutates anything.
func CanCancel(appt *domain.Appointment, now time.Time) bool {
	return ValidateCancellation(appt, now) == nil
}

// AutoComplete applies the lazy scheduled→completed transition in place
// and reports whether a change was made. Idempotent: re-applying to a
// completed appointment is a no-op.
func AutoComplete(appt *domain.Appointment, now time.Time) bool {
	if appt.Status != domain.StatusScheduled {
		return false
	}
	if !appt.ScheduledAt.Before(now) {
		return false
	}
	appt.Status = domain.StatusCompleted
	return true
}
