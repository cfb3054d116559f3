package appointment

import "errors"

// Booking and cancellation rule violations surface as the sentinels in
// internal/booking; this package only adds lookup failures.
var (
	ErrNotFound        = errors.New("appointment not found")
	ErrPatientNotFound = errors.New("patient not found")
	ErrDoctorNotFound  = errors.New("doctor not found")
)
