package booking

import "errors"

// Rule rejections. All of these are recoverable policy outcomes returned
// to the caller, never fatal.
var (
	ErrInvalidDate  = errors.New("date must be in YYYY-MM-DD form")
	ErrPastDate     = errors.New("cannot create appointments in the past")
	ErrSlotTaken    = errors.New("this time slot is already booked")
	ErrNotScheduled = errors.New("appointment is not in scheduled state")
	ErrAlreadyPast  = errors.New("cannot cancel past appointments")
	ErrTooLate      = errors.New("cannot cancel appointments less than 1 hour before the scheduled time")
)
