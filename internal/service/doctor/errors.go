package doctor

import "errors"

var (
	ErrNotFound   = errors.New("doctor not found")
	ErrEmailTaken = errors.New("a doctor with this email already exists")
	ErrInvalid    = errors.New("name, specialization and email are required")
)
