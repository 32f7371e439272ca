package errors

import "errors"

var (
	ErrNotFound = errors.New("maintenance interval not found")

	ErrInvalidID = errors.New("invalid maintenance interval ID format")

	ErrInvalidTimeRange = errors.New("end time must be after start time")
)
