package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	ErrSlotConflict = errors.New("slot already booked")

	ErrAlreadyCancelled = errors.New("booking is already cancelled")

	ErrOutsideDayWindow = errors.New("booking falls outside the bookable day")

	ErrMisalignedSlot = errors.New("washer bookings must cover whole slots")

	ErrMissingReason = errors.New("a cancellation reason is required")
)
