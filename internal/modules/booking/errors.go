package booking

import "errors"

var (
	// ErrSlotConflict means a concurrent claim won the race; the client
	// should re-fetch slots rather than retry blindly.
	ErrSlotConflict = errors.New("slot already claimed")

	// ErrInvalidSlot means the requested time is not a slot the generator
	// produces for that doctor and date; the client held stale data.
	ErrInvalidSlot = errors.New("requested time is not a bookable slot")

	// ErrAlreadyProcessed is the idempotency guard on lifecycle operations
	// against appointments in a terminal state.
	ErrAlreadyProcessed = errors.New("appointment already processed")

	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrValidation              = errors.New("validation error")
	ErrNotFound                = errors.New("appointment not found")
)
