package services

import "errors"

// ValidationError is a malformed or missing booking input. The caller can fix it.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// CapacityError is a business-rule rejection: the slot is too close or full.
type CapacityError struct {
	Message string
}

func (e *CapacityError) Error() string { return e.Message }

// PersistenceError wraps a storage failure. The message is the underlying one
// and must not be shown to guests.
type PersistenceError struct {
	Err       error
	Retryable bool
}

func (e *PersistenceError) Error() string { return e.Err.Error() }

func (e *PersistenceError) Unwrap() error { return e.Err }

var (
	ErrDateAndSlotRequired = &ValidationError{Message: "date and time slot required"}
	ErrTooLateToBook       = &CapacityError{Message: "too late to book this slot"}
	ErrSlotFullyBooked     = &CapacityError{Message: "slot fully booked"}

	// ErrCodeCollision marks an insert rejected by the unique code index.
	ErrCodeCollision = errors.New("reservation code already in use")
)

func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsCapacityError(err error) bool {
	var c *CapacityError
	return errors.As(err, &c)
}

func IsPersistenceError(err error) bool {
	var p *PersistenceError
	return errors.As(err, &p)
}
