package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrValidation            = errors.New("validation failed")
	ErrRecordNotFound        = errors.New("record not found")
	ErrEditConflict          = errors.New("edit conflict")
	ErrSeatAlreadyReserved   = errors.New("seat(s) are already reserved")
	ErrInvalidTransition     = errors.New("invalid booking status transition")
	ErrDependencyUnavailable = errors.New("cannot validate referenced entity")
	ErrShowtimeConflict      = errors.New("showtime overlaps an existing showtime")
	ErrDuplicateShowtime     = errors.New("showtime already scheduled")
	ErrNoRoomAvailable       = errors.New("no room available")
	ErrIdempotencyKeyReused  = errors.New("idempotency key already used for another booking")
	ErrOTPNotFound           = errors.New("one-time code not found or has expired")
	ErrOTPMismatch           = errors.New("one-time code does not match")
)

type Category string

const (
	CategoryValidation Category = "validation"
	CategoryNotFound   Category = "not_found"
	CategoryConflict   Category = "conflict"
	CategoryDependency Category = "dependency"
	CategoryInternal   Category = "internal"
)

// CategoryOf classifies err into the error taxonomy exposed to API clients.
func CategoryOf(err error) Category {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrOTPNotFound),
		errors.Is(err, ErrOTPMismatch):
		return CategoryValidation
	case errors.Is(err, ErrRecordNotFound):
		return CategoryNotFound
	case errors.Is(err, ErrEditConflict),
		errors.Is(err, ErrSeatAlreadyReserved),
		errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrShowtimeConflict),
		errors.Is(err, ErrDuplicateShowtime),
		errors.Is(err, ErrNoRoomAvailable),
		errors.Is(err, ErrIdempotencyKeyReused):
		return CategoryConflict
	case errors.Is(err, ErrDependencyUnavailable):
		return CategoryDependency
	default:
		return CategoryInternal
	}
}

func NewValidationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

type SeatConflictError struct {
	ShowtimeID string
	SeatIDs    []int
}

func (e *SeatConflictError) Error() string {
	ids := make([]string, len(e.SeatIDs))
	for i, id := range e.SeatIDs {
		ids[i] = strconv.Itoa(id)
	}

	return fmt.Sprintf("seat(s) %s are already reserved for showtime %s", strings.Join(ids, ", "), e.ShowtimeID)
}

func (e *SeatConflictError) Unwrap() error {
	return ErrSeatAlreadyReserved
}

type TransitionError struct {
	From BookingStatus
	To   BookingStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("booking cannot move from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// ScheduleConflictError identifies the date and slot that blocked a showtime from being scheduled.
type ScheduleConflictError struct {
	Date   string
	Slot   string
	Room   string
	Reason error
}

func (e *ScheduleConflictError) Error() string {
	if e.Room != "" {
		return fmt.Sprintf("%s at %s on %s in room %s", e.Reason, e.Slot, e.Date, e.Room)
	}

	return fmt.Sprintf("%s at %s on %s", e.Reason, e.Slot, e.Date)
}

func (e *ScheduleConflictError) Unwrap() error {
	return e.Reason
}
