package domain

import (
	"context"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingStatusPending         BookingStatus = "PENDING"
	BookingStatusPaid            BookingStatus = "PAID"
	BookingStatusCancelled       BookingStatus = "CANCELLED"
	BookingStatusRefundRequested BookingStatus = "REFUND_REQUESTED"
	BookingStatusRefunded        BookingStatus = "REFUNDED"
)

// ActiveBookingStatuses are the statuses whose seats count as held for a showtime.
var ActiveBookingStatuses = []BookingStatus{
	BookingStatusPending,
	BookingStatusPaid,
	BookingStatusRefundRequested,
}

func (s BookingStatus) String() string {
	return string(s)
}

func (s BookingStatus) IsKnown() bool {
	switch s {
	case BookingStatusPending,
		BookingStatusPaid,
		BookingStatusCancelled,
		BookingStatusRefundRequested,
		BookingStatusRefunded:
		return true
	}

	return false
}

func (s BookingStatus) IsActive() bool {
	return slices.Contains(ActiveBookingStatuses, s)
}

// ReleasesSeats reports whether entering s frees the booking's seats in the availability cache.
func (s BookingStatus) ReleasesSeats() bool {
	return s == BookingStatusPaid || s == BookingStatusCancelled || s == BookingStatusRefunded
}

type Booking struct {
	ID         int
	UserID     int
	ShowtimeID string
	RoomID     int
	MovieID    string
	TotalPrice decimal.Decimal
	Status     BookingStatus
	SeatIDs    []int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type CreateBookingInput struct {
	UserID     int
	ShowtimeID string
	RoomID     int
	MovieID    string
	SeatIDs    []int
	TotalPrice decimal.Decimal
}

// StatusChange describes a guarded status update applied to a locked booking row.
type StatusChange struct {
	To   BookingStatus
	From []BookingStatus

	// Refund is inserted in the same transaction when moving into REFUND_REQUESTED.
	Refund *RefundRequest

	// Payment is inserted in the same transaction; a duplicate idempotency key aborts the change.
	Payment *PaymentConfirmation

	// BeforeCommit runs inside the transaction after the row is updated. It cannot veto the change.
	BeforeCommit func(ctx context.Context, booking Booking)
}

type BookingRepository interface {
	Create(ctx context.Context, booking *Booking) error
	GetByID(ctx context.Context, id int) (*Booking, error)
	GetAll(ctx context.Context, pagination Pagination) ([]Booking, *Metadata, error)
	GetByUserID(ctx context.Context, userID int) ([]Booking, error)
	GetLockedSeatIDs(ctx context.Context, showtimeID string) ([]int, error)
	GetPendingCreatedBefore(ctx context.Context, cutoff time.Time) ([]Booking, error)
	ChangeStatus(ctx context.Context, id int, change StatusChange) (*Booking, error)
	GetRefundRequest(ctx context.Context, bookingID int) (*RefundRequest, error)
	Delete(ctx context.Context, id int) (*Booking, error)
}
