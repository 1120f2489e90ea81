package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

const (
	EventSeatsLocked            = "seats_locked"
	EventSeatsReleased          = "seats_released"
	EventBookingStatusChanged   = "booking_status_changed"
	EventBookingPaid            = "booking_paid"
	EventBookingRefundRequested = "booking_refund_requested"
	EventBookingRefundCancelled = "booking_refund_cancelled"
	EventBookingRefunded        = "booking_refunded"
)

// EventEmitter publishes named events to real-time listeners and downstream consumers.
type EventEmitter interface {
	Emit(ctx context.Context, name string, payload any) error
}

type SeatsChangedEvent struct {
	ShowtimeID string `json:"showtimeId"`
	BookingID  int    `json:"bookingId"`
	SeatIDs    []int  `json:"seatIds"`
}

type BookingStatusChangedEvent struct {
	BookingID  int           `json:"bookingId"`
	ShowtimeID string        `json:"showtimeId"`
	From       BookingStatus `json:"from"`
	To         BookingStatus `json:"to"`
}

type RefundEvent struct {
	BookingID         int             `json:"bookingId"`
	UserID            int             `json:"userId"`
	ShowtimeID        string          `json:"showtimeId"`
	Status            BookingStatus   `json:"status"`
	Amount            decimal.Decimal `json:"amount,omitempty"`
	Method            RefundMethod    `json:"method,omitempty"`
	Phone             string          `json:"phone,omitempty"`
	MomoAccountName   string          `json:"momoAccountName,omitempty"`
	BankAccountName   string          `json:"bankAccountName,omitempty"`
	BankName          string          `json:"bankName,omitempty"`
	BankAccountNumber string          `json:"bankAccountNumber,omitempty"`
}
