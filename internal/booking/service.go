// Package booking implements the booking lifecycle: seat holds, status transitions, refunds and
// the payment confirmation saga. The ledger is authoritative; the seat cache and emitted events
// are kept in step on a best-effort basis.
package booking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/metinatakli/cinema-booking/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	DefaultHoldTTL     = 15 * time.Minute
	uncreditedBatchMax = 100
)

var defaultPointsUnit = decimal.NewFromInt(1000)

type Service struct {
	bookings domain.BookingRepository
	payments domain.PaymentRepository
	seats    domain.SeatLocker
	events   domain.EventEmitter
	points   domain.PointsCreditor
	logger   *slog.Logger

	holdTTL    time.Duration
	pointsUnit decimal.Decimal
	now        func() time.Time
}

type Option func(*Service)

// WithHoldTTL sets how long a PENDING booking may wait for payment before it is cancelled.
func WithHoldTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.holdTTL = ttl
	}
}

// WithPointsUnit sets the amount of money that earns one loyalty point.
func WithPointsUnit(unit decimal.Decimal) Option {
	return func(s *Service) {
		if unit.IsPositive() {
			s.pointsUnit = unit
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(
	bookings domain.BookingRepository,
	payments domain.PaymentRepository,
	seats domain.SeatLocker,
	events domain.EventEmitter,
	points domain.PointsCreditor,
	logger *slog.Logger,
	opts ...Option) *Service {

	s := &Service{
		bookings:   bookings,
		payments:   payments,
		seats:      seats,
		events:     events,
		points:     points,
		logger:     logger,
		holdTTL:    DefaultHoldTTL,
		pointsUnit: defaultPointsUnit,
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Service) Create(ctx context.Context, input domain.CreateBookingInput) (*domain.Booking, error) {
	err := validateCreate(input)
	if err != nil {
		return nil, err
	}

	booking := &domain.Booking{
		UserID:     input.UserID,
		ShowtimeID: input.ShowtimeID,
		RoomID:     input.RoomID,
		MovieID:    input.MovieID,
		TotalPrice: input.TotalPrice,
		Status:     domain.BookingStatusPending,
		SeatIDs:    input.SeatIDs,
	}

	err = s.bookings.Create(ctx, booking)
	if err != nil {
		return nil, err
	}

	err = s.seats.LockSeats(ctx, booking.ShowtimeID, booking.SeatIDs)
	if err != nil {
		s.logger.Warn("failed to lock seats in cache",
			"booking_id", booking.ID, "showtime_id", booking.ShowtimeID, "error", err)
	}

	s.emit(ctx, domain.EventSeatsLocked, domain.SeatsChangedEvent{
		ShowtimeID: booking.ShowtimeID,
		BookingID:  booking.ID,
		SeatIDs:    booking.SeatIDs,
	})

	return booking, nil
}

func validateCreate(input domain.CreateBookingInput) error {
	switch {
	case input.UserID < 1:
		return domain.NewValidationError("userId is required")
	case input.ShowtimeID == "":
		return domain.NewValidationError("showtimeId is required")
	case input.RoomID < 1:
		return domain.NewValidationError("roomId is required")
	case input.MovieID == "":
		return domain.NewValidationError("movieId is required")
	case len(input.SeatIDs) == 0:
		return domain.NewValidationError("at least one seat must be selected")
	case input.TotalPrice.IsNegative():
		return domain.NewValidationError("totalPrice must not be negative")
	}

	seen := make(map[int]bool, len(input.SeatIDs))
	for _, id := range input.SeatIDs {
		if id < 1 {
			return domain.NewValidationError("seat id %d is invalid", id)
		}
		if seen[id] {
			return domain.NewValidationError("seat %d is selected more than once", id)
		}
		seen[id] = true
	}

	return nil
}

func (s *Service) Get(ctx context.Context, id int) (*domain.Booking, error) {
	return s.bookings.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, pagination domain.Pagination) ([]domain.Booking, *domain.Metadata, error) {
	return s.bookings.GetAll(ctx, pagination)
}

func (s *Service) ListByUser(ctx context.Context, userID int) ([]domain.Booking, error) {
	return s.bookings.GetByUserID(ctx, userID)
}

func (s *Service) GetRefundRequest(ctx context.Context, bookingID int) (*domain.RefundRequest, error) {
	return s.bookings.GetRefundRequest(ctx, bookingID)
}

// LockedSeats returns the seats currently held for the showtime.
func (s *Service) LockedSeats(ctx context.Context, showtimeID string) ([]int, error) {
	if showtimeID == "" {
		return nil, domain.NewValidationError("showtimeId is required")
	}

	return s.seats.GetLockedSeats(ctx, showtimeID)
}

// UpdateStatus applies an administrative transition. Only PENDING bookings can be moved here,
// to PAID or CANCELLED. Refund transitions have their own operations.
func (s *Service) UpdateStatus(ctx context.Context, id int, status domain.BookingStatus) (*domain.Booking, error) {
	if !status.IsKnown() {
		return nil, domain.NewValidationError("unknown booking status %q", status)
	}

	if status == domain.BookingStatusRefundRequested {
		return nil, domain.NewValidationError("refund requests must be submitted with payee details")
	}

	if status != domain.BookingStatusPaid && status != domain.BookingStatusCancelled {
		current, err := s.bookings.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		return nil, &domain.TransitionError{From: current.Status, To: status}
	}

	var released bool

	booking, err := s.bookings.ChangeStatus(ctx, id, domain.StatusChange{
		To:           status,
		From:         []domain.BookingStatus{domain.BookingStatusPending},
		BeforeCommit: s.releaseSeats(&released),
	})
	if err != nil {
		return nil, err
	}

	s.emitStatusChanged(ctx, booking, domain.BookingStatusPending, released)

	return booking, nil
}

type RefundInput struct {
	BookingID         int
	Amount            decimal.Decimal
	Method            domain.RefundMethod
	Phone             string
	MomoAccountName   string
	BankAccountName   string
	BankName          string
	BankAccountNumber string
}

// RequestRefund moves a PAID booking into REFUND_REQUESTED and records the payee details.
func (s *Service) RequestRefund(ctx context.Context, input RefundInput) (*domain.RefundRequest, error) {
	refund := &domain.RefundRequest{
		Amount:            input.Amount,
		Method:            input.Method,
		Phone:             input.Phone,
		MomoAccountName:   input.MomoAccountName,
		BankAccountName:   input.BankAccountName,
		BankName:          input.BankName,
		BankAccountNumber: input.BankAccountNumber,
	}

	switch refund.Method {
	case domain.RefundMethodBankTransfer, domain.RefundMethodMobileWallet:
	default:
		return nil, domain.NewValidationError("refund method must be %s or %s",
			domain.RefundMethodBankTransfer, domain.RefundMethodMobileWallet)
	}

	if missing := refund.MissingDetails(); len(missing) > 0 {
		return nil, domain.NewValidationError("%s refunds require %v", refund.Method, missing)
	}

	if !refund.Amount.IsPositive() {
		return nil, domain.NewValidationError("refund amount must be greater than zero")
	}

	current, err := s.bookings.GetByID(ctx, input.BookingID)
	if err != nil {
		return nil, err
	}

	if refund.Amount.GreaterThan(current.TotalPrice) {
		return nil, domain.NewValidationError("refund amount %s exceeds the booking total %s",
			refund.Amount, current.TotalPrice)
	}

	booking, err := s.bookings.ChangeStatus(ctx, input.BookingID, domain.StatusChange{
		To:     domain.BookingStatusRefundRequested,
		From:   []domain.BookingStatus{domain.BookingStatusPaid},
		Refund: refund,
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, domain.EventBookingRefundRequested, refundEvent(booking, refund))

	return refund, nil
}

// CancelRefund withdraws a pending refund request and restores the booking to PAID.
func (s *Service) CancelRefund(ctx context.Context, bookingID int) (*domain.Booking, error) {
	booking, err := s.bookings.ChangeStatus(ctx, bookingID, domain.StatusChange{
		To:   domain.BookingStatusPaid,
		From: []domain.BookingStatus{domain.BookingStatusRefundRequested},
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, domain.EventBookingRefundCancelled, refundEvent(booking, nil))

	return booking, nil
}

// FinalizeRefund marks a refund as paid out. The booking becomes REFUNDED and its seats are freed.
func (s *Service) FinalizeRefund(ctx context.Context, bookingID int) (*domain.Booking, error) {
	refund, err := s.bookings.GetRefundRequest(ctx, bookingID)
	if err != nil && !errors.Is(err, domain.ErrRecordNotFound) {
		return nil, err
	}

	var released bool

	booking, err := s.bookings.ChangeStatus(ctx, bookingID, domain.StatusChange{
		To:           domain.BookingStatusRefunded,
		From:         []domain.BookingStatus{domain.BookingStatusRefundRequested},
		BeforeCommit: s.releaseSeats(&released),
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, domain.EventBookingRefunded, refundEvent(booking, refund))
	if released {
		s.emitSeatsReleased(ctx, booking)
	}

	return booking, nil
}

// Delete removes a booking with everything attached to it. The showtime's cache entry is dropped
// afterwards so the next read rebuilds it from the ledger.
func (s *Service) Delete(ctx context.Context, id int) (*domain.Booking, error) {
	booking, err := s.bookings.Delete(ctx, id)
	if err != nil {
		return nil, err
	}

	err = s.seats.Invalidate(ctx, booking.ShowtimeID)
	if err != nil {
		s.logger.Warn("failed to invalidate seat cache",
			"booking_id", booking.ID, "showtime_id", booking.ShowtimeID, "error", err)
	}

	s.emitSeatsReleased(ctx, booking)

	return booking, nil
}

// ExpireStaleHolds cancels PENDING bookings older than the hold TTL and frees their seats.
// It returns the number of bookings cancelled.
func (s *Service) ExpireStaleHolds(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.holdTTL)

	stale, err := s.bookings.GetPendingCreatedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	expired := 0

	for _, candidate := range stale {
		var released bool

		booking, err := s.bookings.ChangeStatus(ctx, candidate.ID, domain.StatusChange{
			To:           domain.BookingStatusCancelled,
			From:         []domain.BookingStatus{domain.BookingStatusPending},
			BeforeCommit: s.releaseSeats(&released),
		})
		if err != nil {
			if errors.Is(err, domain.ErrInvalidTransition) || errors.Is(err, domain.ErrRecordNotFound) {
				continue
			}

			return expired, err
		}

		expired++
		s.emitStatusChanged(ctx, booking, domain.BookingStatusPending, released)
	}

	if expired > 0 {
		s.logger.Info("expired stale booking holds", "count", expired, "cutoff", cutoff)
	}

	return expired, nil
}

// releaseSeats returns a hook that frees the booking's seats in the cache before the status
// change commits. Cache failures are logged and never abort the transition.
func (s *Service) releaseSeats(released *bool) func(context.Context, domain.Booking) {
	return func(ctx context.Context, booking domain.Booking) {
		if !booking.Status.ReleasesSeats() || len(booking.SeatIDs) == 0 {
			return
		}

		*released = true

		err := s.seats.ReleaseSeats(ctx, booking.ShowtimeID, booking.SeatIDs)
		if err != nil {
			s.logger.Warn("failed to release seats in cache",
				"booking_id", booking.ID, "showtime_id", booking.ShowtimeID, "error", err)
		}
	}
}

func (s *Service) emit(ctx context.Context, name string, payload any) {
	err := s.events.Emit(ctx, name, payload)
	if err != nil {
		s.logger.Warn("failed to emit event", "event", name, "error", err)
	}
}

func (s *Service) emitStatusChanged(ctx context.Context, booking *domain.Booking, from domain.BookingStatus, released bool) {
	s.emit(ctx, domain.EventBookingStatusChanged, domain.BookingStatusChangedEvent{
		BookingID:  booking.ID,
		ShowtimeID: booking.ShowtimeID,
		From:       from,
		To:         booking.Status,
	})

	if released {
		s.emitSeatsReleased(ctx, booking)
	}
}

func (s *Service) emitSeatsReleased(ctx context.Context, booking *domain.Booking) {
	s.emit(ctx, domain.EventSeatsReleased, domain.SeatsChangedEvent{
		ShowtimeID: booking.ShowtimeID,
		BookingID:  booking.ID,
		SeatIDs:    booking.SeatIDs,
	})
}

func refundEvent(booking *domain.Booking, refund *domain.RefundRequest) domain.RefundEvent {
	event := domain.RefundEvent{
		BookingID:  booking.ID,
		UserID:     booking.UserID,
		ShowtimeID: booking.ShowtimeID,
		Status:     booking.Status,
	}

	if refund != nil {
		event.Amount = refund.Amount
		event.Method = refund.Method
		event.Phone = refund.Phone
		event.MomoAccountName = refund.MomoAccountName
		event.BankAccountName = refund.BankAccountName
		event.BankName = refund.BankName
		event.BankAccountNumber = refund.BankAccountNumber
	}

	return event
}
