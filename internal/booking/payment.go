package booking

import (
	"context"
	"errors"
	"strings"

	"github.com/metinatakli/cinema-booking/internal/domain"
	"github.com/shopspring/decimal"
)

type PaymentInput struct {
	BookingID      int
	IdempotencyKey string
	Amount         decimal.Decimal
}

// ConfirmPayment settles a PENDING booking and credits the user's loyalty points. Repeating a
// confirmation with the same idempotency key returns the recorded confirmation and resumes the
// points credit if it never completed.
func (s *Service) ConfirmPayment(ctx context.Context, input PaymentInput) (*domain.PaymentConfirmation, error) {
	key := strings.TrimSpace(input.IdempotencyKey)
	if key == "" {
		return nil, domain.NewValidationError("an idempotency key is required")
	}

	replay, err := s.replayConfirmation(ctx, input.BookingID, key)
	if err != nil || replay != nil {
		return replay, err
	}

	current, err := s.bookings.GetByID(ctx, input.BookingID)
	if err != nil {
		return nil, err
	}

	if !input.Amount.Equal(current.TotalPrice) {
		return nil, domain.NewValidationError("payment amount %s does not match the booking total %s",
			input.Amount, current.TotalPrice)
	}

	payment := &domain.PaymentConfirmation{
		IdempotencyKey: key,
		Amount:         input.Amount,
		Points:         s.pointsFor(current.TotalPrice),
	}

	var released bool

	booking, err := s.bookings.ChangeStatus(ctx, input.BookingID, domain.StatusChange{
		To:           domain.BookingStatusPaid,
		From:         []domain.BookingStatus{domain.BookingStatusPending},
		Payment:      payment,
		BeforeCommit: s.releaseSeats(&released),
	})
	if err != nil {
		// A concurrent confirmation with the same key may have won the row lock.
		if errors.Is(err, domain.ErrIdempotencyKeyReused) || errors.Is(err, domain.ErrInvalidTransition) {
			replay, replayErr := s.replayConfirmation(ctx, input.BookingID, key)
			if replayErr != nil || replay != nil {
				return replay, replayErr
			}
		}

		return nil, err
	}

	s.emitStatusChanged(ctx, booking, domain.BookingStatusPending, released)
	s.emit(ctx, domain.EventBookingPaid, domain.BookingStatusChangedEvent{
		BookingID:  booking.ID,
		ShowtimeID: booking.ShowtimeID,
		From:       domain.BookingStatusPending,
		To:         booking.Status,
	})

	s.creditPoints(ctx, booking.UserID, payment)

	return payment, nil
}

// replayConfirmation returns the confirmation already recorded under key, or nil when the key is
// unused. A key recorded for a different booking is rejected.
func (s *Service) replayConfirmation(
	ctx context.Context,
	bookingID int,
	key string) (*domain.PaymentConfirmation, error) {

	existing, err := s.payments.GetByIdempotencyKey(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, nil
		}

		return nil, err
	}

	if existing.BookingID != bookingID {
		return nil, domain.ErrIdempotencyKeyReused
	}

	existing.Replayed = true

	if !existing.PointsCredited() && existing.Points > 0 {
		booking, err := s.bookings.GetByID(ctx, bookingID)
		if err != nil {
			return nil, err
		}

		s.creditPoints(ctx, booking.UserID, existing)
	}

	return existing, nil
}

// RetryPendingPointCredits re-attempts loyalty credits that failed after their payment committed.
// It returns the number of confirmations credited.
func (s *Service) RetryPendingPointCredits(ctx context.Context) (int, error) {
	pending, err := s.payments.GetUncredited(ctx, uncreditedBatchMax)
	if err != nil {
		return 0, err
	}

	credited := 0

	for i := range pending {
		payment := &pending[i]

		booking, err := s.bookings.GetByID(ctx, payment.BookingID)
		if err != nil {
			s.logger.Warn("skipping points credit for unknown booking",
				"booking_id", payment.BookingID, "error", err)
			continue
		}

		if s.creditPoints(ctx, booking.UserID, payment) {
			credited++
		}
	}

	return credited, nil
}

// creditPoints reports whether the confirmation's points are credited once it returns.
func (s *Service) creditPoints(ctx context.Context, userID int, payment *domain.PaymentConfirmation) bool {
	if payment.PointsCredited() {
		return true
	}

	if payment.Points <= 0 {
		return false
	}

	err := s.points.CreditPoints(ctx, userID, payment.Points, payment.IdempotencyKey)
	if err != nil {
		s.logger.Warn("failed to credit loyalty points, will retry",
			"booking_id", payment.BookingID, "user_id", userID, "points", payment.Points, "error", err)
		return false
	}

	err = s.payments.MarkPointsCredited(ctx, payment.ID)
	if err != nil {
		s.logger.Error("points credited but not recorded",
			"payment_id", payment.ID, "booking_id", payment.BookingID, "error", err)
		return false
	}

	now := s.now()
	payment.PointsCreditedAt = &now

	return true
}

func (s *Service) pointsFor(total decimal.Decimal) int64 {
	return total.Div(s.pointsUnit).Floor().IntPart()
}
