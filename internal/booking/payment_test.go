package booking

import (
	"context"
	"errors"

	"github.com/metinatakli/cinema-booking/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

func (s *ServiceTestSuite) TestConfirmPayment() {
	total := decimal.NewFromInt(150000)

	tests := []struct {
		name         string
		input        PaymentInput
		setupMocks   func()
		wantErr      error
		wantReplayed bool
		wantCredited bool
	}{
		{
			name:    "should require an idempotency key",
			input:   PaymentInput{BookingID: 7, IdempotencyKey: "  ", Amount: total},
			wantErr: domain.ErrValidation,
		},
		{
			name:  "should reject a key used for another booking",
			input: PaymentInput{BookingID: 7, IdempotencyKey: "key-1", Amount: total},
			setupMocks: func() {
				s.payments.On("GetByIdempotencyKey", mock.Anything, "key-1").
					Return(&domain.PaymentConfirmation{ID: 1, BookingID: 99}, nil).Once()
			},
			wantErr: domain.ErrIdempotencyKeyReused,
		},
		{
			name:  "should reject an amount that differs from the total",
			input: PaymentInput{BookingID: 7, IdempotencyKey: "key-1", Amount: decimal.NewFromInt(1)},
			setupMocks: func() {
				s.payments.On("GetByIdempotencyKey", mock.Anything, "key-1").
					Return(nil, domain.ErrRecordNotFound).Once()
				s.bookings.On("GetByID", mock.Anything, 7).Return(pendingBooking(), nil).Once()
			},
			wantErr: domain.ErrValidation,
		},
		{
			name:  "should reject payment of a cancelled booking",
			input: PaymentInput{BookingID: 7, IdempotencyKey: "key-1", Amount: total},
			setupMocks: func() {
				s.payments.On("GetByIdempotencyKey", mock.Anything, "key-1").
					Return(nil, domain.ErrRecordNotFound).Twice()
				s.bookings.On("GetByID", mock.Anything, 7).Return(pendingBooking(), nil).Once()
				s.bookings.On("ChangeStatus", mock.Anything, 7, mock.Anything).
					Return(nil, &domain.TransitionError{
						From: domain.BookingStatusCancelled,
						To:   domain.BookingStatusPaid,
					}).Once()
			},
			wantErr: domain.ErrInvalidTransition,
		},
		{
			name:  "should pay, release seats and credit points",
			input: PaymentInput{BookingID: 7, IdempotencyKey: "key-1", Amount: total},
			setupMocks: func() {
				paid := withStatus(pendingBooking(), domain.BookingStatusPaid)

				s.payments.On("GetByIdempotencyKey", mock.Anything, "key-1").
					Return(nil, domain.ErrRecordNotFound).Once()
				s.bookings.On("GetByID", mock.Anything, 7).Return(pendingBooking(), nil).Once()
				s.bookings.On("ChangeStatus", mock.Anything, 7, mock.MatchedBy(func(change domain.StatusChange) bool {
					return change.To == domain.BookingStatusPaid &&
						change.Payment != nil &&
						change.Payment.IdempotencyKey == "key-1" &&
						change.Payment.Points == 150
				})).
					Run(func(args mock.Arguments) {
						args.Get(2).(domain.StatusChange).Payment.ID = 11
						runHook(paid)(args)
					}).
					Return(paid, nil).Once()
				s.seats.On("ReleaseSeats", mock.Anything, "65f1c0ffee", []int{4, 5}).Return(nil).Once()
				s.events.On("Emit", mock.Anything, domain.EventBookingStatusChanged, mock.Anything).Return(nil).Once()
				s.events.On("Emit", mock.Anything, domain.EventSeatsReleased, mock.Anything).Return(nil).Once()
				s.events.On("Emit", mock.Anything, domain.EventBookingPaid, mock.Anything).Return(nil).Once()
				s.points.On("CreditPoints", mock.Anything, 3, int64(150), "key-1").Return(nil).Once()
				s.payments.On("MarkPointsCredited", mock.Anything, 11).Return(nil).Once()
			},
			wantCredited: true,
		},
		{
			name:  "should keep the payment when the points credit fails",
			input: PaymentInput{BookingID: 7, IdempotencyKey: "key-1", Amount: total},
			setupMocks: func() {
				paid := withStatus(pendingBooking(), domain.BookingStatusPaid)

				s.payments.On("GetByIdempotencyKey", mock.Anything, "key-1").
					Return(nil, domain.ErrRecordNotFound).Once()
				s.bookings.On("GetByID", mock.Anything, 7).Return(pendingBooking(), nil).Once()
				s.bookings.On("ChangeStatus", mock.Anything, 7, mock.Anything).
					Run(runHook(paid)).
					Return(paid, nil).Once()
				s.seats.On("ReleaseSeats", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
				s.events.On("Emit", mock.Anything, mock.Anything, mock.Anything).Return(nil).Times(3)
				s.points.On("CreditPoints", mock.Anything, 3, int64(150), "key-1").
					Return(errors.New("user service unavailable")).Once()
			},
		},
		{
			name:  "should replay a recorded confirmation and resume the points credit",
			input: PaymentInput{BookingID: 7, IdempotencyKey: "key-1", Amount: total},
			setupMocks: func() {
				s.payments.On("GetByIdempotencyKey", mock.Anything, "key-1").
					Return(&domain.PaymentConfirmation{
						ID: 11, BookingID: 7, IdempotencyKey: "key-1", Amount: total, Points: 150,
					}, nil).Once()
				s.bookings.On("GetByID", mock.Anything, 7).
					Return(withStatus(pendingBooking(), domain.BookingStatusPaid), nil).Once()
				s.points.On("CreditPoints", mock.Anything, 3, int64(150), "key-1").Return(nil).Once()
				s.payments.On("MarkPointsCredited", mock.Anything, 11).Return(nil).Once()
			},
			wantReplayed: true,
			wantCredited: true,
		},
		{
			name:  "should replay when a concurrent confirmation wins the race",
			input: PaymentInput{BookingID: 7, IdempotencyKey: "key-1", Amount: total},
			setupMocks: func() {
				credited := fixedNow
				s.payments.On("GetByIdempotencyKey", mock.Anything, "key-1").
					Return(nil, domain.ErrRecordNotFound).Once()
				s.bookings.On("GetByID", mock.Anything, 7).Return(pendingBooking(), nil).Once()
				s.bookings.On("ChangeStatus", mock.Anything, 7, mock.Anything).
					Return(nil, domain.ErrIdempotencyKeyReused).Once()
				s.payments.On("GetByIdempotencyKey", mock.Anything, "key-1").
					Return(&domain.PaymentConfirmation{
						ID: 11, BookingID: 7, IdempotencyKey: "key-1", Points: 150, PointsCreditedAt: &credited,
					}, nil).Once()
			},
			wantReplayed: true,
			wantCredited: true,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()
			if tt.setupMocks != nil {
				tt.setupMocks()
			}

			payment, err := s.service.ConfirmPayment(context.Background(), tt.input)

			if tt.wantErr != nil {
				s.Require().ErrorIs(err, tt.wantErr)
				s.Nil(payment)
				s.points.AssertNotCalled(s.T(), "CreditPoints", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
				return
			}

			s.Require().NoError(err)
			s.Equal(tt.wantReplayed, payment.Replayed)
			s.Equal(tt.wantCredited, payment.PointsCredited())
			s.assertMocks()
		})
	}
}

func (s *ServiceTestSuite) TestRetryPendingPointCredits() {
	s.payments.On("GetUncredited", mock.Anything, uncreditedBatchMax).Return([]domain.PaymentConfirmation{
		{ID: 11, BookingID: 7, IdempotencyKey: "key-1", Points: 150},
		{ID: 12, BookingID: 8, IdempotencyKey: "key-2", Points: 20},
		{ID: 13, BookingID: 9, IdempotencyKey: "key-3", Points: 40},
	}, nil).Once()

	s.bookings.On("GetByID", mock.Anything, 7).Return(pendingBooking(), nil).Once()
	s.bookings.On("GetByID", mock.Anything, 8).Return(nil, domain.ErrRecordNotFound).Once()
	s.bookings.On("GetByID", mock.Anything, 9).Return(&domain.Booking{ID: 9, UserID: 5}, nil).Once()

	s.points.On("CreditPoints", mock.Anything, 3, int64(150), "key-1").Return(nil).Once()
	s.points.On("CreditPoints", mock.Anything, 5, int64(40), "key-3").Return(errors.New("timeout")).Once()
	s.payments.On("MarkPointsCredited", mock.Anything, 11).Return(nil).Once()

	credited, err := s.service.RetryPendingPointCredits(context.Background())

	s.Require().NoError(err)
	s.Equal(1, credited)
	s.assertMocks()
}

func (s *ServiceTestSuite) TestPointsFor() {
	tests := []struct {
		name  string
		total decimal.Decimal
		want  int64
	}{
		{name: "whole units", total: decimal.NewFromInt(150000), want: 150},
		{name: "partial unit is dropped", total: decimal.NewFromInt(1999), want: 1},
		{name: "below one unit", total: decimal.NewFromInt(999), want: 0},
		{name: "free booking", total: decimal.Zero, want: 0},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.Equal(tt.want, s.service.pointsFor(tt.total))
		})
	}
}
