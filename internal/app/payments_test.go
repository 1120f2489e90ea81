package app

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/metinatakli/cinema-booking/api"
	"github.com/metinatakli/cinema-booking/internal/booking"
	"github.com/metinatakli/cinema-booking/internal/domain"
	"github.com/metinatakli/cinema-booking/internal/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type PaymentsTestSuite struct {
	suite.Suite
	handler  http.Handler
	bookings *mocks.MockBookingRepo
	payments *mocks.MockPaymentRepo
	seats    *mocks.MockSeatLocker
	events   *mocks.MockEventEmitter
	points   *mocks.MockPointsCreditor
	webhook  *mocks.MockPaymentEventParser
}

func (s *PaymentsTestSuite) SetupTest() {
	s.bookings = new(mocks.MockBookingRepo)
	s.payments = new(mocks.MockPaymentRepo)
	s.seats = new(mocks.MockSeatLocker)
	s.events = new(mocks.MockEventEmitter)
	s.points = new(mocks.MockPointsCreditor)
	s.webhook = new(mocks.MockPaymentEventParser)

	s.events.On("Emit", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	app := newTestApplication(func(a *Application) {
		a.bookings = booking.NewService(s.bookings, s.payments, s.seats, s.events, s.points, a.logger)
		a.webhook = s.webhook
	})
	s.handler = app.Routes()
}

func TestPaymentsSuite(t *testing.T) {
	suite.Run(t, new(PaymentsTestSuite))
}

func (s *PaymentsTestSuite) assertMocks() {
	s.bookings.AssertExpectations(s.T())
	s.payments.AssertExpectations(s.T())
	s.points.AssertExpectations(s.T())
	s.webhook.AssertExpectations(s.T())
}

var toPaidWithPayment = mock.MatchedBy(func(c domain.StatusChange) bool {
	return c.To == domain.BookingStatusPaid && c.Payment != nil
})

// recordPayment makes the mocked ChangeStatus persist the payment the way the ledger does.
func recordPayment(args mock.Arguments) {
	payment := args.Get(2).(domain.StatusChange).Payment
	payment.ID = 11
	payment.BookingID = args.Int(1)
	payment.CreatedAt = testCreatedAt
}

func (s *PaymentsTestSuite) TestConfirmPaymentHandler() {
	creditedAt := testCreatedAt.Add(time.Minute)

	tests := []struct {
		name           string
		anonymous      bool
		role           string
		key            string
		body           any
		setupMocks     func()
		wantStatus     int
		wantResponse   *api.PaymentConfirmation
		wantErrMessage string
	}{
		{
			name:       "should require a token",
			anonymous:  true,
			key:        "key-1",
			body:       api.PaymentConfirmationRequest{Amount: decimal.NewFromInt(150000)},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "should reject non-admin token",
			role:       "user",
			key:        "key-1",
			body:       api.PaymentConfirmationRequest{Amount: decimal.NewFromInt(150000)},
			wantStatus: http.StatusForbidden,
		},
		{
			name:           "should fail without idempotency key",
			body:           api.PaymentConfirmationRequest{Amount: decimal.NewFromInt(150000)},
			wantStatus:     http.StatusBadRequest,
			wantErrMessage: "validation failed: an idempotency key is required",
		},
		{
			name:           "should fail when amount is not positive",
			key:            "key-1",
			body:           api.PaymentConfirmationRequest{Amount: decimal.NewFromInt(-5)},
			wantStatus:     http.StatusBadRequest,
			wantErrMessage: "must be greater than zero",
		},
		{
			name: "should fail when amount does not match booking total",
			key:  "key-1",
			body: api.PaymentConfirmationRequest{Amount: decimal.NewFromInt(1000)},
			setupMocks: func() {
				s.payments.On("GetByIdempotencyKey", mock.Anything, "key-1").Return(nil, domain.ErrRecordNotFound)
				s.bookings.On("GetByID", mock.Anything, 7).Return(testBooking(domain.BookingStatusPending), nil)
			},
			wantStatus:     http.StatusBadRequest,
			wantErrMessage: "validation failed: payment amount 1000 does not match the booking total 150000",
		},
		{
			name: "should fail when key was used for another booking",
			key:  "key-1",
			body: api.PaymentConfirmationRequest{Amount: decimal.NewFromInt(150000)},
			setupMocks: func() {
				s.payments.On("GetByIdempotencyKey", mock.Anything, "key-1").
					Return(&domain.PaymentConfirmation{ID: 3, BookingID: 8, IdempotencyKey: "key-1"}, nil)
			},
			wantStatus:     http.StatusConflict,
			wantErrMessage: domain.ErrIdempotencyKeyReused.Error(),
		},
		{
			name: "should confirm payment and credit points",
			key:  "key-1",
			body: api.PaymentConfirmationRequest{Amount: decimal.NewFromInt(150000)},
			setupMocks: func() {
				s.payments.On("GetByIdempotencyKey", mock.Anything, "key-1").Return(nil, domain.ErrRecordNotFound)
				s.bookings.On("GetByID", mock.Anything, 7).Return(testBooking(domain.BookingStatusPending), nil)
				s.bookings.On("ChangeStatus", mock.Anything, 7, toPaidWithPayment).
					Run(recordPayment).
					Return(testBooking(domain.BookingStatusPaid), nil)
				s.points.On("CreditPoints", mock.Anything, 3, int64(150), "key-1").Return(nil)
				s.payments.On("MarkPointsCredited", mock.Anything, 11).Return(nil)
			},
			wantStatus: http.StatusCreated,
			wantResponse: &api.PaymentConfirmation{
				Id:             11,
				BookingId:      7,
				Amount:         decimal.NewFromInt(150000),
				Points:         150,
				PointsCredited: true,
				CreatedAt:      testCreatedAt,
			},
		},
		{
			name: "should confirm payment when loyalty service is down",
			key:  "key-1",
			body: api.PaymentConfirmationRequest{Amount: decimal.NewFromInt(150000)},
			setupMocks: func() {
				s.payments.On("GetByIdempotencyKey", mock.Anything, "key-1").Return(nil, domain.ErrRecordNotFound)
				s.bookings.On("GetByID", mock.Anything, 7).Return(testBooking(domain.BookingStatusPending), nil)
				s.bookings.On("ChangeStatus", mock.Anything, 7, toPaidWithPayment).
					Run(recordPayment).
					Return(testBooking(domain.BookingStatusPaid), nil)
				s.points.On("CreditPoints", mock.Anything, 3, int64(150), "key-1").Return(errors.New("503"))
			},
			wantStatus: http.StatusCreated,
			wantResponse: &api.PaymentConfirmation{
				Id:        11,
				BookingId: 7,
				Amount:    decimal.NewFromInt(150000),
				Points:    150,
				CreatedAt: testCreatedAt,
			},
		},
		{
			name: "should replay recorded confirmation",
			key:  "key-1",
			body: api.PaymentConfirmationRequest{Amount: decimal.NewFromInt(150000)},
			setupMocks: func() {
				s.payments.On("GetByIdempotencyKey", mock.Anything, "key-1").Return(&domain.PaymentConfirmation{
					ID:               11,
					BookingID:        7,
					IdempotencyKey:   "key-1",
					Amount:           decimal.NewFromInt(150000),
					Points:           150,
					PointsCreditedAt: &creditedAt,
					CreatedAt:        testCreatedAt,
				}, nil)
			},
			wantStatus: http.StatusOK,
			wantResponse: &api.PaymentConfirmation{
				Id:             11,
				BookingId:      7,
				Amount:         decimal.NewFromInt(150000),
				Points:         150,
				PointsCredited: true,
				Replayed:       true,
				CreatedAt:      testCreatedAt,
			},
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()
			defer s.assertMocks()

			if tt.setupMocks != nil {
				tt.setupMocks()
			}

			w, r := executeRequest(s.T(), http.MethodPost, "/bookings/7/payment-confirmations", tt.body)
			if !tt.anonymous {
				role := tt.role
				if role == "" {
					role = roleAdmin
				}
				authorize(s.T(), r, role)
			}
			if tt.key != "" {
				r.Header.Set("Idempotency-Key", tt.key)
			}
			s.handler.ServeHTTP(w, r)

			s.Equal(tt.wantStatus, w.Code)

			if tt.wantResponse != nil {
				var response api.PaymentConfirmation
				s.Require().NoError(json.NewDecoder(w.Body).Decode(&response))

				s.True(tt.wantResponse.Amount.Equal(response.Amount))
				response.Amount = tt.wantResponse.Amount
				s.Equal(*tt.wantResponse, response)
			}

			checkErrorResponse(s.T(), w, struct {
				wantStatus     int
				wantErrMessage string
			}{
				wantStatus:     tt.wantStatus,
				wantErrMessage: tt.wantErrMessage,
			})
		})
	}
}

func (s *PaymentsTestSuite) TestStripeWebhookHandler() {
	const payload = `{"id":"evt_1","type":"checkout.session.completed"}`

	confirmation := func() *domain.PaymentConfirmation {
		return &domain.PaymentConfirmation{
			BookingID:      7,
			IdempotencyKey: "stripe:evt_1",
			Amount:         decimal.NewFromInt(150000),
		}
	}

	tests := []struct {
		name       string
		setupMocks func()
		wantStatus int
	}{
		{
			name: "should reject bad signature",
			setupMocks: func() {
				s.webhook.On("ParseConfirmation", []byte(payload), "t=1,v1=abc").
					Return(nil, domain.NewValidationError("invalid stripe signature"))
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "should acknowledge events that confirm nothing",
			setupMocks: func() {
				s.webhook.On("ParseConfirmation", []byte(payload), "t=1,v1=abc").Return(nil, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "should acknowledge payment for a cancelled booking",
			setupMocks: func() {
				s.webhook.On("ParseConfirmation", []byte(payload), "t=1,v1=abc").Return(confirmation(), nil)
				s.payments.On("GetByIdempotencyKey", mock.Anything, "stripe:evt_1").Return(nil, domain.ErrRecordNotFound)
				s.bookings.On("GetByID", mock.Anything, 7).Return(testBooking(domain.BookingStatusCancelled), nil)
				s.bookings.On("ChangeStatus", mock.Anything, 7, toPaidWithPayment).
					Return(nil, &domain.TransitionError{From: domain.BookingStatusCancelled, To: domain.BookingStatusPaid})
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "should ask stripe to retry on internal failure",
			setupMocks: func() {
				s.webhook.On("ParseConfirmation", []byte(payload), "t=1,v1=abc").Return(confirmation(), nil)
				s.payments.On("GetByIdempotencyKey", mock.Anything, "stripe:evt_1").Return(nil, errors.New("db down"))
			},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name: "should confirm payment",
			setupMocks: func() {
				s.webhook.On("ParseConfirmation", []byte(payload), "t=1,v1=abc").Return(confirmation(), nil)
				s.payments.On("GetByIdempotencyKey", mock.Anything, "stripe:evt_1").Return(nil, domain.ErrRecordNotFound)
				s.bookings.On("GetByID", mock.Anything, 7).Return(testBooking(domain.BookingStatusPending), nil)
				s.bookings.On("ChangeStatus", mock.Anything, 7, toPaidWithPayment).
					Run(recordPayment).
					Return(testBooking(domain.BookingStatusPaid), nil)
				s.points.On("CreditPoints", mock.Anything, 3, int64(150), "stripe:evt_1").Return(nil)
				s.payments.On("MarkPointsCredited", mock.Anything, 11).Return(nil)
			},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()
			defer s.assertMocks()

			tt.setupMocks()

			w, r := executeRequest(s.T(), http.MethodPost, "/webhook", payload)
			r.Header.Set("Stripe-Signature", "t=1,v1=abc")
			s.handler.ServeHTTP(w, r)

			s.Equal(tt.wantStatus, w.Code)
		})
	}
}
