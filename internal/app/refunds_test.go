package app

import (
	"encoding/json"
	"net/http"

	"github.com/metinatakli/cinema-booking/api"
	"github.com/metinatakli/cinema-booking/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

func walletRefund() api.RefundRequestBody {
	return api.RefundRequestBody{
		Amount:          decimal.NewFromInt(100000),
		Method:          "mobile_wallet",
		Phone:           "0901234567",
		MomoAccountName: "NGUYEN VAN A",
	}
}

func (s *BookingsTestSuite) TestRequestRefundHandler() {
	refundRequested := mock.MatchedBy(func(c domain.StatusChange) bool {
		return c.To == domain.BookingStatusRefundRequested && c.Refund != nil
	})

	tests := []struct {
		name           string
		body           any
		setupMocks     func()
		wantStatus     int
		wantErrMessage string
	}{
		{
			name: "should fail on unknown refund method",
			body: func() api.RefundRequestBody {
				req := walletRefund()
				req.Method = "cash"
				return req
			}(),
			wantStatus:     http.StatusBadRequest,
			wantErrMessage: "must be bank_transfer or mobile_wallet",
		},
		{
			name: "should fail when amount is zero",
			body: func() api.RefundRequestBody {
				req := walletRefund()
				req.Amount = decimal.Zero
				return req
			}(),
			wantStatus:     http.StatusBadRequest,
			wantErrMessage: "must be greater than zero",
		},
		{
			name: "should fail when bank details are missing",
			body: api.RefundRequestBody{
				Amount:   decimal.NewFromInt(100000),
				Method:   "bank_transfer",
				BankName: "VCB",
			},
			wantStatus:     http.StatusBadRequest,
			wantErrMessage: "validation failed: bank_transfer refunds require [bankAccountName bankAccountNumber]",
		},
		{
			name: "should fail when amount exceeds booking total",
			body: func() api.RefundRequestBody {
				req := walletRefund()
				req.Amount = decimal.NewFromInt(200000)
				return req
			}(),
			setupMocks: func() {
				s.bookings.On("GetByID", mock.Anything, 7).Return(testBooking(domain.BookingStatusPaid), nil)
			},
			wantStatus:     http.StatusBadRequest,
			wantErrMessage: "validation failed: refund amount 200000 exceeds the booking total 150000",
		},
		{
			name: "should fail when booking is not paid",
			body: walletRefund(),
			setupMocks: func() {
				s.bookings.On("GetByID", mock.Anything, 7).Return(testBooking(domain.BookingStatusPending), nil)
				s.bookings.On("ChangeStatus", mock.Anything, 7, refundRequested).
					Return(nil, &domain.TransitionError{From: domain.BookingStatusPending, To: domain.BookingStatusRefundRequested})
			},
			wantStatus:     http.StatusConflict,
			wantErrMessage: "booking cannot move from PENDING to REFUND_REQUESTED",
		},
		{
			name: "should fail when a refund was already requested",
			body: walletRefund(),
			setupMocks: func() {
				s.bookings.On("GetByID", mock.Anything, 7).Return(testBooking(domain.BookingStatusPaid), nil)
				s.bookings.On("ChangeStatus", mock.Anything, 7, refundRequested).Return(nil, domain.ErrEditConflict)
			},
			wantStatus: http.StatusConflict,
		},
		{
			name: "should record refund request",
			body: walletRefund(),
			setupMocks: func() {
				s.bookings.On("GetByID", mock.Anything, 7).Return(testBooking(domain.BookingStatusPaid), nil)
				s.bookings.On("ChangeStatus", mock.Anything, 7, refundRequested).
					Run(func(args mock.Arguments) {
						refund := args.Get(2).(domain.StatusChange).Refund
						refund.ID = 1
						refund.BookingID = 7
					}).
					Return(testBooking(domain.BookingStatusRefundRequested), nil)
			},
			wantStatus: http.StatusCreated,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()
			defer s.assertMocks()

			if tt.setupMocks != nil {
				tt.setupMocks()
			}

			w, r := executeRequest(s.T(), http.MethodPost, "/bookings/7/refund-request", tt.body)
			s.handler.ServeHTTP(w, r)

			s.Equal(tt.wantStatus, w.Code)

			if tt.wantStatus == http.StatusCreated {
				var response api.RefundRequest
				s.Require().NoError(json.NewDecoder(w.Body).Decode(&response))
				s.Equal(1, response.Id)
				s.Equal(7, response.BookingId)
				s.Equal("mobile_wallet", response.Method)
				s.Equal("NGUYEN VAN A", response.MomoAccountName)
				s.True(decimal.NewFromInt(100000).Equal(response.Amount))
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

func (s *BookingsTestSuite) TestGetRefundRequestHandler() {
	s.Run("should fail when booking has no refund request", func() {
		s.SetupTest()
		defer s.assertMocks()

		s.bookings.On("GetRefundRequest", mock.Anything, 7).Return(nil, domain.ErrRecordNotFound)

		w, r := executeRequest(s.T(), http.MethodGet, "/bookings/7/refund-request", nil)
		s.handler.ServeHTTP(w, r)

		s.Equal(http.StatusNotFound, w.Code)
	})

	s.Run("should return refund request", func() {
		s.SetupTest()
		defer s.assertMocks()

		s.bookings.On("GetRefundRequest", mock.Anything, 7).Return(&domain.RefundRequest{
			ID:                1,
			BookingID:         7,
			Amount:            decimal.NewFromInt(150000),
			Method:            domain.RefundMethodBankTransfer,
			BankAccountName:   "NGUYEN VAN A",
			BankName:          "VCB",
			BankAccountNumber: "0011223344",
			CreatedAt:         testCreatedAt,
		}, nil)

		w, r := executeRequest(s.T(), http.MethodGet, "/bookings/7/refund-request", nil)
		s.handler.ServeHTTP(w, r)

		s.Equal(http.StatusOK, w.Code)

		var response api.RefundRequest
		s.Require().NoError(json.NewDecoder(w.Body).Decode(&response))
		s.Equal("bank_transfer", response.Method)
		s.Equal("0011223344", response.BankAccountNumber)
		s.Empty(response.Phone)
	})
}

func (s *BookingsTestSuite) TestCancelRefundHandler() {
	toPaid := mock.MatchedBy(func(c domain.StatusChange) bool {
		return c.To == domain.BookingStatusPaid && c.From[0] == domain.BookingStatusRefundRequested
	})

	s.Run("should fail when no refund is pending", func() {
		s.SetupTest()
		defer s.assertMocks()

		s.bookings.On("ChangeStatus", mock.Anything, 7, toPaid).
			Return(nil, &domain.TransitionError{From: domain.BookingStatusPaid, To: domain.BookingStatusPaid})

		w, r := executeRequest(s.T(), http.MethodDelete, "/bookings/7/refund-request", nil)
		s.handler.ServeHTTP(w, r)

		s.Equal(http.StatusConflict, w.Code)
	})

	s.Run("should restore booking to paid", func() {
		s.SetupTest()
		defer s.assertMocks()

		s.bookings.On("ChangeStatus", mock.Anything, 7, toPaid).Return(testBooking(domain.BookingStatusPaid), nil)

		w, r := executeRequest(s.T(), http.MethodDelete, "/bookings/7/refund-request", nil)
		s.handler.ServeHTTP(w, r)

		s.Equal(http.StatusOK, w.Code)

		var response api.Booking
		s.Require().NoError(json.NewDecoder(w.Body).Decode(&response))
		s.Equal("PAID", response.Status)
	})
}

func (s *BookingsTestSuite) TestApproveRefundHandler() {
	toRefunded := mock.MatchedBy(func(c domain.StatusChange) bool {
		return c.To == domain.BookingStatusRefunded
	})

	tests := []struct {
		name       string
		token      string
		setupMocks func()
		wantStatus int
	}{
		{
			name:       "should reject non-admin token",
			token:      "user",
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "should reject expired token",
			token:      "expired",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:  "should finalize refund",
			token: roleAdmin,
			setupMocks: func() {
				s.bookings.On("GetRefundRequest", mock.Anything, 7).Return(&domain.RefundRequest{ID: 1, BookingID: 7}, nil)
				s.bookings.On("ChangeStatus", mock.Anything, 7, toRefunded).Return(testBooking(domain.BookingStatusRefunded), nil)
			},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()
			defer s.assertMocks()

			if tt.setupMocks != nil {
				tt.setupMocks()
			}

			w, r := executeRequest(s.T(), http.MethodPost, "/bookings/7/refund-request/approval", nil)

			switch tt.token {
			case "expired":
				r.Header.Set("Authorization", "Bearer "+signToken(s.T(), roleAdmin, testCreatedAt))
			default:
				r.Header.Set("Authorization", "Bearer "+signToken(s.T(), tt.token, testCreatedAt.AddDate(100, 0, 0)))
			}

			s.handler.ServeHTTP(w, r)

			s.Equal(tt.wantStatus, w.Code)
		})
	}
}
