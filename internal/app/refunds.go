package app

import (
	"net/http"

	"github.com/metinatakli/cinema-booking/api"
	"github.com/metinatakli/cinema-booking/internal/booking"
	"github.com/metinatakli/cinema-booking/internal/domain"
)

func (app *Application) RequestRefundHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	id, err := readIDParam(r, "bookingId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var input api.RefundRequestBody

	err = app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	refund, err := app.bookings.RequestRefund(r.Context(), booking.RefundInput{
		BookingID:         id,
		Amount:            input.Amount,
		Method:            domain.RefundMethod(input.Method),
		Phone:             input.Phone,
		MomoAccountName:   input.MomoAccountName,
		BankAccountName:   input.BankAccountName,
		BankName:          input.BankName,
		BankAccountNumber: input.BankAccountNumber,
	})
	if err != nil {
		logger.Info("refund request rejected", "booking_id", id, "error", err)
		app.domainErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusCreated, toApiRefundRequest(refund), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetRefundRequestHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r, "bookingId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	refund, err := app.bookings.GetRefundRequest(r.Context(), id)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toApiRefundRequest(refund), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) CancelRefundHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r, "bookingId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	updated, err := app.bookings.CancelRefund(r.Context(), id)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toApiBooking(updated), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) ApproveRefundHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r, "bookingId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	updated, err := app.bookings.FinalizeRefund(r.Context(), id)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toApiBooking(updated), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func toApiRefundRequest(refund *domain.RefundRequest) api.RefundRequest {
	return api.RefundRequest{
		Id:                refund.ID,
		BookingId:         refund.BookingID,
		Amount:            refund.Amount,
		Method:            string(refund.Method),
		Phone:             refund.Phone,
		MomoAccountName:   refund.MomoAccountName,
		BankAccountName:   refund.BankAccountName,
		BankName:          refund.BankName,
		BankAccountNumber: refund.BankAccountNumber,
		CreatedAt:         refund.CreatedAt,
	}
}
