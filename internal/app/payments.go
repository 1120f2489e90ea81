package app

import (
	"io"
	"net/http"

	"github.com/metinatakli/cinema-booking/api"
	"github.com/metinatakli/cinema-booking/internal/booking"
	"github.com/metinatakli/cinema-booking/internal/domain"
)

const maxWebhookBodyBytes = 65536

func (app *Application) ConfirmPaymentHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	id, err := readIDParam(r, "bookingId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var input api.PaymentConfirmationRequest

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

	confirmation, err := app.bookings.ConfirmPayment(r.Context(), booking.PaymentInput{
		BookingID:      id,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
		Amount:         input.Amount,
	})
	if err != nil {
		logger.Info("payment confirmation rejected", "booking_id", id, "error", err)
		app.domainErrorResponse(w, r, err)
		return
	}

	status := http.StatusCreated
	if confirmation.Replayed {
		status = http.StatusOK
	}

	err = app.writeJSON(w, status, toApiPaymentConfirmation(confirmation), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// StripeWebhookHandler confirms the booking payment of a completed checkout. Events that do not
// confirm a payment are acknowledged and ignored.
func (app *Application) StripeWebhookHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes))
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	confirmation, err := app.webhook.ParseConfirmation(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		logger.Warn("rejected stripe webhook", "error", err)
		app.domainErrorResponse(w, r, err)
		return
	}

	if confirmation == nil {
		w.WriteHeader(http.StatusOK)
		return
	}

	result, err := app.bookings.ConfirmPayment(r.Context(), booking.PaymentInput{
		BookingID:      confirmation.BookingID,
		IdempotencyKey: confirmation.IdempotencyKey,
		Amount:         confirmation.Amount,
	})
	if err != nil {
		// Stripe retries anything but 2xx, which only helps for failures on our side.
		if domain.CategoryOf(err) != domain.CategoryInternal {
			logger.Error("stripe payment could not be applied",
				"booking_id", confirmation.BookingID, "key", confirmation.IdempotencyKey, "error", err)
			w.WriteHeader(http.StatusOK)
			return
		}

		app.serverErrorResponse(w, r, err)
		return
	}

	logger.Info("stripe payment confirmed",
		"booking_id", result.BookingID, "replayed", result.Replayed, "points_credited", result.PointsCredited())

	w.WriteHeader(http.StatusOK)
}

func toApiPaymentConfirmation(p *domain.PaymentConfirmation) api.PaymentConfirmation {
	return api.PaymentConfirmation{
		Id:             p.ID,
		BookingId:      p.BookingID,
		Amount:         p.Amount,
		Points:         p.Points,
		PointsCredited: p.PointsCredited(),
		Replayed:       p.Replayed,
		CreatedAt:      p.CreatedAt,
	}
}
