// Package payment verifies payment provider webhooks and turns them into booking payment
// confirmations.
package payment

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/metinatakli/cinema-booking/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

const (
	BookingIDMetadataKey = "booking_id"
	idempotencyKeyPrefix = "stripe:"
)

// zeroDecimalCurrencies are charged in whole units, so Stripe amounts are not in cents.
var zeroDecimalCurrencies = map[stripe.Currency]bool{
	stripe.CurrencyVND: true,
	stripe.CurrencyJPY: true,
	stripe.CurrencyKRW: true,
	stripe.CurrencyCLP: true,
	stripe.CurrencyXOF: true,
}

type StripeWebhookParser struct {
	secret string
}

func NewStripeWebhookParser(secret string) *StripeWebhookParser {
	return &StripeWebhookParser{
		secret: secret,
	}
}

// ParseConfirmation verifies the Stripe-Signature header and maps a completed checkout session
// to a confirmation keyed by the Stripe event id, so redelivered events replay instead of
// paying twice.
func (p *StripeWebhookParser) ParseConfirmation(payload []byte, signature string) (*domain.PaymentConfirmation, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, p.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, domain.NewValidationError("invalid webhook signature: %v", err)
	}

	if event.Type != stripe.EventTypeCheckoutSessionCompleted {
		return nil, nil
	}

	var session stripe.CheckoutSession

	err = json.Unmarshal(event.Data.Raw, &session)
	if err != nil {
		return nil, domain.NewValidationError("malformed checkout session: %v", err)
	}

	if session.PaymentStatus != "" && session.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		return nil, nil
	}

	rawID := strings.TrimSpace(session.Metadata[BookingIDMetadataKey])

	bookingID, err := strconv.Atoi(rawID)
	if err != nil || bookingID <= 0 {
		return nil, domain.NewValidationError("checkout session %s has no valid %s metadata", session.ID, BookingIDMetadataKey)
	}

	return &domain.PaymentConfirmation{
		BookingID:      bookingID,
		IdempotencyKey: idempotencyKeyPrefix + event.ID,
		Amount:         amountOf(session.AmountTotal, session.Currency),
	}, nil
}

func amountOf(amount int64, currency stripe.Currency) decimal.Decimal {
	if zeroDecimalCurrencies[stripe.Currency(strings.ToLower(string(currency)))] {
		return decimal.NewFromInt(amount)
	}

	return decimal.New(amount, -2)
}
