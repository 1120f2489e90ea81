package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentConfirmation is the saga record of a confirmed booking payment. The idempotency key
// guarantees the booking is paid and loyalty points are credited at most once per confirmation.
type PaymentConfirmation struct {
	ID               int
	BookingID        int
	IdempotencyKey   string
	Amount           decimal.Decimal
	Points           int64
	PointsCreditedAt *time.Time
	CreatedAt        time.Time

	// Replayed is set when the confirmation was already recorded under the same key.
	Replayed bool
}

func (p PaymentConfirmation) PointsCredited() bool {
	return p.PointsCreditedAt != nil
}

type PaymentRepository interface {
	GetByIdempotencyKey(ctx context.Context, key string) (*PaymentConfirmation, error)
	GetUncredited(ctx context.Context, limit int) ([]PaymentConfirmation, error)
	MarkPointsCredited(ctx context.Context, id int) error
}

// PointsCreditor credits loyalty points to a user in the external user service.
type PointsCreditor interface {
	CreditPoints(ctx context.Context, userID int, points int64, idempotencyKey string) error
}

// PaymentEventParser turns a signed provider webhook into a confirmation request.
// It returns nil without error for events that do not confirm a payment.
type PaymentEventParser interface {
	ParseConfirmation(payload []byte, signature string) (*PaymentConfirmation, error)
}
