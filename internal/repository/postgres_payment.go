package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/cinema-booking/internal/domain"
)

type PostgresPaymentRepository struct {
	db *pgxpool.Pool
}

func NewPostgresPaymentRepository(db *pgxpool.Pool) *PostgresPaymentRepository {
	return &PostgresPaymentRepository{
		db: db,
	}
}

const paymentConfirmationColumns = `id, booking_id, idempotency_key, amount, points, points_credited_at, created_at`

func scanPaymentConfirmation(row pgx.Row, payment *domain.PaymentConfirmation) error {
	return row.Scan(
		&payment.ID,
		&payment.BookingID,
		&payment.IdempotencyKey,
		&payment.Amount,
		&payment.Points,
		&payment.PointsCreditedAt,
		&payment.CreatedAt,
	)
}

func (p *PostgresPaymentRepository) GetByIdempotencyKey(
	ctx context.Context,
	key string) (*domain.PaymentConfirmation, error) {

	query := `SELECT ` + paymentConfirmationColumns + ` FROM payment_confirmations WHERE idempotency_key = $1`

	var payment domain.PaymentConfirmation

	err := scanPaymentConfirmation(p.db.QueryRow(ctx, query, key), &payment)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	return &payment, nil
}

func (p *PostgresPaymentRepository) GetUncredited(
	ctx context.Context,
	limit int) ([]domain.PaymentConfirmation, error) {

	query := `
		SELECT ` + paymentConfirmationColumns + `
		FROM payment_confirmations
		WHERE points_credited_at IS NULL AND points > 0
		ORDER BY created_at
		LIMIT $1
	`

	rows, err := p.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]domain.PaymentConfirmation, 0)

	for rows.Next() {
		var payment domain.PaymentConfirmation

		if err := scanPaymentConfirmation(rows, &payment); err != nil {
			return nil, err
		}

		payments = append(payments, payment)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return payments, nil
}

func (p *PostgresPaymentRepository) MarkPointsCredited(ctx context.Context, id int) error {
	query := `
		UPDATE payment_confirmations
		SET points_credited_at = NOW()
		WHERE id = $1 AND points_credited_at IS NULL
	`

	_, err := p.db.Exec(ctx, query, id)
	return err
}
