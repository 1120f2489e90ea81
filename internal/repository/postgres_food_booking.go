package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/cinema-booking/internal/domain"
)

type PostgresFoodBookingRepository struct {
	db *pgxpool.Pool
}

func NewPostgresFoodBookingRepository(db *pgxpool.Pool) *PostgresFoodBookingRepository {
	return &PostgresFoodBookingRepository{
		db: db,
	}
}

func (p *PostgresFoodBookingRepository) Create(ctx context.Context, booking *domain.FoodBooking) error {
	return runInTx(ctx, p.db, func(tx pgx.Tx) error {
		query := `
			INSERT INTO food_booking (user_id, total_price, status)
			VALUES ($1, $2, $3)
			RETURNING id, created_at, updated_at
		`

		err := tx.QueryRow(ctx, query, booking.UserID, booking.TotalPrice, booking.Status).
			Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
		if err != nil {
			return err
		}

		rows := make([][]any, 0, len(booking.Items))
		for _, item := range booking.Items {
			rows = append(rows, []any{booking.ID, item.FoodID, item.FoodName, item.UnitPrice, item.Quantity})
		}

		_, err = tx.CopyFrom(
			ctx,
			pgx.Identifier{"food_booking_items"},
			[]string{"food_booking_id", "food_id", "food_name", "unit_price", "quantity"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return err
		}

		booking.Items, err = foodItemsOf(ctx, tx, booking.ID)
		return err
	})
}

func foodItemsOf(ctx context.Context, q querier, bookingID int) ([]domain.FoodBookingItem, error) {
	query := `
		SELECT id, food_id, food_name, unit_price, quantity
		FROM food_booking_items
		WHERE food_booking_id = $1
		ORDER BY id
	`

	rows, err := q.Query(ctx, query, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.FoodBookingItem, 0)

	for rows.Next() {
		var item domain.FoodBookingItem

		err := rows.Scan(&item.ID, &item.FoodID, &item.FoodName, &item.UnitPrice, &item.Quantity)
		if err != nil {
			return nil, err
		}

		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

func (p *PostgresFoodBookingRepository) GetByID(ctx context.Context, id int) (*domain.FoodBooking, error) {
	query := `
		SELECT id, user_id, total_price, status, created_at, updated_at
		FROM food_booking
		WHERE id = $1
	`

	var booking domain.FoodBooking

	err := p.db.QueryRow(ctx, query, id).Scan(
		&booking.ID,
		&booking.UserID,
		&booking.TotalPrice,
		&booking.Status,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	booking.Items, err = foodItemsOf(ctx, p.db, id)
	if err != nil {
		return nil, err
	}

	return &booking, nil
}

func (p *PostgresFoodBookingRepository) GetAll(ctx context.Context) ([]domain.FoodBooking, error) {
	return p.list(ctx, `WHERE TRUE`)
}

func (p *PostgresFoodBookingRepository) GetByUserID(ctx context.Context, userID int) ([]domain.FoodBooking, error) {
	return p.list(ctx, `WHERE user_id = $1`, userID)
}

func (p *PostgresFoodBookingRepository) list(
	ctx context.Context,
	where string,
	args ...any) ([]domain.FoodBooking, error) {

	query := `
		SELECT id, user_id, total_price, status, created_at, updated_at
		FROM food_booking
		` + where + `
		ORDER BY created_at DESC, id DESC
	`

	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	bookings, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.FoodBooking, error) {
		var booking domain.FoodBooking

		err := row.Scan(
			&booking.ID,
			&booking.UserID,
			&booking.TotalPrice,
			&booking.Status,
			&booking.CreatedAt,
			&booking.UpdatedAt,
		)

		return booking, err
	})
	if err != nil {
		return nil, err
	}

	for i := range bookings {
		bookings[i].Items, err = foodItemsOf(ctx, p.db, bookings[i].ID)
		if err != nil {
			return nil, err
		}
	}

	return bookings, nil
}

// MarkPaid moves a pending food booking to PAID. A booking that is already paid is an edit conflict.
func (p *PostgresFoodBookingRepository) MarkPaid(ctx context.Context, id int) (*domain.FoodBooking, error) {
	query := `
		UPDATE food_booking
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3
	`

	tag, err := p.db.Exec(ctx, query, id, domain.FoodBookingStatusPaid, domain.FoodBookingStatusPending)
	if err != nil {
		return nil, err
	}

	booking, err := p.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if tag.RowsAffected() == 0 {
		return nil, domain.ErrEditConflict
	}

	return booking, nil
}

func (p *PostgresFoodBookingRepository) Delete(ctx context.Context, id int) error {
	return runInTx(ctx, p.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `DELETE FROM food_booking_items WHERE food_booking_id = $1`, id)
		if err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `DELETE FROM food_booking WHERE id = $1`, id)
		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return domain.ErrRecordNotFound
		}

		return nil
	})
}
