package repository

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/cinema-booking/internal/domain"
)

type PostgresBookingRepository struct {
	db *pgxpool.Pool
}

func NewPostgresBookingRepository(db *pgxpool.Pool) *PostgresBookingRepository {
	return &PostgresBookingRepository{
		db: db,
	}
}

const bookingColumns = `id, user_id, showtime_id, room_id, movie_id, total_price, status, created_at, updated_at`

func scanBooking(row pgx.Row, booking *domain.Booking) error {
	return row.Scan(
		&booking.ID,
		&booking.UserID,
		&booking.ShowtimeID,
		&booking.RoomID,
		&booking.MovieID,
		&booking.TotalPrice,
		&booking.Status,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
}

// Create inserts the booking and its seats in one transaction. Seat holds are serialized per
// showtime with an advisory lock so two bookings can never claim the same seat.
func (p *PostgresBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	return runInTx(ctx, p.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, booking.ShowtimeID)
		if err != nil {
			return err
		}

		taken, err := heldSeats(ctx, tx, booking.ShowtimeID, booking.SeatIDs)
		if err != nil {
			return err
		}

		if len(taken) > 0 {
			return &domain.SeatConflictError{ShowtimeID: booking.ShowtimeID, SeatIDs: taken}
		}

		query := `
			INSERT INTO booking (user_id, showtime_id, room_id, movie_id, total_price, status)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, status, created_at, updated_at
		`

		err = tx.QueryRow(
			ctx,
			query,
			booking.UserID,
			booking.ShowtimeID,
			booking.RoomID,
			booking.MovieID,
			booking.TotalPrice,
			domain.BookingStatusPending,
		).Scan(&booking.ID, &booking.Status, &booking.CreatedAt, &booking.UpdatedAt)
		if err != nil {
			return err
		}

		rows := make([][]any, 0, len(booking.SeatIDs))
		for _, seatID := range booking.SeatIDs {
			rows = append(rows, []any{booking.ID, seatID})
		}

		_, err = tx.CopyFrom(
			ctx,
			pgx.Identifier{"booking_seats"},
			[]string{"booking_id", "seat_id"},
			pgx.CopyFromRows(rows),
		)

		return err
	})
}

func heldSeats(ctx context.Context, tx pgx.Tx, showtimeID string, seatIDs []int) ([]int, error) {
	query := `
		SELECT DISTINCT bs.seat_id
		FROM booking_seats bs
		JOIN booking b ON b.id = bs.booking_id
		WHERE b.showtime_id = $1
			AND b.status = ANY($2)
			AND bs.seat_id = ANY($3)
		ORDER BY bs.seat_id
	`

	rows, err := tx.Query(ctx, query, showtimeID, statusStrings(domain.ActiveBookingStatuses), seatIDs)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, pgx.RowTo[int])
}

func (p *PostgresBookingRepository) GetByID(ctx context.Context, id int) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM booking WHERE id = $1`

	var booking domain.Booking

	err := scanBooking(p.db.QueryRow(ctx, query, id), &booking)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	booking.SeatIDs, err = seatIDsOf(ctx, p.db, booking.ID)
	if err != nil {
		return nil, err
	}

	return &booking, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func seatIDsOf(ctx context.Context, q querier, bookingID int) ([]int, error) {
	rows, err := q.Query(ctx, `SELECT seat_id FROM booking_seats WHERE booking_id = $1 ORDER BY seat_id`, bookingID)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, pgx.RowTo[int])
}

func (p *PostgresBookingRepository) GetAll(
	ctx context.Context,
	pagination domain.Pagination) ([]domain.Booking, *domain.Metadata, error) {

	query := `
		SELECT COUNT(*) OVER(), b.id, b.user_id, b.showtime_id, b.room_id, b.movie_id,
			b.total_price, b.status, b.created_at, b.updated_at,
			COALESCE(ARRAY_AGG(bs.seat_id ORDER BY bs.seat_id) FILTER (WHERE bs.seat_id IS NOT NULL), '{}')
		FROM booking b
		LEFT JOIN booking_seats bs ON bs.booking_id = b.id
		GROUP BY b.id
		ORDER BY b.created_at DESC, b.id DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := p.db.Query(ctx, query, pagination.Limit(), pagination.Offset())
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	totalRecords := 0

	for rows.Next() {
		var booking domain.Booking

		err := rows.Scan(
			&totalRecords,
			&booking.ID,
			&booking.UserID,
			&booking.ShowtimeID,
			&booking.RoomID,
			&booking.MovieID,
			&booking.TotalPrice,
			&booking.Status,
			&booking.CreatedAt,
			&booking.UpdatedAt,
			&booking.SeatIDs,
		)
		if err != nil {
			return nil, nil, err
		}

		bookings = append(bookings, booking)
	}

	if err = rows.Err(); err != nil {
		return nil, nil, err
	}

	return bookings, domain.NewMetadata(totalRecords, pagination), nil
}

func (p *PostgresBookingRepository) GetByUserID(ctx context.Context, userID int) ([]domain.Booking, error) {
	query := `
		SELECT b.id, b.user_id, b.showtime_id, b.room_id, b.movie_id,
			b.total_price, b.status, b.created_at, b.updated_at,
			COALESCE(ARRAY_AGG(bs.seat_id ORDER BY bs.seat_id) FILTER (WHERE bs.seat_id IS NOT NULL), '{}')
		FROM booking b
		LEFT JOIN booking_seats bs ON bs.booking_id = b.id
		WHERE b.user_id = $1
		GROUP BY b.id
		ORDER BY b.created_at DESC, b.id DESC
	`

	rows, err := p.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)

	for rows.Next() {
		var booking domain.Booking

		err := rows.Scan(
			&booking.ID,
			&booking.UserID,
			&booking.ShowtimeID,
			&booking.RoomID,
			&booking.MovieID,
			&booking.TotalPrice,
			&booking.Status,
			&booking.CreatedAt,
			&booking.UpdatedAt,
			&booking.SeatIDs,
		)
		if err != nil {
			return nil, err
		}

		bookings = append(bookings, booking)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return bookings, nil
}

// GetLockedSeatIDs aggregates the seats of every active booking for the showtime.
func (p *PostgresBookingRepository) GetLockedSeatIDs(ctx context.Context, showtimeID string) ([]int, error) {
	query := `
		SELECT DISTINCT bs.seat_id
		FROM booking_seats bs
		JOIN booking b ON b.id = bs.booking_id
		WHERE b.showtime_id = $1 AND b.status = ANY($2)
		ORDER BY bs.seat_id
	`

	rows, err := p.db.Query(ctx, query, showtimeID, statusStrings(domain.ActiveBookingStatuses))
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, pgx.RowTo[int])
}

func (p *PostgresBookingRepository) GetPendingCreatedBefore(
	ctx context.Context,
	cutoff time.Time) ([]domain.Booking, error) {

	query := `
		SELECT ` + bookingColumns + `
		FROM booking
		WHERE status = $1 AND created_at < $2
		ORDER BY created_at
		LIMIT 500
	`

	rows, err := p.db.Query(ctx, query, domain.BookingStatusPending, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)

	for rows.Next() {
		var booking domain.Booking

		if err := scanBooking(rows, &booking); err != nil {
			return nil, err
		}

		bookings = append(bookings, booking)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return bookings, nil
}

// ChangeStatus locks the booking row, checks the current status against change.From and applies
// the update together with any refund or payment rows the change carries.
func (p *PostgresBookingRepository) ChangeStatus(
	ctx context.Context,
	id int,
	change domain.StatusChange) (*domain.Booking, error) {

	var booking domain.Booking

	err := runInTx(ctx, p.db, func(tx pgx.Tx) error {
		query := `SELECT ` + bookingColumns + ` FROM booking WHERE id = $1 FOR UPDATE`

		err := scanBooking(tx.QueryRow(ctx, query, id), &booking)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrRecordNotFound
			}

			return err
		}

		if !slices.Contains(change.From, booking.Status) {
			return &domain.TransitionError{From: booking.Status, To: change.To}
		}

		previous := booking.Status

		query = `
			UPDATE booking
			SET status = $2, updated_at = NOW()
			WHERE id = $1
			RETURNING status, updated_at
		`

		err = tx.QueryRow(ctx, query, id, change.To).Scan(&booking.Status, &booking.UpdatedAt)
		if err != nil {
			return err
		}

		if previous == domain.BookingStatusRefundRequested {
			_, err = tx.Exec(ctx, `DELETE FROM refund_booking WHERE booking_id = $1`, id)
			if err != nil {
				return err
			}
		}

		if change.Refund != nil {
			err = insertRefund(ctx, tx, id, change.Refund)
			if err != nil {
				return err
			}
		}

		if change.Payment != nil {
			err = insertPaymentConfirmation(ctx, tx, id, change.Payment)
			if err != nil {
				return err
			}
		}

		booking.SeatIDs, err = seatIDsOf(ctx, tx, id)
		if err != nil {
			return err
		}

		if change.BeforeCommit != nil {
			change.BeforeCommit(ctx, booking)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &booking, nil
}

func insertRefund(ctx context.Context, tx pgx.Tx, bookingID int, refund *domain.RefundRequest) error {
	query := `
		INSERT INTO refund_booking (
			booking_id,
			amount,
			method,
			phone,
			momo_account_name,
			bank_account_name,
			bank_name,
			bank_account_number
		)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''))
		RETURNING id, created_at
	`

	refund.BookingID = bookingID

	return tx.QueryRow(
		ctx,
		query,
		bookingID,
		refund.Amount,
		refund.Method,
		refund.Phone,
		refund.MomoAccountName,
		refund.BankAccountName,
		refund.BankName,
		refund.BankAccountNumber,
	).Scan(&refund.ID, &refund.CreatedAt)
}

func insertPaymentConfirmation(
	ctx context.Context,
	tx pgx.Tx,
	bookingID int,
	payment *domain.PaymentConfirmation) error {

	query := `
		INSERT INTO payment_confirmations (booking_id, idempotency_key, amount, points)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	payment.BookingID = bookingID

	err := tx.QueryRow(
		ctx,
		query,
		bookingID,
		payment.IdempotencyKey,
		payment.Amount,
		payment.Points,
	).Scan(&payment.ID, &payment.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrIdempotencyKeyReused
		}

		return err
	}

	return nil
}

func (p *PostgresBookingRepository) GetRefundRequest(
	ctx context.Context,
	bookingID int) (*domain.RefundRequest, error) {

	query := `
		SELECT
			id,
			booking_id,
			amount,
			method,
			COALESCE(phone, ''),
			COALESCE(momo_account_name, ''),
			COALESCE(bank_account_name, ''),
			COALESCE(bank_name, ''),
			COALESCE(bank_account_number, ''),
			created_at
		FROM refund_booking
		WHERE booking_id = $1
	`

	var refund domain.RefundRequest

	err := p.db.QueryRow(ctx, query, bookingID).Scan(
		&refund.ID,
		&refund.BookingID,
		&refund.Amount,
		&refund.Method,
		&refund.Phone,
		&refund.MomoAccountName,
		&refund.BankAccountName,
		&refund.BankName,
		&refund.BankAccountNumber,
		&refund.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	return &refund, nil
}

// Delete removes the booking with its seats and refund request and returns what was deleted.
func (p *PostgresBookingRepository) Delete(ctx context.Context, id int) (*domain.Booking, error) {
	var booking domain.Booking

	err := runInTx(ctx, p.db, func(tx pgx.Tx) error {
		query := `SELECT ` + bookingColumns + ` FROM booking WHERE id = $1 FOR UPDATE`

		err := scanBooking(tx.QueryRow(ctx, query, id), &booking)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrRecordNotFound
			}

			return err
		}

		booking.SeatIDs, err = seatIDsOf(ctx, tx, id)
		if err != nil {
			return err
		}

		statements := []string{
			`DELETE FROM booking_seats WHERE booking_id = $1`,
			`DELETE FROM refund_booking WHERE booking_id = $1`,
			`DELETE FROM payment_confirmations WHERE booking_id = $1`,
			`DELETE FROM booking WHERE id = $1`,
		}

		for _, stmt := range statements {
			if _, err := tx.Exec(ctx, stmt, id); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &booking, nil
}
