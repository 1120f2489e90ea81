package domain

import "context"

// SeatLocker maintains the per-showtime view of held seats.
type SeatLocker interface {
	GetLockedSeats(ctx context.Context, showtimeID string) ([]int, error)
	LockSeats(ctx context.Context, showtimeID string, seatIDs []int) error
	ReleaseSeats(ctx context.Context, showtimeID string, seatIDs []int) error
	Invalidate(ctx context.Context, showtimeID string) error
}
