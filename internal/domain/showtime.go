package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Showtime struct {
	ID            string
	MovieID       string
	MovieTitle    string
	MovieDuration int
	TheaterID     int
	TheaterName   string
	RoomID        int
	RoomName      string
	StartTime     time.Time
	EndTime       time.Time
	Date          time.Time
	PriceRegular  decimal.Decimal
	PriceVIP      decimal.Decimal
	ShowtimeType  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Overlaps reports whether the half-open intervals [start, end) of both showtimes intersect.
func (s Showtime) Overlaps(start, end time.Time) bool {
	return s.StartTime.Before(end) && s.EndTime.After(start)
}

type ShowtimeFilter struct {
	TheaterID *int
	RoomID    *int
	MovieID   *string
	Date      *time.Time
}

type ShowtimePriceUpdate struct {
	IDs          []string
	PriceRegular *decimal.Decimal
	PriceVIP     *decimal.Decimal
}

// ShowtimeRepository is the showtime document store. Methods called with the context passed
// to RunInTx's callback take part in that transaction.
type ShowtimeRepository interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
	LockRooms(ctx context.Context, roomIDs []int) error
	FindOverlapping(ctx context.Context, roomID int, start, end time.Time) ([]Showtime, error)
	ExistsAt(ctx context.Context, movieID, showtimeType string, theaterID int, start time.Time) (bool, error)
	InsertMany(ctx context.Context, showtimes []Showtime) ([]Showtime, error)
	GetByID(ctx context.Context, id string) (*Showtime, error)
	List(ctx context.Context, filter ShowtimeFilter) ([]Showtime, error)
	UpdatePrices(ctx context.Context, update ShowtimePriceUpdate) (int64, error)
	Delete(ctx context.Context, id string) error
}
