package mocks

import (
	"context"
	"time"

	"github.com/metinatakli/cinema-booking/internal/domain"
	"github.com/stretchr/testify/mock"
)

// MockShowtimeRepo runs RunInTx callbacks inline. A callback error is returned as the
// transaction error, mirroring an aborted transaction.
type MockShowtimeRepo struct {
	mock.Mock
	domain.ShowtimeRepository
}

func (m *MockShowtimeRepo) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.Called(ctx)
	return fn(ctx)
}

func (m *MockShowtimeRepo) LockRooms(ctx context.Context, roomIDs []int) error {
	args := m.Called(ctx, roomIDs)
	return args.Error(0)
}

func (m *MockShowtimeRepo) FindOverlapping(
	ctx context.Context,
	roomID int,
	start, end time.Time) ([]domain.Showtime, error) {

	args := m.Called(ctx, roomID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Showtime), args.Error(1)
}

func (m *MockShowtimeRepo) ExistsAt(
	ctx context.Context,
	movieID, showtimeType string,
	theaterID int,
	start time.Time) (bool, error) {

	args := m.Called(ctx, movieID, showtimeType, theaterID, start)
	return args.Bool(0), args.Error(1)
}

func (m *MockShowtimeRepo) InsertMany(ctx context.Context, showtimes []domain.Showtime) ([]domain.Showtime, error) {
	args := m.Called(ctx, showtimes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Showtime), args.Error(1)
}

func (m *MockShowtimeRepo) GetByID(ctx context.Context, id string) (*domain.Showtime, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Showtime), args.Error(1)
}

func (m *MockShowtimeRepo) List(ctx context.Context, filter domain.ShowtimeFilter) ([]domain.Showtime, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Showtime), args.Error(1)
}

func (m *MockShowtimeRepo) UpdatePrices(ctx context.Context, update domain.ShowtimePriceUpdate) (int64, error) {
	args := m.Called(ctx, update)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockShowtimeRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
