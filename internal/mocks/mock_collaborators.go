package mocks

import (
	"context"

	"github.com/metinatakli/cinema-booking/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockSeatLocker struct {
	mock.Mock
}

func (m *MockSeatLocker) GetLockedSeats(ctx context.Context, showtimeID string) ([]int, error) {
	args := m.Called(ctx, showtimeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int), args.Error(1)
}

func (m *MockSeatLocker) LockSeats(ctx context.Context, showtimeID string, seatIDs []int) error {
	args := m.Called(ctx, showtimeID, seatIDs)
	return args.Error(0)
}

func (m *MockSeatLocker) ReleaseSeats(ctx context.Context, showtimeID string, seatIDs []int) error {
	args := m.Called(ctx, showtimeID, seatIDs)
	return args.Error(0)
}

func (m *MockSeatLocker) Invalidate(ctx context.Context, showtimeID string) error {
	args := m.Called(ctx, showtimeID)
	return args.Error(0)
}

type MockEventEmitter struct {
	mock.Mock
}

func (m *MockEventEmitter) Emit(ctx context.Context, name string, payload any) error {
	args := m.Called(ctx, name, payload)
	return args.Error(0)
}

type MockMovieLookup struct {
	mock.Mock
}

func (m *MockMovieLookup) FetchMovieByID(ctx context.Context, id string) *domain.MovieSummary {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*domain.MovieSummary)
}

type MockRoomLookup struct {
	mock.Mock
}

func (m *MockRoomLookup) FetchRoomsByTheater(ctx context.Context, theaterID int) []domain.Room {
	args := m.Called(ctx, theaterID)
	if args.Get(0) == nil {
		return []domain.Room{}
	}
	return args.Get(0).([]domain.Room)
}

type MockOTPStore struct {
	mock.Mock
}

func (m *MockOTPStore) Issue(ctx context.Context, subject string) (string, error) {
	args := m.Called(ctx, subject)
	return args.String(0), args.Error(1)
}

func (m *MockOTPStore) Consume(ctx context.Context, subject, code string) error {
	args := m.Called(ctx, subject, code)
	return args.Error(0)
}
