package mocks

import (
	"context"

	"github.com/metinatakli/cinema-booking/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockFoodBookingRepo struct {
	mock.Mock
	domain.FoodBookingRepository
}

func (m *MockFoodBookingRepo) Create(ctx context.Context, booking *domain.FoodBooking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *MockFoodBookingRepo) GetByID(ctx context.Context, id int) (*domain.FoodBooking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FoodBooking), args.Error(1)
}

func (m *MockFoodBookingRepo) GetAll(ctx context.Context) ([]domain.FoodBooking, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FoodBooking), args.Error(1)
}

func (m *MockFoodBookingRepo) GetByUserID(ctx context.Context, userID int) ([]domain.FoodBooking, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FoodBooking), args.Error(1)
}

func (m *MockFoodBookingRepo) MarkPaid(ctx context.Context, id int) (*domain.FoodBooking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FoodBooking), args.Error(1)
}

func (m *MockFoodBookingRepo) Delete(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
