package mocks

import (
	"context"

	"github.com/metinatakli/cinema-booking/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockPaymentRepo struct {
	mock.Mock
	domain.PaymentRepository
}

func (m *MockPaymentRepo) GetByIdempotencyKey(ctx context.Context, key string) (*domain.PaymentConfirmation, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentConfirmation), args.Error(1)
}

func (m *MockPaymentRepo) GetUncredited(ctx context.Context, limit int) ([]domain.PaymentConfirmation, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PaymentConfirmation), args.Error(1)
}

func (m *MockPaymentRepo) MarkPointsCredited(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockPointsCreditor struct {
	mock.Mock
}

func (m *MockPointsCreditor) CreditPoints(ctx context.Context, userID int, points int64, idempotencyKey string) error {
	args := m.Called(ctx, userID, points, idempotencyKey)
	return args.Error(0)
}

type MockPaymentEventParser struct {
	mock.Mock
}

func (m *MockPaymentEventParser) ParseConfirmation(payload []byte, signature string) (*domain.PaymentConfirmation, error) {
	args := m.Called(payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentConfirmation), args.Error(1)
}
