package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type FoodBookingStatus string

const (
	FoodBookingStatusPending FoodBookingStatus = "PENDING"
	FoodBookingStatusPaid    FoodBookingStatus = "PAID"
)

type FoodBooking struct {
	ID         int
	UserID     int
	TotalPrice decimal.Decimal
	Status     FoodBookingStatus
	Items      []FoodBookingItem
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// FoodBookingItem snapshots the catalog entry at order time.
type FoodBookingItem struct {
	ID        int
	FoodID    int
	FoodName  string
	UnitPrice decimal.Decimal
	Quantity  int
}

func (i FoodBookingItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func NewFoodBooking(userID int, items []FoodBookingItem) FoodBooking {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}

	return FoodBooking{
		UserID:     userID,
		TotalPrice: total,
		Status:     FoodBookingStatusPending,
		Items:      items,
	}
}

type FoodBookingRepository interface {
	Create(ctx context.Context, booking *FoodBooking) error
	GetByID(ctx context.Context, id int) (*FoodBooking, error)
	GetAll(ctx context.Context) ([]FoodBooking, error)
	GetByUserID(ctx context.Context, userID int) ([]FoodBooking, error)
	MarkPaid(ctx context.Context, id int) (*FoodBooking, error)
	Delete(ctx context.Context, id int) error
}
