package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type RefundMethod string

const (
	RefundMethodBankTransfer RefundMethod = "bank_transfer"
	RefundMethodMobileWallet RefundMethod = "mobile_wallet"
)

type RefundRequest struct {
	ID                int
	BookingID         int
	Amount            decimal.Decimal
	Method            RefundMethod
	Phone             string
	MomoAccountName   string
	BankAccountName   string
	BankName          string
	BankAccountNumber string
	CreatedAt         time.Time
}

// MissingDetails lists the payee fields the refund method needs but the request lacks.
func (r RefundRequest) MissingDetails() []string {
	var missing []string

	switch r.Method {
	case RefundMethodMobileWallet:
		if r.Phone == "" {
			missing = append(missing, "phone")
		}
		if r.MomoAccountName == "" {
			missing = append(missing, "momoAccountName")
		}
	case RefundMethodBankTransfer:
		if r.BankAccountName == "" {
			missing = append(missing, "bankAccountName")
		}
		if r.BankName == "" {
			missing = append(missing, "bankName")
		}
		if r.BankAccountNumber == "" {
			missing = append(missing, "bankAccountNumber")
		}
	}

	return missing
}
