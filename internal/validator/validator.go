package validator

import (
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/metinatakli/cinema-booking/internal/domain"
	"github.com/metinatakli/cinema-booking/internal/scheduling"
	"github.com/shopspring/decimal"
)

func NewValidator() *validator.Validate {
	validator := validator.New(validator.WithRequiredStructEnabled())

	// Decimals are validated by their string form, so sign checks stay exact.
	validator.RegisterCustomTypeFunc(decimalString, decimal.Decimal{})

	validator.RegisterValidation("clock", validateClock)
	validator.RegisterValidation("showtime_type", validateShowtimeType)
	validator.RegisterValidation("booking_status", validateBookingStatus)
	validator.RegisterValidation("refund_method", validateRefundMethod)
	validator.RegisterValidation("nonnegative", validateNonNegative)
	validator.RegisterValidation("positive", validatePositive)

	return validator
}

func validateClock(fl validator.FieldLevel) bool {
	_, err := scheduling.ParseClock(fl.Field().String())
	return err == nil
}

func validateShowtimeType(fl validator.FieldLevel) bool {
	return scheduling.FormatOf(fl.Field().String()) != ""
}

func validateBookingStatus(fl validator.FieldLevel) bool {
	return domain.BookingStatus(fl.Field().String()).IsKnown()
}

func validateRefundMethod(fl validator.FieldLevel) bool {
	method := domain.RefundMethod(fl.Field().String())
	return method == domain.RefundMethodBankTransfer || method == domain.RefundMethodMobileWallet
}

func decimalString(field reflect.Value) any {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		return d.String()
	}

	return nil
}

func decimalOf(fl validator.FieldLevel) (decimal.Decimal, bool) {
	if fl.Field().Kind() != reflect.String {
		return decimal.Zero, false
	}

	d, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return decimal.Zero, false
	}

	return d, true
}

func validateNonNegative(fl validator.FieldLevel) bool {
	d, ok := decimalOf(fl)
	return ok && !d.IsNegative()
}

func validatePositive(fl validator.FieldLevel) bool {
	d, ok := decimalOf(fl)
	return ok && d.IsPositive()
}

// ValidationMessage converts validator errors into readable messages
func ValidationMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if err.Kind().String() == "slice" {
			return fmt.Sprintf("must contain at least %s item(s)", err.Param())
		}
		return fmt.Sprintf("must be at least %s", err.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", err.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", err.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters long", err.Param())
	case "numeric":
		return "must contain only digits"
	case "unique":
		return "must not contain duplicates"
	case "clock":
		return "must be a time in HH:MM format"
	case "showtime_type":
		return "must name a format (2D, 3D or IMAX)"
	case "booking_status":
		return "must be one of PENDING, PAID, CANCELLED, REFUND_REQUESTED, REFUNDED"
	case "refund_method":
		return "must be bank_transfer or mobile_wallet"
	case "nonnegative":
		return "must not be negative"
	case "positive":
		return "must be greater than zero"
	default:
		return "is invalid"
	}
}
