package app

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/metinatakli/cinema-booking/api"
	"github.com/metinatakli/cinema-booking/internal/domain"
)

func (app *Application) CreateFoodBookingHandler(w http.ResponseWriter, r *http.Request) {
	var input api.CreateFoodBookingRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	items := make([]domain.FoodBookingItem, len(input.Items))
	for i, item := range input.Items {
		items[i] = domain.FoodBookingItem{
			FoodID:    item.FoodId,
			FoodName:  item.FoodName,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		}
	}

	foodBooking := domain.NewFoodBooking(input.UserId, items)

	err = app.foodBookings.Create(r.Context(), &foodBooking)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	headers := make(http.Header)
	headers.Set("Location", fmt.Sprintf("/food-bookings/%d", foodBooking.ID))

	err = app.writeJSON(w, http.StatusCreated, toApiFoodBooking(&foodBooking), headers)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) ListFoodBookingsHandler(w http.ResponseWriter, r *http.Request) {
	foodBookings, err := app.foodBookings.GetAll(r.Context())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, api.FoodBookingListResponse{FoodBookings: toApiFoodBookings(foodBookings)}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) ListUserFoodBookingsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := readIDParam(r, "userId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	foodBookings, err := app.foodBookings.GetByUserID(r.Context(), userID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, api.FoodBookingListResponse{FoodBookings: toApiFoodBookings(foodBookings)}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetFoodBookingHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r, "foodBookingId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	foodBooking, err := app.foodBookings.GetByID(r.Context(), id)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toApiFoodBooking(foodBooking), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) UpdateFoodBookingStatusHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	id, err := readIDParam(r, "foodBookingId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var input api.UpdateFoodBookingStatusRequest

	err = app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	foodBooking, err := app.foodBookings.MarkPaid(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrEditConflict) {
			logger.Info("food booking is not pending", "food_booking_id", id)
		}
		app.domainErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toApiFoodBooking(foodBooking), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) DeleteFoodBookingHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r, "foodBookingId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.foodBookings.Delete(r.Context(), id)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func toApiFoodBooking(b *domain.FoodBooking) api.FoodBooking {
	items := make([]api.FoodBookingItem, len(b.Items))
	for i, item := range b.Items {
		items[i] = api.FoodBookingItem{
			Id:        item.ID,
			FoodId:    item.FoodID,
			FoodName:  item.FoodName,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			Subtotal:  item.Subtotal(),
		}
	}

	return api.FoodBooking{
		Id:         b.ID,
		UserId:     b.UserID,
		TotalPrice: b.TotalPrice,
		Status:     string(b.Status),
		Items:      items,
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}
}

func toApiFoodBookings(foodBookings []domain.FoodBooking) []api.FoodBooking {
	resp := make([]api.FoodBooking, 0, len(foodBookings))
	for i := range foodBookings {
		resp = append(resp, toApiFoodBooking(&foodBookings[i]))
	}

	return resp
}
