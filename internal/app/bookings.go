package app

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/metinatakli/cinema-booking/api"
	"github.com/metinatakli/cinema-booking/internal/domain"
)

func (app *Application) CreateBookingHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	var input api.CreateBookingRequest

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

	booking, err := app.bookings.Create(r.Context(), domain.CreateBookingInput{
		UserID:     input.UserId,
		ShowtimeID: input.ShowtimeId,
		RoomID:     input.RoomId,
		MovieID:    input.MovieId,
		SeatIDs:    input.SeatIds,
		TotalPrice: input.TotalPrice,
	})
	if err != nil {
		logger.Info("booking rejected", "showtime_id", input.ShowtimeId, "error", err)
		app.domainErrorResponse(w, r, err)
		return
	}

	headers := make(http.Header)
	headers.Set("Location", fmt.Sprintf("/bookings/%d", booking.ID))

	err = app.writeJSON(w, http.StatusCreated, toApiBooking(booking), headers)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) ListBookingsHandler(w http.ResponseWriter, r *http.Request) {
	pagination, err := readPagination(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	bookings, metadata, err := app.bookings.List(r.Context(), pagination)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := api.BookingListResponse{
		Bookings: toApiBookings(bookings),
		Metadata: toApiMetadata(metadata),
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetBookingHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r, "bookingId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	booking, err := app.bookings.Get(r.Context(), id)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toApiBooking(booking), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) ListUserBookingsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := readIDParam(r, "userId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	bookings, err := app.bookings.ListByUser(r.Context(), userID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, api.BookingListResponse{Bookings: toApiBookings(bookings)}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) UpdateBookingStatusHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	id, err := readIDParam(r, "bookingId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var input api.UpdateBookingStatusRequest

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

	booking, err := app.bookings.UpdateStatus(r.Context(), id, domain.BookingStatus(input.Status))
	if err != nil {
		logger.Info("booking status change rejected", "booking_id", id, "status", input.Status, "error", err)
		app.domainErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toApiBooking(booking), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) DeleteBookingHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r, "bookingId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	_, err = app.bookings.Delete(r.Context(), id)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (app *Application) GetLockedSeatsHandler(w http.ResponseWriter, r *http.Request) {
	showtimeID := chi.URLParam(r, "showtimeId")

	seatIDs, err := app.bookings.LockedSeats(r.Context(), showtimeID)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	if seatIDs == nil {
		seatIDs = []int{}
	}

	resp := api.LockedSeatsResponse{
		ShowtimeId: showtimeID,
		SeatIds:    seatIDs,
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func toApiBooking(booking *domain.Booking) api.Booking {
	seatIDs := booking.SeatIDs
	if seatIDs == nil {
		seatIDs = []int{}
	}

	return api.Booking{
		Id:         booking.ID,
		UserId:     booking.UserID,
		ShowtimeId: booking.ShowtimeID,
		RoomId:     booking.RoomID,
		MovieId:    booking.MovieID,
		SeatIds:    seatIDs,
		TotalPrice: booking.TotalPrice,
		Status:     booking.Status.String(),
		CreatedAt:  booking.CreatedAt,
		UpdatedAt:  booking.UpdatedAt,
	}
}

func toApiBookings(bookings []domain.Booking) []api.Booking {
	resp := make([]api.Booking, 0, len(bookings))
	for i := range bookings {
		resp = append(resp, toApiBooking(&bookings[i]))
	}

	return resp
}

func toApiMetadata(metadata *domain.Metadata) *api.Metadata {
	if metadata == nil {
		return nil
	}

	return &api.Metadata{
		CurrentPage:  metadata.CurrentPage,
		FirstPage:    metadata.FirstPage,
		LastPage:     metadata.LastPage,
		PageSize:     metadata.PageSize,
		TotalRecords: metadata.TotalRecords,
	}
}
