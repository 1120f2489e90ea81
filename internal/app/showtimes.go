package app

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/metinatakli/cinema-booking/api"
	"github.com/metinatakli/cinema-booking/internal/domain"
	"github.com/metinatakli/cinema-booking/internal/scheduling"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

func (app *Application) CreateShowtimeHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	var input api.CreateShowtimeRequest

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

	showtime, err := app.scheduler.Create(r.Context(), scheduling.CreateInput{
		TheaterID:    input.TheaterId,
		RoomID:       input.RoomId,
		MovieID:      input.MovieId,
		Date:         input.Date.Time,
		StartTime:    input.StartTime,
		PriceRegular: input.PriceRegular,
		PriceVIP:     input.PriceVIP,
		ShowtimeType: input.ShowtimeType,
	})
	if err != nil {
		logger.Info("showtime rejected", "room_id", input.RoomId, "error", err)
		app.domainErrorResponse(w, r, err)
		return
	}

	headers := make(http.Header)
	headers.Set("Location", fmt.Sprintf("/showtimes/%s", showtime.ID))

	err = app.writeJSON(w, http.StatusCreated, toApiShowtime(showtime), headers)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GenerateShowtimesHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	var input api.GenerateShowtimesRequest

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

	showtimes, err := app.scheduler.Generate(r.Context(), scheduling.GenerateInput{
		TheaterID:           input.TheaterId,
		MovieID:             input.MovieId,
		StartDate:           input.StartDate.Time,
		EndDate:             input.EndDate.Time,
		Times:               input.Times,
		ShowtimeType:        input.ShowtimeType,
		PriceRegular:        input.PriceRegular,
		PriceVIP:            input.PriceVIP,
		WeekendPriceRegular: input.WeekendPriceRegular,
		WeekendPriceVIP:     input.WeekendPriceVIP,
	})
	if err != nil {
		logger.Info("showtime generation rejected", "theater_id", input.TheaterId, "error", err)
		app.domainErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusCreated, api.ShowtimeListResponse{Showtimes: toApiShowtimes(showtimes)}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) ListShowtimesHandler(w http.ResponseWriter, r *http.Request) {
	filter, err := readShowtimeFilter(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	showtimes, err := app.scheduler.List(r.Context(), filter)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, api.ShowtimeListResponse{Showtimes: toApiShowtimes(showtimes)}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func readShowtimeFilter(r *http.Request) (domain.ShowtimeFilter, error) {
	var filter domain.ShowtimeFilter

	query := r.URL.Query()

	for name, dst := range map[string]**int{"theaterId": &filter.TheaterID, "roomId": &filter.RoomID} {
		v := query.Get(name)
		if v == "" {
			continue
		}

		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return filter, domain.NewValidationError("%s must be a positive integer", name)
		}
		*dst = &n
	}

	if movieID := query.Get("movieId"); movieID != "" {
		filter.MovieID = &movieID
	}

	if date := query.Get("date"); date != "" {
		d, err := time.Parse(openapi_types.DateFormat, date)
		if err != nil {
			return filter, domain.NewValidationError("date must be formatted as YYYY-MM-DD")
		}
		filter.Date = &d
	}

	return filter, nil
}

func (app *Application) GetShowtimeHandler(w http.ResponseWriter, r *http.Request) {
	showtime, err := app.scheduler.Get(r.Context(), chi.URLParam(r, "showtimeId"))
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toApiShowtime(showtime), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) UpdateShowtimePricesHandler(w http.ResponseWriter, r *http.Request) {
	var input api.UpdateShowtimePricesRequest

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

	matched, err := app.scheduler.UpdatePrices(r.Context(), domain.ShowtimePriceUpdate{
		IDs:          input.Ids,
		PriceRegular: input.PriceRegular,
		PriceVIP:     input.PriceVIP,
	})
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, api.UpdateShowtimePricesResponse{Matched: matched}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) DeleteShowtimeHandler(w http.ResponseWriter, r *http.Request) {
	err := app.scheduler.Delete(r.Context(), chi.URLParam(r, "showtimeId"))
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func toApiShowtime(s *domain.Showtime) api.Showtime {
	return api.Showtime{
		Id:            s.ID,
		MovieId:       s.MovieID,
		MovieTitle:    s.MovieTitle,
		MovieDuration: s.MovieDuration,
		TheaterId:     s.TheaterID,
		TheaterName:   s.TheaterName,
		RoomId:        s.RoomID,
		RoomName:      s.RoomName,
		Date:          openapi_types.Date{Time: s.Date},
		StartTime:     s.StartTime,
		EndTime:       s.EndTime,
		PriceRegular:  s.PriceRegular,
		PriceVIP:      s.PriceVIP,
		ShowtimeType:  s.ShowtimeType,
	}
}

func toApiShowtimes(showtimes []domain.Showtime) []api.Showtime {
	resp := make([]api.Showtime, 0, len(showtimes))
	for i := range showtimes {
		resp = append(resp, toApiShowtime(&showtimes[i]))
	}

	return resp
}
