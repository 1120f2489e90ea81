package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/metinatakli/cinema-booking/internal/realtime"
)

// ShowtimeEventsHandler streams seat lock and release events of one showtime.
func (app *Application) ShowtimeEventsHandler(w http.ResponseWriter, r *http.Request) {
	app.serveEvents(w, r, realtime.ShowtimeTopic(chi.URLParam(r, "showtimeId")))
}

// BookingEventsHandler streams every booking event to admin dashboards.
func (app *Application) BookingEventsHandler(w http.ResponseWriter, r *http.Request) {
	app.serveEvents(w, r, realtime.TopicBookings)
}

func (app *Application) serveEvents(w http.ResponseWriter, r *http.Request, topic string) {
	// The upgrader has already answered the client when Serve fails.
	err := app.hub.Serve(w, r, topic)
	if err != nil {
		app.contextGetLogger(r).Warn("websocket upgrade failed", "topic", topic, "error", err)
	}
}
