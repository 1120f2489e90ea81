package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"
)

func (app *Application) Routes() http.Handler {
	r := chi.NewRouter()

	r.NotFound(app.notFoundResponse)
	r.MethodNotAllowed(app.methodNotAllowedResponse)

	r.Use(otelchi.Middleware("cinema-booking-api", otelchi.WithChiRoutes(r)))
	r.Use(middleware.Logger)
	r.Use(middleware.RequestID)
	r.Use(app.requestLogger)
	r.Use(app.recoverPanic)

	r.Get("/healthcheck", app.GetHealth)

	r.Route("/bookings", func(r chi.Router) {
		r.Post("/", app.CreateBookingHandler)
		r.With(app.requireAdmin).Get("/", app.ListBookingsHandler)

		r.Route("/{bookingId}", func(r chi.Router) {
			r.Get("/", app.GetBookingHandler)
			r.With(app.requireAdmin).Delete("/", app.DeleteBookingHandler)
			r.With(app.requireAdmin).Patch("/status", app.UpdateBookingStatusHandler)
			r.With(app.requireAdmin).Post("/payment-confirmations", app.ConfirmPaymentHandler)

			r.Route("/refund-request", func(r chi.Router) {
				r.Post("/", app.RequestRefundHandler)
				r.Get("/", app.GetRefundRequestHandler)
				r.Delete("/", app.CancelRefundHandler)
				r.With(app.requireAdmin).Post("/approval", app.ApproveRefundHandler)
			})
		})
	})

	r.Get("/users/{userId}/bookings", app.ListUserBookingsHandler)
	r.Get("/users/{userId}/food-bookings", app.ListUserFoodBookingsHandler)

	r.Route("/showtimes", func(r chi.Router) {
		r.Get("/", app.ListShowtimesHandler)
		r.With(app.requireAdmin).Post("/", app.CreateShowtimeHandler)
		r.With(app.requireAdmin).Post("/generation", app.GenerateShowtimesHandler)
		r.With(app.requireAdmin).Patch("/prices", app.UpdateShowtimePricesHandler)

		r.Route("/{showtimeId}", func(r chi.Router) {
			r.Get("/", app.GetShowtimeHandler)
			r.With(app.requireAdmin).Delete("/", app.DeleteShowtimeHandler)
			r.Get("/locked-seats", app.GetLockedSeatsHandler)
		})
	})

	r.Route("/food-bookings", func(r chi.Router) {
		r.Post("/", app.CreateFoodBookingHandler)
		r.Get("/", app.ListFoodBookingsHandler)

		r.Route("/{foodBookingId}", func(r chi.Router) {
			r.Get("/", app.GetFoodBookingHandler)
			r.Delete("/", app.DeleteFoodBookingHandler)
			r.With(app.requireAdmin).Patch("/status", app.UpdateFoodBookingStatusHandler)
		})
	})

	r.Route("/password-resets/otp", func(r chi.Router) {
		r.Post("/", app.IssuePasswordResetOTPHandler)
		r.Post("/verification", app.VerifyPasswordResetOTPHandler)
	})

	r.Post("/webhook", app.StripeWebhookHandler)

	r.Get("/ws/showtimes/{showtimeId}", app.ShowtimeEventsHandler)
	r.With(app.requireAdmin).Get("/ws/bookings", app.BookingEventsHandler)

	return r
}
