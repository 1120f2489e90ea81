package integration_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/cinema-booking/internal/app"
	"github.com/metinatakli/cinema-booking/internal/booking"
	"github.com/metinatakli/cinema-booking/internal/catalog"
	"github.com/metinatakli/cinema-booking/internal/events"
	"github.com/metinatakli/cinema-booking/internal/loyalty"
	"github.com/metinatakli/cinema-booking/internal/mailer"
	"github.com/metinatakli/cinema-booking/internal/otp"
	"github.com/metinatakli/cinema-booking/internal/payment"
	"github.com/metinatakli/cinema-booking/internal/realtime"
	"github.com/metinatakli/cinema-booking/internal/repository"
	"github.com/metinatakli/cinema-booking/internal/scheduling"
	"github.com/metinatakli/cinema-booking/internal/seatlock"
	appvalidator "github.com/metinatakli/cinema-booking/internal/validator"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

type TestApp struct {
	App      *app.Application
	DB       *pgxpool.Pool
	Redis    *redis.Client
	Mongo    *mongo.Client
	Mailer   *mailer.MockMailer
	Hub      *realtime.Hub
	Upstream *fakeUpstream
}

func newTestApp(cfg app.Config) (*TestApp, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	mockMailer := mailer.NewMockMailer()

	upstream := newFakeUpstream()
	cfg.Services.MovieURL = upstream.URL
	cfg.Services.TheaterURL = upstream.URL
	cfg.Services.UserURL = upstream.URL

	db, err := app.NewDatabasePool(cfg)
	if err != nil {
		upstream.Close()
		return nil, err
	}

	redisClient, err := app.NewRedisClient(cfg)
	if err != nil {
		upstream.Close()
		db.Close()
		return nil, err
	}

	mongoClient, err := app.NewMongoClient(cfg)
	if err != nil {
		upstream.Close()
		db.Close()
		redisClient.Close()
		return nil, err
	}

	showtimeRepo := repository.NewMongoShowtimeRepository(mongoClient, cfg.Mongo.Database)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err = showtimeRepo.EnsureIndexes(ctx)
	if err != nil {
		upstream.Close()
		db.Close()
		redisClient.Close()
		_ = mongoClient.Disconnect(context.Background())
		return nil, err
	}

	bookingRepo := repository.NewPostgresBookingRepository(db)
	seatLocks := seatlock.NewManager(redisClient, bookingRepo, logger)

	bookings := booking.NewService(
		bookingRepo,
		repository.NewPostgresPaymentRepository(db),
		seatLocks,
		events.NewRedisEmitter(redisClient),
		loyalty.NewClient(cfg.Services.UserURL, loyalty.WithMaxTries(1)),
		logger,
	)

	lookups := catalog.NewClient(cfg.Services.MovieURL, cfg.Services.TheaterURL, cfg.Services.Timeout, logger)
	hub := realtime.NewHub(redisClient, logger)

	application := app.NewApp(
		cfg,
		logger,
		appvalidator.NewValidator(),
		mockMailer,
		bookings,
		scheduling.NewScheduler(showtimeRepo, lookups, lookups, cfg.Location, logger),
		repository.NewPostgresFoodBookingRepository(db),
		otp.NewStore(redisClient, otp.WithTTL(cfg.OTP.TTL)),
		payment.NewStripeWebhookParser(cfg.Stripe.WebhookSecret),
		hub,
	)

	return &TestApp{
		App:      application,
		DB:       db,
		Redis:    redisClient,
		Mongo:    mongoClient,
		Mailer:   mockMailer,
		Hub:      hub,
		Upstream: upstream,
	}, nil
}

func (a *TestApp) Close() {
	a.Upstream.Close()
	a.DB.Close()
	a.Redis.Close()
	_ = a.Mongo.Disconnect(context.Background())
}

type pointCredit struct {
	UserID         int
	Points         int64
	IdempotencyKey string
}

// fakeUpstream serves the movie, theater and user services the API calls out to.
type fakeUpstream struct {
	*httptest.Server

	mu       sync.Mutex
	credits  []pointCredit
	userDown bool
}

func newFakeUpstream() *fakeUpstream {
	f := &fakeUpstream{}

	r := chi.NewRouter()

	r.Get("/api/movies/{id}", func(w http.ResponseWriter, r *http.Request) {
		movie, ok := testMovies[chi.URLParam(r, "id")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		writeUpstreamJSON(w, movie)
	})

	r.Get("/api/rooms/theater/{id}", func(w http.ResponseWriter, r *http.Request) {
		theaterID, _ := strconv.Atoi(chi.URLParam(r, "id"))
		rooms, ok := testRooms[theaterID]
		if !ok {
			http.NotFound(w, r)
			return
		}
		writeUpstreamJSON(w, rooms)
	})

	r.Post("/api/users/{id}/points", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		if f.userDown {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}

		var body struct {
			Points int64 `json:"points"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		userID, _ := strconv.Atoi(chi.URLParam(r, "id"))
		f.credits = append(f.credits, pointCredit{
			UserID:         userID,
			Points:         body.Points,
			IdempotencyKey: r.Header.Get("Idempotency-Key"),
		})

		w.WriteHeader(http.StatusNoContent)
	})

	f.Server = httptest.NewServer(r)

	return f
}

func (f *fakeUpstream) Credits() []pointCredit {
	f.mu.Lock()
	defer f.mu.Unlock()

	credits := make([]pointCredit, len(f.credits))
	copy(credits, f.credits)
	return credits
}

func (f *fakeUpstream) SetUserServiceDown(down bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.userDown = down
}

func (f *fakeUpstream) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.credits = nil
	f.userDown = false
}

func writeUpstreamJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
