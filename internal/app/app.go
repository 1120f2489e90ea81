package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/exaring/otelpgx"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/cinema-booking/internal/booking"
	"github.com/metinatakli/cinema-booking/internal/catalog"
	"github.com/metinatakli/cinema-booking/internal/domain"
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
	"github.com/metinatakli/cinema-booking/internal/vcs"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"golang.org/x/sync/errgroup"
)

var (
	version = vcs.Version()
)

type Application struct {
	config    Config
	logger    *slog.Logger
	validator *validator.Validate
	mailer    mailer.Mailer

	bookings     *booking.Service
	scheduler    *scheduling.Scheduler
	foodBookings domain.FoodBookingRepository
	otp          domain.OTPStore
	webhook      domain.PaymentEventParser
	hub          *realtime.Hub
}

func NewApp(
	cfg Config,
	logger *slog.Logger,
	validator *validator.Validate,
	mailer mailer.Mailer,
	bookings *booking.Service,
	scheduler *scheduling.Scheduler,
	foodBookings domain.FoodBookingRepository,
	otpStore domain.OTPStore,
	webhook domain.PaymentEventParser,
	hub *realtime.Hub) *Application {

	return &Application{
		config:       cfg,
		logger:       logger,
		validator:    validator,
		mailer:       mailer,
		bookings:     bookings,
		scheduler:    scheduler,
		foodBookings: foodBookings,
		otp:          otpStore,
		webhook:      webhook,
		hub:          hub,
	}
}

func Run() error {
	cfg, showVersion, err := LoadConfig(os.Args[1:])
	if err != nil {
		return err
	}

	if showVersion {
		fmt.Printf("Version:\t%s\n", version)
		return nil
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	app := &Application{config: cfg, logger: logger}

	shutdownTelemetry, err := app.InitTelemetry()
	if err != nil {
		return err
	}
	defer shutdownTelemetry(context.Background())

	if cfg.OtelCollectorUrl != "" {
		logger = slog.New(NewMultiHandler(
			slog.NewTextHandler(os.Stdout, nil),
			otelslog.NewHandler("cinema-booking-api"),
		))
	}

	db, err := NewDatabasePool(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient, err := NewRedisClient(cfg)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	mongoClient, err := NewMongoClient(cfg)
	if err != nil {
		return err
	}
	defer mongoClient.Disconnect(context.Background())

	showtimeRepo := repository.NewMongoShowtimeRepository(mongoClient, cfg.Mongo.Database)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = showtimeRepo.EnsureIndexes(ctx)
	cancel()
	if err != nil {
		return fmt.Errorf("creating showtime indexes: %w", err)
	}

	emitter := events.Multi{events.NewRedisEmitter(redisClient)}
	if cfg.AMQP.URL != "" {
		amqpEmitter := events.NewAMQPEmitter(cfg.AMQP.URL, cfg.AMQP.Exchange, logger)
		defer amqpEmitter.Close()

		emitter = append(emitter, amqpEmitter)
	}

	bookingRepo := repository.NewPostgresBookingRepository(db)

	seatLocks := seatlock.NewManager(redisClient, bookingRepo, logger,
		seatlock.WithLockTTL(cfg.SeatLock.LockTTL),
		seatlock.WithFillTTL(cfg.SeatLock.FillTTL),
		seatlock.WithMaxRetries(cfg.SeatLock.MaxRetries),
	)

	bookings := booking.NewService(
		bookingRepo,
		repository.NewPostgresPaymentRepository(db),
		seatLocks,
		emitter,
		loyalty.NewClient(cfg.Services.UserURL, loyalty.WithTimeout(cfg.Services.Timeout)),
		logger,
		booking.WithHoldTTL(cfg.Hold.TTL),
		booking.WithPointsUnit(decimal.NewFromInt(cfg.PointsUnit)),
	)

	lookups := catalog.NewClient(cfg.Services.MovieURL, cfg.Services.TheaterURL, cfg.Services.Timeout, logger)
	scheduler := scheduling.NewScheduler(showtimeRepo, lookups, lookups, cfg.Location, logger)

	app = NewApp(
		cfg,
		logger,
		appvalidator.NewValidator(),
		mailer.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.Sender),
		bookings,
		scheduler,
		repository.NewPostgresFoodBookingRepository(db),
		otp.NewStore(redisClient, otp.WithTTL(cfg.OTP.TTL)),
		payment.NewStripeWebhookParser(cfg.Stripe.WebhookSecret),
		realtime.NewHub(redisClient, logger),
	)

	return app.run()
}

func NewRedisClient(cfg Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:            cfg.Redis.URL,
		MaxIdleConns:    cfg.Redis.MaxIdleConns,
		MaxActiveConns:  cfg.Redis.MaxOpenConns,
		ConnMaxIdleTime: cfg.Redis.MaxIdleTime,
	})

	err := errors.Join(redisotel.InstrumentTracing(rdb), redisotel.InstrumentMetrics(rdb))
	if err != nil {
		rdb.Close()
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err = rdb.Ping(ctx).Err()
	if err != nil {
		rdb.Close()
		return nil, err
	}

	return rdb, nil
}

func NewDatabasePool(cfg Config) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(cfg.DB.DSN)
	if err != nil {
		return nil, err
	}

	config.MaxConnIdleTime = cfg.DB.MaxIdleTime
	config.MaxConns = int32(cfg.DB.MaxOpenConns)
	config.ConnConfig.Tracer = otelpgx.NewTracer()

	db, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err = db.Ping(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// NewMongoClient connects to the showtime store. The deployment must be a replica set, since
// scheduling relies on multi-document transactions.
func NewMongoClient(cfg Config) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return nil, err
	}

	err = client.Ping(ctx, readpref.Primary())
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return client, nil
}

func (app *Application) run() error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%d", app.config.Port),
		Handler:      app.Routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     slog.NewLogLogger(app.logger.Handler(), slog.LevelDebug),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		app.logger.Info("starting server", "addr", srv.Addr, "env", app.config.Env)

		err := srv.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	g.Go(func() error {
		return app.hub.Run(gctx)
	})

	g.Go(func() error {
		return app.runJobs(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()

		app.logger.Info("shutting down server", "cause", context.Cause(gctx))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	if err != nil {
		return err
	}

	app.logger.Info("stopped server", "addr", srv.Addr)

	return nil
}
