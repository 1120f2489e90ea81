package app

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

type Config struct {
	Port             int
	Env              string
	DB               DBConfig
	Redis            RedisConfig
	Mongo            MongoConfig
	SMTP             SMTPConfig
	Stripe           StripeConfig
	AMQP             AMQPConfig
	JWT              JWTConfig
	Services         ServicesConfig
	SeatLock         SeatLockConfig
	Hold             HoldConfig
	OTP              OTPConfig
	Timezone         string
	Location         *time.Location
	PointsUnit       int64
	OtelCollectorUrl string
}

type DBConfig struct {
	DSN          string
	MaxOpenConns int
	MaxIdleTime  time.Duration
}

type RedisConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
	MaxIdleTime  time.Duration
}

type MongoConfig struct {
	URI      string
	Database string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Sender   string
}

type StripeConfig struct {
	WebhookSecret string
}

// AMQPConfig is optional. Events only go to Redis when URL is empty.
type AMQPConfig struct {
	URL      string
	Exchange string
}

type JWTConfig struct {
	Secret string
}

type ServicesConfig struct {
	MovieURL   string
	TheaterURL string
	UserURL    string
	Timeout    time.Duration
}

type SeatLockConfig struct {
	LockTTL    time.Duration
	FillTTL    time.Duration
	MaxRetries int
}

type HoldConfig struct {
	TTL                 time.Duration
	SweepInterval       time.Duration
	CreditRetryInterval time.Duration
}

type OTPConfig struct {
	TTL time.Duration
}

// LoadConfig reads .env when present and parses the command line. Every flag defaults to its
// environment variable. It returns showVersion when -version was given.
func LoadConfig(args []string) (cfg Config, showVersion bool, err error) {
	_ = godotenv.Load()

	fs := flag.NewFlagSet("api", flag.ContinueOnError)

	fs.IntVar(&cfg.Port, "port", envIntOr("PORT", 3000), "server port")
	fs.StringVar(&cfg.Env, "env", envOr("ENV", "dev"), "Environment (dev|staging|prod)")

	fs.StringVar(&cfg.DB.DSN, "db-dsn", envOr("DB_DSN", ""), "PostgreSQL DSN")
	fs.IntVar(&cfg.DB.MaxOpenConns, "db-max-open-conns", envIntOr("DB_MAX_OPEN_CONNS", 25), "PostgreSQL max open connections")
	fs.DurationVar(&cfg.DB.MaxIdleTime, "db-max-idle-time", envDurationOr("DB_MAX_IDLE_TIME", 15*time.Minute), "PostgreSQL max idle time for connections")

	fs.StringVar(&cfg.Redis.URL, "redis-url", envOr("REDIS_URL", "localhost:6379"), "Redis address")
	fs.IntVar(&cfg.Redis.MaxOpenConns, "redis-max-open-conns", envIntOr("REDIS_MAX_OPEN_CONNS", 25), "Redis max open connections")
	fs.IntVar(&cfg.Redis.MaxIdleConns, "redis-max-idle-conns", envIntOr("REDIS_MAX_IDLE_CONNS", 10), "Redis max idle connections")
	fs.DurationVar(&cfg.Redis.MaxIdleTime, "redis-max-idle-time", envDurationOr("REDIS_MAX_IDLE_TIME", 2*time.Minute), "Redis max idle time for connections")

	fs.StringVar(&cfg.Mongo.URI, "mongo-uri", envOr("MONGO_URI", "mongodb://localhost:27017/?replicaSet=rs0"), "MongoDB URI")
	fs.StringVar(&cfg.Mongo.Database, "mongo-database", envOr("MONGO_DATABASE", "cinema"), "MongoDB database")

	fs.StringVar(&cfg.SMTP.Host, "smtp-host", envOr("SMTP_HOST", "sandbox.smtp.mailtrap.io"), "SMTP host")
	fs.IntVar(&cfg.SMTP.Port, "smtp-port", envIntOr("SMTP_PORT", 2525), "SMTP port")
	fs.StringVar(&cfg.SMTP.Username, "smtp-username", envOr("SMTP_USERNAME", ""), "SMTP username")
	fs.StringVar(&cfg.SMTP.Password, "smtp-password", envOr("SMTP_PASSWORD", ""), "SMTP password")
	fs.StringVar(&cfg.SMTP.Sender, "smtp-sender", envOr("SMTP_SENDER", "CineX <no-reply@cinex.metinatakli.net>"), "SMTP sender")

	fs.StringVar(&cfg.Stripe.WebhookSecret, "stripe-webhook-secret", envOr("STRIPE_WEBHOOK_SECRET", ""), "Stripe webhook secret")

	fs.StringVar(&cfg.AMQP.URL, "amqp-url", envOr("AMQP_URL", ""), "RabbitMQ URL, events are not published to RabbitMQ when empty")
	fs.StringVar(&cfg.AMQP.Exchange, "amqp-exchange", envOr("AMQP_EXCHANGE", "cinema.events"), "RabbitMQ topic exchange")

	fs.StringVar(&cfg.JWT.Secret, "jwt-secret", envOr("JWT_SECRET", ""), "HS256 secret of admin tokens")

	fs.StringVar(&cfg.Services.MovieURL, "movie-service-url", envOr("MOVIE_SERVICE_URL", "http://localhost:8081"), "Movie service base URL")
	fs.StringVar(&cfg.Services.TheaterURL, "theater-service-url", envOr("THEATER_SERVICE_URL", "http://localhost:8082"), "Theater service base URL")
	fs.StringVar(&cfg.Services.UserURL, "user-service-url", envOr("USER_SERVICE_URL", "http://localhost:8083"), "User service base URL")
	fs.DurationVar(&cfg.Services.Timeout, "service-timeout", envDurationOr("SERVICE_TIMEOUT", 3*time.Second), "Timeout of calls to other services")

	fs.DurationVar(&cfg.SeatLock.LockTTL, "seat-lock-ttl", envDurationOr("SEAT_LOCK_TTL", 60*time.Second), "TTL of locked seat cache entries after a lock")
	fs.DurationVar(&cfg.SeatLock.FillTTL, "seat-fill-ttl", envDurationOr("SEAT_FILL_TTL", 60*time.Second), "TTL of locked seat cache entries filled from the ledger")
	fs.IntVar(&cfg.SeatLock.MaxRetries, "seat-lock-retries", envIntOr("SEAT_LOCK_RETRIES", 10), "Attempts of an optimistic seat cache update")

	fs.DurationVar(&cfg.Hold.TTL, "hold-ttl", envDurationOr("HOLD_TTL", 15*time.Minute), "How long an unpaid booking holds its seats")
	fs.DurationVar(&cfg.Hold.SweepInterval, "hold-sweep-interval", envDurationOr("HOLD_SWEEP_INTERVAL", time.Minute), "Interval of the expired hold sweep")
	fs.DurationVar(&cfg.Hold.CreditRetryInterval, "points-retry-interval", envDurationOr("POINTS_RETRY_INTERVAL", 5*time.Minute), "Interval of loyalty point credit retries")

	fs.DurationVar(&cfg.OTP.TTL, "otp-ttl", envDurationOr("OTP_TTL", 5*time.Minute), "Lifetime of password reset codes")

	fs.StringVar(&cfg.Timezone, "timezone", envOr("TIMEZONE", "Asia/Ho_Chi_Minh"), "Timezone of showtime dates")
	fs.Int64Var(&cfg.PointsUnit, "points-unit", int64(envIntOr("POINTS_UNIT", 1000)), "Amount paid per loyalty point")

	fs.StringVar(&cfg.OtelCollectorUrl, "otel-collector-url", envOr("OTEL_COLLECTOR_URL", ""), "OpenTelemetry collector gRPC endpoint")

	displayVersion := fs.Bool("version", false, "Display version and exit")

	err = fs.Parse(args)
	if err != nil {
		return cfg, false, err
	}

	cfg.Location, err = time.LoadLocation(cfg.Timezone)
	if err != nil {
		return cfg, false, fmt.Errorf("loading timezone %q: %w", cfg.Timezone, err)
	}

	if cfg.PointsUnit < 1 {
		return cfg, false, fmt.Errorf("points-unit must be positive, got %d", cfg.PointsUnit)
	}

	return cfg, *displayVersion, nil
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}

	return fallback
}

func envIntOr(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}

	return v
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}

	return v
}
