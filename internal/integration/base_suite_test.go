package integration_test

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/metinatakli/cinema-booking/internal/app"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
)

const (
	dbName         = "cinema_booking"
	dbUser         = "test_user"
	dbPassword     = "test_password"
	dbImageName    = "postgres:17-alpine"
	cacheImageName = "redis:7"
	mongoImageName = "mongo:7"
	mongoDatabase  = "cinema_test"
	jwtSecret      = "integration-jwt-secret"
)

type BaseSuite struct {
	suite.Suite
	app            *TestApp
	dbContainer    *PostgresContainer
	cacheContainer *RedisContainer
	mongoContainer *MongoContainer
}

func (s *BaseSuite) SetupSuite() {
	ctx := context.Background()

	postgresContainer, err := getDbContainer(ctx)
	if err != nil {
		s.T().Fatalf("failed to start container: %s", err)
	}
	s.dbContainer = postgresContainer

	redisContainer, err := getCacheContainer(ctx)
	if err != nil {
		s.T().Fatalf("failed to start container: %s", err)
	}
	s.cacheContainer = redisContainer

	mongoContainer, err := getMongoContainer(ctx)
	if err != nil {
		s.T().Fatalf("failed to start container: %s", err)
	}
	s.mongoContainer = mongoContainer

	cfg := app.Config{
		Port:     3000,
		Env:      "test",
		Location: time.UTC,
		DB: app.DBConfig{
			DSN:          postgresContainer.ConnectionString,
			MaxOpenConns: 25,
			MaxIdleTime:  2 * time.Minute,
		},
		Redis: app.RedisConfig{
			URL:          redisContainer.ConnectionString,
			MaxOpenConns: 10,
			MaxIdleConns: 10,
			MaxIdleTime:  2 * time.Minute,
		},
		Mongo: app.MongoConfig{
			URI:      mongoContainer.ConnectionString,
			Database: mongoDatabase,
		},
		JWT:      app.JWTConfig{Secret: jwtSecret},
		Services: app.ServicesConfig{Timeout: 2 * time.Second},
		OTP:      app.OTPConfig{TTL: 5 * time.Minute},
	}

	testApp, err := newTestApp(cfg)
	if err != nil {
		s.T().Fatalf("cannot initialize app: %s", err)
	}

	s.app = testApp
}

func (s *BaseSuite) SetupTest() {
	if s.app != nil {
		resetState(s.T(), s.app)
	}
}

func (s *BaseSuite) TearDownSuite() {
	if s.app != nil {
		s.app.Close()
	}

	containers := []testcontainers.Container{}
	if s.dbContainer != nil {
		containers = append(containers, s.dbContainer.Container.Container)
	}
	if s.cacheContainer != nil {
		containers = append(containers, s.cacheContainer.Container)
	}
	if s.mongoContainer != nil {
		containers = append(containers, s.mongoContainer.Container)
	}

	for _, c := range containers {
		if err := testcontainers.TerminateContainer(c); err != nil {
			log.Printf("failed to terminate container: %s", err)
		}
	}
}

// resetState empties every store the API writes to.
func resetState(t testing.TB, testApp *TestApp) {
	ctx := context.Background()

	_, err := testApp.DB.Exec(ctx, `
		TRUNCATE booking, booking_seats, refund_booking, payment_confirmations,
			food_booking, food_booking_items RESTART IDENTITY CASCADE
	`)
	require.NoError(t, err)

	require.NoError(t, testApp.Redis.FlushDB(ctx).Err())

	_, err = testApp.Mongo.Database(mongoDatabase).Collection("showtimes").DeleteMany(ctx, map[string]any{})
	require.NoError(t, err)

	testApp.Mailer.Reset()
	testApp.Upstream.Reset()
}

type Scenario struct {
	Name             string
	Method           string
	URL              string
	Body             io.Reader
	Headers          map[string]string
	ExpectedStatus   int
	ExpectedResponse string
	BeforeTestFunc   func(t testing.TB, app *TestApp)
	AfterTestFunc    func(t testing.TB, app *TestApp, res *http.Response)
}

func (s Scenario) Run(t *testing.T, testApp *TestApp) {
	t.Run(s.Name, func(t *testing.T) {
		resetState(t, testApp)

		req, err := prepareRequest(s.Method, s.URL, s.Body, s.Headers)
		require.NoError(t, err)

		if s.BeforeTestFunc != nil {
			s.BeforeTestFunc(t, testApp)
		}

		rec := httptest.NewRecorder()
		testApp.App.Routes().ServeHTTP(rec, req)

		res := rec.Result()
		defer res.Body.Close()

		assert.Equal(t, s.ExpectedStatus, res.StatusCode)

		if s.ExpectedResponse != "" {
			compareResponse(t, res.Body, s.ExpectedResponse)
		}

		if s.AfterTestFunc != nil {
			s.AfterTestFunc(t, testApp, res)
		}
	})
}
