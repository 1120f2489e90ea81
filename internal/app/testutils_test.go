package app

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/metinatakli/cinema-booking/api"
	"github.com/metinatakli/cinema-booking/internal/mailer"
	"github.com/metinatakli/cinema-booking/internal/validator"
)

const testJWTSecret = "test-jwt-secret"

func newTestApplication(opts ...func(*Application)) *Application {
	cfg := Config{Env: "test", Location: time.UTC}
	cfg.JWT.Secret = testJWTSecret
	cfg.OTP.TTL = 5 * time.Minute

	app := &Application{
		config:    cfg,
		validator: validator.NewValidator(),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		mailer:    mailer.NewMockMailer(),
	}

	for _, opt := range opts {
		opt(app)
	}

	return app
}

// executeRequest builds a request whose body is body encoded as JSON. A string body is sent as is
// and a nil body sends nothing.
func executeRequest(t *testing.T, method, url string, body any) (*httptest.ResponseRecorder, *http.Request) {
	var reader io.Reader

	switch v := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(v)
	default:
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(jsonData)
	}

	r := httptest.NewRequest(method, url, reader)
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	return w, r
}

func signToken(t *testing.T, role string, expiresAt time.Time) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, adminClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})

	signed, err := token.SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatal(err)
	}

	return signed
}

// authorize signs r with a token carrying role. An empty role leaves r anonymous.
func authorize(t *testing.T, r *http.Request, role string) {
	if role == "" {
		return
	}
	r.Header.Set("Authorization", "Bearer "+signToken(t, role, time.Now().Add(time.Hour)))
}

func asAdmin(t *testing.T, r *http.Request) *http.Request {
	r.Header.Set("Authorization", "Bearer "+signToken(t, roleAdmin, time.Now().Add(time.Hour)))
	return r
}

// checkErrorResponse compares wantErrMessage with the message of an error response, or with the
// issues of a validation error response.
func checkErrorResponse(t *testing.T, w *httptest.ResponseRecorder, tt struct {
	wantStatus     int
	wantErrMessage string
}) {
	if tt.wantStatus < 400 {
		return
	}

	var resp api.ValidationErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}

	if resp.Category == "" {
		t.Errorf("Error response has no category")
	}

	if tt.wantErrMessage == "" {
		return
	}

	if len(resp.ValidationErrors) > 0 {
		issues := make(map[string]bool)
		for _, vErr := range resp.ValidationErrors {
			issues[vErr.Issue] = true
		}

		if !issues[tt.wantErrMessage] {
			t.Errorf("Expected validation error message '%s' not found in %+v", tt.wantErrMessage, resp.ValidationErrors)
		}
		return
	}

	if resp.Message != tt.wantErrMessage {
		t.Errorf("Error message = %v, want %v", resp.Message, tt.wantErrMessage)
	}
}

func ptr[T any](v T) *T {
	return &v
}
