package app

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

const roleAdmin = "admin"

func (app *Application) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				w.Header().Set("Connection", "close")

				app.serverErrorResponse(w, r, fmt.Errorf("%s", err))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

func (app *Application) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, app.contextSetLogger(r))
	})
}

type adminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// requireAdmin lets through requests bearing an HS256 token, issued by the user service, whose
// role claim is admin. Browsers cannot set headers on websocket upgrades, so the token is also
// accepted from the access_token query parameter.
func (app *Application) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := app.contextGetLogger(r)

		raw := bearerToken(r)
		if raw == "" {
			app.unauthorizedAccessResponse(w, r)
			return
		}

		var claims adminClaims

		_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
			return []byte(app.config.JWT.Secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
		if err != nil {
			if !errors.Is(err, jwt.ErrTokenExpired) {
				logger.Warn("rejected admin token", "error", err)
			}
			app.unauthorizedAccessResponse(w, r)
			return
		}

		if claims.Role != roleAdmin {
			logger.Warn("non-admin token on admin route", "subject", claims.Subject, "role", claims.Role)
			app.forbiddenResponse(w, r)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header != "" {
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			return ""
		}
		return strings.TrimSpace(token)
	}

	return r.URL.Query().Get("access_token")
}
