package app

import (
	"fmt"
	"net/http"

	"github.com/metinatakli/cinema-booking/api"
)

const passwordResetTemplate = "password_reset_otp.tmpl"

// IssuePasswordResetOTPHandler always answers 202 once the code is stored, so callers cannot
// tell whether the mail went out.
func (app *Application) IssuePasswordResetOTPHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	var input api.PasswordResetOTPRequest

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

	code, err := app.otp.Issue(r.Context(), input.Email)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	data := map[string]any{
		"code":             code,
		"expiresInMinutes": int(app.config.OTP.TTL.Minutes()),
	}

	app.background(func() {
		err := app.mailer.Send(input.Email, passwordResetTemplate, data)
		if err != nil {
			logger.Error("failed to send password reset code", "error", err)
		}
	})

	w.WriteHeader(http.StatusAccepted)
}

func (app *Application) VerifyPasswordResetOTPHandler(w http.ResponseWriter, r *http.Request) {
	var input api.PasswordResetOTPVerificationRequest

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

	err = app.otp.Consume(r.Context(), input.Email, input.Otp)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (app *Application) background(fn func()) {
	go func() {
		defer func() {
			if err := recover(); err != nil {
				app.logger.Error(fmt.Sprintf("%v", err))
			}
		}()

		fn()
	}()
}
