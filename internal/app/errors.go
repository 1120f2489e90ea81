package app

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/metinatakli/cinema-booking/api"
	"github.com/metinatakli/cinema-booking/internal/domain"
	appvalidator "github.com/metinatakli/cinema-booking/internal/validator"
)

const (
	ErrInternalServer   = "The server encountered a problem and could not process your request"
	ErrNotFound         = "The requested resource not found"
	ErrMethodNotAllowed = "The method is not supported for this resource"
	ErrFailedValidation = "One or more fields have invalid values"
	ErrUnauthorized     = "You must be authenticated to access this resource"
	ErrForbidden        = "You do not have permission to access this resource"
)

func (app *Application) logError(r *http.Request, err error) {
	app.contextGetLogger(r).Error(err.Error())
}

// The errorResponse() method is a generic helper for sending JSON-formatted error
// messages to the client with a given status code.
func (app *Application) errorResponse(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	category domain.Category,
	message string) {

	resp := api.ErrorResponse{
		Message:   message,
		Category:  string(category),
		RequestId: middleware.GetReqID(r.Context()),
		Timestamp: time.Now(),
	}

	err := app.writeJSON(w, status, resp, nil)
	if err != nil {
		app.logError(r, err)
		w.WriteHeader(500)
	}
}

func (app *Application) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logError(r, err)
	app.errorResponse(w, r, http.StatusInternalServerError, domain.CategoryInternal, ErrInternalServer)
}

func (app *Application) notFoundResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusNotFound, domain.CategoryNotFound, ErrNotFound)
}

func (app *Application) methodNotAllowedResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusMethodNotAllowed, domain.CategoryValidation, ErrMethodNotAllowed)
}

func (app *Application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusBadRequest, domain.CategoryValidation, err.Error())
}

func (app *Application) unauthorizedAccessResponse(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	app.errorResponse(w, r, http.StatusUnauthorized, domain.CategoryValidation, ErrUnauthorized)
}

func (app *Application) forbiddenResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusForbidden, domain.CategoryValidation, ErrForbidden)
}

// failedValidationResponse reports every field the validator rejected. Errors that did not come
// from the validator are treated as bad requests.
func (app *Application) failedValidationResponse(w http.ResponseWriter, r *http.Request, err error) {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		app.badRequestResponse(w, r, err)
		return
	}

	resp := api.ValidationErrorResponse{
		Message:          ErrFailedValidation,
		Category:         string(domain.CategoryValidation),
		RequestId:        middleware.GetReqID(r.Context()),
		Timestamp:        time.Now(),
		ValidationErrors: make([]api.ValidationError, 0, len(validationErrs)),
	}

	for _, fieldErr := range validationErrs {
		resp.ValidationErrors = append(resp.ValidationErrors, api.ValidationError{
			Field: fieldName(fieldErr),
			Issue: appvalidator.ValidationMessage(fieldErr),
		})
	}

	err = app.writeJSON(w, http.StatusBadRequest, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// fieldName strips the struct name from the namespace, keeping the path into nested fields.
func fieldName(fieldErr validator.FieldError) string {
	ns := fieldErr.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}

	return fieldErr.Field()
}

// domainErrorResponse maps err to the status of its category. Internal errors are logged and
// answered with a generic message.
func (app *Application) domainErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	category := domain.CategoryOf(err)

	switch category {
	case domain.CategoryValidation:
		app.errorResponse(w, r, http.StatusBadRequest, category, err.Error())
	case domain.CategoryNotFound:
		app.errorResponse(w, r, http.StatusNotFound, category, notFoundMessage(err))
	case domain.CategoryConflict:
		app.errorResponse(w, r, http.StatusConflict, category, err.Error())
	case domain.CategoryDependency:
		app.contextGetLogger(r).Warn("dependency check failed", "error", err)
		app.errorResponse(w, r, http.StatusBadRequest, category, err.Error())
	default:
		app.serverErrorResponse(w, r, err)
	}
}

func notFoundMessage(err error) string {
	if errors.Is(err, domain.ErrRecordNotFound) && err.Error() != domain.ErrRecordNotFound.Error() {
		return fmt.Sprintf("The requested resource not found: %s", strings.TrimSuffix(err.Error(), ": "+domain.ErrRecordNotFound.Error()))
	}

	return ErrNotFound
}
