package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/lexi/internal/apperr"
	"github.com/lexi/internal/workspace"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string      `json:"error"`
	Kind  apperr.Kind `json:"kind,omitempty"`
}

var errSessionNotFound = errors.New("session not found")

// statusFor maps an error to its HTTP status and kind
func statusFor(err error) (int, apperr.Kind) {
	switch {
	case errors.Is(err, errSessionNotFound):
		return http.StatusNotFound, ""
	case errors.Is(err, apperr.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, apperr.KindValidation
	case errors.Is(err, workspace.ErrRequestInFlight),
		errors.Is(err, workspace.ErrInvalidTransition),
		errors.Is(err, workspace.ErrChatUnavailable),
		errors.Is(err, workspace.ErrNoTemplate),
		errors.Is(err, workspace.ErrDeviceBusy):
		return http.StatusConflict, apperr.KindValidation
	case errors.Is(err, workspace.ErrUnknownField):
		return http.StatusBadRequest, apperr.KindValidation
	}

	switch kind := apperr.KindOf(err); kind {
	case apperr.KindValidation:
		return http.StatusBadRequest, kind
	case apperr.KindService:
		return http.StatusBadGateway, kind
	case apperr.KindResponse:
		return http.StatusUnprocessableEntity, kind
	}
	return http.StatusInternalServerError, ""
}

// respondError writes err as JSON. Application errors carry their user-facing
// message; flow errors are already phrased for the caller.
func respondError(c echo.Context, err error) error {
	status, kind := statusFor(err)

	message := err.Error()
	if apperr.KindOf(err) != "" {
		message = apperr.UserMessage(err)
	} else if status == http.StatusInternalServerError {
		message = apperr.UserMessage(err)
	}

	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Int("status", status).Msg("Request failed")
	} else {
		log.Debug().Err(err).Str("path", c.Path()).Int("status", status).Msg("Request rejected")
	}

	return c.JSON(status, ErrorResponse{Error: message, Kind: kind})
}

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: message, Kind: apperr.KindValidation})
}
