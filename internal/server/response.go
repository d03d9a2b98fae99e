package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"discovery/internal/chat"
	"discovery/internal/models"
)

type APIError struct {
	Message  string `json:"message"`
	Guidance string `json:"guidance,omitempty"`
	Code     string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func respondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{Error: APIError{
		Message:  msg,
		Guidance: models.Guidance(err),
		Code:     code,
	}})
}

// respondFailure maps a domain error to its status and code.
func respondFailure(c *gin.Context, err error) {
	status, code := classify(err)
	respondError(c, status, code, err)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrNoLocation):
		return http.StatusConflict, "no_location"
	case errors.Is(err, models.ErrStale):
		return http.StatusConflict, "superseded"
	case errors.Is(err, chat.ErrBusy):
		return http.StatusConflict, "busy"
	case errors.Is(err, models.ErrNoPlaces):
		return http.StatusNotFound, "no_places"
	case errors.Is(err, models.ErrLocationNotFound):
		return http.StatusNotFound, "location_not_found"
	case errors.Is(err, models.ErrPermissionDenied),
		errors.Is(err, models.ErrPositionUnavailable),
		errors.Is(err, models.ErrTimeout):
		return http.StatusUnprocessableEntity, "device_location"
	case errors.Is(err, chat.ErrEmptyMessage), errors.Is(err, chat.ErrUnknownAction):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, models.ErrServerUnreachable):
		return http.StatusBadGateway, "backend_unreachable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
