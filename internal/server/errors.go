package server

import (
	"errors"
	"net/http"

	"github.com/crawdale/hotel/internal/repository"
	"github.com/crawdale/hotel/internal/services/rooms"
)

// statusFor maps service errors onto HTTP status codes. Anything unrecognised
// is a persistence or internal failure.
func statusFor(err error) int {
	switch {
	case errors.Is(err, rooms.ErrInvalidInput), errors.Is(err, rooms.ErrInvalidFilter):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

type errorPage struct {
	Status     int
	StatusText string
	Message    string
	Back       string
}
