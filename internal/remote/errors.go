package remote

import (
	"errors"
	"net/http"
)

var (
	// ErrUnavailable wraps transport failures (connection refused, timeouts).
	ErrUnavailable = errors.New("sync server unavailable")
	// ErrUnauthorized matches APIError values with status 401.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidResponse is returned when a 2xx body cannot be decoded.
	ErrInvalidResponse = errors.New("invalid response from server")
	ErrNoExpiry        = errors.New("token has no expiry")
)

// APIError is a non-2xx response from the server
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// Is lets errors.Is(err, ErrUnauthorized) match 401 responses
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}
