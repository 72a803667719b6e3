package client

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is the normalized form of every upstream failure: non-2xx
// responses keep their status code and any server-supplied message,
// transport-level failures carry status zero.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("upstream request failed: %s", e.Message)
	}
	return fmt.Sprintf("upstream returned %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is an upstream 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsUnauthorized reports whether err is an upstream 401.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// StatusOf returns the upstream status code carried by err, or 0 when err
// is not an APIError or was a transport failure.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
