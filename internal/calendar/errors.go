package calendar

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-2xx response from a Google endpoint.
type APIError struct {
	Operation  string
	StatusCode int
	Message    string
}

func (err *APIError) Error() string {
	if err.Message == "" {
		return fmt.Sprintf("calendar %s: status %d", err.Operation, err.StatusCode)
	}
	return fmt.Sprintf("calendar %s: status %d: %s", err.Operation, err.StatusCode, err.Message)
}

// IsNotFound reports a 404 or 410 from the Calendar API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusNotFound || apiErr.StatusCode == http.StatusGone
}

func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}
