package gajpati

import (
	"errors"
	"fmt"
)

// NetworkError wraps a transport-level failure: DNS, connection refused,
// context cancellation, anything that prevented a response from arriving.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("gajpati client: network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPError carries a non-2xx response status together with the message the
// backend reported, if any.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("HTTP error! status: %d", e.Status)
}

// ValidationError is a backend-reported 4xx that names a client-side problem
// (bad field, duplicate record). The session layer translates its message
// before showing it to the operator.
type ValidationError struct {
	Status  int
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// AuthExpiredError marks a 401 that could not be resolved by refreshing the
// access token. The session is unrecoverable until the operator logs in again.
type AuthExpiredError struct {
	Err error
}

func (e *AuthExpiredError) Error() string {
	return fmt.Sprintf("gajpati auth: session expired: %v", e.Err)
}

func (e *AuthExpiredError) Unwrap() error { return e.Err }

// errorMessage extracts the backend-facing message from any error produced by
// the client, falling back to err.Error().
func errorMessage(err error) string {
	if err == nil {
		return ""
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Error()
	}
	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return valErr.Error()
	}
	return err.Error()
}
