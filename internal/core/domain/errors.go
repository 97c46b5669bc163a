package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoToken means no bearer token is stored; the session is attempting
	// nothing and the caller should present the login flow.
	ErrNoToken = errors.New("no bearer token stored")

	// ErrTokenRejected means the backend refused the stored token; the token
	// has been cleared by the time this error is observed.
	ErrTokenRejected = errors.New("bearer token rejected by backend")

	// ErrInvalidCredentials means a login attempt was refused by the backend.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNotAuthenticated means an operation requiring a session was invoked
	// without one.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// UpstreamError carries a non-success response from the grading backend.
// Status is the backend's HTTP status; Detail is the structured error detail
// extracted from its body, empty when the body had none.
type UpstreamError struct {
	Status int
	Detail string
}

func (e *UpstreamError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("grading backend returned status %d", e.Status)
	}
	return fmt.Sprintf("grading backend returned status %d: %s", e.Status, e.Detail)
}
