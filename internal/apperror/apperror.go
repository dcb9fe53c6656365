// Package apperror defines the error taxonomy shared by every component.
//
// Each failure class has a sentinel (ErrValidation, ErrAuth, ...) and the
// constructors below wrap it in an *AppError carrying a human-readable
// message. Callers branch with errors.Is and show AppError.Message to the user.
//
// ErrBusy and ErrStale are control-flow signals, not failures: they are
// returned bare (never wrapped in an AppError) and should not be presented
// as error banners.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("Validation Error")
	ErrConflict   = errors.New("conflict")
	ErrForbidden  = errors.New("forbidden")

	ErrAuth       = errors.New("authentication failed")
	ErrGeneration = errors.New("generation failed")
	ErrTransport  = errors.New("transport failure")
	ErrRemote     = errors.New("remote service error")
)

// Control-flow signals.
var (
	// ErrBusy is returned when a generation is already in flight.
	ErrBusy = errors.New("busy: a request is already in flight")
	// ErrStale is returned when a response arrived after the caller moved on.
	ErrStale = errors.New("stale: response superseded by a newer request")
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, field string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s with this %s already exists", resource, field),
		Field:   field,
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// AuthFailed reports a credential rejection or a missing session.
func AuthFailed(message string) *AppError {
	return &AppError{
		Err:     ErrAuth,
		Message: message,
	}
}

// GenerationFailed reports that the remote service could not produce content.
func GenerationFailed(message string) *AppError {
	return &AppError{
		Err:     ErrGeneration,
		Message: message,
	}
}

// Transport reports a network failure, timeout or an undecodable response.
func Transport(message string) *AppError {
	return &AppError{
		Err:     ErrTransport,
		Message: message,
	}
}

// Remote reports a non-2xx response that has no more specific class.
func Remote(message string) *AppError {
	return &AppError{
		Err:     ErrRemote,
		Message: message,
	}
}

// IsSignal reports whether err is a control-flow signal rather than a failure.
func IsSignal(err error) bool {
	return errors.Is(err, ErrBusy) || errors.Is(err, ErrStale)
}

// Message returns the user-facing text for err, falling back when err
// carries no AppError.
func Message(err error, fallback string) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}
