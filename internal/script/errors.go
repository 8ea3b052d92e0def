package script

import (
	"errors"
	"net/http"
)

var (
	// ErrInvalidArgument marks malformed or out-of-range caller input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrServiceUnavailable marks a server without provider configuration.
	ErrServiceUnavailable = errors.New("service unavailable")
	// ErrUpstreamFailure marks a transport or provider error from the model.
	ErrUpstreamFailure = errors.New("upstream failure")
)

// Error pairs a taxonomy kind with the short message shown to callers. The
// wrapped cause is for logs only.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Kind.Error() + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Kind.Error() + ": " + e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func invalidArgument(message string) error {
	return &Error{Kind: ErrInvalidArgument, Message: message}
}

func serviceUnavailable() error {
	return &Error{Kind: ErrServiceUnavailable, Message: "LLM provider is not configured on the server"}
}

func upstreamFailure(message string, cause error) error {
	return &Error{Kind: ErrUpstreamFailure, Message: message, Err: cause}
}

// StatusCode maps an error from this package to an HTTP status.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidArgument):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the caller-facing message for err.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}
