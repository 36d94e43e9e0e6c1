// Package apperrors defines the error kinds surfaced to the user.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies a failure by where it happened
type Kind string

const (
	KindValidation Kind = "VALIDATION_ERROR"
	KindTransport  Kind = "TRANSPORT_ERROR"
	KindServer     Kind = "SERVER_ERROR"
)

// Messages shown when nothing more specific is available.
const (
	MsgEmptyQuery    = "Please enter a question about the database."
	MsgServerDefault = "An error occurred while processing the query"
	MsgUnexpected    = "An unexpected error occurred"
)

// Error is a failure with a kind, a displayable message and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Status  int // HTTP status, server errors only
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation reports input that must never reach the backend.
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// Transport reports a request that did not complete.
func Transport(message string, err error) *Error {
	return &Error{Kind: KindTransport, Message: message, Err: err}
}

// Server reports a non-success HTTP status. An empty message falls back to
// MsgServerDefault.
func Server(status int, message string) *Error {
	if message == "" {
		message = MsgServerDefault
	}
	return &Error{Kind: KindServer, Message: message, Status: status}
}

func kindOf(err error) (Kind, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind, true
	}
	return "", false
}

// IsValidation checks if err is a validation error
func IsValidation(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindValidation
}

// IsTransport checks if err is a transport error
func IsTransport(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindTransport
}

// IsServer checks if err is a server error
func IsServer(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindServer
}

// UserMessage returns the text to show for err. Validation and server errors
// show their own message; transport errors show the underlying cause, like a
// failed fetch would.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var appErr *Error
	if !errors.As(err, &appErr) {
		if msg := err.Error(); msg != "" {
			return msg
		}
		return MsgUnexpected
	}
	switch appErr.Kind {
	case KindTransport:
		if appErr.Err != nil && appErr.Err.Error() != "" {
			return appErr.Err.Error()
		}
		if appErr.Message != "" {
			return appErr.Message
		}
		return MsgUnexpected
	default:
		if appErr.Message != "" {
			return appErr.Message
		}
		return MsgUnexpected
	}
}
