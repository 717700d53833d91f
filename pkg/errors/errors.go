package errors

import (
	"context"
	stderrors "errors"
	"fmt"
)

// ErrorType represents the stage of the run an error belongs to
type ErrorType string

const (
	ErrorTypeConfig      ErrorType = "config"
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeNavigation  ErrorType = "navigation"
	ErrorTypeCollection  ErrorType = "collection"
	ErrorTypePersistence ErrorType = "persistence"
	ErrorTypeBrowser     ErrorType = "browser"
	ErrorTypeCanceled    ErrorType = "canceled"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error is a categorized failure with the operation that produced it
type Error struct {
	Type    ErrorType
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s error", e.Type)
	if e.Op != "" {
		msg += " in " + e.Op
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a categorized error without a cause
func New(t ErrorType, op, message string) *Error {
	return &Error{Type: t, Op: op, Message: message}
}

// Wrap categorizes err. Context cancellation is always reported as
// ErrorTypeCanceled. An error that already carries t is returned unchanged
// when there is no message to add. A nil err yields nil.
func Wrap(t ErrorType, op string, err error, message string) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if stderrors.As(err, &existing) {
		if existing.Type == ErrorTypeCanceled || (existing.Type == t && message == "") {
			return err
		}
	}
	if stderrors.Is(err, context.Canceled) {
		t = ErrorTypeCanceled
	}
	return &Error{Type: t, Op: op, Message: message, Err: err}
}

// TypeOf returns the category of the outermost categorized error in err's chain
func TypeOf(err error) ErrorType {
	if err == nil {
		return ""
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	if stderrors.Is(err, context.Canceled) {
		return ErrorTypeCanceled
	}
	return ErrorTypeUnknown
}

// Is reports whether err carries the given category
func Is(err error, t ErrorType) bool {
	return TypeOf(err) == t
}

// ExitCode maps an error to the process exit status
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch TypeOf(err) {
	case ErrorTypeConfig:
		return 2
	case ErrorTypeAuth:
		return 3
	case ErrorTypeNavigation:
		return 4
	case ErrorTypeCollection:
		return 5
	case ErrorTypePersistence:
		return 6
	case ErrorTypeBrowser:
		return 7
	case ErrorTypeCanceled:
		return 130
	default:
		return 1
	}
}
