package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure by where it originated
type Kind string

const (
	// KindValidation covers input problems caught before any network call
	KindValidation Kind = "validation"
	// KindService covers transport failures and non-2xx answers from the AI service
	KindService Kind = "service"
	// KindResponse covers model output that could not be turned into a result
	KindResponse Kind = "response"
)

// Sentinel errors
var (
	ErrMissingFields   = errors.New("required fields are missing")
	ErrFileTooLarge    = errors.New("file exceeds the size ceiling")
	ErrUnsupportedFile = errors.New("unsupported file type")
	ErrEmptyInput      = errors.New("input is empty")
	ErrEmptyOutput     = errors.New("model returned no text")
)

// Error is the application error carried through every flow.
// Message is safe to show to the user; Err keeps the underlying cause for logs.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Validation builds an input-validation error
func Validation(op, message string, err error) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: message, Err: err}
}

// Service builds a transport/service error
func Service(op, message string, err error) *Error {
	return &Error{Kind: KindService, Op: op, Message: message, Err: err}
}

// Response builds a response-shape error
func Response(op, message string, err error) *Error {
	return &Error{Kind: KindResponse, Op: op, Message: message, Err: err}
}

// KindOf returns the kind of err, or "" if err is not an application error
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// UserMessage returns the plain-language message for err
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return "Something went wrong. Please try again."
}

// IsTransient reports whether an upstream error looks like a temporary fault
// (rate limiting, overloaded server, dropped connection). Flows use it only to
// pick a message; nothing is retried automatically.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())

	transient := []string{
		"connection refused",
		"connection reset",
		"timeout",
		"temporary failure",
		"service unavailable",
		"too many requests",
		"rate limit",
		"resource exhausted",
		"429",
		"500",
		"502",
		"503",
		"504",
		"no such host",
		"network unreachable",
		"broken pipe",
		"context deadline exceeded",
	}

	for _, t := range transient {
		if strings.Contains(errStr, t) {
			return true
		}
	}

	return false
}
