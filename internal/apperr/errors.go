// Package apperr holds the error kinds surfaced to API clients and the
// sanitizer applied to anything unexpected before it is shown.
package apperr

import (
	"errors"
	"regexp"
	"strings"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrUnavailable  = errors.New("service unavailable")
	ErrUnauthorized = errors.New("unauthorized")
)

// FieldError is used to indicate an error with a specific field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// ValidationError is raised before any external call is made.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(msg string, flds ...FieldError) error {
	return &ValidationError{Err: errors.New(msg), Fields: flds}
}

func (err *ValidationError) Error() string {
	if err.Err == nil {
		return "invalid input"
	}
	return err.Err.Error()
}

func (err *ValidationError) Unwrap() error { return err.Err }

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

const genericMessage = "An unexpected error occurred. Please try again."

var (
	urlPattern   = regexp.MustCompile(`https?://\S+`)
	pathPattern  = regexp.MustCompile(`(/[\w.\-]+){2,}`)
	tokenPattern = regexp.MustCompile(`(?i)(key|token|secret|password|signature)=\S+`)
	emailPattern = regexp.MustCompile(`[\w.+\-]+@[\w\-]+\.[\w.\-]+`)
)

// Sanitize returns a message that is safe to show to a user. Validation and
// not-found errors pass through; anything that looks internal is masked.
func Sanitize(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case IsValidation(err):
		return err.Error()
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrUnauthorized), errors.Is(err, ErrUnavailable):
		return outermost(err)
	}

	msg := err.Error()
	lower := strings.ToLower(msg)
	for _, marker := range []string{"panic", "goroutine", "stack", "sql", "rpc error", "dial tcp", "x509", "credentials"} {
		if strings.Contains(lower, marker) {
			return genericMessage
		}
	}
	msg = urlPattern.ReplaceAllString(msg, "[url]")
	msg = tokenPattern.ReplaceAllString(msg, "$1=[redacted]")
	msg = emailPattern.ReplaceAllString(msg, "[email]")
	msg = pathPattern.ReplaceAllString(msg, "[path]")
	if len(msg) > 200 {
		return genericMessage
	}
	return msg
}

// outermost reports only the sentinel's text, dropping the wrapping context.
func outermost(err error) string {
	for _, sentinel := range []error{ErrNotFound, ErrUnauthorized, ErrUnavailable} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}
