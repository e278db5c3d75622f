package errs

import (
	"errors"
	"fmt"
)

// Sentinel categories. Services return errors wrapping one of these so
// controllers can map them to HTTP statuses with errors.Is.
var (
	// ErrValidation marks input rejected before persistence (bad enum value,
	// missing required field). The message is surfaced verbatim to the caller.
	ErrValidation = errors.New("validation error")

	// ErrNotFound marks a reference key or id that does not resolve.
	ErrNotFound = errors.New("not found")

	// ErrExternalService marks an unreachable or unauthenticated upstream
	// (Graph API, SMTP, webhook target). Jobs log it and retry next trigger.
	ErrExternalService = errors.New("external service error")
)

// Validationf builds a validation error with a formatted message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...)
}

// NotFoundf builds a not-found error with a formatted message.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrNotFound}, args...)...)
}

// Externalf builds an external-service error with a formatted message.
func Externalf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrExternalService}, args...)...)
}

// Wrap adds context and preserves the error chain (errors.Is/As works).
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf adds formatted context and preserves the error chain.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	args = append(args, err)
	return fmt.Errorf(format+": %w", args...)
}

// Message strips the sentinel prefix for user display.
func Message(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, sentinel := range []error{ErrValidation, ErrNotFound, ErrExternalService} {
		prefix := sentinel.Error() + ": "
		if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
			return msg[len(prefix):]
		}
	}
	return msg
}
