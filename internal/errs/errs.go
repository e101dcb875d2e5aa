// Package errs holds the user-facing error type and the error kinds shared by
// the configuration, client and session layers.
package errs

import (
	"errors"
	"fmt"
)

// Error kinds. Wrap them with fmt.Errorf("%w: ...") and test with errors.Is.
var (
	// ErrConfigNotFound means the models file does not exist.
	ErrConfigNotFound = errors.New("config not found")
	// ErrConfigParse means the models file is not a well-formed profile mapping.
	ErrConfigParse = errors.New("config parse error")
	// ErrConfigKey means a requested model identifier is not in the models file.
	ErrConfigKey = errors.New("config key error")
	// ErrTransportInit means a client could not be built from a profile.
	ErrTransportInit = errors.New("transport init error")
	// ErrRequestFailure wraps any fault while sending a prompt.
	ErrRequestFailure = errors.New("request failure")
)

var kinds = []error{
	ErrConfigNotFound,
	ErrConfigParse,
	ErrConfigKey,
	ErrTransportInit,
	ErrRequestFailure,
}

// Kind returns the error kind err belongs to, or nil when it has none.
func Kind(err error) error {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// UserErrorf is a user-facing error.
// This helper exists mostly to avoid linters complaining about errors starting
// with a capitalized letter.
func UserErrorf(format string, a ...any) error {
	return fmt.Errorf(format, a...)
}

// Error wraps an underlying error with a user-facing reason.
//
// Reason is meant to be short and actionable; Err may contain technical details.
// When Err is nil, Error() falls back to Reason.
type Error struct {
	Err    error
	Reason string
}

// Wrap creates an Error with the given underlying error and user-facing reason.
func Wrap(err error, reason string) Error {
	return Error{Err: err, Reason: reason}
}

// Wrapf creates an Error with the given underlying error and a formatted reason.
func Wrapf(err error, format string, a ...any) Error {
	return Error{Err: err, Reason: fmt.Sprintf(format, a...)}
}

func (e Error) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Reason
}

func (e Error) Unwrap() error {
	return e.Err
}

// ReasonText returns the user-facing reason for the error.
func (e Error) ReasonText() string {
	return e.Reason
}

// Reason returns the user-facing reason carried by err, falling back to its
// message when err is not an Error.
func Reason(err error) string {
	var e Error
	if errors.As(err, &e) && e.Reason != "" {
		return e.Reason
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
