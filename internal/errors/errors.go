package errors

import (
	"errors"
	"fmt"
)

// Failure kinds of the sign-in redirect. Every stage error carries exactly one
// of these so the response can be chosen without looking at messages.
var (
	// Client errors
	ErrBadRequest = errors.New("bad request")

	// Token endpoint errors
	ErrUpstreamAuth           = errors.New("upstream auth error")
	ErrMalformedTokenResponse = errors.New("malformed token response")
	ErrInvalidIDToken         = errors.New("invalid id token")

	// AWS errors
	ErrCredentialVending = errors.New("credential vending failed")
	ErrPresign           = errors.New("presign failed")

	// General errors
	ErrUnhandled = errors.New("unhandled error")
)

// StageError is a failure raised by one stage of the pipeline.
type StageError struct {
	Kind   error  // one of the Err* sentinels above
	Detail string // caller-visible detail, e.g. the upstream response body
	Err    error  // underlying cause, may be nil
}

func NewStageError(kind error, detail string, err error) *StageError {
	return &StageError{Kind: kind, Detail: detail, Err: err}
}

func (e *StageError) Error() string {
	msg := e.Kind.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StageError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// KindOf returns the failure kind of err, ErrUnhandled when err is not a
// StageError, or nil when err is nil.
func KindOf(err error) error {
	if err == nil {
		return nil
	}
	var se *StageError
	if errors.As(err, &se) && se.Kind != nil {
		return se.Kind
	}
	return ErrUnhandled
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
