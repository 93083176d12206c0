package errors

import (
	"errors"
	"fmt"
)

var (
	ErrMissingInput    = errors.New("missing input file")
	ErrMalformedRecord = errors.New("malformed record")
	ErrInvalidInput    = errors.New("invalid input")
	ErrCacheCorrupt    = errors.New("label cache corrupt")
	ErrCacheMiss       = errors.New("label cache miss")
	ErrMismatch        = errors.New("prediction and test record counts differ")
	ErrInternal        = errors.New("internal error")
)

// Exit statuses reported by the command-line tools.
const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitBadInput = 2
	ExitBadCache = 3
)

type AppError struct {
	Err      error
	Message  string
	ExitCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, exitCode int, message string) *AppError {
	return &AppError{
		Err:      sentinel,
		Message:  message,
		ExitCode: exitCode,
	}
}

func Newf(sentinel error, exitCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:      sentinel,
		Message:  fmt.Sprintf(format, args...),
		ExitCode: exitCode,
	}
}

// Is and As re-export the standard helpers so callers need a single import.
func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target any) bool { return errors.As(err, target) }

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.ExitCode
	}

	switch {
	case errors.Is(err, ErrMissingInput),
		errors.Is(err, ErrMalformedRecord),
		errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrMismatch):
		return ExitBadInput
	case errors.Is(err, ErrCacheCorrupt):
		return ExitBadCache
	default:
		return ExitFailure
	}
}
