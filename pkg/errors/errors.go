package errors

import (
	"errors"
	"fmt"
)

var (
	ErrIndexNotBuilt   = errors.New("index not built")
	ErrAlreadyBuilt    = errors.New("index already built")
	ErrInvalidRecord   = errors.New("invalid record")
	ErrSinkUnavailable = errors.New("sink unavailable")
	ErrUsage           = errors.New("usage")
	ErrTimeout         = errors.New("operation timed out")
)

// Exit statuses returned by ExitCode.
const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitUsage    = 2
	ExitInternal = 70
)

type AppError struct {
	Err     error
	Op      string
	Message string
}

func (e *AppError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, op string, message string) *AppError {
	return &AppError{
		Err:     sentinel,
		Op:      op,
		Message: message,
	}
}

func Newf(sentinel error, op string, format string, args ...any) *AppError {
	return &AppError{
		Err:     sentinel,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
	}
}

// ExitCode maps an error returned from a run to the process exit status.
// Missing input files and remote sink failures are logged and the run goes
// on; only errors that abort the run reach here.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch {
	case errors.Is(err, ErrUsage):
		return ExitUsage
	case errors.Is(err, ErrIndexNotBuilt), errors.Is(err, ErrAlreadyBuilt):
		return ExitInternal
	default:
		return ExitFailure
	}
}
