package pkg

import (
	"errors"
	"fmt"
)

// Process exit codes used by docker-captain. Any other non-zero code is passed through from a
// failed subprocess.
const (
	ExitSuccess = 0
	ExitFailure = 1
	// ExitUsage is returned for unknown projects and a projects folder that doesn't exist.
	ExitUsage = 2
)

// ExitError asks Execute() to terminate the process with Code. Err may be nil if the failure
// has already been reported to the user.
type ExitError struct {
	Code int
	Err  error
}

var _ error = (*ExitError)(nil)

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// Exit wraps err (which may be nil) with the given exit code. A zero code without error
// returns nil.
func Exit(code int, err error) error {
	if code == ExitSuccess && err == nil {
		return nil
	}
	return &ExitError{Code: code, Err: err}
}

// ExitCode extracts the process exit code for err: 0 for nil, the code of a wrapped ExitError
// or 1 for anything else.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}
