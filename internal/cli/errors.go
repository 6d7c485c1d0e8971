package cli

import (
	"errors"
	"fmt"
)

// Exit codes for CLI commands.
const (
	ExitSuccess    = 0
	ExitUserError  = 1 // bad arguments, unknown item, out of stock
	ExitStoreError = 2 // the store could not be opened or did not answer
)

// ExitError is an error that carries the process exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func userError(message string, err error) *ExitError {
	return &ExitError{Code: ExitUserError, Message: message, Err: err}
}

func storeError(message string, err error) *ExitError {
	return &ExitError{Code: ExitStoreError, Message: message, Err: err}
}

// ExitCode extracts the exit code from an error. Errors that are not an
// ExitError, such as cobra's argument errors, are user errors.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitUserError
}
