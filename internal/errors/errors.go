// Package errors provides structured CLI error types for tsout.
//
// CLIError wraps errors with user-facing messages, hints, and exit codes
// so the command surface reports failures consistently.
package errors

import (
	"errors"
	"fmt"
)

// Exit codes for CLI errors.
const (
	ExitSuccess   = 0   // Successful execution (child exited 0)
	ExitGeneral   = 1   // General error, launch failure, or help shown
	ExitUsage     = 64  // Command line usage error (BSD convention)
	ExitInterrupt = 130 // Interrupted by SIGINT (128 + signal)
)

// CLIError represents a user-facing CLI error with actionable guidance.
type CLIError struct {
	// Message is the primary error message shown to the user.
	Message string

	// Hint provides actionable guidance on how to fix the error.
	Hint string

	// Cause is the underlying error, if any.
	Cause error

	// Code is the exit code for the CLI.
	Code int
}

// Error implements the error interface.
func (e *CLIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}

	return e.Message
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *CLIError) Unwrap() error {
	return e.Cause
}

// New creates a new CLIError with the given message and exit code.
func New(code int, message string) *CLIError {
	return &CLIError{
		Message: message,
		Code:    code,
	}
}

// Wrap wraps an existing error with a CLIError.
func Wrap(code int, message string, cause error) *CLIError {
	return &CLIError{
		Message: message,
		Cause:   cause,
		Code:    code,
	}
}

// WithHint adds a hint to the error.
func (e *CLIError) WithHint(hint string) *CLIError {
	e.Hint = hint
	return e
}

// As is a convenience function for errors.As with CLIError.
func As(err error, target **CLIError) bool {
	return errors.As(err, target)
}

// --- Common error constructors ---

// ConflictingTimestampFlags returns the usage error for -T combined with -u.
func ConflictingTimestampFlags() *CLIError {
	return &CLIError{
		Message: "Cannot use both -T and -u",
		Hint:    "Pick one timestamp mode: -T (Unix epoch) or -u (UTC wall clock)",
		Code:    ExitUsage,
	}
}

// MissingCommand returns the error for an invocation without a child command.
func MissingCommand() *CLIError {
	return &CLIError{
		Message: "No command to run",
		Hint:    "Usage: tsout [flags] [--] command [args...]",
		Code:    ExitGeneral,
	}
}

// PTYAllocation returns the error for a failed pseudo-terminal allocation.
func PTYAllocation(cause error) *CLIError {
	return &CLIError{
		Message: "Failed to allocate pseudo-terminal",
		Cause:   cause,
		Code:    ExitGeneral,
	}
}

// SpawnFailed returns the error for a child command that could not start.
func SpawnFailed(command string, cause error) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Failed to start '%s'", command),
		Cause:   cause,
		Code:    ExitGeneral,
	}
}
