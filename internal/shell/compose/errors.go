package compose

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	// Backend errors
	ErrBackendUnavailable = errors.New("orchestration backend unavailable")
	ErrComposeTooOld      = errors.New("docker compose v2 or newer is required")

	// Project errors
	ErrComposeFileMissing = errors.New("compose file not found")
	ErrServiceUndefined   = errors.New("service not defined in compose project")
	ErrInvalidProject     = errors.New("invalid compose project")

	// Service errors
	ErrServiceNotFound = errors.New("service container not found")
	ErrEmptyCommand    = errors.New("command is empty")
)

// BackendError wraps a failed backend operation with context.
type BackendError struct {
	Op      string // Operation that failed
	Service string // Service name if applicable
	Message string
	Err     error
}

func (e *BackendError) Error() string {
	if e.Service != "" {
		return fmt.Sprintf("%s %s: %s", e.Op, e.Service, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// NewBackendError creates a new BackendError.
func NewBackendError(op, service, message string, err error) *BackendError {
	return &BackendError{
		Op:      op,
		Service: service,
		Message: message,
		Err:     err,
	}
}

// BackendUnavailableError reports that the backend cannot be reached at all,
// e.g. the Docker daemon is not running.
type BackendUnavailableError struct {
	Op  string
	Err error
}

func (e *BackendUnavailableError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *BackendUnavailableError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrBackendUnavailable.
func (e *BackendUnavailableError) Is(target error) bool {
	return target == ErrBackendUnavailable
}

// NewBackendUnavailableError creates a new BackendUnavailableError.
func NewBackendUnavailableError(op string, err error) *BackendUnavailableError {
	return &BackendUnavailableError{Op: op, Err: err}
}
