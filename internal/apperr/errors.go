package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrRunNotFound is returned when no checkpoint exists for a run id.
	ErrRunNotFound = errors.New("run not found")
	// ErrInvalidTransition is returned when a run cannot move to the requested state.
	ErrInvalidTransition = errors.New("invalid run state transition")
	// ErrNoCandidate signals that a run found nothing worth publishing.
	ErrNoCandidate = errors.New("no candidate article")
)

// MalformedInputError reports a batch whose shape is not a list of article objects.
// It is a caller bug and is never retried.
type MalformedInputError struct {
	Message string
	Err     error
}

func (e *MalformedInputError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *MalformedInputError) Unwrap() error {
	return e.Err
}

func NewMalformed(msg string) *MalformedInputError {
	return &MalformedInputError{Message: msg}
}

func NewMalformedWrap(msg string, err error) *MalformedInputError {
	return &MalformedInputError{Message: msg, Err: err}
}

// StorageError wraps an I/O failure of a durable store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func NewStorage(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

// TransientPlatformError is a rate limit or server-side failure worth retrying.
type TransientPlatformError struct {
	Platform   string
	StatusCode int
	Err        error
}

func (e *TransientPlatformError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s transient error (status %d): %v", e.Platform, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s transient error: %v", e.Platform, e.Err)
}

func (e *TransientPlatformError) Unwrap() error {
	return e.Err
}

// PlatformError is a permanent rejection from a platform API.
type PlatformError struct {
	Platform   string
	StatusCode int
	Body       string
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("%s api error (status %d): %s", e.Platform, e.StatusCode, e.Body)
}

// IsTransient reports whether err carries a TransientPlatformError.
func IsTransient(err error) bool {
	var te *TransientPlatformError
	return errors.As(err, &te)
}

// IsStorage reports whether err carries a StorageError.
func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
