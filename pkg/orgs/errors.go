package orgs

import (
	"errors"
	"fmt"

	"github.com/platinummonkey/orgforge/pkg/storage/postgres"
)

var (
	// ErrInvalidArgument is matched by every *ValidationError
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrKeyConflict is matched by every *KeyConflictError
	ErrKeyConflict = errors.New("organization key conflict")
	// ErrStateConflict is matched by every *StateConflictError
	ErrStateConflict = errors.New("state conflict")
	// ErrNotFound is returned when an organization does not exist
	ErrNotFound = postgres.ErrNotFound
)

// ValidationError reports a malformed field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Unwrap makes errors.Is(err, ErrInvalidArgument) hold
func (e *ValidationError) Unwrap() error {
	return ErrInvalidArgument
}

// KeyConflictError reports that the key of a new organization is already used
type KeyConflictError struct {
	Key string
}

func (e *KeyConflictError) Error() string {
	return fmt.Sprintf("Organization key '%s' is already used", e.Key)
}

// Unwrap makes errors.Is(err, ErrKeyConflict) hold
func (e *KeyConflictError) Unwrap() error {
	return ErrKeyConflict
}

// StateConflictError reports an operation that would break an invariant of the stored data
type StateConflictError struct {
	Message string
}

func (e *StateConflictError) Error() string {
	return e.Message
}

// Unwrap makes errors.Is(err, ErrStateConflict) hold
func (e *StateConflictError) Unwrap() error {
	return ErrStateConflict
}

// IsKeyConflict checks if an error is a key conflict error
func IsKeyConflict(err error) bool {
	var conflict *KeyConflictError
	return errors.As(err, &conflict)
}

func invalidArgument(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
