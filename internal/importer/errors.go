package importer

import (
	"errors"
	"fmt"

	"elnimport/pkg/domain"
)

// ErrDuplicateRegistration is returned when a (type, uuid) key is registered twice.
var ErrDuplicateRegistration = errors.New("entity already registered")

// ExtractionError wraps any failure while reading the archive.
type ExtractionError struct {
	Err error
}

func (e *ExtractionError) Error() string { return "extract archive: " + e.Err.Error() }

// Unwrap exposes the cause.
func (e *ExtractionError) Unwrap() error { return e.Err }

// StageError names the materialization stage that failed.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("stage %s: %v", e.Stage, e.Err) }

// Unwrap exposes the cause.
func (e *StageError) Unwrap() error { return e.Err }

// UnresolvedReferenceError reports a required reference with no registered entity.
type UnresolvedReferenceError struct {
	Type domain.EntityType
	UUID string
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("unresolved reference %s %q", e.Type, e.UUID)
}

// Is matches domain.ErrNotFound so callers can treat it like a missing entity.
func (e *UnresolvedReferenceError) Is(target error) bool { return target == domain.ErrNotFound }
