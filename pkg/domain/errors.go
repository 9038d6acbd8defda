package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors matched with errors.Is by callers of the store.
var (
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidInput  = errors.New("invalid input")
)

// NotFoundError is returned when a referenced record does not exist in the transaction.
type NotFoundError struct {
	Entity EntityType
	ID     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

// Is matches ErrNotFound.
func (e NotFoundError) Is(target error) bool { return target == ErrNotFound }

// AlreadyExistsError is returned when a create would reuse an existing ID.
type AlreadyExistsError struct {
	Entity EntityType
	ID     string
}

func (e AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Entity, e.ID)
}

// Is matches ErrAlreadyExists.
func (e AlreadyExistsError) Is(target error) bool { return target == ErrAlreadyExists }

// ValidationError reports field data rejected at write time.
type ValidationError struct {
	Entity  EntityType
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	switch {
	case e.Entity != "" && e.Field != "":
		return fmt.Sprintf("%s: validation failed for field %q: %s", e.Entity, e.Field, e.Message)
	case e.Field != "":
		return fmt.Sprintf("validation failed for field %q: %s", e.Field, e.Message)
	default:
		return fmt.Sprintf("validation failed: %s", e.Message)
	}
}

// Is matches ErrInvalidInput.
func (e ValidationError) Is(target error) bool { return target == ErrInvalidInput }
