package errors

import (
	"fmt"
)

// ParseError represents a YAML parsing failure with optional line metadata.
type ParseError struct {
	Path    string
	Line    int
	Message string
	Err     error
}

// NewParseError constructs a ParseError.
func NewParseError(path string, line int, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ParseError{Path: path, Line: line, Message: message, Err: err}
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}

	if e.Line > 0 {
		return fmt.Sprintf("parse error: %s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error: %s: %s", e.Path, e.Message)
}

// Unwrap exposes the underlying error.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ValidationError captures configuration document validation issues.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError constructs a ValidationError.
func NewValidationError(field, message string, err error) error {
	return &ValidationError{Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// SlotError reports a single slot rejected during registry resolution. It is
// a warning: the rest of the registry still resolves.
type SlotError struct {
	Slot    string
	Field   string
	Message string
	Err     error
}

// NewSlotError constructs a SlotError for the given slot key.
func NewSlotError(slot, field, message string, err error) error {
	return &SlotError{Slot: slot, Field: field, Message: message, Err: err}
}

func (e *SlotError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field != "" {
		return fmt.Sprintf("slot %q: %s: %s", e.Slot, e.Field, e.Message)
	}
	return fmt.Sprintf("slot %q: %s", e.Slot, e.Message)
}

// Unwrap exposes the underlying error.
func (e *SlotError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// StorageError indicates a persistence adapter failure for a storage key.
type StorageError struct {
	Op      string
	Key     string
	Backend string
	Err     error
}

// NewStorageError constructs a StorageError. Op is "get" or "set".
func NewStorageError(backend, op, key string, err error) error {
	return &StorageError{Op: op, Key: key, Backend: backend, Err: err}
}

func (e *StorageError) Error() string {
	if e == nil {
		return ""
	}
	if e.Backend != "" {
		return fmt.Sprintf("storage error [%s] %s %q: %v", e.Backend, e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("storage error: %s %q: %v", e.Op, e.Key, e.Err)
}

// Unwrap exposes the root error.
func (e *StorageError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
