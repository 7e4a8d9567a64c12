package store

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Common store errors
var (
	// ErrNotFound is returned when no invoice carries the requested number.
	ErrNotFound = errors.New("invoice not found")
)

// StoreError wraps a database failure with the operation that hit it.
type StoreError struct {
	// Op is the operation that failed (e.g., "InvoiceRepository.Upsert").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("store: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("store: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsDuplicateKeyErr reports whether err is a unique constraint violation.
func IsDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	msg := err.Error()

	// PostgreSQL (SQLSTATE 23505)
	if strings.Contains(msg, "duplicate key value violates unique constraint") {
		return true
	}

	// SQLite (extended code 2067)
	if strings.Contains(msg, "UNIQUE constraint failed") {
		return true
	}

	return false
}
