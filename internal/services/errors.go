package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"huntmate/backend/internal/models"
)

// ErrNotFound is returned when a document does not exist. It is deliberately
// distinct from db.ErrInvalidID: a malformed identifier is reported as a
// format problem, not as a missing record.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an active (non-cancelled) booking already
// exists for the same character and assistance type. Handlers attach an
// isDuplicate flag to the response so the UI can show a specific
// call-to-action without parsing the message.
var ErrDuplicate = errors.New("an active request for this character and assistance type already exists")

// ValidationError reports missing or malformed fields, keyed by field name.
// It is produced before any storage access.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// StateError reports an operation that is not legal in the booking's current
// status. The current status is embedded so the caller can explain the
// rejection.
type StateError struct {
	Op      string
	Current models.BookingStatus
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s a request in status '%s'", e.Op, e.Current)
}

// newValidationError builds a ValidationError from field/message pairs.
func newValidationError(fields map[string]string) error {
	return &ValidationError{Fields: fields}
}
