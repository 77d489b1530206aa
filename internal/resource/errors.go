package resource

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound means the public identifier is well-formed but unknown.
	ErrNotFound = errors.New("resource: not found")
	// ErrInvalidID means the identifier is malformed; callers answer 400, not 404.
	ErrInvalidID = errors.New("resource: invalid identifier")
	// ErrNoChange means an edit resolved to zero modified fields.
	ErrNoChange = errors.New("resource: no change")
)

// ConflictError reports a uniqueness violation, attributed to a field so the
// handler can render it in the field-level error map.
type ConflictError struct {
	Field   string
	Message string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("resource: %s conflict", e.Field)
}

func (e *ConflictError) fieldMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return "Already exists."
}

// FieldErrors maps field names to validation messages. It is the error type
// returned for every create/edit rejection so handlers can render a
// field-level error map.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return "resource: validation failed (" + strings.Join(parts, "; ") + ")"
}

// AsFieldErrors unwraps err into a FieldErrors map if it carries one.
func AsFieldErrors(err error) (FieldErrors, bool) {
	var fe FieldErrors
	if errors.As(err, &fe) {
		return fe, true
	}
	var ce *ConflictError
	if errors.As(err, &ce) {
		return FieldErrors{ce.Field: ce.fieldMessage()}, true
	}
	return nil, false
}
