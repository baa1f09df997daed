// Package errs defines the error taxonomy shared by the scheduling core and
// the HTTP layer. Every failure in the core is one of these types; nothing is
// swallowed, and all of them leave stored state unchanged.
package errs

import (
	"fmt"
	"strings"
)

// ValidationError marks malformed or missing input. Always the caller's
// fault; retrying the same request will fail the same way.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validation builds a ValidationError for the given field.
func Validation(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError marks a referenced id that does not exist.
type NotFoundError struct {
	Resource string
	ID       int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

// NotFound builds a NotFoundError.
func NotFound(resource string, id int64) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ResourceUnavailableError marks a resource that exists but is not assignable
// right now (inactive bus, staff on leave). The caller should re-fetch the
// assignable lists and pick a different resource.
type ResourceUnavailableError struct {
	ResourceType string
	ResourceID   int64
	State        string
}

func (e *ResourceUnavailableError) Error() string {
	return fmt.Sprintf("%s %d is not assignable (state %q)", e.ResourceType, e.ResourceID, e.State)
}

// Unavailable builds a ResourceUnavailableError.
func Unavailable(resourceType string, id int64, state string) *ResourceUnavailableError {
	return &ResourceUnavailableError{ResourceType: resourceType, ResourceID: id, State: state}
}

// ConflictError carries the human-readable descriptions of every time-window
// overlap found for a proposed assignment. The list is returned verbatim to
// the caller for display.
type ConflictError struct {
	Conflicts []string
}

func (e *ConflictError) Error() string {
	return "scheduling conflict: " + strings.Join(e.Conflicts, "; ")
}
