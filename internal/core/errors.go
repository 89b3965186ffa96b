package core

import "fmt"

// ValidationError reports malformed input. Nothing has been written when it is returned.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %v", e.Err)
	}
	return fmt.Sprintf("validation failed on %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NotFoundError reports a record that does not exist or belongs to another user.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

// ConflictError reports a uniqueness violation such as a second budget for the same category.
type ConflictError struct {
	Resource string
	Key      string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Resource, e.Key)
}

// ReconciliationError wraps a failed budget refresh. It is logged and never
// returned to the caller of the ledger write that triggered it.
type ReconciliationError struct {
	UserID   string
	Category string
	Err      error
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("reconcile budget (user=%s, category=%s): %v", e.UserID, e.Category, e.Err)
}

func (e *ReconciliationError) Unwrap() error { return e.Err }

// NewNotFound is shorthand used by the stores.
func NewNotFound(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}
