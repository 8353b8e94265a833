package errors

import (
	"fmt"
)

// NotFoundError names the missing entity.
type NotFoundError struct {
	Kind string // model, element, relationship, version, definition
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// NotFound returns an ErrNotFound-marked error for kind/id.
func NotFound(kind, id string) error {
	return Mark(WithStack(&NotFoundError{Kind: kind, ID: id}), ErrNotFound)
}

// VersionConflictError carries the version a caller must retry against.
type VersionConflictError struct {
	ModelID  string
	Expected int
	Current  int
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("model %q is at version %d, expected %d", e.ModelID, e.Current, e.Expected)
}

// VersionConflict returns an ErrVersionConflict-marked error.
func VersionConflict(modelID string, expected, current int) error {
	err := Mark(WithStack(&VersionConflictError{ModelID: modelID, Expected: expected, Current: current}), ErrVersionConflict)
	return WithHintf(err, "re-read the model and retry with expected_version=%d", current)
}

// LockConflictError carries the current lock owner.
type LockConflictError struct {
	ModelID   string
	Owner     string
	Requester string
}

func (e *LockConflictError) Error() string {
	return fmt.Sprintf("model %q is locked by %q", e.ModelID, e.Owner)
}

// LockConflict returns an ErrLockConflict-marked error.
func LockConflict(modelID, owner, requester string) error {
	err := Mark(WithStack(&LockConflictError{ModelID: modelID, Owner: owner, Requester: requester}), ErrLockConflict)
	return WithHint(err, "wait for the owner to release the lock or pass force=true")
}

// UnknownTagKeyError names the unregistered tag key.
type UnknownTagKeyError struct {
	TargetType string
	Key        string
}

func (e *UnknownTagKeyError) Error() string {
	return fmt.Sprintf("tag key %q is not defined for %s targets", e.Key, e.TargetType)
}

// UnknownTagKey returns an ErrUnknownTagKey-marked error.
func UnknownTagKey(targetType, key string) error {
	err := Mark(WithStack(&UnknownTagKeyError{TargetType: targetType, Key: key}), ErrUnknownTagKey)
	return WithHintf(err, "define it first with define_attribute(target_type=%s, key=%s, is_tag=true)", targetType, key)
}

// ValidationError names the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Validation returns an ErrValidation-marked error for field.
func Validation(field, reason string) error {
	return Mark(WithStack(&ValidationError{Field: field, Reason: reason}), ErrValidation)
}

// Validationf is Validation with a formatted reason.
func Validationf(field, format string, args ...any) error {
	return Validation(field, fmt.Sprintf(format, args...))
}

// Required reports a missing required field.
func Required(field string) error {
	return Validation(field, "is required")
}

// ReferenceError names the missing endpoint.
type ReferenceError struct {
	Field     string // source_element_id or target_element_id
	ElementID string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s: element %q does not exist", e.Field, e.ElementID)
}

// Reference returns an ErrReference-marked error.
func Reference(field, elementID string) error {
	return Mark(WithStack(&ReferenceError{Field: field, ElementID: elementID}), ErrReference)
}
