// Package errors provides error handling for the model store.
//
// It re-exports github.com/cockroachdb/errors and defines the store's error
// taxonomy. Every error returned by storage and query code is marked with one
// of the sentinels below, so callers classify failures with errors.Is:
//
//	if errors.Is(err, errors.ErrVersionConflict) {
//	    // re-read the model and retry
//	}
//
// Typed carriers (VersionConflictError, LockConflictError, ...) hold the
// detail a caller needs to retry and are reachable with errors.As.
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	Mark         = crdb.Mark
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is            = crdb.Is
	IsAny         = crdb.IsAny
	As            = crdb.As
	Unwrap        = crdb.Unwrap
	UnwrapAll     = crdb.UnwrapAll
	GetAllHints   = crdb.GetAllHints
	GetAllDetails = crdb.GetAllDetails
	FlattenHints  = crdb.FlattenHints
)

// Taxonomy sentinels. Match with errors.Is.
var (
	// ErrNotFound indicates a model, element, relationship, version or
	// dictionary entry does not exist.
	ErrNotFound = New("not found")

	// ErrVersionConflict indicates expected_version did not match the model.
	ErrVersionConflict = New("version conflict")

	// ErrLockConflict indicates the model lock is held by another owner.
	ErrLockConflict = New("lock conflict")

	// ErrUnknownTagKey indicates a tag write without a dictionary entry.
	ErrUnknownTagKey = New("unknown tag key")

	// ErrValidation indicates a malformed request.
	ErrValidation = New("validation error")

	// ErrReference indicates a relationship endpoint element is missing.
	ErrReference = New("reference error")
)

// Kind names the taxonomy class of err, or "Internal" for anything else.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case Is(err, ErrNotFound):
		return "NotFound"
	case Is(err, ErrVersionConflict):
		return "VersionConflict"
	case Is(err, ErrLockConflict):
		return "LockConflict"
	case Is(err, ErrUnknownTagKey):
		return "UnknownTagKey"
	case Is(err, ErrValidation):
		return "ValidationError"
	case Is(err, ErrReference):
		return "ReferenceError"
	default:
		return "Internal"
	}
}
