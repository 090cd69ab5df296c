// Package errors provides error handling for notion-schema.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - User-facing hints and details
//
// Usage:
//
//	// Create new error
//	err := errors.New("something went wrong")
//
//	// Wrap with context
//	if err := compile(); err != nil {
//	    return errors.Wrap(err, "failed to compile Tasks")
//	}
//
//	// Add hints for users
//	return errors.WithHint(err, "run 'notion-schema init' first")
//
//	// Check errors
//	if errors.Is(err, errors.ErrSchemaShape) {
//	    // handle malformed schema response
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
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
	WithHint           = crdb.WithHint
	WithHintf          = crdb.WithHintf
	WithDetail         = crdb.WithDetail
	WithDetailf        = crdb.WithDetailf
	WithSecondaryError = crdb.WithSecondaryError
)

// Error inspection
var (
	Is             = crdb.Is
	IsAny          = crdb.IsAny
	As             = crdb.As
	Unwrap         = crdb.Unwrap
	UnwrapOnce     = crdb.UnwrapOnce
	UnwrapAll      = crdb.UnwrapAll
	GetAllHints    = crdb.GetAllHints
	GetAllDetails  = crdb.GetAllDetails
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// Assertions
var (
	AssertionFailedf = crdb.AssertionFailedf
)

// Sentinel errors for the generator and the rewriter.
// Wrap these with errors.Wrap() or errors.Mark() to add context while preserving the type.
var (
	// ErrSchemaShape indicates a schema response is missing expected structure
	// (no "properties" object, a property without a "type").
	ErrSchemaShape = New("schema shape error")

	// ErrLoad indicates a declaration library could not be parsed
	ErrLoad = New("declaration library load error")

	// ErrTargetFieldAmbiguous indicates a type literal declares the target field more than once
	ErrTargetFieldAmbiguous = New("target field ambiguous")

	// ErrUnsupportedComposition indicates a union or intersection nested beyond one level.
	// Reported as a warning, never returned from a rewrite.
	ErrUnsupportedComposition = New("unsupported composition")

	// ErrNotFound indicates the requested resource does not exist
	ErrNotFound = New("not found")

	// ErrInvalidRequest indicates the request was malformed or invalid
	ErrInvalidRequest = New("invalid request")
)

// IsSchemaShapeError checks if an error is or wraps ErrSchemaShape
func IsSchemaShapeError(err error) bool {
	return err != nil && Is(err, ErrSchemaShape)
}

// IsLoadError checks if an error is or wraps ErrLoad
func IsLoadError(err error) bool {
	return err != nil && Is(err, ErrLoad)
}

// IsTargetFieldAmbiguous checks if an error is or wraps ErrTargetFieldAmbiguous
func IsTargetFieldAmbiguous(err error) bool {
	return err != nil && Is(err, ErrTargetFieldAmbiguous)
}

// IsNotFoundError checks if an error is or wraps ErrNotFound
func IsNotFoundError(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// NewSchemaShapeError creates a schema-shape error with a formatted message
func NewSchemaShapeError(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrSchemaShape)
}

// NewNotFoundError creates a not-found error with a formatted message
func NewNotFoundError(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrNotFound)
}

// NewInvalidRequestError creates an invalid-request error with a formatted message
func NewInvalidRequestError(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrInvalidRequest)
}
