// Package errors provides error handling for portrait.
//
// This package re-exports github.com/cockroachdb/errors, providing stack
// traces, wrapping and user-facing hints. Generation failures are built on
// the sentinel errors below so callers can classify them with errors.Is.
//
// Usage:
//
//	if err := capture(decl); err != nil {
//	    return errors.Wrap(err, "make Cloner")
//	}
//
//	return errors.WithHint(err, "add reduce=<fn> to the operation")
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	"fmt"

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
	WithHint      = crdb.WithHint
	WithHintf     = crdb.WithHintf
	WithDetail    = crdb.WithDetail
	WithDetailf   = crdb.WithDetailf
	GetAllHints   = crdb.GetAllHints
	GetAllDetails = crdb.GetAllDetails
	FlattenHints  = crdb.FlattenHints
)

// Error inspection
var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
)

// Assertions
var AssertionFailedf = crdb.AssertionFailedf

// Sentinel errors for generation failures.
// Wrap these to add context while preserving the classification.
var (
	// ErrParse indicates a malformed directive, interface body or generator argument
	ErrParse = New("parse error")

	// ErrUnknownMember indicates an implementation provides a member the interface does not declare
	ErrUnknownMember = New("unknown member")

	// ErrUnsupported indicates a generator cannot produce the requested member kind
	ErrUnsupported = New("unsupported member kind")

	// ErrAggregation indicates per-field results cannot be combined into one result
	ErrAggregation = New("ambiguous aggregation")

	// ErrShape indicates an operation signature is incompatible with the target type's shape
	ErrShape = New("incompatible shape")

	// ErrUnresolved indicates a symbol used by a member cannot be resolved at the implementation site
	ErrUnresolved = New("unresolved symbol")

	// ErrNoPortrait indicates no captured portrait exists for a referenced interface
	ErrNoPortrait = New("portrait not found")

	// ErrIncompatible indicates a companion file written by an unsupported format version
	ErrIncompatible = New("incompatible portrait format")
)

// UnknownMember reports a provided member that the interface does not declare
// under the same kind.
func UnknownMember(name, kind string) error {
	return Wrapf(ErrUnknownMember, "%s %q is not a member of the interface", kind, name)
}

// Unsupported reports that a generator cannot produce the given member kind.
func Unsupported(generator, kind string) error {
	return Wrapf(ErrUnsupported, "%s does not support %s members", generator, kind)
}

// Parsef creates a parse error with a formatted message.
func Parsef(format string, args ...interface{}) error {
	return Wrap(ErrParse, fmt.Sprintf(format, args...))
}

// Shapef creates a shape error with a formatted message.
func Shapef(format string, args ...interface{}) error {
	return Wrap(ErrShape, fmt.Sprintf(format, args...))
}

// IsParseError checks if an error is or wraps ErrParse
func IsParseError(err error) bool {
	return err != nil && Is(err, ErrParse)
}

// IsUnknownMemberError checks if an error is or wraps ErrUnknownMember
func IsUnknownMemberError(err error) bool {
	return err != nil && Is(err, ErrUnknownMember)
}

// IsUnsupportedError checks if an error is or wraps ErrUnsupported
func IsUnsupportedError(err error) bool {
	return err != nil && Is(err, ErrUnsupported)
}
