// Package errs defines the error kinds surfaced at the tabulation kernel's
// public boundaries. Every exported constructor wraps with
// github.com/pkg/errors so that call sites keep a stack trace, the same
// convention used throughout the encoding/pam and encoding/fasta packages.
package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies why an operation failed. Callers should switch on Kind
// rather than matching error strings.
type Kind int

const (
	// Other is the zero Kind, used for errors that don't need a category.
	Other Kind = iota
	// Configuration marks unknown mode strings, invalid option combinations
	// (e.g. measure_per_category with seq_length>1), and similar caller
	// mistakes that could have been caught before the call.
	Configuration
	// Parse marks malformed input structure, e.g. unbalanced XML markup
	// encountered by import_xml.
	Parse
	// Range marks an invalid store redirect or out-of-bounds index.
	Range
	// NotEnoughData marks a resampling or sample_dict request for more
	// items than are available.
	NotEnoughData
	// NotImplemented marks a conversion or mode intentionally left
	// unsupported by the core.
	NotImplemented
)

func (k Kind) String() string {
	switch k {
	case Configuration:
		return "configuration"
	case Parse:
		return "parse"
	case Range:
		return "range"
	case NotEnoughData:
		return "not enough data"
	case NotImplemented:
		return "not implemented"
	default:
		return "error"
	}
}

// Error is a Kind-tagged error, modeled on grailbio/base/errors.Error.
type Error struct {
	Kind Kind
	err  error
}

func (e *Error) Error() string { return e.err.Error() }

// Cause unwraps to the underlying pkg/errors-wrapped error, so
// errors.Cause(e) and %+v stack traces keep working on an *Error.
func (e *Error) Cause() error { return e.err }

func (e *Error) Unwrap() error { return e.err }

// Is reports whether err carries the given Kind.
func Is(kind Kind, err error) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == kind
}

func newf(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, err: errors.Errorf(format, args...)}
}

// ConfigurationErrorf reports an invalid combination of options or an
// unrecognized mode string.
func ConfigurationErrorf(format string, args ...interface{}) error {
	return newf(Configuration, format, args...)
}

// ParseErrorf reports malformed input structure (e.g. unbalanced XML).
func ParseErrorf(format string, args ...interface{}) error {
	return newf(Parse, format, args...)
}

// RangeErrorf reports an invalid index or store redirect.
func RangeErrorf(format string, args ...interface{}) error {
	return newf(Range, format, args...)
}

// NotEnoughDataErrorf reports a sampling request exceeding the population.
func NotEnoughDataErrorf(format string, args ...interface{}) error {
	return newf(NotEnoughData, format, args...)
}

// NotImplementedErrorf reports a deliberately unsupported conversion.
func NotImplementedErrorf(format string, args ...interface{}) error {
	return newf(NotImplemented, format, args...)
}

// Wrap attaches a message to err while preserving its Kind, if any.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		return &Error{Kind: e.Kind, err: errors.Wrap(e.err, message)}
	}
	return errors.Wrap(err, message)
}

// Wrapf is Wrap with a format string.
func Wrapf(err error, format string, args ...interface{}) error {
	return Wrap(err, fmt.Sprintf(format, args...))
}
