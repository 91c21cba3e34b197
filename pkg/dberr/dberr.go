// Package dberr defines the error taxonomy of the storage kernel. Every
// error that crosses a package boundary carries a Kind so callers can route
// on failure class without parsing messages.
//
// Not-found is deliberately absent from the taxonomy: lookups report absence
// through an ok-bool result, never through an error.
package dberr

import (
	"errors"
	"fmt"
)

// Kind classifies a storage error.
type Kind int

const (
	// IOFailure means an underlying read, write, or seek failed.
	IOFailure Kind = iota + 1

	// ChecksumMismatch means a page body checksum did not match on read.
	// Reads surface this as a diagnostic and still return the page; only
	// the file header treats it as fatal.
	ChecksumMismatch

	// InvalidFile means the file header magic, version, or page size was
	// unexpected.
	InvalidFile

	// KeyTooLong means a hash key exceeded the 127-byte limit.
	KeyTooLong

	// StructuralViolation means a B+Tree or hash invariant was broken,
	// e.g. insertion into a full node after a split.
	StructuralViolation

	// ShortRead means a blob chain ended before the expected byte count.
	ShortRead

	// ValidationFailure means a record field failed input validation
	// (empty content, over-long title, malformed email).
	ValidationFailure
)

// String returns the stable name of the kind.
func (k Kind) String() string {
	switch k {
	case IOFailure:
		return "io failure"
	case ChecksumMismatch:
		return "checksum mismatch"
	case InvalidFile:
		return "invalid file"
	case KeyTooLong:
		return "key too long"
	case StructuralViolation:
		return "structural violation"
	case ShortRead:
		return "short read"
	case ValidationFailure:
		return "validation failure"
	default:
		return fmt.Sprintf("unknown kind %d", int(k))
	}
}

// Error is a storage error with a kind, the operation that failed, and an
// optional wrapped cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// New builds an Error with a formatted cause message.
func New(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// Wrap attaches kind and op to an existing error. Returns nil when err is
// nil so it can wrap return values directly.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// HasKind reports whether any error in the chain carries the given kind.
func HasKind(err error, kind Kind) bool {
	var e *Error
	for errors.As(err, &e) {
		if e.Kind == kind {
			return true
		}
		err = e.Err
		e = nil
	}
	return false
}
