package codec

import (
	"errors"
	"fmt"
)

// ErrMalformedInput matches every decode failure via errors.Is.
var ErrMalformedInput = errors.New("malformed input")

// ErrorKind classifies a decode failure.
type ErrorKind int

const (
	KindSyntax ErrorKind = iota
	KindMissingField
	KindDuplicateField
	KindUnknownField
	KindInvalidType
	KindInvalidLength
	KindInvalidState
)

// String returns the human-readable kind.
func (k ErrorKind) String() string {
	switch k {
	case KindSyntax:
		return "syntax error"
	case KindMissingField:
		return "missing field"
	case KindDuplicateField:
		return "duplicate field"
	case KindUnknownField:
		return "unknown field"
	case KindInvalidType:
		return "invalid type"
	case KindInvalidLength:
		return "invalid length"
	case KindInvalidState:
		return "invalid state"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// MalformedInputError describes why a document could not be decoded.
type MalformedInputError struct {
	// Index is the position of the document in a task set, or -1 when a
	// single document was decoded.
	Index int

	// Field names the offending field; empty for document-level problems.
	Field string

	Kind   ErrorKind
	Detail string

	// Err is the underlying cause, if any.
	Err error
}

func (e *MalformedInputError) Error() string {
	msg := e.Kind.String()
	if e.Field != "" {
		msg = fmt.Sprintf("%s %q", msg, e.Field)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Index >= 0 {
		msg = fmt.Sprintf("task %d: %s", e.Index, msg)
	}
	return msg
}

// Unwrap exposes the underlying cause.
func (e *MalformedInputError) Unwrap() error { return e.Err }

// Is reports ErrMalformedInput as a match.
func (e *MalformedInputError) Is(target error) bool {
	return target == ErrMalformedInput
}

func malformed(kind ErrorKind, field, detail string) *MalformedInputError {
	return &MalformedInputError{Index: -1, Field: field, Kind: kind, Detail: detail}
}

func isMissingField(err error) bool {
	var me *MalformedInputError
	return errors.As(err, &me) && me.Kind == KindMissingField
}
