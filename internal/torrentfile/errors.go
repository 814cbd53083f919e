package torrentfile

import (
	"errors"
	"fmt"
)

// ErrAmbiguousFileMode is returned when an info dictionary carries both a
// single-file length and a non-empty files list, or neither.
var ErrAmbiguousFileMode = errors.New("info must have exactly one of length or a non-empty files list")

type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing field %q", e.Field)
}

// FieldError attaches the field path to a lower level error, usually a
// *bvalue.TypeMismatchError.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

type InvalidUTF8Error struct {
	Field string
}

func (e *InvalidUTF8Error) Error() string {
	return fmt.Sprintf("field %q is not valid UTF-8", e.Field)
}

// InvalidPiecesError reports a pieces string whose length is not a multiple
// of the SHA-1 size.
type InvalidPiecesError struct {
	Length int
}

func (e *InvalidPiecesError) Error() string {
	return fmt.Sprintf("pieces length %d is not a multiple of %d", e.Length, HashSize)
}

type InvalidValueError struct {
	Field  string
	Reason string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("field %q: %s", e.Field, e.Reason)
}
