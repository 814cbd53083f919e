package tracker

import "fmt"

// FailureError carries the tracker's own "failure reason".
type FailureError struct {
	Reason string
}

func (e *FailureError) Error() string {
	return fmt.Sprintf("tracker failure: %s", e.Reason)
}

type InvalidStatusError struct {
	Code int
}

func (e *InvalidStatusError) Error() string {
	return fmt.Sprintf("tracker responded with status %d", e.Code)
}

// TransportError wraps whatever the transport reported.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("announce transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

type InvalidCompactListLengthError struct {
	EntrySize    int
	ActualLength int
}

func (e *InvalidCompactListLengthError) Error() string {
	return fmt.Sprintf("compact peer list length %d is not a multiple of %d", e.ActualLength, e.EntrySize)
}

type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("response is missing %q", e.Field)
}

// FieldError attaches a response key to a lower level error.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("response field %q: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// InvalidPeerError reports a bad entry in a verbose peer list.
type InvalidPeerError struct {
	Index int
	Err   error
}

func (e *InvalidPeerError) Error() string {
	return fmt.Sprintf("peer %d: %v", e.Index, e.Err)
}

func (e *InvalidPeerError) Unwrap() error { return e.Err }
