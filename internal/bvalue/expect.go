package bvalue

import "fmt"

// ParseError is a grammar failure reported by the bencode decoder.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed bencode: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

type TypeMismatchError struct {
	Expected Kind
	Found    Kind
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("expected %s, found %s", e.Expected, e.Found)
}

func mismatch(expected Kind, v Value) error {
	found := Kind(-1)
	if v != nil {
		found = v.Kind()
	}
	return &TypeMismatchError{Expected: expected, Found: found}
}

func ExpectDict(v Value) (Dict, error) {
	if d, ok := v.(Dict); ok {
		return d, nil
	}
	return nil, mismatch(KindDict, v)
}

func ExpectList(v Value) (List, error) {
	if l, ok := v.(List); ok {
		return l, nil
	}
	return nil, mismatch(KindList, v)
}

func ExpectBytes(v Value) (Bytes, error) {
	if b, ok := v.(Bytes); ok {
		return b, nil
	}
	return nil, mismatch(KindBytes, v)
}

func ExpectInt(v Value) (int64, error) {
	if i, ok := v.(Int); ok {
		return int64(i), nil
	}
	return 0, mismatch(KindInt, v)
}
