// Package bvalue is a typed tree over bencoded data. Parsing and encoding
// are delegated to github.com/anacrolix/torrent/bencode; this package only
// adds the Value sum type and shape checks layered on top of it.
package bvalue

import (
	"bytes"
	"sort"
)

type Kind int

const (
	KindInt Kind = iota
	KindBytes
	KindList
	KindDict
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "integer"
	case KindBytes:
		return "byte string"
	case KindList:
		return "list"
	case KindDict:
		return "dictionary"
	default:
		return "unknown"
	}
}

// Value is one of Int, Bytes, List or Dict.
type Value interface {
	Kind() Kind
}

type Int int64

type Bytes []byte

type List []Value

// Dict keys are raw byte strings; they need not be valid UTF-8.
type Dict map[string]Value

func (Int) Kind() Kind   { return KindInt }
func (Bytes) Kind() Kind { return KindBytes }
func (List) Kind() Kind  { return KindList }
func (Dict) Kind() Kind  { return KindDict }

func (d Dict) Get(key string) (Value, bool) {
	v, ok := d[key]
	return v, ok
}

// Keys returns the keys in canonical (ascending byte) order.
func (d Dict) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a deep copy of v.
func Clone(v Value) Value {
	switch v := v.(type) {
	case Bytes:
		return append(Bytes(nil), v...)
	case List:
		out := make(List, len(v))
		for i, e := range v {
			out[i] = Clone(e)
		}
		return out
	case Dict:
		return CloneDict(v)
	default:
		return v
	}
}

func CloneDict(d Dict) Dict {
	if d == nil {
		return nil
	}
	out := make(Dict, len(d))
	for k, e := range d {
		out[k] = Clone(e)
	}
	return out
}

// Equal reports whether a and b hold the same tree. A nil Bytes equals an
// empty one, as they encode identically.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch a := a.(type) {
	case Int:
		return a == b.(Int)
	case Bytes:
		return bytes.Equal(a, b.(Bytes))
	case List:
		bl := b.(List)
		if len(a) != len(bl) {
			return false
		}
		for i := range a {
			if !Equal(a[i], bl[i]) {
				return false
			}
		}
		return true
	case Dict:
		bd := b.(Dict)
		if len(a) != len(bd) {
			return false
		}
		for k, av := range a {
			bv, ok := bd[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	}
	return false
}
