package bvalue

import (
	"errors"
	"fmt"

	"github.com/anacrolix/torrent/bencode"
)

// Parse decodes a complete bencoded buffer. Trailing bytes are an error.
// Dictionary keys may arrive in any order.
func Parse(data []byte) (Value, error) {
	v, err := parse(data)
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	return v, nil
}

// parse dispatches on the leading byte and lets the reflect decoder split
// containers into raw elements. Decoding into interface{} would reject
// dictionaries whose keys are not sorted.
func parse(data []byte) (Value, error) {
	if len(data) == 0 {
		return nil, errors.New("empty input")
	}
	switch c := data[0]; {
	case c == 'i':
		var i int64
		if err := bencode.Unmarshal(data, &i); err != nil {
			return nil, err
		}
		return Int(i), nil
	case c >= '0' && c <= '9':
		var s string
		if err := bencode.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		return Bytes(s), nil
	case c == 'l':
		var raw []bencode.Bytes
		if err := bencode.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		l := make(List, 0, len(raw))
		for i, e := range raw {
			v, err := parse(e)
			if err != nil {
				return nil, fmt.Errorf("list index %d: %w", i, err)
			}
			l = append(l, v)
		}
		return l, nil
	case c == 'd':
		var raw map[string]bencode.Bytes
		if err := bencode.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		d := make(Dict, len(raw))
		for k, e := range raw {
			v, err := parse(e)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			d[k] = v
		}
		return d, nil
	default:
		return nil, fmt.Errorf("unexpected byte %q", c)
	}
}

// Encode serializes v in canonical form: dictionary keys are written in
// ascending byte order.
func Encode(v Value) ([]byte, error) {
	raw, err := toInterface(v)
	if err != nil {
		return nil, err
	}
	return bencode.Marshal(raw)
}

func toInterface(v Value) (interface{}, error) {
	switch v := v.(type) {
	case Int:
		return int64(v), nil
	case Bytes:
		return string(v), nil
	case List:
		l := make([]interface{}, 0, len(v))
		for i, e := range v {
			raw, err := toInterface(e)
			if err != nil {
				return nil, fmt.Errorf("list index %d: %w", i, err)
			}
			l = append(l, raw)
		}
		return l, nil
	case Dict:
		d := make(map[string]interface{}, len(v))
		for k, e := range v {
			raw, err := toInterface(e)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			d[k] = raw
		}
		return d, nil
	case nil:
		return nil, fmt.Errorf("cannot encode nil value")
	default:
		return nil, fmt.Errorf("cannot encode %T", v)
	}
}
