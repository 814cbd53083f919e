package torrentfile

import (
	"unicode/utf8"

	"torrent-probe/internal/bvalue"
)

// dictReader pulls typed fields out of a dictionary and names them by their
// dotted path in errors.
type dictReader struct {
	d      bvalue.Dict
	prefix string
}

func (r dictReader) name(key string) string {
	if r.prefix == "" {
		return key
	}
	return r.prefix + "." + key
}

func (r dictReader) required(key string) (bvalue.Value, error) {
	v, ok := r.d[key]
	if !ok {
		return nil, &MissingFieldError{Field: r.name(key)}
	}
	return v, nil
}

func (r dictReader) requiredDict(key string) (bvalue.Dict, error) {
	v, err := r.required(key)
	if err != nil {
		return nil, err
	}
	d, err := bvalue.ExpectDict(v)
	if err != nil {
		return nil, &FieldError{Field: r.name(key), Err: err}
	}
	return d, nil
}

func (r dictReader) requiredBytes(key string) (bvalue.Bytes, error) {
	v, err := r.required(key)
	if err != nil {
		return nil, err
	}
	b, err := bvalue.ExpectBytes(v)
	if err != nil {
		return nil, &FieldError{Field: r.name(key), Err: err}
	}
	return b, nil
}

func (r dictReader) requiredInt(key string) (int64, error) {
	v, err := r.required(key)
	if err != nil {
		return 0, err
	}
	i, err := bvalue.ExpectInt(v)
	if err != nil {
		return 0, &FieldError{Field: r.name(key), Err: err}
	}
	return i, nil
}

func (r dictReader) requiredText(key string) (string, error) {
	v, err := r.required(key)
	if err != nil {
		return "", err
	}
	return toText(r.name(key), v)
}

func (r dictReader) int(key string) (int64, bool, error) {
	v, ok := r.d[key]
	if !ok {
		return 0, false, nil
	}
	i, err := bvalue.ExpectInt(v)
	if err != nil {
		return 0, false, &FieldError{Field: r.name(key), Err: err}
	}
	return i, true, nil
}

func (r dictReader) list(key string) (bvalue.List, bool, error) {
	v, ok := r.d[key]
	if !ok {
		return nil, false, nil
	}
	l, err := bvalue.ExpectList(v)
	if err != nil {
		return nil, false, &FieldError{Field: r.name(key), Err: err}
	}
	return l, true, nil
}

func (r dictReader) text(key string) (string, bool, error) {
	v, ok := r.d[key]
	if !ok {
		return "", false, nil
	}
	s, err := toText(r.name(key), v)
	if err != nil {
		return "", false, err
	}
	return s, true, nil
}

// extra returns every entry whose key is not in known, or nil if none.
func (r dictReader) extra(known map[string]bool) bvalue.Dict {
	var out bvalue.Dict
	for k, v := range r.d {
		if known[k] {
			continue
		}
		if out == nil {
			out = bvalue.Dict{}
		}
		out[k] = v
	}
	return out
}

func toText(field string, v bvalue.Value) (string, error) {
	b, err := bvalue.ExpectBytes(v)
	if err != nil {
		return "", &FieldError{Field: field, Err: err}
	}
	if !utf8.Valid(b) {
		return "", &InvalidUTF8Error{Field: field}
	}
	return string(b), nil
}
