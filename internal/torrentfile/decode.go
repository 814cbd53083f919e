package torrentfile

import (
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/anacrolix/torrent/metainfo"

	"torrent-probe/internal/bvalue"
)

var (
	knownTopKeys = map[string]bool{
		"announce":      true,
		"announce-list": true,
		"comment":       true,
		"created by":    true,
		"creation date": true,
		"encoding":      true,
		"info":          true,
		"url-list":      true,
	}
	knownInfoKeys = map[string]bool{
		"name":         true,
		"piece length": true,
		"pieces":       true,
		"length":       true,
		"files":        true,
		"private":      true,
	}
	knownFileKeys = map[string]bool{
		"length": true,
		"path":   true,
	}
)

// Decode parses a complete .torrent buffer. Decoding is all-or-nothing: on
// error no Metadata is returned.
func Decode(data []byte) (*Metadata, error) {
	v, err := bvalue.Parse(data)
	if err != nil {
		return nil, err
	}
	return FromValue(v)
}

// FromValue decodes an already parsed tree.
func FromValue(v bvalue.Value) (*Metadata, error) {
	top, err := bvalue.ExpectDict(v)
	if err != nil {
		return nil, &FieldError{Field: "<root>", Err: err}
	}
	r := dictReader{d: top}
	var m Metadata

	if m.Announce, err = r.requiredText("announce"); err != nil {
		return nil, err
	}

	infoDict, err := r.requiredDict("info")
	if err != nil {
		return nil, err
	}
	if m.Info, err = decodeInfo(infoDict); err != nil {
		return nil, err
	}

	if tiers, ok, err := r.list("announce-list"); err != nil {
		return nil, err
	} else if ok {
		if m.AnnounceList, err = decodeAnnounceList(tiers); err != nil {
			return nil, err
		}
		m.markPresent("announce-list")
	}
	for _, f := range []struct {
		key string
		dst *string
	}{
		{"comment", &m.Comment},
		{"created by", &m.CreatedBy},
		{"encoding", &m.Encoding},
	} {
		s, ok, err := r.text(f.key)
		if err != nil {
			return nil, err
		}
		if ok {
			*f.dst = s
			m.markPresent(f.key)
		}
	}
	if secs, ok, err := r.int("creation date"); err != nil {
		return nil, err
	} else if ok {
		m.CreationDate = time.Unix(secs, 0).UTC()
	}
	if v, ok := top["url-list"]; ok {
		if m.URLList, m.urlListSingle, err = decodeURLList(v); err != nil {
			return nil, err
		}
		m.markPresent("url-list")
	}

	m.ExtraFields = r.extra(knownTopKeys)
	return &m, nil
}

func decodeInfo(d bvalue.Dict) (InfoDict, error) {
	r := dictReader{d: d, prefix: "info"}
	var info InfoDict
	var err error

	if info.Name, err = r.requiredText("name"); err != nil {
		return InfoDict{}, err
	}

	if info.PieceLength, err = r.requiredInt("piece length"); err != nil {
		return InfoDict{}, err
	}
	if info.PieceLength <= 0 {
		return InfoDict{}, &InvalidValueError{Field: r.name("piece length"), Reason: "must be positive"}
	}

	pieces, err := r.requiredBytes("pieces")
	if err != nil {
		return InfoDict{}, err
	}
	if len(pieces)%HashSize != 0 {
		return InfoDict{}, &InvalidPiecesError{Length: len(pieces)}
	}
	info.Pieces = make([]metainfo.Hash, len(pieces)/HashSize)
	for i := range info.Pieces {
		copy(info.Pieces[i][:], pieces[i*HashSize:])
	}

	length, hasLength, err := r.int("length")
	if err != nil {
		return InfoDict{}, err
	}
	files, hasFiles, err := r.list("files")
	if err != nil {
		return InfoDict{}, err
	}
	nonEmptyFiles := hasFiles && len(files) > 0
	switch {
	case hasLength && nonEmptyFiles, !hasLength && !nonEmptyFiles:
		return InfoDict{}, ErrAmbiguousFileMode
	case hasLength:
		if length < 0 {
			return InfoDict{}, &InvalidValueError{Field: r.name("length"), Reason: "must not be negative"}
		}
		info.Mode = SingleFile{Length: length}
	default:
		entries := make([]FileEntry, len(files))
		for i, fv := range files {
			if entries[i], err = decodeFileEntry(fv, i); err != nil {
				return InfoDict{}, err
			}
		}
		info.Mode = MultiFile{Files: entries}
	}

	if private, ok, err := r.int("private"); err != nil {
		return InfoDict{}, err
	} else if ok {
		if private != 0 && private != 1 {
			return InfoDict{}, &InvalidValueError{Field: r.name("private"), Reason: "must be 0 or 1"}
		}
		info.Private = private == 1
		info.privateKey = true
	}

	info.ExtraFields = r.extra(knownInfoKeys)
	// A single-file torrent may still carry an empty files list; keep it so
	// the canonical form, and therefore the hash, is unchanged.
	if hasLength && hasFiles {
		if info.ExtraFields == nil {
			info.ExtraFields = bvalue.Dict{}
		}
		info.ExtraFields["files"] = files
	}
	return info, nil
}

func decodeFileEntry(v bvalue.Value, index int) (FileEntry, error) {
	field := "info.files[" + strconv.Itoa(index) + "]"
	d, err := bvalue.ExpectDict(v)
	if err != nil {
		return FileEntry{}, &FieldError{Field: field, Err: err}
	}
	r := dictReader{d: d, prefix: field}
	var f FileEntry

	if f.Length, err = r.requiredInt("length"); err != nil {
		return FileEntry{}, err
	}
	if f.Length < 0 {
		return FileEntry{}, &InvalidValueError{Field: r.name("length"), Reason: "must not be negative"}
	}

	segments, ok, err := r.list("path")
	if err != nil {
		return FileEntry{}, err
	}
	if !ok {
		return FileEntry{}, &MissingFieldError{Field: r.name("path")}
	}
	if len(segments) == 0 {
		return FileEntry{}, &InvalidValueError{Field: r.name("path"), Reason: "must have at least one segment"}
	}
	f.Path = make([]string, len(segments))
	for i, s := range segments {
		if f.Path[i], err = toText(r.name("path")+"["+strconv.Itoa(i)+"]", s); err != nil {
			return FileEntry{}, err
		}
	}

	f.ExtraFields = r.extra(knownFileKeys)
	return f, nil
}

func decodeAnnounceList(tiers bvalue.List) ([][]string, error) {
	out := make([][]string, len(tiers))
	for i, tv := range tiers {
		field := "announce-list[" + strconv.Itoa(i) + "]"
		tier, err := bvalue.ExpectList(tv)
		if err != nil {
			return nil, &FieldError{Field: field, Err: err}
		}
		out[i] = make([]string, len(tier))
		for j, uv := range tier {
			if out[i][j], err = toText(field+"["+strconv.Itoa(j)+"]", uv); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// url-list is either a single string or a list of strings.
func decodeURLList(v bvalue.Value) ([]string, bool, error) {
	if b, ok := v.(bvalue.Bytes); ok {
		if !utf8.Valid(b) {
			return nil, false, &InvalidUTF8Error{Field: "url-list"}
		}
		return []string{string(b)}, true, nil
	}
	l, err := bvalue.ExpectList(v)
	if err != nil {
		return nil, false, &FieldError{Field: "url-list", Err: err}
	}
	out := make([]string, len(l))
	for i, e := range l {
		if out[i], err = toText("url-list["+strconv.Itoa(i)+"]", e); err != nil {
			return nil, false, err
		}
	}
	return out, false, nil
}
