package torrentfile

import (
	"crypto/sha1"
	"errors"
	"fmt"

	"github.com/anacrolix/torrent/metainfo"

	"torrent-probe/internal/bvalue"
)

var errNoFileMode = errors.New("info has no file mode")

// Value rebuilds the dictionary that sits under the "info" key. Extension
// fields are merged in; modelled keys win on collision.
func (info *InfoDict) Value() (bvalue.Dict, error) {
	d := make(bvalue.Dict, len(info.ExtraFields)+6)
	for k, v := range info.ExtraFields {
		d[k] = v
	}
	d["name"] = bvalue.Bytes(info.Name)
	d["piece length"] = bvalue.Int(info.PieceLength)
	pieces := make(bvalue.Bytes, 0, len(info.Pieces)*HashSize)
	for _, p := range info.Pieces {
		pieces = append(pieces, p[:]...)
	}
	d["pieces"] = pieces

	switch mode := info.Mode.(type) {
	case SingleFile:
		d["length"] = bvalue.Int(mode.Length)
	case MultiFile:
		files := make(bvalue.List, len(mode.Files))
		for i, f := range mode.Files {
			files[i] = f.Value()
		}
		d["files"] = files
	default:
		return nil, errNoFileMode
	}

	if info.Private || info.privateKey {
		var p bvalue.Int
		if info.Private {
			p = 1
		}
		d["private"] = p
	}
	return d, nil
}

func (f FileEntry) Value() bvalue.Dict {
	d := make(bvalue.Dict, len(f.ExtraFields)+2)
	for k, v := range f.ExtraFields {
		d[k] = v
	}
	path := make(bvalue.List, len(f.Path))
	for i, s := range f.Path {
		path[i] = bvalue.Bytes(s)
	}
	d["path"] = path
	d["length"] = bvalue.Int(f.Length)
	return d
}

// EncodeCanonical serializes the info dictionary with keys in ascending
// byte order, which is the form every client hashes.
func (info *InfoDict) EncodeCanonical() ([]byte, error) {
	d, err := info.Value()
	if err != nil {
		return nil, err
	}
	b, err := bvalue.Encode(d)
	if err != nil {
		return nil, fmt.Errorf("encoding info: %w", err)
	}
	return b, nil
}

// InfoHash is the SHA-1 of the canonical info encoding.
func (info *InfoDict) InfoHash() (metainfo.Hash, error) {
	b, err := info.EncodeCanonical()
	if err != nil {
		return metainfo.Hash{}, err
	}
	return metainfo.Hash(sha1.Sum(b)), nil
}

func (m *Metadata) Value() (bvalue.Dict, error) {
	d := make(bvalue.Dict, len(m.ExtraFields)+8)
	for k, v := range m.ExtraFields {
		d[k] = v
	}
	d["announce"] = bvalue.Bytes(m.Announce)
	info, err := m.Info.Value()
	if err != nil {
		return nil, err
	}
	d["info"] = info

	if len(m.AnnounceList) > 0 || m.present["announce-list"] {
		tiers := make(bvalue.List, len(m.AnnounceList))
		for i, tier := range m.AnnounceList {
			l := make(bvalue.List, len(tier))
			for j, u := range tier {
				l[j] = bvalue.Bytes(u)
			}
			tiers[i] = l
		}
		d["announce-list"] = tiers
	}
	if m.Comment != "" || m.present["comment"] {
		d["comment"] = bvalue.Bytes(m.Comment)
	}
	if m.CreatedBy != "" || m.present["created by"] {
		d["created by"] = bvalue.Bytes(m.CreatedBy)
	}
	if m.Encoding != "" || m.present["encoding"] {
		d["encoding"] = bvalue.Bytes(m.Encoding)
	}
	if !m.CreationDate.IsZero() {
		d["creation date"] = bvalue.Int(m.CreationDate.Unix())
	}
	switch {
	case m.urlListSingle && len(m.URLList) == 1:
		d["url-list"] = bvalue.Bytes(m.URLList[0])
	case len(m.URLList) > 0 || m.present["url-list"]:
		l := make(bvalue.List, len(m.URLList))
		for i, u := range m.URLList {
			l[i] = bvalue.Bytes(u)
		}
		d["url-list"] = l
	}
	return d, nil
}

// Encode re-serializes the whole metainfo file, extension fields included.
func (m *Metadata) Encode() ([]byte, error) {
	d, err := m.Value()
	if err != nil {
		return nil, err
	}
	return bvalue.Encode(d)
}
