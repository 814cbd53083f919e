package torrentfile

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/anacrolix/torrent/metainfo"

	"torrent-probe/internal/bvalue"
)

const HashSize = 20

// Metadata is a decoded .torrent file.
// https://www.bittorrent.org/beps/bep_0003.html#metainfo-files
type Metadata struct {
	Announce     string
	AnnounceList [][]string // BEP 12 tiers
	Info         InfoDict
	CreatedBy    string
	Comment      string
	Encoding     string
	CreationDate time.Time // zero when absent
	URLList      []string  // BEP 19 web seeds
	ExtraFields  bvalue.Dict

	urlListSingle bool
	// optional keys seen in the source, so empty values are re-emitted
	present map[string]bool
}

func (m *Metadata) markPresent(key string) {
	if m.present == nil {
		m.present = make(map[string]bool)
	}
	m.present[key] = true
}

type InfoDict struct {
	Name        string
	PieceLength int64
	Pieces      []metainfo.Hash
	Mode        FileMode
	Private     bool
	ExtraFields bvalue.Dict

	// set when the source carried a private key, so that "private: 0"
	// survives re-encoding and the info-hash does not move.
	privateKey bool
}

// FileMode is either SingleFile or MultiFile.
type FileMode interface {
	isFileMode()
}

type SingleFile struct {
	Length int64
}

type MultiFile struct {
	Files []FileEntry
}

func (SingleFile) isFileMode() {}
func (MultiFile) isFileMode()  {}

type FileEntry struct {
	Path        []string
	Length      int64
	ExtraFields bvalue.Dict
}

// DisplayPath joins the path segments with "/" regardless of the host OS.
func (f FileEntry) DisplayPath() string {
	return strings.Join(f.Path, "/")
}

// Load reads a whole .torrent file and decodes it.
func Load(path string) (*Metadata, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return m, nil
}

func (m *Metadata) InfoHash() (metainfo.Hash, error) {
	return m.Info.InfoHash()
}

// Trackers returns every announce URL, primary first, then the announce-list
// tiers in order, without duplicates.
func (m *Metadata) Trackers() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(u string) {
		if u == "" || seen[u] {
			return
		}
		seen[u] = true
		out = append(out, u)
	}
	add(m.Announce)
	for _, tier := range m.AnnounceList {
		for _, u := range tier {
			add(u)
		}
	}
	return out
}

func (info *InfoDict) TotalLength() int64 {
	switch mode := info.Mode.(type) {
	case SingleFile:
		return mode.Length
	case MultiFile:
		var total int64
		for _, f := range mode.Files {
			total += f.Length
		}
		return total
	}
	return 0
}

func (info *InfoDict) IsMultiFile() bool {
	_, ok := info.Mode.(MultiFile)
	return ok
}

// Files lists the payload files. A single-file torrent yields one entry
// named after the torrent.
func (info *InfoDict) Files() []FileEntry {
	switch mode := info.Mode.(type) {
	case SingleFile:
		return []FileEntry{{Path: []string{info.Name}, Length: mode.Length}}
	case MultiFile:
		return mode.Files
	}
	return nil
}

func (info *InfoDict) NumPieces() int {
	return len(info.Pieces)
}

// PieceSize is the byte length of piece index; only the last one may be
// shorter than PieceLength.
func (info *InfoDict) PieceSize(index int) int64 {
	n := info.NumPieces()
	if index < 0 || index >= n || info.PieceLength <= 0 {
		return 0
	}
	if index < n-1 {
		return info.PieceLength
	}
	last := info.TotalLength() - int64(n-1)*info.PieceLength
	if last <= 0 || last > info.PieceLength {
		return info.PieceLength
	}
	return last
}
