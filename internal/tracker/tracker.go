// Package tracker speaks the HTTP tracker announce protocol: it builds the
// request query, decodes the bencoded reply (verbose or BEP 23 compact) and
// keeps the last result per tracker in a Session.
package tracker

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"math/big"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/anacrolix/missinggo/v2"
	"github.com/anacrolix/torrent/metainfo"

	"torrent-probe/internal/torrentfile"
)

const (
	ipv4PeerLen = 4 + 2 // https://www.bittorrent.org/beps/bep_0023.html
	ipv6PeerLen = 16 + 2
)

type Event int

const (
	EventNone Event = iota
	EventStarted
	EventCompleted
	EventStopped
)

func (e Event) String() string {
	switch e {
	case EventStarted:
		return "started"
	case EventCompleted:
		return "completed"
	case EventStopped:
		return "stopped"
	default:
		return ""
	}
}

type AnnounceRequest struct {
	InfoHash   metainfo.Hash
	PeerID     [20]byte
	IP         net.IP // optional
	Port       uint16
	Uploaded   int64
	Downloaded int64
	Left       int64
	Event      Event
	Compact    bool
	NumWant    int    // 0 leaves the choice to the tracker
	Key        string // optional
	TrackerID  string // optional, echoed from a previous response
}

// Peer is one swarm member. ID is empty when the tracker sent none, which is
// always the case for compact lists.
type Peer struct {
	ID   string
	IP   net.IP
	Port uint16
}

func (p Peer) Addr() missinggo.IpPort {
	return missinggo.IpPort{IP: p.IP, Port: p.Port}
}

func (p Peer) String() string {
	return p.Addr().String()
}

type Param struct {
	Key   string
	Value string
}

// NewRequest is the first announce of a fresh download: nothing transferred
// yet and the whole payload left.
func NewRequest(m *torrentfile.Metadata, peerID [20]byte, port uint16) (AnnounceRequest, error) {
	infoHash, err := m.InfoHash()
	if err != nil {
		return AnnounceRequest{}, err
	}
	return AnnounceRequest{
		InfoHash: infoHash,
		PeerID:   peerID,
		Port:     port,
		Left:     m.Info.TotalLength(),
		Event:    EventStarted,
		Compact:  true,
	}, nil
}

// Params lists the query parameters in a fixed order. Binary values such
// as the info-hash are carried as raw bytes and escaped by EncodeQuery.
func (r AnnounceRequest) Params() []Param {
	params := []Param{
		{"info_hash", string(r.InfoHash[:])},
		{"peer_id", string(r.PeerID[:])},
	}
	if r.IP != nil {
		params = append(params, Param{"ip", r.IP.String()})
	}
	params = append(params,
		Param{"port", strconv.Itoa(int(r.Port))},
		Param{"uploaded", strconv.FormatInt(r.Uploaded, 10)},
		Param{"downloaded", strconv.FormatInt(r.Downloaded, 10)},
		Param{"left", strconv.FormatInt(r.Left, 10)},
	)
	if r.Event != EventNone {
		params = append(params, Param{"event", r.Event.String()})
	}
	compact := "0"
	if r.Compact {
		compact = "1"
	}
	params = append(params, Param{"compact", compact})
	if r.NumWant > 0 {
		params = append(params, Param{"numwant", strconv.Itoa(r.NumWant)})
	}
	if r.Key != "" {
		params = append(params, Param{"key", r.Key})
	}
	if r.TrackerID != "" {
		params = append(params, Param{"trackerid", r.TrackerID})
	}
	return params
}

// EncodeQuery percent-encodes every byte that needs it and keeps the
// parameter order.
func EncodeQuery(params []Param) string {
	var b strings.Builder
	for i, p := range params {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}
	return b.String()
}

// BuildURL appends the announce parameters to the tracker URL, keeping any
// query it already has (private tracker passkeys live there).
func BuildURL(announce string, params []Param) (string, error) {
	u, err := url.Parse(announce)
	if err != nil {
		return "", fmt.Errorf("invalid tracker url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported tracker scheme %q", u.Scheme)
	}
	q := EncodeQuery(params)
	if u.RawQuery != "" {
		u.RawQuery += "&" + q
	} else {
		u.RawQuery = q
	}
	return u.String(), nil
}

// DecodeCompactPeers splits a BEP 23 "peers" string: 4 bytes of IPv4
// address and 2 bytes of port per entry, both big-endian.
func DecodeCompactPeers(b []byte) ([]Peer, error) {
	return decodeCompact(b, ipv4PeerLen)
}

// DecodeCompactPeers6 splits a "peers6" string of 18-byte entries.
func DecodeCompactPeers6(b []byte) ([]Peer, error) {
	return decodeCompact(b, ipv6PeerLen)
}

func decodeCompact(b []byte, entrySize int) ([]Peer, error) {
	if len(b)%entrySize != 0 {
		return nil, &InvalidCompactListLengthError{EntrySize: entrySize, ActualLength: len(b)}
	}
	ipLen := entrySize - 2
	peers := make([]Peer, 0, len(b)/entrySize)
	for i := 0; i < len(b); i += entrySize {
		ip := make(net.IP, ipLen)
		copy(ip, b[i:i+ipLen])
		peers = append(peers, Peer{
			IP:   ip,
			Port: binary.BigEndian.Uint16(b[i+ipLen : i+entrySize]),
		})
	}
	return peers, nil
}

const peerIDAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// DefaultPeerIDPrefix follows the Azureus style of BEP 20.
const DefaultPeerIDPrefix = "-TP0100-"

// GenPeerID returns prefix padded to 20 bytes with random alphanumerics.
func GenPeerID(prefix string) ([20]byte, error) {
	var id [20]byte
	if len(prefix) > len(id) {
		return id, fmt.Errorf("peer id prefix %q longer than %d bytes", prefix, len(id))
	}
	n := copy(id[:], prefix)
	alphabetLen := big.NewInt(int64(len(peerIDAlphabet)))
	for i := n; i < len(id); i++ {
		r, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return id, err
		}
		id[i] = peerIDAlphabet[r.Int64()]
	}
	return id, nil
}
