package tracker

import (
	"fmt"
	"math"
	"net"

	"torrent-probe/internal/bvalue"
)

// AnnounceResponse is a successful tracker reply. A reply carrying a
// "failure reason" never becomes one; ParseResponse returns *FailureError
// instead.
type AnnounceResponse struct {
	Interval       uint64
	MinInterval    uint64 // 0 when absent
	Complete       int64  // seeders, -1 when absent
	Incomplete     int64  // leechers, -1 when absent
	TrackerID      string
	WarningMessage string
	// Peers holds the IPv4 entries first, then the IPv6 ones from peers6.
	Peers       []Peer
	ExtraFields bvalue.Dict
}

var knownResponseKeys = map[string]bool{
	"interval":        true,
	"min interval":    true,
	"complete":        true,
	"incomplete":      true,
	"tracker id":      true,
	"warning message": true,
	"peers":           true,
	"peers6":          true,
}

func ParseResponse(body []byte) (*AnnounceResponse, error) {
	v, err := bvalue.Parse(body)
	if err != nil {
		return nil, err
	}
	d, err := bvalue.ExpectDict(v)
	if err != nil {
		return nil, err
	}

	if fr, ok := d["failure reason"]; ok {
		reason, err := bvalue.ExpectBytes(fr)
		if err != nil {
			return nil, &FieldError{Field: "failure reason", Err: err}
		}
		return nil, &FailureError{Reason: string(reason)}
	}

	resp := &AnnounceResponse{Complete: -1, Incomplete: -1}

	interval, ok, err := intField(d, "interval")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &MissingFieldError{Field: "interval"}
	}
	if interval < 0 {
		return nil, &FieldError{Field: "interval", Err: fmt.Errorf("negative value %d", interval)}
	}
	resp.Interval = uint64(interval)

	if mi, ok, err := intField(d, "min interval"); err != nil {
		return nil, err
	} else if ok && mi > 0 {
		resp.MinInterval = uint64(mi)
	}
	if c, ok, err := intField(d, "complete"); err != nil {
		return nil, err
	} else if ok {
		resp.Complete = c
	}
	if c, ok, err := intField(d, "incomplete"); err != nil {
		return nil, err
	} else if ok {
		resp.Incomplete = c
	}
	if resp.TrackerID, err = bytesField(d, "tracker id"); err != nil {
		return nil, err
	}
	if resp.WarningMessage, err = bytesField(d, "warning message"); err != nil {
		return nil, err
	}

	peersVal, havePeers := d["peers"]
	peers6Val, havePeers6 := d["peers6"]
	if !havePeers && !havePeers6 {
		return nil, &MissingFieldError{Field: "peers"}
	}
	if havePeers {
		switch pv := peersVal.(type) {
		case bvalue.List:
			resp.Peers, err = decodeVerbosePeers(pv)
		case bvalue.Bytes:
			resp.Peers, err = DecodeCompactPeers(pv)
		default:
			err = &FieldError{Field: "peers", Err: &bvalue.TypeMismatchError{
				Expected: bvalue.KindList,
				Found:    peersVal.Kind(),
			}}
		}
		if err != nil {
			return nil, err
		}
	}
	if havePeers6 {
		b, err := bvalue.ExpectBytes(peers6Val)
		if err != nil {
			return nil, &FieldError{Field: "peers6", Err: err}
		}
		peers6, err := DecodeCompactPeers6(b)
		if err != nil {
			return nil, err
		}
		resp.Peers = append(resp.Peers, peers6...)
	}

	for k, v := range d {
		if knownResponseKeys[k] {
			continue
		}
		if resp.ExtraFields == nil {
			resp.ExtraFields = bvalue.Dict{}
		}
		resp.ExtraFields[k] = v
	}
	return resp, nil
}

func decodeVerbosePeers(l bvalue.List) ([]Peer, error) {
	peers := make([]Peer, 0, len(l))
	for i, item := range l {
		p, err := decodeVerbosePeer(item)
		if err != nil {
			return nil, &InvalidPeerError{Index: i, Err: err}
		}
		peers = append(peers, p)
	}
	return peers, nil
}

func decodeVerbosePeer(v bvalue.Value) (Peer, error) {
	d, err := bvalue.ExpectDict(v)
	if err != nil {
		return Peer{}, err
	}
	var p Peer
	if p.ID, err = bytesField(d, "peer id"); err != nil {
		return Peer{}, err
	}

	ipVal, ok := d["ip"]
	if !ok {
		return Peer{}, &MissingFieldError{Field: "ip"}
	}
	ipBytes, err := bvalue.ExpectBytes(ipVal)
	if err != nil {
		return Peer{}, &FieldError{Field: "ip", Err: err}
	}
	p.IP = net.ParseIP(string(ipBytes))
	if p.IP == nil {
		return Peer{}, &FieldError{Field: "ip", Err: fmt.Errorf("invalid address %q", ipBytes)}
	}
	if ip4 := p.IP.To4(); ip4 != nil {
		p.IP = ip4
	}

	port, ok, err := intField(d, "port")
	if err != nil {
		return Peer{}, err
	}
	if !ok {
		return Peer{}, &MissingFieldError{Field: "port"}
	}
	if port < 0 || port > math.MaxUint16 {
		return Peer{}, &FieldError{Field: "port", Err: fmt.Errorf("out of range: %d", port)}
	}
	p.Port = uint16(port)
	return p, nil
}

func intField(d bvalue.Dict, key string) (int64, bool, error) {
	v, ok := d[key]
	if !ok {
		return 0, false, nil
	}
	i, err := bvalue.ExpectInt(v)
	if err != nil {
		return 0, false, &FieldError{Field: key, Err: err}
	}
	return i, true, nil
}

func bytesField(d bvalue.Dict, key string) (string, error) {
	v, ok := d[key]
	if !ok {
		return "", nil
	}
	b, err := bvalue.ExpectBytes(v)
	if err != nil {
		return "", &FieldError{Field: key, Err: err}
	}
	return string(b), nil
}
