package tracker

import (
	"context"
	"maps"
	"strconv"

	"github.com/anacrolix/log"
)

type State int

const (
	Idle State = iota
	Ready
)

func (s State) String() string {
	if s == Ready {
		return "ready"
	}
	return "idle"
}

// Session remembers the outcome of the last successful announce to one
// tracker. It is not safe for concurrent use.
type Session struct {
	Logger log.Logger

	url       string
	transport Transport
	state     State
	interval  uint64
	peers     map[string]Peer
	trackerID string
}

func NewSession(url string, transport Transport) *Session {
	return &Session{
		Logger:    log.Default.WithNames("tracker"),
		url:       url,
		transport: transport,
	}
}

func (s *Session) URL() string { return s.url }

func (s *Session) State() State { return s.state }

// Interval is the re-announce delay from the last successful response.
func (s *Session) Interval() (uint64, bool) {
	return s.interval, s.state == Ready
}

// Peers returns a copy of the current peer set, nil while Idle.
func (s *Session) Peers() map[string]Peer {
	return maps.Clone(s.peers)
}

func (s *Session) TrackerID() string { return s.trackerID }

// Announce performs one round trip. Any error leaves the session exactly as
// it was before the call.
func (s *Session) Announce(ctx context.Context, req AnnounceRequest) (*AnnounceResponse, error) {
	if req.TrackerID == "" {
		req.TrackerID = s.trackerID
	}
	status, body, err := s.transport.Get(ctx, s.url, req.Params())
	if err != nil {
		s.Logger.Levelf(log.Debug, "announce to %s: %v", s.url, err)
		return nil, &TransportError{Err: err}
	}
	if status < 200 || status > 299 {
		return nil, &InvalidStatusError{Code: status}
	}
	resp, err := ParseResponse(body)
	if err != nil {
		return nil, err
	}
	if resp.WarningMessage != "" {
		s.Logger.Levelf(log.Warning, "tracker %s: %s", s.url, resp.WarningMessage)
	}

	peers := make(map[string]Peer, len(resp.Peers))
	for i, p := range resp.Peers {
		key := p.ID
		if key == "" {
			key = strconv.Itoa(i)
		}
		if prev, ok := peers[key]; ok {
			s.Logger.Levelf(log.Debug, "announce to %s: peer key %q repeated, %v replaces %v", s.url, key, p, prev)
		}
		peers[key] = p
	}
	s.peers = peers
	s.interval = resp.Interval
	if resp.TrackerID != "" {
		s.trackerID = resp.TrackerID
	}
	s.state = Ready
	s.Logger.Levelf(log.Debug, "announce to %s: %d peers, interval %ds", s.url, len(peers), resp.Interval)
	return resp, nil
}
