package tracker

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/anacrolix/missinggo/v2/httptoo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"torrent-probe/internal/bvalue"
)

type fakeReply struct {
	status int
	body   []byte
	err    error
}

type fakeTransport struct {
	replies []fakeReply
	calls   [][]Param
}

func (f *fakeTransport) Get(_ context.Context, _ string, params []Param) (int, []byte, error) {
	f.calls = append(f.calls, params)
	r := f.replies[0]
	f.replies = f.replies[1:]
	return r.status, r.body, r.err
}

func (f *fakeTransport) push(status int, body []byte, err error) {
	f.replies = append(f.replies, fakeReply{status, body, err})
}

func paramValue(params []Param, key string) (string, bool) {
	for _, p := range params {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

func TestSessionStateMachine(t *testing.T) {
	ctx := context.Background()
	ft := &fakeTransport{}
	s := NewSession("http://tracker.example.org/announce", ft)

	assert.Equal(t, Idle, s.State())
	_, ok := s.Interval()
	assert.False(t, ok)
	assert.Nil(t, s.Peers())

	// tracker failure in Idle stays Idle
	ft.push(200, encode(t, bvalue.Dict{"failure reason": bvalue.Bytes("bad info_hash")}), nil)
	_, err := s.Announce(ctx, testRequest())
	var failure *FailureError
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, Idle, s.State())
	assert.Nil(t, s.Peers())

	// compact success keys peers by position
	ft.push(200, encode(t, bvalue.Dict{
		"interval":   bvalue.Int(1800),
		"tracker id": bvalue.Bytes("tid-1"),
		"peers":      bvalue.Bytes{1, 2, 3, 4, 0, 1, 5, 6, 7, 8, 0, 2},
	}), nil)
	resp, err := s.Announce(ctx, testRequest())
	require.NoError(t, err)
	require.Len(t, resp.Peers, 2)
	assert.Equal(t, Ready, s.State())
	interval, ok := s.Interval()
	assert.True(t, ok)
	assert.EqualValues(t, 1800, interval)
	peers := s.Peers()
	require.Len(t, peers, 2)
	assert.Equal(t, "1.2.3.4:1", peers["0"].String())
	assert.Equal(t, "5.6.7.8:2", peers["1"].String())
	assert.Equal(t, "tid-1", s.TrackerID())

	// transport error and bad status leave Ready untouched
	ft.push(0, nil, errors.New("connection refused"))
	_, err = s.Announce(ctx, testRequest())
	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.EqualError(t, transportErr.Err, "connection refused")

	ft.push(http.StatusServiceUnavailable, []byte("busy"), nil)
	_, err = s.Announce(ctx, testRequest())
	var statusErr *InvalidStatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.Code)

	ft.push(200, []byte("garbage"), nil)
	_, err = s.Announce(ctx, testRequest())
	assert.Error(t, err)

	assert.Equal(t, Ready, s.State())
	interval, _ = s.Interval()
	assert.EqualValues(t, 1800, interval)
	assert.Equal(t, peers, s.Peers())

	// the remembered tracker id goes out with later announces
	for _, call := range ft.calls[2:] {
		tid, ok := paramValue(call, "trackerid")
		assert.True(t, ok)
		assert.Equal(t, "tid-1", tid)
	}

	// verbose success replaces the set wholesale, keyed by peer id
	ft.push(200, encode(t, bvalue.Dict{
		"interval": bvalue.Int(600),
		"peers": bvalue.List{
			bvalue.Dict{
				"peer id": bvalue.Bytes("-AA0001-bbbbbbbbbbbb"),
				"ip":      bvalue.Bytes("9.9.9.9"),
				"port":    bvalue.Int(9999),
			},
			bvalue.Dict{
				"ip":   bvalue.Bytes("8.8.8.8"),
				"port": bvalue.Int(8888),
			},
		},
	}), nil)
	_, err = s.Announce(ctx, testRequest())
	require.NoError(t, err)
	interval, _ = s.Interval()
	assert.EqualValues(t, 600, interval)
	peers = s.Peers()
	require.Len(t, peers, 2)
	assert.Equal(t, "9.9.9.9:9999", peers["-AA0001-bbbbbbbbbbbb"].String())
	assert.Equal(t, "8.8.8.8:8888", peers["1"].String())
	_, stale := peers["0"]
	assert.False(t, stale)
	assert.Equal(t, "tid-1", s.TrackerID())
}

func TestSessionPeersIsCopy(t *testing.T) {
	ft := &fakeTransport{}
	ft.push(200, encode(t, bvalue.Dict{
		"interval": bvalue.Int(1),
		"peers":    bvalue.Bytes{1, 1, 1, 1, 0, 1},
	}), nil)
	s := NewSession("http://tracker.example.org/announce", ft)
	_, err := s.Announce(context.Background(), testRequest())
	require.NoError(t, err)

	delete(s.Peers(), "0")
	assert.Len(t, s.Peers(), 1)
}

func TestSessionExplicitTrackerID(t *testing.T) {
	ft := &fakeTransport{}
	ft.push(200, encode(t, bvalue.Dict{"interval": bvalue.Int(1), "peers": bvalue.Bytes{}}), nil)
	s := NewSession("http://tracker.example.org/announce", ft)
	req := testRequest()
	req.TrackerID = "mine"
	_, err := s.Announce(context.Background(), req)
	require.NoError(t, err)
	tid, _ := paramValue(ft.calls[0], "trackerid")
	assert.Equal(t, "mine", tid)
	assert.Equal(t, Ready, s.State())
	assert.Empty(t, s.Peers())
}

func TestSessionRepeatedPeerKeys(t *testing.T) {
	ft := &fakeTransport{}
	ft.push(200, encode(t, bvalue.Dict{
		"interval": bvalue.Int(1),
		"peers": bvalue.List{
			bvalue.Dict{"ip": bvalue.Bytes("1.1.1.1"), "port": bvalue.Int(1)},
			bvalue.Dict{"peer id": bvalue.Bytes("same"), "ip": bvalue.Bytes("2.2.2.2"), "port": bvalue.Int(2)},
			bvalue.Dict{"peer id": bvalue.Bytes("same"), "ip": bvalue.Bytes("3.3.3.3"), "port": bvalue.Int(3)},
			bvalue.Dict{"peer id": bvalue.Bytes("0"), "ip": bvalue.Bytes("4.4.4.4"), "port": bvalue.Int(4)},
		},
	}), nil)
	s := NewSession("http://tracker.example.org/announce", ft)
	resp, err := s.Announce(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Len(t, resp.Peers, 4)

	peers := s.Peers()
	assert.Len(t, peers, 2)
	assert.Equal(t, "3.3.3.3:3", peers["same"].String())
	assert.Equal(t, "4.4.4.4:4", peers["0"].String())
}

func inProcTransport(h http.HandlerFunc) *HTTPTransport {
	return &HTTPTransport{
		Client: &http.Client{
			Transport: &httptoo.InProcRoundTripper{Handler: h},
			Timeout:   5 * time.Second,
		},
	}
}

func TestHTTPTransport(t *testing.T) {
	var gotQuery string
	tr := inProcTransport(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte("d8:intervali30e5:peers6:\x7f\x00\x00\x01\x1a\xe1e"))
	})
	s := NewSession("http://tracker.example.org/announce?passkey=abc", tr)
	req := testRequest()
	resp, err := s.Announce(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, resp.Peers, 1)
	assert.Equal(t, "127.0.0.1:6881", resp.Peers[0].String())
	assert.Equal(t, "passkey=abc&"+EncodeQuery(req.Params()), gotQuery)
}

func TestHTTPTransportStatus(t *testing.T) {
	tr := inProcTransport(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	s := NewSession("http://tracker.example.org/announce", tr)
	_, err := s.Announce(context.Background(), testRequest())
	var statusErr *InvalidStatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
	assert.Equal(t, Idle, s.State())
}

func TestHTTPTransportBadURL(t *testing.T) {
	s := NewSession("udp://tracker.example.org:80", NewHTTPTransport(time.Second))
	_, err := s.Announce(context.Background(), testRequest())
	var transportErr *TransportError
	assert.True(t, errors.As(err, &transportErr))
}
