package tracker

import (
	"context"
	"io"
	"net/http"
	"time"
)

// Transport performs the announce round trip and hands back the status
// code and body untouched.
type Transport interface {
	Get(ctx context.Context, announce string, params []Param) (status int, body []byte, err error)
}

type HTTPTransport struct {
	Client *http.Client
}

func NewHTTPTransport(timeout time.Duration) *HTTPTransport {
	return &HTTPTransport{
		Client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (t *HTTPTransport) Get(ctx context.Context, announce string, params []Param) (int, []byte, error) {
	u, err := BuildURL(announce, params)
	if err != nil {
		return 0, nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, nil, err
	}
	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, body, nil
}
