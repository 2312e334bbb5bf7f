package fetch

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"
)

// preparedRequest is everything about a logical request that stays fixed across attempts
type preparedRequest struct {
	method    string
	url       string
	header    http.Header
	body      []byte
	transport http.RoundTripper
	buffer    bool
	requestID string
}

// roundTrip sends one attempt and reads the whole response. It completes exactly once:
// either with an envelope or with the transport error, never both.
func roundTrip(ctx context.Context, p *preparedRequest, timeout time.Duration) (*Envelope, error) {
	var body io.Reader
	if p.body != nil {
		body = bytes.NewReader(p.body)
	}

	req, err := http.NewRequestWithContext(ctx, p.method, p.url, body)
	if err != nil {
		return nil, err
	}
	req.Header = p.header.Clone()

	client := &http.Client{
		Transport: p.transport,
		Timeout:   timeout,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &Envelope{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header,
		Body:       decodeBody(raw, p.buffer),
		Raw:        raw,
	}, nil
}
