// Package transport defines the request/response contract injected into the
// provider clients. The providers never read partial bodies: a transport
// returns the complete response, and the providers check the status
// themselves.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Func performs one HTTP exchange. Implementations must not retry and should
// honor ctx for cancellation and timeouts.
type Func func(ctx context.Context, req Request) (*Response, error)

type Request struct {
	Method string
	URL    string

	Header map[string]string
	Body   []byte

	// ErrorOnStatus makes the transport itself fail on a non-2xx status.
	// The provider clients always leave it false and inspect Status instead.
	ErrorOnStatus bool
}

type Response struct {
	Status int
	Body   []byte
}

// Decode parses the raw body as JSON into v, giving the structured view of
// the response text.
func (r *Response) Decode(v any) error {
	return json.Unmarshal(r.Body, v)
}

// Default returns a Func backed by the given http.Client, or
// http.DefaultClient when nil. It imposes no timeout of its own.
func Default(client *http.Client) Func {
	if client == nil {
		client = http.DefaultClient
	}

	return func(ctx context.Context, req Request) (*Response, error) {
		method := req.Method

		if method == "" {
			method = http.MethodPost
		}

		var body io.Reader

		if len(req.Body) > 0 {
			body = bytes.NewReader(req.Body)
		}

		httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)

		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}

		for key, val := range req.Header {
			httpReq.Header.Set(key, val)
		}

		resp, err := client.Do(httpReq)

		if err != nil {
			return nil, err
		}

		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)

		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}

		if req.ErrorOnStatus && (resp.StatusCode < 200 || resp.StatusCode >= 300) {
			return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(data))
		}

		return &Response{
			Status: resp.StatusCode,
			Body:   data,
		}, nil
	}
}
