// Package rest talks to a hosted backend over HTTP: PostgREST-style table
// endpoints under /rest/v1 and GoTrue-style auth endpoints under /auth/v1.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"teamboard/app/backend"
)

// Conn is an authenticated HTTP connection to the service.
type Conn struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewConn returns a connection to baseURL using the public api key. A nil
// client uses a default with a 30 second timeout.
func NewConn(baseURL, apiKey string, client *http.Client) *Conn {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Conn{baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, http: client}
}

type request struct {
	method string
	path   string
	query  url.Values
	body   any
	bearer string
	prefer string
}

// do sends r and returns the response body. Non-2xx responses become
// *backend.Error.
func (c *Conn) do(ctx context.Context, r request) ([]byte, error) {
	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}
	var body io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.apiKey)
	bearer := r.bearer
	if bearer == "" {
		bearer = c.apiKey
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Accept", "application/json")
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.prefer != "" {
		req.Header.Set("Prefer", r.prefer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", r.method, r.path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, parseError(resp.StatusCode, data)
	}
	return data, nil
}

// errorBody covers both the table API and the auth API error shapes.
type errorBody struct {
	Code             json.RawMessage `json:"code"`
	Message          string          `json:"message"`
	Details          string          `json:"details"`
	Hint             string          `json:"hint"`
	Msg              string          `json:"msg"`
	ErrorCode        string          `json:"error_code"`
	Error            string          `json:"error"`
	ErrorDescription string          `json:"error_description"`
}

func parseError(status int, data []byte) error {
	e := &backend.Error{Status: status}
	var body errorBody
	if json.Unmarshal(data, &body) != nil {
		e.Message = strings.TrimSpace(string(data))
		return e
	}
	var code string
	if json.Unmarshal(body.Code, &code) != nil {
		code = ""
	}
	e.Code = firstNonEmpty(body.ErrorCode, code, body.Error)
	e.Message = firstNonEmpty(body.Message, body.Msg, body.ErrorDescription, body.Error)
	e.Details = body.Details
	e.Hint = body.Hint
	return e
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
