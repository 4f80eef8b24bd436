// Package remote provides the HTTP client for the fan platform backend API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/artpar/bandgate/ports"
)

// Client provides HTTP communication with the backend.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     ports.TokenSource
	headers    map[string]string
}

// ClientConfig configures the remote client.
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
	Headers map[string]string

	// Tokens supplies the bearer token. Optional.
	Tokens ports.TokenSource
}

// NewClient creates a new remote HTTP client.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		tokens:     cfg.Tokens,
		headers:    cfg.Headers,
	}
}

// Request sends an HTTP request to the backend.
// An empty response body leaves result untouched. A *[]byte result receives
// the body verbatim without JSON decoding.
func (c *Client) Request(ctx context.Context, method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if c.tokens != nil {
		token, err := c.tokens.AccessToken(ctx)
		if err != nil {
			return fmt.Errorf("read access token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return &RemoteError{
			StatusCode: resp.StatusCode,
			Message:    string(data),
		}
	}

	if raw, ok := result.(*[]byte); ok {
		*raw = data
		return nil
	}

	if result != nil && len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}

	return nil
}

// RemoteError represents an error status from the backend.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote error %d: %s", e.StatusCode, e.Message)
}

// HTTPStatus implements ports.StatusError.
func (e *RemoteError) HTTPStatus() int {
	return e.StatusCode
}

// Ensure interface compliance.
var (
	_ ports.BackendAPI  = (*Client)(nil)
	_ ports.StatusError = (*RemoteError)(nil)
)
