package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/artpar/bandgate/domain/proxy"
	"github.com/artpar/bandgate/ports"
)

// maxUpstreamBody bounds how much of an upstream response is buffered.
const maxUpstreamBody = 50 << 20

// UpstreamClient forwards edge requests to the fixed backend origin.
type UpstreamClient struct {
	client  *http.Client
	baseURL *url.URL
	origin  string
}

// UpstreamConfig contains configuration for the upstream client.
type UpstreamConfig struct {
	BaseURL         string
	Timeout         time.Duration
	MaxIdleConns    int
	IdleConnTimeout time.Duration
}

// NewUpstreamClient creates a new upstream HTTP client.
func NewUpstreamClient(cfg UpstreamConfig) (*UpstreamClient, error) {
	baseURL, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if baseURL.Scheme == "" || baseURL.Host == "" {
		return nil, fmt.Errorf("parse base URL: %q is not absolute", cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	maxIdleConns := cfg.MaxIdleConns
	if maxIdleConns == 0 {
		maxIdleConns = 100
	}

	idleConnTimeout := cfg.IdleConnTimeout
	if idleConnTimeout == 0 {
		idleConnTimeout = 90 * time.Second
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        maxIdleConns,
		MaxIdleConnsPerHost: maxIdleConns,
		IdleConnTimeout:     idleConnTimeout,
	}

	return &UpstreamClient{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		baseURL: baseURL,
		origin:  strings.TrimRight(baseURL.String(), "/"),
	}, nil
}

// Forward sends a request to the upstream and returns the response.
// Only Content-Type and, when present, Authorization are sent upstream.
func (u *UpstreamClient) Forward(ctx context.Context, req proxy.Request) (proxy.Response, error) {
	start := time.Now()

	var body io.Reader
	if proxy.ForwardsBody(req.Method) {
		encoded, err := proxy.EncodeBody(req.Body)
		if err != nil {
			return proxy.Response{}, err
		}
		if encoded != nil {
			body = bytes.NewReader(encoded)
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, proxy.UpstreamURL(u.origin, req), body)
	if err != nil {
		return proxy.Response{}, fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if req.Authorization != "" {
		httpReq.Header.Set("Authorization", req.Authorization)
	}

	resp, err := u.client.Do(httpReq)
	if err != nil {
		return proxy.Response{}, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBody))
	if err != nil {
		return proxy.Response{}, fmt.Errorf("read response: %w", err)
	}

	return proxy.Response{
		Status:       resp.StatusCode,
		ContentType:  resp.Header.Get("Content-Type"),
		Body:         respBody,
		LatencyMs:    time.Since(start).Milliseconds(),
		UpstreamAddr: u.baseURL.Host,
	}, nil
}

// HealthCheck verifies the upstream is reachable.
func (u *UpstreamClient) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u.origin+proxy.UpstreamPathPrefix, nil)
	if err != nil {
		return err
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()

	// Any response (even 404) means upstream is reachable
	return nil
}

// Close closes idle upstream connections.
func (u *UpstreamClient) Close() error {
	u.client.CloseIdleConnections()
	return nil
}

// Ensure interface compliance.
var _ ports.Upstream = (*UpstreamClient)(nil)
