// Package app provides application services that orchestrate domain logic.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/artpar/bandgate/domain/proxy"
	"github.com/artpar/bandgate/ports"
	"github.com/rs/zerolog"
)

// DefaultMaxBodyBytes bounds inbound request bodies.
const DefaultMaxBodyBytes int64 = 10 << 20

// ErrBodyTooLarge is returned when an inbound body exceeds the configured limit.
var ErrBodyTooLarge = errors.New("request body too large")

// ProxyService relays edge requests to the upstream origin.
type ProxyService struct {
	upstream ports.Upstream
	logger   zerolog.Logger

	// Dynamic configuration (hot-reloadable)
	dynamicCfg atomic.Pointer[DynamicConfig]
}

// DynamicConfig contains hot-reloadable configuration.
type DynamicConfig struct {
	MaxBodyBytes int64
}

// ProxyDeps contains dependencies for ProxyService.
type ProxyDeps struct {
	Upstream ports.Upstream
	Logger   zerolog.Logger
}

// ProxyConfig contains configuration for ProxyService.
type ProxyConfig struct {
	MaxBodyBytes int64
}

// NewProxyService creates a new proxy service.
func NewProxyService(deps ProxyDeps, cfg ProxyConfig) *ProxyService {
	s := &ProxyService{
		upstream: deps.Upstream,
		logger:   deps.Logger,
	}
	s.UpdateConfig(cfg.MaxBodyBytes)
	return s
}

// UpdateConfig updates the hot-reloadable configuration.
// This is thread-safe and can be called while handling requests.
func (s *ProxyService) UpdateConfig(maxBodyBytes int64) {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	s.dynamicCfg.Store(&DynamicConfig{MaxBodyBytes: maxBodyBytes})
}

// MaxBodyBytes returns the current inbound body limit.
func (s *ProxyService) MaxBodyBytes() int64 {
	return s.dynamicCfg.Load().MaxBodyBytes
}

// Failure reasons reported in HandleResult.Reason.
const (
	ReasonBodyTooLarge = "body_too_large"
	ReasonTransport    = "transport"
	ReasonInvalidJSON  = "invalid_json"
)

// HandleResult represents the outcome of handling a request.
// Exactly one of Preflight, Error or Response is meaningful.
type HandleResult struct {
	Response  proxy.Response
	Error     *proxy.ErrorBody
	Reason    string
	Preflight bool
}

// Handle processes an inbound edge request.
func (s *ProxyService) Handle(ctx context.Context, req proxy.Request) HandleResult {
	// 1. Preflight is answered locally (PURE)
	if req.IsPreflight() {
		return HandleResult{Preflight: true}
	}

	// 2. Enforce body limit (PURE)
	if int64(len(req.Body)) > s.MaxBodyBytes() {
		return s.fail(req, ReasonBodyTooLarge, ErrBodyTooLarge)
	}

	// 3. Forward to upstream (I/O)
	resp, err := s.upstream.Forward(ctx, req)
	if err != nil {
		return s.fail(req, ReasonTransport, err)
	}

	// 4. Classify body (PURE)
	resp.Kind = proxy.ClassifyBody(resp.ContentType, resp.Body)
	if resp.Kind == proxy.BodyJSON {
		if err := proxy.ValidateJSONBody(resp.Body); err != nil {
			return s.fail(req, ReasonInvalidJSON, fmt.Errorf("upstream %d: %w", resp.Status, err))
		}
	}

	s.logger.Debug().
		Str("trace_id", req.TraceID).
		Str("method", req.Method).
		Str("path", proxy.UpstreamPath(req.Segments)).
		Int("status", resp.Status).
		Stringer("body", resp.Kind).
		Int64("latency_ms", resp.LatencyMs).
		Msg("upstream response relayed")

	return HandleResult{Response: resp}
}

func (s *ProxyService) fail(req proxy.Request, reason string, err error) HandleResult {
	s.logger.Error().
		Err(err).
		Str("reason", reason).
		Str("trace_id", req.TraceID).
		Str("method", req.Method).
		Str("path", proxy.UpstreamPath(req.Segments)).
		Msg("proxy request failed")

	body := proxy.NewErrorBody(err)
	return HandleResult{Error: &body, Reason: reason}
}
