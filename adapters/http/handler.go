// Package http provides HTTP handlers for the edge proxy.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/artpar/bandgate/adapters/metrics"
	"github.com/artpar/bandgate/app"
	"github.com/artpar/bandgate/docs/swagger"
	"github.com/artpar/bandgate/domain/proxy"
	"github.com/artpar/bandgate/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
)

// proxyRoute is the path the proxy is mounted on.
const proxyRoute = "/api"

// VersionResponse represents the version endpoint response.
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
	Service string `json:"service" example:"bandgate"`
}

// HealthResponse represents a health check response.
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

// ProxyHandler wraps the proxy service for HTTP handling.
type ProxyHandler struct {
	service *app.ProxyService
	logger  zerolog.Logger
	metrics *metrics.Collector
}

// NewProxyHandler creates a new HTTP proxy handler.
func NewProxyHandler(service *app.ProxyService, logger zerolog.Logger) *ProxyHandler {
	return &ProxyHandler{
		service: service,
		logger:  logger,
	}
}

// NewProxyHandlerWithMetrics creates a new HTTP proxy handler with metrics.
func NewProxyHandlerWithMetrics(service *app.ProxyService, logger zerolog.Logger, m *metrics.Collector) *ProxyHandler {
	return &ProxyHandler{
		service: service,
		logger:  logger,
		metrics: m,
	}
}

// ServeHTTP handles edge proxy requests.
//
//	@Summary		Proxy request to the backend
//	@Description	Forwards the request to the backend origin under /api/{path}
//	@Tags			Proxy
//	@Accept			json
//	@Produce		json
//	@Param			path			path	string	true	"Path segments forwarded to the backend"
//	@Param			Authorization	header	string	false	"Forwarded unchanged when present"
//	@Success		200				"Upstream response, relayed with its status"
//	@Failure		500				{object}	proxy.ErrorBody	"Transport failure or unparseable upstream JSON"
//	@Router			/api/{path} [get]
//	@Router			/api/{path} [post]
//	@Router			/api/{path} [put]
//	@Router			/api/{path} [delete]
//	@Router			/api/{path} [patch]
//	@Router			/api/{path} [options]
func (h *ProxyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	writeCORS(w)

	// Read request body
	var body []byte
	if r.Body != nil {
		var err error
		body, err = io.ReadAll(io.LimitReader(r.Body, h.service.MaxBodyBytes()+1))
		if err != nil {
			h.logger.Error().Err(err).Msg("failed to read request body")
			writeError(w, proxy.NewErrorBody(fmt.Errorf("read request body: %w", err)))
			return
		}
	}

	// The wildcard param is matched against the decoded path, so segments
	// come from the escaped form to keep escapes like %25 intact.
	segments := proxy.SplitSegments(strings.TrimPrefix(r.URL.EscapedPath(), proxyRoute))
	if len(segments) == 0 {
		segments = proxy.SegmentsFromQuery(r.URL.RawQuery)
	}

	req := proxy.Request{
		Method:        r.Method,
		Segments:      segments,
		Query:         proxy.ParseQuery(r.URL.RawQuery),
		Authorization: r.Header.Get("Authorization"),
		Body:          body,
		RemoteIP:      extractIP(r),
		TraceID:       middleware.GetReqID(ctx),
	}

	if h.metrics != nil && !req.IsPreflight() {
		h.metrics.UpstreamInFlight.Inc()
	}
	result := h.service.Handle(ctx, req)
	if h.metrics != nil && !req.IsPreflight() {
		h.metrics.UpstreamInFlight.Dec()
	}

	h.logRequest(req, result)

	switch {
	case result.Preflight:
		w.WriteHeader(http.StatusOK)
		return
	case result.Error != nil:
		writeError(w, *result.Error)
		return
	}

	resp := result.Response
	switch resp.Kind {
	case proxy.BodyJSON:
		w.Header().Set("Content-Type", "application/json")
	case proxy.BodyText:
		contentType := resp.ContentType
		if contentType == "" {
			contentType = "text/plain; charset=utf-8"
		}
		w.Header().Set("Content-Type", contentType)
	}

	w.WriteHeader(resp.Status)
	if r.Method != http.MethodHead && len(resp.Body) > 0 {
		if _, err := w.Write(resp.Body); err != nil {
			h.logger.Error().Err(err).Msg("failed to write response body")
		}
	}
}

func (h *ProxyHandler) logRequest(req proxy.Request, result app.HandleResult) {
	path := proxy.UpstreamPath(req.Segments)

	event := h.logger.Info()
	status := http.StatusOK
	switch {
	case result.Preflight:
		event = h.logger.Debug()
	case result.Error != nil:
		event = h.logger.Warn()
		status = http.StatusInternalServerError
		event.Str("reason", result.Reason).Str("error", result.Error.Message)
	default:
		status = result.Response.Status
		event.Int64("latency_ms", result.Response.LatencyMs).
			Str("upstream", result.Response.UpstreamAddr)
	}

	if h.metrics != nil {
		normalized := metrics.NormalizePath(path)
		h.metrics.RequestsTotal.WithLabelValues(req.Method, normalized, statusLabel(status)).Inc()
		switch {
		case result.Preflight:
			h.metrics.PreflightTotal.Inc()
		case result.Error != nil:
			h.metrics.ProxyErrors.WithLabelValues(result.Reason).Inc()
			if result.Reason == app.ReasonTransport {
				h.metrics.UpstreamErrors.WithLabelValues(result.Reason).Inc()
			}
		default:
			h.metrics.UpstreamDuration.WithLabelValues(req.Method, statusLabel(status)).
				Observe(float64(result.Response.LatencyMs) / 1000)
		}
	}

	event.
		Str("method", req.Method).
		Str("path", path).
		Int("status", status).
		Str("remote_ip", req.RemoteIP).
		Str("trace_id", req.TraceID).
		Msg("proxy request")
}

// extractIP extracts the client IP from the request.
// RealIP middleware has already folded X-Forwarded-For / X-Real-IP into
// RemoteAddr.
func extractIP(r *http.Request) string {
	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}

func writeCORS(w http.ResponseWriter) {
	for k, v := range proxy.CORSHeaders() {
		w.Header().Set(k, v)
	}
}

// writeError writes the shaped 500 error body.
func writeError(w http.ResponseWriter, body proxy.ErrorBody) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(body)
}

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	upstream HealthChecker
}

// HealthChecker interface for checking upstream health.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(upstream HealthChecker) *HealthHandler {
	return &HealthHandler{upstream: upstream}
}

// Liveness returns a simple liveness check.
//
//	@Summary		Liveness check
//	@Description	Returns OK if the service is running
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	HealthResponse	"status: ok"
//	@Router			/health [get]
//	@Router			/health/live [get]
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(HealthResponse{Status: "ok"})
}

// Readiness checks if the backend origin is reachable.
//
//	@Summary		Readiness check
//	@Description	Checks if the backend origin is reachable
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	HealthResponse			"status: ok"
//	@Failure		503	{object}	map[string]interface{}	"status: unhealthy, error: message"
//	@Router			/health/ready [get]
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if h.upstream != nil {
		if err := h.upstream.HealthCheck(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(HealthResponse{Status: "ok"})
}

// VersionHandler returns the service version.
//
//	@Summary		Get service version
//	@Description	Returns the version information for the bandgate service
//	@Tags			System
//	@Produce		json
//	@Success		200	{object}	VersionResponse	"Version information"
//	@Router			/version [get]
func VersionHandler(version string) http.HandlerFunc {
	if version == "" {
		version = "dev"
	}
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(VersionResponse{
			Version: version,
			Service: "bandgate",
		})
	}
}

// RouterConfig holds optional configuration for the router.
type RouterConfig struct {
	Metrics        *metrics.Collector
	MetricsHandler http.Handler // Optional metrics exporter (defaults to promhttp when Metrics is set)
	MetricsPath    string       // defaults to /metrics
	EnableOpenAPI  bool
	Version        string
	IDGen          ports.IDGenerator // Request id source (defaults to chi's counter)
	RequestTimeout time.Duration
}

// NewRouter creates the main HTTP router.
func NewRouter(proxyHandler *ProxyHandler, healthHandler *HealthHandler, logger zerolog.Logger) chi.Router {
	return NewRouterWithConfig(proxyHandler, healthHandler, logger, RouterConfig{})
}

// NewRouterWithConfig creates the main HTTP router with optional config.
func NewRouterWithConfig(proxyHandler *ProxyHandler, healthHandler *HealthHandler, logger zerolog.Logger, cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	// Middleware
	if cfg.IDGen != nil {
		r.Use(NewRequestIDMiddleware(cfg.IDGen))
	} else {
		r.Use(middleware.RequestID)
	}
	r.Use(middleware.RealIP)
	r.Use(NewLoggingMiddleware(logger))
	r.Use(NewRecoverMiddleware(logger))
	r.Use(middleware.Timeout(timeout))

	// Metrics middleware (if enabled)
	if cfg.Metrics != nil {
		r.Use(NewMetricsMiddleware(cfg.Metrics))
	}

	// Health endpoints
	r.Get("/health", healthHandler.Liveness)
	r.Get("/health/live", healthHandler.Liveness)
	r.Get("/health/ready", healthHandler.Readiness)

	// Metrics endpoint
	metricsPath := cfg.MetricsPath
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	if cfg.MetricsHandler != nil {
		r.Handle(metricsPath, cfg.MetricsHandler)
	} else if cfg.Metrics != nil {
		r.Handle(metricsPath, promhttp.Handler())
	}

	// OpenAPI/Swagger endpoints (if enabled)
	if cfg.EnableOpenAPI {
		r.Get("/.well-known/openapi.json", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Access-Control-Allow-Origin", proxy.AllowOrigin)
			io.WriteString(w, swagger.SwaggerInfo.ReadDoc())
		})

		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/.well-known/openapi.json"),
		))
	}

	r.Get("/version", VersionHandler(cfg.Version))

	// Edge proxy: the bare prefix and everything below it
	r.HandleFunc(proxyRoute, proxyHandler.ServeHTTP)
	r.HandleFunc(proxyRoute+"/*", proxyHandler.ServeHTTP)

	return r
}

// NewRequestIDMiddleware assigns each request an id from gen, or keeps the
// inbound X-Request-ID. The id is stored where middleware.GetReqID finds it
// and echoed in the response.
func NewRequestIDMiddleware(gen ports.IDGenerator) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(middleware.RequestIDHeader)
			if id == "" {
				id = gen.New()
			}
			w.Header().Set(middleware.RequestIDHeader, id)
			ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NewRecoverMiddleware turns panics below it into the shaped 500 body, so
// edge callers always receive JSON with CORS headers.
func NewRecoverMiddleware(logger zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.Error().
					Interface("panic", rec).
					Str("path", r.URL.Path).
					Str("request_id", middleware.GetReqID(r.Context())).
					Msg("handler panic")
				writeCORS(w)
				writeError(w, proxy.NewErrorBody(fmt.Errorf("internal error: %v", rec)))
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// NewMetricsMiddleware creates middleware that records request metrics.
func NewMetricsMiddleware(m *metrics.Collector) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Skip metrics for internal endpoints
			if strings.HasPrefix(r.URL.Path, "/health") || r.URL.Path == "/metrics" ||
				strings.HasPrefix(r.URL.Path, "/swagger") || strings.HasPrefix(r.URL.Path, "/.well-known") {
				next.ServeHTTP(w, r)
				return
			}

			m.RequestsInFlight.Inc()
			defer m.RequestsInFlight.Dec()

			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			duration := time.Since(start).Seconds()
			status := statusLabel(ww.Status())
			path := metrics.NormalizePath(r.URL.Path)

			m.RequestDuration.WithLabelValues(r.Method, path, status).Observe(duration)
		})
	}
}

// statusLabel returns a string label for the status code.
func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "other"
	}
}

// NewLoggingMiddleware creates a new logging middleware.
func NewLoggingMiddleware(logger zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			// Skip logging for health checks and metrics
			if strings.HasPrefix(r.URL.Path, "/health") || r.URL.Path == "/metrics" {
				return
			}

			logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("http request")
		})
	}
}
