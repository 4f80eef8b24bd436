// Package proxy provides request/response value types for the edge proxy.
package proxy

import "net/http"

// RoutingParam is the query key that carries the captured path on platforms
// that expose the wildcard as a query parameter. It is never forwarded.
const RoutingParam = "path"

// UpstreamPathPrefix is prepended to the captured segments when building the
// upstream path. The backend serves every resource under /api.
const UpstreamPathPrefix = "/api"

// CORS header values attached to every edge proxy response.
const (
	AllowOrigin  = "*"
	AllowMethods = "GET, POST, PUT, DELETE, PATCH, OPTIONS"
	AllowHeaders = "Content-Type, Authorization"
)

// DefaultErrorMessage is used when a failure carries no message of its own.
const DefaultErrorMessage = "an error occurred while calling the API"

// QueryParam is a single key/value pair of the inbound query string.
// Order is significant, so the query is kept as a slice.
type QueryParam struct {
	Key   string
	Value string
}

// Request represents an inbound edge proxy request (value type).
// This is extracted from HTTP and passed to pure functions.
type Request struct {
	// HTTP request details
	Method        string
	Segments      []string
	Query         []QueryParam
	Authorization string
	Body          []byte

	// Metadata
	RemoteIP string
	TraceID  string
}

// BodyKind classifies an upstream response body.
type BodyKind int

const (
	// BodyEmpty means the upstream sent no body.
	BodyEmpty BodyKind = iota
	// BodyJSON means the body was declared and parsed as JSON.
	BodyJSON
	// BodyText means the body is relayed as opaque text.
	BodyText
)

// String returns the kind name used in logs.
func (k BodyKind) String() string {
	switch k {
	case BodyJSON:
		return "json"
	case BodyText:
		return "text"
	default:
		return "empty"
	}
}

// Response represents an upstream response (value type).
type Response struct {
	// HTTP response
	Status      int
	ContentType string
	Kind        BodyKind
	Body        []byte

	// Metadata (for logging)
	LatencyMs    int64
	UpstreamAddr string
}

// ErrorBody is the JSON body written when the proxy cannot relay an upstream
// response.
type ErrorBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// NewErrorBody shapes err into an ErrorBody with a non-empty message.
func NewErrorBody(err error) ErrorBody {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	if msg == "" {
		msg = DefaultErrorMessage
	}
	return ErrorBody{Success: false, Message: msg}
}

// CORSHeaders returns the permissive cross-origin headers.
func CORSHeaders() map[string]string {
	return map[string]string{
		"Access-Control-Allow-Origin":  AllowOrigin,
		"Access-Control-Allow-Methods": AllowMethods,
		"Access-Control-Allow-Headers": AllowHeaders,
	}
}

// IsPreflight reports whether the request is a CORS preflight.
func (r Request) IsPreflight() bool {
	return r.Method == http.MethodOptions
}

// ForwardsBody reports whether a body may be attached for method.
func ForwardsBody(method string) bool {
	return method != http.MethodGet && method != http.MethodHead
}
