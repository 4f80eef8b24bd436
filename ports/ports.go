// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"time"

	"github.com/artpar/bandgate/domain/proxy"
)

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// -----------------------------------------------------------------------------
// Edge Proxy Ports
// -----------------------------------------------------------------------------

// Upstream forwards requests to the fixed backend origin.
type Upstream interface {
	// Forward sends a request to the upstream and returns the raw response.
	// The returned error is non-nil only for transport failures.
	Forward(ctx context.Context, req proxy.Request) (proxy.Response, error)

	// HealthCheck verifies upstream is reachable.
	HealthCheck(ctx context.Context) error
}

// -----------------------------------------------------------------------------
// Backend API Ports
// -----------------------------------------------------------------------------

// BackendAPI sends JSON requests to the backend.
type BackendAPI interface {
	// Request sends body (if non-nil) as JSON and decodes the response into
	// result (if non-nil). Non-2xx answers are returned as errors carrying the
	// status code. A *[]byte result receives the raw body undecoded.
	Request(ctx context.Context, method, path string, body, result any) error
}

// StatusError is an error carrying the HTTP status the backend answered with.
type StatusError interface {
	error
	HTTPStatus() int
}

// TokenSource supplies the access token attached to backend calls.
type TokenSource interface {
	// AccessToken returns the stored token, or "" if none is stored.
	AccessToken(ctx context.Context) (string, error)
}

// -----------------------------------------------------------------------------
// Local Storage Ports
// -----------------------------------------------------------------------------

// LocalStorage is a persistent string key-value store scoped to one client.
type LocalStorage interface {
	// GetItem returns the value for key; ok is false if the key is absent.
	GetItem(ctx context.Context, key string) (value string, ok bool, err error)

	// SetItem stores value under key, replacing any previous value.
	SetItem(ctx context.Context, key, value string) error

	// RemoveItem deletes key. Removing an absent key is not an error.
	RemoveItem(ctx context.Context, key string) error
}

// MockSubscriptionStore persists the set of artist-profile ids subscribed
// while the backend was unreachable.
type MockSubscriptionStore interface {
	// IDs returns the stored ids in insertion order.
	IDs(ctx context.Context) ([]int64, error)

	// Save replaces the stored ids.
	Save(ctx context.Context, ids []int64) error
}

// TokenStore persists the access token.
type TokenStore interface {
	TokenSource

	// SetAccessToken stores the token.
	SetAccessToken(ctx context.Context, token string) error

	// ClearAccessToken removes the token.
	ClearAccessToken(ctx context.Context) error
}

// -----------------------------------------------------------------------------
// Observability Ports
// -----------------------------------------------------------------------------

// ClientMetrics records subscription client outcomes. Optional.
type ClientMetrics interface {
	// BackendCall records a backend call by operation and outcome
	// (ok, rejected, suppressed, error).
	BackendCall(operation, outcome string)

	// MockFallback records an operation served from the local mock set.
	MockFallback(operation string)

	// EnvelopeShape records which envelope shape a feed response matched.
	EnvelopeShape(shape string)
}
