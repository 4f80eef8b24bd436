package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/artpar/bandgate/domain/subscription"
	"github.com/artpar/bandgate/ports"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// PathGoogleClientID is the backend endpoint publishing the OAuth client id.
const PathGoogleClientID = "/api/auth/google/client-id"

// ErrNoClientID is returned when neither the backend nor the configuration
// provides a Google client id.
var ErrNoClientID = errors.New("google client id not available")

// ClientIDCache resolves the Google OAuth client id once and remembers it
// until invalidated. Concurrent first calls share one backend request.
type ClientIDCache struct {
	api      ports.BackendAPI
	fallback string
	logger   zerolog.Logger

	group singleflight.Group

	mu     sync.RWMutex
	cached string
	gen    uint64 // bumped by Invalidate
}

// NewClientIDCache creates a cache. fallback is used when the backend cannot
// be reached; it may be empty.
func NewClientIDCache(api ports.BackendAPI, fallback string, logger zerolog.Logger) *ClientIDCache {
	return &ClientIDCache{api: api, fallback: fallback, logger: logger}
}

// Get returns the client id.
func (c *ClientIDCache) Get(ctx context.Context) (string, error) {
	c.mu.RLock()
	cached := c.cached
	c.mu.RUnlock()
	if cached != "" {
		return cached, nil
	}

	v, err, _ := c.group.Do("client-id", func() (any, error) {
		c.mu.RLock()
		gen := c.gen
		c.mu.RUnlock()

		id, err := c.fetch(ctx)
		if err != nil {
			if c.fallback == "" {
				return "", err
			}
			c.logger.Warn().Err(err).Msg("client id fetch failed, using configured value")
			id = c.fallback
		}

		c.mu.Lock()
		// An Invalidate during the fetch wins; the result is returned but not kept.
		if c.gen == gen {
			c.cached = id
		}
		c.mu.Unlock()
		return id, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Invalidate forgets the cached client id.
func (c *ClientIDCache) Invalidate() {
	c.mu.Lock()
	c.cached = ""
	c.gen++
	c.mu.Unlock()
	c.group.Forget("client-id")
}

func (c *ClientIDCache) fetch(ctx context.Context) (string, error) {
	var env subscription.Envelope
	if err := c.api.Request(ctx, http.MethodGet, PathGoogleClientID, nil, &env); err != nil {
		return "", fmt.Errorf("fetch client id: %w", err)
	}
	if !env.Success {
		return "", subscription.Reject("fetch client id", env)
	}

	var data struct {
		ClientID string `json:"clientId"`
	}
	if env.HasData() {
		if err := env.DecodeData(&data); err != nil {
			return "", fmt.Errorf("fetch client id: %w", err)
		}
	}
	if data.ClientID == "" {
		return "", ErrNoClientID
	}
	return data.ClientID, nil
}
