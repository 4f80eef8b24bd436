// Package localstore provides the typed client-side state kept in local
// storage: the mock subscription set and the access token.
package localstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/artpar/bandgate/ports"
)

// Local storage keys.
const (
	MockSubscriptionsKey = "mock_subscriptions"
	AccessTokenKey       = "accessToken"
)

// Store implements ports.MockSubscriptionStore and ports.TokenStore on top of
// any ports.LocalStorage.
type Store struct {
	storage ports.LocalStorage
}

// New creates a store backed by storage.
func New(storage ports.LocalStorage) *Store {
	return &Store{storage: storage}
}

// IDs returns the mock subscription ids, or nil if none are stored.
func (s *Store) IDs(ctx context.Context) ([]int64, error) {
	raw, ok, err := s.storage.GetItem(ctx, MockSubscriptionsKey)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", MockSubscriptionsKey, err)
	}
	if !ok || raw == "" {
		return nil, nil
	}

	var ids []int64
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("parse %s: %w", MockSubscriptionsKey, err)
	}
	return ids, nil
}

// Save replaces the mock subscription ids.
func (s *Store) Save(ctx context.Context, ids []int64) error {
	if ids == nil {
		ids = []int64{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encode %s: %w", MockSubscriptionsKey, err)
	}
	if err := s.storage.SetItem(ctx, MockSubscriptionsKey, string(data)); err != nil {
		return fmt.Errorf("write %s: %w", MockSubscriptionsKey, err)
	}
	return nil
}

// AccessToken returns the stored token, or "" if none is stored.
func (s *Store) AccessToken(ctx context.Context) (string, error) {
	token, _, err := s.storage.GetItem(ctx, AccessTokenKey)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", AccessTokenKey, err)
	}
	return token, nil
}

// SetAccessToken stores the token.
func (s *Store) SetAccessToken(ctx context.Context, token string) error {
	return s.storage.SetItem(ctx, AccessTokenKey, token)
}

// ClearAccessToken removes the token.
func (s *Store) ClearAccessToken(ctx context.Context) error {
	return s.storage.RemoveItem(ctx, AccessTokenKey)
}

// Ensure interface compliance.
var (
	_ ports.MockSubscriptionStore = (*Store)(nil)
	_ ports.TokenStore            = (*Store)(nil)
)
