package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/artpar/bandgate/ports"
	"github.com/rs/zerolog"
)

// ErrEmptyToken is returned by Login for a blank token.
var ErrEmptyToken = errors.New("access token is empty")

// SessionService manages the stored access token.
type SessionService struct {
	tokens   ports.TokenStore
	clientID *ClientIDCache
	logger   zerolog.Logger
}

// NewSessionService creates a session service. clientID may be nil.
func NewSessionService(tokens ports.TokenStore, clientID *ClientIDCache, logger zerolog.Logger) *SessionService {
	return &SessionService{tokens: tokens, clientID: clientID, logger: logger}
}

// Login stores the access token.
func (s *SessionService) Login(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrEmptyToken
	}
	if err := s.tokens.SetAccessToken(ctx, token); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	s.logger.Info().Msg("access token stored")
	return nil
}

// Logout removes the access token and forgets the cached client id.
func (s *SessionService) Logout(ctx context.Context) error {
	if err := s.tokens.ClearAccessToken(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	if s.clientID != nil {
		s.clientID.Invalidate()
	}
	s.logger.Info().Msg("access token cleared")
	return nil
}

// Token returns the stored access token, or "" when logged out.
func (s *SessionService) Token(ctx context.Context) (string, error) {
	return s.tokens.AccessToken(ctx)
}

// LoggedIn reports whether an access token is stored.
func (s *SessionService) LoggedIn(ctx context.Context) (bool, error) {
	token, err := s.Token(ctx)
	return token != "", err
}
