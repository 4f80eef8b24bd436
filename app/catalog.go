package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/artpar/bandgate/domain/catalog"
	"github.com/artpar/bandgate/domain/subscription"
	"github.com/artpar/bandgate/ports"
	"github.com/rs/zerolog"
)

// Backend paths used by the catalog client.
const (
	PathConcerts = "/api/concerts"
	PathAlbums   = "/api/albums"
)

// CatalogService publishes concerts and albums. Unlike subscriptions it has
// no local fallback: backend failures reach the caller.
type CatalogService struct {
	api    ports.BackendAPI
	logger zerolog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(api ports.BackendAPI, logger zerolog.Logger) *CatalogService {
	return &CatalogService{api: api, logger: logger}
}

// CreateConcert publishes a concert.
func (s *CatalogService) CreateConcert(ctx context.Context, in catalog.ConcertInput) (catalog.Concert, error) {
	if err := in.Validate(); err != nil {
		return catalog.Concert{}, fmt.Errorf("create concert: %w", err)
	}

	var concert catalog.Concert
	if err := s.post(ctx, "create concert", PathConcerts, in, &concert); err != nil {
		return catalog.Concert{}, err
	}

	s.logger.Info().
		Int64("concert_id", concert.ConcertID).
		Str("title", concert.Title).
		Msg("concert created")
	return concert, nil
}

// CreateAlbum publishes an album.
func (s *CatalogService) CreateAlbum(ctx context.Context, in catalog.AlbumInput) (catalog.Album, error) {
	if err := in.Validate(); err != nil {
		return catalog.Album{}, fmt.Errorf("create album: %w", err)
	}

	var album catalog.Album
	if err := s.post(ctx, "create album", PathAlbums, in, &album); err != nil {
		return catalog.Album{}, err
	}

	s.logger.Info().
		Int64("album_id", album.AlbumID).
		Str("name", album.Name).
		Msg("album created")
	return album, nil
}

func (s *CatalogService) post(ctx context.Context, op, path string, body, out any) error {
	var env subscription.Envelope
	if err := s.api.Request(ctx, http.MethodPost, path, body, &env); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !env.Success {
		return subscription.Reject(op, env)
	}
	if !env.HasData() {
		return nil
	}
	if err := env.DecodeData(out); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
