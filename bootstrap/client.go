package bootstrap

import (
	"context"
	"fmt"

	"github.com/artpar/bandgate/adapters/clock"
	"github.com/artpar/bandgate/adapters/localstore"
	"github.com/artpar/bandgate/adapters/memory"
	"github.com/artpar/bandgate/adapters/remote"
	"github.com/artpar/bandgate/adapters/sqlite"
	"github.com/artpar/bandgate/app"
	"github.com/artpar/bandgate/config"
	"github.com/artpar/bandgate/ports"
	"github.com/rs/zerolog"
)

// Client bundles the client-side services used by the CLI.
type Client struct {
	Subscriptions *app.SubscriptionService
	Catalog       *app.CatalogService
	Session       *app.SessionService
	ClientID      *app.ClientIDCache
	Store         *localstore.Store

	db *sqlite.DB
}

// ClientOptions overrides parts of the client wiring.
type ClientOptions struct {
	// API replaces the HTTP backend client.
	API ports.BackendAPI

	// Storage replaces the storage selected by cfg.Storage.
	Storage ports.LocalStorage

	// Metrics records client-side outcomes. Optional.
	Metrics ports.ClientMetrics
}

// NewClient wires the subscription, catalog and session services from cfg.
func NewClient(ctx context.Context, cfg *config.Config, logger zerolog.Logger, opts ClientOptions) (*Client, error) {
	c := &Client{}

	storage := opts.Storage
	if storage == nil {
		var err error
		storage, err = c.openStorage(ctx, cfg.Storage, logger)
		if err != nil {
			return nil, err
		}
	}
	c.Store = localstore.New(storage)

	api := opts.API
	if api == nil {
		api = remote.NewClient(remote.ClientConfig{
			BaseURL: cfg.Client.APIBaseURL,
			Timeout: cfg.Client.Timeout,
			Headers: cfg.Client.Headers,
			Tokens:  c.Store,
		})
	}

	c.Subscriptions = app.NewSubscriptionService(app.SubscriptionDeps{
		API:     api,
		Mock:    c.Store,
		Tokens:  c.Store,
		Clock:   clock.Real{},
		Metrics: opts.Metrics,
		Logger:  logger,
	})
	c.Catalog = app.NewCatalogService(api, logger)
	c.ClientID = app.NewClientIDCache(api, cfg.Auth.GoogleClientID, logger)
	c.Session = app.NewSessionService(c.Store, c.ClientID, logger)

	return c, nil
}

func (c *Client) openStorage(ctx context.Context, cfg config.StorageConfig, logger zerolog.Logger) (ports.LocalStorage, error) {
	switch cfg.Driver {
	case "memory":
		return memory.NewLocalStorage(), nil
	case "sqlite", "":
		db, err := sqlite.Open(cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open local storage: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate local storage: %w", err)
		}
		c.db = db
		logger.Debug().
			Str("dsn", cfg.DSN).
			Str("namespace", cfg.Namespace).
			Msg("local storage opened")
		return sqlite.NewLocalStorage(db, cfg.Namespace), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// Close releases the local storage.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}
