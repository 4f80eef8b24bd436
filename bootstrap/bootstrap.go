// Package bootstrap wires all dependencies and starts the application.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	apihttp "github.com/artpar/bandgate/adapters/http"
	"github.com/artpar/bandgate/adapters/idgen"
	"github.com/artpar/bandgate/adapters/metrics"
	"github.com/artpar/bandgate/app"
	"github.com/artpar/bandgate/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// App represents the running edge proxy.
type App struct {
	Logger     zerolog.Logger
	Config     *config.Config
	HTTPServer *http.Server
	Metrics    *metrics.Collector

	proxyService *app.ProxyService
	upstream     *apihttp.UpstreamClient
	holder       *config.Holder
}

// Options provides optional settings for application initialization.
type Options struct {
	// Version is reported by /version.
	Version string

	// Logger overrides the logger built from cfg.Logging.
	Logger *zerolog.Logger
}

// New creates and initializes the edge proxy from cfg.
func New(cfg *config.Config, opts Options) (*App, error) {
	var logger zerolog.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	} else {
		logger = NewLogger(cfg.Logging)
	}

	logger.Info().
		Str("upstream", cfg.Upstream.URL).
		Msg("initializing bandgate")

	a := &App{
		Logger: logger,
		Config: cfg,
	}

	var registry *prometheus.Registry
	if cfg.Metrics.Enabled {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		a.Metrics = metrics.NewWithRegistry(registry)
		logger.Info().Str("path", cfg.Metrics.Path).Msg("prometheus metrics enabled")
	}

	upstream, err := apihttp.NewUpstreamClient(apihttp.UpstreamConfig{
		BaseURL:         cfg.Upstream.URL,
		Timeout:         cfg.Upstream.Timeout,
		MaxIdleConns:    cfg.Upstream.MaxIdleConns,
		IdleConnTimeout: cfg.Upstream.IdleConnTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("init upstream: %w", err)
	}
	a.upstream = upstream

	a.proxyService = app.NewProxyService(app.ProxyDeps{
		Upstream: upstream,
		Logger:   logger,
	}, app.ProxyConfig{
		MaxBodyBytes: cfg.Upstream.MaxBodyBytes,
	})

	var proxyHandler *apihttp.ProxyHandler
	if a.Metrics != nil {
		proxyHandler = apihttp.NewProxyHandlerWithMetrics(a.proxyService, logger, a.Metrics)
	} else {
		proxyHandler = apihttp.NewProxyHandler(a.proxyService, logger)
	}

	routerCfg := apihttp.RouterConfig{
		Metrics:        a.Metrics,
		MetricsPath:    cfg.Metrics.Path,
		EnableOpenAPI:  cfg.OpenAPI.Enabled,
		Version:        opts.Version,
		IDGen:          idgen.UUID{},
		RequestTimeout: cfg.Server.RequestTimeout,
	}
	if registry != nil {
		routerCfg.MetricsHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	}
	router := apihttp.NewRouterWithConfig(proxyHandler, apihttp.NewHealthHandler(upstream), logger, routerCfg)

	a.HTTPServer = &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return a, nil
}

// WatchConfig applies hot-reloadable settings from h as they change.
// The holder is stopped on Shutdown.
func (a *App) WatchConfig(h *config.Holder) {
	a.holder = h

	h.OnChange(a.applyConfig)
	h.OnReload(func(err error) {
		if a.Metrics == nil {
			return
		}
		if err != nil {
			a.Metrics.ConfigReloadErrors.Inc()
			return
		}
		a.Metrics.ConfigReloads.Inc()
		a.Metrics.ConfigLastReload.SetToCurrentTime()
	})
}

func (a *App) applyConfig(cfg *config.Config) {
	if level, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
		zerolog.SetGlobalLevel(level)
	}
	a.proxyService.UpdateConfig(cfg.Upstream.MaxBodyBytes)
	a.Config = cfg
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.HTTPServer.Handler
}

// Run starts the HTTP server and blocks until shutdown.
func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().
			Str("addr", a.HTTPServer.Addr).
			Msg("starting http server")
		if err := a.HTTPServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	return a.Shutdown()
}

// Shutdown gracefully stops the application.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if a.holder != nil {
		a.holder.Stop()
	}

	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown error")
		}
	}

	if a.upstream != nil {
		a.upstream.Close()
	}

	a.Logger.Info().Msg("shutdown complete")
	return nil
}

// NewLogger builds the process logger from cfg and sets the global level.
func NewLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}
