package main

import (
	"fmt"
	"os"

	"github.com/artpar/bandgate/bootstrap"
	"github.com/artpar/bandgate/config"
	"github.com/spf13/cobra"
)

var (
	hotReload bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the edge proxy",
	Long: `Start the bandgate edge proxy.

The server will:
  - Load configuration from bandgate.yaml (or --config)
  - Or load configuration from BANDGATE_* environment variables
  - Forward /api requests to the backend origin
  - Answer OPTIONS preflights and add CORS headers to every response

Environment variables (for container deployments):
  BANDGATE_UPSTREAM_URL     - Backend origin (default: https://bandchu.o-r.kr)
  BANDGATE_SERVER_PORT      - Server port (default: 8080)
  BANDGATE_LOG_LEVEL        - Log level: debug, info, warn, error
  BANDGATE_METRICS_ENABLED  - Expose Prometheus metrics

Examples:
  bandgate serve
  bandgate serve --config /etc/bandgate/config.yaml
  bandgate serve --hot-reload=false`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&hotReload, "hot-reload", true, "enable hot reload of configuration")
}

func runServe(cmd *cobra.Command, args []string) error {
	hasConfigFile := false
	if _, err := os.Stat(cfgFile); err == nil {
		hasConfigFile = true
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !hasConfigFile {
		fmt.Fprintln(cmd.ErrOrStderr(), "Running with environment variables (no config file)")
	}

	app, err := bootstrap.New(cfg, bootstrap.Options{Version: version})
	if err != nil {
		return fmt.Errorf("error initializing: %w", err)
	}

	// Hot reload only works with a config file
	if hasConfigFile && hotReload {
		holder, err := config.NewHolder(cfgFile, app.Logger)
		if err != nil {
			return fmt.Errorf("error initializing: %w", err)
		}
		app.WatchConfig(holder)
		if err := holder.WatchFile(); err != nil {
			app.Logger.Warn().Err(err).Msg("config file watch disabled")
		}
		holder.WatchSignals()
	}

	// Run (blocks until shutdown)
	return app.Run()
}
