package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/artpar/bandgate/bootstrap"
	"github.com/artpar/bandgate/config"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile    string
	verbose    bool
	jsonOutput bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bandgate",
	Short: "Edge proxy and client for the fan platform backend",
	Long: `Bandgate fronts the fan platform backend.

The edge proxy adds CORS headers, rewrites /api paths onto the backend
origin, and turns transport failures into JSON 500 responses.

The client commands talk to the backend through the proxy and keep a
local mock subscription set when the backend is unavailable.

Quick start:
  bandgate serve                      # Start the edge proxy
  bandgate login --token <token>      # Store an access token
  bandgate subscriptions concerts     # Show subscribed concerts
  bandgate subscriptions add 42       # Subscribe to an artist`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "bandgate.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log client activity to stderr")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")
}

// loadConfig loads the config file if present, otherwise BANDGATE_* variables.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	return cfg, nil
}

func cliLogger(errOut io.Writer) zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: errOut}).Level(level).With().Timestamp().Logger()
}

// withClient runs fn with the client services wired from the loaded config.
func withClient(cmd *cobra.Command, fn func(ctx context.Context, c *bootstrap.Client) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	c, err := bootstrap.NewClient(ctx, cfg, cliLogger(cmd.ErrOrStderr()), bootstrap.ClientOptions{})
	if err != nil {
		return err
	}
	defer c.Close()

	return fn(ctx, c)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
