package main

import (
	"context"
	"fmt"
	"os"
	"time"

	apihttp "github.com/artpar/bandgate/adapters/http"
	"github.com/artpar/bandgate/adapters/sqlite"
	"github.com/artpar/bandgate/config"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration before deployment",
	Long: `Validate the bandgate configuration file.

Checks:
  - YAML syntax is valid
  - URLs and enumerated fields are well formed
  - Backend origin is reachable (optional)
  - Local storage is writable (optional)

Examples:
  bandgate validate
  bandgate validate --config /etc/bandgate/config.yaml --check-upstream`,
	RunE: runValidate,
}

var (
	validateCheckUpstream bool
	validateCheckStorage  bool
)

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateCheckUpstream, "check-upstream", false, "check if the backend origin is reachable")
	validateCmd.Flags().BoolVar(&validateCheckStorage, "check-storage", false, "check if local storage is writable")
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Validating %s...\n\n", cfgFile)

	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		fmt.Fprintf(out, "  %s Config file exists\n", crossMark)
		return fmt.Errorf("config file not found: %s", cfgFile)
	}
	fmt.Fprintf(out, "  %s Config file exists\n", checkMark)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(out, "  %s Config syntax valid\n", crossMark)
		return fmt.Errorf("config error: %w", err)
	}
	fmt.Fprintf(out, "  %s Config syntax valid\n", checkMark)

	fmt.Fprintf(out, "  %s Upstream: %s\n", checkMark, cfg.Upstream.URL)
	fmt.Fprintf(out, "  %s Client base URL: %s\n", checkMark, cfg.Client.APIBaseURL)
	fmt.Fprintf(out, "  %s Storage: %s (%s)\n", checkMark, cfg.Storage.DSN, cfg.Storage.Driver)

	if validateCheckUpstream {
		if err := checkUpstreamReachable(cmd.Context(), cfg.Upstream.URL); err != nil {
			fmt.Fprintf(out, "  %s Upstream reachable\n", crossMark)
			fmt.Fprintf(out, "      Error: %v\n", err)
		} else {
			fmt.Fprintf(out, "  %s Upstream reachable\n", checkMark)
		}
	}

	if validateCheckStorage && cfg.Storage.Driver == "sqlite" {
		if err := checkStorageWritable(cmd.Context(), cfg.Storage.DSN); err != nil {
			fmt.Fprintf(out, "  %s Storage writable\n", crossMark)
			fmt.Fprintf(out, "      Error: %v\n", err)
		} else {
			fmt.Fprintf(out, "  %s Storage writable\n", checkMark)
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Configuration is valid.")
	return nil
}

func checkUpstreamReachable(ctx context.Context, origin string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	upstream, err := apihttp.NewUpstreamClient(apihttp.UpstreamConfig{BaseURL: origin, Timeout: 5 * time.Second})
	if err != nil {
		return err
	}
	defer upstream.Close()
	return upstream.HealthCheck(ctx)
}

func checkStorageWritable(ctx context.Context, dsn string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	db, err := sqlite.Open(dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.Migrate(ctx)
}

const (
	checkMark = "\033[32m✓\033[0m"
	crossMark = "\033[31m✗\033[0m"
)
