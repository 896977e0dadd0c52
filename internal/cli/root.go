// Package cli is the docscan command line: scan a photo, list and export
// stored records, and write or restore encrypted backups.
package cli

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docscan/internal/common"
	"github.com/joseph-ayodele/docscan/internal/core"
)

var version = "dev"

var (
	configPath string
	logLevel   string
)

// newApp builds the stack for one command; tests replace it.
var newApp = func(ctx context.Context, cfg *common.Config, logger *slog.Logger, opts ...core.Option) (*core.App, error) {
	return core.Build(ctx, cfg, logger, opts...)
}

var rootCmd = &cobra.Command{
	Use:           "docscan",
	Short:         "Recognize Indian identity documents from photos",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("DOCSCAN_CONFIG"), "TOML config overlay")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "debug | info | warn | error")
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(logLevel))); err != nil {
		lvl = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: lvl}))
}

// open loads configuration and builds the app for cmd.
func open(cmd *cobra.Command, opts ...core.Option) (*core.App, *slog.Logger, error) {
	logger := newLogger(cmd)
	cfg, err := common.LoadConfigFile(configPath)
	if err != nil {
		return nil, nil, err
	}
	app, err := newApp(cmd.Context(), cfg, logger, opts...)
	if err != nil {
		return nil, nil, err
	}
	return app, logger, nil
}
