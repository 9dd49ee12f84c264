package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/cardfix/internal/config"
	"github.com/jackzampolin/cardfix/internal/home"
	"github.com/jackzampolin/cardfix/internal/output"
	"github.com/jackzampolin/cardfix/internal/scanstat"
	"github.com/jackzampolin/cardfix/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
	logLevel     string
)

// Populated by the root PersistentPreRunE before any command runs.
var (
	cfgMgr   *config.Manager
	logger   *slog.Logger
	fixtures *home.Dir
	printer  *output.Printer
)

var rootCmd = &cobra.Command{
	Use:   "cardfix",
	Short: "Build test fixtures for answer-card recognition",
	Long: `Cardfix builds and maintains test fixtures for scanned answer cards.

For one exam card it can:
  - fetch the card layout (scan.json) and a scan image from the grading service
  - merge the layout pages with local images into scan_second.json
  - post a recognition result back to generate_scan_datas

Fixtures live under the fixture root (default ./test_data):
  <root>/<id>.json                      recognition result
  <root>/cards/<id>/scan.json           card layout
  <root>/cards/<id>/images/             scan images
  <root>/cards/<id>/scan_second.json    second-phase input`,
	Version:           version.GitRelease,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml, ~/.cardfix/config.yaml or <home>/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "fixture root directory (default: ./test_data)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "log-level", "", "log level: debug, info, warn or error (default from config)",
	)

	rootCmd.AddCommand(versionCmd)
}

// setup loads configuration and builds the shared logger, fixture root and printer.
func setup(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return err
	}
	printer = output.NewPrinter(cmd.OutOrStdout(), format)

	mgr, err := config.NewManager(cfgFile)
	if err != nil {
		return err
	}

	root := homeDir
	if root == "" {
		root = mgr.Get().Home
	}
	if root != "" {
		if root, err = filepath.Abs(root); err != nil {
			return fmt.Errorf("failed to resolve fixture root: %w", err)
		}
	}
	fixtures, err = home.New(root)
	if err != nil {
		return err
	}

	// Fall back to a config file kept inside the fixture root
	if cfgFile == "" && mgr.ConfigFile() == "" && fixtures.ConfigExists() {
		if mgr, err = config.NewManager(fixtures.ConfigPath()); err != nil {
			return err
		}
	}
	cfgMgr = mgr

	lvlName := logLevel
	if lvlName == "" {
		lvlName = cfgMgr.Get().LogLevel
	}
	lvl, err := parseLevel(lvlName)
	if err != nil {
		return err
	}
	logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	logger.Debug("configuration loaded", "config_file", cfgMgr.ConfigFile(), "home", fixtures.Path())
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", s)
	}
}

// newClient builds a service client from the current configuration.
func newClient() *scanstat.Client {
	svc := cfgMgr.Get().Service
	return scanstat.NewClient(scanstat.Config{
		BaseURL:    svc.BaseURL,
		AuthToken:  svc.ResolvedAuthToken(),
		Timeout:    svc.Timeout(),
		MaxRetries: svc.MaxRetries,
		RetryDelay: svc.RetryDelay(),
		Logger:     logger,
	})
}
