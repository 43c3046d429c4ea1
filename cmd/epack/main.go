package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jchantrell/epack/internal/cache"
	"github.com/jchantrell/epack/internal/config"
	"github.com/jchantrell/epack/internal/pack"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

var (
	cfg     *config.Config
	cfgFile string
	store   *cache.Cache

	rootDir    string
	logLevel   string
	logFormat  string
	checksum   bool
	noProgress bool
)

var rootCmd = &cobra.Command{
	Use:   "epack",
	Short: "Asset package storage tool",
	Long: `epack stores named binary assets in packages made of two files: a header
file (.eph) holding the asset catalog and a bundle file (.epb) holding the
zlib-compressed payloads.

Packages live under a root directory and are addressed by name, for example
"ui" or "levels/forest".`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		if cmd.Flags().Changed("root") {
			cfg.Root = rootDir
		}
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		if cmd.Flags().Changed("log-format") {
			cfg.LogFormat = logFormat
		}
		if cmd.Flags().Changed("checksum") {
			cfg.Checksum = checksum
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		var level slog.Level
		switch cfg.LogLevel {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		default:
			level = slog.LevelInfo
		}

		var handler slog.Handler
		if cfg.LogFormat == "json" {
			handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
			})
		} else {
			handler = tint.NewHandler(os.Stderr, &tint.Options{
				Level: level,
			})
		}

		logger := slog.New(handler)
		slog.SetDefault(logger)

		slog.Debug("Configuration",
			"root", cfg.Root,
			"database", cfg.Database,
			"compression_level", cfg.CompressionLevel,
			"checksum", cfg.Checksum,
			"sync", cfg.Sync,
			"workers", cfg.Workers,
			"log_level", cfg.LogLevel,
			"log_format", cfg.LogFormat)

		store = cache.New(cfg.Root, &pack.Options{
			CompressionLevel: cfg.CompressionLevel,
			Checksum:         cfg.Checksum,
			Sync:             cfg.Sync,
			Logger:           logger,
		})
		return nil
	},
}

// showProgress reports whether progress bars should be drawn; they would
// interleave with JSON or debug log lines
func showProgress() bool {
	return !(noProgress || cfg.LogFormat == "json" || cfg.LogLevel == "debug")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if store != nil {
		if cerr := store.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is epack.yaml in home or pwd)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "root", "r", "", "directory packages are stored in (default ~/.epack)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json)")
	rootCmd.PersistentFlags().BoolVar(&checksum, "checksum", false, "store CRC-32 checksums for new assets")
	rootCmd.PersistentFlags().BoolVar(&noProgress, "no-progress", false, "disable progress bar")
}
