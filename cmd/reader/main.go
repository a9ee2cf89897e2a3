// Command reader serves and runs the URL-to-Markdown pipeline.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/use-agent/reader/config"
)

var rootCmd = &cobra.Command{
	Use:   "reader",
	Short: "reader turns web pages into clean Markdown documents",
	Long: `reader loads a URL through a chain of engines (plain HTTP first, then a
headless browser), picks the first snapshot with readable content and
renders it as a Markdown document.

Usage:
  reader serve
  reader read <url> [flags]`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads configuration and installs the default logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	initLogger(cfg.Log)
	return cfg, nil
}

// initLogger configures slog based on the LogConfig. Logs go to stderr so
// that `reader read` can write the document to stdout.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
}
