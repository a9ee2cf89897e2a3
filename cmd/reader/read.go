package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/use-agent/reader/cleaner"
	"github.com/use-agent/reader/models"
)

// Flag variables.
var (
	flagFormat   string
	flagSelector string
	flagStealth  bool
	flagTimeout  time.Duration
	flagHeaders  map[string]string
)

var readCmd = &cobra.Command{
	Use:   "read <url>",
	Short: "Read one URL and print it as Markdown",
	Long: `Read runs a single URL through the pipeline and writes the document to
stdout.

Examples:
  reader read example.com
  reader read https://example.com/post --selector article
  reader read https://example.com --format json --stealth`,
	Args: cobra.ExactArgs(1),
	RunE: runRead,
}

func init() {
	rootCmd.AddCommand(readCmd)

	readCmd.Flags().StringVar(&flagFormat, "format", "text", `Output format: "text" or "json"`)
	readCmd.Flags().StringVar(&flagSelector, "selector", "", "CSS selector narrowing the page before extraction")
	readCmd.Flags().BoolVar(&flagStealth, "stealth", false, "Enable anti-bot evasions in the browser")
	readCmd.Flags().DurationVar(&flagTimeout, "timeout", 30*time.Second, "Deadline for the whole read")
	readCmd.Flags().StringToStringVarP(&flagHeaders, "header", "H", nil, "Extra request header, key=value (repeatable)")
}

func runRead(cmd *cobra.Command, args []string) error {
	if flagFormat != "text" && flagFormat != "json" {
		return fmt.Errorf("unknown --format %q: want text or json", flagFormat)
	}
	if flagTimeout <= 0 {
		return fmt.Errorf("--timeout must be positive, got %s", flagTimeout)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	p, err := buildPipeline(cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), flagTimeout)
	defer cancel()

	start := time.Now()
	doc, err := p.host.Crawl(ctx, &models.CrawlRequest{
		URL:            args[0],
		TargetSelector: flagSelector,
		Stealth:        flagStealth,
		Headers:        flagHeaders,
		Timeout:        int(flagTimeout.Seconds()),
	})
	if err != nil {
		return err
	}

	return writeDocument(cmd.OutOrStdout(), doc, flagFormat, time.Since(start))
}

// writeDocument prints doc as the canonical text form or as a CrawlResponse.
func writeDocument(w io.Writer, doc *models.Document, format string, elapsed time.Duration) error {
	if format == "text" {
		_, err := io.WriteString(w, doc.String())
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(models.CrawlResponse{
		Success: true,
		Data:    doc,
		Tokens:  cleaner.EstimateTokens(doc.Content),
		Timing:  models.TimingInfo{TotalMs: elapsed.Milliseconds()},
	})
}
