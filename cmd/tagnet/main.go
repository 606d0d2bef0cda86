// Command tagnet crawls Instagram hashtags for business profiles, mines
// contact channels from their text, and maps common-follower connections.
//
// Usage:
//
//	tagnet handmade flowers            # crawl two hashtags
//	tagnet -config crawl.yaml          # hashtags from config
//	TAGNET_SESSION_ID=... tagnet moscow_flowers
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/tagnet-dev/tagnet"
	"github.com/tagnet-dev/tagnet/auth"
	"github.com/tagnet-dev/tagnet/config"
	"github.com/tagnet-dev/tagnet/profile"
)

const timestampLayout = "2006-01-02_15-04"

func main() {
	configPath := flag.String("config", "", "path to config.yaml (default: ./config.yaml if present)")
	debug := flag.Bool("debug", false, "enable debug logging")
	outputDir := flag.String("output", "", "output directory (overrides config)")
	noAnalysis := flag.Bool("no-analysis", false, "skip Gemini profile analysis")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if flag.NArg() > 0 {
		cfg.Hashtags = flag.Args()
	}
	if *outputDir != "" {
		cfg.OutputDir = *outputDir
	}
	if *noAnalysis {
		cfg.GeminiAPIKey = ""
	}

	if len(cfg.Hashtags) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: tagnet [options] <hashtag> [hashtag...]")
		fmt.Fprintln(os.Stderr, "\nOptions:")
		flag.PrintDefaults()
		fmt.Fprintln(os.Stderr, "\nAuthentication:")
		fmt.Fprintln(os.Stderr, "  An Instagram session is required. Provide it via TAGNET_SESSION_ID,")
		fmt.Fprintf(os.Stderr, "  the %v environment variables,\n", auth.EnvVarNames())
		fmt.Fprintln(os.Stderr, "  or log in to instagram.com in a local browser.")
		os.Exit(1)
	}

	logLevel := parseLevel(cfg.LogLevel)
	if *debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	ctx := context.Background()

	logger.InfoContext(ctx, "starting crawl",
		"hashtags", cfg.Hashtags,
		"follower_bounds", fmt.Sprintf("[%d, %d]", cfg.MinFollowers, cfg.MaxFollowers),
		"analysis", cfg.GeminiAPIKey != "")

	report, err := tagnet.Run(ctx, cfg, tagnet.WithLogger(logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := writeReport(cfg.OutputDir, report); err != nil {
		fmt.Fprintf(os.Stderr, "Output error: %v\n", err)
		os.Exit(1)
	}

	logger.InfoContext(ctx, "crawl finished",
		"profiles", len(report.Profiles),
		"assessments", len(report.Assessments),
		"output_dir", cfg.OutputDir)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// connectionReport is the connections file entry for one profile.
type connectionReport struct {
	Username    string               `json:"username"`
	Connections []profile.Connection `json:"connections"`
}

func writeReport(dir string, report *tagnet.Report) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	ts := time.Now().Format(timestampLayout)

	if err := writeJSON(filepath.Join(dir, "profiles_"+ts+".json"), report.Profiles); err != nil {
		return err
	}

	connections := make([]connectionReport, 0, len(report.Profiles))
	for _, p := range report.Profiles {
		connections = append(connections, connectionReport{
			Username:    p.Username,
			Connections: p.Connections,
		})
	}
	if err := writeJSON(filepath.Join(dir, "connections_"+ts+".json"), connections); err != nil {
		return err
	}

	if len(report.Assessments) > 0 {
		if err := writeJSON(filepath.Join(dir, "analysis_"+ts+".json"), report.Assessments); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		f.Close() //nolint:errcheck,gosec // write error takes precedence
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
