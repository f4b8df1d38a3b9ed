package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/embedleak/internal/config"
	elog "github.com/nao1215/embedleak/internal/log"
	"github.com/nao1215/embedleak/internal/model"
	"github.com/nao1215/embedleak/internal/report"
)

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// setupLogger returns the redacting stderr logger and makes it the default.
func setupLogger(verbose bool) *slog.Logger {
	logger := elog.NewSecureLogger(os.Stderr, verbose)
	slog.SetDefault(logger)
	return logger
}

// addConfigFlag registers -c/--config.
func addConfigFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .embedleak in current or home directory, or the XDG config dir)")
}

// addOutputFlags registers -f/--format and -o/--output.
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("format", "f", string(report.FormatText),
		"Report format: text, json or markdown")
	cmd.Flags().StringP("output", "o", "",
		"Write the report to this file instead of stdout (creates directories if needed)")
}

// addSeedFlags registers the seed input flags.
func addSeedFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("seed", "s", "", "Seed example text (one confirmed leak)")
	cmd.Flags().StringP("seed-file", "S", "", "File holding the seed example")
	cmd.Flags().StringP("description", "d", "", "Optional note describing the seed")
}

// baseConfig builds a Config from the flags every command shares and merges
// the configuration file into it.
func baseConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)

	flags := cmd.Flags()
	if flags.Lookup("config") != nil {
		path, err := flags.GetString("config")
		if err != nil {
			return nil, err
		}
		cfg.ConfigFilePath = path
	}
	file, path, err := config.Load(cfg.ConfigFilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}
	if path != "" {
		slog.Debug("configuration loaded", "path", path)
	}
	cfg.ApplyFile(file)

	if flags.Lookup("format") != nil {
		format, err := flags.GetString("format")
		if err != nil {
			return nil, err
		}
		cfg.Format = report.Format(format)
		if cfg.ReportFile, err = flags.GetString("output"); err != nil {
			return nil, err
		}
	}
	if flags.Lookup("seed") != nil {
		var err error
		if cfg.SeedText, err = flags.GetString("seed"); err != nil {
			return nil, err
		}
		if cfg.SeedFile, err = flags.GetString("seed-file"); err != nil {
			return nil, err
		}
		if cfg.SeedDescription, err = flags.GetString("description"); err != nil {
			return nil, err
		}
	}
	if flags.Lookup("db-dir") != nil {
		var err error
		if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// readSeed returns the seed from --seed or --seed-file.
func readSeed(cfg *config.Config) (model.SeedExample, error) {
	if cfg.SeedText != "" {
		return model.NewSeedExample(cfg.SeedText, cfg.SeedDescription), nil
	}
	if cfg.SeedFile == "" {
		return model.SeedExample{}, config.ErrNoSeed
	}
	data, err := os.ReadFile(cfg.SeedFile) //nolint:gosec // User-provided path is intentional
	if err != nil {
		return model.SeedExample{}, fmt.Errorf("failed to read seed file: %w", err)
	}
	return model.NewSeedExample(string(data), cfg.SeedDescription), nil
}

// loadPatterns reads a pattern set saved with "synthesize --format json".
func loadPatterns(path string) (*model.PatternSet, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to read pattern set: %w", err)
	}
	var ps model.PatternSet
	if err := json.Unmarshal(data, &ps); err != nil {
		return nil, fmt.Errorf("failed to parse pattern set %s: %w", path, err)
	}
	return &ps, nil
}

// openOutput returns the report destination. Files are created with 0600
// since reports list site URLs and page excerpts.
func openOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" {
		return stdout, func() error { return nil }, nil
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600) //nolint:gosec // User-provided path is intentional
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}

// newWriter opens the destination and selects the writer for cfg.Format.
func newWriter(cfg *config.Config, stdout io.Writer) (report.Writer, func() error, error) {
	out, closeFn, err := openOutput(cfg.ReportFile, stdout)
	if err != nil {
		return nil, nil, err
	}
	w, ok := report.New(cfg.Format, out, cfg.Verbose)
	if !ok {
		_ = closeFn()
		return nil, nil, fmt.Errorf("%w: %q", config.ErrInvalidFormat, cfg.Format)
	}
	return w, closeFn, nil
}
