package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/embedleak/internal/model"
	"github.com/nao1215/embedleak/internal/report"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "embedleak"

	// DefaultTimeout bounds a single page fetch.
	DefaultTimeout = 30 * time.Second

	// DefaultConcurrency is the number of pages fetched or scanned at once.
	DefaultConcurrency = 8

	// DefaultSnippetRadius is the context kept on each side of a match, in runes.
	DefaultSnippetRadius = 150

	// DefaultUserAgent identifies embedleak in HTTP requests.
	DefaultUserAgent = "embedleak/1.0 (+markup leak audit)"

	// DefaultMaxBodySize limits how much of a response body is read.
	DefaultMaxBodySize = model.MaxPageSize

	// DefaultMaxRedirects is the number of redirects followed per fetch.
	DefaultMaxRedirects = 5
)

// Config holds the options of one command invocation. It is populated from
// CLI flags and passed down explicitly.
type Config struct {
	// Verbose switches logging to debug level.
	Verbose bool

	// ConfigFilePath is an explicit YAML file path. When empty, the loader
	// searches the usual locations.
	ConfigFilePath string

	// File is the loaded YAML file, or the built-in defaults.
	File *File

	// SeedText is a seed example given inline.
	SeedText string

	// SeedFile is a file holding the seed example.
	SeedFile string

	// SeedDescription is the optional human note for the seed.
	SeedDescription string

	// PatternsFile is a saved pattern set used instead of a seed.
	PatternsFile string

	// CorpusFile is a JSONL corpus of pages.
	CorpusFile string

	// URLListFile is a file with one URL per line.
	URLListFile string

	// URLs are fetched in addition to URLListFile.
	URLs []string

	// Format is the report format.
	Format report.Format

	// ReportFile receives the report instead of stdout.
	ReportFile string

	// Concurrency bounds parallel fetches and scans.
	Concurrency int

	// SnippetRadius is the context kept around the representative match.
	SnippetRadius int

	// Timeout bounds a single fetch.
	Timeout time.Duration

	// UserAgent is sent with every fetch.
	UserAgent string

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" form.
	ProxyAddress string

	// MaxBodySize is the most bytes read per response.
	MaxBodySize int64

	// MaxRedirects is the number of redirects followed.
	MaxRedirects int

	// DBDir holds the history database.
	DBDir string

	// SaveToDB stores the run in the history database.
	SaveToDB bool

	// MetricsFile receives Prometheus metrics in text format when set.
	MetricsFile string
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		File:          DefaultFile(),
		Format:        report.FormatText,
		Concurrency:   DefaultConcurrency,
		SnippetRadius: DefaultSnippetRadius,
		Timeout:       DefaultTimeout,
		UserAgent:     DefaultUserAgent,
		MaxBodySize:   DefaultMaxBodySize,
		MaxRedirects:  DefaultMaxRedirects,
		DBDir:         XDGDataDir(),
	}
}

// ApplyFile copies settings from f into fields that still hold their
// defaults, so flags given on the command line win over the file.
func (c *Config) ApplyFile(f *File) {
	if f == nil {
		return
	}
	c.File = f
	if f.Scan.Concurrency > 0 && c.Concurrency == DefaultConcurrency {
		c.Concurrency = f.Scan.Concurrency
	}
	if f.Scan.SnippetRadius > 0 && c.SnippetRadius == DefaultSnippetRadius {
		c.SnippetRadius = f.Scan.SnippetRadius
	}
	if f.Fetch.Timeout > 0 && c.Timeout == DefaultTimeout {
		c.Timeout = f.Fetch.Timeout
	}
	if f.Fetch.UserAgent != "" && c.UserAgent == DefaultUserAgent {
		c.UserAgent = f.Fetch.UserAgent
	}
	if f.Fetch.Proxy != "" && c.ProxyAddress == "" {
		c.ProxyAddress = f.Fetch.Proxy
	}
	if f.Fetch.MaxBodySize > 0 && c.MaxBodySize == DefaultMaxBodySize {
		c.MaxBodySize = f.Fetch.MaxBodySize
	}
}

// HasSeed reports whether a seed example was given.
func (c *Config) HasSeed() bool {
	return c.SeedText != "" || c.SeedFile != ""
}

// HasCorpus reports whether any page source was given.
func (c *Config) HasCorpus() bool {
	return c.CorpusFile != "" || c.URLListFile != "" || len(c.URLs) > 0
}

// XDGDataDir returns the XDG data directory for embedleak.
// On Linux: ~/.local/share/embedleak
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for embedleak.
// On Linux: ~/.config/embedleak
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the options shared by every command and returns the first
// problem found.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.SnippetRadius < 0 {
		return ErrInvalidSnippetRadius
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if !c.Format.Valid() {
		return ErrInvalidFormat
	}
	return nil
}

// ValidateScan additionally requires one pattern source and a corpus.
func (c *Config) ValidateScan() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.HasSeed() && c.PatternsFile != "" {
		return ErrConflictingSeeds
	}
	if !c.HasSeed() && c.PatternsFile == "" {
		return ErrNoSeed
	}
	if !c.HasCorpus() {
		return ErrNoCorpus
	}
	return nil
}
