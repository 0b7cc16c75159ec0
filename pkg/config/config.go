// Package config loads and validates scraper settings from an optional TOML
// file layered over built-in defaults. Command-line flags override the loaded
// values in the CLI.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// DefaultFileName is looked up in the working directory when no path is given.
const DefaultFileName = "podcasttranscripts.toml"

// HTTP configures pacing, timeouts and retries for every outbound request.
type HTTP struct {
	ClientType                 string  `toml:"client_type"`
	TimeoutSeconds             int     `toml:"timeout_seconds"`
	MinDelaySeconds            float64 `toml:"min_delay_seconds"`
	JitterSeconds              float64 `toml:"jitter_seconds"`
	MaxAttempts                int     `toml:"max_attempts"`
	ForbiddenWaitSeconds       int     `toml:"forbidden_wait_seconds"`
	TooManyRequestsWaitSeconds int     `toml:"too_many_requests_wait_seconds"`
	TransportWaitSeconds       int     `toml:"transport_wait_seconds"`
}

// Discovery configures where episode URLs come from.
type Discovery struct {
	PerPage      int      `toml:"per_page"`
	MaxPages     int      `toml:"max_pages"`
	PodcastPath  string   `toml:"podcast_path"`
	FeedPath     string   `toml:"feed_path"`
	SitemapPath  string   `toml:"sitemap_path"`
	FallbackURLs []string `toml:"fallback_urls"`
}

// Scrape configures batch mode and the quick sample.
type Scrape struct {
	OutputDir         string `toml:"output_dir"`
	BatchSize         int    `toml:"batch_size"`
	StartBatch        int    `toml:"start_batch"`
	MaxBatches        int    `toml:"max_batches"`
	BatchDelaySeconds int    `toml:"batch_delay_seconds"`
	SampleLimit       int    `toml:"sample_limit"`
}

// Logging configures the console logger.
type Logging struct {
	Level   string `toml:"level"`
	NoColor bool   `toml:"no_color"`
}

// Mongo configures the optional MongoDB sink.
type Mongo struct {
	Enabled    bool   `toml:"enabled"`
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// Postgres configures the optional Postgres sink.
type Postgres struct {
	Enabled bool   `toml:"enabled"`
	DSN     string `toml:"dsn"`
	Table   string `toml:"table"`
}

// Supabase configures the optional Supabase sink.
type Supabase struct {
	Enabled          bool   `toml:"enabled"`
	URL              string `toml:"url"`
	Key              string `toml:"key"`
	Password         string `toml:"password"`
	ConnectionString string `toml:"connection_string"`
	Table            string `toml:"table"`
}

// Config is the full scraper configuration.
type Config struct {
	SiteURL   string    `toml:"site_url"`
	HTTP      HTTP      `toml:"http"`
	Discovery Discovery `toml:"discovery"`
	Scrape    Scrape    `toml:"scrape"`
	Logging   Logging   `toml:"logging"`
	Mongo     Mongo     `toml:"mongo"`
	Postgres  Postgres  `toml:"postgres"`
	Supabase  Supabase  `toml:"supabase"`
}

// Load reads path over the defaults and validates the result. With an empty
// path, DefaultFileName in the working directory is used when present. A
// named file that does not exist is an error; a missing default file is not.
// The returned bool reports whether a file was read.
func Load(path string) (*Config, bool, error) {
	cfg := Default()

	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, false, err
	}

	if exists {
		file, err := os.Open(resolved)
		if err != nil {
			return nil, false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, false, fmt.Errorf("parse config %s: %w", resolved, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, false, err
	}
	return &cfg, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return path, true, nil
	}

	projectPath, err := filepath.Abs(DefaultFileName)
	if err != nil {
		return "", false, err
	}
	info, err := os.Stat(projectPath)
	switch {
	case err == nil && !info.IsDir():
		return projectPath, true, nil
	case err == nil, errors.Is(err, fs.ErrNotExist):
		return projectPath, false, nil
	default:
		return "", false, fmt.Errorf("stat config: %w", err)
	}
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// Timeout is the per-attempt request timeout.
func (h HTTP) Timeout() time.Duration { return time.Duration(h.TimeoutSeconds) * time.Second }

// MinDelay is the minimum spacing between requests.
func (h HTTP) MinDelay() time.Duration { return seconds(h.MinDelaySeconds) }

// Jitter is the upper bound of the random delay added when pacing.
func (h HTTP) Jitter() time.Duration { return seconds(h.JitterSeconds) }

// BatchDelay is the pause between two batches.
func (s Scrape) BatchDelay() time.Duration { return time.Duration(s.BatchDelaySeconds) * time.Second }
