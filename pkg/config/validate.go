package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSite(); err != nil {
		return err
	}
	if err := c.validateHTTP(); err != nil {
		return err
	}
	if err := c.validateDiscovery(); err != nil {
		return err
	}
	if err := c.validateScrape(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateSinks(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSite() error {
	c.SiteURL = strings.TrimRight(strings.TrimSpace(c.SiteURL), "/")
	if c.SiteURL == "" {
		return errors.New("site_url must be set")
	}
	u, err := url.Parse(c.SiteURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("site_url %q must be an absolute http(s) URL", c.SiteURL)
	}
	return nil
}

func (c *Config) validateHTTP() error {
	switch c.HTTP.ClientType {
	case "browser", "cloudflare":
	default:
		return fmt.Errorf("http.client_type must be browser or cloudflare, got %q", c.HTTP.ClientType)
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return errors.New("http.timeout_seconds must be positive")
	}
	if c.HTTP.MinDelaySeconds < 0 || c.HTTP.JitterSeconds < 0 {
		return errors.New("http.min_delay_seconds and http.jitter_seconds must not be negative")
	}
	if c.HTTP.MaxAttempts < 1 {
		return errors.New("http.max_attempts must be at least 1")
	}
	if c.HTTP.ForbiddenWaitSeconds < 0 || c.HTTP.TooManyRequestsWaitSeconds < 0 || c.HTTP.TransportWaitSeconds < 0 {
		return errors.New("http retry waits must not be negative")
	}
	return nil
}

func (c *Config) validateDiscovery() error {
	if c.Discovery.PerPage < 1 || c.Discovery.PerPage > 100 {
		return errors.New("discovery.per_page must be between 1 and 100")
	}
	if c.Discovery.MaxPages < 1 {
		return errors.New("discovery.max_pages must be at least 1")
	}
	paths := []struct{ key, value string }{
		{"discovery.podcast_path", c.Discovery.PodcastPath},
		{"discovery.feed_path", c.Discovery.FeedPath},
		{"discovery.sitemap_path", c.Discovery.SitemapPath},
	}
	for _, p := range paths {
		if !strings.HasPrefix(p.value, "/") {
			return fmt.Errorf("%s must start with /", p.key)
		}
	}
	return nil
}

func (c *Config) validateScrape() error {
	if strings.TrimSpace(c.Scrape.OutputDir) == "" {
		return errors.New("scrape.output_dir must be set")
	}
	if c.Scrape.BatchSize < 1 {
		return errors.New("scrape.batch_size must be at least 1")
	}
	if c.Scrape.StartBatch < 1 {
		return errors.New("scrape.start_batch must be at least 1")
	}
	if c.Scrape.MaxBatches < 0 {
		return errors.New("scrape.max_batches must not be negative")
	}
	if c.Scrape.BatchDelaySeconds < 0 {
		return errors.New("scrape.batch_delay_seconds must not be negative")
	}
	if c.Scrape.SampleLimit < 1 {
		return errors.New("scrape.sample_limit must be at least 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
}

func (c *Config) validateSinks() error {
	if c.Mongo.Enabled && (c.Mongo.URI == "" || c.Mongo.Database == "" || c.Mongo.Collection == "") {
		return errors.New("mongo.uri, mongo.database and mongo.collection are required when mongo is enabled")
	}
	if c.Postgres.Enabled && c.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required when postgres is enabled")
	}
	if c.Supabase.Enabled {
		direct := c.Supabase.ConnectionString != "" || (c.Supabase.URL != "" && c.Supabase.Password != "")
		rest := c.Supabase.URL != "" && c.Supabase.Key != ""
		if !direct && !rest {
			return errors.New("supabase needs connection_string, url+password or url+key when enabled")
		}
	}
	return nil
}
