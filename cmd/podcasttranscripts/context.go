package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"podcast-transcripts/pkg/batch"
	"podcast-transcripts/pkg/config"
	"podcast-transcripts/pkg/db"
	"podcast-transcripts/pkg/discovery"
	"podcast-transcripts/pkg/httpclient"
	"podcast-transcripts/pkg/logging"
	"podcast-transcripts/pkg/scraperservice"
)

type globalFlags struct {
	config   string
	logLevel string
	site     string
}

// commandContext loads configuration once and builds the shared pieces every
// command needs.
type commandContext struct {
	flags *globalFlags

	configOnce sync.Once
	config     *config.Config
	configErr  error

	runID  string
	logger *slog.Logger
	client *httpclient.Client
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags, runID: uuid.NewString()}
}

func (c *commandContext) ensureConfig(logOut io.Writer) (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, err := config.Load(strings.TrimSpace(c.flags.config))
		if err != nil {
			c.configErr = err
			return
		}
		if c.flags.logLevel != "" {
			cfg.Logging.Level = c.flags.logLevel
		}
		if c.flags.site != "" {
			cfg.SiteURL = c.flags.site
		}
		if err := cfg.Validate(); err != nil {
			c.configErr = err
			return
		}

		logger, err := logging.Setup(logOut, cfg.Logging.Level, cfg.Logging.NoColor)
		if err != nil {
			c.configErr = err
			return
		}
		c.logger = logger.With("run_id", c.runID)
		c.config = cfg
	})
	return c.config, c.configErr
}

// httpClient returns the single paced client shared by all requests of a run.
func (c *commandContext) httpClient() *httpclient.Client {
	if c.client != nil {
		return c.client
	}
	h := c.config.HTTP
	client := httpclient.NewClient(httpclient.ClientType(h.ClientType))
	client.SetTimeout(h.Timeout())
	client.SetRateLimiter(httpclient.NewRateLimiter(h.MinDelay(), h.Jitter()))
	client.SetRetryPolicy(httpclient.RetryPolicy{
		MaxAttempts:     h.MaxAttempts,
		Forbidden:       httpclient.LinearWait(seconds(h.ForbiddenWaitSeconds)),
		TooManyRequests: httpclient.LinearWait(seconds(h.TooManyRequestsWaitSeconds)),
		Transport:       httpclient.LinearWait(seconds(h.TransportWaitSeconds)),
	})
	client.SetLogger(c.logger.With("component", "http"))
	c.client = client
	return client
}

// probeClient makes one attempt per endpoint. Missing endpoints are the
// expected outcome of a probe, so they are not retried. Pacing is shared with
// httpClient.
func (c *commandContext) probeClient() *httpclient.Client {
	shared := c.httpClient()
	client := httpclient.NewClient(httpclient.ClientType(c.config.HTTP.ClientType))
	client.SetTimeout(c.config.HTTP.Timeout())
	client.SetRateLimiter(shared.RateLimiter())
	client.SetRetryPolicy(httpclient.RetryPolicy{MaxAttempts: 1})
	client.SetLogger(c.logger.With("component", "http"))
	return client
}

func (c *commandContext) wordPress() *discovery.WordPressDiscoverer {
	d := discovery.NewWordPressDiscoverer(c.httpClient(), c.config.SiteURL)
	d.PerPage = c.config.Discovery.PerPage
	d.MaxPages = c.config.Discovery.MaxPages
	d.SetLogger(c.logger.With("component", "discovery"))
	return d
}

func (c *commandContext) podcastPage() *discovery.PageDiscoverer {
	d := discovery.NewPageDiscoverer(c.httpClient(), c.config.SiteURL)
	d.Path = c.config.Discovery.PodcastPath
	d.SetLogger(c.logger.With("component", "discovery"))
	return d
}

func (c *commandContext) feed() *discovery.FeedDiscoverer {
	d := discovery.NewFeedDiscoverer(c.httpClient(), c.config.SiteURL)
	d.Path = c.config.Discovery.FeedPath
	d.SetLogger(c.logger.With("component", "discovery"))
	return d
}

func (c *commandContext) sitemap() *discovery.SitemapDiscoverer {
	d := discovery.NewSitemapDiscoverer(c.httpClient(), c.config.SiteURL)
	d.Path = c.config.Discovery.SitemapPath
	d.SetLogger(c.logger.With("component", "discovery"))
	return d
}

func (c *commandContext) service(outputDir string) *scraperservice.Service {
	if outputDir == "" {
		outputDir = c.config.Scrape.OutputDir
	}
	svc := scraperservice.New(c.httpClient(), c.wordPress(), batch.NewWriter(outputDir))
	svc.SetBatchDelay(c.config.Scrape.BatchDelay())
	svc.SetRunID(c.runID)
	svc.SetLogger(c.logger.With("component", "scraper"))
	return svc
}

// openSavers connects every enabled sink. The returned close function is
// always safe to call.
func (c *commandContext) openSavers(ctx context.Context) ([]db.TranscriptSaver, func(), error) {
	var (
		savers  []db.TranscriptSaver
		closers []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if m := c.config.Mongo; m.Enabled {
		client := db.NewMongoClient(m.URI, m.Database, m.Collection)
		if err := client.Connect(ctx); err != nil {
			closeAll()
			return nil, func() {}, fmt.Errorf("connect to mongo: %w", err)
		}
		savers = append(savers, client)
		closers = append(closers, func() { _ = client.Close(context.Background()) })
	}

	if p := c.config.Postgres; p.Enabled {
		client := db.NewPostgresClient(db.PostgresConfig{DSN: p.DSN, Table: p.Table})
		if err := client.Connect(ctx); err != nil {
			closeAll()
			return nil, func() {}, fmt.Errorf("connect to postgres: %w", err)
		}
		savers = append(savers, client)
		closers = append(closers, func() { _ = client.Close() })
	}

	if s := c.config.Supabase; s.Enabled {
		client := db.NewSupabaseClient(db.SupabaseConfig{
			ConnectionString: s.ConnectionString,
			SupabaseURL:      s.URL,
			SupabaseKey:      s.Key,
			Password:         s.Password,
			Table:            s.Table,
		})
		client.SetLogger(c.logger.With("component", "supabase"))
		if err := client.Connect(ctx); err != nil {
			closeAll()
			return nil, func() {}, fmt.Errorf("connect to supabase: %w", err)
		}
		if !client.HasDirectDB() {
			c.logger.Info("supabase in REST API mode", "table", s.Table)
		}
		savers = append(savers, client)
		closers = append(closers, func() { _ = client.Close() })
	}

	return savers, closeAll, nil
}

func (c *commandContext) serviceWithSavers(ctx context.Context, outputDir string) (*scraperservice.Service, func(), error) {
	savers, closeSavers, err := c.openSavers(ctx)
	if err != nil {
		return nil, nil, err
	}
	svc := c.service(outputDir)
	svc.SetSavers(savers...)
	return svc, closeSavers, nil
}

var errNoArgs = errors.New("at least one URL is required")
