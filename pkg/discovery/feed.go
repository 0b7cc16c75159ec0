package discovery

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmcdole/gofeed"
)

// FeedItem is one entry of the site RSS feed.
type FeedItem struct {
	URL       string
	Title     string
	Published *time.Time
}

// FeedDiscoverer reads episode links from the site RSS feed. The feed is
// fetched through the shared Fetcher so it is paced and retried like every
// other request.
type FeedDiscoverer struct {
	fetcher Fetcher
	siteURL string
	Path    string
	parser  *gofeed.Parser
	logger  *slog.Logger
}

func NewFeedDiscoverer(fetcher Fetcher, siteURL string) *FeedDiscoverer {
	return &FeedDiscoverer{
		fetcher: fetcher,
		siteURL: siteURL,
		Path:    FeedPath,
		parser:  gofeed.NewParser(),
		logger:  slog.Default(),
	}
}

func (d *FeedDiscoverer) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	d.logger = logger
}

func (d *FeedDiscoverer) Name() string { return "rss-feed" }

// URLs returns up to limit item links.
func (d *FeedDiscoverer) URLs(ctx context.Context, limit int) ([]string, error) {
	items, err := d.Items(ctx)
	if err != nil {
		return nil, err
	}
	links := make([]string, 0, len(items))
	for _, item := range items {
		links = append(links, item.URL)
	}
	return dedupe(links, limit), nil
}

// Items fetches and parses the feed. Items without a link are skipped.
func (d *FeedDiscoverer) Items(ctx context.Context) ([]FeedItem, error) {
	if d.fetcher == nil {
		return nil, ErrNilFetcher
	}
	if d.siteURL == "" {
		return nil, ErrNoSiteURL
	}

	feedURL := endpoint(d.siteURL, d.Path)
	d.logger.InfoContext(ctx, "fetching feed", "url", feedURL)
	body, err := d.fetcher.Get(ctx, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	return d.parse(body)
}

func (d *FeedDiscoverer) parse(body []byte) ([]FeedItem, error) {
	feed, err := d.parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse RSS feed: %w", err)
	}
	if feed == nil || len(feed.Items) == 0 {
		return nil, fmt.Errorf("feed contains no items")
	}

	items := make([]FeedItem, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item.Link == "" {
			continue
		}
		items = append(items, FeedItem{
			URL:       item.Link,
			Title:     item.Title,
			Published: item.PublishedParsed,
		})
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("no valid URLs found in feed items")
	}
	return items, nil
}
