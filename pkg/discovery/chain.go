package discovery

import (
	"context"
	"log/slog"
)

// DefaultFallbackURLs is used when every other source comes back empty.
var DefaultFallbackURLs = []string{
	"https://www.iwillteachyoutoberich.com/194-lakiesha-james-2/",
}

// StaticSource returns a fixed list of URLs.
type StaticSource struct {
	Links []string
}

func (s StaticSource) Name() string { return "static" }

func (s StaticSource) URLs(_ context.Context, limit int) ([]string, error) {
	return dedupe(s.Links, limit), nil
}

// Chain tries each source in order and returns the first non-empty list.
// Source errors are logged and the next source is tried.
type Chain struct {
	sources []URLSource
	logger  *slog.Logger
}

func NewChain(sources ...URLSource) *Chain {
	return &Chain{sources: sources, logger: slog.Default()}
}

func (c *Chain) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	c.logger = logger
}

func (c *Chain) Name() string { return "chain" }

func (c *Chain) URLs(ctx context.Context, limit int) ([]string, error) {
	urls, _, err := c.Resolve(ctx, limit)
	return urls, err
}

// Resolve returns the URLs and the name of the source that produced them.
// ErrNoURLs is returned when every source is empty.
func (c *Chain) Resolve(ctx context.Context, limit int) ([]string, string, error) {
	for _, src := range c.sources {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}
		urls, err := src.URLs(ctx, limit)
		if err != nil {
			c.logger.WarnContext(ctx, "url source failed", "source", src.Name(), "err", err)
		}
		if len(urls) > 0 {
			c.logger.InfoContext(ctx, "using url source", "source", src.Name(), "urls", len(urls))
			return urls, src.Name(), nil
		}
		c.logger.InfoContext(ctx, "url source empty, trying next", "source", src.Name())
	}
	return nil, "", ErrNoURLs
}
