package discovery

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"net/url"
)

// SitemapPath is the sitemap index WordPress serves since 5.5.
const SitemapPath = "/wp-sitemap.xml"

// maxSitemapDepth bounds index nesting. WordPress uses one level.
const maxSitemapDepth = 2

// sitemapDoc decodes both a <urlset> and a <sitemapindex>; XMLName tells
// them apart.
type sitemapDoc struct {
	XMLName  xml.Name
	URLs     []sitemapLoc `xml:"url"`
	Sitemaps []sitemapLoc `xml:"sitemap"`
}

type sitemapLoc struct {
	Location string `xml:"loc"`
}

// SitemapDiscoverer collects episode permalinks from the site sitemap,
// following a sitemap index into its child sitemaps.
type SitemapDiscoverer struct {
	fetcher Fetcher
	siteURL string
	Path    string
	logger  *slog.Logger
}

func NewSitemapDiscoverer(fetcher Fetcher, siteURL string) *SitemapDiscoverer {
	return &SitemapDiscoverer{
		fetcher: fetcher,
		siteURL: siteURL,
		Path:    SitemapPath,
		logger:  slog.Default(),
	}
}

func (d *SitemapDiscoverer) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	d.logger = logger
}

func (d *SitemapDiscoverer) Name() string { return "sitemap" }

// URLs returns up to limit deduplicated locations whose path looks like an
// episode permalink, in sitemap order. A child sitemap that fails to load is
// logged and skipped; only a failure of the root sitemap is returned.
func (d *SitemapDiscoverer) URLs(ctx context.Context, limit int) ([]string, error) {
	if d.fetcher == nil {
		return nil, ErrNilFetcher
	}
	if d.siteURL == "" {
		return nil, ErrNoSiteURL
	}

	w := &sitemapWalk{limit: limit, seen: make(map[string]struct{})}
	if err := d.collect(ctx, endpoint(d.siteURL, d.Path), 0, w); err != nil {
		return nil, err
	}
	d.logger.InfoContext(ctx, "found episode links in sitemap", "links", len(w.links))
	return w.links, nil
}

type sitemapWalk struct {
	links []string
	seen  map[string]struct{}
	limit int
}

func (w *sitemapWalk) full() bool {
	return w.limit > 0 && len(w.links) >= w.limit
}

func (w *sitemapWalk) add(locs []sitemapLoc) {
	for _, loc := range locs {
		if w.full() {
			return
		}
		u, err := url.Parse(loc.Location)
		if err != nil || !episodeHrefPattern.MatchString(u.Path) {
			continue
		}
		if _, ok := w.seen[loc.Location]; ok {
			continue
		}
		w.seen[loc.Location] = struct{}{}
		w.links = append(w.links, loc.Location)
	}
}

func (d *SitemapDiscoverer) collect(ctx context.Context, sitemapURL string, depth int, w *sitemapWalk) error {
	d.logger.InfoContext(ctx, "fetching sitemap", "url", sitemapURL)
	body, err := d.fetcher.Get(ctx, sitemapURL, nil)
	if err != nil {
		return fmt.Errorf("fetch sitemap %s: %w", sitemapURL, err)
	}
	doc, err := parseSitemap(body)
	if err != nil {
		return fmt.Errorf("parse sitemap %s: %w", sitemapURL, err)
	}

	switch doc.XMLName.Local {
	case "sitemapindex":
		if depth+1 > maxSitemapDepth {
			return fmt.Errorf("sitemap %s: index nested too deeply", sitemapURL)
		}
		for _, ref := range doc.Sitemaps {
			if w.full() {
				return nil
			}
			if ref.Location == "" {
				continue
			}
			if err := d.collect(ctx, ref.Location, depth+1, w); err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				d.logger.WarnContext(ctx, "skipping sitemap", "url", ref.Location, "err", err)
			}
		}
		return nil
	case "urlset":
		w.add(doc.URLs)
		return nil
	default:
		return fmt.Errorf("sitemap %s: unexpected root element <%s>", sitemapURL, doc.XMLName.Local)
	}
}

func parseSitemap(body []byte) (sitemapDoc, error) {
	var doc sitemapDoc
	if err := xml.NewDecoder(bytes.NewReader(body)).Decode(&doc); err != nil {
		return sitemapDoc{}, fmt.Errorf("failed to decode sitemap XML: %w", err)
	}
	return doc, nil
}
