package discovery

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// episodeHrefPattern matches episode permalinks such as /217-dominique-chris-1/.
var episodeHrefPattern = regexp.MustCompile(`/\d+[-a-zA-Z0-9]+/`)

var showMorePattern = regexp.MustCompile(`(?i)show more`)

// ShowMoreAnchor is a "show more" control found on the podcast page.
type ShowMoreAnchor struct {
	Text    string
	Href    string
	OnClick string
}

// PageLinks is what PageDiscoverer found on the landing page.
type PageLinks struct {
	URLs     []string
	ShowMore []ShowMoreAnchor
}

// PageDiscoverer collects episode links from the podcast landing page. Only the
// initial page load is seen; episodes behind "show more" are not followed.
type PageDiscoverer struct {
	fetcher Fetcher
	siteURL string
	Path    string
	logger  *slog.Logger
}

func NewPageDiscoverer(fetcher Fetcher, siteURL string) *PageDiscoverer {
	return &PageDiscoverer{
		fetcher: fetcher,
		siteURL: siteURL,
		Path:    PodcastPath,
		logger:  slog.Default(),
	}
}

func (d *PageDiscoverer) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	d.logger = logger
}

func (d *PageDiscoverer) Name() string { return "podcast-page" }

// URLs returns up to limit episode links from the landing page.
func (d *PageDiscoverer) URLs(ctx context.Context, limit int) ([]string, error) {
	links, err := d.Discover(ctx, limit)
	return links.URLs, err
}

// Discover fetches the landing page and extracts episode links.
func (d *PageDiscoverer) Discover(ctx context.Context, limit int) (PageLinks, error) {
	if d.fetcher == nil {
		return PageLinks{}, ErrNilFetcher
	}
	if d.siteURL == "" {
		return PageLinks{}, ErrNoSiteURL
	}

	pageURL := endpoint(d.siteURL, d.Path)
	d.logger.InfoContext(ctx, "fetching podcast page", "url", pageURL, "limit", limit)
	body, err := d.fetcher.Get(ctx, pageURL, nil)
	if err != nil {
		return PageLinks{}, fmt.Errorf("fetch podcast page: %w", err)
	}

	links, err := ExtractEpisodeLinks(body, d.siteURL, limit)
	if err != nil {
		return PageLinks{}, err
	}

	d.logger.InfoContext(ctx, "found episode links on initial page load", "links", len(links.URLs))
	for _, a := range links.ShowMore {
		d.logger.InfoContext(ctx, "found show more anchor", "text", a.Text, "href", a.Href, "onclick", a.OnClick)
	}
	return links, nil
}

// ExtractEpisodeLinks parses an HTML page and returns the deduplicated,
// absolutized hrefs that look like episode permalinks, up to limit.
func ExtractEpisodeLinks(page []byte, siteURL string, limit int) (PageLinks, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return PageLinks{}, fmt.Errorf("failed to parse HTML: %w", err)
	}

	base, err := url.Parse(siteURL)
	if err != nil {
		return PageLinks{}, fmt.Errorf("invalid site URL %q: %w", siteURL, err)
	}

	var (
		out   PageLinks
		hrefs []string
	)
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if showMorePattern.MatchString(a.Text()) {
			onclick, _ := a.Attr("onclick")
			out.ShowMore = append(out.ShowMore, ShowMoreAnchor{
				Text:    strings.TrimSpace(a.Text()),
				Href:    href,
				OnClick: onclick,
			})
		}
		if !episodeHrefPattern.MatchString(href) {
			return
		}
		if abs, ok := resolve(base, href); ok {
			hrefs = append(hrefs, abs)
		}
	})

	out.URLs = dedupe(hrefs, limit)
	return out, nil
}
