// Package discovery finds podcast episode URLs on a WordPress site: through the
// REST posts collection, the podcast landing page, the sitemap, the RSS feed,
// or a fixed list.
package discovery

import (
	"context"
	"errors"
	"net/url"
	"strings"
)

// Fetcher issues a GET and returns the response body. *httpclient.Client
// satisfies it.
type Fetcher interface {
	Get(ctx context.Context, rawURL string, params map[string]string) ([]byte, error)
}

// URLSource returns up to limit episode URLs. A limit <= 0 means no limit.
type URLSource interface {
	Name() string
	URLs(ctx context.Context, limit int) ([]string, error)
}

const (
	// PostsPath is the WordPress REST collection of posts.
	PostsPath = "/wp-json/wp/v2/posts"
	// PodcastPath is the podcast landing page listing recent episodes.
	PodcastPath = "/podcast/"
	// FeedPath is the site RSS feed.
	FeedPath = "/feed/"
)

var (
	ErrNilFetcher = errors.New("discovery: nil fetcher")
	ErrNoSiteURL  = errors.New("discovery: site URL is required")
	ErrNoURLs     = errors.New("discovery: no episode URLs found")
)

// endpoint joins the trimmed site root and a path starting with "/".
func endpoint(siteURL, path string) string {
	return strings.TrimRight(siteURL, "/") + path
}

// resolve absolutizes href against base. Fragments are dropped.
func resolve(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") ||
		strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") {
		return "", false
	}

	u, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	u.Fragment = ""
	return u.String(), true
}

// dedupe keeps the first occurrence of every string, in order, up to limit.
func dedupe(in []string, limit int) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}
