package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"podcast-transcripts/pkg/domain"
	"podcast-transcripts/pkg/episode"
)

const (
	DefaultPerPage  = 100
	DefaultMaxPages = 20

	// Links walks a smaller window of the collection.
	linksPerPage  = 50
	linksMaxPages = 5
)

// StopReason says why pagination ended.
type StopReason string

const (
	StopEmptyPage StopReason = "empty-page"
	StopShortPage StopReason = "short-page"
	StopPageCap   StopReason = "page-cap"
	StopLimit     StopReason = "limit"
	StopError     StopReason = "error"
)

// Result is the outcome of a Discover call.
type Result struct {
	// Episodes is sorted by descending number.
	Episodes     []domain.Episode
	PostsSeen    int
	PagesFetched int
	Stop         StopReason
}

// WordPressDiscoverer pages through the WordPress REST posts collection.
type WordPressDiscoverer struct {
	fetcher  Fetcher
	siteURL  string
	PerPage  int
	MaxPages int
	filter   episode.PostFilter
	logger   *slog.Logger
}

// NewWordPressDiscoverer creates a discoverer for siteURL with the default
// page size, page cap and keyword filter.
func NewWordPressDiscoverer(fetcher Fetcher, siteURL string) *WordPressDiscoverer {
	return &WordPressDiscoverer{
		fetcher:  fetcher,
		siteURL:  siteURL,
		PerPage:  DefaultPerPage,
		MaxPages: DefaultMaxPages,
		filter:   episode.NewKeywordFilter(),
		logger:   slog.Default(),
	}
}

// SetFilter replaces the post classifier.
func (d *WordPressDiscoverer) SetFilter(f episode.PostFilter) {
	if f == nil {
		f = episode.NewKeywordFilter()
	}
	d.filter = f
}

func (d *WordPressDiscoverer) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	d.logger = logger
}

// Discover walks pages 1..MaxPages and returns every episode post whose URL
// carries a number. On a fetch or decode error the episodes found so far are
// returned together with the error.
func (d *WordPressDiscoverer) Discover(ctx context.Context) (Result, error) {
	if err := d.check(); err != nil {
		return Result{}, err
	}

	var res Result
	err := d.paginate(ctx, d.PerPage, d.MaxPages, &res, func(posts []domain.Post) bool {
		found := 0
		for _, post := range posts {
			if !d.filter.ShouldKeep(post) {
				continue
			}
			n, ok := episode.Number(post.Link)
			if !ok {
				continue
			}
			res.Episodes = append(res.Episodes, domain.Episode{
				Number: n,
				URL:    post.Link,
				Title:  html.UnescapeString(post.Title.Rendered),
			})
			found++
		}
		d.logger.InfoContext(ctx, "found episodes on page", "page", res.PagesFetched, "episodes", found)
		return true
	})

	SortEpisodes(res.Episodes)
	d.logger.InfoContext(ctx, "discovery finished",
		"episodes", len(res.Episodes), "posts", res.PostsSeen, "pages", res.PagesFetched, "stop", res.Stop)
	return res, err
}

// Links returns up to limit deduplicated links of posts that look like
// episodes, whether or not their URL carries a number. Posts whose content
// mentions a transcript are logged.
func (d *WordPressDiscoverer) Links(ctx context.Context, limit int) ([]string, error) {
	if err := d.check(); err != nil {
		return nil, err
	}

	var (
		res   Result
		links []string
		seen  = make(map[string]struct{})
	)
	err := d.paginate(ctx, linksPerPage, linksMaxPages, &res, func(posts []domain.Post) bool {
		for _, post := range posts {
			if post.Link == "" || !d.filter.ShouldKeep(post) {
				continue
			}
			if _, ok := seen[post.Link]; ok {
				continue
			}
			seen[post.Link] = struct{}{}
			links = append(links, post.Link)

			if strings.Contains(strings.ToLower(post.Content.Rendered), "transcript") {
				d.logger.InfoContext(ctx, "post mentions a transcript", "url", post.Link)
			}
			if limit > 0 && len(links) >= limit {
				res.Stop = StopLimit
				return false
			}
		}
		return true
	})
	return links, err
}

// URLs adapts Links to URLSource.
func (d *WordPressDiscoverer) URLs(ctx context.Context, limit int) ([]string, error) {
	return d.Links(ctx, limit)
}

func (d *WordPressDiscoverer) Name() string { return "wordpress-api" }

func (d *WordPressDiscoverer) check() error {
	if d.fetcher == nil {
		return ErrNilFetcher
	}
	if d.siteURL == "" {
		return ErrNoSiteURL
	}
	return nil
}

// paginate fetches pages until the collection runs out, maxPages is reached
// or visit returns false. res.Stop is always set on return.
func (d *WordPressDiscoverer) paginate(ctx context.Context, perPage, maxPages int, res *Result, visit func([]domain.Post) bool) error {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	apiURL := endpoint(d.siteURL, PostsPath)
	for page := 1; page <= maxPages; page++ {
		d.logger.InfoContext(ctx, "fetching page", "page", page)
		body, err := d.fetcher.Get(ctx, apiURL, map[string]string{
			"per_page": strconv.Itoa(perPage),
			"page":     strconv.Itoa(page),
		})
		if err != nil {
			res.Stop = StopError
			return fmt.Errorf("fetch posts page %d: %w", page, err)
		}
		res.PagesFetched++

		var posts []domain.Post
		if err := json.Unmarshal(body, &posts); err != nil {
			res.Stop = StopError
			return fmt.Errorf("decode posts page %d: %w", page, err)
		}
		if len(posts) == 0 {
			d.logger.InfoContext(ctx, "no more posts", "page", page)
			res.Stop = StopEmptyPage
			return nil
		}

		res.PostsSeen += len(posts)
		d.logger.InfoContext(ctx, "found posts on page", "page", page, "posts", len(posts))
		if !visit(posts) {
			return nil
		}

		if len(posts) < perPage {
			d.logger.InfoContext(ctx, "last page reached", "page", page, "posts", len(posts))
			res.Stop = StopShortPage
			return nil
		}
	}

	res.Stop = StopPageCap
	return nil
}

// SortEpisodes orders episodes by descending number, keeping discovery order
// among equal numbers.
func SortEpisodes(episodes []domain.Episode) {
	sort.SliceStable(episodes, func(i, j int) bool {
		return episodes[i].Number > episodes[j].Number
	})
}
