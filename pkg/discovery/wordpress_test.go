package discovery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"podcast-transcripts/pkg/domain"
)

const site = "https://example.com"

var apiURL = site + PostsPath

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestDiscoverer(f Fetcher) *WordPressDiscoverer {
	d := NewWordPressDiscoverer(f, site)
	d.SetLogger(quietLogger())
	return d
}

func TestDiscover_ShortPageStopsAfterOneRequest(t *testing.T) {
	f := newFakeFetcher()
	f.bodies[apiURL+"?page=1"] = postsJSON(
		"205-alpha|https://example.com/205-alpha/",
		"210-beta|https://example.com/210-beta/",
	)
	f.bodies[apiURL+"?page=2"] = "[]"

	res, err := newTestDiscoverer(f).Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	if len(f.calls) != 1 {
		t.Errorf("Expected 1 request, got %d", len(f.calls))
	}
	want := map[string]string{"per_page": "100", "page": "1"}
	if diff := cmp.Diff(want, f.calls[0].params); diff != "" {
		t.Errorf("params mismatch (-want +got):\n%s", diff)
	}

	wantEpisodes := []domain.Episode{
		{Number: 210, URL: "https://example.com/210-beta/", Title: "Episode 210-beta"},
		{Number: 205, URL: "https://example.com/205-alpha/", Title: "Episode 205-alpha"},
	}
	if diff := cmp.Diff(wantEpisodes, res.Episodes); diff != "" {
		t.Errorf("episodes mismatch (-want +got):\n%s", diff)
	}
	if res.Stop != StopShortPage {
		t.Errorf("Stop = %q, want %q", res.Stop, StopShortPage)
	}
	if res.PostsSeen != 2 || res.PagesFetched != 1 {
		t.Errorf("PostsSeen/PagesFetched = %d/%d, want 2/1", res.PostsSeen, res.PagesFetched)
	}
}

func TestDiscover_EmptyPageStops(t *testing.T) {
	f := newFakeFetcher()
	f.bodies[apiURL+"?page=1"] = "[]"

	res, err := newTestDiscoverer(f).Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if res.Stop != StopEmptyPage || len(res.Episodes) != 0 || len(f.calls) != 1 {
		t.Errorf("got stop=%q episodes=%d calls=%d", res.Stop, len(res.Episodes), len(f.calls))
	}
}

func TestDiscover_NeverExceedsPageCap(t *testing.T) {
	f := newFakeFetcher()
	d := newTestDiscoverer(f)
	d.PerPage = 2
	for page := 1; page <= 30; page++ {
		f.bodies[fmt.Sprintf("%s?page=%d", apiURL, page)] = postsJSON(
			fmt.Sprintf("%d-a|https://example.com/%d-a/", page*2, page*2),
			fmt.Sprintf("%d-b|https://example.com/%d-b/", page*2+1, page*2+1),
		)
	}

	res, err := d.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(f.calls) != DefaultMaxPages {
		t.Errorf("Expected %d requests, got %d", DefaultMaxPages, len(f.calls))
	}
	if res.Stop != StopPageCap {
		t.Errorf("Stop = %q, want %q", res.Stop, StopPageCap)
	}
	if len(res.Episodes) != 2*DefaultMaxPages {
		t.Errorf("Expected %d episodes, got %d", 2*DefaultMaxPages, len(res.Episodes))
	}
	for i := 1; i < len(res.Episodes); i++ {
		if res.Episodes[i-1].Number < res.Episodes[i].Number {
			t.Fatalf("episodes not sorted descending at %d: %d < %d", i, res.Episodes[i-1].Number, res.Episodes[i].Number)
		}
	}
}

func TestDiscover_DropsPostsWithoutNumber(t *testing.T) {
	f := newFakeFetcher()
	f.bodies[apiURL+"?page=1"] = `[
		{"id":1,"title":{"rendered":"Podcast &#8211; no number"},"slug":"podcast-special","link":"https://example.com/podcast-special/"},
		{"id":2,"title":{"rendered":"Budget tips"},"slug":"budget-tips","link":"https://example.com/12-budget-tips/"},
		{"id":3,"title":{"rendered":"Episode 7: Debt"},"slug":"7-debt","link":"https://example.com/7-debt/"},
		{"id":4,"title":null,"slug":42,"link":"https://example.com/9-odd/"}
	]`

	res, err := newTestDiscoverer(f).Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	want := []domain.Episode{{Number: 7, URL: "https://example.com/7-debt/", Title: "Episode 7: Debt"}}
	if diff := cmp.Diff(want, res.Episodes); diff != "" {
		t.Errorf("episodes mismatch (-want +got):\n%s", diff)
	}
	if res.PostsSeen != 4 {
		t.Errorf("PostsSeen = %d, want 4", res.PostsSeen)
	}
}

func TestDiscover_ErrorKeepsPartialResults(t *testing.T) {
	f := newFakeFetcher()
	d := newTestDiscoverer(f)
	d.PerPage = 1
	f.bodies[apiURL+"?page=1"] = postsJSON("3-a|https://example.com/3-a/")
	boom := errors.New("boom")
	f.errs[apiURL+"?page=2"] = boom

	res, err := d.Discover(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("Discover() error = %v, want %v", err, boom)
	}
	if res.Stop != StopError || len(res.Episodes) != 1 {
		t.Errorf("got stop=%q episodes=%d", res.Stop, len(res.Episodes))
	}
}

func TestDiscover_DecodeError(t *testing.T) {
	f := newFakeFetcher()
	f.bodies[apiURL+"?page=1"] = `{"code":"rest_no_route"}`

	res, err := newTestDiscoverer(f).Discover(context.Background())
	if err == nil || !strings.Contains(err.Error(), "decode posts page 1") {
		t.Fatalf("Discover() error = %v", err)
	}
	if res.Stop != StopError {
		t.Errorf("Stop = %q, want %q", res.Stop, StopError)
	}
}

func TestDiscover_RequiresFetcherAndSite(t *testing.T) {
	if _, err := NewWordPressDiscoverer(nil, site).Discover(context.Background()); !errors.Is(err, ErrNilFetcher) {
		t.Errorf("nil fetcher: got %v", err)
	}
	if _, err := NewWordPressDiscoverer(newFakeFetcher(), "").Discover(context.Background()); !errors.Is(err, ErrNoSiteURL) {
		t.Errorf("empty site: got %v", err)
	}
}

func TestSortEpisodes_Stable(t *testing.T) {
	eps := []domain.Episode{
		{Number: 1, URL: "a"},
		{Number: 5, URL: "b"},
		{Number: 1, URL: "c"},
		{Number: 5, URL: "d"},
	}
	SortEpisodes(eps)
	var got []string
	for _, e := range eps {
		got = append(got, e.URL)
	}
	if diff := cmp.Diff([]string{"b", "d", "a", "c"}, got); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestLinks(t *testing.T) {
	f := newFakeFetcher()
	page := make([]string, 0, linksPerPage)
	page = append(page,
		"podcast-special|https://example.com/podcast-special/",
		"podcast-special|https://example.com/podcast-special/",
	)
	for i := 0; i < linksPerPage-2; i++ {
		page = append(page, fmt.Sprintf("%d-x|https://example.com/%d-x/", i, i))
	}
	f.bodies[apiURL+"?page=1"] = postsJSON(page...)

	links, err := newTestDiscoverer(f).Links(context.Background(), 3)
	if err != nil {
		t.Fatalf("Links() error = %v", err)
	}
	want := []string{
		"https://example.com/podcast-special/",
		"https://example.com/0-x/",
		"https://example.com/1-x/",
	}
	if diff := cmp.Diff(want, links); diff != "" {
		t.Errorf("links mismatch (-want +got):\n%s", diff)
	}
	if got := f.calls[0].params["per_page"]; got != "50" {
		t.Errorf("per_page = %q, want 50", got)
	}
	if len(f.calls) != 1 {
		t.Errorf("Expected 1 request, got %d", len(f.calls))
	}
}

func TestLinks_StopsAtFivePages(t *testing.T) {
	f := newFakeFetcher()
	for p := 1; p <= 10; p++ {
		posts := make([]string, 0, linksPerPage)
		for i := 0; i < linksPerPage; i++ {
			// no digit and no keyword: nothing is kept
			posts = append(posts, fmt.Sprintf("plain|https://example.com/plain-%d-%d/", p, i))
		}
		body := postsJSON(posts...)
		body = strings.ReplaceAll(body, `"Episode plain"`, `"Money talk"`)
		f.bodies[fmt.Sprintf("%s?page=%d", apiURL, p)] = body
	}

	links, err := newTestDiscoverer(f).Links(context.Background(), 3)
	if err != nil {
		t.Fatalf("Links() error = %v", err)
	}
	if len(links) != 0 {
		t.Errorf("Expected no links, got %v", links)
	}
	if len(f.calls) != linksMaxPages {
		t.Errorf("Expected %d requests, got %d", linksMaxPages, len(f.calls))
	}
}
