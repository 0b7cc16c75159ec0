package scraperservice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/go-cmp/cmp"

	"podcast-transcripts/pkg/batch"
	"podcast-transcripts/pkg/discovery"
	"podcast-transcripts/pkg/domain"
	"podcast-transcripts/pkg/httpclient"
)

var fixedNow = time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// episodeSite serves /<n>-ep/ pages: odd numbers carry a timestamped
// transcript, even numbers only show notes, and /missing-*/ returns 404.
func episodeSite(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var n int
		if _, err := fmt.Sscanf(r.URL.Path, "/%d-ep/", &n); err != nil {
			http.NotFound(w, r)
			return
		}
		if n%2 == 1 {
			fmt.Fprintf(w, `<html><head><title>Episode %d</title></head><body>
				<div class="transcript"><p>[00:00:01] Host: episode %d</p><p>[00:00:09] Guest: hi</p></div>
			</body></html>`, n, n)
			return
		}
		fmt.Fprintf(w, `<html><head><title>Episode %d</title></head><body><main><p>notes %d</p></main></body></html>`, n, n)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestFetcher() *httpclient.Client {
	c := httpclient.NewClient(httpclient.BrowserClient)
	c.SetRateLimiter(nil)
	c.SetLogger(quietLogger())
	c.SetSleeper(func(context.Context, time.Duration) error { return nil })
	return c
}

type fakeDiscoverer struct {
	res discovery.Result
	err error
}

func (d fakeDiscoverer) Discover(context.Context) (discovery.Result, error) {
	return d.res, d.err
}

func episodesFor(base string, numbers ...int) []domain.Episode {
	eps := make([]domain.Episode, 0, len(numbers))
	for _, n := range numbers {
		eps = append(eps, domain.Episode{Number: n, URL: fmt.Sprintf("%s/%d-ep/", base, n)})
	}
	return eps
}

type recordingSaver struct {
	mu   sync.Mutex
	urls []string
	err  error
}

func (s *recordingSaver) SaveTranscript(_ context.Context, r *domain.TranscriptRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.urls = append(s.urls, r.URL)
	return s.err
}

type harness struct {
	svc    *Service
	dir    string
	sleeps []time.Duration
}

func newHarness(t *testing.T, d EpisodeDiscoverer) *harness {
	t.Helper()
	h := &harness{dir: t.TempDir()}
	h.svc = New(newTestFetcher(), d, batch.NewWriter(h.dir))
	h.svc.SetLogger(quietLogger())
	h.svc.SetClock(func() time.Time { return fixedNow })
	h.svc.SetRunID("run-1")
	h.svc.SetSleeper(func(_ context.Context, d time.Duration) error {
		h.sleeps = append(h.sleeps, d)
		return nil
	})
	return h
}

func (h *harness) files(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(h.dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		if e.Name() != LockFileName {
			names = append(names, e.Name())
		}
	}
	return names
}

func TestScrapeEpisode(t *testing.T) {
	srv := episodeSite(t)
	h := newHarness(t, nil)

	got, err := h.svc.ScrapeEpisode(context.Background(), srv.URL+"/7-ep/")
	if err != nil {
		t.Fatalf("ScrapeEpisode() error = %v", err)
	}
	want := &domain.TranscriptRecord{
		URL:       srv.URL + "/7-ep/",
		Number:    7,
		HasNumber: true,
		Title:     "Episode 7",
		Text:      "[00:00:01] Host: episode 7\n[00:00:09] Guest: hi",
		Method:    `selector:div[class*="transcript"]`,
		RunID:     "run-1",
		CrawledAt: fixedNow,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ScrapeEpisode() mismatch (-want +got):\n%s", diff)
	}
}

func TestScrapeEpisode_FallbackAndErrors(t *testing.T) {
	srv := episodeSite(t)
	h := newHarness(t, nil)
	ctx := context.Background()

	got, err := h.svc.ScrapeEpisode(ctx, srv.URL+"/8-ep/")
	if err != nil {
		t.Fatalf("ScrapeEpisode() error = %v", err)
	}
	if got.Text != "notes 8" || got.Method != "fallback" {
		t.Errorf("fallback record = %+v", got)
	}

	if _, err := h.svc.ScrapeEpisode(ctx, "  "); !errors.Is(err, ErrEmptyEpisodeURL) {
		t.Errorf("empty URL: got %v", err)
	}
	if _, err := h.svc.ScrapeEpisode(ctx, srv.URL+"/missing/"); httpclient.StatusCode(err) != http.StatusNotFound {
		t.Errorf("missing page: got %v", err)
	}
}

func TestScrapeBatches(t *testing.T) {
	srv := episodeSite(t)
	eps := episodesFor(srv.URL, 9, 8, 7, 6, 5)
	saver := &recordingSaver{err: errors.New("db down")}

	h := newHarness(t, fakeDiscoverer{res: discovery.Result{Episodes: eps}})
	h.svc.SetSavers(saver)

	summary, err := h.svc.ScrapeBatches(context.Background(), Options{BatchSize: 2, StartBatch: 1})
	if err != nil {
		t.Fatalf("ScrapeBatches() error = %v", err)
	}

	if summary.EpisodesFound != 5 || summary.TotalBatches != 3 {
		t.Errorf("summary = %+v", summary)
	}
	// every page has text, so every batch is written
	if diff := cmp.Diff([]string{"7-6.txt", "9-8.txt", "episodes_1.txt"}, h.files(t)); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}
	if summary.Written() != 3 {
		t.Errorf("Written() = %d, want 3", summary.Written())
	}
	if diff := cmp.Diff([]time.Duration{DefaultBatchDelay, DefaultBatchDelay}, h.sleeps); diff != "" {
		t.Errorf("batch delays mismatch (-want +got):\n%s", diff)
	}
	if len(saver.urls) != 5 {
		t.Errorf("saver got %d records, want 5", len(saver.urls))
	}

	data, err := os.ReadFile(filepath.Join(h.dir, "9-8.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "EPISODE 9\nURL: "+srv.URL+"/9-ep/\n") || !strings.Contains(string(data), "EPISODE 8\n") {
		t.Errorf("unexpected batch file:\n%s", data)
	}
}

func TestScrapeBatches_StartAndMax(t *testing.T) {
	srv := episodeSite(t)
	eps := episodesFor(srv.URL, 9, 7, 5, 3, 1)

	h := newHarness(t, fakeDiscoverer{res: discovery.Result{Episodes: eps}})
	summary, err := h.svc.ScrapeBatches(context.Background(), Options{BatchSize: 2, StartBatch: 2, MaxBatches: 1})
	if err != nil {
		t.Fatalf("ScrapeBatches() error = %v", err)
	}
	if len(summary.Batches) != 1 || summary.Batches[0].Number != 2 {
		t.Fatalf("batches = %+v", summary.Batches)
	}
	if diff := cmp.Diff([]string{"5-3.txt"}, h.files(t)); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}
	if len(h.sleeps) != 0 {
		t.Errorf("slept after the final batch: %v", h.sleeps)
	}
}

func TestScrapeBatches_StopsAtEmptySlice(t *testing.T) {
	srv := episodeSite(t)
	eps := episodesFor(srv.URL, 9, 7, 5)

	h := newHarness(t, fakeDiscoverer{res: discovery.Result{Episodes: eps}})
	// two batches are planned starting at batch 2, but batch 3 is past the end
	summary, err := h.svc.ScrapeBatches(context.Background(), Options{BatchSize: 2, StartBatch: 2})
	if err != nil {
		t.Fatalf("ScrapeBatches() error = %v", err)
	}
	if len(summary.Batches) != 1 {
		t.Fatalf("batches = %+v", summary.Batches)
	}
	if diff := cmp.Diff([]string{"episodes_1.txt"}, h.files(t)); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]time.Duration{DefaultBatchDelay}, h.sleeps); diff != "" {
		t.Errorf("batch delays mismatch (-want +got):\n%s", diff)
	}
}

func TestScrapeBatches_SkipsFailedPagesAndEmptyBatches(t *testing.T) {
	srv := episodeSite(t)
	eps := []domain.Episode{
		{Number: 3, URL: srv.URL + "/missing-3/"},
		{Number: 2, URL: srv.URL + "/missing-2/"},
		{Number: 1, URL: srv.URL + "/1-ep/"},
	}

	h := newHarness(t, fakeDiscoverer{res: discovery.Result{Episodes: eps}})
	summary, err := h.svc.ScrapeBatches(context.Background(), Options{BatchSize: 2})
	if err != nil {
		t.Fatalf("ScrapeBatches() error = %v", err)
	}
	if summary.Batches[0].Transcripts != 0 || summary.Batches[0].Path != "" {
		t.Errorf("batch 1 = %+v, want nothing written", summary.Batches[0])
	}
	if diff := cmp.Diff([]string{"episodes_1.txt"}, h.files(t)); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}
}

func TestScrapeBatches_PartialDiscovery(t *testing.T) {
	srv := episodeSite(t)
	boom := errors.New("page 3 failed")
	h := newHarness(t, fakeDiscoverer{
		res: discovery.Result{Episodes: episodesFor(srv.URL, 3, 1)},
		err: boom,
	})

	summary, err := h.svc.ScrapeBatches(context.Background(), Options{BatchSize: 20})
	if err != nil {
		t.Fatalf("ScrapeBatches() error = %v", err)
	}
	if !errors.Is(summary.DiscoveryErr, boom) {
		t.Errorf("DiscoveryErr = %v, want %v", summary.DiscoveryErr, boom)
	}
	if diff := cmp.Diff([]string{"3-1.txt"}, h.files(t)); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}
}

func TestScrapeBatches_NoEpisodes(t *testing.T) {
	boom := errors.New("api down")
	h := newHarness(t, fakeDiscoverer{err: boom})

	_, err := h.svc.ScrapeBatches(context.Background(), Options{BatchSize: 20})
	if !errors.Is(err, ErrNoEpisodes) || !errors.Is(err, boom) {
		t.Errorf("ScrapeBatches() error = %v", err)
	}
	if _, err := h.svc.ScrapeBatches(context.Background(), Options{}); !errors.Is(err, ErrInvalidBatchSize) {
		t.Errorf("zero batch size: got %v", err)
	}
}

func TestScrapeBatches_OutputLocked(t *testing.T) {
	h := newHarness(t, fakeDiscoverer{})
	other := flock.New(filepath.Join(h.dir, LockFileName))
	if ok, err := other.TryLock(); err != nil || !ok {
		t.Fatalf("TryLock() = %v, %v", ok, err)
	}
	defer other.Unlock()

	if _, err := h.svc.ScrapeBatches(context.Background(), Options{BatchSize: 1}); !errors.Is(err, ErrOutputLocked) {
		t.Errorf("ScrapeBatches() error = %v, want %v", err, ErrOutputLocked)
	}
}

func TestScrapeBatches_WithWordPressDiscovery(t *testing.T) {
	pages := episodeSite(t)
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != discovery.PostsPath {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("page") != "1" {
			fmt.Fprint(w, "[]")
			return
		}
		fmt.Fprintf(w, `[
			{"id":1,"title":{"rendered":"Episode 5"},"slug":"5-ep","link":"%[1]s/5-ep/"},
			{"id":2,"title":{"rendered":"About us"},"slug":"about","link":"%[1]s/about/"},
			{"id":3,"title":{"rendered":"Episode 11"},"slug":"11-ep","link":"%[1]s/11-ep/"}
		]`, pages.URL)
	}))
	t.Cleanup(api.Close)

	fetcher := newTestFetcher()
	d := discovery.NewWordPressDiscoverer(fetcher, api.URL)
	d.SetLogger(quietLogger())
	h := newHarness(t, d)

	summary, err := h.svc.ScrapeBatches(context.Background(), Options{BatchSize: 20})
	if err != nil {
		t.Fatalf("ScrapeBatches() error = %v", err)
	}
	if summary.EpisodesFound != 2 {
		t.Errorf("EpisodesFound = %d, want 2", summary.EpisodesFound)
	}
	if diff := cmp.Diff([]string{"11-5.txt"}, h.files(t)); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}
}

func TestScrapeURLs(t *testing.T) {
	srv := episodeSite(t)
	h := newHarness(t, nil)

	result, err := h.svc.ScrapeURLs(context.Background(), []string{
		srv.URL + "/194-ep/",
		srv.URL + "/missing/",
		srv.URL + "/193-ep/",
	})
	if err != nil {
		t.Fatalf("ScrapeURLs() error = %v", err)
	}
	if result.Transcripts != 2 || result.Path != filepath.Join(h.dir, "194-193.txt") {
		t.Errorf("result = %+v", result)
	}

	if _, err := h.svc.ScrapeURLs(context.Background(), nil); !errors.Is(err, ErrNoEpisodes) {
		t.Errorf("no urls: got %v", err)
	}
}

func TestScrapeURLs_Cancelled(t *testing.T) {
	srv := episodeSite(t)
	h := newHarness(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := h.svc.ScrapeURLs(ctx, []string{srv.URL + "/1-ep/"}); !errors.Is(err, context.Canceled) {
		t.Errorf("ScrapeURLs() error = %v, want %v", err, context.Canceled)
	}
	if len(h.files(t)) != 0 {
		t.Errorf("files written after cancellation: %v", h.files(t))
	}
}

func TestBatchSlice(t *testing.T) {
	eps := episodesFor("x", 5, 4, 3, 2, 1)
	tests := []struct {
		b    int
		want int
	}{
		{1, 2}, {2, 2}, {3, 1}, {4, 0},
	}
	for _, tt := range tests {
		if got := len(batchSlice(eps, tt.b, 2)); got != tt.want {
			t.Errorf("batchSlice(b=%d) len = %d, want %d", tt.b, got, tt.want)
		}
	}
}
