// Package scraperservice drives discovery, transcript extraction and batch
// writing for a podcast site.
package scraperservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"podcast-transcripts/pkg/batch"
	"podcast-transcripts/pkg/content"
	"podcast-transcripts/pkg/db"
	"podcast-transcripts/pkg/discovery"
	"podcast-transcripts/pkg/domain"
	"podcast-transcripts/pkg/episode"
	"podcast-transcripts/pkg/httpclient"
)

// DefaultBatchDelay is the pause between two batches.
const DefaultBatchDelay = 5 * time.Second

// LockFileName is created in the output directory while a run writes to it.
const LockFileName = ".podcasttranscripts.lock"

var (
	ErrEmptyEpisodeURL  = errors.New("episode URL is empty")
	ErrEmptyEpisodeHTML = errors.New("episode HTML is empty")
	ErrNoEpisodes       = errors.New("no episodes found")
	ErrInvalidBatchSize = errors.New("batch size must be positive")
	ErrOutputLocked     = errors.New("output directory is locked by another run")
)

// Fetcher issues a GET and returns the response body.
type Fetcher interface {
	Get(ctx context.Context, rawURL string, params map[string]string) ([]byte, error)
}

// EpisodeDiscoverer lists numbered episodes, sorted by descending number.
type EpisodeDiscoverer interface {
	Discover(ctx context.Context) (discovery.Result, error)
}

// Service scrapes transcripts one request at a time through a shared Fetcher.
type Service struct {
	fetcher    Fetcher
	discoverer EpisodeDiscoverer
	extractor  *content.TranscriptExtractor
	writer     *batch.Writer
	savers     []db.TranscriptSaver
	batchDelay time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
	now        func() time.Time
	runID      string
	logger     *slog.Logger
}

// New creates a service with the default extractor and batch delay.
func New(fetcher Fetcher, discoverer EpisodeDiscoverer, writer *batch.Writer) *Service {
	if writer == nil {
		writer = batch.NewWriter("")
	}
	return &Service{
		fetcher:    fetcher,
		discoverer: discoverer,
		extractor:  content.NewTranscriptExtractor(),
		writer:     writer,
		batchDelay: DefaultBatchDelay,
		sleep:      httpclient.Sleep,
		now:        time.Now,
		logger:     slog.Default(),
	}
}

// SetSavers sets the sinks that receive a copy of every saved record.
func (s *Service) SetSavers(savers ...db.TranscriptSaver) {
	s.savers = savers
}

// SetBatchDelay sets the pause between batches. Negative values become zero.
func (s *Service) SetBatchDelay(d time.Duration) {
	if d < 0 {
		d = 0
	}
	s.batchDelay = d
}

// SetSleeper replaces the function used for the inter-batch pause.
func (s *Service) SetSleeper(sleep func(ctx context.Context, d time.Duration) error) {
	if sleep == nil {
		sleep = httpclient.Sleep
	}
	s.sleep = sleep
}

// SetClock replaces the clock used for CrawledAt.
func (s *Service) SetClock(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	s.now = now
}

// SetRunID tags every record produced by this service.
func (s *Service) SetRunID(id string) {
	s.runID = id
}

// SetExtractor replaces the transcript cascade.
func (s *Service) SetExtractor(e *content.TranscriptExtractor) {
	if e == nil {
		e = content.NewTranscriptExtractor()
	}
	s.extractor = e
}

func (s *Service) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	s.logger = logger
}

// ScrapeEpisode fetches one episode page and extracts its transcript and
// title. A page with no transcript yields a record with empty Text and a nil
// error; only fetch and parse failures are errors.
func (s *Service) ScrapeEpisode(ctx context.Context, episodeURL string) (*domain.TranscriptRecord, error) {
	episodeURL = strings.TrimSpace(episodeURL)
	if episodeURL == "" {
		return nil, ErrEmptyEpisodeURL
	}

	s.logger.InfoContext(ctx, "fetching transcript", "url", episodeURL)
	page, err := s.fetcher.Get(ctx, episodeURL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch episode page: %w", err)
	}
	if len(page) == 0 {
		return nil, ErrEmptyEpisodeHTML
	}

	html := string(page)
	transcript, err := s.extractor.Extract(html)
	if err != nil {
		return nil, fmt.Errorf("extract transcript: %w", err)
	}

	record := &domain.TranscriptRecord{
		URL:       episodeURL,
		Text:      transcript.Text,
		Method:    transcript.Method,
		RunID:     s.runID,
		CrawledAt: s.now().UTC(),
	}
	record.Number, record.HasNumber = episode.Number(episodeURL)

	if title, err := content.ExtractTitle(html); err == nil {
		record.Title = title
	} else {
		s.logger.DebugContext(ctx, "no title", "url", episodeURL, "err", err)
	}

	switch {
	case transcript.Text == "":
		s.logger.WarnContext(ctx, "no transcript content found", "url", episodeURL)
	case !transcript.Confirmed:
		s.logger.InfoContext(ctx, "using main content area, no timestamps found",
			"url", episodeURL, "chars", len(transcript.Text))
	default:
		s.logger.InfoContext(ctx, "found transcript",
			"url", episodeURL, "method", transcript.Method, "chars", len(transcript.Text))
	}
	return record, nil
}

// collect scrapes every URL in order and keeps the records with text.
// Per-URL failures are logged and skipped; cancellation aborts.
func (s *Service) collect(ctx context.Context, urls []string) ([]domain.TranscriptRecord, error) {
	records := make([]domain.TranscriptRecord, 0, len(urls))
	for i, u := range urls {
		s.logger.InfoContext(ctx, "processing episode", "index", i+1, "of", len(urls), "url", u)

		record, err := s.ScrapeEpisode(ctx, u)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return records, ctxErr
			}
			s.logger.WarnContext(ctx, "failed to extract transcript", "url", u, "err", err)
			continue
		}
		if record.Text == "" {
			continue
		}
		records = append(records, *record)
	}
	return records, nil
}

// save writes records to a batch file and hands each one to every saver.
// Saver failures are logged and do not fail the batch.
func (s *Service) save(ctx context.Context, records []domain.TranscriptRecord) (string, error) {
	path, err := s.writer.Write(records)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to save transcripts", "err", err)
	} else {
		s.logger.InfoContext(ctx, "saved transcripts", "path", path, "records", len(records))
	}

	for i := range records {
		for _, saver := range s.savers {
			if serr := saver.SaveTranscript(ctx, &records[i]); serr != nil {
				s.logger.WarnContext(ctx, "failed to save transcript copy", "url", records[i].URL, "err", serr)
			}
		}
	}
	return path, err
}

// lockOutput takes an exclusive lock on the output directory.
func (s *Service) lockOutput() (*flock.Flock, error) {
	if err := os.MkdirAll(s.writer.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	lock := flock.New(filepath.Join(s.writer.Dir, LockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrOutputLocked
	}
	return lock, nil
}

func (s *Service) unlock(lock *flock.Flock) {
	if err := lock.Unlock(); err != nil {
		s.logger.Warn("failed to release output lock", "err", err)
	}
}
