package scraperservice

import (
	"context"
	"fmt"

	"podcast-transcripts/pkg/domain"
)

// Options selects which batches ScrapeBatches processes.
type Options struct {
	BatchSize int
	// StartBatch is 1-based.
	StartBatch int
	// MaxBatches caps the number of batches; 0 means no cap.
	MaxBatches int
}

// BatchResult describes one processed batch.
type BatchResult struct {
	Number      int
	Episodes    int
	Transcripts int
	// Path is empty when nothing was written.
	Path string
	Err  error
}

// Summary describes a ScrapeBatches run.
type Summary struct {
	EpisodesFound int
	TotalBatches  int
	Batches       []BatchResult
	// DiscoveryErr is set when discovery stopped early; the run still used
	// whatever it found.
	DiscoveryErr error
}

// Written counts batches that produced a file.
func (s Summary) Written() int {
	n := 0
	for _, b := range s.Batches {
		if b.Path != "" {
			n++
		}
	}
	return n
}

// ScrapeBatches discovers every episode, splits the list into batches of
// opts.BatchSize and writes one file per batch that yielded any transcript.
//
// Batches run from StartBatch for as many batches as the episode count needs,
// capped by MaxBatches, and stop early at the first empty slice. A failed
// write is logged and the next batch still runs.
func (s *Service) ScrapeBatches(ctx context.Context, opts Options) (Summary, error) {
	if opts.BatchSize <= 0 {
		return Summary{}, ErrInvalidBatchSize
	}
	if opts.StartBatch <= 0 {
		opts.StartBatch = 1
	}

	lock, err := s.lockOutput()
	if err != nil {
		return Summary{}, err
	}
	defer s.unlock(lock)

	s.logger.InfoContext(ctx, "starting batch scraping", "batch_size", opts.BatchSize)

	var summary Summary
	res, err := s.discoverer.Discover(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return summary, ctxErr
		}
		summary.DiscoveryErr = err
		s.logger.WarnContext(ctx, "discovery stopped early", "err", err, "episodes", len(res.Episodes))
	}

	episodes := res.Episodes
	summary.EpisodesFound = len(episodes)
	if len(episodes) == 0 {
		if err != nil {
			return summary, fmt.Errorf("%w: %w", ErrNoEpisodes, err)
		}
		return summary, ErrNoEpisodes
	}

	total := (len(episodes) + opts.BatchSize - 1) / opts.BatchSize
	if opts.MaxBatches > 0 && total > opts.MaxBatches {
		total = opts.MaxBatches
	}
	summary.TotalBatches = total

	s.logger.InfoContext(ctx, "batch plan",
		"episodes", len(episodes), "batches", total, "start_batch", opts.StartBatch)

	last := opts.StartBatch + total - 1
	for b := opts.StartBatch; b <= last; b++ {
		slice := batchSlice(episodes, b, opts.BatchSize)
		if len(slice) == 0 {
			s.logger.InfoContext(ctx, "no episodes in batch", "batch", b)
			break
		}

		result, err := s.runBatch(ctx, b, total, slice)
		summary.Batches = append(summary.Batches, result)
		if err != nil {
			return summary, err
		}

		if b < last {
			s.logger.InfoContext(ctx, "waiting before next batch", "wait", s.batchDelay)
			if err := s.sleep(ctx, s.batchDelay); err != nil {
				return summary, err
			}
		}
	}

	s.logger.InfoContext(ctx, "batch scraping complete",
		"written", summary.Written(), "batches", summary.TotalBatches)
	return summary, nil
}

func (s *Service) runBatch(ctx context.Context, number, total int, episodes []domain.Episode) (BatchResult, error) {
	result := BatchResult{Number: number, Episodes: len(episodes)}
	s.logger.InfoContext(ctx, "processing batch", "batch", number, "of", total, "episodes", len(episodes))

	urls := make([]string, 0, len(episodes))
	for _, ep := range episodes {
		urls = append(urls, ep.URL)
	}

	records, err := s.collect(ctx, urls)
	result.Transcripts = len(records)
	if err != nil {
		return result, err
	}

	if len(records) == 0 {
		s.logger.InfoContext(ctx, "no transcripts to save for batch", "batch", number)
		return result, nil
	}

	path, err := s.save(ctx, records)
	if err != nil {
		result.Err = err
	} else {
		result.Path = path
	}

	s.logger.InfoContext(ctx, "batch complete",
		"batch", number, "transcripts", len(records), "episodes", len(episodes))
	return result, nil
}

// batchSlice returns the 1-based batch b of size, or nil past the end.
func batchSlice(episodes []domain.Episode, b, size int) []domain.Episode {
	start := (b - 1) * size
	if start >= len(episodes) {
		return nil
	}
	end := start + size
	if end > len(episodes) {
		end = len(episodes)
	}
	return episodes[start:end]
}

// ScrapeURLs extracts every URL and writes the transcripts found to one
// combined file.
func (s *Service) ScrapeURLs(ctx context.Context, urls []string) (BatchResult, error) {
	result := BatchResult{Number: 1, Episodes: len(urls)}
	if len(urls) == 0 {
		return result, ErrNoEpisodes
	}

	lock, err := s.lockOutput()
	if err != nil {
		return result, err
	}
	defer s.unlock(lock)

	records, err := s.collect(ctx, urls)
	result.Transcripts = len(records)
	if err != nil {
		return result, err
	}
	if len(records) == 0 {
		s.logger.InfoContext(ctx, "no transcripts to save")
		return result, nil
	}

	path, err := s.save(ctx, records)
	if err != nil {
		result.Err = err
		return result, err
	}
	result.Path = path
	s.logger.InfoContext(ctx, "scraping complete", "transcripts", len(records), "urls", len(urls))
	return result, nil
}
