package discovery

import (
	"context"
	"encoding/json"
	"log/slog"

	"podcast-transcripts/pkg/httpclient"
)

// DefaultProbeEndpoints are paths that commonly serve episode data.
var DefaultProbeEndpoints = []string{
	"/api/episodes",
	"/api/podcast",
	PostsPath,
	"/wp-json/wp/v2/pages",
	"/api/v1/episodes",
	"/podcast/api",
}

// ProbeResult describes one probed endpoint.
type ProbeResult struct {
	Endpoint   string
	URL        string
	OK         bool
	StatusCode int
	JSON       bool
	// Items is the array length or object key count of a JSON response.
	Items int
	Err   error
}

// Probe requests every endpoint under siteURL and reports what came back.
// It does not stop at the first success.
func Probe(ctx context.Context, fetcher Fetcher, siteURL string, endpoints []string, logger *slog.Logger) ([]ProbeResult, error) {
	if fetcher == nil {
		return nil, ErrNilFetcher
	}
	if siteURL == "" {
		return nil, ErrNoSiteURL
	}
	if len(endpoints) == 0 {
		endpoints = DefaultProbeEndpoints
	}
	if logger == nil {
		logger = slog.Default()
	}

	results := make([]ProbeResult, 0, len(endpoints))
	for _, ep := range endpoints {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		r := ProbeResult{Endpoint: ep, URL: endpoint(siteURL, ep)}
		logger.InfoContext(ctx, "trying endpoint", "url", r.URL)

		body, err := fetcher.Get(ctx, r.URL, nil)
		if err != nil {
			r.Err = err
			r.StatusCode = httpclient.StatusCode(err)
			logger.InfoContext(ctx, "endpoint failed", "url", r.URL, "status", r.StatusCode, "err", err)
			results = append(results, r)
			continue
		}

		r.OK = true
		r.StatusCode = 200
		r.JSON, r.Items = jsonItems(body)
		logger.InfoContext(ctx, "endpoint responded", "url", r.URL, "json", r.JSON, "items", r.Items)
		results = append(results, r)
	}
	return results, nil
}

func jsonItems(body []byte) (bool, int) {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return false, 0
	}
	switch t := v.(type) {
	case []any:
		return true, len(t)
	case map[string]any:
		return true, len(t)
	default:
		return true, 0
	}
}
