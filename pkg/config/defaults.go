package config

const (
	defaultSiteURL     = "https://www.iwillteachyoutoberich.com"
	defaultPodcastPath = "/podcast/"
	defaultFeedPath    = "/feed/"
	defaultSitemapPath = "/wp-sitemap.xml"
)

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		SiteURL: defaultSiteURL,
		HTTP: HTTP{
			ClientType:                 "browser",
			TimeoutSeconds:             30,
			MinDelaySeconds:            2,
			JitterSeconds:              1,
			MaxAttempts:                3,
			ForbiddenWaitSeconds:       10,
			TooManyRequestsWaitSeconds: 30,
			TransportWaitSeconds:       5,
		},
		Discovery: Discovery{
			PerPage:     100,
			MaxPages:    20,
			PodcastPath: defaultPodcastPath,
			FeedPath:    defaultFeedPath,
			SitemapPath: defaultSitemapPath,
			FallbackURLs: []string{
				defaultSiteURL + "/194-lakiesha-james-2/",
			},
		},
		Scrape: Scrape{
			OutputDir:         "transcripts",
			BatchSize:         20,
			StartBatch:        1,
			MaxBatches:        0,
			BatchDelaySeconds: 5,
			SampleLimit:       3,
		},
		Logging: Logging{
			Level: "info",
		},
		Mongo: Mongo{
			URI:        "mongodb://localhost:27017",
			Database:   "podcasts",
			Collection: "podcast_transcript",
		},
		Postgres: Postgres{
			Table: "podcast_transcript",
		},
		Supabase: Supabase{
			Table: "podcast_transcript",
		},
	}
}
