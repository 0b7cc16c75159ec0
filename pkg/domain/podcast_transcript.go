package domain

import "time"

// TranscriptRecord is the transcript text pulled from one episode page.
//
// Only URL and Text reach the batch files; the remaining fields are carried for
// persistence sinks and logging.
type TranscriptRecord struct {
	// URL is the episode page URL the transcript was extracted from.
	URL string `bson:"url" json:"url"`

	// Number is the episode number parsed from URL, when HasNumber is true.
	Number    int  `bson:"number,omitempty" json:"number,omitempty"`
	HasNumber bool `bson:"has_number" json:"has_number"`

	// Title is the episode title, when available.
	Title string `bson:"title,omitempty" json:"title,omitempty"`

	// Text is the extracted transcript. It may be empty.
	Text string `bson:"transcript" json:"transcript"`

	// Method names the extraction strategy that produced Text.
	Method string `bson:"method,omitempty" json:"method,omitempty"`

	// RunID identifies the scraper run that produced this record.
	RunID string `bson:"run_id,omitempty" json:"run_id,omitempty"`

	// CrawledAt is when the episode page was fetched and processed.
	CrawledAt time.Time `bson:"crawled_at" json:"crawled_at"`
}
