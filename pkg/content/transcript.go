package content

import (
	"errors"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	errEmptyHTML         = errors.New("empty HTML content")
	errFailedToParseHTML = errors.New("failed to parse HTML for transcript")
)

// timestampPattern matches transcript markers such as [00:12:34].
var timestampPattern = regexp.MustCompile(`\[\d{2}:\d{2}:\d{2}\]`)

// Strategy is one step of the transcript cascade. Extract returns the text it
// found and whether the cascade should stop there.
type Strategy interface {
	Name() string
	Extract(doc *goquery.Document) (string, bool)
}

// Transcript is the outcome of running the cascade over one page.
type Transcript struct {
	Text string
	// Method is the Name of the strategy that produced Text, empty if none did.
	Method string
	// Confirmed is true when Text was accepted because of timestamp markers.
	Confirmed bool
}

// TranscriptExtractor runs an ordered list of strategies; the first one that
// reports success wins.
type TranscriptExtractor struct {
	strategies []Strategy
}

// DefaultSelectors are tried in order, each accepted only if its text carries a
// timestamp marker.
var DefaultSelectors = []string{
	`div[class*="transcript"]`,
	`div[class*="content"]`,
	"article",
	"main",
	".entry-content",
	".post-content",
}

// FallbackSelectors are tried, in order, when no timestamps were found anywhere.
var FallbackSelectors = []string{"main", "article", "div.content"}

// NewTranscriptExtractor creates the default cascade:
//  1. each of DefaultSelectors, requiring a timestamp marker
//  2. timestamp segments collected from the whole page
//  3. the first of FallbackSelectors present, unconditionally
func NewTranscriptExtractor() *TranscriptExtractor {
	strategies := make([]Strategy, 0, len(DefaultSelectors)+2)
	for _, sel := range DefaultSelectors {
		strategies = append(strategies, &SelectorStrategy{Selector: sel})
	}
	strategies = append(strategies,
		&TimestampSegmentsStrategy{},
		&FallbackStrategy{Selectors: FallbackSelectors},
	)
	return NewTranscriptExtractorWithStrategies(strategies...)
}

// NewTranscriptExtractorWithStrategies creates an extractor with a custom cascade.
func NewTranscriptExtractorWithStrategies(strategies ...Strategy) *TranscriptExtractor {
	return &TranscriptExtractor{strategies: strategies}
}

// Extract runs the cascade over htmlContent. An empty Transcript with a nil
// error means the page parsed but nothing was found.
func (e *TranscriptExtractor) Extract(htmlContent string) (Transcript, error) {
	if strings.TrimSpace(htmlContent) == "" {
		return Transcript{}, errEmptyHTML
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return Transcript{}, errors.Join(errFailedToParseHTML, err)
	}

	return e.ExtractDocument(doc), nil
}

// ExtractDocument runs the cascade over an already parsed document.
func (e *TranscriptExtractor) ExtractDocument(doc *goquery.Document) Transcript {
	for _, s := range e.strategies {
		text, ok := s.Extract(doc)
		if !ok {
			continue
		}
		_, fallback := s.(*FallbackStrategy)
		return Transcript{
			Text:      strings.TrimSpace(text),
			Method:    s.Name(),
			Confirmed: !fallback,
		}
	}
	return Transcript{}
}

// ExtractTranscript runs the default cascade and returns only the text.
func ExtractTranscript(htmlContent string) (string, error) {
	t, err := NewTranscriptExtractor().Extract(htmlContent)
	if err != nil {
		return "", err
	}
	return t.Text, nil
}

// HasTimestamp reports whether text contains a [HH:MM:SS] marker.
func HasTimestamp(text string) bool {
	return timestampPattern.MatchString(text)
}

// TimestampSegments splits text into runs that each start at a timestamp
// marker and end right before the next one, or at the end of text. Text before
// the first marker is discarded.
func TimestampSegments(text string) []string {
	locs := timestampPattern.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}

	segments := make([]string, 0, len(locs))
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		segments = append(segments, text[loc[0]:end])
	}
	return segments
}

// SelectorStrategy takes the first element matching Selector and accepts its
// visible text when it carries a timestamp marker.
type SelectorStrategy struct {
	Selector string
}

func (s *SelectorStrategy) Name() string { return "selector:" + s.Selector }

func (s *SelectorStrategy) Extract(doc *goquery.Document) (string, bool) {
	el := doc.Find(s.Selector).First()
	if el.Length() == 0 {
		return "", false
	}
	text := VisibleText(el)
	if !HasTimestamp(text) {
		return "", false
	}
	return text, true
}

// TimestampSegmentsStrategy gathers every timestamped segment of the page text.
type TimestampSegmentsStrategy struct{}

func (s *TimestampSegmentsStrategy) Name() string { return "timestamp-segments" }

func (s *TimestampSegmentsStrategy) Extract(doc *goquery.Document) (string, bool) {
	segments := TimestampSegments(VisibleText(doc.Selection))
	if len(segments) == 0 {
		return "", false
	}
	return strings.Join(segments, "\n\n"), true
}

// FallbackStrategy returns the visible text of the first selector present in
// the document, with no timestamp requirement. The text may well not be a
// transcript.
type FallbackStrategy struct {
	Selectors []string
}

func (s *FallbackStrategy) Name() string { return "fallback" }

func (s *FallbackStrategy) Extract(doc *goquery.Document) (string, bool) {
	for _, sel := range s.Selectors {
		el := doc.Find(sel).First()
		if el.Length() > 0 {
			return VisibleText(el), true
		}
	}
	return "", false
}
