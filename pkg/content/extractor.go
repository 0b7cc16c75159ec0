package content

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

// ErrTitleNotFound is returned when no title source yields any text.
var ErrTitleNotFound = errors.New("title not found in HTML")

// ExtractTitle extracts the episode title from HTML content with fallback mechanisms
func ExtractTitle(htmlContent string) (string, error) {
	if strings.TrimSpace(htmlContent) == "" {
		return "", errEmptyHTML
	}

	// Try readability first
	article, err := readability.FromReader(strings.NewReader(htmlContent), nil)
	if err == nil {
		if title := strings.TrimSpace(article.Title); title != "" {
			return title, nil
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	return titleFromDocument(doc)
}

func titleFromDocument(doc *goquery.Document) (string, error) {
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title, nil
	}

	// <h1> is usually the episode heading on WordPress themes
	if title := strings.TrimSpace(doc.Find("h1").First().Text()); title != "" {
		return title, nil
	}

	if title, exists := doc.Find("meta[property='og:title']").Attr("content"); exists && strings.TrimSpace(title) != "" {
		return strings.TrimSpace(title), nil
	}

	if title, exists := doc.Find("meta[name='title']").Attr("content"); exists && strings.TrimSpace(title) != "" {
		return strings.TrimSpace(title), nil
	}

	return "", ErrTitleNotFound
}
