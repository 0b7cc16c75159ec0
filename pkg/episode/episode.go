// Package episode decides which WordPress posts are podcast episodes and
// recovers episode numbers from their URLs.
package episode

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var (
	digitPattern  = regexp.MustCompile(`\d+`)
	numberSegment = regexp.MustCompile(`^(\d+)-`)
)

// IsEpisode reports whether a post looks like a podcast episode.
//
// A post qualifies when its lowercased title or slug mentions "episode" or
// "podcast", or when the slug contains any digit. The digit rule accepts nearly
// every numbered slug; Number narrows the result.
func IsEpisode(title, slug string) bool {
	title = strings.ToLower(title)
	slug = strings.ToLower(slug)

	switch {
	case strings.Contains(title, "episode"), strings.Contains(slug, "episode"):
		return true
	case digitPattern.MatchString(slug):
		return true
	case strings.Contains(title, "podcast"), strings.Contains(slug, "podcast"):
		return true
	default:
		return false
	}
}

// Number extracts the episode number from the first URL path segment that
// starts with "<digits>-", e.g. 217 from https://example.com/217-dominique-chris-1/.
func Number(rawURL string) (int, bool) {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}

	for _, segment := range strings.Split(p, "/") {
		m := numberSegment.FindStringSubmatch(segment)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}
