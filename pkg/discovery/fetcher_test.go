package discovery

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"podcast-transcripts/pkg/httpclient"
)

type call struct {
	url    string
	params map[string]string
}

// fakeFetcher serves canned bodies keyed by URL, or by URL plus page param
// for paginated requests.
type fakeFetcher struct {
	bodies map[string]string
	errs   map[string]error
	calls  []call
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{bodies: map[string]string{}, errs: map[string]error{}}
}

func key(rawURL string, params map[string]string) string {
	if page, ok := params["page"]; ok {
		return rawURL + "?page=" + page
	}
	return rawURL
}

func (f *fakeFetcher) Get(_ context.Context, rawURL string, params map[string]string) ([]byte, error) {
	f.calls = append(f.calls, call{url: rawURL, params: params})
	k := key(rawURL, params)
	if err, ok := f.errs[k]; ok {
		return nil, err
	}
	body, ok := f.bodies[k]
	if !ok {
		return nil, &httpclient.StatusError{URL: rawURL, StatusCode: http.StatusNotFound}
	}
	return []byte(body), nil
}

// postsJSON renders posts as a REST collection. Each post is "slug|link".
func postsJSON(posts ...string) string {
	parts := make([]string, 0, len(posts))
	for i, p := range posts {
		slug, link, _ := strings.Cut(p, "|")
		parts = append(parts, fmt.Sprintf(
			`{"id":%d,"title":{"rendered":"Episode %s"},"slug":%q,"link":%q,"content":{"rendered":""}}`,
			i+1, slug, slug, link))
	}
	return "[" + strings.Join(parts, ",") + "]"
}
