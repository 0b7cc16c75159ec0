package domain

import (
	"bytes"
	"encoding/json"
)

// Episode is a discovered podcast episode with a number parsed from its URL.
type Episode struct {
	Number int
	URL    string
	Title  string
}

// Post is a WordPress post as returned by the wp/v2 REST collection.
//
// Missing or oddly-typed fields decode to their zero value instead of failing
// the whole page.
type Post struct {
	ID      int64    `json:"id"`
	Title   Rendered `json:"title"`
	Slug    string   `json:"slug"`
	Link    string   `json:"link"`
	Content Rendered `json:"content"`
}

// Rendered is a WordPress `{"rendered": "..."}` field.
type Rendered struct {
	Rendered string `json:"rendered"`
}

// UnmarshalJSON accepts the object form, a bare string, or null.
func (r *Rendered) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")):
		r.Rendered = ""
		return nil
	case data[0] == '"':
		return json.Unmarshal(data, &r.Rendered)
	case data[0] == '{':
		var obj struct {
			Rendered *string `json:"rendered"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			r.Rendered = ""
			return nil
		}
		if obj.Rendered != nil {
			r.Rendered = *obj.Rendered
		}
		return nil
	default:
		r.Rendered = ""
		return nil
	}
}

// UnmarshalJSON decodes a post, tolerating non-string slug and link values.
func (p *Post) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID      json.RawMessage `json:"id"`
		Title   Rendered        `json:"title"`
		Slug    json.RawMessage `json:"slug"`
		Link    json.RawMessage `json:"link"`
		Content Rendered        `json:"content"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*p = Post{
		Title:   raw.Title,
		Content: raw.Content,
		Slug:    stringOrEmpty(raw.Slug),
		Link:    stringOrEmpty(raw.Link),
	}
	_ = json.Unmarshal(raw.ID, &p.ID)
	return nil
}

func stringOrEmpty(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 {
		return ""
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
