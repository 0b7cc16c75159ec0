package episode

import "podcast-transcripts/pkg/domain"

// PostFilter decides whether a post should be treated as an episode.
type PostFilter interface {
	ShouldKeep(post domain.Post) bool
}

// PostFilterFunc adapts a plain function to PostFilter.
type PostFilterFunc func(post domain.Post) bool

// ShouldKeep calls f(post).
func (f PostFilterFunc) ShouldKeep(post domain.Post) bool {
	return f(post)
}

// KeywordFilter keeps posts accepted by IsEpisode.
type KeywordFilter struct{}

// NewKeywordFilter creates the default episode filter.
func NewKeywordFilter() *KeywordFilter {
	return &KeywordFilter{}
}

// ShouldKeep returns IsEpisode for the post's rendered title and slug.
func (f *KeywordFilter) ShouldKeep(post domain.Post) bool {
	return IsEpisode(post.Title.Rendered, post.Slug)
}
