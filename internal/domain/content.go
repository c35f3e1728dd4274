package domain

import "time"

// ContentType enumerates the normalized kinds of content a source can produce.
type ContentType string

const (
	ContentTypeArticle        ContentType = "article"
	ContentTypeForumPost      ContentType = "forum_post"
	ContentTypeSocialPost     ContentType = "social_post"
	ContentTypePodcastEpisode ContentType = "podcast_episode"
)

// ContentTypes lists every supported content type in a fixed order.
var ContentTypes = []ContentType{
	ContentTypeArticle,
	ContentTypeForumPost,
	ContentTypeSocialPost,
	ContentTypePodcastEpisode,
}

// Valid reports whether t is one of the supported content types.
func (t ContentType) Valid() bool {
	switch t {
	case ContentTypeArticle, ContentTypeForumPost, ContentTypeSocialPost, ContentTypePodcastEpisode:
		return true
	}
	return false
}

// Category returns the brief section a content type is filed under.
func (t ContentType) Category() Category {
	switch t {
	case ContentTypeForumPost:
		return CategoryTrending
	case ContentTypePodcastEpisode:
		return CategoryPodcasts
	case ContentTypeSocialPost:
		return CategorySocial
	default:
		return CategoryTopStories
	}
}

// ReadTimeSeconds is the estimated cost of consuming one item of this type.
// Podcasts are charged for a short preview, not the full episode.
func (t ContentType) ReadTimeSeconds() int {
	switch t {
	case ContentTypeArticle:
		return 180
	case ContentTypeForumPost:
		return 120
	default:
		return 60
	}
}

// Category groups brief items into sections; it is also the key of learned preferences.
type Category string

const (
	CategoryTopStories Category = "top_stories"
	CategoryTrending   Category = "trending"
	CategoryPodcasts   Category = "podcasts"
	CategorySocial     Category = "social"
)

// Categories lists every known category in a fixed order.
var Categories = []Category{
	CategoryTopStories,
	CategoryTrending,
	CategoryPodcasts,
	CategorySocial,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryTopStories, CategoryTrending, CategoryPodcasts, CategorySocial:
		return true
	}
	return false
}

// ContentItem is a normalized unit of content fetched from any source.
// Items are values: the curation engine never mutates them.
type ContentItem struct {
	ID               string      `json:"id"`
	SourceID         string      `json:"source_id"`
	ContentType      ContentType `json:"content_type"`
	PublishedAt      time.Time   `json:"published_at"`
	Title            string      `json:"title"`
	ShortDescription string      `json:"short_description"`
	URL              string      `json:"url,omitempty"`
}

// Age returns how long before now the item was published. Future timestamps count as zero.
func (c ContentItem) Age(now time.Time) time.Duration {
	age := now.Sub(c.PublishedAt)
	if age < 0 {
		return 0
	}
	return age
}

// WellFormed reports whether the item carries the fields curation relies on.
func (c ContentItem) WellFormed() bool {
	return c.ID != "" && c.SourceID != "" && c.ContentType.Valid()
}
