package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"DailyBrief/internal/domain"
)

func TestRenderDigest(t *testing.T) {
	t.Parallel()

	brief := domain.Brief{
		Mode:                 domain.ModeRush,
		TotalReadTimeSeconds: 240,
		Items: []domain.BriefItem{
			{
				Content:  domain.ContentItem{Title: "Go 1.26 released", SourceID: "go-blog", URL: "https://go.dev/blog/go1.26"},
				Category: domain.CategoryTopStories,
				Reason:   domain.ReasonTopStory,
				Summary:  "Highlights of the release.",
				Priority: 0,
			},
			{
				Content:  domain.ContentItem{Title: "Thread", SourceID: "hn"},
				Category: domain.CategoryTrending,
				Reason:   domain.ReasonDiversityPick,
				Summary:  "Thread",
				Priority: 1,
			},
		},
	}

	want := "Daily brief (rush, ~4 min)\n\n" +
		"1. Go 1.26 released\n[top_stories · go-blog · top_story]\nHighlights of the release.\nhttps://go.dev/blog/go1.26\n\n" +
		"2. Thread\n[trending · hn · diversity_pick]"

	assert.Equal(t, want, RenderDigest(brief))
}

func TestRenderDigestEmpty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, RenderDigest(domain.Brief{Mode: domain.ModeStandard}))
}
