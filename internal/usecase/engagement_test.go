package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DailyBrief/internal/curation"
	"DailyBrief/internal/domain"
)

func generateOne(t *testing.T, h *harness) domain.Brief {
	t.Helper()

	brief, err := h.gen.GenerateBrief(context.Background(), nil)
	require.NoError(t, err)
	require.NotEmpty(t, brief.Items)
	return brief
}

func TestRecordEngagementShiftsPreference(t *testing.T) {
	t.Parallel()

	h := newHarness(t, &stubSource{name: "feeds", items: []domain.ContentItem{
		contentItem("article", "blog", domain.ContentTypeArticle, time.Hour),
		contentItem("episode", "pod", domain.ContentTypePodcastEpisode, time.Hour),
	}})
	brief := generateOne(t, h)

	var articleItem domain.BriefItem
	for _, item := range brief.Items {
		if item.Content.ID == "article" {
			articleItem = item
		}
	}
	require.NotEmpty(t, articleItem.ID)

	h.gen.RecordEngagement(context.Background(), articleItem.ID, "article", 45*time.Second, domain.ActionClicked)

	profile := h.gen.Profile()
	require.Len(t, profile.EngagementHistory, 1)
	event := profile.EngagementHistory[0]
	assert.Equal(t, articleItem.ID, event.BriefItemID)
	assert.Equal(t, 45*time.Second, event.DwellTime)
	assert.True(t, event.Timestamp.Equal(generationNow))
	assert.InDelta(t, 1.0, profile.PreferenceFor(domain.CategoryTopStories), 1e-9)

	stored, err := h.profiles.Load(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, profile, stored)

	assert.InDelta(t, 1, testutil.ToFloat64(h.metrics.EngagementEvents.WithLabelValues("clicked", "true")), 1e-9)
}

func TestRecordEngagementScenarioRatio(t *testing.T) {
	t.Parallel()

	h := newHarness(t, &stubSource{name: "feeds", items: []domain.ContentItem{
		contentItem("article", "blog", domain.ContentTypeArticle, time.Hour),
		contentItem("post", "social", domain.ContentTypeSocialPost, time.Hour),
	}})
	brief := generateOne(t, h)

	ids := map[string]string{}
	for _, item := range brief.Items {
		ids[item.Content.ID] = item.ID
	}
	require.Len(t, ids, 2)

	h.gen.RecordEngagement(context.Background(), ids["article"], "article", 0, domain.ActionClicked)
	h.gen.RecordEngagement(context.Background(), ids["post"], "post", 0, domain.ActionDismissed)

	profile := h.gen.Profile()
	assert.InDelta(t, 1.0, profile.CategoryPreference.Sum(), 1e-9)
	assert.Greater(t, profile.PreferenceFor(domain.CategoryTopStories), profile.PreferenceFor(domain.CategorySocial))
}

func TestRecordEngagementUnknownItem(t *testing.T) {
	t.Parallel()

	h := newHarness(t, &stubSource{name: "feeds", items: []domain.ContentItem{
		contentItem("article", "blog", domain.ContentTypeArticle, time.Hour),
	}})
	generateOne(t, h)

	h.gen.RecordEngagement(context.Background(), "no-such-item", "ghost", time.Second, domain.ActionShared)

	profile := h.gen.Profile()
	require.Len(t, profile.EngagementHistory, 1)
	assert.Equal(t, "no-such-item", profile.EngagementHistory[0].BriefItemID)
	assert.Empty(t, profile.CategoryPreference)
	assert.InDelta(t, 1, testutil.ToFloat64(h.metrics.EngagementEvents.WithLabelValues("shared", "false")), 1e-9)
}

func TestRecordEngagementWithoutBrief(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.gen.RecordEngagement(context.Background(), "bi", "c", 0, domain.ActionViewed)

	assert.Len(t, h.gen.Profile().EngagementHistory, 1)
}

func TestRecordEngagementSurvivesStoreFailure(t *testing.T) {
	t.Parallel()

	gen := NewBriefGenerator(GeneratorDeps{
		UserID:   "user-1",
		Profiles: failingProfileStore{err: errors.New("redis down")},
		Clock:    newHarness(t).clock,
		Random:   curation.FixedRandom(0),
	})

	gen.RecordEngagement(context.Background(), "bi", "c", 0, domain.ActionSaved)
	assert.Len(t, gen.Profile().EngagementHistory, 1)
}

func TestRecordEngagementConcurrent(t *testing.T) {
	t.Parallel()

	h := newHarness(t, &stubSource{name: "feeds", items: []domain.ContentItem{
		contentItem("article", "blog", domain.ContentTypeArticle, time.Hour),
		contentItem("episode", "pod", domain.ContentTypePodcastEpisode, time.Hour),
		contentItem("post", "social", domain.ContentTypeSocialPost, time.Hour),
	}})
	brief := generateOne(t, h)

	actions := []domain.EngagementAction{domain.ActionClicked, domain.ActionDismissed, domain.ActionViewed}
	const perItem = 20

	var wg sync.WaitGroup
	for _, item := range brief.Items {
		for i := 0; i < perItem; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				h.gen.RecordEngagement(context.Background(), item.ID, item.Content.ID, time.Second, actions[i%len(actions)])
				_ = h.gen.Profile()
			}()
		}
	}
	wg.Wait()

	profile := h.gen.Profile()
	assert.Len(t, profile.EngagementHistory, perItem*len(brief.Items))
	assert.InDelta(t, 1.0, profile.CategoryPreference.Sum(), 1e-9)
	for _, weight := range profile.CategoryPreference {
		assert.GreaterOrEqual(t, weight, 0.0)
		assert.LessOrEqual(t, weight, 1.0)
	}

	stored, err := h.profiles.Load(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Len(t, stored.EngagementHistory, perItem*len(brief.Items))
}
