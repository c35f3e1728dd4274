package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DailyBrief/internal/curation"
	"DailyBrief/internal/domain"
	"DailyBrief/internal/infrastructure/storage"
	"DailyBrief/internal/metrics"
	"DailyBrief/internal/ports"
)

// Wednesday mid-morning: the standard mode.
var generationNow = time.Date(2025, time.November, 5, 10, 0, 0, 0, time.UTC)

type stubSource struct {
	name  string
	items []domain.ContentItem
	err   error
	panic bool
	calls atomic.Int32
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) FetchRecent(context.Context, time.Time) ([]domain.ContentItem, error) {
	s.calls.Add(1)
	if s.panic {
		panic("scraper exploded")
	}
	return s.items, s.err
}

// blockingSource blocks its first call until the fetch context ends.
type blockingSource struct {
	name    string
	items   []domain.ContentItem
	started chan struct{}
	calls   atomic.Int32
}

func (s *blockingSource) Name() string { return s.name }

func (s *blockingSource) FetchRecent(ctx context.Context, _ time.Time) ([]domain.ContentItem, error) {
	if s.calls.Add(1) == 1 {
		close(s.started)
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return s.items, nil
}

type failingProfileStore struct {
	err error
}

func (f failingProfileStore) Load(context.Context, string) (domain.UserBehaviorProfile, error) {
	return domain.UserBehaviorProfile{}, f.err
}

func (f failingProfileStore) Save(context.Context, domain.UserBehaviorProfile) error {
	return f.err
}

func contentItem(id, source string, ct domain.ContentType, age time.Duration) domain.ContentItem {
	return domain.ContentItem{
		ID:          id,
		SourceID:    source,
		ContentType: ct,
		PublishedAt: generationNow.Add(-age),
		Title:       "Title " + id,
		URL:         "https://example.com/" + id,
	}
}

type harness struct {
	gen      *BriefGenerator
	clock    *clockwork.FakeClock
	profiles *storage.MemoryProfileStore
	briefs   *storage.MemoryBriefRepository
	metrics  *metrics.Metrics
}

func newHarness(t *testing.T, sources ...ports.ContentSource) *harness {
	t.Helper()

	h := &harness{
		clock:    clockwork.NewFakeClockAt(generationNow),
		profiles: storage.NewMemoryProfileStore(),
		briefs:   storage.NewMemoryBriefRepository(),
		metrics:  metrics.New(prometheus.NewRegistry()),
	}
	h.gen = NewBriefGenerator(GeneratorDeps{
		UserID:       "user-1",
		Sources:      sources,
		Profiles:     h.profiles,
		Briefs:       h.briefs,
		Clock:        h.clock,
		Random:       curation.FixedRandom(0),
		FetchTimeout: 5 * time.Second,
		Metrics:      h.metrics,
	})
	return h
}

func TestGenerateBriefToleratesFailingSources(t *testing.T) {
	t.Parallel()

	healthy := &stubSource{name: "hn", items: []domain.ContentItem{
		contentItem("a", "hn", domain.ContentTypeForumPost, time.Hour),
		contentItem("b", "blog", domain.ContentTypeArticle, 2*time.Hour),
	}}
	broken := &stubSource{name: "broken", err: errors.New("503")}
	crashing := &stubSource{name: "crashing", panic: true}

	h := newHarness(t, broken, healthy, crashing)

	brief, err := h.gen.GenerateBrief(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, domain.ModeStandard, brief.Mode)
	assert.Equal(t, []string{"a", "b"}, contentIDs(brief))
	assert.Equal(t, 120+180, brief.TotalReadTimeSeconds)
	assert.True(t, brief.GeneratedAt.Equal(generationNow))

	assert.InDelta(t, 1, testutil.ToFloat64(h.metrics.SourceFetches.WithLabelValues("broken", "error")), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(h.metrics.SourceFetches.WithLabelValues("crashing", "error")), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(h.metrics.SourceFetches.WithLabelValues("hn", "ok")), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(h.metrics.BriefsGenerated.WithLabelValues("standard")), 1e-9)

	current, ok := h.gen.CurrentBrief()
	require.True(t, ok)
	assert.Equal(t, brief.ID, current.ID)

	stored, err := h.briefs.Get(context.Background(), brief.ID)
	require.NoError(t, err)
	assert.Equal(t, brief.ID, stored.ID)
}

func TestGenerateBriefEmptyPool(t *testing.T) {
	t.Parallel()

	h := newHarness(t, &stubSource{name: "quiet"}, &stubSource{name: "down", err: errors.New("timeout")})

	brief, err := h.gen.GenerateBrief(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, brief.Items)
	assert.Zero(t, brief.TotalReadTimeSeconds)
	assert.NotEmpty(t, brief.ID)
}

func TestGenerateBriefWithoutSources(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	brief, err := h.gen.GenerateBrief(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, brief.Items)
}

func TestGenerateBriefExplicitMode(t *testing.T) {
	t.Parallel()

	items := make([]domain.ContentItem, 0, 12)
	for i := 0; i < 12; i++ {
		ct := domain.ContentTypes[i%len(domain.ContentTypes)]
		items = append(items, contentItem(fmt.Sprintf("i%d", i), fmt.Sprintf("src%d", i), ct, time.Duration(i)*time.Hour))
	}
	h := newHarness(t, &stubSource{name: "all", items: items})

	rush := domain.ModeRush
	brief, err := h.gen.GenerateBrief(context.Background(), &rush)
	require.NoError(t, err)
	assert.Equal(t, domain.ModeRush, brief.Mode)
	assert.LessOrEqual(t, len(brief.Items), rush.MaxItems)
	assert.NotEmpty(t, brief.Items)

	bad := domain.BriefMode{Name: "broken", MaxItems: -1}
	_, err = h.gen.GenerateBrief(context.Background(), &bad)
	assert.ErrorIs(t, err, domain.ErrInvalidMode)
}

func TestGenerateBriefCancelledContext(t *testing.T) {
	t.Parallel()

	h := newHarness(t, &stubSource{name: "hn", items: []domain.ContentItem{
		contentItem("a", "hn", domain.ContentTypeArticle, time.Hour),
	}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.gen.GenerateBrief(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)

	_, ok := h.gen.CurrentBrief()
	assert.False(t, ok)
}

func TestGenerateBriefSupersededByNewerRequest(t *testing.T) {
	t.Parallel()

	source := &blockingSource{
		name:    "slow",
		started: make(chan struct{}),
		items:   []domain.ContentItem{contentItem("fresh", "slow", domain.ContentTypeArticle, time.Hour)},
	}
	h := newHarness(t, source)

	type outcome struct {
		brief domain.Brief
		err   error
	}
	first := make(chan outcome, 1)
	go func() {
		brief, err := h.gen.GenerateBrief(context.Background(), nil)
		first <- outcome{brief, err}
	}()

	select {
	case <-source.started:
	case <-time.After(2 * time.Second):
		t.Fatal("first generation never reached the source")
	}

	second, err := h.gen.GenerateBrief(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh"}, contentIDs(second))

	select {
	case res := <-first:
		assert.ErrorIs(t, res.err, ErrGenerationSuperseded)
	case <-time.After(2 * time.Second):
		t.Fatal("first generation did not finish")
	}

	current, ok := h.gen.CurrentBrief()
	require.True(t, ok)
	assert.Equal(t, second.ID, current.ID)
	assert.InDelta(t, 1, testutil.ToFloat64(h.metrics.BriefsSuperseded), 1e-9)
}

func TestRefreshBriefReplacesCurrent(t *testing.T) {
	t.Parallel()

	h := newHarness(t, &stubSource{name: "hn", items: []domain.ContentItem{
		contentItem("a", "hn", domain.ContentTypeArticle, time.Hour),
	}})

	first, err := h.gen.GenerateBrief(context.Background(), nil)
	require.NoError(t, err)

	h.clock.Advance(time.Minute)
	refreshed, err := h.gen.RefreshBrief(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, refreshed.ID)
	assert.True(t, refreshed.GeneratedAt.After(first.GeneratedAt))

	current, ok := h.gen.CurrentBrief()
	require.True(t, ok)
	assert.Equal(t, refreshed.ID, current.ID)

	history, err := h.gen.History(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, refreshed.ID, history[0].ID)
}

func TestRestoreRecoversLatestBriefAndProfile(t *testing.T) {
	t.Parallel()

	h := newHarness(t, &stubSource{name: "hn", items: []domain.ContentItem{
		contentItem("a", "hn", domain.ContentTypePodcastEpisode, time.Hour),
	}})
	brief, err := h.gen.GenerateBrief(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, brief.Items, 1)

	stale := domain.NewUserBehaviorProfile("user-1")
	stale.CategoryPreference = domain.CategoryWeights{domain.CategoryPodcasts: 1}
	stale.EngagementHistory = []domain.EngagementEvent{
		{BriefItemID: "old", Timestamp: generationNow.Add(-40 * 24 * time.Hour), Action: domain.ActionViewed},
		{BriefItemID: "new", Timestamp: generationNow.Add(-time.Hour), Action: domain.ActionViewed},
	}
	require.NoError(t, h.profiles.Save(context.Background(), stale))

	restarted := NewBriefGenerator(GeneratorDeps{
		UserID:   "user-1",
		Profiles: h.profiles,
		Briefs:   h.briefs,
		Clock:    h.clock,
		Random:   curation.FixedRandom(0),
	})
	restarted.Restore(context.Background())

	current, ok := restarted.CurrentBrief()
	require.True(t, ok)
	assert.Equal(t, brief.ID, current.ID)

	profile := restarted.Profile()
	require.Len(t, profile.EngagementHistory, 1)
	assert.Equal(t, "new", profile.EngagementHistory[0].BriefItemID)
	assert.InDelta(t, 1.0, profile.PreferenceFor(domain.CategoryPodcasts), 1e-9)
}

func TestRestoreFallsBackToEmptyProfile(t *testing.T) {
	t.Parallel()

	for _, loadErr := range []error{
		ports.ErrNotFound,
		fmt.Errorf("%w: bad json", domain.ErrProfileCorrupt),
		errors.New("connection refused"),
	} {
		gen := NewBriefGenerator(GeneratorDeps{
			UserID:   "user-1",
			Profiles: failingProfileStore{err: loadErr},
			Clock:    clockwork.NewFakeClockAt(generationNow),
		})
		gen.Restore(context.Background())

		profile := gen.Profile()
		assert.Equal(t, "user-1", profile.UserID)
		assert.Empty(t, profile.EngagementHistory)
		assert.Empty(t, profile.CategoryPreference)
	}
}

func TestProfileSnapshotIsIsolated(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	snapshot := h.gen.Profile()
	snapshot.CategoryPreference[domain.CategoryTrending] = 1

	assert.Empty(t, h.gen.Profile().CategoryPreference)
}

func TestFanOutNormalizesCandidates(t *testing.T) {
	t.Parallel()

	first := &stubSource{name: "one", items: []domain.ContentItem{
		contentItem("a", "one", domain.ContentTypeArticle, time.Hour),
		{ID: "", SourceID: "one", ContentType: domain.ContentTypeArticle},
		{ID: "x", SourceID: "one", ContentType: "video"},
		contentItem("b", "one", domain.ContentTypeArticle, time.Hour),
	}}
	second := &stubSource{name: "two", items: []domain.ContentItem{
		contentItem("b", "two", domain.ContentTypeSocialPost, time.Hour),
		contentItem("c", "two", domain.ContentTypeSocialPost, time.Hour),
	}}

	h := newHarness(t, first, second)
	got, err := h.gen.fanOut.gather(context.Background(), generationNow.Add(-24*time.Hour))
	require.NoError(t, err)

	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "b", got[1].ID)
	assert.Equal(t, "one", got[1].SourceID)
	assert.Equal(t, "c", got[2].ID)
}

func TestFanOutReportsSourceErrors(t *testing.T) {
	t.Parallel()

	h := newHarness(t, &stubSource{name: "down", err: errors.New("dns")})
	got, err := h.gen.fanOut.gather(context.Background(), generationNow)

	assert.Empty(t, got)
	var fetchErr *SourceFetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "down", fetchErr.Source)
	assert.EqualError(t, fetchErr.Unwrap(), "dns")
}

func TestFanOutTimesOutSlowSource(t *testing.T) {
	t.Parallel()

	slow := &blockingSource{name: "slow", started: make(chan struct{})}
	fast := &stubSource{name: "fast", items: []domain.ContentItem{
		contentItem("a", "fast", domain.ContentTypeArticle, time.Hour),
	}}

	h := newHarness(t, slow, fast)
	h.gen.fanOut.timeout = 50 * time.Millisecond

	got, err := h.gen.fanOut.gather(context.Background(), generationNow)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)
}

func contentIDs(brief domain.Brief) []string {
	ids := make([]string, 0, len(brief.Items))
	for _, item := range brief.Items {
		ids = append(ids, item.Content.ID)
	}
	return ids
}
