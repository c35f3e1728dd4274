package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"DailyBrief/internal/curation"
	"DailyBrief/internal/domain"
	"DailyBrief/internal/metrics"
	"DailyBrief/internal/ports"
)

const (
	defaultLookback     = 24 * time.Hour
	defaultFetchTimeout = 15 * time.Second
)

// ErrGenerationSuperseded is returned to a generation that a newer one replaced.
var ErrGenerationSuperseded = errors.New("brief generation superseded by a newer request")

// GeneratorDeps wires all driven adapters into the brief generator.
type GeneratorDeps struct {
	UserID           string
	Sources          []ports.ContentSource
	Profiles         ports.ProfileStore
	Briefs           ports.BriefRepository
	Clock            clockwork.Clock
	Random           curation.RandomSource
	Location         *time.Location
	Lookback         time.Duration
	FetchTimeout     time.Duration
	FetchConcurrency int
	Metrics          *metrics.Metrics
	Logger           *slog.Logger
}

// BriefGenerator runs the fetch → score → select → assemble cycle for one user
// and closes the loop with engagement feedback.
type BriefGenerator struct {
	userID    string
	fanOut    *fanOut
	modes     curation.ModeSelector
	engine    *curation.SelectionEngine
	assembler *curation.BriefAssembler
	profiles  ports.ProfileStore
	briefs    ports.BriefRepository
	clock     clockwork.Clock
	lookback  time.Duration
	metrics   *metrics.Metrics
	logger    *slog.Logger

	// writeMu serializes profile writes so persisted order matches memory order.
	writeMu   sync.Mutex
	profileMu sync.RWMutex
	profile   domain.UserBehaviorProfile

	genMu       sync.Mutex
	generation  uint64
	cancelFetch context.CancelFunc
	current     *domain.Brief
}

// NewBriefGenerator constructs the generator with an empty profile. Call Restore
// to load persisted state.
func NewBriefGenerator(deps GeneratorDeps) *BriefGenerator {
	clock := deps.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	lookback := deps.Lookback
	if lookback <= 0 {
		lookback = defaultLookback
	}
	timeout := deps.FetchTimeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}

	scorer := curation.NewScorer(clock, deps.Random)

	return &BriefGenerator{
		userID: deps.UserID,
		fanOut: &fanOut{
			sources: deps.Sources,
			timeout: timeout,
			width:   deps.FetchConcurrency,
			clock:   clock,
			metrics: deps.Metrics,
			logger:  logger,
		},
		modes:     curation.NewModeSelector(deps.Location),
		engine:    curation.NewSelectionEngine(scorer),
		assembler: curation.NewBriefAssembler(clock),
		profiles:  deps.Profiles,
		briefs:    deps.Briefs,
		clock:     clock,
		lookback:  lookback,
		metrics:   deps.Metrics,
		logger:    logger,
		profile:   domain.NewUserBehaviorProfile(deps.UserID),
	}
}

// Restore loads the persisted profile and the latest brief. Load failures
// degrade to an empty profile and no current brief.
func (g *BriefGenerator) Restore(ctx context.Context) {
	profile := g.loadProfile(ctx)

	g.profileMu.Lock()
	g.profile = profile
	g.profileMu.Unlock()

	if g.briefs == nil {
		return
	}
	recent, err := g.briefs.Recent(ctx, g.userID, 1)
	if err != nil {
		g.logger.Warn("load latest brief", "user", g.userID, "error", err)
		return
	}
	if len(recent) == 0 {
		return
	}

	g.genMu.Lock()
	if g.current == nil {
		latest := recent[0]
		g.current = &latest
	}
	g.genMu.Unlock()
}

func (g *BriefGenerator) loadProfile(ctx context.Context) domain.UserBehaviorProfile {
	empty := domain.NewUserBehaviorProfile(g.userID)
	if g.profiles == nil {
		return empty
	}

	profile, err := g.profiles.Load(ctx, g.userID)
	switch {
	case errors.Is(err, ports.ErrNotFound):
		return empty
	case errors.Is(err, domain.ErrProfileCorrupt):
		g.logger.Warn("profile is corrupt, starting empty", "user", g.userID, "error", err)
		return empty
	case err != nil:
		g.logger.Warn("load profile, starting empty", "user", g.userID, "error", err)
		return empty
	}

	if profile.CategoryPreference == nil {
		profile.CategoryPreference = domain.CategoryWeights{}
	}
	profile.UserID = g.userID
	return profile.Pruned(g.clock.Now())
}

// GenerateBrief builds a new brief. A nil mode lets the clock decide. Source
// failures only shrink the brief; the returned error is non-nil only when ctx
// ends, the mode is invalid, or a newer generation superseded this one.
func (g *BriefGenerator) GenerateBrief(ctx context.Context, mode *domain.BriefMode) (domain.Brief, error) {
	if mode != nil {
		if err := mode.Validate(); err != nil {
			return domain.Brief{}, err
		}
	}

	fetchCtx, generation := g.begin(ctx)
	now := g.clock.Now()

	candidates, fetchErr := g.fanOut.gather(fetchCtx, now.Add(-g.lookback))
	if fetchErr != nil {
		g.logger.Info("generation continues without failed sources", "error", fetchErr)
	}
	if err := ctx.Err(); err != nil {
		return domain.Brief{}, fmt.Errorf("generate brief: %w", err)
	}

	selectedMode := g.modes.SelectMode(now)
	if mode != nil {
		selectedMode = *mode
	}

	selected := g.engine.Select(candidates, selectedMode, g.Profile())
	brief := g.assembler.Assemble(selected, selectedMode)

	if !g.commit(generation, brief) {
		g.metrics.ObserveSuperseded()
		g.logger.Debug("discard superseded brief", "brief", brief.ID)
		return domain.Brief{}, ErrGenerationSuperseded
	}

	g.metrics.ObserveBrief(selectedMode.Name, len(brief.Items), len(candidates))
	g.logger.Info("brief generated",
		"brief", brief.ID,
		"mode", selectedMode.Name,
		"candidates", len(candidates),
		"items", len(brief.Items),
		"read_time_seconds", brief.TotalReadTimeSeconds)

	if g.briefs != nil {
		if err := g.briefs.Save(ctx, g.userID, brief); err != nil {
			g.logger.Warn("persist brief", "brief", brief.ID, "error", err)
		}
	}

	return brief, nil
}

// RefreshBrief discards the current brief and generates a new one.
func (g *BriefGenerator) RefreshBrief(ctx context.Context) (domain.Brief, error) {
	g.genMu.Lock()
	g.current = nil
	g.genMu.Unlock()

	return g.GenerateBrief(ctx, nil)
}

// CurrentBrief returns the most recent committed brief.
func (g *BriefGenerator) CurrentBrief() (domain.Brief, bool) {
	g.genMu.Lock()
	defer g.genMu.Unlock()

	if g.current == nil {
		return domain.Brief{}, false
	}
	return *g.current, true
}

// History lists persisted briefs, newest first.
func (g *BriefGenerator) History(ctx context.Context, limit int) ([]domain.Brief, error) {
	if g.briefs == nil {
		return []domain.Brief{}, nil
	}
	briefs, err := g.briefs.Recent(ctx, g.userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list briefs: %w", err)
	}
	return briefs, nil
}

// Profile returns a snapshot of the user's profile.
func (g *BriefGenerator) Profile() domain.UserBehaviorProfile {
	g.profileMu.RLock()
	defer g.profileMu.RUnlock()
	return g.profile.Clone()
}

// begin starts a generation, cancelling the fetch of any generation still in flight.
func (g *BriefGenerator) begin(ctx context.Context) (context.Context, uint64) {
	g.genMu.Lock()
	defer g.genMu.Unlock()

	if g.cancelFetch != nil {
		g.cancelFetch()
	}
	g.generation++

	fetchCtx, cancel := context.WithCancel(ctx)
	g.cancelFetch = cancel
	return fetchCtx, g.generation
}

// commit installs brief as current unless a newer generation has started.
func (g *BriefGenerator) commit(generation uint64, brief domain.Brief) bool {
	g.genMu.Lock()
	defer g.genMu.Unlock()

	if generation != g.generation {
		return false
	}
	if g.cancelFetch != nil {
		g.cancelFetch()
		g.cancelFetch = nil
	}
	g.current = &brief
	return true
}
