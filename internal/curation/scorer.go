package curation

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"DailyBrief/internal/domain"
)

const (
	newSourceBonus   = 0.2
	newTypeBonus     = 0.1
	preferenceWeight = 0.2
	explorationBand  = 0.1
)

// RandomSource supplies the exploration term. Float64 must return a value in [0,1).
type RandomSource interface {
	Float64() float64
}

// FixedRandom always returns the same value; tests use it to pin exploration.
type FixedRandom float64

// Float64 implements RandomSource.
func (f FixedRandom) Float64() float64 { return float64(f) }

// lockedRandom makes a seeded *rand.Rand safe for concurrent generations.
type lockedRandom struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSeededRandom builds a reproducible RandomSource.
func NewSeededRandom(seed uint64) RandomSource {
	return &lockedRandom{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NewRandom builds a RandomSource seeded from the runtime.
func NewRandom() RandomSource {
	return NewSeededRandom(rand.Uint64())
}

func (l *lockedRandom) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rnd.Float64()
}

// ScoreBreakdown keeps the four scoring terms apart for inspection.
type ScoreBreakdown struct {
	Recency     float64
	Diversity   float64
	Preference  float64
	Exploration float64
}

// Total sums the terms.
func (b ScoreBreakdown) Total() float64 {
	return b.Recency + b.Diversity + b.Preference + b.Exploration
}

// Scorer computes the composite relevance score of a candidate.
type Scorer struct {
	clock  clockwork.Clock
	random RandomSource
}

// NewScorer wires a clock and a random source; nil values fall back to real ones.
func NewScorer(clock clockwork.Clock, random RandomSource) *Scorer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if random == nil {
		random = NewRandom()
	}
	return &Scorer{clock: clock, random: random}
}

// Score returns the weighted relevance of item given what is already selected.
func (s *Scorer) Score(item domain.ContentItem, alreadySelected []domain.ContentItem, profile domain.UserBehaviorProfile) float64 {
	return s.Breakdown(item, alreadySelected, profile).Total()
}

// Breakdown returns every scoring term for item.
func (s *Scorer) Breakdown(item domain.ContentItem, alreadySelected []domain.ContentItem, profile domain.UserBehaviorProfile) ScoreBreakdown {
	return ScoreBreakdown{
		Recency:     RecencyScore(item.Age(s.clock.Now())),
		Diversity:   DiversityScore(item, alreadySelected),
		Preference:  profile.PreferenceFor(item.ContentType.Category()) * preferenceWeight,
		Exploration: s.exploration(),
	}
}

func (s *Scorer) exploration() float64 {
	v := s.random.Float64()
	if v < 0 || v >= 1 {
		return 0
	}
	return v * explorationBand
}

// RecencyScore is a step function over item age, worth at most 0.4.
func RecencyScore(age time.Duration) float64 {
	switch {
	case age < 6*time.Hour:
		return 0.4
	case age < 12*time.Hour:
		return 0.3
	case age < 18*time.Hour:
		return 0.2
	default:
		return 0.1
	}
}

// DiversityScore rewards a source and a content type not yet present in selected.
func DiversityScore(item domain.ContentItem, selected []domain.ContentItem) float64 {
	newSource, newType := true, true
	for _, s := range selected {
		if s.SourceID == item.SourceID {
			newSource = false
		}
		if s.ContentType == item.ContentType {
			newType = false
		}
	}

	var score float64
	if newSource {
		score += newSourceBonus
	}
	if newType {
		score += newTypeBonus
	}
	return score
}
