package curation

import (
	"sort"
	"time"

	"github.com/jonboulle/clockwork"

	"DailyBrief/internal/domain"
)

const (
	perSourceCap        = 2
	topStoryCount       = 3
	highEngagementScore = 0.8
	recentWindow        = 6 * time.Hour
)

// SelectionEngine admits scored candidates greedily under the mode and diversity caps.
type SelectionEngine struct {
	scorer *Scorer
	clock  clockwork.Clock
}

// NewSelectionEngine builds an engine around scorer; it shares the scorer's clock.
func NewSelectionEngine(scorer *Scorer) *SelectionEngine {
	if scorer == nil {
		scorer = NewScorer(nil, nil)
	}
	return &SelectionEngine{scorer: scorer, clock: scorer.clock}
}

// Select scores every candidate once against an empty selection and admits the best
// of them in order. Diversity limits admission; it never re-ranks.
func (e *SelectionEngine) Select(candidates []domain.ContentItem, mode domain.BriefMode, profile domain.UserBehaviorProfile) []domain.SelectedCandidate {
	if len(candidates) == 0 || mode.MaxItems <= 0 {
		return []domain.SelectedCandidate{}
	}

	scored := make([]domain.ScoredCandidate, 0, len(candidates))
	for _, item := range candidates {
		scored = append(scored, domain.ScoredCandidate{
			Item:  item,
			Score: e.scorer.Score(item, nil, profile),
		})
	}

	return e.SelectScored(scored, mode)
}

// SelectScored runs admission and reason assignment over a fixed score vector.
// Ties keep their input order.
func (e *SelectionEngine) SelectScored(scored []domain.ScoredCandidate, mode domain.BriefMode) []domain.SelectedCandidate {
	result := []domain.SelectedCandidate{}
	if len(scored) == 0 || mode.MaxItems <= 0 {
		return result
	}

	ranked := make([]domain.ScoredCandidate, len(scored))
	copy(ranked, scored)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	typeCap := mode.MaxItems / 2
	sourceCounts := map[string]int{}
	typeCounts := map[domain.ContentType]int{}
	now := e.clock.Now()

	for _, candidate := range ranked {
		if len(result) == mode.MaxItems {
			break
		}
		if sourceCounts[candidate.Item.SourceID] >= perSourceCap {
			continue
		}
		if typeCounts[candidate.Item.ContentType] >= typeCap {
			continue
		}

		sourceCounts[candidate.Item.SourceID]++
		typeCounts[candidate.Item.ContentType]++
		result = append(result, domain.SelectedCandidate{
			Item:   candidate.Item,
			Score:  candidate.Score,
			Reason: reasonFor(len(result), candidate, now),
		})
	}

	return result
}

func reasonFor(index int, candidate domain.ScoredCandidate, now time.Time) domain.SelectionReason {
	switch {
	case index < topStoryCount:
		return domain.ReasonTopStory
	case candidate.Score > highEngagementScore:
		return domain.ReasonHighEngagement
	case candidate.Item.Age(now) < recentWindow:
		return domain.ReasonRecentlyPublished
	default:
		return domain.ReasonDiversityPick
	}
}
