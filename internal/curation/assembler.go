package curation

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"DailyBrief/internal/domain"
)

const ellipsis = "…"

// BriefAssembler turns selected candidates into a Brief.
type BriefAssembler struct {
	clock clockwork.Clock
	newID func() string
}

// NewBriefAssembler wires the clock stamped onto generated briefs.
func NewBriefAssembler(clock clockwork.Clock) *BriefAssembler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &BriefAssembler{clock: clock, newID: uuid.NewString}
}

// Assemble builds the brief in selection order.
func (a *BriefAssembler) Assemble(selected []domain.SelectedCandidate, mode domain.BriefMode) domain.Brief {
	brief := domain.Brief{
		ID:          a.newID(),
		GeneratedAt: a.clock.Now(),
		Items:       make([]domain.BriefItem, 0, len(selected)),
		Mode:        mode,
	}

	for i, candidate := range selected {
		item := candidate.Item
		readTime := item.ContentType.ReadTimeSeconds()

		brief.Items = append(brief.Items, domain.BriefItem{
			ID:              a.newID(),
			Content:         item,
			Category:        item.ContentType.Category(),
			Reason:          candidate.Reason,
			Summary:         Summarize(item, mode.MaxSummaryChars),
			Priority:        i,
			ReadTimeSeconds: readTime,
		})
		brief.TotalReadTimeSeconds += readTime
	}

	return brief
}

// Summarize derives the display summary of an item, falling back to its title.
func Summarize(item domain.ContentItem, maxChars int) string {
	text := strings.TrimSpace(item.ShortDescription)
	if text == "" {
		text = strings.TrimSpace(item.Title)
	}
	return Truncate(text, maxChars)
}

// Truncate cuts s to at most maxChars runes and marks the cut with an ellipsis.
func Truncate(s string, maxChars int) string {
	if maxChars <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxChars {
		return s
	}

	count := 0
	for i := range s {
		if count == maxChars {
			return s[:i] + ellipsis
		}
		count++
	}
	return s
}
