package usecase

import (
	"context"
	"time"

	"DailyBrief/internal/domain"
)

// RecordEngagement appends an interaction to the profile and, when the brief
// item belongs to the current brief, shifts the preference of its category.
// Persistence failures are logged; the in-memory profile is always updated.
func (g *BriefGenerator) RecordEngagement(ctx context.Context, briefItemID, contentItemID string, dwellTime time.Duration, action domain.EngagementAction) {
	now := g.clock.Now()
	event := domain.EngagementEvent{
		BriefItemID:   briefItemID,
		ContentItemID: contentItemID,
		Timestamp:     now,
		DwellTime:     dwellTime,
		Action:        action,
	}

	category, known := g.categoryOf(briefItemID)

	g.writeMu.Lock()
	defer g.writeMu.Unlock()

	g.profileMu.Lock()
	next := g.profile.WithEngagement(event, category, known, now)
	g.profile = next
	g.profileMu.Unlock()

	g.metrics.ObserveEngagement(string(action), known)
	if !known {
		g.logger.Debug("engagement for unknown brief item", "brief_item", briefItemID, "content", contentItemID)
	}

	if g.profiles == nil {
		return
	}
	if err := g.profiles.Save(ctx, next); err != nil {
		g.logger.Warn("persist profile", "user", g.userID, "error", err)
	}
}

func (g *BriefGenerator) categoryOf(briefItemID string) (domain.Category, bool) {
	brief, ok := g.CurrentBrief()
	if !ok {
		return "", false
	}
	item, ok := brief.Item(briefItemID)
	if !ok {
		return "", false
	}
	return item.Category, true
}
