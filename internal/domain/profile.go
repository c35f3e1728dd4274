package domain

import (
	"math"
	"time"
)

const (
	// RetentionWindow bounds how long engagement events are kept.
	RetentionWindow = 30 * 24 * time.Hour
	// NeutralWeight stands in for a category the user has never engaged with.
	NeutralWeight = 0.5
)

// CategoryWeights maps each known category to a preference weight in [0,1].
// Keys outside Categories are never stored.
type CategoryWeights map[Category]float64

// Weight returns the stored weight and whether the category has been seen.
func (w CategoryWeights) Weight(c Category) (float64, bool) {
	v, ok := w[c]
	return v, ok
}

// Clone returns an independent copy.
func (w CategoryWeights) Clone() CategoryWeights {
	out := make(CategoryWeights, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

// Sum adds up all weights.
func (w CategoryWeights) Sum() float64 {
	var total float64
	for _, v := range w {
		total += v
	}
	return total
}

// Normalize returns a copy scaled so the weights sum to 1.
// A zero total leaves the weights as they are.
func Normalize(w CategoryWeights) CategoryWeights {
	out := make(CategoryWeights, len(w))
	for k, v := range w {
		if k.Valid() {
			out[k] = v
		}
	}

	total := out.Sum()
	if total == 0 {
		return out
	}
	for k, v := range out {
		out[k] = v / total
	}
	return out
}

// UserBehaviorProfile is the engagement history and derived preferences of one user.
type UserBehaviorProfile struct {
	UserID             string            `json:"user_id"`
	EngagementHistory  []EngagementEvent `json:"engagement_history"`
	CategoryPreference CategoryWeights   `json:"category_preference"`
}

// NewUserBehaviorProfile returns an empty profile.
func NewUserBehaviorProfile(userID string) UserBehaviorProfile {
	return UserBehaviorProfile{
		UserID:             userID,
		EngagementHistory:  []EngagementEvent{},
		CategoryPreference: CategoryWeights{},
	}
}

// Clone returns a deep copy so callers can hold a snapshot safely.
func (p UserBehaviorProfile) Clone() UserBehaviorProfile {
	history := make([]EngagementEvent, len(p.EngagementHistory))
	copy(history, p.EngagementHistory)

	prefs := p.CategoryPreference.Clone()
	return UserBehaviorProfile{
		UserID:             p.UserID,
		EngagementHistory:  history,
		CategoryPreference: prefs,
	}
}

// PreferenceFor returns the weight used for scoring, NeutralWeight when unseen.
func (p UserBehaviorProfile) PreferenceFor(c Category) float64 {
	if v, ok := p.CategoryPreference.Weight(c); ok {
		return v
	}
	return NeutralWeight
}

// WithEngagement returns a new profile with the event applied; p is left untouched.
// The category is only updated when known is true, i.e. the brief item was found.
func (p UserBehaviorProfile) WithEngagement(event EngagementEvent, category Category, known bool, now time.Time) UserBehaviorProfile {
	next := p.Clone()

	next.EngagementHistory = append(next.EngagementHistory, event)
	next.EngagementHistory = pruneHistory(next.EngagementHistory, now)

	if !known || !category.Valid() {
		return next
	}

	weights := next.CategoryPreference
	weights[category] = clampUnit(next.PreferenceFor(category) + event.Action.PreferenceDelta())
	next.CategoryPreference = Normalize(weights)
	return next
}

// Pruned returns a copy without events older than the retention window.
func (p UserBehaviorProfile) Pruned(now time.Time) UserBehaviorProfile {
	next := p.Clone()
	next.EngagementHistory = pruneHistory(next.EngagementHistory, now)
	return next
}

func pruneHistory(events []EngagementEvent, now time.Time) []EngagementEvent {
	cutoff := now.Add(-RetentionWindow)
	kept := events[:0]
	for _, ev := range events {
		if ev.Timestamp.Before(cutoff) {
			continue
		}
		kept = append(kept, ev)
	}
	return kept
}

func clampUnit(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
