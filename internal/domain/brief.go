package domain

import (
	"fmt"
	"time"
)

// BriefMode is a named constraint bundle limiting the size and shape of a brief.
type BriefMode struct {
	Name                  string `json:"name"`
	MaxItems              int    `json:"max_items"`
	TargetReadTimeSeconds int    `json:"target_read_time_seconds"`
	MaxSummaryChars       int    `json:"max_summary_chars"`
}

// The five fixed modes.
var (
	ModeRush      = BriefMode{Name: "rush", MaxItems: 5, TargetReadTimeSeconds: 300, MaxSummaryChars: 100}
	ModeStandard  = BriefMode{Name: "standard", MaxItems: 10, TargetReadTimeSeconds: 900, MaxSummaryChars: 200}
	ModeLeisurely = BriefMode{Name: "leisurely", MaxItems: 15, TargetReadTimeSeconds: 1800, MaxSummaryChars: 320}
	ModeCommute   = BriefMode{Name: "commute", MaxItems: 8, TargetReadTimeSeconds: 1200, MaxSummaryChars: 160}
	ModeWeekend   = BriefMode{Name: "weekend", MaxItems: 12, TargetReadTimeSeconds: 1500, MaxSummaryChars: 280}
)

// Modes lists the fixed modes.
var Modes = []BriefMode{ModeRush, ModeStandard, ModeLeisurely, ModeCommute, ModeWeekend}

// ModeByName looks up one of the fixed modes.
func ModeByName(name string) (BriefMode, error) {
	for _, m := range Modes {
		if m.Name == name {
			return m, nil
		}
	}
	return BriefMode{}, fmt.Errorf("unknown brief mode %q", name)
}

// Validate rejects modes that cannot describe a brief.
func (m BriefMode) Validate() error {
	if m.MaxItems < 0 || m.TargetReadTimeSeconds < 0 || m.MaxSummaryChars < 0 {
		return fmt.Errorf("%w: %+v", ErrInvalidMode, m)
	}
	return nil
}

// SelectionReason explains why an item made it into a brief.
type SelectionReason string

const (
	ReasonTopStory          SelectionReason = "top_story"
	ReasonHighEngagement    SelectionReason = "high_engagement"
	ReasonRecentlyPublished SelectionReason = "recently_published"
	ReasonDiversityPick     SelectionReason = "diversity_pick"
)

// ScoredCandidate pairs an item with its relevance score for one selection pass.
type ScoredCandidate struct {
	Item  ContentItem
	Score float64
}

// SelectedCandidate is an admitted candidate together with its selection reason.
type SelectedCandidate struct {
	Item   ContentItem
	Score  float64
	Reason SelectionReason
}

// BriefItem is one entry of a generated brief.
type BriefItem struct {
	ID              string          `json:"id"`
	Content         ContentItem     `json:"content"`
	Category        Category        `json:"category"`
	Reason          SelectionReason `json:"reason"`
	Summary         string          `json:"summary"`
	Priority        int             `json:"priority"`
	ReadTimeSeconds int             `json:"read_time_seconds"`
}

// Brief is the output of one generation cycle. A newer brief supersedes it; it is never edited.
type Brief struct {
	ID                   string      `json:"id"`
	GeneratedAt          time.Time   `json:"generated_at"`
	Items                []BriefItem `json:"items"`
	Mode                 BriefMode   `json:"mode"`
	TotalReadTimeSeconds int         `json:"total_read_time_seconds"`
}

// Item finds a brief item by id.
func (b Brief) Item(briefItemID string) (BriefItem, bool) {
	for _, item := range b.Items {
		if item.ID == briefItemID {
			return item, true
		}
	}
	return BriefItem{}, false
}
