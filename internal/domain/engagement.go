package domain

import (
	"fmt"
	"time"
)

// EngagementAction enumerates how a user interacted with a brief item.
type EngagementAction string

const (
	ActionViewed    EngagementAction = "viewed"
	ActionClicked   EngagementAction = "clicked"
	ActionShared    EngagementAction = "shared"
	ActionSaved     EngagementAction = "saved"
	ActionDismissed EngagementAction = "dismissed"
)

// ParseEngagementAction validates a raw action name.
func ParseEngagementAction(raw string) (EngagementAction, error) {
	action := EngagementAction(raw)
	switch action {
	case ActionViewed, ActionClicked, ActionShared, ActionSaved, ActionDismissed:
		return action, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, raw)
}

// PreferenceDelta is the change applied to a category weight for this action.
func (a EngagementAction) PreferenceDelta() float64 {
	switch a {
	case ActionClicked:
		return 0.1
	case ActionDismissed:
		return -0.1
	default:
		return 0.05
	}
}

// EngagementEvent is one recorded interaction with a brief item.
type EngagementEvent struct {
	BriefItemID   string           `json:"brief_item_id"`
	ContentItemID string           `json:"content_item_id"`
	Timestamp     time.Time        `json:"timestamp"`
	DwellTime     time.Duration    `json:"dwell_time"`
	Action        EngagementAction `json:"action"`
}
