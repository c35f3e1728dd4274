// Package curation holds the pure selection engine: mode choice, scoring,
// constrained greedy selection and brief assembly.
package curation

import (
	"time"

	"DailyBrief/internal/domain"
)

// ModeSelector maps wall-clock context to a brief mode.
type ModeSelector struct {
	location *time.Location
}

// NewModeSelector evaluates hours in loc; nil means UTC.
func NewModeSelector(loc *time.Location) ModeSelector {
	if loc == nil {
		loc = time.UTC
	}
	return ModeSelector{location: loc}
}

// SelectMode picks the mode for the given instant.
func (m ModeSelector) SelectMode(now time.Time) domain.BriefMode {
	loc := m.location
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	weekday := local.Weekday()
	return ModeFor(local.Hour(), weekday == time.Saturday || weekday == time.Sunday)
}

// ModeFor is the mode table over (hour, weekend).
func ModeFor(hour int, weekend bool) domain.BriefMode {
	switch {
	case weekend:
		return domain.ModeWeekend
	case hour >= 6 && hour < 9:
		return domain.ModeRush
	case hour >= 17 && hour < 19:
		return domain.ModeCommute
	case hour >= 20 || hour < 6:
		return domain.ModeLeisurely
	default:
		return domain.ModeStandard
	}
}
