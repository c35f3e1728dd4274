package ports

import (
	"context"
	"errors"
	"time"

	"DailyBrief/internal/domain"
)

// ErrNotFound is returned by stores when a key has no value.
var ErrNotFound = errors.New("not found")

// ContentSource pulls recent, normalized items from one upstream provider.
type ContentSource interface {
	Name() string
	FetchRecent(ctx context.Context, since time.Time) ([]domain.ContentItem, error)
}

// ProfileStore persists one behavior profile per user.
type ProfileStore interface {
	Load(ctx context.Context, userID string) (domain.UserBehaviorProfile, error)
	Save(ctx context.Context, profile domain.UserBehaviorProfile) error
}

// BriefRepository keeps generated briefs for history and engagement lookups.
type BriefRepository interface {
	Save(ctx context.Context, userID string, brief domain.Brief) error
	Get(ctx context.Context, briefID string) (domain.Brief, error)
	Recent(ctx context.Context, userID string, limit int) ([]domain.Brief, error)
}

// Notifier streams rendered digests to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when generation runs.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
