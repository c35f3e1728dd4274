package storage

import (
	"context"
	"sort"
	"sync"

	"DailyBrief/internal/domain"
	"DailyBrief/internal/ports"
)

// MemoryProfileStore keeps profiles in process memory.
type MemoryProfileStore struct {
	mu       sync.RWMutex
	profiles map[string]domain.UserBehaviorProfile
}

var _ ports.ProfileStore = (*MemoryProfileStore)(nil)

// NewMemoryProfileStore builds an empty store.
func NewMemoryProfileStore() *MemoryProfileStore {
	return &MemoryProfileStore{profiles: map[string]domain.UserBehaviorProfile{}}
}

// Load returns a copy of the stored profile.
func (s *MemoryProfileStore) Load(_ context.Context, userID string) (domain.UserBehaviorProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.profiles[userID]
	if !ok {
		return domain.UserBehaviorProfile{}, ports.ErrNotFound
	}
	return profile.Clone(), nil
}

// Save stores a copy of profile.
func (s *MemoryProfileStore) Save(_ context.Context, profile domain.UserBehaviorProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.profiles[profile.UserID] = profile.Clone()
	return nil
}

type storedBrief struct {
	userID string
	brief  domain.Brief
}

// MemoryBriefRepository keeps brief history in process memory.
type MemoryBriefRepository struct {
	mu     sync.RWMutex
	briefs map[string]storedBrief
}

var _ ports.BriefRepository = (*MemoryBriefRepository)(nil)

// NewMemoryBriefRepository builds an empty repository.
func NewMemoryBriefRepository() *MemoryBriefRepository {
	return &MemoryBriefRepository{briefs: map[string]storedBrief{}}
}

// Save upserts brief.
func (r *MemoryBriefRepository) Save(_ context.Context, userID string, brief domain.Brief) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.briefs[brief.ID] = storedBrief{userID: userID, brief: brief}
	return nil
}

// Get returns a brief by id.
func (r *MemoryBriefRepository) Get(_ context.Context, briefID string) (domain.Brief, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.briefs[briefID]
	if !ok {
		return domain.Brief{}, ports.ErrNotFound
	}
	return stored.brief, nil
}

// Recent returns up to limit briefs of userID, newest first.
func (r *MemoryBriefRepository) Recent(_ context.Context, userID string, limit int) ([]domain.Brief, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Brief, 0)
	for _, stored := range r.briefs {
		if stored.userID == userID {
			out = append(out, stored.brief)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].GeneratedAt.After(out[j].GeneratedAt)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
