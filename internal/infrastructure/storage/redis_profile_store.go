package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"DailyBrief/internal/domain"
	"DailyBrief/internal/ports"
)

const (
	defaultProfileKeyPrefix = "dailybrief:profile:"
	connectionTimeout       = 5 * time.Second
)

// ErrEmptyAddress is returned when Redis address is not configured.
var ErrEmptyAddress = errors.New("redis address is required")

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

// NewRedisClient creates a Redis client and verifies the connection.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	if cfg.Address == "" {
		return nil, ErrEmptyAddress
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, connectionTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}

// RedisProfileStore stores each profile as a JSON document under one key.
type RedisProfileStore struct {
	client redis.UniversalClient
	prefix string
}

var _ ports.ProfileStore = (*RedisProfileStore)(nil)

// NewRedisProfileStore wires a client; an empty prefix uses the default namespace.
func NewRedisProfileStore(client redis.UniversalClient, prefix string) *RedisProfileStore {
	if prefix == "" {
		prefix = defaultProfileKeyPrefix
	}
	return &RedisProfileStore{client: client, prefix: prefix}
}

func (s *RedisProfileStore) key(userID string) string {
	return s.prefix + userID
}

// Load reads and decodes the profile of userID.
func (s *RedisProfileStore) Load(ctx context.Context, userID string) (domain.UserBehaviorProfile, error) {
	raw, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.UserBehaviorProfile{}, ports.ErrNotFound
	}
	if err != nil {
		return domain.UserBehaviorProfile{}, fmt.Errorf("get profile %s: %w", userID, err)
	}

	var profile domain.UserBehaviorProfile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return domain.UserBehaviorProfile{}, fmt.Errorf("%w: decode profile %s: %v", domain.ErrProfileCorrupt, userID, err)
	}
	return profile, nil
}

// Save encodes and writes profile.
func (s *RedisProfileStore) Save(ctx context.Context, profile domain.UserBehaviorProfile) error {
	payload, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile %s: %w", profile.UserID, err)
	}

	if err := s.client.Set(ctx, s.key(profile.UserID), payload, 0).Err(); err != nil {
		return fmt.Errorf("set profile %s: %w", profile.UserID, err)
	}
	return nil
}
