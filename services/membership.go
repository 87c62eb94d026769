package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/BanhTuanKiet/ProjectManagement-sub001/models"
	"github.com/BanhTuanKiet/ProjectManagement-sub001/utils"
)

const membershipKeyPrefix = "membership:"

// MembershipStore resolves the projects a user belongs to. The data is
// owned by the CRUD layer; this service takes a snapshot per connection.
type MembershipStore interface {
	ListProjectIDsForUser(ctx context.Context, userID string) ([]string, error)
}

// GormMembershipStore reads memberships from the project_members table.
type GormMembershipStore struct {
	db *gorm.DB
}

func NewGormMembershipStore(db *gorm.DB) *GormMembershipStore {
	return &GormMembershipStore{db: db}
}

func (s *GormMembershipStore) ListProjectIDsForUser(ctx context.Context, userID string) ([]string, error) {
	var projectIDs []string
	err := s.db.WithContext(ctx).
		Model(&models.ProjectMember{}).
		Where("user_id = ?", userID).
		Pluck("project_id", &projectIDs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships for user %s: %w", userID, err)
	}
	return projectIDs, nil
}

// membershipCache is the slice of Redis the read-through cache needs.
// A miss is reported as redis.Nil.
type membershipCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type redisCache struct {
	client *redis.Client
}

func (c redisCache) Get(ctx context.Context, key string) (string, error) {
	return c.client.Get(ctx, key).Result()
}

func (c redisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// CachedMembershipStore puts a Redis read-through cache in front of
// another store. Cache errors are logged and fall through to the
// underlying store; only the underlying store's failure is surfaced.
type CachedMembershipStore struct {
	store  MembershipStore
	cache  membershipCache
	ttl    time.Duration
	logger *utils.Logger
}

func NewCachedMembershipStore(store MembershipStore, redisClient *redis.Client, ttl time.Duration, logger *utils.Logger) *CachedMembershipStore {
	return &CachedMembershipStore{
		store:  store,
		cache:  redisCache{client: redisClient},
		ttl:    ttl,
		logger: logger,
	}
}

func (s *CachedMembershipStore) ListProjectIDsForUser(ctx context.Context, userID string) ([]string, error) {
	key := membershipKeyPrefix + userID

	data, err := s.cache.Get(ctx, key)
	if err == nil {
		var projectIDs []string
		if err := json.Unmarshal([]byte(data), &projectIDs); err == nil {
			return projectIDs, nil
		}
		s.logger.Warn("discarding unreadable membership cache entry", "user_id", userID)
	} else if err != redis.Nil {
		s.logger.Warn("membership cache read failed", "user_id", userID, "error", err)
	}

	projectIDs, err := s.store.ListProjectIDsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(projectIDs); err == nil {
		if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
			s.logger.Debug("membership cache write failed", "user_id", userID, "error", err)
		}
	}

	return projectIDs, nil
}
