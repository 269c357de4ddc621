package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"smartroll-attendance-svc/src/internal/config"
	"smartroll-attendance-svc/src/internal/models"
	"smartroll-attendance-svc/src/internal/session"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Service caches session records. Sessions are immutable once heartbeats
// reference them, so a cached copy never goes stale within its TTL.
type Service interface {
	GetSession(ctx context.Context, sessionID string) (*session.Session, error)
	CacheSession(ctx context.Context, s *session.Session) error
}

type cacheService struct {
	client *redis.Client
	cfg    *config.CacheConfig
}

func NewCacheService(client *redis.Client, cfg *config.Configuration) Service {
	return &cacheService{
		client: client,
		cfg:    &cfg.Cache,
	}
}

func (c *cacheService) key(sessionID string) string {
	return fmt.Sprintf("%s:%s", c.cfg.SessionKeyPrefix, sessionID)
}

func (c *cacheService) GetSession(ctx context.Context, sessionID string) (*session.Session, error) {
	key := c.key(sessionID)

	data, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			logrus.WithField("key", key).Debug("Session not found in cache")
			return nil, nil // Not an error, just not found
		}
		logrus.WithError(err).WithField("key", key).Error("Failed to get session from cache")
		return nil, models.ErrRedisGet
	}

	var s session.Session
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		logrus.WithError(err).WithField("key", key).Error("Failed to unmarshal session from cache")
		return nil, models.ErrRedisGet
	}

	return &s, nil
}

func (c *cacheService) CacheSession(ctx context.Context, s *session.Session) error {
	if c.cfg.SessionExpirationMinutes <= 0 {
		return nil
	}

	data, err := json.Marshal(s)
	if err != nil {
		logrus.WithError(err).WithField("session_id", s.ID).Error("Failed to marshal session for cache")
		return models.ErrRedisSet
	}

	expiration := time.Duration(c.cfg.SessionExpirationMinutes) * time.Minute
	if err := c.client.Set(ctx, c.key(s.ID), data, expiration).Err(); err != nil {
		logrus.WithError(err).WithField("session_id", s.ID).Error("Failed to cache session")
		return models.ErrRedisSet
	}

	logrus.WithField("session_id", s.ID).Debug("Session cached successfully")
	return nil
}
