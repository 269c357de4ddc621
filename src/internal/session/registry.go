package session

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Cache stores session records. A miss is reported as (nil, nil).
type Cache interface {
	GetSession(ctx context.Context, sessionID string) (*Session, error)
	CacheSession(ctx context.Context, session *Session) error
}

// Registry resolves sessions, reading through the cache when one is set.
type Registry interface {
	GetByID(ctx context.Context, sessionID string) (*Session, error)
}

type registry struct {
	repo  Repository
	cache Cache
}

func NewRegistry(repo Repository, cache Cache) Registry {
	return &registry{repo: repo, cache: cache}
}

func (r *registry) GetByID(ctx context.Context, sessionID string) (*Session, error) {
	if r.cache != nil {
		cached, err := r.cache.GetSession(ctx, sessionID)
		if err == nil && cached != nil {
			return cached, nil
		}
		if err != nil {
			logrus.WithError(err).WithField("session_id", sessionID).Warn("Session cache read failed, using database")
		}
	}

	session, err := r.repo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		if err := r.cache.CacheSession(ctx, session); err != nil {
			logrus.WithError(err).WithField("session_id", sessionID).Warn("Failed to cache session")
		}
	}

	return session, nil
}
