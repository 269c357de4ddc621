package session

import (
	"context"
	"errors"
	"testing"

	"smartroll-attendance-svc/src/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	sessions map[string]*Session
	calls    int
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (*Session, error) {
	f.calls++
	s, ok := f.sessions[id]
	if !ok {
		return nil, models.ErrSessionNotFound
	}
	return s, nil
}

type fakeCache struct {
	stored  map[string]*Session
	readErr error
}

func (f *fakeCache) GetSession(_ context.Context, id string) (*Session, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.stored[id], nil
}

func (f *fakeCache) CacheSession(_ context.Context, s *Session) error {
	f.stored[s.ID] = s
	return nil
}

func TestRegistryReadThrough(t *testing.T) {
	repo := &fakeRepo{sessions: map[string]*Session{"s-1": {ID: "s-1", StartTime: at(9, 0)}}}
	cache := &fakeCache{stored: map[string]*Session{}}
	reg := NewRegistry(repo, cache)
	ctx := context.Background()

	s, err := reg.GetByID(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, "s-1", s.ID)
	assert.Equal(t, 1, repo.calls)
	assert.Contains(t, cache.stored, "s-1")

	_, err = reg.GetByID(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.calls, "second lookup should be served from cache")
}

func TestRegistryNotFound(t *testing.T) {
	reg := NewRegistry(&fakeRepo{sessions: map[string]*Session{}}, &fakeCache{stored: map[string]*Session{}})

	_, err := reg.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrSessionNotFound)
}

func TestRegistryCacheFailureFallsBack(t *testing.T) {
	repo := &fakeRepo{sessions: map[string]*Session{"s-1": {ID: "s-1"}}}
	cache := &fakeCache{stored: map[string]*Session{}, readErr: errors.New("redis down")}

	s, err := NewRegistry(repo, cache).GetByID(context.Background(), "s-1")
	require.NoError(t, err)
	assert.Equal(t, "s-1", s.ID)
}

func TestRegistryWithoutCache(t *testing.T) {
	repo := &fakeRepo{sessions: map[string]*Session{"s-1": {ID: "s-1"}}}

	s, err := NewRegistry(repo, nil).GetByID(context.Background(), "s-1")
	require.NoError(t, err)
	assert.Equal(t, "s-1", s.ID)
}
