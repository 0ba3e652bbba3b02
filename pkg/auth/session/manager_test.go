package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huellitas/huellitas-backend/pkg/config"
	redisclient "github.com/huellitas/huellitas-backend/pkg/redis"
)

type mockStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string]string)}
}

func (m *mockStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	return nil
}

func (m *mockStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return val, nil
}

func (m *mockStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *mockStore) AccessSessionKey(accessID string) string {
	return "sess:" + accessID
}

func newTestManager() (*Manager, *mockStore) {
	store := newMockStore()
	return &Manager{store: store, ttl: time.Hour, now: time.Now}, store
}

func TestManagerGenerateAndRotate(t *testing.T) {
	manager, store := newTestManager()
	ctx := context.Background()
	userID := uuid.New()

	token, err := manager.Generate(ctx, "access-123", userID)
	require.NoError(t, err)
	stored := store.data["sess:access-123"]
	assert.NotContains(t, stored, token, "only a digest of the refresh token is stored")
	assert.Contains(t, stored, userID.String())

	_, _, err = manager.Rotate(ctx, "access-123", userID, "wrong")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	_, _, err = manager.Rotate(ctx, "access-123", uuid.New(), token)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken, "token is bound to its owner")

	newAccessID, newToken, err := manager.Rotate(ctx, "access-123", userID, token)
	require.NoError(t, err)
	assert.NotContains(t, store.data, "sess:access-123")
	assert.Contains(t, store.data, "sess:"+newAccessID)
	assert.NotEqual(t, token, newToken)

	_, _, err = manager.Rotate(ctx, "access-123", userID, token)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken, "old session cannot be replayed")
}

func TestManagerRevokeAndHasSession(t *testing.T) {
	manager, _ := newTestManager()
	ctx := context.Background()

	_, err := manager.Generate(ctx, "access-1", uuid.New())
	require.NoError(t, err)

	ok, err := manager.HasSession(ctx, "access-1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, manager.Revoke(ctx, "access-1"))
	ok, err = manager.HasSession(ctx, "access-1")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = manager.HasSession(ctx, " ")
	assert.Error(t, err)
}

func TestNewManagerValidatesTTL(t *testing.T) {
	_, err := NewManager(nil, config.JWTConfig{})
	assert.Error(t, err)

	_, err = NewManager(&redisclient.Client{}, config.JWTConfig{ExpirationMinutes: 60, RefreshTokenTTLMinutes: 30})
	assert.Error(t, err)
}

func TestRotateRejectsCorruptRecord(t *testing.T) {
	manager, store := newTestManager()
	store.data["sess:broken"] = "userid|token"

	_, _, err := manager.Rotate(context.Background(), "broken", uuid.New(), "token")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}
