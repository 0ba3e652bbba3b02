package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huellitas/huellitas-backend/pkg/config"
)

func TestHitArmsWindowOnFirstRequest(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	w, err := client.Hit(ctx, "login:ip:1.2.3.4", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, w.Allowed())
	assert.EqualValues(t, 1, w.Remaining())
	assert.Equal(t, time.Minute, w.ResetIn)
	require.Len(t, mock.expireCalls, 1)
	assert.Equal(t, "hl:rate_limit:login:ip:1.2.3.4", mock.expireCalls[0].key)

	mock.pttl["hl:rate_limit:login:ip:1.2.3.4"] = 20 * time.Second
	w, err = client.Hit(ctx, "login:ip:1.2.3.4", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, w.Allowed())
	assert.EqualValues(t, 0, w.Remaining())
	assert.Equal(t, 20*time.Second, w.ResetIn)
	assert.Len(t, mock.expireCalls, 1, "expire is only set on the first hit")

	w, err = client.Hit(ctx, "login:ip:1.2.3.4", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, w.Allowed())
	assert.EqualValues(t, 3, w.Count)
}

func TestSetGetDel(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newMockCmdable()}

	require.NoError(t, client.Set(ctx, client.AccessSessionKey("jti-1"), "refresh", time.Minute))
	value, err := client.Get(ctx, client.AccessSessionKey("jti-1"))
	require.NoError(t, err)
	assert.Equal(t, "refresh", value)

	require.NoError(t, client.Del(ctx, client.AccessSessionKey("jti-1")))
	_, err = client.Get(ctx, client.AccessSessionKey("jti-1"))
	assert.ErrorIs(t, err, redis.Nil)
}

func TestSetNXOnlyOnce(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newMockCmdable()}

	ok, err := client.SetNX(ctx, client.LockKey("cron"), "a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = client.SetNX(ctx, client.LockKey("cron"), "b", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUninitializedClient(t *testing.T) {
	client := &Client{}
	assert.ErrorIs(t, client.Ping(context.Background()), errNotInitialized)
	assert.Error(t, client.Set(context.Background(), "k", "v", 0))
	assert.NoError(t, client.Close())

	var nilClient *Client
	assert.ErrorIs(t, nilClient.Del(context.Background(), "k"), errNotInitialized)
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	assert.Equal(t, "hl:idempotency:adoption_submit:key-1", client.IdempotencyKey("adoption_submit", "key-1"))
	assert.Equal(t, "hl:rate_limit:scope", client.RateLimitKey("scope"))
	assert.Equal(t, "hl:lock:cron-worker", client.LockKey("cron-worker"))
	assert.Equal(t, "hl:session:access:abc", client.AccessSessionKey("abc"))
	assert.Equal(t, "hl:session:access", client.AccessSessionKey(""), "empty parts are skipped")
}

func TestOptionsFromConfig(t *testing.T) {
	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6379/2", PoolSize: 7})
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 7, opts.PoolSize)

	opts, err = optionsFromConfig(config.RedisConfig{Address: "cache:6380", DB: 3, ReadTimeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, 3, opts.DB)
	assert.Equal(t, time.Second, opts.ReadTimeout)

	_, err = optionsFromConfig(config.RedisConfig{})
	assert.Error(t, err)
}

type mockCmdable struct {
	data        map[string]string
	incr        map[string]int64
	pttl        map[string]time.Duration
	expireCalls []expireCall
}

type expireCall struct {
	key string
	ttl time.Duration
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data: make(map[string]string),
		incr: make(map[string]int64),
		pttl: make(map[string]time.Duration),
	}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Incr(ctx context.Context, key string) *redis.IntCmd {
	m.incr[key]++
	return redis.NewIntResult(m.incr[key], nil)
}

func (m *mockCmdable) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	m.expireCalls = append(m.expireCalls, expireCall{key: key, ttl: expiration})
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) PTTL(ctx context.Context, key string) *redis.DurationCmd {
	ttl, ok := m.pttl[key]
	if !ok {
		return redis.NewDurationResult(-1, nil)
	}
	return redis.NewDurationResult(ttl, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}
