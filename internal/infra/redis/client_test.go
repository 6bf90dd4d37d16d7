package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"perfumeshop/internal/config"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCmdable struct {
	incr        map[string]int64
	expireCalls []string
	incrErr     error
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{incr: map[string]int64{}}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Incr(_ context.Context, key string) *redis.IntCmd {
	if m.incrErr != nil {
		return redis.NewIntResult(0, m.incrErr)
	}
	m.incr[key]++
	return redis.NewIntResult(m.incr[key], nil)
}

func (m *mockCmdable) Expire(_ context.Context, key string, _ time.Duration) *redis.BoolCmd {
	m.expireCalls = append(m.expireCalls, key)
	return redis.NewBoolResult(true, nil)
}

func TestFixedWindowAllow(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	c := &Client{store: mock}

	allowed, count, err := c.FixedWindowAllow(ctx, "login:1.2.3.4", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, []string{"ps:rate_limit:login:1.2.3.4"}, mock.expireCalls)

	allowed, _, err = c.FixedWindowAllow(ctx, "login:1.2.3.4", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Len(t, mock.expireCalls, 1)

	allowed, count, err = c.FixedWindowAllow(ctx, "login:1.2.3.4", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, int64(3), count)
}

func TestFixedWindowAllow_Error(t *testing.T) {
	mock := newMockCmdable()
	mock.incrErr = errors.New("conn refused")
	c := &Client{store: mock}

	allowed, _, err := c.FixedWindowAllow(context.Background(), "x", 1, time.Minute)
	assert.Error(t, err)
	assert.False(t, allowed)
}

func TestOptionsFromConfig(t *testing.T) {
	_, err := optionsFromConfig(config.RedisConfig{})
	assert.Error(t, err)

	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6379/2", PoolSize: 7})
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 7, opts.PoolSize)
}

func TestNilClient(t *testing.T) {
	c := &Client{}
	assert.Error(t, c.Ping(context.Background()))
	assert.NoError(t, c.Close())
}
