package redis

import (
	"context"
	"net"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stockdash/pkg/config"
)

func TestNewClient_Disabled(t *testing.T) {
	client, err := New(context.Background(), config.RedisConfig{Enabled: false})
	require.NoError(t, err)
	assert.False(t, client.Enabled())
	assert.NoError(t, client.Close())

	var nilClient *Client
	assert.False(t, nilClient.Enabled())
}

func TestRateLimiter_Disabled(t *testing.T) {
	limiter := NewRateLimiter(Disabled(), "test")
	cfg := UploadRateLimit("127.0.0.1", 3, time.Minute)

	for i := 0; i < 10; i++ {
		allowed, remaining, err := limiter.Allow(context.Background(), cfg)
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.Equal(t, 3, remaining)
	}
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(Disabled(), "test")
	ctx := context.Background()

	require.NoError(t, cache.SetBytes(ctx, "k", []byte("png"), time.Minute))
	data, found, err := cache.GetBytes(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, data)

	var dest map[string]string
	found, err = cache.Get(ctx, "k", &dest)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, cache.Delete(ctx, "k"))
}

func TestChartKey(t *testing.T) {
	a := ChartKey("snap", "Volume", []string{"FB", "AAPL"}, 800, 400)
	b := ChartKey("snap", "volume", []string{"AAPL", "FB"}, 800, 400)

	assert.Equal(t, "chart:snap:volume:AAPL,FB:800x400", a)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, ChartKey("other", "Volume", []string{"AAPL", "FB"}, 800, 400))
}

func TestChartSpecKey(t *testing.T) {
	a := ChartSpecKey("snap", "Adj Close", []string{"FB", "AAPL"})

	assert.Equal(t, "chartspec:snap:adj close:AAPL,FB", a)
	assert.Equal(t, a, ChartSpecKey("snap", "adj close", []string{"AAPL", "FB"}))
	assert.NotEqual(t, a, ChartKey("snap", "Adj Close", []string{"AAPL", "FB"}, 800, 400))
}

func TestUploadRateLimit(t *testing.T) {
	cfg := UploadRateLimit("10.0.0.1", 5, time.Minute)
	assert.Equal(t, "upload:10.0.0.1", cfg.Key)
	assert.Equal(t, 5, cfg.Limit)
}

// Integration tests against a live Redis
func liveClient(t *testing.T) *Client {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" || testing.Short() {
		t.Skip("REDIS_ADDR not set, skipping integration test")
	}
	host, port, err := net.SplitHostPort(addr)
	require.NoError(t, err)

	client, err := New(context.Background(), config.RedisConfig{Host: host, Port: port, Enabled: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRateLimiter_Live(t *testing.T) {
	client := liveClient(t)
	limiter := NewRateLimiter(client, "stockdash-test")
	cfg := UploadRateLimit(time.Now().Format(time.RFC3339Nano), 2, time.Minute)
	ctx := context.Background()

	allowed, remaining, err := limiter.Allow(ctx, cfg)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 1, remaining)

	allowed, _, err = limiter.Allow(ctx, cfg)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, _, err = limiter.Allow(ctx, cfg)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestCache_Live(t *testing.T) {
	client := liveClient(t)
	cache := NewCache(client, "stockdash-test")
	ctx := context.Background()

	key := "png:" + time.Now().Format(time.RFC3339Nano)
	require.NoError(t, cache.SetBytes(ctx, key, []byte{0x89, 'P', 'N', 'G'}, time.Minute))

	data, found, err := cache.GetBytes(ctx, key)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, data)

	require.NoError(t, cache.Delete(ctx, key))
	_, found, err = cache.GetBytes(ctx, key)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCache_LiveJSON(t *testing.T) {
	client := liveClient(t)
	cache := NewCache(client, "stockdash-test")
	ctx := context.Background()

	type series struct {
		Name string    `json:"name"`
		Y    []float64 `json:"y"`
	}

	key := ChartSpecKey(time.Now().Format(time.RFC3339Nano), "Volume", []string{"AAPL"})
	require.NoError(t, cache.Set(ctx, key, series{Name: "AAPL", Y: []float64{100, 200}}, time.Minute))

	var got series
	found, err := cache.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []float64{100, 200}, got.Y)

	// a corrupt entry reports an error rather than a hit
	require.NoError(t, cache.SetBytes(ctx, key, []byte("{"), time.Minute))
	found, err = cache.Get(ctx, key, &got)
	assert.Error(t, err)
	assert.False(t, found)
	require.NoError(t, cache.Delete(ctx, key))
}
