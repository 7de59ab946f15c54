package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores rendered charts and other derived values per snapshot
// ⭐ SSOT: 캐시 헬퍼는 여기서만
type Cache struct {
	client *Client
	prefix string
}

// NewCache creates a new cache helper
func NewCache(client *Client, prefix string) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
	}
}

func (c *Cache) key(key string) string {
	return fmt.Sprintf("%s:cache:%s", c.prefix, key)
}

// GetBytes returns a raw cached value. A miss is (nil, false, nil).
func (c *Cache) GetBytes(ctx context.Context, key string) ([]byte, bool, error) {
	if !c.client.Enabled() {
		return nil, false, nil
	}

	data, err := c.client.Redis().Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get failed: %w", err)
	}
	return data, true, nil
}

// SetBytes stores a raw value with TTL
func (c *Cache) SetBytes(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if !c.client.Enabled() {
		return nil
	}
	return c.client.Redis().Set(ctx, c.key(key), data, ttl).Err()
}

// Get decodes a cached JSON value into dest
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, found, err := c.GetBytes(ctx, key)
	if err != nil || !found {
		return false, err
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal failed: %w", err)
	}
	return true, nil
}

// Set stores value as JSON with TTL
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.client.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}
	return c.SetBytes(ctx, key, data, ttl)
}

// Delete removes a cached value
func (c *Cache) Delete(ctx context.Context, key string) error {
	if !c.client.Enabled() {
		return nil
	}
	return c.client.Redis().Del(ctx, c.key(key)).Err()
}

// TTLChart applies to rendered charts and chart specs
const TTLChart = 30 * time.Minute // 스냅샷 ID가 키에 들어가므로 길게

// ChartKey identifies one rendered chart of one snapshot.
// Stock order does not matter.
func ChartKey(snapshotID, feature string, stocks []string, width, height int) string {
	return fmt.Sprintf("chart:%s:%dx%d", selectionKey(snapshotID, feature, stocks), width, height)
}

// ChartSpecKey identifies the series data of one chart of one snapshot
func ChartSpecKey(snapshotID, feature string, stocks []string) string {
	return "chartspec:" + selectionKey(snapshotID, feature, stocks)
}

func selectionKey(snapshotID, feature string, stocks []string) string {
	sorted := append([]string(nil), stocks...)
	sort.Strings(sorted)
	return fmt.Sprintf("%s:%s:%s", snapshotID, strings.ToLower(feature), strings.Join(sorted, ","))
}
