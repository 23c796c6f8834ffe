package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/therealutkarshpriyadarshi/mediagate/pkg/models"
)

const mediaInfoPrefix = "mediainfo:"

// Cache provides caching functionality using Redis
type Cache struct {
	client *redis.Client
}

// NewCache creates a new cache instance
func NewCache(host string, port int, password string, db int) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Cache{client: client}, nil
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	return c.client.Close()
}

// Ping checks the connection
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// MediaInfoKey returns the redis key for a source URL. URLs are hashed so
// arbitrary user input never ends up in key names.
func MediaInfoKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return mediaInfoPrefix + hex.EncodeToString(sum[:])
}

// SetMediaInfo caches resolved metadata
func (c *Cache) SetMediaInfo(ctx context.Context, url string, info *models.MediaInfo, ttl time.Duration) error {
	return c.setJSON(ctx, MediaInfoKey(url), info, ttl)
}

// GetMediaInfo retrieves metadata from cache. A miss returns nil, nil.
func (c *Cache) GetMediaInfo(ctx context.Context, url string) (*models.MediaInfo, error) {
	var info models.MediaInfo
	found, err := c.getJSON(ctx, MediaInfoKey(url), &info)
	if err != nil || !found {
		return nil, err
	}
	return &info, nil
}

// DeleteMediaInfo removes cached metadata for url
func (c *Cache) DeleteMediaInfo(ctx context.Context, url string) error {
	return c.client.Del(ctx, MediaInfoKey(url)).Err()
}

func (c *Cache) setJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}

func (c *Cache) getJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil // Cache miss
		}
		return false, fmt.Errorf("failed to get value from cache: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal value: %w", err)
	}

	return true, nil
}
