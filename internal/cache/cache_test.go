package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/therealutkarshpriyadarshi/mediagate/pkg/models"
)

func setupTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	// Create a mini Redis server for testing
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	cache, err := NewCache(mr.Host(), mr.Server().Addr().Port, "", 0)
	if err != nil {
		mr.Close()
		t.Fatalf("Failed to create cache: %v", err)
	}

	return cache, mr
}

func TestNewCache(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()
	defer cache.Close()

	require.NotNil(t, cache)
	assert.NoError(t, cache.Ping(context.Background()))
}

func TestNewCacheUnreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	host, port := mr.Host(), mr.Server().Addr().Port
	mr.Close()

	_, err = NewCache(host, port, "", 0)
	assert.Error(t, err)
}

func TestMediaInfoKey(t *testing.T) {
	key := MediaInfoKey("https://youtu.be/abc123")

	assert.True(t, strings.HasPrefix(key, "mediainfo:"))
	assert.Len(t, key, len("mediainfo:")+64)
	assert.Equal(t, key, MediaInfoKey("https://youtu.be/abc123"))
	assert.NotEqual(t, key, MediaInfoKey("https://youtu.be/abc124"))
}

func TestCache_MediaInfoOperations(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()
	defer cache.Close()

	ctx := context.Background()
	url := "https://youtu.be/abc123"

	// Miss
	got, err := cache.GetMediaInfo(ctx, url)
	require.NoError(t, err)
	assert.Nil(t, got)

	duration := int64(213)
	height := 1080
	info := &models.MediaInfo{
		ID:         "abc123",
		Title:      "Sample",
		Duration:   &duration,
		Thumbnails: []string{"https://i.ytimg.com/vi/abc123/maxresdefault.jpg"},
		Formats: []models.Rendition{
			{FormatID: "137", Ext: "mp4", Height: &height},
			{FormatID: "140", Ext: "m4a"},
		},
		Extractor: "youtube",
	}

	require.NoError(t, cache.SetMediaInfo(ctx, url, info, 10*time.Minute))
	assert.True(t, mr.Exists(MediaInfoKey(url)))
	assert.Equal(t, 10*time.Minute, mr.TTL(MediaInfoKey(url)))

	got, err = cache.GetMediaInfo(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, info, got)
	assert.Nil(t, got.Formats[1].Height)

	require.NoError(t, cache.DeleteMediaInfo(ctx, url))
	got, err = cache.GetMediaInfo(ctx, url)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCache_MediaInfoExpires(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()
	defer cache.Close()

	ctx := context.Background()
	url := "https://youtu.be/abc123"

	require.NoError(t, cache.SetMediaInfo(ctx, url, &models.MediaInfo{ID: "abc123"}, time.Minute))
	mr.FastForward(2 * time.Minute)

	got, err := cache.GetMediaInfo(ctx, url)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCache_CorruptEntry(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()
	defer cache.Close()

	url := "https://youtu.be/abc123"
	require.NoError(t, mr.Set(MediaInfoKey(url), "{not json"))

	_, err := cache.GetMediaInfo(context.Background(), url)
	assert.Error(t, err)
}
