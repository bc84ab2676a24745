package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheKey_Stable(t *testing.T) {
	a := CacheKey("groq|llama|prompt")
	b := CacheKey("groq|llama|prompt")
	c := CacheKey("groq|llama|other")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.True(t, strings.HasPrefix(a, "persona:v1:"))
}

func TestDiskCache_SetGet(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)
	key := CacheKey("x")

	_, found := c.Get(key)
	assert.False(t, found)

	require.NoError(t, c.Set(key, []byte("value"), 0))
	val, found := c.Get(key)
	require.True(t, found)
	assert.Equal(t, "value", string(val))

	require.NoError(t, c.Delete(key))
	require.NoError(t, c.Delete(key))
	_, found = c.Get(key)
	assert.False(t, found)
}

func TestDiskCache_Expiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewDiskCache(t.TempDir(), time.Hour)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set("k", []byte("v"), time.Minute))
	_, found := c.Get("k")
	assert.True(t, found)

	now = now.Add(2 * time.Minute)
	_, found = c.Get("k")
	assert.False(t, found)
}

func TestDiskCache_CorruptEntryIsMiss(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "k.cache"), []byte("not json"), 0644))

	_, found := c.Get("k")
	assert.False(t, found)
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	require.NoError(t, c.Set("k", []byte("v"), 0))

	val, found := c.Get("k")
	require.True(t, found)
	assert.Equal(t, "v", string(val))

	require.NoError(t, c.Clear())
	_, found = c.Get("k")
	assert.False(t, found)
}

func TestMemoryCache_CopiesValues(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	in := []byte("persona")
	require.NoError(t, c.Set("k", in, 0))
	in[0] = 'X'

	out, found := c.Get("k")
	require.True(t, found)
	assert.Equal(t, "persona", string(out))

	out[0] = 'Y'
	again, _ := c.Get("k")
	assert.Equal(t, "persona", string(again))
	assert.Equal(t, 1, c.Len())

	require.NoError(t, c.Delete("k"))
	assert.Equal(t, 0, c.Len())
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, NewDiskCache(dir, time.Hour).Set("k", []byte("v"), 0))

	c := NewLayeredCache(time.Minute, dir, time.Hour)
	val, found := c.Get("k")
	require.True(t, found)
	assert.Equal(t, "v", string(val))

	require.NoError(t, os.RemoveAll(dir))
	val, found = c.Get("k")
	require.True(t, found)
	assert.Equal(t, "v", string(val))
}
