package cache_test

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/fileurl/internal/cache"
	"github.com/Sumatoshi-tech/fileurl/pkg/gitconfig"
)

func parseRecord(t *testing.T, text string) gitconfig.Record {
	t.Helper()

	rec, err := gitconfig.Parse(strings.NewReader(text))
	require.NoError(t, err)

	return rec
}

func TestRecordCache_GetPut(t *testing.T) {
	t.Parallel()

	c := cache.NewRecordCache(4)

	_, ok := c.Get("a")
	assert.False(t, ok)

	rec := parseRecord(t, "[core]\n\tbare = false\n")
	c.Put("a", rec)

	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, got.Len())

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.Entries)
	assert.InDelta(t, 0.5, stats.HitRate(), 0.001)
}

func TestRecordCache_EvictsLeastRecentlyUsed(t *testing.T) {
	t.Parallel()

	c := cache.NewRecordCache(2)

	c.Put("a", gitconfig.Record{})
	c.Put("b", gitconfig.Record{})

	// Touch "a" so "b" becomes the eviction victim.
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Put("c", gitconfig.Record{})

	_, ok = c.Get("b")
	assert.False(t, ok)

	_, ok = c.Get("a")
	assert.True(t, ok)

	_, ok = c.Get("c")
	assert.True(t, ok)

	assert.Equal(t, int64(1), c.Stats().Evictions)
}

func TestRecordCache_Clear(t *testing.T) {
	t.Parallel()

	c := cache.NewRecordCache(0)
	c.Put("a", gitconfig.Record{})
	c.Clear()

	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestRecordCache_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	c := cache.NewRecordCache(8)

	var wg sync.WaitGroup

	for i := range 16 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			key := string(rune('a' + i%10))
			c.Put(key, gitconfig.Record{})
			c.Get(key)
		}()
	}

	wg.Wait()

	assert.LessOrEqual(t, c.Stats().Entries, 8)
}

type countingReader struct {
	mu    sync.Mutex
	reads int
	files map[string]string
	fail  bool
}

func (r *countingReader) Read(dir, relPath string) (gitconfig.Record, error) {
	r.mu.Lock()
	r.reads++
	r.mu.Unlock()

	if r.fail {
		return gitconfig.Record{}, errors.New("disk on fire")
	}

	text, ok := r.files[dir+"/"+relPath]
	if !ok {
		return gitconfig.Record{}, nil
	}

	return gitconfig.Parse(strings.NewReader(text))
}

func TestReader_CachesHitsAndMisses(t *testing.T) {
	t.Parallel()

	inner := &countingReader{files: map[string]string{"/repo/.git/config": "[core]\n\tbare = false\n"}}
	r := cache.NewReader(inner, cache.NewRecordCache(16))

	for range 3 {
		rec, err := r.Read("/repo", ".git/config")
		require.NoError(t, err)
		assert.False(t, rec.Empty())

		rec, err = r.Read("/repo/src", ".git/config")
		require.NoError(t, err)
		assert.True(t, rec.Empty())
	}

	assert.Equal(t, 2, inner.reads)
	assert.Equal(t, int64(4), r.Stats().Hits)
}

func TestReader_DoesNotCacheErrors(t *testing.T) {
	t.Parallel()

	inner := &countingReader{fail: true}
	r := cache.NewReader(inner, cache.NewRecordCache(16))

	_, err := r.Read("/repo", ".git/config")
	require.Error(t, err)

	_, err = r.Read("/repo", ".git/config")
	require.Error(t, err)

	assert.Equal(t, 2, inner.reads)
}
