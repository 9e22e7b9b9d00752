package service

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ludo-technologies/cloneval/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestSourceCache_LoadHitsAfterFirstMiss(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, "T1.csv", "d,A.java,1,5,d,B.java,10,20\n")

	cache, err := NewSourceCache(4)
	require.NoError(t, err)

	first, cached, err := cache.Load(context.Background(), path, domain.SourceSettings{})
	require.NoError(t, err)
	assert.False(t, cached)
	assert.True(t, first.Map.Contains("A_1_5.java", "B_10_20.java"))

	second, cached, err := cache.Load(context.Background(), path, domain.SourceSettings{})
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Same(t, first, second)

	hits, misses := cache.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestSourceCache_SettingsAreKeyed(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, "pairs.csv", "d,a.test.java,1,5,d,b.java,1,5\n")

	cache, err := NewSourceCache(4)
	require.NoError(t, err)

	first, _, err := cache.Load(context.Background(), path, domain.SourceSettings{Normalizer: domain.NormalizerFirstDot})
	require.NoError(t, err)
	last, cached, err := cache.Load(context.Background(), path, domain.SourceSettings{Normalizer: domain.NormalizerLastDot})
	require.NoError(t, err)

	assert.False(t, cached)
	assert.True(t, first.Map.Has("a_1_5.java"))
	assert.True(t, last.Map.Has("a.test_1_5.java"))
	assert.Equal(t, 2, cache.Len())
}

func TestSourceCache_FailuresAreNotCached(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "late.csv")

	cache, err := NewSourceCache(4)
	require.NoError(t, err)

	_, _, err = cache.Load(context.Background(), path, domain.SourceSettings{})
	require.Error(t, err)
	assert.True(t, domain.HasErrorCode(err, domain.ErrCodeFileNotFound))

	writeFixture(t, dir, "late.csv", "d,A.java,1,2,d,B.java,3,4\n")
	r, cached, err := cache.Load(context.Background(), path, domain.SourceSettings{})
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 1, r.Accepted)
}

func TestSourceCache_InvalidSettings(t *testing.T) {
	cache, err := NewSourceCache(1)
	require.NoError(t, err)

	_, _, err = cache.Load(context.Background(), "x.csv", domain.SourceSettings{Normalizer: "middle"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown normalizer")
}

func TestSourceCache_LoadSample(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, "sample_0.txt", "A_1_5.java\nsub/B_10_20.java\n\n")

	cache, err := NewSourceCache(2)
	require.NoError(t, err)

	subset, cached, err := cache.LoadSample(context.Background(), path)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, []domain.FragmentID{"A_1_5.java", "B_10_20.java"}, subset.IDs())

	_, cached, err = cache.LoadSample(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, cached)

	cache.Purge()
	assert.Equal(t, 0, cache.Len())
}

func TestSourceCache_ConcurrentLoads(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, "T2.csv", "d,A.java,1,5,d,B.java,10,20\nd,A.java,1,5,d,C.java,3,9\n")

	cache, err := NewSourceCache(4)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, _, err := cache.Load(context.Background(), path, domain.SourceSettings{})
			assert.NoError(t, err)
			assert.Equal(t, 2, r.Map.Degree("A_1_5.java"))
		}()
	}
	wg.Wait()

	hits, misses := cache.Stats()
	assert.Equal(t, int64(1), misses, "the file is parsed once")
	assert.Equal(t, int64(15), hits)
	assert.Equal(t, 1, cache.Len())
}
