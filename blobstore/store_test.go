package blobstore

import (
	"fmt"
	"sync"
	"testing"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WeiyueSUN/packlens-audio-preview/metric"
)

func TestRegisterAndGet(t *testing.T) {
	store, err := New()
	require.NoError(t, err)

	payload := []byte{0x52, 0x49, 0x46, 0x46, 0x01, 0x02}
	handle := store.Register(payload, "audio/wav")
	require.NotEmpty(t, handle)

	entry, ok := store.Get(handle)
	require.True(t, ok)
	assert.Equal(t, payload, entry.Bytes)
	assert.Equal(t, "audio/wav", entry.MIMEKind)
	assert.Equal(t, handle, entry.Handle)
	assert.False(t, entry.RegisteredAt.IsZero())
}

func TestGetUnknownHandleFailsSoftly(t *testing.T) {
	store, err := New()
	require.NoError(t, err)

	entry, ok := store.Get("blob-999-nonexistent")
	assert.False(t, ok)
	assert.Nil(t, entry)
}

func TestHandleUniqueness(t *testing.T) {
	store, err := New()
	require.NoError(t, err)

	seen := make(map[Handle]struct{})
	for i := 0; i < 1000; i++ {
		h := store.Register([]byte{byte(i)}, "")
		_, dup := seen[h]
		require.False(t, dup, "handle %s issued twice", h)
		seen[h] = struct{}{}
	}
}

func TestHandlesNotReusedAcrossClearAll(t *testing.T) {
	store, err := New()
	require.NoError(t, err)

	before := store.Register([]byte{1}, "")
	store.ClearAll()
	after := store.Register([]byte{2}, "")

	assert.NotEqual(t, before, after)

	// The stale handle stays dead
	_, ok := store.Get(before)
	assert.False(t, ok)
}

func TestRelease(t *testing.T) {
	store, err := New()
	require.NoError(t, err)

	handle := store.Register([]byte{1, 2, 3}, "audio/mpeg")

	assert.True(t, store.Release(handle))

	_, ok := store.Get(handle)
	assert.False(t, ok)

	// Releasing again reports false, does not error
	assert.False(t, store.Release(handle))
}

func TestClearAll(t *testing.T) {
	store, err := New()
	require.NoError(t, err)

	handles := make([]Handle, 0, 5)
	for i := 0; i < 5; i++ {
		handles = append(handles, store.Register(make([]byte, 100), "audio/ogg"))
	}
	require.Equal(t, 5, store.Stats().Count)

	store.ClearAll()

	stats := store.Stats()
	assert.Equal(t, 0, stats.Count)
	assert.Equal(t, int64(0), stats.TotalBytes)

	for _, h := range handles {
		_, ok := store.Get(h)
		assert.False(t, ok)
	}
}

func TestStats(t *testing.T) {
	store, err := New()
	require.NoError(t, err)

	store.Register(make([]byte, 100), "audio/wav")
	h := store.Register(make([]byte, 50), "audio/flac")

	stats := store.Stats()
	assert.Equal(t, 2, stats.Count)
	assert.Equal(t, int64(150), stats.TotalBytes)

	store.Release(h)
	stats = store.Stats()
	assert.Equal(t, 1, stats.Count)
	assert.Equal(t, int64(100), stats.TotalBytes)
}

func TestStatisticsCounters(t *testing.T) {
	store, err := New()
	require.NoError(t, err)

	h := store.Register(make([]byte, 10), "")
	store.Get(h)
	store.Get("blob-0-missing")
	store.Release(h)

	stats := store.Statistics()
	assert.Equal(t, int64(1), stats.Registers())
	assert.Equal(t, int64(1), stats.Hits())
	assert.Equal(t, int64(1), stats.Misses())
	assert.Equal(t, int64(1), stats.Releases())
	assert.Equal(t, int64(10), stats.BytesIn())
	assert.Equal(t, int64(0), stats.CurrentBytes())
	assert.InDelta(t, 0.5, stats.HitRate(), 0.001)
}

func TestReleaseCallback(t *testing.T) {
	var mu sync.Mutex
	var released []Handle

	store, err := New(WithReleaseCallback(func(entry *Entry) {
		mu.Lock()
		released = append(released, entry.Handle)
		mu.Unlock()
	}))
	require.NoError(t, err)

	h1 := store.Register([]byte{1}, "")
	h2 := store.Register([]byte{2}, "")
	h3 := store.Register([]byte{3}, "")

	store.Release(h1)
	store.ClearAll()

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, released, 3)
	assert.Contains(t, released, h1)
	assert.Contains(t, released, h2)
	assert.Contains(t, released, h3)
}

func TestWithMetrics(t *testing.T) {
	registry := metric.NewMetricsRegistry()

	store, err := New(WithMetrics(registry, "viewer"))
	require.NoError(t, err)

	h := store.Register(make([]byte, 42), "audio/aac")
	store.Get(h)

	families, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, fam := range families {
		names[fam.GetName()] = true
	}
	assert.True(t, names["packlens_blobstore_registers_total"])
	assert.True(t, names["packlens_blobstore_bytes"])

	// Registrations also feed the core counter
	assert.Equal(t, float64(1), promtestutil.ToFloat64(registry.CoreMetrics().BlobsRegistered))
}

func TestConcurrentAccess(t *testing.T) {
	store, err := New()
	require.NoError(t, err)

	var writers, readers sync.WaitGroup
	handles := make(chan Handle, 100)

	// Writers: externalization path
	for i := 0; i < 10; i++ {
		writers.Add(1)
		go func(n int) {
			defer writers.Done()
			for j := 0; j < 10; j++ {
				handles <- store.Register([]byte(fmt.Sprintf("payload-%d-%d", n, j)), "audio/mpeg")
			}
		}(i)
	}

	// Readers: blob consumers
	for i := 0; i < 4; i++ {
		readers.Add(1)
		go func() {
			defer readers.Done()
			for h := range handles {
				entry, ok := store.Get(h)
				if ok {
					_ = entry.Bytes
				}
			}
		}()
	}

	writers.Wait()
	close(handles)
	readers.Wait()

	assert.Equal(t, 100, store.Stats().Count)
}
