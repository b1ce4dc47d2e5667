package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WeiyueSUN/packlens-audio-preview/decode"
	"github.com/WeiyueSUN/packlens-audio-preview/errors"
	"github.com/WeiyueSUN/packlens-audio-preview/externalize"
	"github.com/WeiyueSUN/packlens-audio-preview/metric"
	"github.com/WeiyueSUN/packlens-audio-preview/testutil"
)

func TestNewValidation(t *testing.T) {
	_, err := New(nil, 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrMissingConfig))

	_, err = New(testutil.NewFakeDecodeService(), 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidConfig))
}

func TestOpenSeedsWindow(t *testing.T) {
	fake := testutil.NewFakeDecodeService().
		AddPage(testutil.Page(1, 10, true))

	s, err := New(fake, 10)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Open(context.Background()))

	win := s.Window()
	assert.Equal(t, 1, win.MinPage())
	assert.Equal(t, 1, win.MaxPage())
	assert.Equal(t, 0, win.MinIndex())
	assert.Equal(t, 10, win.MaxIndex())
	assert.Equal(t, 10, win.Len())
	assert.True(t, win.HasNextPage())
	assert.Equal(t, 1, fake.InitCalls)
}

func TestOpenTwiceFails(t *testing.T) {
	fake := testutil.NewFakeDecodeService().
		AddPage(testutil.Page(1, 5, false))

	s, err := New(fake, 5)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Open(context.Background()))
	err = s.Open(context.Background())
	assert.True(t, errors.Is(err, errors.ErrAlreadyOpen))
}

func TestOpenInitFailure(t *testing.T) {
	fake := testutil.NewFakeDecodeService().
		FailInit(fmt.Errorf("decoder crashed"))

	s, err := New(fake, 5)
	require.NoError(t, err)

	err = s.Open(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsTransient(err))

	// The failed open leaves the session closed.
	assert.True(t, errors.Is(s.LoadNext(context.Background()), errors.ErrNotOpen))
}

func TestOpenFollowsIncompletePage(t *testing.T) {
	// Filtering thinned page 1 to 3 of 10 entities; the open must chase
	// the continuation until a complete page arrives.
	fake := testutil.NewFakeDecodeService().
		AddPage(testutil.PartialPage(1, 10, 3, true)).
		AddPage(testutil.Page(2, 10, true))

	s, err := New(fake, 10)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Open(context.Background()))

	win := s.Window()
	assert.Equal(t, 2, win.MaxPage())
	assert.Equal(t, 13, win.Len())
	assert.Equal(t, 1, fake.LoadCallCount(2))
	assert.Equal(t, 0, fake.LoadCallCount(3))
}

func TestLoadNextEvictsOldestPage(t *testing.T) {
	fake := testutil.NewFakeDecodeService().
		AddPage(testutil.Page(1, 10, true)).
		AddPage(testutil.Page(2, 10, true)).
		AddPage(testutil.Page(3, 10, true)).
		AddPage(testutil.Page(4, 10, false))

	s, err := New(fake, 10)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Open(context.Background()))
	for i := 0; i < 3; i++ {
		require.NoError(t, s.LoadNext(context.Background()))
	}

	win := s.Window()
	assert.Equal(t, []int{2, 3, 4}, win.PageNumbers())
	assert.Equal(t, 2, win.MinPage())
	assert.Equal(t, 4, win.MaxPage())
	assert.Equal(t, 30, win.Len())
	assert.False(t, win.HasNextPage())
	assert.True(t, win.HasPreviousPage())
}

func TestLoadNextNoopWhenExhausted(t *testing.T) {
	fake := testutil.NewFakeDecodeService().
		AddPage(testutil.Page(1, 10, false))

	s, err := New(fake, 10)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Open(context.Background()))
	require.NoError(t, s.LoadNext(context.Background()))

	assert.Empty(t, fake.LoadCalls)
	assert.Equal(t, 1, s.Window().MaxPage())
}

func TestLoadPreviousRestoresEvictedPage(t *testing.T) {
	fake := testutil.NewFakeDecodeService().
		AddPage(testutil.Page(1, 10, true)).
		AddPage(testutil.Page(2, 10, true)).
		AddPage(testutil.Page(3, 10, true)).
		AddPage(testutil.Page(4, 10, false))

	s, err := New(fake, 10)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Open(context.Background()))
	for i := 0; i < 3; i++ {
		require.NoError(t, s.LoadNext(context.Background()))
	}
	require.NoError(t, s.LoadPrevious(context.Background()))

	win := s.Window()
	assert.Equal(t, []int{1, 2, 3}, win.PageNumbers())
	assert.Equal(t, 0, win.MinIndex())
	assert.Equal(t, 10, win.MaxIndex())

	// The restored page sits at the head in source order.
	first, ok := win.Entities()[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 0, first["index"])

	assert.Equal(t, 2, fake.LoadCallCount(1))
}

func TestLoadPreviousNoopAtPageOne(t *testing.T) {
	fake := testutil.NewFakeDecodeService().
		AddPage(testutil.Page(1, 10, true))

	s, err := New(fake, 10)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Open(context.Background()))
	require.NoError(t, s.LoadPrevious(context.Background()))
	assert.Empty(t, fake.LoadCalls)
}

func TestRedeliveredPageIsDropped(t *testing.T) {
	// The decoder answers the page-2 request with page 1 again. The merge
	// guard must drop it instead of distorting the window.
	fake := testutil.NewFakeDecodeService().
		AddPage(testutil.Page(1, 10, true)).
		AddPageAs(2, testutil.Page(1, 10, true))

	s, err := New(fake, 10)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Open(context.Background()))
	require.NoError(t, s.LoadNext(context.Background()))

	win := s.Window()
	assert.Equal(t, []int{1}, win.PageNumbers())
	assert.Equal(t, 10, win.Len())
}

func TestLoadNextPropagatesFetchError(t *testing.T) {
	fake := testutil.NewFakeDecodeService().
		AddPage(testutil.Page(1, 10, true)).
		FailPage(2, fmt.Errorf("read error"))

	s, err := New(fake, 10)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Open(context.Background()))
	err = s.LoadNext(context.Background())
	require.Error(t, err)

	// The window stays intact after the failure.
	assert.Equal(t, []int{1}, s.Window().PageNumbers())
}

func TestAudioExternalizedToBlobs(t *testing.T) {
	fake := testutil.NewFakeDecodeService().
		AddPage(&decode.PageResult{
			PageNumber:     1,
			Data:           []any{testutil.AudioChatEntity(0, 256)},
			HasNextPage:    false,
			IsPageComplete: true,
		})

	s, err := New(fake, 10)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Open(context.Background()))

	win := s.Window()
	require.Equal(t, 1, win.Len())

	marker := findAudioMarker(t, win.Entities()[0])
	assert.Equal(t, "audio/wav", marker.MIMEKind)
	assert.Equal(t, 260, marker.Length)

	entry, ok := s.Blob(marker.Handle)
	require.True(t, ok)
	assert.Equal(t, testutil.WAVBytes(256), entry.Bytes)

	stats := s.Stats()
	assert.Equal(t, 1, stats.Blobs.Count)
	assert.Equal(t, int64(260), stats.Blobs.TotalBytes)
}

// findAudioMarker walks the nested message structure for the audio leaf.
func findAudioMarker(t *testing.T, entity any) externalize.AudioMarker {
	t.Helper()
	record, ok := entity.(map[string]any)
	require.True(t, ok)
	messages, ok := record["messages"].([]any)
	require.True(t, ok)
	user, ok := messages[1].(map[string]any)
	require.True(t, ok)
	content, ok := user["content"].([]any)
	require.True(t, ok)
	audioPart, ok := content[1].(map[string]any)
	require.True(t, ok)
	marker, ok := audioPart["audio"].(externalize.AudioMarker)
	require.True(t, ok)
	return marker
}

func TestCloseTearsDown(t *testing.T) {
	fake := testutil.NewFakeDecodeService().
		AddPage(&decode.PageResult{
			PageNumber:     1,
			Data:           []any{testutil.AudioChatEntity(0, 64)},
			HasNextPage:    true,
			IsPageComplete: true,
		})

	s, err := New(fake, 10)
	require.NoError(t, err)

	require.NoError(t, s.Open(context.Background()))
	marker := findAudioMarker(t, s.Window().Entities()[0])

	require.NoError(t, s.Close())

	_, ok := s.Blob(marker.Handle)
	assert.False(t, ok)
	assert.True(t, errors.Is(s.LoadNext(context.Background()), errors.ErrNotOpen))

	// Idempotent.
	require.NoError(t, s.Close())
}

func TestReloadClearsBlobsAndRestarts(t *testing.T) {
	fake := testutil.NewFakeDecodeService().
		AddPage(&decode.PageResult{
			PageNumber:     1,
			Data:           []any{testutil.AudioChatEntity(0, 64)},
			HasNextPage:    false,
			IsPageComplete: true,
		})

	s, err := New(fake, 10)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Open(context.Background()))
	stale := findAudioMarker(t, s.Window().Entities()[0])

	require.NoError(t, s.Reload(context.Background()))

	// The pre-reload handle fails softly; the re-externalized payload is
	// reachable through the fresh window.
	_, ok := s.Blob(stale.Handle)
	assert.False(t, ok)

	fresh := findAudioMarker(t, s.Window().Entities()[0])
	assert.NotEqual(t, stale.Handle, fresh.Handle)
	_, ok = s.Blob(fresh.Handle)
	assert.True(t, ok)

	assert.Equal(t, 2, fake.InitCalls)
}

func TestSetFilterScriptReinitializes(t *testing.T) {
	fake := testutil.NewFakeDecodeService().
		AddPage(testutil.Page(1, 10, false))

	s, err := New(fake, 10, WithFilterScript("entity.type == 'audio_chat'"))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Open(context.Background()))
	require.NoError(t, s.SetFilterScript(context.Background(), "entity.index > 5"))

	require.Len(t, fake.FilterScripts, 2)
	assert.Equal(t, "entity.type == 'audio_chat'", fake.FilterScripts[0])
	assert.Equal(t, "entity.index > 5", fake.FilterScripts[1])
	assert.NoError(t, s.LoadNext(context.Background()))
}

func TestScrollToEndOfSource(t *testing.T) {
	// A 200-entity source read at pageSize 100: the init returns page 1,
	// one scroll fetches page 2 which reports no further pages, and later
	// scrolls stay local.
	fake := testutil.NewFakeDecodeService().
		AddPage(testutil.Page(1, 100, true)).
		AddPage(testutil.Page(2, 100, false))

	s, err := New(fake, 100)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Open(context.Background()))
	assert.Equal(t, 100, s.Window().MaxIndex())

	require.NoError(t, s.LoadNext(context.Background()))

	win := s.Window()
	assert.Equal(t, 1, win.MinPage())
	assert.Equal(t, 2, win.MaxPage())
	assert.Equal(t, 100, win.MinIndex())
	assert.Equal(t, 200, win.MaxIndex())
	assert.Equal(t, 200, win.Len())
	assert.False(t, win.HasNextPage())

	require.NoError(t, s.LoadNext(context.Background()))
	assert.Equal(t, 1, fake.LoadCallCount(2))
}

func TestStatsSnapshot(t *testing.T) {
	fake := testutil.NewFakeDecodeService().
		AddPage(&decode.PageResult{
			PageNumber:           1,
			Data:                 testutil.Entities(0, 10),
			TotalEntities:        5000,
			TotalDecodedEntities: 4200,
			HasNextPage:          true,
			IsPageComplete:       true,
		})

	s, err := New(fake, 10)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Open(context.Background()))

	stats := s.Stats()
	assert.Equal(t, 1, stats.MinPage)
	assert.Equal(t, 1, stats.MaxPage)
	assert.Equal(t, 10, stats.EntityCount)
	assert.Equal(t, 5000, stats.TotalEntities)
	assert.Equal(t, 4200, stats.TotalDecodedEntities)
	assert.True(t, stats.HasNextPage)
	assert.False(t, stats.HasPreviousPage)
}

func TestSourceWatchTriggersReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chats.pack")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	fake := testutil.NewFakeDecodeService().
		AddPage(testutil.Page(1, 10, false))

	s, err := New(fake, 10, WithSourceWatch(path))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Open(context.Background()))
	require.NoError(t, os.WriteFile(path, []byte("v2"), 0o644))

	require.Eventually(t, func() bool {
		return fake.InitCallCount() >= 2
	}, 5*time.Second, 20*time.Millisecond, "reload never fired")
}

func TestMetricsCountRequestsAndBlobs(t *testing.T) {
	fake := testutil.NewFakeDecodeService().
		AddPage(&decode.PageResult{
			PageNumber:     1,
			Data:           []any{testutil.AudioChatEntity(0, 256)},
			HasNextPage:    true,
			IsPageComplete: true,
		}).
		AddPage(testutil.Page(2, 10, false))

	registry := metric.NewMetricsRegistry()
	s, err := New(fake, 10, WithMetricsRegistry(registry))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Open(context.Background()))
	require.NoError(t, s.LoadNext(context.Background()))

	core := registry.CoreMetrics()
	assert.Equal(t, float64(1), promtestutil.ToFloat64(core.PagesRequested.WithLabelValues("forward")))
	assert.Equal(t, float64(2), promtestutil.ToFloat64(core.PagesLoaded.WithLabelValues("forward")), "seed page plus one scroll")
	assert.Equal(t, float64(1), promtestutil.ToFloat64(core.BlobsRegistered))
}

func TestConcurrentDuplicateDeliveryMergesOnce(t *testing.T) {
	fake := testutil.NewFakeDecodeService().
		AddPage(testutil.Page(1, 10, true))

	s, err := New(fake, 10)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Open(context.Background()))

	result := &decode.PageResult{
		PageNumber:     2,
		Data:           append(testutil.Entities(10, 9), testutil.AudioChatEntity(19, 128)),
		HasNextPage:    false,
		IsPageComplete: true,
	}

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.merge(result, "forward")
		}()
	}
	wg.Wait()

	win := s.Window()
	assert.Equal(t, 20, win.Len(), "page merged exactly once")
	assert.Equal(t, 1, s.Stats().Blobs.Count, "duplicate delivery must not register blobs")
}

func TestSourceWatchDebouncesWriteBurst(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chats.pack")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	fake := testutil.NewFakeDecodeService().
		AddPage(testutil.Page(1, 10, false))

	s, err := New(fake, 10, WithSourceWatch(path))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Open(context.Background()))

	// An exporter rewriting the file produces a burst of writes
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf("v%d", i+2)), 0o644))
		time.Sleep(20 * time.Millisecond)
	}

	require.Eventually(t, func() bool {
		return fake.InitCallCount() >= 2
	}, 5*time.Second, 20*time.Millisecond, "reload never fired")

	// The whole burst collapses into a single reload
	time.Sleep(2 * reloadDebounce)
	assert.Equal(t, 2, fake.InitCallCount())
}
