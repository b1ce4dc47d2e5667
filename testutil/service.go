// Package testutil provides shared fakes and fixture builders for testing
// the paged-viewer pipeline without a real decode process.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/WeiyueSUN/packlens-audio-preview/decode"
	"github.com/WeiyueSUN/packlens-audio-preview/errors"
)

// FakeDecodeService is a scripted, in-process decode.Service. Pages are
// registered up front; InitRead returns page 1. Thread-safe, with call
// recording for verification.
type FakeDecodeService struct {
	mu sync.Mutex

	pages    map[int]*decode.PageResult
	pageErrs map[int]error
	initErr  error

	// Optional artificial latency per call
	Latency time.Duration

	// Call recording
	InitCalls     int
	LoadCalls     []int
	FilterScripts []string
}

// NewFakeDecodeService creates an empty scripted service.
func NewFakeDecodeService() *FakeDecodeService {
	return &FakeDecodeService{
		pages:    make(map[int]*decode.PageResult),
		pageErrs: make(map[int]error),
	}
}

// AddPage scripts the response for result.PageNumber.
func (f *FakeDecodeService) AddPage(result *decode.PageResult) *FakeDecodeService {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[result.PageNumber] = result
	return f
}

// AddPageAs scripts result as the response for requests targeting page n,
// regardless of result.PageNumber. Used to simulate a decoder re-delivering
// an already-seen page.
func (f *FakeDecodeService) AddPageAs(n int, result *decode.PageResult) *FakeDecodeService {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[n] = result
	return f
}

// FailPage scripts an error response for page n.
func (f *FakeDecodeService) FailPage(n int, err error) *FakeDecodeService {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pageErrs[n] = err
	return f
}

// FailInit scripts an error for InitRead.
func (f *FakeDecodeService) FailInit(err error) *FakeDecodeService {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initErr = err
	return f
}

// InitRead returns the scripted page 1.
func (f *FakeDecodeService) InitRead(ctx context.Context, pageSize int, filterScript string) (*decode.PageResult, error) {
	f.sleep(ctx)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.InitCalls++
	f.FilterScripts = append(f.FilterScripts, filterScript)

	if f.initErr != nil {
		return nil, f.initErr
	}
	return f.lookupLocked(1)
}

// LoadPage returns the scripted page n.
func (f *FakeDecodeService) LoadPage(ctx context.Context, pageNumber int) (*decode.PageResult, error) {
	f.sleep(ctx)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.LoadCalls = append(f.LoadCalls, pageNumber)

	if err, scripted := f.pageErrs[pageNumber]; scripted {
		return nil, err
	}
	return f.lookupLocked(pageNumber)
}

// InitCallCount returns how many times InitRead was called.
func (f *FakeDecodeService) InitCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.InitCalls
}

// LoadCallCount returns how many LoadPage calls targeted page n.
func (f *FakeDecodeService) LoadCallCount(n int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, call := range f.LoadCalls {
		if call == n {
			count++
		}
	}
	return count
}

func (f *FakeDecodeService) lookupLocked(n int) (*decode.PageResult, error) {
	result, ok := f.pages[n]
	if !ok {
		return nil, errors.WrapInvalid(errors.ErrPageUnavailable, "FakeDecodeService", "lookup", "page not scripted")
	}
	// Copy so callers mutating Data do not corrupt the script
	out := *result
	out.Data = append([]any(nil), result.Data...)
	return &out, nil
}

func (f *FakeDecodeService) sleep(ctx context.Context) {
	if f.Latency <= 0 {
		return
	}
	select {
	case <-time.After(f.Latency):
	case <-ctx.Done():
	}
}
