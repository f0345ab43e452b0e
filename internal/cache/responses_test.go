package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrFetch_StoresFirstResult(t *testing.T) {
	r := New()
	var calls atomic.Int32
	fetch := func(context.Context) (any, error) {
		calls.Add(1)
		return []any{"a"}, nil
	}

	v1, err := r.GetOrFetch(context.Background(), "q", fetch)
	require.NoError(t, err)
	v2, err := r.GetOrFetch(context.Background(), "q", fetch)
	require.NoError(t, err)

	assert.Equal(t, []any{"a"}, v1)
	assert.Equal(t, v1, v2)
	assert.Equal(t, int32(1), calls.Load())
	assert.True(t, r.Has("q"))
	assert.Equal(t, 1, r.Len())
}

func TestGetOrFetch_FailureNotCached(t *testing.T) {
	r := New()
	var calls atomic.Int32
	boom := errors.New("boom")

	_, err := r.GetOrFetch(context.Background(), "q", func(context.Context) (any, error) {
		calls.Add(1)
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, r.Has("q"))

	v, err := r.GetOrFetch(context.Background(), "q", func(context.Context) (any, error) {
		calls.Add(1)
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGetOrFetch_DistinctKeysDoNotCollide(t *testing.T) {
	r := New()
	_, _ = r.GetOrFetch(context.Background(), "a", func(context.Context) (any, error) { return 1, nil })
	v, err := r.GetOrFetch(context.Background(), "b", func(context.Context) (any, error) { return 2, nil })
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.Equal(t, 2, r.Len())
}

func TestGetOrFetch_ConcurrentCallersFetchOnce(t *testing.T) {
	r := New()
	var calls atomic.Int32
	release := make(chan struct{})
	fetch := func(context.Context) (any, error) {
		calls.Add(1)
		<-release
		return "v", nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := r.GetOrFetch(context.Background(), "q", fetch)
			assert.NoError(t, err)
			assert.Equal(t, "v", v)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}
