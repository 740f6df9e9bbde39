package caching

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

func TestGetOrLoad(t *testing.T) {
	c := NewCache[int](10, time.Minute)
	ctx := context.Background()
	calls := 0
	load := func(context.Context) (int, error) {
		calls++
		return 7, nil
	}

	v, err := c.GetOrLoad(ctx, "a", load)
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	v, _ = c.GetOrLoad(ctx, "a", load)
	assert.Equal(t, 7, v)
	assert.Equal(t, 1, calls)

	c.Forget("a")
	_, _ = c.GetOrLoad(ctx, "a", load)
	assert.Equal(t, 2, calls)

	c.Flush()
	assert.Zero(t, c.Len())
}

func TestErrorsAreNotCached(t *testing.T) {
	c := NewCache[int](10, time.Minute)
	ctx := context.Background()
	boom := errors.New("boom")

	_, err := c.GetOrLoad(ctx, "a", func(context.Context) (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, c.Len())

	v, err := c.GetOrLoad(ctx, "a", func(context.Context) (int, error) { return 3, nil })
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}

func TestEntriesExpire(t *testing.T) {
	c := NewCache[string](10, 20*time.Millisecond)
	_, _ = c.GetOrLoad(context.Background(), "k", func(context.Context) (string, error) { return "v", nil })
	assert.Eventually(t, func() bool { return c.Len() == 0 }, time.Second, 10*time.Millisecond)
}

func TestConcurrentLoadsShareOneCall(t *testing.T) {
	c := NewCache[int](10, time.Minute)
	var calls atomic.Int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.GetOrLoad(context.Background(), "k", func(context.Context) (int, error) {
				calls.Add(1)
				<-release
				return 1, nil
			})
			assert.NoError(t, err)
			assert.Equal(t, 1, v)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	assert.Equal(t, int32(1), calls.Load())
}

func TestCancelledCallerDoesNotFailOthers(t *testing.T) {
	c := NewCache[int](10, time.Minute)
	started := make(chan struct{})
	release := make(chan struct{})
	var loadErr atomic.Value

	load := func(ctx context.Context) (int, error) {
		close(started)
		<-release
		if err := ctx.Err(); err != nil {
			loadErr.Store(err)
			return 0, err
		}
		return 9, nil
	}

	first, cancel := context.WithCancel(context.Background())
	firstDone := make(chan error, 1)
	go func() {
		_, err := c.GetOrLoad(first, "k", load)
		firstDone <- err
	}()
	<-started

	secondDone := make(chan int, 1)
	go func() {
		v, err := c.GetOrLoad(context.Background(), "k", load)
		assert.NoError(t, err)
		secondDone <- v
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-firstDone, context.Canceled)

	close(release)
	assert.Equal(t, 9, <-secondDone)
	assert.Nil(t, loadErr.Load())

	v, err := c.GetOrLoad(context.Background(), "k", load)
	require.NoError(t, err)
	assert.Equal(t, 9, v)
}

func TestLoadIsBoundedByTimeout(t *testing.T) {
	c := NewCache[int](10, time.Minute)
	c.loadTimeout = 10 * time.Millisecond

	_, err := c.GetOrLoad(context.Background(), "k", func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, c.Len())
}
