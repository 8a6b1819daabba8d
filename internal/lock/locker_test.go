package lock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLocker_Exclusive(t *testing.T) {
	locker := NewMemoryLocker()
	ctx := context.Background()

	ok, err := locker.Acquire(ctx, 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = locker.Acquire(ctx, 1, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second acquire on a held claim must fail")

	// A different attempt is unaffected.
	ok, err = locker.Acquire(ctx, 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, locker.Release(ctx, 1))

	ok, err = locker.Acquire(ctx, 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "released claim must be acquirable again")
}

func TestMemoryLocker_ExpiredClaim(t *testing.T) {
	locker := NewMemoryLocker()
	ctx := context.Background()

	ok, err := locker.Acquire(ctx, 7, time.Nanosecond)
	require.NoError(t, err)
	require.True(t, ok)

	time.Sleep(time.Millisecond)

	ok, err = locker.Acquire(ctx, 7, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "expired claim must be reclaimable")
}

func TestMemoryLocker_ConcurrentAcquire(t *testing.T) {
	locker := NewMemoryLocker()
	ctx := context.Background()

	const goroutines = 32
	var wg sync.WaitGroup
	wins := 0
	var mu sync.Mutex

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := locker.Acquire(ctx, 42, time.Minute)
			if err != nil {
				t.Error(err)
				return
			}
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins, "exactly one goroutine may hold the claim")
}
