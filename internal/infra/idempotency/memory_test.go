package idempotency_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fluxiabiz/fluxiabiz-api/internal/infra/idempotency"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_ClaimCompleteReplay(t *testing.T) {
	m := idempotency.NewMemory(time.Minute)
	defer m.Close()
	ctx := context.Background()

	ok, err := m.Acquire(ctx, "k1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, done, err := m.Result(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, done, "claimed key has no result yet")

	ok, _ = m.Acquire(ctx, "k1", time.Minute)
	assert.False(t, ok, "second claim must fail")

	require.NoError(t, m.Complete(ctx, "k1", []byte(`{"sale_id":"s1"}`), time.Minute))
	res, done, err := m.Result(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, done)
	assert.JSONEq(t, `{"sale_id":"s1"}`, string(res))
}

func TestMemory_ReleaseAllowsRetry(t *testing.T) {
	m := idempotency.NewMemory(time.Minute)
	defer m.Close()
	ctx := context.Background()

	ok, _ := m.Acquire(ctx, "k1", time.Minute)
	require.True(t, ok)
	require.NoError(t, m.Release(ctx, "k1"))

	ok, _ = m.Acquire(ctx, "k1", time.Minute)
	assert.True(t, ok)
}

func TestMemory_ConcurrentClaimsHaveOneWinner(t *testing.T) {
	m := idempotency.NewMemory(time.Minute)
	defer m.Close()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := m.Acquire(context.Background(), "same", time.Minute); ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}
