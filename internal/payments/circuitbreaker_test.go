package payments

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBreaker(threshold int, timeout time.Duration) (*CircuitBreaker, *time.Time) {
	cb := NewCircuitBreaker(threshold, timeout)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cb.now = func() time.Time { return now }
	return cb, &now
}

func TestCircuitBreakerStartsClosed(t *testing.T) {
	cb, _ := newTestBreaker(5, time.Minute)

	require.NoError(t, cb.Allow())
	assert.Equal(t, "closed", cb.Snapshot().State)
}

func TestCircuitBreakerOpensAtThreshold(t *testing.T) {
	cb, _ := newTestBreaker(5, time.Minute)

	for i := 0; i < 4; i++ {
		cb.RecordFailure()
		require.NoError(t, cb.Allow(), "failure %d must not open the breaker", i+1)
	}

	cb.RecordFailure()
	assert.Equal(t, "open", cb.Snapshot().State)
	assert.ErrorIs(t, cb.Allow(), ErrCircuitOpen)
}

func TestCircuitBreakerSuccessResetsCounter(t *testing.T) {
	cb, _ := newTestBreaker(5, time.Minute)

	for i := 0; i < 4; i++ {
		cb.RecordFailure()
	}
	cb.RecordSuccess()
	require.Equal(t, 0, cb.Snapshot().FailureCount)

	// Four more failures must not open it after the reset.
	for i := 0; i < 4; i++ {
		cb.RecordFailure()
	}
	assert.Equal(t, "closed", cb.Snapshot().State)
}

func TestCircuitBreakerHalfOpenAfterTimeout(t *testing.T) {
	cb, now := newTestBreaker(1, time.Minute)

	cb.RecordFailure()
	require.ErrorIs(t, cb.Allow(), ErrCircuitOpen)

	// Just before the timeout the breaker still rejects.
	*now = now.Add(59 * time.Second)
	require.ErrorIs(t, cb.Allow(), ErrCircuitOpen)

	// At the timeout the next call is admitted as the probe.
	*now = now.Add(time.Second)
	require.NoError(t, cb.Allow())
	assert.Equal(t, "half_open", cb.Snapshot().State)

	// Only one outstanding probe is admitted.
	assert.ErrorIs(t, cb.Allow(), ErrCircuitOpen)
}

func TestCircuitBreakerHalfOpenProbeSuccessCloses(t *testing.T) {
	cb, now := newTestBreaker(1, time.Minute)

	cb.RecordFailure()
	*now = now.Add(time.Minute)
	require.NoError(t, cb.Allow())

	cb.RecordSuccess()
	st := cb.Snapshot()
	assert.Equal(t, "closed", st.State)
	assert.Equal(t, 0, st.FailureCount)
	assert.NoError(t, cb.Allow())
}

func TestCircuitBreakerHalfOpenProbeFailureReopens(t *testing.T) {
	cb, now := newTestBreaker(1, time.Minute)

	cb.RecordFailure()
	*now = now.Add(time.Minute)
	require.NoError(t, cb.Allow())

	cb.RecordFailure()
	assert.Equal(t, "open", cb.Snapshot().State)
	assert.ErrorIs(t, cb.Allow(), ErrCircuitOpen)

	// The clock restarts from the probe failure.
	*now = now.Add(time.Minute)
	assert.NoError(t, cb.Allow())
}

func TestCircuitBreakerConcurrentFailures(t *testing.T) {
	cb, _ := newTestBreaker(5, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cb.RecordFailure()
		}()
	}
	wg.Wait()

	st := cb.Snapshot()
	assert.Equal(t, "open", st.State)
	assert.Equal(t, 50, st.FailureCount)
}
