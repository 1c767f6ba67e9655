package duel

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler(t *testing.T) *CronScheduler {
	t.Helper()
	s, err := NewCronScheduler(clockwork.NewRealClock(), zerolog.Nop())
	require.NoError(t, err)
	s.Start()
	t.Cleanup(func() { _ = s.Shutdown() })
	return s
}

func TestCronScheduler_FiresOnce(t *testing.T) {
	s := newTestScheduler(t)

	var fired atomic.Int32
	require.NoError(t, s.Schedule("d1", time.Now().Add(50*time.Millisecond), func() { fired.Add(1) }))

	require.Eventually(t, func() bool { return fired.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())
}

func TestCronScheduler_Cancel(t *testing.T) {
	s := newTestScheduler(t)

	var cancelled, kept atomic.Bool
	require.NoError(t, s.Schedule("d1", time.Now().Add(150*time.Millisecond), func() { cancelled.Store(true) }))
	require.NoError(t, s.Schedule("d2", time.Now().Add(150*time.Millisecond), func() { kept.Store(true) }))
	s.Cancel("d1")

	require.Eventually(t, kept.Load, 2*time.Second, 10*time.Millisecond)
	assert.False(t, cancelled.Load())
}
