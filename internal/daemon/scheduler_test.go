package daemon

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_ScheduleCron(t *testing.T) {
	s, err := NewScheduler()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop(context.Background()) })

	t.Run("valid expression", func(t *testing.T) {
		id, err := s.ScheduleCron("deploy", "*/5 * * * *", func() {})
		require.NoError(t, err)
		assert.NotEmpty(t, id)
	})

	t.Run("invalid expression", func(t *testing.T) {
		_, err := s.ScheduleCron("deploy", "not a cron", func() {})
		require.Error(t, err)
	})
}

func TestScheduler_ScheduleEvery(t *testing.T) {
	s, err := NewScheduler()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop(context.Background()) })

	_, err = s.ScheduleEvery("deploy", 0, func() {})
	require.Error(t, err)

	var calls atomic.Int32
	id, err := s.ScheduleEvery("deploy", 50*time.Millisecond, func() { calls.Add(1) })
	require.NoError(t, err)

	next, err := s.NextRun(id)
	require.NoError(t, err)
	assert.False(t, next.IsZero())

	s.Start()
	assert.Eventually(t, func() bool { return calls.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestScheduler_NextRunUnknownJob(t *testing.T) {
	s, err := NewScheduler()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop(context.Background()) })

	_, err = s.NextRun("missing")
	require.Error(t, err)
}
