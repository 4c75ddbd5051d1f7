package schedule

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunDue_RespectsInterval(t *testing.T) {
	s := New()
	base := time.Now()
	s.now = func() time.Time { return base }

	var runs atomic.Int32
	s.Every(time.Minute).Name("count").Run(func(context.Context) error {
		runs.Add(1)
		return nil
	})

	ctx := context.Background()
	s.runDue(ctx, base.Add(30*time.Second))
	s.wg.Wait()
	assert.Equal(t, int32(0), runs.Load())

	s.runDue(ctx, base.Add(61*time.Second))
	s.wg.Wait()
	assert.Equal(t, int32(1), runs.Load())
}

func TestRunDue_WithoutOverlapping(t *testing.T) {
	s := New()
	release := make(chan struct{})
	var runs atomic.Int32

	s.Every(time.Millisecond).Immediately().WithoutOverlapping().Run(func(context.Context) error {
		runs.Add(1)
		<-release
		return nil
	})

	ctx := context.Background()
	now := time.Now()
	s.runDue(ctx, now)
	assert.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, time.Millisecond)
	s.runDue(ctx, now.Add(time.Second))
	close(release)
	s.wg.Wait()
	assert.Equal(t, int32(1), runs.Load())
}

func TestRun_StopsOnCancelAndSurvivesPanics(t *testing.T) {
	s := New()
	s.tick = 5 * time.Millisecond
	var runs atomic.Int32
	s.Every(time.Millisecond).Immediately().Run(func(context.Context) error {
		if runs.Add(1) == 1 {
			panic("boom")
		}
		return errors.New("still failing")
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- s.Run(ctx) }()

	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, time.Second, time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}

func TestRunNow(t *testing.T) {
	s := New()
	var ran bool
	s.Every(time.Hour).Name("rating:repair").Run(func(context.Context) error {
		ran = true
		return nil
	})

	require.NoError(t, s.RunNow(context.Background(), "rating:repair"))
	assert.True(t, ran)
	assert.Error(t, s.RunNow(context.Background(), "missing"))
	assert.Equal(t, []string{"rating:repair  [every 1h0m0s]"}, s.List())
}
