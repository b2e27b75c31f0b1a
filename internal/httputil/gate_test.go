// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances only when slept on or told to.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if d > 0 {
		c.sleeps = append(c.sleeps, d)
		c.now = c.now.Add(d)
	}
	return nil
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}

func TestGate_FirstRequestImmediate(t *testing.T) {
	clock := newFakeClock()
	g := NewGate(time.Second, clock)

	require.NoError(t, g.Wait(context.Background()))
	assert.Empty(t, clock.Sleeps())
}

func TestGate_BackToBackWaitsFullGap(t *testing.T) {
	clock := newFakeClock()
	g := NewGate(time.Second, clock)

	require.NoError(t, g.Wait(context.Background()))
	require.NoError(t, g.Wait(context.Background()))
	require.NoError(t, g.Wait(context.Background()))

	assert.Equal(t, []time.Duration{time.Second, time.Second}, clock.Sleeps())
}

func TestGate_ElapsedGapNoWait(t *testing.T) {
	clock := newFakeClock()
	g := NewGate(time.Second, clock)

	require.NoError(t, g.Wait(context.Background()))
	clock.Advance(2 * time.Second)
	require.NoError(t, g.Wait(context.Background()))

	assert.Empty(t, clock.Sleeps())
}

func TestGate_ZeroGapNeverWaits(t *testing.T) {
	clock := newFakeClock()
	g := NewGate(0, clock)

	for range 5 {
		require.NoError(t, g.Wait(context.Background()))
	}
	assert.Empty(t, clock.Sleeps())
}

func TestGate_CancelledContext(t *testing.T) {
	clock := newFakeClock()
	g := NewGate(time.Second, clock)
	require.NoError(t, g.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, g.Wait(ctx), context.Canceled)
}

func TestSystemClock_SleepHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := SystemClock{}.Sleep(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}
