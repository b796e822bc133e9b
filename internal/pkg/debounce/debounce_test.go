package debounce

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shortWait = time.Second

func TestDebouncer_CoalescesBurst(t *testing.T) {
	clk := testclock.NewClock(time.Now())
	var calls int32
	d := New(clk, 500*time.Millisecond, func() { atomic.AddInt32(&calls, 1) })

	d.Trigger()
	d.Trigger()
	d.Trigger()
	assert.True(t, d.Pending())

	require.NoError(t, clk.WaitAdvance(500*time.Millisecond, shortWait, 1))
	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 1 }, shortWait, 5*time.Millisecond)
	assert.False(t, d.Pending())

	// a new window opens after the previous one fired
	d.Trigger()
	require.NoError(t, clk.WaitAdvance(500*time.Millisecond, shortWait, 1))
	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 2 }, shortWait, 5*time.Millisecond)
}

func TestDebouncer_DoesNotFireBeforeWindow(t *testing.T) {
	clk := testclock.NewClock(time.Now())
	var calls int32
	d := New(clk, 500*time.Millisecond, func() { atomic.AddInt32(&calls, 1) })

	d.Trigger()
	require.NoError(t, clk.WaitAdvance(499*time.Millisecond, shortWait, 1))
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
	assert.True(t, d.Pending())
}

func TestDebouncer_Stop(t *testing.T) {
	clk := testclock.NewClock(time.Now())
	var calls int32
	d := New(clk, 500*time.Millisecond, func() { atomic.AddInt32(&calls, 1) })

	d.Trigger()
	d.Stop()
	clk.Advance(time.Second)
	d.Trigger()
	clk.Advance(time.Second)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
	assert.False(t, d.Pending())
}
