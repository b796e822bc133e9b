package payment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-checkout/internal/domain/wallet"
)

const shortWait = time.Second

func testPollerConfig() PollerConfig {
	return PollerConfig{MaxAttempts: 10, BaseDelay: time.Second, MaxDelay: 30 * time.Second}
}

// timedSource records the fake clock reading of every lookup
type timedSource struct {
	*fakeGateway
	clock *testclock.Clock
	start time.Time

	mu      sync.Mutex
	offsets []time.Duration
}

func (s *timedSource) GetTransaction(ctx context.Context, token, id string) (*wallet.Transaction, error) {
	s.mu.Lock()
	s.offsets = append(s.offsets, s.clock.Now().Sub(s.start))
	s.mu.Unlock()
	return s.fakeGateway.GetTransaction(ctx, token, id)
}

func (s *timedSource) seen() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.offsets...)
}

func TestPoller_Delay(t *testing.T) {
	p := NewPoller(&fakeGateway{}, testclock.NewClock(time.Now()), testPollerConfig(), testEntry())

	assert.Equal(t, 2*time.Second, p.Delay(1))
	assert.Equal(t, 4*time.Second, p.Delay(2))
	assert.Equal(t, 8*time.Second, p.Delay(3))
	assert.Equal(t, 16*time.Second, p.Delay(4))
	assert.Equal(t, 30*time.Second, p.Delay(5))
	assert.Equal(t, 30*time.Second, p.Delay(9))
	assert.Equal(t, 30*time.Second, p.Delay(64))
}

func TestPoller_BackoffSchedule(t *testing.T) {
	start := time.Now()
	clk := testclock.NewClock(start)
	src := &timedSource{
		fakeGateway: &fakeGateway{statuses: []wallet.TransactionStatus{
			wallet.TransactionStatusPending,
			wallet.TransactionStatusPending,
			wallet.TransactionStatusPending,
			wallet.TransactionStatusPending,
			wallet.TransactionStatusPending,
			wallet.TransactionStatusCompleted,
		}},
		clock: clk,
		start: start,
	}
	p := NewPoller(src, clk, testPollerConfig(), testEntry())

	done := make(chan PollResult, 1)
	go func() {
		res, err := p.Poll(context.Background(), "token", "TX1", nil)
		assert.NoError(t, err)
		done <- res
	}()

	for _, d := range []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second, 30 * time.Second} {
		require.NoError(t, clk.WaitAdvance(d, shortWait, 1))
	}

	select {
	case res := <-done:
		assert.Equal(t, wallet.TransactionStatusCompleted, res.Status)
		assert.Equal(t, 6, res.Attempts)
		assert.False(t, res.Exhausted)
	case <-time.After(shortWait):
		t.Fatal("poll did not finish")
	}

	assert.Equal(t, []time.Duration{
		0,
		2 * time.Second,
		6 * time.Second,
		14 * time.Second,
		30 * time.Second,
		60 * time.Second,
	}, src.seen())
}

func TestPoller_ExhaustsBudget(t *testing.T) {
	clk := testclock.NewClock(time.Now())
	src := &fakeGateway{}
	p := NewPoller(src, clk, testPollerConfig(), testEntry())

	var attempts []int
	var mu sync.Mutex
	done := make(chan PollResult, 1)
	go func() {
		res, err := p.Poll(context.Background(), "token", "TX1", func(n int) {
			mu.Lock()
			attempts = append(attempts, n)
			mu.Unlock()
		})
		assert.NoError(t, err)
		done <- res
	}()

	for n := 1; n < 10; n++ {
		require.NoError(t, clk.WaitAdvance(p.Delay(n), shortWait, 1))
	}

	select {
	case res := <-done:
		assert.True(t, res.Exhausted)
		assert.Equal(t, wallet.TransactionStatusPending, res.Status)
		assert.Equal(t, 10, res.Attempts)
	case <-time.After(shortWait):
		t.Fatal("poll did not finish")
	}

	_, _, txCalls := src.calls()
	assert.Equal(t, 10, txCalls)
	mu.Lock()
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, attempts)
	mu.Unlock()
}

func TestPoller_ErrorsCountAgainstBudget(t *testing.T) {
	clk := testclock.NewClock(time.Now())
	boom := errors.New("connection reset")
	src := &fakeGateway{
		txErrs:   []error{boom, boom},
		statuses: []wallet.TransactionStatus{"", "", wallet.TransactionStatusFailed},
	}
	p := NewPoller(src, clk, PollerConfig{MaxAttempts: 3, BaseDelay: time.Second, MaxDelay: 30 * time.Second}, testEntry())

	done := make(chan PollResult, 1)
	go func() {
		res, err := p.Poll(context.Background(), "token", "TX1", nil)
		assert.NoError(t, err)
		done <- res
	}()

	require.NoError(t, clk.WaitAdvance(2*time.Second, shortWait, 1))
	require.NoError(t, clk.WaitAdvance(4*time.Second, shortWait, 1))

	select {
	case res := <-done:
		assert.Equal(t, wallet.TransactionStatusFailed, res.Status)
		assert.Equal(t, 3, res.Attempts)
	case <-time.After(shortWait):
		t.Fatal("poll did not finish")
	}
}

func TestPoller_StopsOnCancel(t *testing.T) {
	clk := testclock.NewClock(time.Now())
	src := &fakeGateway{}
	p := NewPoller(src, clk, testPollerConfig(), testEntry())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := p.Poll(ctx, "token", "TX1", nil)
		done <- err
	}()

	// wait for the first backoff timer, then cancel instead of advancing
	require.NoError(t, clk.WaitAdvance(0, shortWait, 1))
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(shortWait):
		t.Fatal("poll did not stop")
	}

	clk.Advance(time.Minute)
	_, _, txCalls := src.calls()
	assert.Equal(t, 1, txCalls)
}
