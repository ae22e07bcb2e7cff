package sweeper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evreno/event-ticketing/internal/clock"
)

type fakeLister struct {
	mu     sync.Mutex
	ids    []uint64
	cutoff time.Time
	err    error
}

func (f *fakeLister) ListPendingBefore(ctx context.Context, cutoff time.Time) ([]uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoff = cutoff
	if f.err != nil {
		return nil, f.err
	}
	return f.ids, nil
}

type fakeCanceller struct {
	mu       sync.Mutex
	applied  map[uint64]bool // id -> CancelIfPending result
	failOn   map[uint64]error
	received []uint64
}

func (f *fakeCanceller) CancelIfPending(ctx context.Context, id uint64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.received = append(f.received, id)
	if err := f.failOn[id]; err != nil {
		return false, err
	}
	return f.applied[id], nil
}

func TestSweepCancelsStalePending(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clk := clock.NewFixed(now)

	lister := &fakeLister{ids: []uint64{3, 7, 9}}
	canceller := &fakeCanceller{applied: map[uint64]bool{3: true, 7: true, 9: true}}

	s := New(canceller, lister, clk, 30*time.Minute, time.Minute)

	n, err := s.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []uint64{3, 7, 9}, canceller.received)
	assert.Equal(t, now.Add(-30*time.Minute), lister.cutoff, "cutoff should be now minus TTL")
}

func TestSweepSkipsAlreadyTerminal(t *testing.T) {
	clk := clock.NewFixed(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	// Reservation 7 was confirmed between listing and cancel; CancelIfPending
	// reports it did not apply.
	lister := &fakeLister{ids: []uint64{3, 7}}
	canceller := &fakeCanceller{applied: map[uint64]bool{3: true, 7: false}}

	s := New(canceller, lister, clk, 30*time.Minute, time.Minute)

	n, err := s.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSweepContinuesPastFailures(t *testing.T) {
	clk := clock.NewFixed(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	lister := &fakeLister{ids: []uint64{1, 2, 3}}
	canceller := &fakeCanceller{
		applied: map[uint64]bool{1: true, 3: true},
		failOn:  map[uint64]error{2: errors.New("deadlock")},
	}

	s := New(canceller, lister, clk, 30*time.Minute, time.Minute)

	n, err := s.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n, "failure on one reservation should not stop the pass")
	assert.Equal(t, []uint64{1, 2, 3}, canceller.received)
}

func TestSweepListError(t *testing.T) {
	clk := clock.NewFixed(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	lister := &fakeLister{err: errors.New("db down")}
	canceller := &fakeCanceller{}

	s := New(canceller, lister, clk, 30*time.Minute, time.Minute)

	_, err := s.Sweep(context.Background())
	require.Error(t, err)
	assert.Empty(t, canceller.received)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	clk := clock.NewFixed(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	lister := &fakeLister{}
	canceller := &fakeCanceller{}

	s := New(canceller, lister, clk, 30*time.Minute, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}
