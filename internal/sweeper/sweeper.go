// Package sweeper expires stale pending reservations on a fixed interval.
// A reservation left PENDING longer than the configured TTL is cancelled and
// its tickets returned to inventory. It is the safety net for attendees who
// start checkout and never pay, and for payment gateway expiry webhooks that
// never arrive.
package sweeper

import (
	"context"
	"log"
	"time"

	"github.com/evreno/event-ticketing/internal/clock"
)

// Canceller cancels a single pending reservation. Reservations that reached
// a terminal state in the meantime are skipped, which makes a sweep racing a
// payment webhook harmless.
type Canceller interface {
	CancelIfPending(ctx context.Context, reservationID uint64) (bool, error)
}

// Lister returns the IDs of reservations still PENDING that were created
// before the cutoff.
type Lister interface {
	ListPendingBefore(ctx context.Context, cutoff time.Time) ([]uint64, error)
}

// Sweeper periodically cancels reservations that have outlived their TTL.
type Sweeper struct {
	canceller Canceller
	lister    Lister
	clk       clock.Clock
	ttl       time.Duration
	interval  time.Duration
}

// New builds a Sweeper. ttl is how long a reservation may stay PENDING;
// interval is how often the sweep runs.
func New(canceller Canceller, lister Lister, clk clock.Clock, ttl, interval time.Duration) *Sweeper {
	if canceller == nil || lister == nil || clk == nil {
		panic("sweeper: nil dependency")
	}
	return &Sweeper{
		canceller: canceller,
		lister:    lister,
		clk:       clk,
		ttl:       ttl,
		interval:  interval,
	}
}

// Run blocks, sweeping once per interval until ctx is cancelled. Errors are
// logged and never stop the loop.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := s.Sweep(ctx); err != nil {
				log.Printf("sweeper: sweep failed: %v", err)
			} else if n > 0 {
				log.Printf("sweeper: expired %d stale reservation(s)", n)
			}
		}
	}
}

// Sweep performs a single pass and returns the number of reservations it
// cancelled. Individual cancellation failures are logged and the pass
// continues with the remaining IDs.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	cutoff := s.clk.Now().Add(-s.ttl)
	ids, err := s.lister.ListPendingBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	cancelled := 0
	for _, id := range ids {
		applied, err := s.canceller.CancelIfPending(ctx, id)
		if err != nil {
			log.Printf("sweeper: cancel reservation %d failed: %v", id, err)
			continue
		}
		if applied {
			cancelled++
		}
	}
	return cancelled, nil
}
