package reservation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evreno/event-ticketing/internal/clock"
	"github.com/evreno/event-ticketing/internal/model"
)

// fakeStore is an in-memory Store with real transaction semantics: the
// callback works on the live state, and on error the state is restored
// from a snapshot.  The mutex serializes transactions the way row
// locks do in the SQL implementation.
type fakeStore struct {
	mu       sync.Mutex
	tiers    map[uint64]model.TicketTier
	resvs    map[uint64]model.Reservation
	payments map[uint64]model.Payment // keyed by reservation ID
	nextID   uint64
}

func newFakeStore(tiers ...model.TicketTier) *fakeStore {
	s := &fakeStore{
		tiers:    map[uint64]model.TicketTier{},
		resvs:    map[uint64]model.Reservation{},
		payments: map[uint64]model.Payment{},
		nextID:   1,
	}
	for _, tier := range tiers {
		s.tiers[tier.ID] = tier
	}
	return s
}

func (s *fakeStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapTiers := make(map[uint64]model.TicketTier, len(s.tiers))
	for k, v := range s.tiers {
		snapTiers[k] = v
	}
	snapResvs := make(map[uint64]model.Reservation, len(s.resvs))
	for k, v := range s.resvs {
		snapResvs[k] = v
	}
	snapPays := make(map[uint64]model.Payment, len(s.payments))
	for k, v := range s.payments {
		snapPays[k] = v
	}
	snapNext := s.nextID

	if err := fn(ctx, (*fakeTx)(s)); err != nil {
		s.tiers, s.resvs, s.payments, s.nextID = snapTiers, snapResvs, snapPays, snapNext
		return err
	}
	return nil
}

type fakeTx fakeStore

func (t *fakeTx) TierForUpdate(_ context.Context, tierID uint64) (model.TicketTier, error) {
	tier, ok := t.tiers[tierID]
	if !ok {
		return model.TicketTier{}, ErrTierNotFound
	}
	return tier, nil
}

func (t *fakeTx) DecrementAvailable(_ context.Context, tierID uint64, qty uint32) error {
	tier, ok := t.tiers[tierID]
	if !ok || tier.Available < qty {
		return ErrInsufficientInventory
	}
	tier.Available -= qty
	t.tiers[tierID] = tier
	return nil
}

func (t *fakeTx) RestockAvailable(_ context.Context, tierID uint64, qty uint32) error {
	tier, ok := t.tiers[tierID]
	if !ok {
		return ErrTierNotFound
	}
	if tier.Available+qty > tier.Quantity {
		return ErrInventoryOverflow
	}
	tier.Available += qty
	t.tiers[tierID] = tier
	return nil
}

func (t *fakeTx) CreateReservation(_ context.Context, res *model.Reservation) error {
	res.ID = t.nextID
	t.nextID++
	stored := *res
	stored.Payment = nil
	t.resvs[res.ID] = stored
	return nil
}

func (t *fakeTx) CreatePayment(_ context.Context, p *model.Payment) error {
	p.ID = t.nextID
	t.nextID++
	t.payments[p.ReservationID] = *p
	return nil
}

func (t *fakeTx) ReservationForUpdate(_ context.Context, id uint64) (model.Reservation, error) {
	res, ok := t.resvs[id]
	if !ok {
		return model.Reservation{}, ErrReservationNotFound
	}
	if pay, ok := t.payments[id]; ok {
		p := pay
		res.Payment = &p
	}
	return res, nil
}

func (t *fakeTx) UpdateReservationStatus(_ context.Context, id uint64, status string) error {
	res, ok := t.resvs[id]
	if !ok {
		return ErrReservationNotFound
	}
	res.Status = status
	t.resvs[id] = res
	return nil
}

func (t *fakeTx) CompletePayment(_ context.Context, reservationID uint64, externalRef string, paidAt time.Time) error {
	pay, ok := t.payments[reservationID]
	if !ok {
		return ErrReservationNotFound
	}
	pay.Status = model.PaymentCompleted
	pay.PaidAt = &paidAt
	if externalRef != "" {
		ref := externalRef
		pay.ExternalRef = &ref
	}
	t.payments[reservationID] = pay
	return nil
}

func (t *fakeTx) FailPayment(_ context.Context, reservationID uint64) error {
	pay, ok := t.payments[reservationID]
	if !ok {
		return ErrReservationNotFound
	}
	pay.Status = model.PaymentFailed
	t.payments[reservationID] = pay
	return nil
}

func standardTier() model.TicketTier {
	return model.TicketTier{
		ID:         1,
		EventID:    7,
		Name:       "Standard",
		PriceCents: 1500,
		Quantity:   5,
		Available:  5,
	}
}

func TestEngineReserve(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("creates pending reservation and payment", func(t *testing.T) {
		store := newFakeStore(standardTier())
		eng := NewEngine(store, clock.NewFixed(now), 0.05, "EUR")

		res, err := eng.Reserve(context.Background(), 9, 1, 2)
		require.NoError(t, err)

		assert.Equal(t, model.ReservationPending, res.Status)
		assert.Equal(t, uint64(9), res.UserID)
		assert.Equal(t, uint64(7), res.EventID)
		assert.Equal(t, int64(3000), res.TotalCents)

		require.NotNil(t, res.Payment)
		assert.Equal(t, model.PaymentPending, res.Payment.Status)
		assert.Equal(t, int64(3000), res.Payment.AmountCents)
		assert.Equal(t, int64(150), res.Payment.CommissionCents)
		assert.Equal(t, int64(2850), res.Payment.OrganizerCents)
		assert.Equal(t, "EUR", res.Payment.Currency)
		assert.Nil(t, res.Payment.PaidAt)

		assert.Equal(t, uint32(3), store.tiers[1].Available)
	})

	t.Run("rejects quantity out of range", func(t *testing.T) {
		store := newFakeStore(standardTier())
		eng := NewEngine(store, clock.NewFixed(now), 0.05, "EUR")

		_, err := eng.Reserve(context.Background(), 9, 1, 0)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
		_, err = eng.Reserve(context.Background(), 9, 1, 11)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
		assert.Equal(t, uint32(5), store.tiers[1].Available)
	})

	t.Run("unknown tier", func(t *testing.T) {
		store := newFakeStore()
		eng := NewEngine(store, clock.NewFixed(now), 0.05, "EUR")

		_, err := eng.Reserve(context.Background(), 9, 42, 1)
		assert.ErrorIs(t, err, ErrTierNotFound)
	})

	t.Run("insufficient inventory leaves no trace", func(t *testing.T) {
		tier := standardTier()
		tier.Available = 2
		store := newFakeStore(tier)
		eng := NewEngine(store, clock.NewFixed(now), 0.05, "EUR")

		_, err := eng.Reserve(context.Background(), 9, 1, 3)
		assert.ErrorIs(t, err, ErrInsufficientInventory)
		assert.Equal(t, uint32(2), store.tiers[1].Available)
		assert.Empty(t, store.resvs)
		assert.Empty(t, store.payments)
	})

	t.Run("concurrent reserves for last ticket", func(t *testing.T) {
		tier := standardTier()
		tier.Quantity = 1
		tier.Available = 1
		store := newFakeStore(tier)
		eng := NewEngine(store, clock.NewFixed(now), 0.05, "EUR")

		errs := make(chan error, 2)
		var wg sync.WaitGroup
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func(userID uint64) {
				defer wg.Done()
				_, err := eng.Reserve(context.Background(), userID, 1, 1)
				errs <- err
			}(uint64(100 + i))
		}
		wg.Wait()
		close(errs)

		var ok, insufficient int
		for err := range errs {
			switch {
			case err == nil:
				ok++
			case err == ErrInsufficientInventory:
				insufficient++
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}
		assert.Equal(t, 1, ok)
		assert.Equal(t, 1, insufficient)
		assert.Equal(t, uint32(0), store.tiers[1].Available)
	})
}

func TestEngineTransition(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	reserve := func(t *testing.T, store *fakeStore, eng *Engine, qty uint32) model.Reservation {
		t.Helper()
		res, err := eng.Reserve(context.Background(), 9, 1, qty)
		require.NoError(t, err)
		return res
	}

	t.Run("confirm completes payment without touching inventory", func(t *testing.T) {
		store := newFakeStore(standardTier())
		eng := NewEngine(store, clock.NewFixed(now), 0.05, "EUR")
		res := reserve(t, store, eng, 2)

		got, err := eng.Transition(context.Background(), res.ID, OutcomeConfirm, "pi_123")
		require.NoError(t, err)

		assert.Equal(t, model.ReservationConfirmed, got.Status)
		require.NotNil(t, got.Payment)
		assert.Equal(t, model.PaymentCompleted, got.Payment.Status)
		require.NotNil(t, got.Payment.PaidAt)
		assert.Equal(t, now, *got.Payment.PaidAt)
		require.NotNil(t, got.Payment.ExternalRef)
		assert.Equal(t, "pi_123", *got.Payment.ExternalRef)

		// capacity stays committed: still reflects the decrement
		assert.Equal(t, uint32(3), store.tiers[1].Available)
	})

	t.Run("confirm replay is a no-op", func(t *testing.T) {
		store := newFakeStore(standardTier())
		fixed := clock.NewFixed(now)
		eng := NewEngine(store, fixed, 0.05, "EUR")
		res := reserve(t, store, eng, 2)

		_, err := eng.Transition(context.Background(), res.ID, OutcomeConfirm, "pi_123")
		require.NoError(t, err)

		fixed.Advance(time.Hour)
		got, err := eng.Transition(context.Background(), res.ID, OutcomeConfirm, "pi_other")
		require.NoError(t, err)

		require.NotNil(t, got.Payment)
		require.NotNil(t, got.Payment.PaidAt)
		assert.Equal(t, now, *got.Payment.PaidAt, "paidAt must not be re-stamped")
		assert.Equal(t, "pi_123", *got.Payment.ExternalRef)
		assert.Equal(t, uint32(3), store.tiers[1].Available)
	})

	t.Run("cancel restocks and fails payment", func(t *testing.T) {
		store := newFakeStore(standardTier())
		eng := NewEngine(store, clock.NewFixed(now), 0.05, "EUR")
		res := reserve(t, store, eng, 2)
		assert.Equal(t, uint32(3), store.tiers[1].Available)

		got, err := eng.Transition(context.Background(), res.ID, OutcomeCancel, "")
		require.NoError(t, err)

		assert.Equal(t, model.ReservationCancelled, got.Status)
		require.NotNil(t, got.Payment)
		assert.Equal(t, model.PaymentFailed, got.Payment.Status)
		assert.Equal(t, uint32(5), store.tiers[1].Available)

		// cancel replay: no double restock
		_, err = eng.Transition(context.Background(), res.ID, OutcomeCancel, "")
		require.NoError(t, err)
		assert.Equal(t, uint32(5), store.tiers[1].Available)
	})

	t.Run("conflicting outcomes on terminal reservations", func(t *testing.T) {
		store := newFakeStore(standardTier())
		eng := NewEngine(store, clock.NewFixed(now), 0.05, "EUR")

		confirmed := reserve(t, store, eng, 1)
		_, err := eng.Transition(context.Background(), confirmed.ID, OutcomeConfirm, "pi_1")
		require.NoError(t, err)
		_, err = eng.Transition(context.Background(), confirmed.ID, OutcomeCancel, "")
		assert.ErrorIs(t, err, ErrAlreadyTerminal)

		cancelled := reserve(t, store, eng, 1)
		_, err = eng.Transition(context.Background(), cancelled.ID, OutcomeCancel, "")
		require.NoError(t, err)
		_, err = eng.Transition(context.Background(), cancelled.ID, OutcomeConfirm, "pi_2")
		assert.ErrorIs(t, err, ErrAlreadyTerminal)
	})

	t.Run("unknown reservation", func(t *testing.T) {
		store := newFakeStore(standardTier())
		eng := NewEngine(store, clock.NewFixed(now), 0.05, "EUR")

		_, err := eng.Transition(context.Background(), 404, OutcomeConfirm, "")
		assert.ErrorIs(t, err, ErrReservationNotFound)
	})

	t.Run("restock overflow rolls the whole cancel back", func(t *testing.T) {
		store := newFakeStore(standardTier())
		eng := NewEngine(store, clock.NewFixed(now), 0.05, "EUR")
		res := reserve(t, store, eng, 2)

		// simulate corrupted bookkeeping: someone already restored the tickets
		tier := store.tiers[1]
		tier.Available = tier.Quantity
		store.tiers[1] = tier

		_, err := eng.Transition(context.Background(), res.ID, OutcomeCancel, "")
		assert.ErrorIs(t, err, ErrInventoryOverflow)

		// nothing committed: reservation and payment still pending
		assert.Equal(t, model.ReservationPending, store.resvs[res.ID].Status)
		assert.Equal(t, model.PaymentPending, store.payments[res.ID].Status)
	})
}

func TestEngineCancelIfPending(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("cancels pending reservation", func(t *testing.T) {
		store := newFakeStore(standardTier())
		eng := NewEngine(store, clock.NewFixed(now), 0.05, "EUR")
		res, err := eng.Reserve(context.Background(), 9, 1, 3)
		require.NoError(t, err)

		applied, err := eng.CancelIfPending(context.Background(), res.ID)
		require.NoError(t, err)
		assert.True(t, applied)
		assert.Equal(t, uint32(5), store.tiers[1].Available)
		assert.Equal(t, model.PaymentFailed, store.payments[res.ID].Status)
	})

	t.Run("stale expiry never cancels a confirmed reservation", func(t *testing.T) {
		store := newFakeStore(standardTier())
		eng := NewEngine(store, clock.NewFixed(now), 0.05, "EUR")
		res, err := eng.Reserve(context.Background(), 9, 1, 2)
		require.NoError(t, err)
		_, err = eng.Transition(context.Background(), res.ID, OutcomeConfirm, "pi_9")
		require.NoError(t, err)

		applied, err := eng.CancelIfPending(context.Background(), res.ID)
		require.NoError(t, err)
		assert.False(t, applied)
		assert.Equal(t, model.ReservationConfirmed, store.resvs[res.ID].Status)
		assert.Equal(t, model.PaymentCompleted, store.payments[res.ID].Status)
		assert.Equal(t, uint32(3), store.tiers[1].Available)
	})

	t.Run("no-op after cancellation", func(t *testing.T) {
		store := newFakeStore(standardTier())
		eng := NewEngine(store, clock.NewFixed(now), 0.05, "EUR")
		res, err := eng.Reserve(context.Background(), 9, 1, 2)
		require.NoError(t, err)
		_, err = eng.Transition(context.Background(), res.ID, OutcomeCancel, "")
		require.NoError(t, err)

		applied, err := eng.CancelIfPending(context.Background(), res.ID)
		require.NoError(t, err)
		assert.False(t, applied)
		assert.Equal(t, uint32(5), store.tiers[1].Available)
	})
}
