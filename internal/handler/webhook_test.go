package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	stripe "github.com/stripe/stripe-go"

	"github.com/evreno/event-ticketing/internal/clock"
	"github.com/evreno/event-ticketing/internal/config"
	"github.com/evreno/event-ticketing/internal/model"
	"github.com/evreno/event-ticketing/internal/reservation"
)

// memStore is a minimal in-memory reservation.Store for exercising the
// webhook paths through a real engine.
type memStore struct {
	mu       sync.Mutex
	tiers    map[uint64]model.TicketTier
	resvs    map[uint64]model.Reservation
	payments map[uint64]model.Payment
}

func (s *memStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx reservation.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(ctx, (*memTx)(s))
}

type memTx memStore

func (t *memTx) TierForUpdate(_ context.Context, tierID uint64) (model.TicketTier, error) {
	tier, ok := t.tiers[tierID]
	if !ok {
		return model.TicketTier{}, reservation.ErrTierNotFound
	}
	return tier, nil
}

func (t *memTx) DecrementAvailable(_ context.Context, tierID uint64, qty uint32) error {
	tier, ok := t.tiers[tierID]
	if !ok || tier.Available < qty {
		return reservation.ErrInsufficientInventory
	}
	tier.Available -= qty
	t.tiers[tierID] = tier
	return nil
}

func (t *memTx) RestockAvailable(_ context.Context, tierID uint64, qty uint32) error {
	tier, ok := t.tiers[tierID]
	if !ok {
		return reservation.ErrTierNotFound
	}
	if tier.Available+qty > tier.Quantity {
		return reservation.ErrInventoryOverflow
	}
	tier.Available += qty
	t.tiers[tierID] = tier
	return nil
}

func (t *memTx) CreateReservation(_ context.Context, res *model.Reservation) error {
	t.resvs[res.ID] = *res
	return nil
}

func (t *memTx) CreatePayment(_ context.Context, p *model.Payment) error {
	t.payments[p.ReservationID] = *p
	return nil
}

func (t *memTx) ReservationForUpdate(_ context.Context, id uint64) (model.Reservation, error) {
	res, ok := t.resvs[id]
	if !ok {
		return model.Reservation{}, reservation.ErrReservationNotFound
	}
	if p, ok := t.payments[id]; ok {
		res.Payment = &p
	}
	return res, nil
}

func (t *memTx) UpdateReservationStatus(_ context.Context, id uint64, status string) error {
	res := t.resvs[id]
	res.Status = status
	t.resvs[id] = res
	return nil
}

func (t *memTx) CompletePayment(_ context.Context, reservationID uint64, externalRef string, paidAt time.Time) error {
	p := t.payments[reservationID]
	p.Status = model.PaymentCompleted
	p.ExternalRef = &externalRef
	p.PaidAt = &paidAt
	t.payments[reservationID] = p
	return nil
}

func (t *memTx) FailPayment(_ context.Context, reservationID uint64) error {
	p := t.payments[reservationID]
	p.Status = model.PaymentFailed
	t.payments[reservationID] = p
	return nil
}

type fakePublisher struct {
	mu        sync.Mutex
	published []model.Reservation
}

func (f *fakePublisher) PublishConfirmed(_ context.Context, res model.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, res)
	return nil
}

func newWebhookFixture() (*WebhookHandler, *memStore, *fakePublisher) {
	store := &memStore{
		tiers:    map[uint64]model.TicketTier{1: {ID: 1, EventID: 1, Quantity: 100, Available: 98}},
		resvs:    map[uint64]model.Reservation{},
		payments: map[uint64]model.Payment{},
	}
	clk := clock.NewFixed(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	eng := reservation.NewEngine(store, clk, 0.05, "EUR")
	pub := &fakePublisher{}
	cfg := config.Config{StripeWebhookSecret: "whsec_test"}
	return NewWebhookHandler(cfg, eng, pub), store, pub
}

func seedPending(store *memStore, id uint64) {
	store.resvs[id] = model.Reservation{
		ID: id, UserID: 7, TierID: 1, EventID: 1,
		Quantity: 2, TotalCents: 3000, Status: model.ReservationPending,
	}
	store.payments[id] = model.Payment{
		ReservationID: id, AmountCents: 3000, CommissionCents: 150,
		OrganizerCents: 2850, Currency: "EUR", Status: model.PaymentPending,
	}
}

func sessionEvent(eventType, sessionJSON string) stripe.Event {
	return stripe.Event{
		Type: eventType,
		Data: &stripe.EventData{Raw: json.RawMessage(sessionJSON)},
	}
}

func TestStripeWebhookRejectsInvalidSignature(t *testing.T) {
	h, _, pub := newWebhookFixture()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/payments/webhook", strings.NewReader(`{}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=bogus")
	rec := httptest.NewRecorder()

	err := h.StripeWebhook(e.NewContext(req, rec))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid signature")
	assert.Empty(t, pub.published)
}

func TestDispatchCompletedConfirmsReservation(t *testing.T) {
	h, store, pub := newWebhookFixture()
	seedPending(store, 42)

	ev := sessionEvent("checkout.session.completed",
		`{"id":"cs_1","payment_intent":"pi_123","metadata":{"reservation_id":"42"}}`)
	require.NoError(t, h.dispatch(context.Background(), ev))

	res := store.resvs[42]
	assert.Equal(t, model.ReservationConfirmed, res.Status)
	pay := store.payments[42]
	assert.Equal(t, model.PaymentCompleted, pay.Status)
	require.NotNil(t, pay.ExternalRef)
	assert.Equal(t, "pi_123", *pay.ExternalRef)

	require.Len(t, pub.published, 1)
	assert.Equal(t, uint64(42), pub.published[0].ID)
}

func TestDispatchCompletedReplayIsIdempotent(t *testing.T) {
	h, store, pub := newWebhookFixture()
	seedPending(store, 42)

	ev := sessionEvent("checkout.session.completed",
		`{"id":"cs_1","payment_intent":"pi_123","metadata":{"reservation_id":"42"}}`)
	require.NoError(t, h.dispatch(context.Background(), ev))
	require.NoError(t, h.dispatch(context.Background(), ev))

	// Inventory never moves on confirm, and the replay re-announces the
	// stored state without re-stamping anything.
	assert.Equal(t, uint32(98), store.tiers[1].Available)
	assert.Equal(t, model.ReservationConfirmed, store.resvs[42].Status)
	assert.Len(t, pub.published, 2)
}

func TestDispatchCompletedAfterCancellationIsAcknowledged(t *testing.T) {
	h, store, pub := newWebhookFixture()
	seedPending(store, 42)
	res := store.resvs[42]
	res.Status = model.ReservationCancelled
	store.resvs[42] = res

	ev := sessionEvent("checkout.session.completed",
		`{"id":"cs_1","payment_intent":"pi_123","metadata":{"reservation_id":"42"}}`)
	// Returns nil so the gateway stops retrying; the conflict is logged
	// for manual reconciliation instead.
	require.NoError(t, h.dispatch(context.Background(), ev))
	assert.Equal(t, model.ReservationCancelled, store.resvs[42].Status)
	assert.Empty(t, pub.published)
}

func TestDispatchExpiredCancelsPendingOnly(t *testing.T) {
	h, store, _ := newWebhookFixture()
	seedPending(store, 42)

	ev := sessionEvent("checkout.session.expired",
		`{"id":"cs_1","metadata":{"reservation_id":"42"}}`)
	require.NoError(t, h.dispatch(context.Background(), ev))

	assert.Equal(t, model.ReservationCancelled, store.resvs[42].Status)
	assert.Equal(t, model.PaymentFailed, store.payments[42].Status)
	assert.Equal(t, uint32(100), store.tiers[1].Available, "tickets should be restocked")
}

func TestDispatchExpiredSkipsConfirmed(t *testing.T) {
	h, store, pub := newWebhookFixture()
	seedPending(store, 42)

	confirm := sessionEvent("checkout.session.completed",
		`{"id":"cs_1","payment_intent":"pi_123","metadata":{"reservation_id":"42"}}`)
	require.NoError(t, h.dispatch(context.Background(), confirm))
	require.Len(t, pub.published, 1)

	expired := sessionEvent("checkout.session.expired",
		`{"id":"cs_1","metadata":{"reservation_id":"42"}}`)
	require.NoError(t, h.dispatch(context.Background(), expired))

	assert.Equal(t, model.ReservationConfirmed, store.resvs[42].Status)
	assert.Equal(t, uint32(98), store.tiers[1].Available)
}

func TestDispatchIgnoresUnknownEventsAndMissingMetadata(t *testing.T) {
	h, store, pub := newWebhookFixture()
	seedPending(store, 42)

	require.NoError(t, h.dispatch(context.Background(),
		sessionEvent("invoice.paid", `{"id":"in_1"}`)))
	require.NoError(t, h.dispatch(context.Background(),
		sessionEvent("checkout.session.completed", `{"id":"cs_1"}`)))
	require.NoError(t, h.dispatch(context.Background(),
		sessionEvent("checkout.session.expired", `{"id":"cs_1","metadata":{"reservation_id":"999"}}`)))

	assert.Equal(t, model.ReservationPending, store.resvs[42].Status)
	assert.Empty(t, pub.published)
}
