package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/evreno/event-ticketing/internal/model"
    "github.com/evreno/event-ticketing/internal/reservation"
)

// Store implements reservation.Store on top of the SQL repositories.
// Each WithTx call maps to one database transaction; the engine's
// all-or-nothing guarantee is the transaction's atomicity.  The store
// also translates the repositories' sql sentinel errors into the
// engine's domain errors.
type Store struct {
    db           *sql.DB
    tiers        *TierRepo
    reservations *ReservationRepo
    payments     *PaymentRepo
}

// NewStore builds a Store over one database handle.
func NewStore(db *sql.DB) *Store {
    return &Store{
        db:           db,
        tiers:        NewTierRepo(db),
        reservations: NewReservationRepo(db),
        payments:     NewPaymentRepo(db),
    }
}

// WithTx runs fn inside a transaction, rolling back on error.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx reservation.Tx) error) error {
    tx, err := s.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    if err := fn(ctx, &storeTx{store: s, tx: tx}); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// storeTx is the transaction-scoped view handed to the engine.
type storeTx struct {
    store *Store
    tx    *sql.Tx
}

func (t *storeTx) TierForUpdate(ctx context.Context, tierID uint64) (model.TicketTier, error) {
    tier, err := t.store.tiers.GetForUpdateTx(ctx, t.tx, tierID)
    if err == sql.ErrNoRows {
        return model.TicketTier{}, reservation.ErrTierNotFound
    }
    return tier, err
}

func (t *storeTx) DecrementAvailable(ctx context.Context, tierID uint64, qty uint32) error {
    err := t.store.tiers.DecrementAvailableTx(ctx, t.tx, tierID, qty)
    if err == sql.ErrNoRows {
        return reservation.ErrInsufficientInventory
    }
    return err
}

func (t *storeTx) RestockAvailable(ctx context.Context, tierID uint64, qty uint32) error {
    err := t.store.tiers.RestockAvailableTx(ctx, t.tx, tierID, qty)
    if err == sql.ErrNoRows {
        return reservation.ErrInventoryOverflow
    }
    return err
}

func (t *storeTx) CreateReservation(ctx context.Context, res *model.Reservation) error {
    return t.store.reservations.CreateTx(ctx, t.tx, res)
}

func (t *storeTx) CreatePayment(ctx context.Context, p *model.Payment) error {
    return t.store.payments.CreateTx(ctx, t.tx, p)
}

func (t *storeTx) ReservationForUpdate(ctx context.Context, id uint64) (model.Reservation, error) {
    res, err := t.store.reservations.GetForUpdateTx(ctx, t.tx, id)
    if err == sql.ErrNoRows {
        return model.Reservation{}, reservation.ErrReservationNotFound
    }
    if err != nil {
        return model.Reservation{}, err
    }
    pay, err := t.store.payments.GetByReservationTx(ctx, t.tx, id)
    if err != nil {
        return model.Reservation{}, err
    }
    res.Payment = &pay
    return res, nil
}

func (t *storeTx) UpdateReservationStatus(ctx context.Context, id uint64, status string) error {
    return t.store.reservations.UpdateStatusTx(ctx, t.tx, id, status)
}

func (t *storeTx) CompletePayment(ctx context.Context, reservationID uint64, externalRef string, paidAt time.Time) error {
    return t.store.payments.CompleteTx(ctx, t.tx, reservationID, externalRef, paidAt)
}

func (t *storeTx) FailPayment(ctx context.Context, reservationID uint64) error {
    return t.store.payments.FailTx(ctx, t.tx, reservationID)
}
