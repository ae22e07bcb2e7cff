package reservation

import (
    "context"

    "github.com/evreno/event-ticketing/internal/clock"
    "github.com/evreno/event-ticketing/internal/commission"
    "github.com/evreno/event-ticketing/internal/model"
)

// Outcome names a terminal transition applied to a pending reservation.
type Outcome string

const (
    // OutcomeConfirm marks the reservation CONFIRMED and its payment
    // COMPLETED.  Inventory stays committed.
    OutcomeConfirm Outcome = "CONFIRM"
    // OutcomeCancel marks the reservation CANCELLED, its payment
    // FAILED, and returns the reserved quantity to the tier.
    OutcomeCancel Outcome = "CANCEL"
)

// Quantity bounds for a single reservation.
const (
    MinQuantity = 1
    MaxQuantity = 10
)

// Engine executes reservation operations atomically against a Store.
// A reservation and its payment always move together: there is no
// state where one is terminal and the other is not.
type Engine struct {
    store          Store
    clock          clock.Clock
    commissionRate float64
    currency       string
}

// NewEngine builds an Engine.  commissionRate is the platform's share
// of each gross amount (expected in [0,1]); currency is the ISO code
// stamped on new payments.
func NewEngine(store Store, clk clock.Clock, commissionRate float64, currency string) *Engine {
    if store == nil || clk == nil {
        panic("nil dependency passed to NewEngine")
    }
    return &Engine{store: store, clock: clk, commissionRate: commissionRate, currency: currency}
}

// Reserve claims qty tickets of the given tier for userID.  In one
// transaction it locks the tier, conditionally decrements its
// available count, and creates the Reservation(PENDING) plus its
// Payment(PENDING) with the commission split applied.  On any error
// nothing is persisted.  The returned reservation carries the created
// payment.
func (e *Engine) Reserve(ctx context.Context, userID, tierID uint64, qty uint32) (model.Reservation, error) {
    if qty < MinQuantity || qty > MaxQuantity {
        return model.Reservation{}, ErrInvalidQuantity
    }

    var out model.Reservation
    err := e.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
        tier, err := tx.TierForUpdate(ctx, tierID)
        if err != nil {
            return err
        }
        if err := tx.DecrementAvailable(ctx, tierID, qty); err != nil {
            return err
        }

        total := tier.PriceCents * int64(qty)
        res := model.Reservation{
            UserID:     userID,
            TierID:     tierID,
            EventID:    tier.EventID,
            Quantity:   qty,
            TotalCents: total,
            Status:     model.ReservationPending,
        }
        if err := tx.CreateReservation(ctx, &res); err != nil {
            return err
        }

        comm, org := commission.Split(total, e.commissionRate)
        pay := model.Payment{
            ReservationID:   res.ID,
            AmountCents:     total,
            CommissionCents: comm,
            OrganizerCents:  org,
            Currency:        e.currency,
            Status:          model.PaymentPending,
        }
        if err := tx.CreatePayment(ctx, &pay); err != nil {
            return err
        }

        res.Payment = &pay
        out = res
        return nil
    })
    if err != nil {
        return model.Reservation{}, err
    }
    return out, nil
}

// Transition applies a terminal outcome to a reservation.  Ownership
// of the reservation is the caller's responsibility to verify.
//
// Re-applying the outcome a reservation already reached is an
// idempotent success: the stored state is returned unchanged, paidAt
// is not re-stamped, and no inventory moves.  A conflicting outcome
// against a terminal reservation fails with ErrAlreadyTerminal.
// externalRef is the payment-provider reference recorded on confirm;
// it is ignored for cancellations.
func (e *Engine) Transition(ctx context.Context, reservationID uint64, outcome Outcome, externalRef string) (model.Reservation, error) {
    var out model.Reservation
    err := e.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
        res, err := tx.ReservationForUpdate(ctx, reservationID)
        if err != nil {
            return err
        }

        switch res.Status {
        case model.ReservationPending:
            // fall through to apply the outcome
        case model.ReservationConfirmed:
            if outcome == OutcomeConfirm {
                out = res
                return nil
            }
            return ErrAlreadyTerminal
        case model.ReservationCancelled:
            if outcome == OutcomeCancel {
                out = res
                return nil
            }
            return ErrAlreadyTerminal
        }

        if outcome == OutcomeConfirm {
            if err := e.confirmTx(ctx, tx, &res, externalRef); err != nil {
                return err
            }
        } else {
            if err := e.cancelTx(ctx, tx, &res); err != nil {
                return err
            }
        }
        out = res
        return nil
    })
    if err != nil {
        return model.Reservation{}, err
    }
    return out, nil
}

// CancelIfPending cancels the reservation only when it is still
// PENDING.  Terminal reservations are left untouched and reported as
// not applied; a stale checkout-expiry event must never cancel a
// confirmed reservation.  Returns whether the cancellation was
// applied.
func (e *Engine) CancelIfPending(ctx context.Context, reservationID uint64) (bool, error) {
    applied := false
    err := e.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
        res, err := tx.ReservationForUpdate(ctx, reservationID)
        if err != nil {
            return err
        }
        if res.Status != model.ReservationPending {
            return nil
        }
        if err := e.cancelTx(ctx, tx, &res); err != nil {
            return err
        }
        applied = true
        return nil
    })
    return applied, err
}

// confirmTx applies the CONFIRM effects inside tx and updates res to
// reflect the new state.  Inventory stays as committed at reserve
// time.
func (e *Engine) confirmTx(ctx context.Context, tx Tx, res *model.Reservation, externalRef string) error {
    now := e.clock.Now()
    if err := tx.UpdateReservationStatus(ctx, res.ID, model.ReservationConfirmed); err != nil {
        return err
    }
    if err := tx.CompletePayment(ctx, res.ID, externalRef, now); err != nil {
        return err
    }
    res.Status = model.ReservationConfirmed
    if res.Payment != nil {
        res.Payment.Status = model.PaymentCompleted
        res.Payment.PaidAt = &now
        if externalRef != "" {
            ref := externalRef
            res.Payment.ExternalRef = &ref
        }
    }
    return nil
}

// cancelTx applies the CANCEL effects inside tx: terminal statuses on
// both records and the inventory compensation.
func (e *Engine) cancelTx(ctx context.Context, tx Tx, res *model.Reservation) error {
    if err := tx.UpdateReservationStatus(ctx, res.ID, model.ReservationCancelled); err != nil {
        return err
    }
    if err := tx.FailPayment(ctx, res.ID); err != nil {
        return err
    }
    if err := tx.RestockAvailable(ctx, res.TierID, res.Quantity); err != nil {
        return err
    }
    res.Status = model.ReservationCancelled
    if res.Payment != nil {
        res.Payment.Status = model.PaymentFailed
    }
    return nil
}
