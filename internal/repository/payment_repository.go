package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/evreno/event-ticketing/internal/model"
)

// PaymentRepo provides persistence for payments.  A payment row is
// created together with its reservation and only transitions through
// the Tx methods, inside the same transaction as the reservation
// update.
type PaymentRepo struct {
    db *sql.DB
}

// NewPaymentRepo returns a new PaymentRepo bound to the given database.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

// CreateTx inserts a payment within an existing transaction and
// populates the generated ID and timestamps.
func (r *PaymentRepo) CreateTx(ctx context.Context, tx *sql.Tx, p *model.Payment) error {
    const q = `INSERT INTO payments (reservation_id, amount_cents, commission_cents, organizer_cents, currency, status)
               VALUES (?, ?, ?, ?, ?, ?)`
    result, err := tx.ExecContext(ctx, q,
        p.ReservationID, p.AmountCents, p.CommissionCents, p.OrganizerCents, p.Currency, p.Status)
    if err != nil {
        return err
    }
    id, err := result.LastInsertId()
    if err != nil {
        return err
    }
    p.ID = uint64(id)
    const sel = `SELECT created_at, updated_at FROM payments WHERE id = ?`
    return tx.QueryRowContext(ctx, sel, p.ID).Scan(&p.CreatedAt, &p.UpdatedAt)
}

// GetByReservationTx loads the payment paired with a reservation
// inside a transaction. Returns sql.ErrNoRows when absent.
func (r *PaymentRepo) GetByReservationTx(ctx context.Context, tx *sql.Tx, reservationID uint64) (model.Payment, error) {
    const q = `SELECT id, reservation_id, amount_cents, commission_cents, organizer_cents, currency, status, external_ref, paid_at, created_at, updated_at
               FROM payments WHERE reservation_id = ?`
    var p model.Payment
    var extRef sql.NullString
    var paidAt sql.NullTime
    err := tx.QueryRowContext(ctx, q, reservationID).Scan(
        &p.ID, &p.ReservationID, &p.AmountCents, &p.CommissionCents, &p.OrganizerCents,
        &p.Currency, &p.Status, &extRef, &paidAt, &p.CreatedAt, &p.UpdatedAt)
    if err != nil {
        return model.Payment{}, err
    }
    if extRef.Valid {
        ref := extRef.String
        p.ExternalRef = &ref
    }
    if paidAt.Valid {
        t := paidAt.Time.UTC()
        p.PaidAt = &t
    }
    return p, nil
}

// CompleteTx marks the payment COMPLETED, recording the external
// provider reference and the paid-at instant.
func (r *PaymentRepo) CompleteTx(ctx context.Context, tx *sql.Tx, reservationID uint64, externalRef string, paidAt time.Time) error {
    var ref interface{}
    if externalRef != "" {
        ref = externalRef
    }
    _, err := tx.ExecContext(ctx,
        `UPDATE payments SET status = ?, external_ref = ?, paid_at = ? WHERE reservation_id = ?`,
        model.PaymentCompleted, ref, paidAt, reservationID)
    return err
}

// FailTx marks the payment FAILED.
func (r *PaymentRepo) FailTx(ctx context.Context, tx *sql.Tx, reservationID uint64) error {
    _, err := tx.ExecContext(ctx,
        `UPDATE payments SET status = ? WHERE reservation_id = ?`,
        model.PaymentFailed, reservationID)
    return err
}
