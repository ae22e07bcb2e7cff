package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/evreno/event-ticketing/internal/model"
)

// ReservationRepo provides persistence for reservations.  Creation and
// status changes only happen through the Tx methods, invoked by the
// reservation engine inside a transaction; read methods serve the
// listing endpoints.
type ReservationRepo struct {
    db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given
// database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the underlying handle so the store can open transactions.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

// CreateTx inserts a reservation within an existing transaction and
// populates the generated ID and timestamps on the passed record.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
    const q = `INSERT INTO reservations (user_id, tier_id, event_id, quantity, total_cents, status) VALUES (?, ?, ?, ?, ?, ?)`
    result, err := tx.ExecContext(ctx, q, res.UserID, res.TierID, res.EventID, res.Quantity, res.TotalCents, res.Status)
    if err != nil {
        return err
    }
    id, err := result.LastInsertId()
    if err != nil {
        return err
    }
    res.ID = uint64(id)
    // Query back the row to populate DB-side timestamps.
    const sel = `SELECT created_at, updated_at FROM reservations WHERE id = ?`
    return tx.QueryRowContext(ctx, sel, res.ID).Scan(&res.CreatedAt, &res.UpdatedAt)
}

// GetForUpdateTx loads a reservation and takes its row lock, which
// serializes concurrent transitions (including duplicate webhook
// deliveries) against the same reservation. Returns sql.ErrNoRows
// when the reservation does not exist.
func (r *ReservationRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Reservation, error) {
    const q = `SELECT id, user_id, tier_id, event_id, quantity, total_cents, status, created_at, updated_at
               FROM reservations WHERE id = ? FOR UPDATE`
    var res model.Reservation
    err := tx.QueryRowContext(ctx, q, id).Scan(
        &res.ID, &res.UserID, &res.TierID, &res.EventID, &res.Quantity,
        &res.TotalCents, &res.Status, &res.CreatedAt, &res.UpdatedAt)
    return res, err
}

// UpdateStatusTx sets the reservation's status within a transaction.
func (r *ReservationRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
    _, err := tx.ExecContext(ctx, `UPDATE reservations SET status = ? WHERE id = ?`, status, id)
    return err
}

// ListPendingBefore returns IDs of reservations still PENDING that
// were created before the cutoff. Used by the expiry sweeper.
func (r *ReservationRepo) ListPendingBefore(ctx context.Context, cutoff time.Time) ([]uint64, error) {
    const q = `SELECT id FROM reservations WHERE status = ? AND created_at < ? ORDER BY created_at ASC`
    rows, err := r.db.QueryContext(ctx, q, model.ReservationPending, cutoff)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var ids []uint64
    for rows.Next() {
        var id uint64
        if err := rows.Scan(&id); err != nil {
            return nil, err
        }
        ids = append(ids, id)
    }
    return ids, rows.Err()
}

// ReservationDetail is the shape returned to attendees: the
// reservation with its payment and enough event/venue context to
// render a listing row.
type ReservationDetail struct {
    ID         uint64    `json:"id"`
    TierID     uint64    `json:"tier_id"`
    TierName   string    `json:"tier_name"`
    EventID    uint64    `json:"event_id"`
    EventTitle string    `json:"event_title"`
    EventStart time.Time `json:"event_start"`
    VenueName  string    `json:"venue_name"`
    VenueCity  string    `json:"venue_city"`
    Quantity   uint32    `json:"quantity"`
    TotalCents int64     `json:"total_cents"`
    Status     string    `json:"status"`
    CreatedAt  time.Time `json:"created_at"`

    Payment struct {
        AmountCents     int64      `json:"amount_cents"`
        CommissionCents int64      `json:"commission_cents"`
        OrganizerCents  int64      `json:"organizer_cents"`
        Currency        string     `json:"currency"`
        Status          string     `json:"status"`
        ExternalRef     *string    `json:"external_ref,omitempty"`
        PaidAt          *time.Time `json:"paid_at,omitempty"`
    } `json:"payment"`
}

const detailQuery = `SELECT r.id, r.tier_id, t.name, r.event_id, e.title, e.start_date,
                            v.name, v.city,
                            r.quantity, r.total_cents, r.status, r.created_at,
                            p.amount_cents, p.commission_cents, p.organizer_cents, p.currency, p.status, p.external_ref, p.paid_at
                     FROM reservations r
                     JOIN ticket_tiers t ON t.id = r.tier_id
                     JOIN events e ON e.id = r.event_id
                     JOIN venues v ON v.id = e.venue_id
                     JOIN payments p ON p.reservation_id = r.id`

// GetByIDForUser returns a single reservation with payment and event
// context, restricted to the requesting user to enforce ownership.
// Returns sql.ErrNoRows when the reservation does not exist or
// belongs to someone else.
func (r *ReservationRepo) GetByIDForUser(ctx context.Context, reservationID, userID uint64) (*ReservationDetail, error) {
    q := detailQuery + ` WHERE r.id = ? AND r.user_id = ?`
    det, err := scanDetail(r.db.QueryRowContext(ctx, q, reservationID, userID))
    if err != nil {
        return nil, err
    }
    return det, nil
}

// ListByUser returns all reservations of a user, newest first.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]ReservationDetail, error) {
    q := detailQuery + ` WHERE r.user_id = ? ORDER BY r.created_at DESC`
    rows, err := r.db.QueryContext(ctx, q, userID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]ReservationDetail, 0)
    for rows.Next() {
        det, err := scanDetail(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *det)
    }
    return out, rows.Err()
}

func scanDetail(s rowScanner) (*ReservationDetail, error) {
    var d ReservationDetail
    var extRef sql.NullString
    var paidAt sql.NullTime
    if err := s.Scan(&d.ID, &d.TierID, &d.TierName, &d.EventID, &d.EventTitle, &d.EventStart,
        &d.VenueName, &d.VenueCity,
        &d.Quantity, &d.TotalCents, &d.Status, &d.CreatedAt,
        &d.Payment.AmountCents, &d.Payment.CommissionCents, &d.Payment.OrganizerCents,
        &d.Payment.Currency, &d.Payment.Status, &extRef, &paidAt); err != nil {
        return nil, err
    }
    if extRef.Valid {
        ref := extRef.String
        d.Payment.ExternalRef = &ref
    }
    if paidAt.Valid {
        t := paidAt.Time.UTC()
        d.Payment.PaidAt = &t
    }
    return &d, nil
}
