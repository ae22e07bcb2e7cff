package repository

import (
    "context"
    "database/sql"

    "github.com/evreno/event-ticketing/internal/model"
)

// TierRepo encapsulates database operations for ticket_tiers.  The
// available column is the contended inventory counter: it is only
// modified through the conditional Tx methods below, always inside a
// transaction that holds the tier's row lock.
type TierRepo struct {
    db *sql.DB
}

// NewTierRepo constructs a TierRepo given a DB handle.
func NewTierRepo(db *sql.DB) *TierRepo { return &TierRepo{db: db} }

// CreateBulkTx inserts multiple tiers for one event in a single
// statement within the provided transaction.  Available starts equal
// to Quantity.  Passing an empty slice has no effect.
func (r *TierRepo) CreateBulkTx(ctx context.Context, tx *sql.Tx, tiers []model.TicketTier) error {
    if len(tiers) == 0 {
        return nil
    }
    query := `INSERT INTO ticket_tiers (event_id, name, price_cents, quantity, available, color, pos_x, pos_y) VALUES `
    args := make([]interface{}, 0, len(tiers)*8)
    for i, t := range tiers {
        if i > 0 {
            query += ","
        }
        query += "(?, ?, ?, ?, ?, ?, ?, ?)"
        args = append(args, t.EventID, t.Name, t.PriceCents, t.Quantity, t.Quantity, t.Color, t.PosX, t.PosY)
    }
    _, err := tx.ExecContext(ctx, query, args...)
    return err
}

// ListByEvent returns all tiers of an event ordered by price
// ascending, the order the reservation panel displays them in.
func (r *TierRepo) ListByEvent(ctx context.Context, eventID uint64) ([]model.TicketTier, error) {
    const q = `SELECT id, event_id, name, price_cents, quantity, available, color, pos_x, pos_y, created_at, updated_at
               FROM ticket_tiers WHERE event_id = ? ORDER BY price_cents ASC`
    rows, err := r.db.QueryContext(ctx, q, eventID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.TicketTier, 0)
    for rows.Next() {
        t, err := scanTier(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, t)
    }
    return out, rows.Err()
}

// GetByID returns a single tier without locking. Returns
// sql.ErrNoRows when the tier does not exist.
func (r *TierRepo) GetByID(ctx context.Context, id uint64) (model.TicketTier, error) {
    const q = `SELECT id, event_id, name, price_cents, quantity, available, color, pos_x, pos_y, created_at, updated_at
               FROM ticket_tiers WHERE id = ?`
    return scanTier(r.db.QueryRowContext(ctx, q, id))
}

// GetForUpdateTx loads a tier and takes its row lock for the duration
// of the transaction, serializing concurrent reservations against the
// same tier. Returns sql.ErrNoRows when the tier does not exist.
func (r *TierRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.TicketTier, error) {
    const q = `SELECT id, event_id, name, price_cents, quantity, available, color, pos_x, pos_y, created_at, updated_at
               FROM ticket_tiers WHERE id = ? FOR UPDATE`
    return scanTier(tx.QueryRowContext(ctx, q, id))
}

// DecrementAvailableTx conditionally reduces available by qty.  The
// WHERE clause keeps the counter from ever going negative: when the
// tier lacks capacity no row matches and sql.ErrNoRows is returned.
func (r *TierRepo) DecrementAvailableTx(ctx context.Context, tx *sql.Tx, id uint64, qty uint32) error {
    res, err := tx.ExecContext(ctx,
        `UPDATE ticket_tiers SET available = available - ? WHERE id = ? AND available >= ?`,
        qty, id, qty)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return sql.ErrNoRows
    }
    return nil
}

// RestockAvailableTx raises available by qty for a compensation.  The
// WHERE clause enforces available <= quantity after the update; a
// restock that would overflow matches no row and returns
// sql.ErrNoRows so the caller can fail the whole transaction instead
// of silently corrupting the counter.
func (r *TierRepo) RestockAvailableTx(ctx context.Context, tx *sql.Tx, id uint64, qty uint32) error {
    res, err := tx.ExecContext(ctx,
        `UPDATE ticket_tiers SET available = available + ? WHERE id = ? AND available + ? <= quantity`,
        qty, id, qty)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return sql.ErrNoRows
    }
    return nil
}

func scanTier(s rowScanner) (model.TicketTier, error) {
    var t model.TicketTier
    var posX, posY sql.NullFloat64
    err := s.Scan(&t.ID, &t.EventID, &t.Name, &t.PriceCents, &t.Quantity, &t.Available,
        &t.Color, &posX, &posY, &t.CreatedAt, &t.UpdatedAt)
    if err != nil {
        return model.TicketTier{}, err
    }
    if posX.Valid {
        v := posX.Float64
        t.PosX = &v
    }
    if posY.Valid {
        v := posY.Float64
        t.PosY = &v
    }
    return t, nil
}
