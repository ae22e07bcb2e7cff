package repository

import (
    "context"
    "database/sql"
    "encoding/json"
    "strings"

    "github.com/evreno/event-ticketing/internal/model"
)

// VenueRepo provides CRUD operations for venues.  The layout and
// images columns hold JSON produced elsewhere; the repository reads
// and writes them verbatim without inspecting their structure.
type VenueRepo struct {
    db *sql.DB
}

// NewVenueRepo returns a new VenueRepo bound to the given database.
func NewVenueRepo(db *sql.DB) *VenueRepo { return &VenueRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions.
func (r *VenueRepo) DB() *sql.DB { return r.db }

// Create inserts a venue and populates its generated ID.
func (r *VenueRepo) Create(ctx context.Context, v *model.Venue) error {
    const q = `INSERT INTO venues (organizer_id, name, description, address, city, capacity, layout, images)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q,
        v.OrganizerID, v.Name, v.Description, v.Address, v.City, v.Capacity,
        nullJSON(v.Layout), nullJSON(v.Images))
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    v.ID = uint64(id)
    return nil
}

// GetByID returns a venue by id. Returns ErrVenueNotFound when the
// venue does not exist.
func (r *VenueRepo) GetByID(ctx context.Context, id uint64) (*model.Venue, error) {
    const q = `SELECT id, organizer_id, name, description, address, city, capacity, layout, images, created_at, updated_at
               FROM venues WHERE id = ?`
    return r.scanOne(r.db.QueryRowContext(ctx, q, id))
}

// GetByIDAndOwner returns a venue only when it belongs to the given
// organizer. Returns ErrVenueNotFound when no venue with the ID
// exists and ErrForbidden when it belongs to someone else.
func (r *VenueRepo) GetByIDAndOwner(ctx context.Context, id, organizerID uint64) (*model.Venue, error) {
    v, err := r.GetByID(ctx, id)
    if err != nil {
        return nil, err
    }
    if v.OrganizerID != organizerID {
        return nil, ErrForbidden
    }
    return v, nil
}

// List returns venues ordered newest first, optionally filtered by a
// case-insensitive city substring.
func (r *VenueRepo) List(ctx context.Context, city string) ([]model.Venue, error) {
    q := `SELECT id, organizer_id, name, description, address, city, capacity, layout, images, created_at, updated_at
          FROM venues`
    args := []interface{}{}
    if city = strings.TrimSpace(city); city != "" {
        q += ` WHERE LOWER(city) LIKE ?`
        args = append(args, "%"+strings.ToLower(city)+"%")
    }
    q += ` ORDER BY created_at DESC`
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Venue, 0)
    for rows.Next() {
        v, err := r.scanRow(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *v)
    }
    return out, rows.Err()
}

// ListByOwner returns all venues created by the given organizer.
func (r *VenueRepo) ListByOwner(ctx context.Context, organizerID uint64) ([]model.Venue, error) {
    const q = `SELECT id, organizer_id, name, description, address, city, capacity, layout, images, created_at, updated_at
               FROM venues WHERE organizer_id = ? ORDER BY created_at DESC`
    rows, err := r.db.QueryContext(ctx, q, organizerID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Venue, 0)
    for rows.Next() {
        v, err := r.scanRow(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *v)
    }
    return out, rows.Err()
}

// Update rewrites the mutable venue columns. The layout blob is
// replaced wholesale; partial layout edits happen in the external
// editor, not here.
func (r *VenueRepo) Update(ctx context.Context, v *model.Venue) error {
    const q = `UPDATE venues SET name=?, description=?, address=?, city=?, capacity=?, layout=?, images=?
               WHERE id=? AND organizer_id=?`
    res, err := r.db.ExecContext(ctx, q,
        v.Name, v.Description, v.Address, v.City, v.Capacity,
        nullJSON(v.Layout), nullJSON(v.Images), v.ID, v.OrganizerID)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrVenueNotFound
    }
    return nil
}

// Delete removes a venue owned by the organizer. Venues that still
// host events cannot be deleted; the FK violation surfaces as
// ErrConflict.
func (r *VenueRepo) Delete(ctx context.Context, id, organizerID uint64) error {
    res, err := r.db.ExecContext(ctx, `DELETE FROM venues WHERE id=? AND organizer_id=?`, id, organizerID)
    if err != nil {
        if strings.Contains(err.Error(), "1451") { // FK restrict
            return ErrConflict
        }
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrVenueNotFound
    }
    return nil
}

type rowScanner interface {
    Scan(dest ...interface{}) error
}

func (r *VenueRepo) scanOne(row *sql.Row) (*model.Venue, error) {
    v, err := r.scanRow(row)
    if err == sql.ErrNoRows {
        return nil, ErrVenueNotFound
    }
    return v, err
}

func (r *VenueRepo) scanRow(s rowScanner) (*model.Venue, error) {
    var v model.Venue
    var layout, images sql.NullString
    if err := s.Scan(&v.ID, &v.OrganizerID, &v.Name, &v.Description, &v.Address, &v.City, &v.Capacity,
        &layout, &images, &v.CreatedAt, &v.UpdatedAt); err != nil {
        return nil, err
    }
    if layout.Valid {
        v.Layout = json.RawMessage(layout.String)
    }
    if images.Valid {
        v.Images = json.RawMessage(images.String)
    }
    return &v, nil
}

// nullJSON maps an empty blob to SQL NULL so the column stays null
// instead of holding an empty string.
func nullJSON(raw json.RawMessage) interface{} {
    if len(raw) == 0 {
        return nil
    }
    return string(raw)
}
