package repository

import (
    "context"
    "database/sql"
    "strings"

    "github.com/evreno/event-ticketing/internal/model"
)

// EventRepo provides CRUD operations for events and their ticket
// tiers.  Creating an event with tiers happens in one transaction so
// a half-created event never becomes visible.
type EventRepo struct {
    db *sql.DB
}

// NewEventRepo returns a new EventRepo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions.
func (r *EventRepo) DB() *sql.DB { return r.db }

// EventSummary is the listing shape returned to browsers: event core
// fields plus the venue name/city and the organizer display name.
type EventSummary struct {
    ID         uint64  `json:"id"`
    Title      string  `json:"title"`
    StartDate  string  `json:"start_date"`
    EndDate    string  `json:"end_date"`
    CoverImage string  `json:"cover_image,omitempty"`
    Status     string  `json:"status"`
    VenueName  string  `json:"venue_name"`
    VenueCity  string  `json:"venue_city"`
    Organizer  string  `json:"organizer"`
}

// CreateTx inserts an event within an existing transaction and
// populates the generated ID.
func (r *EventRepo) CreateTx(ctx context.Context, tx *sql.Tx, ev *model.Event) error {
    const q = `INSERT INTO events (organizer_id, venue_id, title, description, start_date, end_date, cover_image, status)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
    res, err := tx.ExecContext(ctx, q,
        ev.OrganizerID, ev.VenueID, ev.Title, ev.Description, ev.StartDate, ev.EndDate, ev.CoverImage, ev.Status)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    ev.ID = uint64(id)
    return nil
}

// GetByID returns an event by id. Returns ErrEventNotFound when no
// row exists.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (*model.Event, error) {
    const q = `SELECT id, organizer_id, venue_id, title, description, start_date, end_date, cover_image, status, created_at, updated_at
               FROM events WHERE id = ?`
    var ev model.Event
    err := r.db.QueryRowContext(ctx, q, id).Scan(
        &ev.ID, &ev.OrganizerID, &ev.VenueID, &ev.Title, &ev.Description,
        &ev.StartDate, &ev.EndDate, &ev.CoverImage, &ev.Status, &ev.CreatedAt, &ev.UpdatedAt)
    if err == sql.ErrNoRows {
        return nil, ErrEventNotFound
    }
    if err != nil {
        return nil, err
    }
    return &ev, nil
}

// List returns event summaries filtered by status and optionally by a
// case-insensitive venue-city substring, ordered by start date.
func (r *EventRepo) List(ctx context.Context, status, city string) ([]EventSummary, error) {
    q := `SELECT e.id, e.title, e.start_date, e.end_date, e.cover_image, e.status,
                 v.name, v.city, u.name
          FROM events e
          JOIN venues v ON v.id = e.venue_id
          JOIN users u ON u.id = e.organizer_id
          WHERE e.status = ?`
    args := []interface{}{status}
    if city = strings.TrimSpace(city); city != "" {
        q += ` AND LOWER(v.city) LIKE ?`
        args = append(args, "%"+strings.ToLower(city)+"%")
    }
    q += ` ORDER BY e.start_date ASC`
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]EventSummary, 0)
    for rows.Next() {
        var s EventSummary
        var start, end sql.NullTime
        if err := rows.Scan(&s.ID, &s.Title, &start, &end, &s.CoverImage, &s.Status,
            &s.VenueName, &s.VenueCity, &s.Organizer); err != nil {
            return nil, err
        }
        if start.Valid {
            s.StartDate = start.Time.UTC().Format("2006-01-02T15:04:05Z07:00")
        }
        if end.Valid {
            s.EndDate = end.Time.UTC().Format("2006-01-02T15:04:05Z07:00")
        }
        out = append(out, s)
    }
    return out, rows.Err()
}

// ListByOrganizer returns all events created by the given organizer,
// newest first, regardless of status.
func (r *EventRepo) ListByOrganizer(ctx context.Context, organizerID uint64) ([]model.Event, error) {
    const q = `SELECT id, organizer_id, venue_id, title, description, start_date, end_date, cover_image, status, created_at, updated_at
               FROM events WHERE organizer_id = ? ORDER BY created_at DESC`
    rows, err := r.db.QueryContext(ctx, q, organizerID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Event, 0)
    for rows.Next() {
        var ev model.Event
        if err := rows.Scan(&ev.ID, &ev.OrganizerID, &ev.VenueID, &ev.Title, &ev.Description,
            &ev.StartDate, &ev.EndDate, &ev.CoverImage, &ev.Status, &ev.CreatedAt, &ev.UpdatedAt); err != nil {
            return nil, err
        }
        out = append(out, ev)
    }
    return out, rows.Err()
}

// Update rewrites the mutable event columns for an event owned by the
// organizer.
func (r *EventRepo) Update(ctx context.Context, ev *model.Event) error {
    const q = `UPDATE events SET venue_id=?, title=?, description=?, start_date=?, end_date=?, cover_image=?, status=?
               WHERE id=? AND organizer_id=?`
    res, err := r.db.ExecContext(ctx, q,
        ev.VenueID, ev.Title, ev.Description, ev.StartDate, ev.EndDate, ev.CoverImage, ev.Status,
        ev.ID, ev.OrganizerID)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrEventNotFound
    }
    return nil
}

// Delete removes an event owned by the organizer. Events that already
// have reservations cannot be deleted; the FK violation surfaces as
// ErrConflict.
func (r *EventRepo) Delete(ctx context.Context, id, organizerID uint64) error {
    res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id=? AND organizer_id=?`, id, organizerID)
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
        return ErrEventNotFound
    }
    return nil
}
