package model

import "time"

// Event status values stored in events.status.  Only PUBLISHED events
// appear in public listings.
const (
    EventDraft     = "DRAFT"
    EventPublished = "PUBLISHED"
)

// Event represents a scheduled event at a venue.  Ticket tiers for the
// event live in the `ticket_tiers` table.
//
// Fields:
//  ID          – primary key identifier.
//  OrganizerID – user who created the event.
//  VenueID     – venue hosting the event.
//  Title       – event title.
//  Description – optional free-form description.
//  StartDate   – when the event starts.
//  EndDate     – when the event ends.
//  CoverImage  – URL of the cover image (empty when unset).
//  Status      – DRAFT or PUBLISHED.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Event struct {
    ID          uint64    // events.id
    OrganizerID uint64    // events.organizer_id
    VenueID     uint64    // events.venue_id
    Title       string    // events.title
    Description string    // events.description
    StartDate   time.Time // events.start_date
    EndDate     time.Time // events.end_date
    CoverImage  string    // events.cover_image
    Status      string    // events.status
    CreatedAt   time.Time // events.created_at
    UpdatedAt   time.Time // events.updated_at
}
