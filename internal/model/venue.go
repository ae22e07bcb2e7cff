package model

import (
    "encoding/json"
    "time"
)

// Venue represents a physical location owned by an organizer.  The
// Layout column holds the seating/table arrangement produced by the
// external layout editor.  The application stores and returns it
// verbatim and never interprets its contents.
//
// Fields:
//  ID          – primary key identifier.
//  OrganizerID – user who owns the venue.
//  Name        – venue name.
//  Description – optional free-form description.
//  Address     – street address.
//  City        – city used for public search filters.
//  Capacity    – declared total capacity of the venue.
//  Layout      – opaque JSON blob from the layout editor (nullable).
//  Images      – JSON array of image URLs (nullable).
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Venue struct {
    ID          uint64          // venues.id
    OrganizerID uint64          // venues.organizer_id
    Name        string          // venues.name
    Description string          // venues.description
    Address     string          // venues.address
    City        string          // venues.city
    Capacity    uint32          // venues.capacity
    Layout      json.RawMessage // venues.layout (opaque, nullable)
    Images      json.RawMessage // venues.images (nullable)
    CreatedAt   time.Time       // venues.created_at
    UpdatedAt   time.Time       // venues.updated_at
}
