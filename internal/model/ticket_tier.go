package model

import "time"

// TicketTier is a purchasable category of ticket for an event with its
// own price and capacity.  Available counts down from Quantity as
// reservations are made and is restored by compensations; it only
// changes through the reservation engine and always satisfies
// 0 <= Available <= Quantity.
//
// Fields:
//  ID         – primary key identifier.
//  EventID    – event this tier belongs to.
//  Name       – tier name (e.g. "Standard", "VIP").
//  PriceCents – unit price in minor currency units.
//  Quantity   – total number of tickets in the tier.
//  Available  – tickets still available for reservation.
//  Color      – display color used by the layout editor.
//  PosX       – optional X position on the venue layout (nullable).
//  PosY       – optional Y position on the venue layout (nullable).
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type TicketTier struct {
    ID         uint64    // ticket_tiers.id
    EventID    uint64    // ticket_tiers.event_id
    Name       string    // ticket_tiers.name
    PriceCents int64     // ticket_tiers.price_cents
    Quantity   uint32    // ticket_tiers.quantity
    Available  uint32    // ticket_tiers.available
    Color      string    // ticket_tiers.color
    PosX       *float64  // ticket_tiers.pos_x (nullable)
    PosY       *float64  // ticket_tiers.pos_y (nullable)
    CreatedAt  time.Time // ticket_tiers.created_at
    UpdatedAt  time.Time // ticket_tiers.updated_at
}
