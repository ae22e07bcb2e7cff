package model

import "time"

// Reservation status values.  CONFIRMED and CANCELLED are terminal;
// a reservation in a terminal state never changes again.
const (
    ReservationPending   = "PENDING"
    ReservationConfirmed = "CONFIRMED"
    ReservationCancelled = "CANCELLED"
)

// Payment status values.  A payment always moves together with its
// reservation: COMPLETED pairs with CONFIRMED, FAILED with CANCELLED.
const (
    PaymentPending   = "PENDING"
    PaymentCompleted = "COMPLETED"
    PaymentFailed    = "FAILED"
)

// Reservation records a user's claim on a quantity of one ticket tier.
// TotalCents is fixed at creation time (quantity × tier unit price)
// and never changes afterwards.
//
// Fields:
//  ID         – primary key identifier.
//  UserID     – user who made the reservation.
//  TierID     – ticket tier being reserved.
//  EventID    – event the tier belongs to (denormalized for listings).
//  Quantity   – number of tickets claimed (1..10).
//  TotalCents – total price in minor currency units.
//  Status     – PENDING, CONFIRMED or CANCELLED.
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
//
// Payment is populated by the reservation engine when it returns a
// reservation; it is not a column of the reservations table.
type Reservation struct {
    ID         uint64    // reservations.id
    UserID     uint64    // reservations.user_id
    TierID     uint64    // reservations.tier_id
    EventID    uint64    // reservations.event_id
    Quantity   uint32    // reservations.quantity
    TotalCents int64     // reservations.total_cents
    Status     string    // reservations.status
    CreatedAt  time.Time // reservations.created_at
    UpdatedAt  time.Time // reservations.updated_at

    Payment *Payment // 1:1 payment, loaded alongside the reservation
}

// Payment mirrors the `payments` table.  Exactly one payment exists per
// reservation.  Amount always equals the reservation's TotalCents;
// CommissionCents and OrganizerCents are the commission split computed
// at reservation time.
//
// Fields:
//  ID             – primary key identifier.
//  ReservationID  – owning reservation (unique).
//  AmountCents    – gross amount in minor currency units.
//  CommissionCents – platform commission share.
//  OrganizerCents – organizer net share.
//  Currency       – ISO currency code (e.g. "EUR").
//  Status         – PENDING, COMPLETED or FAILED.
//  ExternalRef    – payment-provider reference (nullable until set).
//  PaidAt         – when the payment completed (nullable).
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type Payment struct {
    ID              uint64     // payments.id
    ReservationID   uint64     // payments.reservation_id
    AmountCents     int64      // payments.amount_cents
    CommissionCents int64      // payments.commission_cents
    OrganizerCents  int64      // payments.organizer_cents
    Currency        string     // payments.currency
    Status          string     // payments.status
    ExternalRef     *string    // payments.external_ref (nullable)
    PaidAt          *time.Time // payments.paid_at (nullable)
    CreatedAt       time.Time  // payments.created_at
    UpdatedAt       time.Time  // payments.updated_at
}
