// Package queue defines message payloads exchanged over the message broker.
package queue

// ReservationConfirmedEvent is published when a reservation is confirmed,
// either through the payment gateway webhook or the test confirmation
// endpoint. It contains enough information for downstream consumers to log,
// notify, or trigger analytics without querying the primary database.
type ReservationConfirmedEvent struct {
	ReservationID   uint64 `json:"reservation_id"`
	UserID          uint64 `json:"user_id"`
	EventID         uint64 `json:"event_id"`
	EventTitle      string `json:"event_title"`
	VenueName       string `json:"venue_name"`
	TierName        string `json:"tier_name"`
	Quantity        uint32 `json:"quantity"`
	TotalCents      int64  `json:"total_cents"`
	CommissionCents int64  `json:"commission_cents"`
	OrganizerCents  int64  `json:"organizer_cents"`
	Currency        string `json:"currency"`
	ConfirmedAt     string `json:"confirmed_at"`
}
