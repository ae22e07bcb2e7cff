package handler

import (
	"context"
	"time"

	"github.com/evreno/event-ticketing/internal/model"
	"github.com/evreno/event-ticketing/internal/queue"
	"github.com/evreno/event-ticketing/internal/repository"
	queue_publisher "github.com/evreno/event-ticketing/internal/service"
)

// ConfirmedPublisher publishes a confirmed reservation to interested
// consumers. Implemented by ConfirmationNotifier in production.
type ConfirmedPublisher interface {
	PublishConfirmed(ctx context.Context, res model.Reservation) error
}

// ConfirmationNotifier enriches a confirmed reservation with event and venue
// context and publishes it to the message broker. Publishing is best-effort:
// a broker outage never fails the confirmation that triggered it, callers
// ignore the returned error after logging.
type ConfirmationNotifier struct {
	Events *repository.EventRepo
	Tiers  *repository.TierRepo
	Venues *repository.VenueRepo
}

func NewConfirmationNotifier(eventRepo *repository.EventRepo, tierRepo *repository.TierRepo, venueRepo *repository.VenueRepo) *ConfirmationNotifier {
	if eventRepo == nil || tierRepo == nil || venueRepo == nil {
		panic("nil repository passed to NewConfirmationNotifier")
	}
	return &ConfirmationNotifier{Events: eventRepo, Tiers: tierRepo, Venues: venueRepo}
}

// PublishConfirmed builds and publishes a ReservationConfirmedEvent for res.
// Lookup failures degrade to an event with the context fields left empty
// rather than dropping the message.
func (n *ConfirmationNotifier) PublishConfirmed(ctx context.Context, res model.Reservation) error {
	ev := queue.ReservationConfirmedEvent{
		ReservationID: res.ID,
		UserID:        res.UserID,
		EventID:       res.EventID,
		Quantity:      res.Quantity,
		TotalCents:    res.TotalCents,
		ConfirmedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	if res.Payment != nil {
		ev.CommissionCents = res.Payment.CommissionCents
		ev.OrganizerCents = res.Payment.OrganizerCents
		ev.Currency = res.Payment.Currency
		if res.Payment.PaidAt != nil {
			ev.ConfirmedAt = res.Payment.PaidAt.UTC().Format(time.RFC3339)
		}
	}

	if tier, err := n.Tiers.GetByID(ctx, res.TierID); err == nil {
		ev.TierName = tier.Name
	}
	if e, err := n.Events.GetByID(ctx, res.EventID); err == nil {
		ev.EventTitle = e.Title
		if v, err := n.Venues.GetByID(ctx, e.VenueID); err == nil {
			ev.VenueName = v.Name
		}
	}

	return queue_publisher.PublishReservationConfirmed(ctx, ev)
}
