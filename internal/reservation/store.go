package reservation

import (
    "context"
    "time"

    "github.com/evreno/event-ticketing/internal/model"
)

// Store runs engine operations inside a single database transaction.
// The callback receives a Tx scoped to that transaction; when the
// callback returns an error, every change made through the Tx is
// rolled back.
type Store interface {
    WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx is the transactional data-access surface the engine operates on.
// Implementations must hold row locks on the tier (for reserve) and on
// the reservation (for transitions) so that concurrent calls against
// the same row serialize; see the repository implementation.
type Tx interface {
    // TierForUpdate loads and locks a ticket tier.  Returns
    // ErrTierNotFound when the tier does not exist.
    TierForUpdate(ctx context.Context, tierID uint64) (model.TicketTier, error)

    // DecrementAvailable reduces the tier's available count by qty,
    // only if available >= qty.  Returns ErrInsufficientInventory
    // otherwise, leaving the row untouched.
    DecrementAvailable(ctx context.Context, tierID uint64, qty uint32) error

    // RestockAvailable raises the tier's available count by qty.  The
    // update must not push available above quantity; implementations
    // return ErrInventoryOverflow when it would.
    RestockAvailable(ctx context.Context, tierID uint64, qty uint32) error

    // CreateReservation inserts a reservation and populates its ID and
    // timestamps on the passed record.
    CreateReservation(ctx context.Context, res *model.Reservation) error

    // CreatePayment inserts the payment paired with a reservation and
    // populates its ID and timestamps.
    CreatePayment(ctx context.Context, p *model.Payment) error

    // ReservationForUpdate loads and locks a reservation together with
    // its payment.  Returns ErrReservationNotFound when absent.
    ReservationForUpdate(ctx context.Context, id uint64) (model.Reservation, error)

    // UpdateReservationStatus sets the reservation's status.
    UpdateReservationStatus(ctx context.Context, id uint64, status string) error

    // CompletePayment marks the reservation's payment COMPLETED,
    // recording the provider reference and the paid-at instant.
    CompletePayment(ctx context.Context, reservationID uint64, externalRef string, paidAt time.Time) error

    // FailPayment marks the reservation's payment FAILED.
    FailPayment(ctx context.Context, reservationID uint64) error
}
