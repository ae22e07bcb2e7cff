// Package reservation implements the reservation engine: the atomic
// "reserve N tickets of tier T" operation and the terminal transitions
// (confirm, cancel) that move a reservation and its payment together
// while keeping tier inventory consistent.
package reservation

import "errors"

// ErrTierNotFound is returned when the requested ticket tier does not
// exist.  Handlers translate this into HTTP 404.
var ErrTierNotFound = errors.New("ticket tier not found")

// ErrReservationNotFound is returned when a transition targets a
// reservation that does not exist.  Handlers translate this into 404.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrInsufficientInventory is returned when a tier does not have
// enough available tickets for the requested quantity.  The reserve
// call has no effect in this case.
var ErrInsufficientInventory = errors.New("insufficient inventory")

// ErrInventoryOverflow is returned when a compensation would push a
// tier's available count above its total quantity.  This indicates a
// bookkeeping bug and is reported loudly instead of being clamped.
var ErrInventoryOverflow = errors.New("inventory restock exceeds tier quantity")

// ErrAlreadyTerminal is returned when a transition conflicts with a
// reservation that already reached the opposite terminal state
// (confirm after cancel, or cancel after confirm).  Re-applying the
// same terminal outcome is not an error; it is an idempotent no-op.
var ErrAlreadyTerminal = errors.New("reservation already in a terminal state")

// ErrInvalidQuantity is returned when the requested quantity is
// outside the allowed [1,10] range.
var ErrInvalidQuantity = errors.New("quantity must be between 1 and 10")
