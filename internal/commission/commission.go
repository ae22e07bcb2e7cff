// Package commission splits a gross payment amount between the
// platform and the organizer.
package commission

import "math"

// Split divides a gross amount (in minor currency units) into the
// platform commission and the organizer net.  The commission is
// rounded half-up on the integer amount; the organizer receives the
// remainder so the two shares always sum to the gross.  Rate is
// expected in [0,1] and is not clamped here; the caller supplies the
// configured value.
func Split(grossCents int64, rate float64) (commissionCents, organizerCents int64) {
    commissionCents = int64(math.Floor(float64(grossCents)*rate + 0.5))
    return commissionCents, grossCents - commissionCents
}
