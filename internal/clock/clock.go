// Package clock abstracts time for components that stamp records
// (paidAt, createdAt) or compare against TTLs, so tests can run
// against a fixed instant.
package clock

import "time"

// Clock supplies the current time.
type Clock interface {
    Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

// NewReal returns a Clock backed by time.Now in UTC.
func NewReal() Clock { return realClock{} }

// Fixed is a Clock pinned to a specific instant.  Advance moves it
// forward; useful for expiry tests.
type Fixed struct {
    t time.Time
}

// NewFixed returns a Fixed clock set to t.
func NewFixed(t time.Time) *Fixed { return &Fixed{t: t} }

func (f *Fixed) Now() time.Time { return f.t }

// Advance moves the fixed clock forward by d.
func (f *Fixed) Advance(d time.Duration) { f.t = f.t.Add(d) }
