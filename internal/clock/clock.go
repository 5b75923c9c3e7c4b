// Package clock abstracts the source of current time so that expiry logic
// stays deterministic under test.
package clock

import "time"

// Clock yields the current instant.
type Clock interface {
	Now() time.Time
}

// System is a Clock backed by time.Now.
type System struct{}

func NewSystem() *System { return &System{} }

func (s *System) Now() time.Time { return time.Now() }

// Manual is a Clock whose instant is set explicitly. Intended for tests.
type Manual struct {
	now time.Time
}

func NewManual(now time.Time) *Manual { return &Manual{now: now} }

func (m *Manual) Now() time.Time { return m.now }

// Set moves the clock to the given instant.
func (m *Manual) Set(now time.Time) { m.now = now }

// Advance moves the clock forward by d.
func (m *Manual) Advance(d time.Duration) { m.now = m.now.Add(d) }
