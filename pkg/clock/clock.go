// Package clock abstracts the process time so that timestamps can be pinned in tests.
package clock

import "time"

// Clock returns the current time
type Clock interface {
	Now() time.Time
}

// System is the wall clock, truncated to milliseconds like the stored timestamps
type System struct{}

// Now returns the current UTC time
func (System) Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// Fixed always returns the same instant
type Fixed struct {
	At time.Time
}

// NewFixed creates a clock pinned to at
func NewFixed(at time.Time) *Fixed {
	return &Fixed{At: at}
}

// Now returns the pinned instant
func (f *Fixed) Now() time.Time {
	return f.At
}

// Set moves the pinned instant
func (f *Fixed) Set(at time.Time) {
	f.At = at
}
