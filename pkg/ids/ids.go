// Package ids generates the string identifiers used as primary keys.
package ids

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// UUIDFactory creates new unique identifiers
type UUIDFactory interface {
	Create() string
}

// RandomUUIDFactory creates random (version 4) UUIDs
type RandomUUIDFactory struct{}

// NewRandomUUIDFactory creates a new RandomUUIDFactory
func NewRandomUUIDFactory() *RandomUUIDFactory {
	return &RandomUUIDFactory{}
}

// Create returns a new random UUID
func (RandomUUIDFactory) Create() string {
	return uuid.NewString()
}

// SequenceUUIDFactory returns predictable identifiers ("1", "2", ...).
// Meant for tests and fixtures.
type SequenceUUIDFactory struct {
	next atomic.Int64
}

// NewSequenceUUIDFactory creates a new SequenceUUIDFactory starting at 1
func NewSequenceUUIDFactory() *SequenceUUIDFactory {
	return &SequenceUUIDFactory{}
}

// Create returns the next identifier of the sequence
func (f *SequenceUUIDFactory) Create() string {
	return fmt.Sprintf("%d", f.next.Add(1))
}
