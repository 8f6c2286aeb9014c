package idgen

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// UUID mints random version 4 identifiers.
type UUID struct{}

func (UUID) NewID() string {
	return uuid.NewString()
}

// Sequence mints "<prefix>-<n>" identifiers from a monotonic counter.
// Output is reproducible, which keeps test fixtures stable.
type Sequence struct {
	prefix string
	next   atomic.Uint64
}

func NewSequence(prefix string) *Sequence {
	return &Sequence{prefix: prefix}
}

func (s *Sequence) NewID() string {
	return fmt.Sprintf("%s-%d", s.prefix, s.next.Add(1))
}
