package id

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// Generator creates opaque IDs suitable for correlating a run across logs
// and reports.
type Generator interface {
	NewID() string
}

// UUIDGenerator issues random (version 4) UUIDs.
type UUIDGenerator struct{}

func NewUUIDGenerator() UUIDGenerator {
	return UUIDGenerator{}
}

func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}

// Sequence issues prefix-1, prefix-2, ... and is meant for tests.
type Sequence struct {
	prefix string
	next   atomic.Int64
}

func NewSequence(prefix string) *Sequence {
	return &Sequence{prefix: prefix}
}

func (s *Sequence) NewID() string {
	return fmt.Sprintf("%s-%d", s.prefix, s.next.Add(1))
}
