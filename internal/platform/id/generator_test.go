package id

import (
	"testing"

	"github.com/google/uuid"
)

func TestUUIDGenerator_NewID(t *testing.T) {
	gen := NewUUIDGenerator()

	a, b := gen.NewID(), gen.NewID()
	if a == b {
		t.Fatalf("expected distinct ids, got %q twice", a)
	}
	parsed, err := uuid.Parse(a)
	if err != nil {
		t.Fatalf("parse id %q: %v", a, err)
	}
	if parsed.Version() != 4 {
		t.Fatalf("expected version 4, got %d", parsed.Version())
	}
}

func TestSequence_NewID(t *testing.T) {
	seq := NewSequence("run")

	if got := seq.NewID(); got != "run-1" {
		t.Fatalf("unexpected first id: %q", got)
	}
	if got := seq.NewID(); got != "run-2" {
		t.Fatalf("unexpected second id: %q", got)
	}
}
