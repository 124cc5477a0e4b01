package common

import (
	"errors"
	"testing"
)

func TestGuardWithoutConfiguredPauses(t *testing.T) {
	if err := Guard(nil, "market"); err != nil {
		t.Fatalf("nil view must not block: %v", err)
	}
	if err := Guard(NewPauses(), ""); err != nil {
		t.Fatalf("empty module name must not block: %v", err)
	}
	if err := Guard(NewPauses(), "market"); err != nil {
		t.Fatalf("unpaused module blocked: %v", err)
	}
}

func TestPauseAndResume(t *testing.T) {
	pauses := NewPauses("market")
	if err := Guard(pauses, "market"); !errors.Is(err, ErrModulePaused) {
		t.Fatalf("expected ErrModulePaused, got %v", err)
	}
	// Names are case-insensitive.
	if err := Guard(pauses, " Market "); !errors.Is(err, ErrModulePaused) {
		t.Fatalf("expected ErrModulePaused for equivalent spelling, got %v", err)
	}
	if err := Guard(pauses, "registry"); err != nil {
		t.Fatalf("unrelated module blocked: %v", err)
	}
	pauses.Resume("market")
	if err := Guard(pauses, "market"); err != nil {
		t.Fatalf("resumed module still blocked: %v", err)
	}
}
