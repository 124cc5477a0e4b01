package common

import (
	"errors"
	"strings"
	"sync"
)

// ErrModulePaused is returned when an operation arrives while its module is
// administratively paused.
var ErrModulePaused = errors.New("module paused")

// PauseView reports whether a named module is currently paused.
type PauseView interface {
	IsPaused(module string) bool
}

// Guard rejects the call when the module is paused. A nil view or empty
// module name means pausing is not configured and the call proceeds.
func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}

// Pauses is a mutable PauseView backed by a set of module names. Module names
// are case-insensitive.
type Pauses struct {
	mu     sync.RWMutex
	paused map[string]bool
}

// NewPauses builds a pause switch with the given modules already paused.
func NewPauses(modules ...string) *Pauses {
	p := &Pauses{paused: make(map[string]bool)}
	for _, module := range modules {
		p.Pause(module)
	}
	return p
}

func normalizeModule(module string) string {
	return strings.ToLower(strings.TrimSpace(module))
}

// Pause marks a module paused. Empty names are ignored.
func (p *Pauses) Pause(module string) {
	module = normalizeModule(module)
	if module == "" {
		return
	}
	p.mu.Lock()
	p.paused[module] = true
	p.mu.Unlock()
}

// Resume clears a module's pause.
func (p *Pauses) Resume(module string) {
	p.mu.Lock()
	delete(p.paused, normalizeModule(module))
	p.mu.Unlock()
}

// IsPaused implements the PauseView interface.
func (p *Pauses) IsPaused(module string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.paused[normalizeModule(module)]
}
