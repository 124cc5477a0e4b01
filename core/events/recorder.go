package events

import "sync"

// PayloadEvent is implemented by events that can expose their structured
// payload for inspection by subscribers.
type PayloadEvent interface {
	Event
	Payload() map[string]string
}

// RecordedEvent is the flattened form kept by the recorder.
type RecordedEvent struct {
	Sequence   uint64            `json:"sequence"`
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Recorder retains the most recent events in a bounded ring so read-only
// consumers (indexers, dashboards) can poll for state transitions without a
// streaming transport.
type Recorder struct {
	mu       sync.RWMutex
	capacity int
	next     uint64
	entries  []RecordedEvent
}

const defaultRecorderCapacity = 256

// NewRecorder builds a recorder holding at most capacity events. Non-positive
// capacities fall back to a sensible default.
func NewRecorder(capacity int) *Recorder {
	if capacity <= 0 {
		capacity = defaultRecorderCapacity
	}
	return &Recorder{capacity: capacity}
}

// Emit implements the Emitter interface.
func (r *Recorder) Emit(evt Event) {
	if r == nil || evt == nil {
		return
	}
	entry := RecordedEvent{Type: evt.EventType()}
	if payload, ok := evt.(PayloadEvent); ok {
		attrs := payload.Payload()
		if len(attrs) > 0 {
			cloned := make(map[string]string, len(attrs))
			for k, v := range attrs {
				cloned[k] = v
			}
			entry.Attributes = cloned
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	entry.Sequence = r.next
	r.entries = append(r.entries, entry)
	if len(r.entries) > r.capacity {
		r.entries = r.entries[len(r.entries)-r.capacity:]
	}
}

// Events returns up to limit of the most recent events, oldest first. A
// non-positive limit returns everything retained.
func (r *Recorder) Events(limit int) []RecordedEvent {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := r.entries
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	out := make([]RecordedEvent, len(entries))
	copy(out, entries)
	return out
}
