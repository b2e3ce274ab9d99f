package events

import (
	"sync"

	"nutvest/core/types"
)

// Event represents a structured state change emitted by an engine.
type Event interface {
	EventType() string
}

// Typed is implemented by events that can render themselves into the flat
// attribute form consumed by logs and the gateway.
type Typed interface {
	Event
	Event() *types.Event
}

// Emitter broadcasts events to downstream subscribers (e.g. gateway, logs).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter is a helper that satisfies the Emitter interface while discarding
// all events. It is useful when a component wants to optionally expose events.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}

// Recorder buffers emitted events until they are flushed or discarded. The node
// wraps each transaction in a recorder so events of a failed transaction never
// reach subscribers.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Emit implements the Emitter interface.
func (r *Recorder) Emit(evt Event) {
	if r == nil || evt == nil {
		return
	}
	r.mu.Lock()
	r.events = append(r.events, evt)
	r.mu.Unlock()
}

// Events returns a copy of the buffered events.
func (r *Recorder) Events() []Event {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Flatten renders every buffered event that supports it.
func (r *Recorder) Flatten() []types.Event {
	buffered := r.Events()
	out := make([]types.Event, 0, len(buffered))
	for _, evt := range buffered {
		typed, ok := evt.(Typed)
		if !ok {
			continue
		}
		if rendered := typed.Event(); rendered != nil {
			out = append(out, *rendered)
		}
	}
	return out
}

// FlushTo forwards the buffered events to the emitter and clears the buffer.
func (r *Recorder) FlushTo(emitter Emitter) {
	if r == nil {
		return
	}
	r.mu.Lock()
	buffered := r.events
	r.events = nil
	r.mu.Unlock()
	if emitter == nil {
		return
	}
	for _, evt := range buffered {
		emitter.Emit(evt)
	}
}

// Reset discards the buffered events.
func (r *Recorder) Reset() {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}
