package core

import (
	"context"
	"log/slog"
	"sync"

	"nutvest/core/events"
	"nutvest/core/types"
	"nutvest/observability/metrics"
)

// LogEmitter writes committed events to the structured log and counts them.
type LogEmitter struct {
	logger  *slog.Logger
	metrics *metrics.VestingMetrics
}

func NewLogEmitter(logger *slog.Logger) *LogEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogEmitter{logger: logger, metrics: metrics.Vesting()}
}

func (e *LogEmitter) Emit(evt events.Event) {
	if e == nil || evt == nil {
		return
	}
	e.metrics.RecordEvent(evt.EventType())
	typed, ok := evt.(events.Typed)
	if !ok {
		e.logger.Info("event", slog.String("type", evt.EventType()))
		return
	}
	rendered := typed.Event()
	if rendered == nil {
		return
	}
	attrs := make([]slog.Attr, 0, len(rendered.Attributes)+1)
	attrs = append(attrs, slog.String("type", rendered.Type))
	for _, key := range rendered.Keys() {
		attrs = append(attrs, slog.String(key, rendered.Attributes[key]))
	}
	e.logger.LogAttrs(context.Background(), slog.LevelInfo, "event", attrs...)
}

// journalSubscriberBuffer bounds each subscriber channel. Events are dropped
// for a subscriber whose buffer is full.
const journalSubscriberBuffer = 32

// Journal keeps the most recent committed events for the gateway feed and
// fans new ones out to live subscribers.
type Journal struct {
	mu     sync.Mutex
	limit  int
	events []types.Event
	subs   map[uint64]chan types.Event
	nextID uint64
}

func NewJournal(limit int) *Journal {
	if limit <= 0 {
		limit = 256
	}
	return &Journal{limit: limit}
}

func (j *Journal) Emit(evt events.Event) {
	typed, ok := evt.(events.Typed)
	if !ok || j == nil {
		return
	}
	rendered := typed.Event()
	if rendered == nil {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, *rendered)
	if overflow := len(j.events) - j.limit; overflow > 0 {
		j.events = append([]types.Event(nil), j.events[overflow:]...)
	}
	for _, ch := range j.subs {
		select {
		case ch <- cloneEvent(*rendered):
		default:
		}
	}
}

// Subscribe registers a live subscriber and returns up to backlog recent
// events, newest last. Events committed after the call are delivered on the
// channel. cancel closes the channel; it also runs when ctx ends.
func (j *Journal) Subscribe(ctx context.Context, backlog int) (<-chan types.Event, func(), []types.Event) {
	updates := make(chan types.Event, journalSubscriberBuffer)
	j.mu.Lock()
	if j.subs == nil {
		j.subs = make(map[uint64]chan types.Event)
	}
	id := j.nextID
	j.nextID++
	j.subs[id] = updates
	recent := j.recentLocked(backlog)
	j.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			j.mu.Lock()
			if ch, ok := j.subs[id]; ok {
				delete(j.subs, id)
				close(ch)
			}
			j.mu.Unlock()
		})
	}
	if ctx != nil && ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			cancel()
		}()
	}
	return updates, cancel, recent
}

// Subscribers reports the number of live subscribers.
func (j *Journal) Subscribers() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.subs)
}

func cloneEvent(evt types.Event) types.Event {
	attrs := make(map[string]string, len(evt.Attributes))
	for k, v := range evt.Attributes {
		attrs[k] = v
	}
	return types.Event{Type: evt.Type, Attributes: attrs}
}

// Recent returns up to n events, newest last.
func (j *Journal) Recent(n int) []types.Event {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.recentLocked(n)
}

func (j *Journal) recentLocked(n int) []types.Event {
	if n <= 0 || n > len(j.events) {
		n = len(j.events)
	}
	out := make([]types.Event, n)
	copy(out, j.events[len(j.events)-n:])
	return out
}

// MultiEmitter fans events out to several emitters in order.
type MultiEmitter []events.Emitter

func (m MultiEmitter) Emit(evt events.Event) {
	for _, emitter := range m {
		if emitter != nil {
			emitter.Emit(evt)
		}
	}
}
