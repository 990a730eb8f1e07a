// Package broadcast fans clock events out to every live observer.
//
// Publishing never fails. Observers that are absent, slow or broken simply
// miss the event; the next state update one tick later supersedes it.
package broadcast

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SoarinFerret/FocusWarden/internal/session"
)

// Kind distinguishes routine state updates from completions.
type Kind string

const (
	KindStateUpdate Kind = "state_update"
	KindCompletion  Kind = "completion"
)

// Event is a single broadcast. Seq increases by one per published event
// within a process.
type Event struct {
	Seq    uint64
	Kind   Kind
	Status session.Status // set for state updates
	Mode   session.Mode   // completed mode, set for completions
	Phase  int            // completed phase, set for completions
	At     time.Time
}

// StateUpdate builds a state update event.
func StateUpdate(status session.Status) Event {
	return Event{Kind: KindStateUpdate, Status: status}
}

// Completion builds a completion event.
func Completion(mode session.Mode, phase int) Event {
	return Event{Kind: KindCompletion, Mode: mode, Phase: phase}
}

// Sink is an out-of-process delivery target such as a D-Bus signal
// emitter. Deliver is called synchronously in publish order.
type Sink interface {
	Deliver(Event) error
}

// Hub is a one-to-many publisher.
type Hub struct {
	mu     sync.Mutex
	seq    uint64
	subs   map[uuid.UUID]chan Event
	sinks  []Sink
	now    func() time.Time
	logger *slog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		subs:   make(map[uuid.UUID]chan Event),
		now:    time.Now,
		logger: logger,
	}
}

// Subscribe registers an in-process observer. Events that do not fit in
// the buffer are dropped for that observer only.
func (h *Hub) Subscribe(buffer int) (uuid.UUID, <-chan Event) {
	if buffer <= 0 {
		buffer = 1
	}
	id := uuid.New()
	ch := make(chan Event, buffer)

	h.mu.Lock()
	h.subs[id] = ch
	h.mu.Unlock()
	return id, ch
}

// Unsubscribe removes an observer and closes its channel.
func (h *Hub) Unsubscribe(id uuid.UUID) {
	h.mu.Lock()
	ch, ok := h.subs[id]
	delete(h.subs, id)
	h.mu.Unlock()
	if ok {
		close(ch)
	}
}

// AddSink registers an out-of-process target.
func (h *Hub) AddSink(s Sink) {
	h.mu.Lock()
	h.sinks = append(h.sinks, s)
	h.mu.Unlock()
}

// Publish stamps e with the next sequence number and delivers it. It holds
// the hub lock for the whole delivery so concurrent publishers cannot
// reorder events.
func (h *Hub) Publish(e Event) Event {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.seq++
	e.Seq = h.seq
	if e.At.IsZero() {
		e.At = h.now()
	}

	for id, ch := range h.subs {
		select {
		case ch <- e:
		default:
			h.logger.Debug("subscriber buffer full, event dropped", "subscriber", id, "seq", e.Seq)
		}
	}
	for _, sink := range h.sinks {
		if err := sink.Deliver(e); err != nil {
			h.logger.Debug("broadcast delivery failed", "kind", e.Kind, "seq", e.Seq, "err", err)
		}
	}
	return e
}

// Subscribers returns the number of in-process observers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
