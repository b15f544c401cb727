package broadcast

import (
	"sync"
	"time"

	"github.com/Taichi-iskw/xscribe/internal/logger"
	"github.com/Taichi-iskw/xscribe/internal/model"
)

// Observer receives progress events. Send is never called concurrently for
// the same observer and never called while Ready reports false.
type Observer interface {
	ID() string
	Ready() bool
	Send(event model.ProgressEvent) error
}

// outboxSize bounds how far one observer may fall behind before it is dropped
const outboxSize = 64

type subscription struct {
	observer Observer
	runID    string // empty receives every run
	outbox   chan model.ProgressEvent
}

// Hub fans progress events out to the observers connected at publish time.
// Nothing is buffered for late joiners: an observer joining mid-run only sees
// later events. Each observer is written by its own goroutine, so a slow
// observer falls behind (and is eventually dropped) without delaying others.
type Hub struct {
	// publishMu orders sequence assignment and enqueueing
	publishMu sync.Mutex
	nextSeq   int64

	// mu guards subscriptions; outboxes are only sent to under RLock and only closed under Lock
	mu            sync.RWMutex
	subscriptions map[string]*subscription

	log *logger.Logger
}

// NewHub creates an empty Hub
func NewHub(log *logger.Logger) *Hub {
	if log == nil {
		log = logger.Discard()
	}
	return &Hub{
		subscriptions: make(map[string]*subscription),
		log:           log,
	}
}

// Register adds an observer. When runID is set, the observer only receives
// that run's events. The returned function unregisters the observer.
func (h *Hub) Register(observer Observer, runID string) func() {
	sub := &subscription{
		observer: observer,
		runID:    runID,
		outbox:   make(chan model.ProgressEvent, outboxSize),
	}

	h.mu.Lock()
	if old, ok := h.subscriptions[observer.ID()]; ok {
		close(old.outbox)
	}
	h.subscriptions[observer.ID()] = sub
	h.mu.Unlock()

	go h.writeLoop(sub)

	return func() { h.remove(sub) }
}

// writeLoop delivers queued events to one observer in order
func (h *Hub) writeLoop(sub *subscription) {
	failed := false
	for event := range sub.outbox {
		if failed || !sub.observer.Ready() {
			continue
		}
		if err := sub.observer.Send(event); err != nil {
			h.log.With("observer", sub.observer.ID()).WithError(err).Debug("dropping observer after failed send")
			failed = true
			h.remove(sub)
		}
	}
}

// Unregister removes an observer; unknown ids are ignored
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if sub, ok := h.subscriptions[id]; ok {
		delete(h.subscriptions, id)
		close(sub.outbox)
	}
}

// remove unregisters sub unless its id has since been re-registered
func (h *Hub) remove(sub *subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if current, ok := h.subscriptions[sub.observer.ID()]; ok && current == sub {
		delete(h.subscriptions, sub.observer.ID())
		close(sub.outbox)
	}
}

// Count returns the number of registered observers
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscriptions)
}

// Publish stamps the event with the next sequence number (and a timestamp if
// missing) and queues it for every matching observer. It never blocks on an
// observer: one whose queue is full is dropped. Observers that are not ready
// are skipped silently; observers whose Send fails are dropped.
func (h *Hub) Publish(event model.ProgressEvent) model.ProgressEvent {
	h.publishMu.Lock()
	defer h.publishMu.Unlock()

	h.nextSeq++
	event.Seq = h.nextSeq
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	var overflowed []*subscription
	h.mu.RLock()
	for _, sub := range h.subscriptions {
		if sub.runID != "" && sub.runID != event.RunID {
			continue
		}
		select {
		case sub.outbox <- event:
		default:
			overflowed = append(overflowed, sub)
		}
	}
	h.mu.RUnlock()

	for _, sub := range overflowed {
		h.log.With("observer", sub.observer.ID()).Debug("dropping observer that fell too far behind")
		h.remove(sub)
	}

	return event
}
