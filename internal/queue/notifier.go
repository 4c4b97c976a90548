package queue

import (
	"sync"

	"github.com/kozaktomas/branch-greeter/internal/store"
)

// eventChannelBuffer is the per-listener buffer. Slow SSE clients drop
// events instead of blocking the queue.
const eventChannelBuffer = 64

// Event types emitted by the queue.
const (
	EventEnqueued  = "enqueued"
	EventAssigned  = "assigned"
	EventCompleted = "completed"
	EventChanged   = "changed"
)

// Event is a queue change notification pushed to dashboard listeners.
type Event struct {
	Type    string            `json:"type"`
	EntryID string            `json:"entry_id,omitempty"`
	Entry   *store.QueueEntry `json:"entry,omitempty"`
}

// Broadcaster fans queue events out to registered listeners.
type Broadcaster struct {
	listeners []chan Event
	mu        sync.RWMutex
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{}
}

// AddListener registers an event listener.
func (b *Broadcaster) AddListener() chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan Event, eventChannelBuffer)
	b.listeners = append(b.listeners, ch)
	return ch
}

// RemoveListener unregisters and closes an event listener.
func (b *Broadcaster) RemoveListener(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, listener := range b.listeners {
		if listener == ch {
			b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
			close(ch)
			return
		}
	}
}

// Send delivers an event to all listeners.
func (b *Broadcaster) Send(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, listener := range b.listeners {
		select {
		case listener <- event:
		default:
			// Listener buffer full, skip.
		}
	}
}
