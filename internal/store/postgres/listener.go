package postgres

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"
)

const queueChannel = "queue_changed"

// QueueListener streams queue change notifications emitted by the
// queue_entries trigger. Each event carries the changed entry ID.
type QueueListener struct {
	listener *pq.Listener
	events   chan string
}

// NewQueueListener connects a LISTEN session to the queue change channel.
func NewQueueListener(databaseURL string) (*QueueListener, error) {
	listener := pq.NewListener(databaseURL, 10*time.Second, time.Minute,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				log.Printf("queue listener event %d: %v", ev, err)
			}
		})

	if err := listener.Listen(queueChannel); err != nil {
		listener.Close()
		return nil, fmt.Errorf("listen on %s: %w", queueChannel, err)
	}

	return &QueueListener{
		listener: listener,
		events:   make(chan string, 16),
	}, nil
}

// Events returns the channel of changed entry IDs. Closed when Run returns.
func (l *QueueListener) Events() <-chan string {
	return l.events
}

// Run pumps notifications until the context is cancelled. It pings the
// connection periodically so a silently dropped session reconnects.
func (l *QueueListener) Run(ctx context.Context) {
	defer close(l.events)

	ping := time.NewTicker(90 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case n := <-l.listener.Notify:
			if n == nil {
				// Reconnect event, the LISTEN is re-established automatically.
				continue
			}
			select {
			case l.events <- n.Extra:
			case <-ctx.Done():
				return
			}
		case <-ping.C:
			if err := l.listener.Ping(); err != nil {
				log.Printf("queue listener ping: %v", err)
			}
		}
	}
}

// Close terminates the LISTEN session.
func (l *QueueListener) Close() error {
	return l.listener.Close()
}
