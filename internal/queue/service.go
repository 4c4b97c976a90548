// Package queue implements the walk-in service queue: triage-driven
// enqueueing, counter assignment and completion with visit write-back.
package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/kozaktomas/branch-greeter/internal/config"
	"github.com/kozaktomas/branch-greeter/internal/store"
	"github.com/kozaktomas/branch-greeter/internal/triage"
)

// ErrUnknownCounter is returned when a counter name is not in the branch catalog.
var ErrUnknownCounter = errors.New("unknown counter")

// Manager drives the queue lifecycle. All state lives in the store; the
// manager adds triage, priorities and event notifications on top.
type Manager struct {
	customers store.CustomerReader
	visits    store.VisitReader
	queue     store.QueueWriter
	branch    *config.BranchConfig
	notifier  *Broadcaster
}

// NewManager creates a queue manager.
func NewManager(
	customers store.CustomerReader,
	visits store.VisitReader,
	queue store.QueueWriter,
	branch *config.BranchConfig,
	notifier *Broadcaster,
) *Manager {
	return &Manager{
		customers: customers,
		visits:    visits,
		queue:     queue,
		branch:    branch,
		notifier:  notifier,
	}
}

// Enqueue adds a customer to the queue with a triage suggestion derived from
// their last visit and a priority derived from their category. When the
// customer is already queued, the existing entry is returned and created is
// false; the entry keeps its original suggestion and position.
func (m *Manager) Enqueue(ctx context.Context, customerID string) (*store.QueueEntry, bool, error) {
	customer, err := m.customers.Get(ctx, customerID)
	if err != nil {
		return nil, false, fmt.Errorf("load customer: %w", err)
	}
	if customer == nil {
		return nil, false, store.ErrNotFound
	}

	lastVisit, err := m.visits.LastVisit(ctx, customerID)
	if err != nil {
		return nil, false, fmt.Errorf("load last visit: %w", err)
	}

	suggestion := triage.Suggest(lastVisit)

	entry := &store.QueueEntry{
		CustomerID:      customerID,
		Priority:        m.branch.Priority(string(customer.Category)),
		Status:          store.StatusWaiting,
		Purpose:         suggestion.Purpose,
		ExpectedOutcome: suggestion.ExpectedOutcome,
	}

	err = m.queue.Insert(ctx, entry)
	if errors.Is(err, store.ErrAlreadyQueued) {
		existing, err := m.queue.ActiveByCustomer(ctx, customerID)
		if err != nil {
			return nil, false, fmt.Errorf("load existing entry: %w", err)
		}
		if existing == nil {
			// The entry completed between the insert and the lookup; rare
			// enough that reporting the conflict is fine.
			return nil, false, store.ErrAlreadyQueued
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("insert entry: %w", err)
	}

	m.notify(EventEnqueued, entry)
	return entry, true, nil
}

// AssignCounter moves a waiting entry to a named counter.
func (m *Manager) AssignCounter(ctx context.Context, entryID, counter string) (*store.QueueEntry, error) {
	if !m.branch.HasCounter(counter) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCounter, counter)
	}

	entry, err := m.queue.AssignCounter(ctx, entryID, counter)
	if err != nil {
		return nil, err
	}

	m.notify(EventAssigned, entry)
	return entry, nil
}

// Complete finishes service for an entry and records the visit derived from
// it. Safe to call repeatedly; the visit is written at most once.
func (m *Manager) Complete(ctx context.Context, entryID string) (*store.QueueEntry, *store.Visit, error) {
	entry, visit, err := m.queue.Complete(ctx, entryID)
	if err != nil {
		return nil, nil, err
	}

	m.notify(EventCompleted, entry)
	return entry, visit, nil
}

// List returns the active queue ordered by priority, then arrival time.
func (m *Manager) List(ctx context.Context) ([]store.QueueEntry, error) {
	return m.queue.ListActive(ctx)
}

// Get returns a queue entry by ID, nil when unknown.
func (m *Manager) Get(ctx context.Context, entryID string) (*store.QueueEntry, error) {
	return m.queue.Get(ctx, entryID)
}

// Notifier returns the broadcaster for event subscriptions.
func (m *Manager) Notifier() *Broadcaster {
	return m.notifier
}

func (m *Manager) notify(eventType string, entry *store.QueueEntry) {
	if m.notifier == nil {
		return
	}
	m.notifier.Send(Event{Type: eventType, EntryID: entry.ID, Entry: entry})
}
