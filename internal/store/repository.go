package store

import (
	"context"

	"github.com/kozaktomas/branch-greeter/internal/descriptor"
)

// CustomerReader provides read-only access to enrolled customers.
type CustomerReader interface {
	// Get retrieves a customer by ID, returns nil if not found.
	Get(ctx context.Context, id string) (*Customer, error)
	// Search lists customers whose normalized name contains the normalized
	// query; an empty query lists everyone. Ordered by registration time.
	Search(ctx context.Context, query string) ([]Customer, error)
	// Count returns the number of enrolled customers.
	Count(ctx context.Context) (int, error)
	// Candidates returns a snapshot of all matchable reference descriptors in
	// stable enrollment order. Matching runs over this snapshot and never
	// observes concurrent enrollment changes mid-match.
	Candidates(ctx context.Context) ([]descriptor.Candidate, error)
	// FindSimilar returns up to limit enrolled customers ordered by Euclidean
	// distance of their nearest reference descriptor to the probe.
	FindSimilar(ctx context.Context, probe descriptor.Descriptor, limit int) ([]Customer, []float64, error)
}

// CustomerWriter provides write access to enrolled customers.
type CustomerWriter interface {
	CustomerReader

	// Create enrolls a new customer.
	Create(ctx context.Context, c *Customer) error
	// Update persists staff edits (category, contact details, descriptors).
	// Returns ErrNotFound for an unknown ID.
	Update(ctx context.Context, c *Customer) error
}

// VisitReader provides read-only access to visit history.
type VisitReader interface {
	// ListByCustomer returns a customer's visits ordered by visit time descending.
	ListByCustomer(ctx context.Context, customerID string) ([]Visit, error)
	// LastVisit returns the most recent visit, or nil when there is none.
	LastVisit(ctx context.Context, customerID string) (*Visit, error)
}

// VisitWriter provides write access to visit history.
type VisitWriter interface {
	VisitReader

	// Create appends a visit record.
	Create(ctx context.Context, v *Visit) error
}

// QueueReader provides read-only access to the service queue.
type QueueReader interface {
	// Get retrieves a queue entry by ID, returns nil if not found.
	Get(ctx context.Context, id string) (*QueueEntry, error)
	// ListActive returns all non-completed entries ordered by
	// (priority ascending, createdAt ascending).
	ListActive(ctx context.Context) ([]QueueEntry, error)
	// ActiveByCustomer returns the customer's non-completed entry, or nil.
	ActiveByCustomer(ctx context.Context, customerID string) (*QueueEntry, error)
}

// QueueWriter provides write access to the service queue. Implementations must
// close the two races the queue cares about: Insert must reject a second
// active entry for the same customer atomically (not read-then-write), and
// Complete must pair the status transition with the visit insert in one
// logical transaction, idempotently.
type QueueWriter interface {
	QueueReader

	// Insert adds a waiting entry. Returns ErrAlreadyQueued when the customer
	// already has an active entry.
	Insert(ctx context.Context, e *QueueEntry) error
	// AssignCounter sets the counter and moves the entry to assigned.
	// Returns ErrNotFound when the entry is missing or already completed.
	AssignCounter(ctx context.Context, id, counter string) (*QueueEntry, error)
	// Complete marks the entry completed and writes the visit record derived
	// from it. Calling it again finishes a partially applied completion and
	// never creates a second visit.
	Complete(ctx context.Context, id string) (*QueueEntry, *Visit, error)
}
