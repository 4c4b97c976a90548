// Package store defines the persistent data model of the branch greeter and
// the repository interfaces its storage backends implement.
package store

import (
	"time"

	"github.com/kozaktomas/branch-greeter/internal/descriptor"
)

// Category classifies a customer for priority computation.
type Category string

// Customer categories, staff-mutable, default Regular.
const (
	CategoryVIP          Category = "VIP"
	CategoryHighNetWorth Category = "HighNetWorth"
	CategoryElderly      Category = "Elderly"
	CategoryRegular      Category = "Regular"
)

// Valid reports whether the category is one of the known values.
func (c Category) Valid() bool {
	switch c {
	case CategoryVIP, CategoryHighNetWorth, CategoryElderly, CategoryRegular:
		return true
	}
	return false
}

// Customer is an enrolled identity with up to two reference descriptors.
type Customer struct {
	ID            string                `json:"id"`
	FullName      string                `json:"full_name"`
	AccountNumber string                `json:"account_number,omitempty"`
	Phone         string                `json:"phone,omitempty"`
	Email         string                `json:"email,omitempty"`
	Category      Category              `json:"category"`
	Webcam        descriptor.Descriptor `json:"webcam_descriptor,omitempty"`
	Uploaded      descriptor.Descriptor `json:"uploaded_descriptor,omitempty"`
	RegisteredAt  time.Time             `json:"registered_at"`
}

// Matchable reports whether the customer has at least one reference descriptor.
// A customer without one can never be recognized.
func (c *Customer) Matchable() bool {
	return len(c.Webcam) > 0 || len(c.Uploaded) > 0
}

// Candidate converts the customer into matcher input.
func (c *Customer) Candidate() descriptor.Candidate {
	return descriptor.Candidate{
		CustomerID: c.ID,
		Webcam:     c.Webcam,
		Uploaded:   c.Uploaded,
	}
}

// Visit is one completed service interaction of a customer.
// Immutable once written except through explicit staff amendment.
type Visit struct {
	ID           int64     `json:"id"`
	CustomerID   string    `json:"customer_id"`
	QueueEntryID string    `json:"queue_entry_id,omitempty"` // set when the visit was produced by completing a queue entry
	VisitedAt    time.Time `json:"visited_at"`
	Purpose      string    `json:"purpose"`
	Outcome      string    `json:"outcome"`
	StaffNotes   string    `json:"staff_notes,omitempty"`
}

// Status is the lifecycle state of a queue entry.
type Status string

// Queue entry states. Completed is terminal.
const (
	StatusWaiting   Status = "waiting"
	StatusAssigned  Status = "assigned"
	StatusCompleted Status = "completed"
)

// QueueEntry is a pending-service record linking a customer to priority,
// counter and visit intent. At most one non-completed entry may exist per
// customer; the storage layer enforces this with a partial unique constraint.
type QueueEntry struct {
	ID              string    `json:"id"`
	CustomerID      string    `json:"customer_id"`
	Priority        int       `json:"priority"` // lower = more urgent
	Status          Status    `json:"status"`
	Counter         string    `json:"counter,omitempty"` // empty until a counter is assigned
	Purpose         string    `json:"purpose"`
	ExpectedOutcome string    `json:"expected_outcome"`
	StaffNotes      string    `json:"staff_notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Active reports whether the entry still occupies the queue.
func (e *QueueEntry) Active() bool {
	return e.Status != StatusCompleted
}
