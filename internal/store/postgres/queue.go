package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/kozaktomas/branch-greeter/internal/store"
)

const entryColumns = "id, customer_id, priority, status, counter, purpose, expected_outcome, staff_notes, created_at"

// QueueRepository provides PostgreSQL-backed queue storage. Single-entry
// dedupe relies on the partial unique index over active entries, completion
// idempotency on the unique queue_entry_id column of visits.
type QueueRepository struct {
	pool *Pool
}

// NewQueueRepository creates a new PostgreSQL queue repository.
func NewQueueRepository(pool *Pool) *QueueRepository {
	return &QueueRepository{pool: pool}
}

func scanEntry(scanner interface{ Scan(...any) error }) (store.QueueEntry, error) {
	var e store.QueueEntry
	err := scanner.Scan(
		&e.ID,
		&e.CustomerID,
		&e.Priority,
		&e.Status,
		&e.Counter,
		&e.Purpose,
		&e.ExpectedOutcome,
		&e.StaffNotes,
		&e.CreatedAt,
	)
	if err != nil {
		return e, fmt.Errorf("scan queue entry: %w", err)
	}
	return e, nil
}

// Get retrieves a queue entry by ID, returns nil if not found.
func (r *QueueRepository) Get(ctx context.Context, id string) (*store.QueueEntry, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+entryColumns+" FROM queue_entries WHERE id = $1", id)

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListActive returns all non-completed entries ordered by priority, then
// arrival time.
func (r *QueueRepository) ListActive(ctx context.Context) ([]store.QueueEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+entryColumns+`
		FROM queue_entries
		WHERE status != 'completed'
		ORDER BY priority, created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("query active entries: %w", err)
	}
	defer rows.Close()

	var entries []store.QueueEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate queue entries: %w", err)
	}
	return entries, nil
}

// ActiveByCustomer returns the customer's non-completed entry, or nil.
func (r *QueueRepository) ActiveByCustomer(ctx context.Context, customerID string) (*store.QueueEntry, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+entryColumns+`
		FROM queue_entries
		WHERE customer_id = $1 AND status != 'completed'
	`, customerID)

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Insert adds a waiting entry. The partial unique index makes the dedupe
// atomic: a conflicting insert affects zero rows and maps to ErrAlreadyQueued.
func (r *QueueRepository) Insert(ctx context.Context, e *store.QueueEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Status == "" {
		e.Status = store.StatusWaiting
	}

	err := r.pool.QueryRow(ctx, `
		INSERT INTO queue_entries (id, customer_id, priority, status, counter, purpose, expected_outcome, staff_notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (customer_id) WHERE status != 'completed' DO NOTHING
		RETURNING created_at
	`,
		e.ID,
		e.CustomerID,
		e.Priority,
		e.Status,
		e.Counter,
		e.Purpose,
		e.ExpectedOutcome,
		e.StaffNotes,
	).Scan(&e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrAlreadyQueued
	}
	if err != nil {
		return fmt.Errorf("insert queue entry: %w", err)
	}
	return nil
}

// AssignCounter sets the counter and moves the entry to assigned.
func (r *QueueRepository) AssignCounter(ctx context.Context, id, counter string) (*store.QueueEntry, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE queue_entries SET counter = $1, status = 'assigned'
		WHERE id = $2 AND status != 'completed'
		RETURNING `+entryColumns,
		counter, id)

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Complete marks the entry completed and writes the derived visit record in
// one transaction. Repeating the call finishes a partially applied completion
// and never creates a second visit.
func (r *QueueRepository) Complete(ctx context.Context, id string) (*store.QueueEntry, *store.Visit, error) {
	tx, err := r.pool.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		UPDATE queue_entries SET status = 'completed'
		WHERE id = $1
		RETURNING `+entryColumns,
		id)

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, store.ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO visits (customer_id, queue_entry_id, purpose, outcome, staff_notes)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (queue_entry_id) DO NOTHING
	`,
		e.CustomerID,
		e.ID,
		e.Purpose,
		e.ExpectedOutcome,
		e.StaffNotes,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("insert visit: %w", err)
	}

	v, err := scanVisit(tx.QueryRowContext(ctx,
		"SELECT "+visitColumns+" FROM visits WHERE queue_entry_id = $1", e.ID))
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit completion: %w", err)
	}
	return &e, &v, nil
}

// Verify interface compliance.
var _ store.QueueReader = (*QueueRepository)(nil)
var _ store.QueueWriter = (*QueueRepository)(nil)
