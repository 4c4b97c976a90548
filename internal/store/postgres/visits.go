package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kozaktomas/branch-greeter/internal/store"
)

const visitColumns = "id, customer_id, queue_entry_id, visited_at, purpose, outcome, staff_notes"

// VisitRepository provides PostgreSQL-backed visit history storage.
type VisitRepository struct {
	pool *Pool
}

// NewVisitRepository creates a new PostgreSQL visit repository.
func NewVisitRepository(pool *Pool) *VisitRepository {
	return &VisitRepository{pool: pool}
}

func scanVisit(scanner interface{ Scan(...any) error }) (store.Visit, error) {
	var v store.Visit
	var queueEntryID sql.NullString

	err := scanner.Scan(
		&v.ID,
		&v.CustomerID,
		&queueEntryID,
		&v.VisitedAt,
		&v.Purpose,
		&v.Outcome,
		&v.StaffNotes,
	)
	if err != nil {
		return v, fmt.Errorf("scan visit: %w", err)
	}

	if queueEntryID.Valid {
		v.QueueEntryID = queueEntryID.String
	}
	return v, nil
}

func scanVisits(rows *sql.Rows) ([]store.Visit, error) {
	var visits []store.Visit
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, err
		}
		visits = append(visits, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate visits: %w", err)
	}
	return visits, nil
}

// ListByCustomer returns a customer's visits, most recent first.
func (r *VisitRepository) ListByCustomer(ctx context.Context, customerID string) ([]store.Visit, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+visitColumns+`
		FROM visits
		WHERE customer_id = $1
		ORDER BY visited_at DESC, id DESC
	`, customerID)
	if err != nil {
		return nil, fmt.Errorf("query visits: %w", err)
	}
	defer rows.Close()

	return scanVisits(rows)
}

// LastVisit returns the most recent visit, or nil when there is none.
func (r *VisitRepository) LastVisit(ctx context.Context, customerID string) (*store.Visit, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+visitColumns+`
		FROM visits
		WHERE customer_id = $1
		ORDER BY visited_at DESC, id DESC
		LIMIT 1
	`, customerID)

	v, err := scanVisit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Create appends a visit record.
func (r *VisitRepository) Create(ctx context.Context, v *store.Visit) error {
	var queueEntryID any
	if v.QueueEntryID != "" {
		queueEntryID = v.QueueEntryID
	}

	err := r.pool.QueryRow(ctx, `
		INSERT INTO visits (customer_id, queue_entry_id, purpose, outcome, staff_notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, visited_at
	`,
		v.CustomerID,
		queueEntryID,
		v.Purpose,
		v.Outcome,
		v.StaffNotes,
	).Scan(&v.ID, &v.VisitedAt)
	if err != nil {
		return fmt.Errorf("insert visit: %w", err)
	}
	return nil
}

// Verify interface compliance.
var _ store.VisitReader = (*VisitRepository)(nil)
var _ store.VisitWriter = (*VisitRepository)(nil)
