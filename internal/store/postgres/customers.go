package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/kozaktomas/branch-greeter/internal/descriptor"
	"github.com/kozaktomas/branch-greeter/internal/store"
)

const customerColumns = `id, full_name, account_number, phone, email, category,
       webcam_descriptor, uploaded_descriptor, registered_at`

// CustomerRepository provides PostgreSQL-backed customer storage with an
// optional in-memory HNSW index for similarity search.
type CustomerRepository struct {
	pool  *Pool
	index *store.DescriptorIndex
}

// NewCustomerRepository creates a new PostgreSQL customer repository.
func NewCustomerRepository(pool *Pool) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

// EnableIndex builds the in-memory HNSW index over all enrolled descriptors.
// Should be called once at startup; new enrollments are added incrementally.
func (r *CustomerRepository) EnableIndex(ctx context.Context) error {
	candidates, err := r.Candidates(ctx)
	if err != nil {
		return fmt.Errorf("failed to load candidates: %w", err)
	}

	idx := store.NewDescriptorIndex()
	idx.Build(candidates)
	r.index = idx
	return nil
}

// vectorParam converts a descriptor to a SQL parameter, NULL when absent.
func vectorParam(d descriptor.Descriptor) any {
	if len(d) == 0 {
		return nil
	}
	return pgvector.NewVector(d)
}

// scanCustomer scans a single row into a Customer, with optional extra scan
// destinations appended after the standard columns.
func scanCustomer(scanner interface{ Scan(...any) error }, extraDest ...any) (store.Customer, error) {
	var c store.Customer
	var webcam, uploaded sql.Null[pgvector.Vector]

	dest := make([]any, 0, 9+len(extraDest))
	dest = append(dest,
		&c.ID,
		&c.FullName,
		&c.AccountNumber,
		&c.Phone,
		&c.Email,
		&c.Category,
		&webcam,
		&uploaded,
		&c.RegisteredAt,
	)
	dest = append(dest, extraDest...)

	if err := scanner.Scan(dest...); err != nil {
		return c, fmt.Errorf("scan customer: %w", err)
	}

	if webcam.Valid {
		c.Webcam = webcam.V.Slice()
	}
	if uploaded.Valid {
		c.Uploaded = uploaded.V.Slice()
	}
	return c, nil
}

func scanCustomers(rows *sql.Rows) ([]store.Customer, error) {
	var customers []store.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customers: %w", err)
	}
	return customers, nil
}

// Get retrieves a customer by ID, returns nil if not found.
func (r *CustomerRepository) Get(ctx context.Context, id string) (*store.Customer, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+customerColumns+" FROM customers WHERE id = $1", id)

	c, err := scanCustomer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Search lists customers whose normalized name contains the normalized query.
// Normalization matches store.NormalizeName: lowercase, diacritics removed,
// dashes read as spaces.
func (r *CustomerRepository) Search(ctx context.Context, query string) ([]store.Customer, error) {
	normalized := store.NormalizeName(query)

	rows, err := r.pool.Query(ctx, `
		SELECT `+customerColumns+`
		FROM customers
		WHERE $1 = '' OR LOWER(unaccent(translate(full_name, '-', ' '))) LIKE '%' || $1 || '%'
		ORDER BY registered_at, id
	`, normalized)
	if err != nil {
		return nil, fmt.Errorf("query customers: %w", err)
	}
	defer rows.Close()

	return scanCustomers(rows)
}

// Count returns the number of enrolled customers.
func (r *CustomerRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM customers").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count customers: %w", err)
	}
	return count, nil
}

// Candidates returns all matchable reference descriptors in enrollment order.
func (r *CustomerRepository) Candidates(ctx context.Context) ([]descriptor.Candidate, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, webcam_descriptor, uploaded_descriptor
		FROM customers
		WHERE webcam_descriptor IS NOT NULL OR uploaded_descriptor IS NOT NULL
		ORDER BY registered_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer rows.Close()

	var candidates []descriptor.Candidate
	for rows.Next() {
		var c descriptor.Candidate
		var webcam, uploaded sql.Null[pgvector.Vector]
		if err := rows.Scan(&c.CustomerID, &webcam, &uploaded); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		if webcam.Valid {
			c.Webcam = webcam.V.Slice()
		}
		if uploaded.Valid {
			c.Uploaded = uploaded.V.Slice()
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidates: %w", err)
	}
	return candidates, nil
}

// FindSimilar returns up to limit customers ordered by Euclidean distance of
// their nearest reference descriptor to the probe. Uses the in-memory HNSW
// index when enabled, otherwise pgvector.
func (r *CustomerRepository) FindSimilar(
	ctx context.Context, probe descriptor.Descriptor, limit int,
) ([]store.Customer, []float64, error) {
	if r.index != nil {
		return r.findSimilarIndexed(ctx, probe, limit)
	}
	return r.findSimilarPgvector(ctx, probe, limit)
}

// findSimilarIndexed resolves nearest customer IDs from the HNSW index and
// loads the full rows, preserving distance order.
func (r *CustomerRepository) findSimilarIndexed(
	ctx context.Context, probe descriptor.Descriptor, limit int,
) ([]store.Customer, []float64, error) {
	ids, distances, err := r.index.Search(probe, limit)
	if err != nil {
		return nil, nil, fmt.Errorf("index search: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil, nil
	}

	rows, err := r.pool.Query(ctx,
		"SELECT "+customerColumns+" FROM customers WHERE id = ANY($1::uuid[])", pq.Array(ids))
	if err != nil {
		return nil, nil, fmt.Errorf("query customers by IDs: %w", err)
	}
	defer rows.Close()

	loaded, err := scanCustomers(rows)
	if err != nil {
		return nil, nil, err
	}

	byID := make(map[string]store.Customer, len(loaded))
	for _, c := range loaded {
		byID[c.ID] = c
	}

	var customers []store.Customer
	var distancesOut []float64
	for i, id := range ids {
		c, ok := byID[id]
		if !ok {
			continue
		}
		customers = append(customers, c)
		distancesOut = append(distancesOut, distances[i])
	}
	return customers, distancesOut, nil
}

// findSimilarPgvector ranks customers by the L2 distance of their nearest
// descriptor column.
func (r *CustomerRepository) findSimilarPgvector(
	ctx context.Context, probe descriptor.Descriptor, limit int,
) ([]store.Customer, []float64, error) {
	vec := pgvector.NewVector(probe)

	rows, err := r.pool.Query(ctx, `
		SELECT `+customerColumns+`,
		       LEAST(
		           COALESCE(webcam_descriptor <-> $1::vector, 'infinity'::float8),
		           COALESCE(uploaded_descriptor <-> $1::vector, 'infinity'::float8)
		       ) AS distance
		FROM customers
		WHERE webcam_descriptor IS NOT NULL OR uploaded_descriptor IS NOT NULL
		ORDER BY distance
		LIMIT $2
	`, vec, limit)
	if err != nil {
		return nil, nil, fmt.Errorf("query similar customers: %w", err)
	}
	defer rows.Close()

	var customers []store.Customer
	var distances []float64
	for rows.Next() {
		var dist float64
		c, err := scanCustomer(rows, &dist)
		if err != nil {
			return nil, nil, err
		}
		customers = append(customers, c)
		distances = append(distances, dist)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate similar customers: %w", err)
	}
	return customers, distances, nil
}

// Create enrolls a new customer.
func (r *CustomerRepository) Create(ctx context.Context, c *store.Customer) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	err := r.pool.QueryRow(ctx, `
		INSERT INTO customers (id, full_name, account_number, phone, email, category,
		                       webcam_descriptor, uploaded_descriptor)
		VALUES ($1, $2, $3, $4, $5, $6, $7::vector, $8::vector)
		RETURNING registered_at
	`,
		c.ID,
		c.FullName,
		c.AccountNumber,
		c.Phone,
		c.Email,
		c.Category,
		vectorParam(c.Webcam),
		vectorParam(c.Uploaded),
	).Scan(&c.RegisteredAt)
	if err != nil {
		return fmt.Errorf("insert customer: %w", err)
	}

	if r.index != nil && c.Matchable() {
		r.index.Add(c.Candidate())
	}
	return nil
}

// Update persists staff edits. Returns ErrNotFound for an unknown ID.
func (r *CustomerRepository) Update(ctx context.Context, c *store.Customer) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE customers SET
			full_name = $1,
			account_number = $2,
			phone = $3,
			email = $4,
			category = $5,
			webcam_descriptor = $6::vector,
			uploaded_descriptor = $7::vector
		WHERE id = $8
	`,
		c.FullName,
		c.AccountNumber,
		c.Phone,
		c.Email,
		c.Category,
		vectorParam(c.Webcam),
		vectorParam(c.Uploaded),
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("update customer: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update customer rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}

	// Descriptor edits invalidate index nodes; rebuild from the database.
	if r.index != nil {
		if err := r.EnableIndex(ctx); err != nil {
			return fmt.Errorf("rebuild index after update: %w", err)
		}
	}
	return nil
}

// Verify interface compliance.
var _ store.CustomerReader = (*CustomerRepository)(nil)
var _ store.CustomerWriter = (*CustomerRepository)(nil)
