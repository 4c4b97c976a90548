// Package mock provides an in-memory implementation of the store repository
// interfaces for testing.
package mock

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kozaktomas/branch-greeter/internal/descriptor"
	"github.com/kozaktomas/branch-greeter/internal/store"
)

// Store is a single in-memory backing store implementing CustomerWriter,
// VisitWriter and QueueWriter. One shared mutex makes Insert and Complete
// atomic the same way the PostgreSQL backend's constraints and transactions do.
type Store struct {
	mu            sync.RWMutex
	customers     map[string]*store.Customer
	customerOrder []string
	visits        []store.Visit
	nextVisitID   int64
	entries       map[string]*store.QueueEntry

	// Error injection.
	GetCustomerError  error
	SearchError       error
	CandidatesError   error
	FindSimilarError  error
	CreateError       error
	UpdateError       error
	VisitListError    error
	VisitCreateError  error
	QueueGetError     error
	QueueListError    error
	InsertError       error
	AssignError       error
	CompleteError     error
}

// NewStore creates an empty mock store.
func NewStore() *Store {
	return &Store{
		customers: make(map[string]*store.Customer),
		entries:   make(map[string]*store.QueueEntry),
	}
}

// AddCustomer seeds a customer, assigning an ID when missing.
func (m *Store) AddCustomer(c store.Customer) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.RegisteredAt.IsZero() {
		c.RegisteredAt = time.Now()
	}
	m.customers[c.ID] = &c
	m.customerOrder = append(m.customerOrder, c.ID)
	return c.ID
}

// AddVisit seeds a visit record.
func (m *Store) AddVisit(v store.Visit) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextVisitID++
	v.ID = m.nextVisitID
	m.visits = append(m.visits, v)
}

// AddEntry seeds a queue entry, assigning an ID when missing.
func (m *Store) AddEntry(e store.QueueEntry) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	m.entries[e.ID] = &e
	return e.ID
}

// --- CustomerReader / CustomerWriter ---

func (m *Store) Get(ctx context.Context, id string) (*store.Customer, error) {
	if m.GetCustomerError != nil {
		return nil, m.GetCustomerError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.customers[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (m *Store) Search(ctx context.Context, query string) ([]store.Customer, error) {
	if m.SearchError != nil {
		return nil, m.SearchError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	normalized := store.NormalizeName(query)
	var result []store.Customer
	for _, id := range m.customerOrder {
		c := m.customers[id]
		if normalized == "" || strings.Contains(store.NormalizeName(c.FullName), normalized) {
			result = append(result, *c)
		}
	}
	return result, nil
}

func (m *Store) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.customers), nil
}

func (m *Store) Candidates(ctx context.Context) ([]descriptor.Candidate, error) {
	if m.CandidatesError != nil {
		return nil, m.CandidatesError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var candidates []descriptor.Candidate
	for _, id := range m.customerOrder {
		c := m.customers[id]
		if c.Matchable() {
			candidates = append(candidates, c.Candidate())
		}
	}
	return candidates, nil
}

func (m *Store) FindSimilar(ctx context.Context, probe descriptor.Descriptor, limit int) ([]store.Customer, []float64, error) {
	if m.FindSimilarError != nil {
		return nil, nil, m.FindSimilarError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	type scored struct {
		customer store.Customer
		dist     float64
	}
	var all []scored
	for _, id := range m.customerOrder {
		c := m.customers[id]
		best := -1.0
		for _, ref := range []descriptor.Descriptor{c.Webcam, c.Uploaded} {
			if len(ref) == 0 {
				continue
			}
			d, err := descriptor.Distance(probe, ref)
			if err != nil {
				return nil, nil, err
			}
			if best < 0 || d < best {
				best = d
			}
		}
		if best >= 0 {
			all = append(all, scored{customer: *c, dist: best})
		}
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].dist < all[j].dist })
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}

	customers := make([]store.Customer, len(all))
	distances := make([]float64, len(all))
	for i, s := range all {
		customers[i] = s.customer
		distances[i] = s.dist
	}
	return customers, distances, nil
}

func (m *Store) Create(ctx context.Context, c *store.Customer) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.RegisteredAt.IsZero() {
		c.RegisteredAt = time.Now()
	}
	cp := *c
	m.customers[c.ID] = &cp
	m.customerOrder = append(m.customerOrder, c.ID)
	return nil
}

func (m *Store) Update(ctx context.Context, c *store.Customer) error {
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.customers[c.ID]; !ok {
		return store.ErrNotFound
	}
	cp := *c
	m.customers[c.ID] = &cp
	return nil
}

// --- VisitReader / VisitWriter ---

func (m *Store) ListByCustomer(ctx context.Context, customerID string) ([]store.Visit, error) {
	if m.VisitListError != nil {
		return nil, m.VisitListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []store.Visit
	for _, v := range m.visits {
		if v.CustomerID == customerID {
			result = append(result, v)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].VisitedAt.After(result[j].VisitedAt)
	})
	return result, nil
}

func (m *Store) LastVisit(ctx context.Context, customerID string) (*store.Visit, error) {
	visits, err := m.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if len(visits) == 0 {
		return nil, nil
	}
	return &visits[0], nil
}

func (m *Store) CreateVisit(ctx context.Context, v *store.Visit) error {
	if m.VisitCreateError != nil {
		return m.VisitCreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createVisitLocked(v)
	return nil
}

func (m *Store) createVisitLocked(v *store.Visit) {
	m.nextVisitID++
	v.ID = m.nextVisitID
	if v.VisitedAt.IsZero() {
		v.VisitedAt = time.Now()
	}
	m.visits = append(m.visits, *v)
}

// --- QueueReader / QueueWriter ---

func (m *Store) GetEntry(ctx context.Context, id string) (*store.QueueEntry, error) {
	if m.QueueGetError != nil {
		return nil, m.QueueGetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[id]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (m *Store) ListActive(ctx context.Context) ([]store.QueueEntry, error) {
	if m.QueueListError != nil {
		return nil, m.QueueListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []store.QueueEntry
	for _, e := range m.entries {
		if e.Active() {
			result = append(result, *e)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Priority != result[j].Priority {
			return result[i].Priority < result[j].Priority
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (m *Store) ActiveByCustomer(ctx context.Context, customerID string) (*store.QueueEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.entries {
		if e.CustomerID == customerID && e.Active() {
			cp := *e
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *Store) Insert(ctx context.Context, e *store.QueueEntry) error {
	if m.InsertError != nil {
		return m.InsertError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.entries {
		if existing.CustomerID == e.CustomerID && existing.Active() {
			return store.ErrAlreadyQueued
		}
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	cp := *e
	m.entries[e.ID] = &cp
	return nil
}

func (m *Store) AssignCounter(ctx context.Context, id, counter string) (*store.QueueEntry, error) {
	if m.AssignError != nil {
		return nil, m.AssignError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[id]
	if !ok || e.Status == store.StatusCompleted {
		return nil, store.ErrNotFound
	}
	e.Counter = counter
	e.Status = store.StatusAssigned
	cp := *e
	return &cp, nil
}

func (m *Store) Complete(ctx context.Context, id string) (*store.QueueEntry, *store.Visit, error) {
	if m.CompleteError != nil {
		return nil, nil, m.CompleteError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[id]
	if !ok {
		return nil, nil, store.ErrNotFound
	}

	e.Status = store.StatusCompleted

	// Idempotent: the visit keyed by this entry is created at most once.
	for i := range m.visits {
		if m.visits[i].QueueEntryID == id {
			cp := *e
			v := m.visits[i]
			return &cp, &v, nil
		}
	}

	visit := &store.Visit{
		CustomerID:   e.CustomerID,
		QueueEntryID: e.ID,
		Purpose:      e.Purpose,
		Outcome:      e.ExpectedOutcome,
		StaffNotes:   e.StaffNotes,
	}
	m.createVisitLocked(visit)

	cp := *e
	return &cp, visit, nil
}

// --- Repository views ---
//
// The store interfaces reuse method names (Get, Create) across repositories,
// so the single backing Store is exposed through per-interface views.

// Customers returns the store as a customer repository.
func (m *Store) Customers() store.CustomerWriter { return m }

// VisitRepo adapts the store to the visit repository interface.
type VisitRepo struct {
	s *Store
}

// Visits returns the store as a visit repository.
func (m *Store) Visits() *VisitRepo { return &VisitRepo{s: m} }

func (r *VisitRepo) ListByCustomer(ctx context.Context, customerID string) ([]store.Visit, error) {
	return r.s.ListByCustomer(ctx, customerID)
}

func (r *VisitRepo) LastVisit(ctx context.Context, customerID string) (*store.Visit, error) {
	return r.s.LastVisit(ctx, customerID)
}

func (r *VisitRepo) Create(ctx context.Context, v *store.Visit) error {
	return r.s.CreateVisit(ctx, v)
}

// QueueRepo adapts the store to the queue repository interface.
type QueueRepo struct {
	s *Store
}

// Queue returns the store as a queue repository.
func (m *Store) Queue() *QueueRepo { return &QueueRepo{s: m} }

func (r *QueueRepo) Get(ctx context.Context, id string) (*store.QueueEntry, error) {
	return r.s.GetEntry(ctx, id)
}

func (r *QueueRepo) ListActive(ctx context.Context) ([]store.QueueEntry, error) {
	return r.s.ListActive(ctx)
}

func (r *QueueRepo) ActiveByCustomer(ctx context.Context, customerID string) (*store.QueueEntry, error) {
	return r.s.ActiveByCustomer(ctx, customerID)
}

func (r *QueueRepo) Insert(ctx context.Context, e *store.QueueEntry) error {
	return r.s.Insert(ctx, e)
}

func (r *QueueRepo) AssignCounter(ctx context.Context, id, counter string) (*store.QueueEntry, error) {
	return r.s.AssignCounter(ctx, id, counter)
}

func (r *QueueRepo) Complete(ctx context.Context, id string) (*store.QueueEntry, *store.Visit, error) {
	return r.s.Complete(ctx, id)
}

// Verify interface compliance.
var _ store.CustomerWriter = (*Store)(nil)
var _ store.VisitWriter = (*VisitRepo)(nil)
var _ store.QueueWriter = (*QueueRepo)(nil)
