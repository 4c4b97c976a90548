package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/branch-greeter/internal/descriptor"
	"github.com/kozaktomas/branch-greeter/internal/store"
)

// CustomersHandler manages customer enrollment, lookup and history.
type CustomersHandler struct {
	customers store.CustomerWriter
	visits    store.VisitWriter
}

// NewCustomersHandler creates a customers handler.
func NewCustomersHandler(customers store.CustomerWriter, visits store.VisitWriter) *CustomersHandler {
	return &CustomersHandler{customers: customers, visits: visits}
}

// customerRequest is the enrollment/update payload.
type customerRequest struct {
	FullName      string                `json:"full_name"`
	AccountNumber string                `json:"account_number"`
	Phone         string                `json:"phone"`
	Email         string                `json:"email"`
	Category      store.Category        `json:"category"`
	Webcam        descriptor.Descriptor `json:"webcam_descriptor"`
	Uploaded      descriptor.Descriptor `json:"uploaded_descriptor"`
}

// validate checks required fields and descriptor dimensions.
func (req *customerRequest) validate() error {
	if req.FullName == "" {
		return errors.New("full_name is required")
	}
	if req.Category == "" {
		req.Category = store.CategoryRegular
	}
	if !req.Category.Valid() {
		return fmt.Errorf("unknown category: %s", req.Category)
	}
	for _, d := range []descriptor.Descriptor{req.Webcam, req.Uploaded} {
		if len(d) != 0 && len(d) != descriptor.Dim {
			return fmt.Errorf("descriptor must have %d dimensions, got %d", descriptor.Dim, len(d))
		}
	}
	return nil
}

// List handles GET /customers. The optional q parameter filters by name,
// ignoring case and diacritics.
func (h *CustomersHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	customers, err := h.customers.Search(r.Context(), query)
	if err != nil {
		log.Printf("Failed to search customers: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to search customers")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"customers": customers,
		"count":     len(customers),
	})
}

// Create handles POST /customers.
func (h *CustomersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if err := req.validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	customer := &store.Customer{
		FullName:      req.FullName,
		AccountNumber: req.AccountNumber,
		Phone:         req.Phone,
		Email:         req.Email,
		Category:      req.Category,
		Webcam:        req.Webcam,
		Uploaded:      req.Uploaded,
	}

	if err := h.customers.Create(r.Context(), customer); err != nil {
		log.Printf("Failed to create customer: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to create customer")
		return
	}

	respondJSON(w, http.StatusCreated, customer)
}

// Get handles GET /customers/{id}.
func (h *CustomersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	customer, err := h.customers.Get(r.Context(), id)
	if err != nil {
		log.Printf("Failed to get customer %s: %v", sanitizeForLog(id), err)
		respondError(w, http.StatusInternalServerError, "failed to get customer")
		return
	}
	if customer == nil {
		respondError(w, http.StatusNotFound, "customer not found")
		return
	}

	respondJSON(w, http.StatusOK, customer)
}

// Update handles PUT /customers/{id}.
func (h *CustomersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req customerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if err := req.validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	customer := &store.Customer{
		ID:            id,
		FullName:      req.FullName,
		AccountNumber: req.AccountNumber,
		Phone:         req.Phone,
		Email:         req.Email,
		Category:      req.Category,
		Webcam:        req.Webcam,
		Uploaded:      req.Uploaded,
	}

	err := h.customers.Update(r.Context(), customer)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "customer not found")
		return
	}
	if err != nil {
		log.Printf("Failed to update customer %s: %v", sanitizeForLog(id), err)
		respondError(w, http.StatusInternalServerError, "failed to update customer")
		return
	}

	respondJSON(w, http.StatusOK, customer)
}

// Visits handles GET /customers/{id}/visits.
func (h *CustomersHandler) Visits(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	customer, err := h.customers.Get(r.Context(), id)
	if err != nil {
		log.Printf("Failed to get customer %s: %v", sanitizeForLog(id), err)
		respondError(w, http.StatusInternalServerError, "failed to get customer")
		return
	}
	if customer == nil {
		respondError(w, http.StatusNotFound, "customer not found")
		return
	}

	visits, err := h.visits.ListByCustomer(r.Context(), id)
	if err != nil {
		log.Printf("Failed to list visits for %s: %v", sanitizeForLog(id), err)
		respondError(w, http.StatusInternalServerError, "failed to list visits")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"visits": visits,
		"count":  len(visits),
	})
}

// visitRequest is the manual visit record payload.
type visitRequest struct {
	Purpose    string `json:"purpose"`
	Outcome    string `json:"outcome"`
	StaffNotes string `json:"staff_notes"`
}

// CreateVisit handles POST /customers/{id}/visits. Staff use it to record
// interactions that never went through the queue, like phone follow-ups.
func (h *CustomersHandler) CreateVisit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req visitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.Purpose == "" {
		respondError(w, http.StatusBadRequest, "purpose is required")
		return
	}

	customer, err := h.customers.Get(r.Context(), id)
	if err != nil {
		log.Printf("Failed to get customer %s: %v", sanitizeForLog(id), err)
		respondError(w, http.StatusInternalServerError, "failed to get customer")
		return
	}
	if customer == nil {
		respondError(w, http.StatusNotFound, "customer not found")
		return
	}

	visit := &store.Visit{
		CustomerID: id,
		Purpose:    req.Purpose,
		Outcome:    req.Outcome,
		StaffNotes: req.StaffNotes,
	}
	if err := h.visits.Create(r.Context(), visit); err != nil {
		log.Printf("Failed to record visit for %s: %v", sanitizeForLog(id), err)
		respondError(w, http.StatusInternalServerError, "failed to record visit")
		return
	}

	respondJSON(w, http.StatusCreated, visit)
}

// similarRequest asks for the nearest enrolled customers to a descriptor.
type similarRequest struct {
	Descriptor descriptor.Descriptor `json:"descriptor"`
	Limit      int                   `json:"limit"`
}

// similarMatch pairs a customer with their descriptor distance.
type similarMatch struct {
	Customer store.Customer `json:"customer"`
	Distance float64        `json:"distance"`
}

// Similar handles POST /customers/similar. Staff tooling uses it to spot
// duplicate enrollments before registering a new customer.
func (h *CustomersHandler) Similar(w http.ResponseWriter, r *http.Request) {
	var req similarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if len(req.Descriptor) != descriptor.Dim {
		respondError(w, http.StatusBadRequest,
			fmt.Sprintf("descriptor must have %d dimensions, got %d", descriptor.Dim, len(req.Descriptor)))
		return
	}
	if req.Limit <= 0 || req.Limit > 50 {
		req.Limit = 5
	}

	customers, distances, err := h.customers.FindSimilar(r.Context(), req.Descriptor, req.Limit)
	if err != nil {
		log.Printf("Failed to find similar customers: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to find similar customers")
		return
	}

	matches := make([]similarMatch, len(customers))
	for i := range customers {
		matches[i] = similarMatch{Customer: customers[i], Distance: distances[i]}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"matches": matches,
		"count":   len(matches),
	})
}
