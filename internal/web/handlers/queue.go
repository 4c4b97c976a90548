package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/branch-greeter/internal/queue"
	"github.com/kozaktomas/branch-greeter/internal/store"
)

// QueueHandler exposes the service queue lifecycle.
type QueueHandler struct {
	manager *queue.Manager
}

// NewQueueHandler creates a queue handler.
func NewQueueHandler(manager *queue.Manager) *QueueHandler {
	return &QueueHandler{manager: manager}
}

// List handles GET /queue. Entries come back in serving order.
func (h *QueueHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.manager.List(r.Context())
	if err != nil {
		log.Printf("Failed to list queue: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list queue")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"count":   len(entries),
	})
}

// Get handles GET /queue/{id}.
func (h *QueueHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	entry, err := h.manager.Get(r.Context(), id)
	if err != nil {
		log.Printf("Failed to get queue entry %s: %v", sanitizeForLog(id), err)
		respondError(w, http.StatusInternalServerError, "failed to get queue entry")
		return
	}
	if entry == nil {
		respondError(w, http.StatusNotFound, "queue entry not found")
		return
	}

	respondJSON(w, http.StatusOK, entry)
}

// enqueueRequest queues a customer manually, bypassing face recognition.
type enqueueRequest struct {
	CustomerID string `json:"customer_id"`
}

// Enqueue handles POST /queue. Staff use it when recognition is not an
// option (walk-in without enrollment kiosk, descriptor rejected).
func (h *QueueHandler) Enqueue(w http.ResponseWriter, r *http.Request) {
	var req enqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.CustomerID == "" {
		respondError(w, http.StatusBadRequest, "customer_id is required")
		return
	}

	entry, created, err := h.manager.Enqueue(r.Context(), req.CustomerID)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "customer not found")
		return
	}
	if err != nil {
		log.Printf("Failed to enqueue customer %s: %v", sanitizeForLog(req.CustomerID), err)
		respondError(w, http.StatusInternalServerError, "failed to enqueue customer")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respondJSON(w, status, map[string]any{
		"entry":  entry,
		"queued": created,
	})
}

// assignRequest names the counter an entry is called to.
type assignRequest struct {
	Counter string `json:"counter"`
}

// Assign handles POST /queue/{id}/assign.
func (h *QueueHandler) Assign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.Counter == "" {
		respondError(w, http.StatusBadRequest, "counter is required")
		return
	}

	entry, err := h.manager.AssignCounter(r.Context(), id, req.Counter)
	switch {
	case errors.Is(err, queue.ErrUnknownCounter):
		respondError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, "queue entry not found")
		return
	case err != nil:
		log.Printf("Failed to assign entry %s: %v", sanitizeForLog(id), err)
		respondError(w, http.StatusInternalServerError, "failed to assign counter")
		return
	}

	respondJSON(w, http.StatusOK, entry)
}

// Complete handles POST /queue/{id}/complete. Idempotent: repeating the call
// returns the same visit.
func (h *QueueHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	entry, visit, err := h.manager.Complete(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "queue entry not found")
		return
	}
	if err != nil {
		log.Printf("Failed to complete entry %s: %v", sanitizeForLog(id), err)
		respondError(w, http.StatusInternalServerError, "failed to complete entry")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"entry": entry,
		"visit": visit,
	})
}
