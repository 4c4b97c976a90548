package handlers

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/branch-greeter/internal/insights"
	"github.com/kozaktomas/branch-greeter/internal/store"
)

// unavailableNote is returned whenever the provider fails or is not
// configured. Insights are advisory; staff screens must not break on them.
const unavailableNote = "Insights unavailable"

// InsightsHandler serves LLM-generated advisory notes about customers.
type InsightsHandler struct {
	customers store.CustomerReader
	visits    store.VisitReader
	provider  insights.Provider // nil when no API key is configured
}

// NewInsightsHandler creates an insights handler.
func NewInsightsHandler(customers store.CustomerReader, visits store.VisitReader, provider insights.Provider) *InsightsHandler {
	return &InsightsHandler{customers: customers, visits: visits, provider: provider}
}

// Get handles GET /customers/{id}/insights.
func (h *InsightsHandler) Get(w http.ResponseWriter, r *http.Request) {
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

	if h.provider == nil {
		respondJSON(w, http.StatusOK, map[string]string{"note": unavailableNote})
		return
	}

	visits, err := h.visits.ListByCustomer(r.Context(), id)
	if err != nil {
		log.Printf("Failed to list visits for %s: %v", sanitizeForLog(id), err)
		respondJSON(w, http.StatusOK, map[string]string{"note": unavailableNote})
		return
	}

	data := insights.CustomerData{
		Category: customer.Category,
		Visits:   visits,
	}
	if len(visits) > 0 {
		data.LastVisit = &visits[0]
	}

	note, err := h.provider.CustomerNote(r.Context(), data)
	if err != nil {
		log.Printf("Insights provider failed for %s: %v", sanitizeForLog(id), err)
		respondJSON(w, http.StatusOK, map[string]string{"note": unavailableNote})
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"note":  note,
		"model": h.provider.Name(),
	})
}
