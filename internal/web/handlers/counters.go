package handlers

import (
	"net/http"

	"github.com/kozaktomas/branch-greeter/internal/config"
)

// CountersHandler serves the branch catalog: counters and category priorities.
type CountersHandler struct {
	branch *config.BranchConfig
}

// NewCountersHandler creates a counters handler.
func NewCountersHandler(branch *config.BranchConfig) *CountersHandler {
	return &CountersHandler{branch: branch}
}

// List handles GET /counters.
func (h *CountersHandler) List(w http.ResponseWriter, r *http.Request) {
	type counter struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}

	counters := make([]counter, len(h.branch.Counters))
	for i, c := range h.branch.Counters {
		counters[i] = counter{Name: c.Name, Description: c.Description}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"counters":   counters,
		"priorities": h.branch.Priorities,
	})
}
