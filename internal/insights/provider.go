// Package insights generates a short advisory note about a customer for the
// staff dashboard. The note is informational only: the queue engine never
// depends on it and every failure collapses to "insights unavailable" at the
// handler boundary.
package insights

import (
	"context"
	"fmt"
	"strings"

	"github.com/kozaktomas/branch-greeter/internal/store"
)

// maxHistoryVisits bounds how much visit history goes into the prompt.
const maxHistoryVisits = 5

// Provider defines the interface for advisory note backends.
type Provider interface {
	Name() string
	CustomerNote(ctx context.Context, data CustomerData) (string, error)
}

// CustomerData is the context handed to the model.
type CustomerData struct {
	Category  store.Category
	LastVisit *store.Visit
	Visits    []store.Visit // most recent first
}

// buildUserPrompt renders the customer context for the model.
func buildUserPrompt(data CustomerData) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Customer Category: %s\n\n", data.Category)

	b.WriteString("Last Visit:\n")
	if data.LastVisit != nil {
		fmt.Fprintf(&b, "Purpose: %s\n", data.LastVisit.Purpose)
		fmt.Fprintf(&b, "Outcome: %s\n", data.LastVisit.Outcome)
		notes := data.LastVisit.StaffNotes
		if notes == "" {
			notes = "None"
		}
		fmt.Fprintf(&b, "Notes: %s\n", notes)
	} else {
		b.WriteString("No previous visits\n")
	}

	b.WriteString("\nVisit History:\n")
	if len(data.Visits) == 0 {
		b.WriteString("No visit records\n")
	}
	for i, v := range data.Visits {
		if i >= maxHistoryVisits {
			break
		}
		fmt.Fprintf(&b, "- %s: %s -> %s\n", v.VisitedAt.Format("2006-01-02"), v.Purpose, v.Outcome)
		if v.StaffNotes != "" {
			fmt.Fprintf(&b, "  Notes: %s\n", v.StaffNotes)
		}
	}

	b.WriteString("\nBased on this history, provide a priority note highlighting the most important thing staff should remember about this customer.")
	return b.String()
}
