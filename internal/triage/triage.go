// Package triage infers a suggested purpose and expected outcome for a new
// visit from the customer's most recent visit record.
package triage

import (
	"strings"

	"github.com/kozaktomas/branch-greeter/internal/store"
)

// Defaults used when there is no prior visit or no rule matches.
const (
	DefaultPurpose = "General inquiry"
	DefaultOutcome = "Service provided"
)

// Suggestion is the inferred intent of a new visit.
type Suggestion struct {
	Purpose         string `json:"purpose"`
	ExpectedOutcome string `json:"expected_outcome"`
}

// rule matches the previous visit's purpose/outcome keywords. Rules are
// evaluated in order; the first hit wins and rules are never combined.
type rule struct {
	purposeAny []string
	outcomeAny []string
	suggest    func(last *store.Visit) Suggestion
}

var rules = []rule{
	{
		outcomeAny: []string{"pending", "follow-up", "waiting"},
		suggest: func(last *store.Visit) Suggestion {
			return Suggestion{
				Purpose:         "Follow-up: " + last.Purpose,
				ExpectedOutcome: "Resolve pending issue",
			}
		},
	},
	{
		purposeAny: []string{"atm", "card"},
		outcomeAny: []string{"issue", "failed", "blocked"},
		suggest: func(*store.Visit) Suggestion {
			return Suggestion{
				Purpose:         "ATM/Card issue follow-up",
				ExpectedOutcome: "Card replacement/activation",
			}
		},
	},
	{
		purposeAny: []string{"loan", "credit"},
		suggest: func(*store.Visit) Suggestion {
			return Suggestion{
				Purpose:         "Loan/Credit inquiry follow-up",
				ExpectedOutcome: "Loan status update",
			}
		},
	},
	{
		purposeAny: []string{"account", "opening"},
		suggest: func(*store.Visit) Suggestion {
			return Suggestion{
				Purpose:         "Account services",
				ExpectedOutcome: "Account setup/modification",
			}
		},
	},
	{
		purposeAny: []string{"complaint", "grievance"},
		suggest: func(*store.Visit) Suggestion {
			return Suggestion{
				Purpose:         "Complaint resolution follow-up",
				ExpectedOutcome: "Issue resolved",
			}
		},
	},
	{
		purposeAny: []string{"investment", "fd", "deposit"},
		suggest: func(*store.Visit) Suggestion {
			return Suggestion{
				Purpose:         "Investment inquiry follow-up",
				ExpectedOutcome: "Investment advice provided",
			}
		},
	},
}

func containsAny(s string, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// Suggest derives purpose and expected outcome for a new visit.
// Deterministic, no I/O: the same visit text always yields the same suggestion.
func Suggest(lastVisit *store.Visit) Suggestion {
	if lastVisit == nil {
		return Suggestion{Purpose: DefaultPurpose, ExpectedOutcome: DefaultOutcome}
	}

	purpose := strings.ToLower(lastVisit.Purpose)
	outcome := strings.ToLower(lastVisit.Outcome)

	for _, r := range rules {
		if containsAny(purpose, r.purposeAny) && containsAny(outcome, r.outcomeAny) {
			return r.suggest(lastVisit)
		}
	}
	return Suggestion{Purpose: DefaultPurpose, ExpectedOutcome: DefaultOutcome}
}
