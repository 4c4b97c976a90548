package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/branch-greeter/internal/store"
)

func TestCustomersCreate(t *testing.T) {
	env := newTestEnv()
	handler := NewCustomersHandler(env.store.Customers(), env.store.Visits())

	recorder := httptest.NewRecorder()
	handler.Create(recorder, jsonRequest(t, http.MethodPost, "/customers", map[string]any{
		"full_name":         "Jana Dvořáková",
		"account_number":    "CZ1234",
		"category":          "VIP",
		"webcam_descriptor": flatDescriptor(0.3),
	}))
	assertStatusCode(t, recorder, http.StatusCreated)

	var customer store.Customer
	parseJSONResponse(t, recorder, &customer)
	if customer.ID == "" {
		t.Error("expected generated customer ID")
	}
	if customer.Category != store.CategoryVIP {
		t.Errorf("expected VIP category, got %s", customer.Category)
	}
}

func TestCustomersCreate_DefaultsToRegular(t *testing.T) {
	env := newTestEnv()
	handler := NewCustomersHandler(env.store.Customers(), env.store.Visits())

	recorder := httptest.NewRecorder()
	handler.Create(recorder, jsonRequest(t, http.MethodPost, "/customers", map[string]any{
		"full_name": "Petr Novák",
	}))
	assertStatusCode(t, recorder, http.StatusCreated)

	var customer store.Customer
	parseJSONResponse(t, recorder, &customer)
	if customer.Category != store.CategoryRegular {
		t.Errorf("expected Regular category, got %s", customer.Category)
	}
}

func TestCustomersCreate_Invalid(t *testing.T) {
	env := newTestEnv()
	handler := NewCustomersHandler(env.store.Customers(), env.store.Visits())

	cases := []struct {
		name string
		body map[string]any
	}{
		{"missing name", map[string]any{"category": "VIP"}},
		{"unknown category", map[string]any{"full_name": "X", "category": "Platinum"}},
		{"short descriptor", map[string]any{"full_name": "X", "webcam_descriptor": []float32{1, 2, 3}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			handler.Create(recorder, jsonRequest(t, http.MethodPost, "/customers", tc.body))
			assertStatusCode(t, recorder, http.StatusBadRequest)
		})
	}
}

func TestCustomersList_SearchIgnoresDiacritics(t *testing.T) {
	env := newTestEnv()
	env.store.AddCustomer(store.Customer{FullName: "Jana Dvořáková", Category: store.CategoryVIP})
	env.store.AddCustomer(store.Customer{FullName: "Petr Novák", Category: store.CategoryRegular})
	handler := NewCustomersHandler(env.store.Customers(), env.store.Visits())

	recorder := httptest.NewRecorder()
	handler.List(recorder, httptest.NewRequest(http.MethodGet, "/customers?q=dvorakova", nil))
	assertStatusCode(t, recorder, http.StatusOK)

	var resp struct {
		Customers []store.Customer `json:"customers"`
		Count     int              `json:"count"`
	}
	parseJSONResponse(t, recorder, &resp)
	if resp.Count != 1 {
		t.Fatalf("expected 1 result, got %d", resp.Count)
	}
	if resp.Customers[0].FullName != "Jana Dvořáková" {
		t.Errorf("unexpected customer: %s", resp.Customers[0].FullName)
	}
}

func TestCustomersGet_NotFound(t *testing.T) {
	env := newTestEnv()
	handler := NewCustomersHandler(env.store.Customers(), env.store.Visits())

	req := httptest.NewRequest(http.MethodGet, "/customers/missing", nil)
	req = requestWithChiParams(req, map[string]string{"id": "missing"})

	recorder := httptest.NewRecorder()
	handler.Get(recorder, req)
	assertStatusCode(t, recorder, http.StatusNotFound)
	assertJSONError(t, recorder, "customer not found")
}

func TestCustomersUpdate(t *testing.T) {
	env := newTestEnv()
	customerID := env.store.AddCustomer(store.Customer{FullName: "Eva Malá", Category: store.CategoryRegular})
	handler := NewCustomersHandler(env.store.Customers(), env.store.Visits())

	req := jsonRequest(t, http.MethodPut, "/customers/"+customerID, map[string]any{
		"full_name": "Eva Malá",
		"category":  "Elderly",
	})
	req = requestWithChiParams(req, map[string]string{"id": customerID})

	recorder := httptest.NewRecorder()
	handler.Update(recorder, req)
	assertStatusCode(t, recorder, http.StatusOK)

	var customer store.Customer
	parseJSONResponse(t, recorder, &customer)
	if customer.Category != store.CategoryElderly {
		t.Errorf("expected Elderly category, got %s", customer.Category)
	}
}

func TestCustomersVisits(t *testing.T) {
	env := newTestEnv()
	customerID := env.store.AddCustomer(store.Customer{FullName: "A", Category: store.CategoryRegular})
	env.store.AddVisit(store.Visit{CustomerID: customerID, Purpose: "Loan inquiry", Outcome: "Pending approval"})
	handler := NewCustomersHandler(env.store.Customers(), env.store.Visits())

	req := httptest.NewRequest(http.MethodGet, "/customers/"+customerID+"/visits", nil)
	req = requestWithChiParams(req, map[string]string{"id": customerID})

	recorder := httptest.NewRecorder()
	handler.Visits(recorder, req)
	assertStatusCode(t, recorder, http.StatusOK)

	var resp struct {
		Visits []store.Visit `json:"visits"`
		Count  int           `json:"count"`
	}
	parseJSONResponse(t, recorder, &resp)
	if resp.Count != 1 || resp.Visits[0].Purpose != "Loan inquiry" {
		t.Errorf("unexpected visits response: %+v", resp)
	}
}

func TestCustomersCreateVisit(t *testing.T) {
	env := newTestEnv()
	customerID := env.store.AddCustomer(store.Customer{FullName: "A", Category: store.CategoryRegular})
	handler := NewCustomersHandler(env.store.Customers(), env.store.Visits())

	req := jsonRequest(t, http.MethodPost, "/customers/"+customerID+"/visits", map[string]any{
		"purpose":     "Phone follow-up",
		"outcome":     "Documents requested",
		"staff_notes": "Callback scheduled",
	})
	req = requestWithChiParams(req, map[string]string{"id": customerID})

	recorder := httptest.NewRecorder()
	handler.CreateVisit(recorder, req)
	assertStatusCode(t, recorder, http.StatusCreated)

	var visit store.Visit
	parseJSONResponse(t, recorder, &visit)
	if visit.ID == 0 {
		t.Error("expected generated visit ID")
	}
	if visit.VisitedAt.IsZero() {
		t.Error("expected visit timestamp")
	}
}

func TestCustomersCreateVisit_Invalid(t *testing.T) {
	env := newTestEnv()
	customerID := env.store.AddCustomer(store.Customer{FullName: "A", Category: store.CategoryRegular})
	handler := NewCustomersHandler(env.store.Customers(), env.store.Visits())

	req := jsonRequest(t, http.MethodPost, "/customers/"+customerID+"/visits", map[string]any{
		"outcome": "no purpose given",
	})
	req = requestWithChiParams(req, map[string]string{"id": customerID})

	recorder := httptest.NewRecorder()
	handler.CreateVisit(recorder, req)
	assertStatusCode(t, recorder, http.StatusBadRequest)
	assertJSONError(t, recorder, "purpose is required")
}

func TestCustomersSimilar(t *testing.T) {
	env := newTestEnv()
	nearID := env.store.AddCustomer(store.Customer{FullName: "Near", Category: store.CategoryRegular, Webcam: flatDescriptor(0.3)})
	env.store.AddCustomer(store.Customer{FullName: "Far", Category: store.CategoryRegular, Webcam: flatDescriptor(0.9)})
	handler := NewCustomersHandler(env.store.Customers(), env.store.Visits())

	recorder := httptest.NewRecorder()
	handler.Similar(recorder, jsonRequest(t, http.MethodPost, "/customers/similar", map[string]any{
		"descriptor": flatDescriptor(0.31),
		"limit":      2,
	}))
	assertStatusCode(t, recorder, http.StatusOK)

	var resp struct {
		Matches []similarMatch `json:"matches"`
		Count   int            `json:"count"`
	}
	parseJSONResponse(t, recorder, &resp)
	if resp.Count != 2 {
		t.Fatalf("expected 2 matches, got %d", resp.Count)
	}
	if resp.Matches[0].Customer.ID != nearID {
		t.Error("expected the nearest customer first")
	}
	if resp.Matches[0].Distance >= resp.Matches[1].Distance {
		t.Error("expected matches ordered by distance")
	}
}

func TestCustomersSimilar_BadDescriptor(t *testing.T) {
	env := newTestEnv()
	handler := NewCustomersHandler(env.store.Customers(), env.store.Visits())

	recorder := httptest.NewRecorder()
	handler.Similar(recorder, jsonRequest(t, http.MethodPost, "/customers/similar", map[string]any{
		"descriptor": []float32{1, 2, 3},
	}))
	assertStatusCode(t, recorder, http.StatusBadRequest)
}
