package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/branch-greeter/internal/insights"
	"github.com/kozaktomas/branch-greeter/internal/store"
)

// fakeProvider returns a canned note or an error.
type fakeProvider struct {
	note string
	err  error
}

func (f *fakeProvider) Name() string { return "fake-model" }

func (f *fakeProvider) CustomerNote(ctx context.Context, data insights.CustomerData) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.note, nil
}

func TestInsights_Note(t *testing.T) {
	env := newTestEnv()
	customerID := env.store.AddCustomer(store.Customer{FullName: "Jana Dvořáková", Category: store.CategoryVIP})
	handler := NewInsightsHandler(env.store.Customers(), env.store.Visits(), &fakeProvider{note: "VIP customer, expedite service."})

	req := httptest.NewRequest(http.MethodGet, "/customers/"+customerID+"/insights", nil)
	req = requestWithChiParams(req, map[string]string{"id": customerID})

	recorder := httptest.NewRecorder()
	handler.Get(recorder, req)
	assertStatusCode(t, recorder, http.StatusOK)

	var resp map[string]string
	parseJSONResponse(t, recorder, &resp)
	if resp["note"] != "VIP customer, expedite service." {
		t.Errorf("unexpected note: %q", resp["note"])
	}
	if resp["model"] != "fake-model" {
		t.Errorf("unexpected model: %q", resp["model"])
	}
}

func TestInsights_ProviderFailureDegrades(t *testing.T) {
	env := newTestEnv()
	customerID := env.store.AddCustomer(store.Customer{FullName: "Petr Novák", Category: store.CategoryRegular})
	handler := NewInsightsHandler(env.store.Customers(), env.store.Visits(), &fakeProvider{err: errors.New("rate limited")})

	req := httptest.NewRequest(http.MethodGet, "/customers/"+customerID+"/insights", nil)
	req = requestWithChiParams(req, map[string]string{"id": customerID})

	recorder := httptest.NewRecorder()
	handler.Get(recorder, req)
	assertStatusCode(t, recorder, http.StatusOK)

	var resp map[string]string
	parseJSONResponse(t, recorder, &resp)
	if resp["note"] != unavailableNote {
		t.Errorf("expected degraded note, got %q", resp["note"])
	}
}

func TestInsights_NoProviderConfigured(t *testing.T) {
	env := newTestEnv()
	customerID := env.store.AddCustomer(store.Customer{FullName: "Eva Malá", Category: store.CategoryElderly})
	handler := NewInsightsHandler(env.store.Customers(), env.store.Visits(), nil)

	req := httptest.NewRequest(http.MethodGet, "/customers/"+customerID+"/insights", nil)
	req = requestWithChiParams(req, map[string]string{"id": customerID})

	recorder := httptest.NewRecorder()
	handler.Get(recorder, req)
	assertStatusCode(t, recorder, http.StatusOK)

	var resp map[string]string
	parseJSONResponse(t, recorder, &resp)
	if resp["note"] != unavailableNote {
		t.Errorf("expected degraded note, got %q", resp["note"])
	}
}

func TestInsights_CustomerNotFound(t *testing.T) {
	env := newTestEnv()
	handler := NewInsightsHandler(env.store.Customers(), env.store.Visits(), &fakeProvider{note: "x"})

	req := httptest.NewRequest(http.MethodGet, "/customers/missing/insights", nil)
	req = requestWithChiParams(req, map[string]string{"id": "missing"})

	recorder := httptest.NewRecorder()
	handler.Get(recorder, req)
	assertStatusCode(t, recorder, http.StatusNotFound)
}
