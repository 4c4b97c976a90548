package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/branch-greeter/internal/store"
)

func TestQueueList_Order(t *testing.T) {
	env := newTestEnv()
	regularID := env.store.AddCustomer(store.Customer{FullName: "Petr Novák", Category: store.CategoryRegular})
	vipID := env.store.AddCustomer(store.Customer{FullName: "Jana Dvořáková", Category: store.CategoryVIP})
	handler := NewQueueHandler(env.manager)

	for _, id := range []string{regularID, vipID} {
		recorder := httptest.NewRecorder()
		handler.Enqueue(recorder, jsonRequest(t, http.MethodPost, "/queue", map[string]string{"customer_id": id}))
		assertStatusCode(t, recorder, http.StatusCreated)
	}

	recorder := httptest.NewRecorder()
	handler.List(recorder, httptest.NewRequest(http.MethodGet, "/queue", nil))
	assertStatusCode(t, recorder, http.StatusOK)

	var resp struct {
		Entries []store.QueueEntry `json:"entries"`
		Count   int                `json:"count"`
	}
	parseJSONResponse(t, recorder, &resp)
	if resp.Count != 2 {
		t.Fatalf("expected 2 entries, got %d", resp.Count)
	}
	if resp.Entries[0].CustomerID != vipID {
		t.Error("expected the VIP entry served first")
	}
}

func TestQueueEnqueue_DuplicateReturnsExisting(t *testing.T) {
	env := newTestEnv()
	customerID := env.store.AddCustomer(store.Customer{FullName: "Eva Malá", Category: store.CategoryElderly})
	handler := NewQueueHandler(env.manager)

	recorder := httptest.NewRecorder()
	handler.Enqueue(recorder, jsonRequest(t, http.MethodPost, "/queue", map[string]string{"customer_id": customerID}))
	assertStatusCode(t, recorder, http.StatusCreated)

	recorder = httptest.NewRecorder()
	handler.Enqueue(recorder, jsonRequest(t, http.MethodPost, "/queue", map[string]string{"customer_id": customerID}))
	assertStatusCode(t, recorder, http.StatusOK)

	var resp struct {
		Queued bool `json:"queued"`
	}
	parseJSONResponse(t, recorder, &resp)
	if resp.Queued {
		t.Error("expected queued=false for duplicate enqueue")
	}
}

func TestQueueEnqueue_UnknownCustomer(t *testing.T) {
	env := newTestEnv()
	handler := NewQueueHandler(env.manager)

	recorder := httptest.NewRecorder()
	handler.Enqueue(recorder, jsonRequest(t, http.MethodPost, "/queue", map[string]string{"customer_id": "missing"}))
	assertStatusCode(t, recorder, http.StatusNotFound)
	assertJSONError(t, recorder, "customer not found")
}

func TestQueueEnqueue_MissingCustomerID(t *testing.T) {
	env := newTestEnv()
	handler := NewQueueHandler(env.manager)

	recorder := httptest.NewRecorder()
	handler.Enqueue(recorder, jsonRequest(t, http.MethodPost, "/queue", map[string]string{}))
	assertStatusCode(t, recorder, http.StatusBadRequest)
}

func TestQueueAssign(t *testing.T) {
	env := newTestEnv()
	customerID := env.store.AddCustomer(store.Customer{FullName: "A", Category: store.CategoryRegular})
	entryID := env.store.AddEntry(store.QueueEntry{CustomerID: customerID, Priority: 4, Status: store.StatusWaiting})
	handler := NewQueueHandler(env.manager)

	req := jsonRequest(t, http.MethodPost, "/queue/"+entryID+"/assign", map[string]string{"counter": "Counter 1"})
	req = requestWithChiParams(req, map[string]string{"id": entryID})

	recorder := httptest.NewRecorder()
	handler.Assign(recorder, req)
	assertStatusCode(t, recorder, http.StatusOK)

	var entry store.QueueEntry
	parseJSONResponse(t, recorder, &entry)
	if entry.Status != store.StatusAssigned || entry.Counter != "Counter 1" {
		t.Errorf("unexpected entry after assign: %+v", entry)
	}
}

func TestQueueAssign_UnknownCounter(t *testing.T) {
	env := newTestEnv()
	customerID := env.store.AddCustomer(store.Customer{FullName: "B", Category: store.CategoryRegular})
	entryID := env.store.AddEntry(store.QueueEntry{CustomerID: customerID, Priority: 4, Status: store.StatusWaiting})
	handler := NewQueueHandler(env.manager)

	req := jsonRequest(t, http.MethodPost, "/queue/"+entryID+"/assign", map[string]string{"counter": "Counter 42"})
	req = requestWithChiParams(req, map[string]string{"id": entryID})

	recorder := httptest.NewRecorder()
	handler.Assign(recorder, req)
	assertStatusCode(t, recorder, http.StatusBadRequest)
}

func TestQueueComplete_Idempotent(t *testing.T) {
	env := newTestEnv()
	customerID := env.store.AddCustomer(store.Customer{FullName: "C", Category: store.CategoryRegular})
	entryID := env.store.AddEntry(store.QueueEntry{
		CustomerID:      customerID,
		Priority:        4,
		Status:          store.StatusAssigned,
		Counter:         "Counter 3",
		Purpose:         "Loan consultation",
		ExpectedOutcome: "Loan status update",
	})
	handler := NewQueueHandler(env.manager)

	var firstVisitID int64
	for i := 0; i < 2; i++ {
		req := jsonRequest(t, http.MethodPost, "/queue/"+entryID+"/complete", nil)
		req = requestWithChiParams(req, map[string]string{"id": entryID})

		recorder := httptest.NewRecorder()
		handler.Complete(recorder, req)
		assertStatusCode(t, recorder, http.StatusOK)

		var resp struct {
			Entry store.QueueEntry `json:"entry"`
			Visit store.Visit      `json:"visit"`
		}
		parseJSONResponse(t, recorder, &resp)
		if resp.Entry.Status != store.StatusCompleted {
			t.Errorf("expected completed status, got %s", resp.Entry.Status)
		}
		if i == 0 {
			firstVisitID = resp.Visit.ID
		} else if resp.Visit.ID != firstVisitID {
			t.Error("expected the same visit on repeated completion")
		}
	}
}

func TestQueueComplete_Missing(t *testing.T) {
	env := newTestEnv()
	handler := NewQueueHandler(env.manager)

	req := jsonRequest(t, http.MethodPost, "/queue/missing/complete", nil)
	req = requestWithChiParams(req, map[string]string{"id": "missing"})

	recorder := httptest.NewRecorder()
	handler.Complete(recorder, req)
	assertStatusCode(t, recorder, http.StatusNotFound)
}
