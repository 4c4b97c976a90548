package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/kozaktomas/branch-greeter/internal/queue"
)

// sendSSEEvent writes one server-sent event and flushes it.
func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		log.Printf("Failed to marshal SSE event: %v", err)
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, payload)
	flusher.Flush()
}

// EventsHandler streams queue changes to the dashboard.
type EventsHandler struct {
	manager *queue.Manager
}

// NewEventsHandler creates an SSE handler for queue events.
func NewEventsHandler(manager *queue.Manager) *EventsHandler {
	return &EventsHandler{manager: manager}
}

// Events handles GET /queue/events. Sends the current queue as the first
// event, then streams lifecycle events until the client disconnects.
func (h *EventsHandler) Events(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	entries, err := h.manager.List(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list queue")
		return
	}

	eventCh := h.manager.Notifier().AddListener()
	defer h.manager.Notifier().RemoveListener(eventCh)

	sendSSEEvent(w, flusher, "snapshot", map[string]any{
		"entries": entries,
		"count":   len(entries),
	})

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-eventCh:
			if !ok {
				return
			}
			sendSSEEvent(w, flusher, event.Type, event)
		}
	}
}
