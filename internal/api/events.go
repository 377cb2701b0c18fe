package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// OrderEventsHandler handles GET /api/orders/{orderId}/events and
// GET /api/orders/{orderId}/events/stream (SSE).
func (s *Server) OrderEventsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/orders/")
	if rest == r.URL.Path || rest == "" {
		writeError(w, http.StatusNotFound, "Not Found", nil)
		return
	}
	parts := strings.Split(rest, "/")
	orderID := parts[0]
	if orderID == "" || len(parts) < 2 || parts[1] != "events" {
		writeError(w, http.StatusNotFound, "Not Found", nil)
		return
	}

	if len(parts) > 2 && parts[2] == "stream" {
		s.streamOrderEvents(w, r, orderID)
		return
	}

	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		fmt.Sscanf(v, "%d", &limit)
	}
	items, err := s.Store.ListShipmentEvents(r.Context(), orderID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "List events failed", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) streamOrderEvents(w http.ResponseWriter, r *http.Request, orderID string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Streaming unsupported", nil)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := s.Broker.Subscribe(orderID)
	defer s.Broker.Unsubscribe(orderID, ch)

	heartbeat := func() {
		fmt.Fprintf(w, "event: heartbeat\n")
		fmt.Fprintf(w, "data: {\"orderId\":\"%s\",\"ts\":\"%s\"}\n\n", orderID, time.Now().Format(time.RFC3339))
		flusher.Flush()
	}
	heartbeat()

	notify := r.Context().Done()
	for {
		select {
		case <-notify:
			return
		case evt := <-ch:
			b, _ := json.Marshal(evt.Data)
			fmt.Fprintf(w, "event: %s\n", evt.Type)
			fmt.Fprintf(w, "data: %s\n\n", string(b))
			flusher.Flush()
		case <-time.After(15 * time.Second):
			heartbeat()
		}
	}
}
