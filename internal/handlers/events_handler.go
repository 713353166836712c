package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"mathdrill/internal/logger"
	"mathdrill/internal/service"
)

// Subscriber hands out event subscriptions
type Subscriber interface {
	Subscribe(buffer int) (<-chan service.Event, func())
}

// EventsHandler streams practice events to the dashboard over SSE
type EventsHandler struct {
	hub       Subscriber
	log       *logger.Logger
	heartbeat time.Duration
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(hub Subscriber, log *logger.Logger) *EventsHandler {
	return &EventsHandler{hub: hub, log: log, heartbeat: eventHeartbeat}
}

// Stream writes each hub event as an SSE "message" until the client goes away
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, h.log, http.StatusInternalServerError, "Streaming unsupported", "", nil)
		return
	}

	// the stream outlives the server's write timeout
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events, cancel := h.hub.Subscribe(32)
	defer cancel()

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			h.log.Debug("SSE client disconnected", "error", ctx.Err())
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case e, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(e)
			if err != nil {
				h.log.Warn("Failed to marshal SSE message", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}
