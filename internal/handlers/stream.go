package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/stage-engine/pkg/engine"
)

const streamKeepAlive = 15 * time.Second

// handleStream serves GET /v1/sessions/{id}/stream as server-sent events.
func (h *SessionHandler) handleStream(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if r.Method != http.MethodGet {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only GET is supported.")
		return
	}
	if h.feed == nil {
		writeError(w, h.logger, http.StatusServiceUnavailable, "Activity feed is not enabled")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, h.logger, http.StatusInternalServerError, "Streaming is not supported")
		return
	}

	if err := h.manager.View(r.Context(), id, func(*engine.Session) error { return nil }); err != nil {
		writeEngineError(w, h.logger, err)
		return
	}

	// Subscribe before the headers go out so nothing published after the
	// client sees 200 is missed.
	sub, err := h.feed.Subscribe(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to subscribe to session feed", "session_id", id, "error", err)
		writeError(w, h.logger, http.StatusServiceUnavailable, "Activity feed is unavailable")
		return
	}
	defer func() {
		if err := sub.Close(); err != nil {
			h.logger.Error("Failed to close subscription", "error", err)
		}
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)

	h.logger.Info("SSE connection established", "session_id", id, "remote_addr", r.RemoteAddr)
	h.sendSSE(w, flusher, "connected", map[string]any{
		"session_id": id.String(),
		"message":    "Connected to session stream",
	})

	keepaliveTicker := time.NewTicker(streamKeepAlive)
	defer keepaliveTicker.Stop()

	for {
		select {
		case <-r.Context().Done():
			h.logger.Info("SSE client disconnected", "session_id", id)
			return
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			if !h.sendSSE(w, flusher, string(ev.Type), ev) {
				return
			}
		case <-keepaliveTicker.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				h.logger.Error("Failed to write keepalive", "error", err)
				return
			}
			flusher.Flush()
		}
	}
}

// sendSSE writes one frame and reports whether the client is still there.
func (h *SessionHandler) sendSSE(w http.ResponseWriter, flusher http.Flusher, eventType string, data any) bool {
	payload, err := json.Marshal(data)
	if err != nil {
		h.logger.Error("Failed to marshal SSE data", "error", err, "event_type", eventType)
		return true
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, payload); err != nil {
		h.logger.Debug("Failed to write SSE frame", "error", err)
		return false
	}
	flusher.Flush()
	return true
}
