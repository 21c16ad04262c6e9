package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/jwebster45206/stage-engine/internal/services/events"
	"github.com/jwebster45206/stage-engine/internal/sessions"
	"github.com/jwebster45206/stage-engine/pkg/engine"
	"github.com/jwebster45206/stage-engine/pkg/event"
	"github.com/jwebster45206/stage-engine/pkg/skillcheck"
)

type EventSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
	Steps    int    `json:"steps"`
}

type StartEventRequest struct {
	EventID string `json:"event_id"`
	Target  string `json:"target"`
}

type AdvanceEventRequest struct {
	ChoiceID string `json:"choice_id,omitempty"`
	Force    string `json:"force,omitempty"`
}

// EventResponse carries the event snapshot and, for soft failures, the
// reason the request did not advance.
type EventResponse struct {
	Event *event.ActiveEvent `json:"event"`
	Step  *event.Step        `json:"step,omitempty"`
	Error string             `json:"error,omitempty"`
}

type EventHandler struct {
	manager *sessions.Manager
	feed    *events.Broadcaster
	logger  *slog.Logger
}

func NewEventHandler(manager *sessions.Manager, logger *slog.Logger) *EventHandler {
	return &EventHandler{manager: manager, logger: logger}
}

// ServeHTTP lists event definitions:
// GET /v1/events      - All registered events
// GET /v1/events/{id} - One definition
func (h *EventHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only GET is supported.")
		return
	}

	registry := h.manager.Events()
	segs := pathSegments(r.URL.Path, "/v1/events")
	switch len(segs) {
	case 0:
		list := make([]EventSummary, 0)
		for _, id := range registry.List() {
			def, ok := registry.Get(id)
			if !ok {
				continue
			}
			list = append(list, EventSummary{ID: def.ID, Name: def.Name, Category: def.Category, Steps: len(def.Steps)})
		}
		writeJSON(w, h.logger, http.StatusOK, list)
	case 1:
		def, ok := registry.Get(segs[0])
		if !ok {
			writeEngineError(w, h.logger, fmt.Errorf("%w: %s", engine.ErrUnknownEvent, segs[0]))
			return
		}
		writeJSON(w, h.logger, http.StatusOK, def)
	default:
		writeError(w, h.logger, http.StatusNotFound, "Not found")
	}
}

// serveSession handles /v1/sessions/{id}/event:
// GET    /event         - Active event and current step
// POST   /event         - Start an event
// POST   /event/advance - Take a choice, or follow the step's next link
// DELETE /event         - End the active event
func (h *EventHandler) serveSession(w http.ResponseWriter, r *http.Request, id uuid.UUID, rest []string) {
	switch {
	case len(rest) == 0 && r.Method == http.MethodGet:
		h.handleGet(w, r, id)
	case len(rest) == 0 && r.Method == http.MethodPost:
		h.handleStart(w, r, id)
	case len(rest) == 0 && r.Method == http.MethodDelete:
		h.handleEnd(w, r, id)
	case len(rest) == 1 && rest[0] == "advance" && r.Method == http.MethodPost:
		h.handleAdvance(w, r, id)
	case len(rest) <= 1:
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
	default:
		writeError(w, h.logger, http.StatusNotFound, "Not found")
	}
}

func (h *EventHandler) handleGet(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var resp EventResponse
	err := h.manager.View(r.Context(), id, func(s *engine.Session) error {
		resp = snapshot(s, s.ActiveEvent())
		if resp.Event == nil {
			return engine.ErrNoActiveEvent
		}
		return nil
	})
	if err != nil {
		writeEngineError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, resp)
}

func (h *EventHandler) handleStart(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req StartEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeEngineError(w, h.logger, err)
		return
	}
	if req.EventID == "" || req.Target == "" {
		writeError(w, h.logger, http.StatusBadRequest, "event_id and target are required")
		return
	}

	var resp EventResponse
	err := h.manager.Update(r.Context(), id, func(s *engine.Session) error {
		ae, err := s.StartEvent(req.EventID, req.Target)
		if err != nil {
			return err
		}
		resp = snapshot(s, ae)
		return nil
	})
	if err != nil {
		writeEngineError(w, h.logger, err)
		return
	}
	_ = h.feed.PublishEvent(r.Context(), id, events.EventTypeEventStarted, resp.Event)
	writeJSON(w, h.logger, http.StatusCreated, resp)
}

func (h *EventHandler) handleAdvance(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req AdvanceEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeEngineError(w, h.logger, err)
		return
	}
	force, err := skillcheck.ParseForce(req.Force)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	var resp EventResponse
	err = h.manager.Update(r.Context(), id, func(s *engine.Session) error {
		ae, err := s.AdvanceEvent(req.ChoiceID, force)
		if ae != nil {
			resp = snapshot(s, ae)
		}
		return err
	})
	if err != nil && resp.Event != nil && isSoftFailure(err) {
		resp.Error = err.Error()
		writeJSON(w, h.logger, http.StatusUnprocessableEntity, resp)
		return
	}
	if err != nil {
		writeEngineError(w, h.logger, err)
		return
	}
	_ = h.feed.PublishEvent(r.Context(), id, events.EventTypeEventAdvanced, resp.Event)
	writeJSON(w, h.logger, http.StatusOK, resp)
}

func (h *EventHandler) handleEnd(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	err := h.manager.Update(r.Context(), id, func(s *engine.Session) error {
		s.EndEvent()
		return nil
	})
	if err != nil {
		writeEngineError(w, h.logger, err)
		return
	}
	_ = h.feed.PublishEvent(r.Context(), id, events.EventTypeEventEnded, nil)
	w.WriteHeader(http.StatusNoContent)
}

func snapshot(s *engine.Session, ae *event.ActiveEvent) EventResponse {
	resp := EventResponse{Event: ae}
	if ae != nil {
		if step, err := s.CurrentStep(); err == nil {
			resp.Step = step
		}
	}
	return resp
}

func isSoftFailure(err error) bool {
	return errors.Is(err, engine.ErrUnknownChoice) ||
		errors.Is(err, engine.ErrMissingStep) ||
		errors.Is(err, engine.ErrMissingItem)
}
