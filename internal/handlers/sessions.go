package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jwebster45206/stage-engine/internal/services/events"
	"github.com/jwebster45206/stage-engine/internal/sessions"
	"github.com/jwebster45206/stage-engine/pkg/actor"
	"github.com/jwebster45206/stage-engine/pkg/chat"
	"github.com/jwebster45206/stage-engine/pkg/engine"
	"github.com/jwebster45206/stage-engine/pkg/event"
	"github.com/jwebster45206/stage-engine/pkg/state"
)

// SessionView is the full client-facing picture of a session.
type SessionView struct {
	State       *state.GameState   `json:"state"`
	ActiveEvent *event.ActiveEvent `json:"active_event,omitempty"`
	Step        *event.Step        `json:"step,omitempty"`
	Messages    []chat.Message     `json:"messages,omitempty"`
	CanEndChat  bool               `json:"can_end_chat"`
}

// viewOf builds a SessionView. It must run while the session is held; the
// game state is copied through JSON so the response does not share it.
func viewOf(s *engine.Session) (*SessionView, error) {
	data, err := json.Marshal(s.State())
	if err != nil {
		return nil, err
	}
	var gs state.GameState
	if err := json.Unmarshal(data, &gs); err != nil {
		return nil, err
	}
	v := &SessionView{
		State:       &gs,
		ActiveEvent: s.ActiveEvent(),
		Messages:    s.EventMessages(),
		CanEndChat:  s.CanEndEventChat(),
	}
	if v.ActiveEvent != nil {
		if step, err := s.CurrentStep(); err == nil {
			v.Step = step
		}
	}
	return v, nil
}

type CreateSessionRequest struct {
	PCID          string `json:"pc_id,omitempty"`
	ContentRating string `json:"content_rating,omitempty"`
	ExplicitMode  bool   `json:"explicit_mode,omitempty"`
}

type UpdateSessionRequest struct {
	ContentRating *string `json:"content_rating,omitempty"`
	ExplicitMode  *bool   `json:"explicit_mode,omitempty"`
}

type AddSubjectRequest struct {
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Status      actor.Status `json:"status,omitempty"`
	Traits      []string     `json:"traits,omitempty"`
}

// SessionHandler serves /v1/sessions and hands event, action and chat
// sub-resources to their handlers.
type SessionHandler struct {
	manager *sessions.Manager
	events  *EventHandler
	actions *ActionHandler
	chat    *ChatHandler
	feed    *events.Broadcaster
	logger  *slog.Logger
}

func NewSessionHandler(manager *sessions.Manager, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		manager: manager,
		events:  NewEventHandler(manager, logger),
		actions: &ActionHandler{manager: manager, logger: logger},
		chat:    &ChatHandler{manager: manager, logger: logger},
		logger:  logger,
	}
}

// SetBroadcaster enables the session activity feed. Without one, mutations
// are not published and the stream endpoint reports 503.
func (h *SessionHandler) SetBroadcaster(b *events.Broadcaster) {
	h.feed = b
	h.events.feed = b
	h.actions.feed = b
	h.chat.feed = b
}

// ServeHTTP routes:
// POST   /v1/sessions                               - Create a session
// GET    /v1/sessions/{id}                          - Read state, active event and transcript
// PATCH  /v1/sessions/{id}                          - Update content settings
// DELETE /v1/sessions/{id}                          - Delete a session
// POST   /v1/sessions/{id}/subjects                 - Add a subject
// POST   /v1/sessions/{id}/subjects/{name}/backstory - Generate a servant backstory
// *      /v1/sessions/{id}/event/...                - See EventHandler
// *      /v1/sessions/{id}/actions                  - See ActionHandler
// *      /v1/sessions/{id}/chat/...                 - See ChatHandler
// GET    /v1/sessions/{id}/stream                   - Server-sent activity feed
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	segs := pathSegments(r.URL.Path, "/v1/sessions")
	if len(segs) == 0 {
		if r.Method != http.MethodPost {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported.")
			return
		}
		h.handleCreate(w, r)
		return
	}

	id, err := uuid.Parse(segs[0])
	if err != nil {
		h.logger.Warn("Invalid session ID", "id", segs[0], "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid session ID format")
		return
	}
	rest := segs[1:]

	if len(rest) == 0 {
		switch r.Method {
		case http.MethodGet:
			h.handleRead(w, r, id)
		case http.MethodPatch:
			h.handlePatch(w, r, id)
		case http.MethodDelete:
			h.handleDelete(w, r, id)
		default:
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET, PATCH, DELETE")
		}
		return
	}

	switch rest[0] {
	case "subjects":
		h.serveSubjects(w, r, id, rest[1:])
	case "event":
		h.events.serveSession(w, r, id, rest[1:])
	case "actions":
		h.actions.serveSession(w, r, id, rest[1:])
	case "chat":
		h.chat.serveSession(w, r, id, rest[1:])
	case "stream":
		h.handleStream(w, r, id)
	default:
		writeError(w, h.logger, http.StatusNotFound, "Not found")
	}
}

func (h *SessionHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeEngineError(w, h.logger, err)
		return
	}

	gs, err := h.manager.Create(r.Context(), req.PCID)
	if err != nil {
		writeEngineError(w, h.logger, err)
		return
	}

	var view *SessionView
	err = h.manager.Update(r.Context(), gs.ID, func(s *engine.Session) error {
		s.State().ContentRating = req.ContentRating
		s.State().ExplicitMode = req.ExplicitMode
		var err error
		view, err = viewOf(s)
		return err
	})
	if err != nil {
		writeEngineError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, view)
}

func (h *SessionHandler) handleRead(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var view *SessionView
	err := h.manager.View(r.Context(), id, func(s *engine.Session) error {
		var err error
		view, err = viewOf(s)
		return err
	})
	if err != nil {
		writeEngineError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, view)
}

func (h *SessionHandler) handlePatch(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req UpdateSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeEngineError(w, h.logger, err)
		return
	}

	var view *SessionView
	err := h.manager.Update(r.Context(), id, func(s *engine.Session) error {
		if req.ContentRating != nil {
			s.State().ContentRating = *req.ContentRating
		}
		if req.ExplicitMode != nil {
			s.State().ExplicitMode = *req.ExplicitMode
		}
		var err error
		view, err = viewOf(s)
		return err
	})
	if err != nil {
		writeEngineError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, view)
}

func (h *SessionHandler) handleDelete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if err := h.manager.Delete(r.Context(), id); err != nil {
		writeEngineError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) serveSubjects(w http.ResponseWriter, r *http.Request, id uuid.UUID, rest []string) {
	if r.Method != http.MethodPost {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported.")
		return
	}

	switch {
	case len(rest) == 0:
		h.handleAddSubject(w, r, id)
	case len(rest) == 2 && rest[1] == "backstory":
		h.handleBackstory(w, r, id, rest[0])
	default:
		writeError(w, h.logger, http.StatusNotFound, "Not found")
	}
}

func (h *SessionHandler) handleAddSubject(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req AddSubjectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeEngineError(w, h.logger, err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, h.logger, http.StatusBadRequest, "Subject name is required")
		return
	}

	var subj actor.Subject
	err := h.manager.Update(r.Context(), id, func(s *engine.Session) error {
		added := &actor.Subject{
			Name:        strings.TrimSpace(req.Name),
			Description: req.Description,
			Status:      req.Status,
			Traits:      req.Traits,
		}
		if err := s.State().AddSubject(added); err != nil {
			return fmt.Errorf("%w: %v", errBadRequest, err)
		}
		subj = *added
		return nil
	})
	if err != nil {
		writeEngineError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, subj)
}

type BackstoryResponse struct {
	Name      string `json:"name"`
	Backstory string `json:"backstory"`
}

func (h *SessionHandler) handleBackstory(w http.ResponseWriter, r *http.Request, id uuid.UUID, name string) {
	var backstory string
	err := h.manager.Update(r.Context(), id, func(s *engine.Session) error {
		var err error
		backstory, err = s.GenerateBackstory(r.Context(), name)
		return err
	})
	if err != nil {
		writeEngineError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, BackstoryResponse{Name: name, Backstory: backstory})
}
