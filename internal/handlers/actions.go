package handlers

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/jwebster45206/stage-engine/internal/services/events"
	"github.com/jwebster45206/stage-engine/internal/sessions"
	"github.com/jwebster45206/stage-engine/pkg/conditioning"
	"github.com/jwebster45206/stage-engine/pkg/engine"
	"github.com/jwebster45206/stage-engine/pkg/skillcheck"
)

type ActionsResponse struct {
	Conditioning int                         `json:"conditioning"`
	Actions      []conditioning.Availability `json:"actions"`
}

type ExecuteActionRequest struct {
	ActionID string `json:"action_id"`
	Force    string `json:"force,omitempty"`
}

// ActionHandler serves conditioning actions for the active event.
type ActionHandler struct {
	manager *sessions.Manager
	feed    *events.Broadcaster
	logger  *slog.Logger
}

// serveSession handles /v1/sessions/{id}/actions:
// GET  /actions - Visible actions and the target's conditioning
// POST /actions - Execute an action
func (h *ActionHandler) serveSession(w http.ResponseWriter, r *http.Request, id uuid.UUID, rest []string) {
	if len(rest) != 0 {
		writeError(w, h.logger, http.StatusNotFound, "Not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		h.handleList(w, r, id)
	case http.MethodPost:
		h.handleExecute(w, r, id)
	default:
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET, POST")
	}
}

func (h *ActionHandler) handleList(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var resp ActionsResponse
	err := h.manager.View(r.Context(), id, func(s *engine.Session) error {
		actions, err := s.AvailableActions()
		if err != nil {
			return err
		}
		level, err := s.TargetConditioning()
		if err != nil {
			return err
		}
		resp = ActionsResponse{Conditioning: level, Actions: actions}
		return nil
	})
	if err != nil {
		writeEngineError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, resp)
}

func (h *ActionHandler) handleExecute(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req ExecuteActionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeEngineError(w, h.logger, err)
		return
	}
	if req.ActionID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "action_id is required")
		return
	}
	force, err := skillcheck.ParseForce(req.Force)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	var res *conditioning.Result
	err = h.manager.Update(r.Context(), id, func(s *engine.Session) error {
		var err error
		if force.IsSet() {
			res, err = s.ExecuteConditioningActionForced(req.ActionID, force == skillcheck.ForceSuccess)
		} else {
			res, err = s.ExecuteConditioningAction(req.ActionID)
		}
		return err
	})
	if err != nil {
		writeEngineError(w, h.logger, err)
		return
	}
	_ = h.feed.PublishActionExecuted(r.Context(), id, res)
	writeJSON(w, h.logger, http.StatusOK, res)
}
