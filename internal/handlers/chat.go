package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/jwebster45206/stage-engine/internal/services/events"
	"github.com/jwebster45206/stage-engine/internal/sessions"
	"github.com/jwebster45206/stage-engine/pkg/chat"
	"github.com/jwebster45206/stage-engine/pkg/engine"
)

type EditMessageRequest struct {
	Text string `json:"text"`
}

type TranscriptResponse struct {
	Messages     []chat.Message `json:"messages"`
	MessageCount int            `json:"message_count"`
	CanEnd       bool           `json:"can_end"`
}

type SummaryResponse struct {
	Summary string `json:"summary"`
}

// ChatHandler serves the chat phase of the active event.
type ChatHandler struct {
	manager *sessions.Manager
	feed    *events.Broadcaster
	logger  *slog.Logger
}

// serveSession handles /v1/sessions/{id}/chat:
// GET  /chat                  - Transcript
// POST /chat                  - Send a player message
// POST /chat/start            - Open the chat phase
// POST /chat/end              - Close the chat phase
// POST /chat/regenerate       - Replace the last reply
// POST /chat/swipe            - Replace the last reply, keeping it as an alternative
// POST /chat/summarize        - Summarize the transcript into the target's history
// PUT  /chat/messages/{index} - Edit a message
func (h *ChatHandler) serveSession(w http.ResponseWriter, r *http.Request, id uuid.UUID, rest []string) {
	if len(rest) == 0 {
		switch r.Method {
		case http.MethodGet:
			h.handleTranscript(w, r, id)
		case http.MethodPost:
			h.handleSend(w, r, id)
		default:
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET, POST")
		}
		return
	}

	if len(rest) == 2 && rest[0] == "messages" {
		if r.Method != http.MethodPut {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only PUT is supported.")
			return
		}
		h.handleEdit(w, r, id, rest[1])
		return
	}

	if len(rest) != 1 {
		writeError(w, h.logger, http.StatusNotFound, "Not found")
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported.")
		return
	}

	switch rest[0] {
	case "start":
		h.handlePhase(w, r, id, (*engine.Session).StartEventChat)
	case "end":
		h.handlePhase(w, r, id, (*engine.Session).EndEventChat)
	case "regenerate":
		h.handleReply(w, r, id, (*engine.Session).RegenerateEventResponse)
	case "swipe":
		h.handleReply(w, r, id, (*engine.Session).SwipeEventResponse)
	case "summarize":
		h.handleSummarize(w, r, id)
	default:
		writeError(w, h.logger, http.StatusNotFound, "Not found")
	}
}

func transcript(s *engine.Session) TranscriptResponse {
	resp := TranscriptResponse{Messages: s.EventMessages(), CanEnd: s.CanEndEventChat()}
	if resp.Messages == nil {
		resp.Messages = []chat.Message{}
	}
	if ae := s.ActiveEvent(); ae != nil {
		resp.MessageCount = ae.ChatMessageCount
	}
	return resp
}

func (h *ChatHandler) handleTranscript(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var resp TranscriptResponse
	err := h.manager.View(r.Context(), id, func(s *engine.Session) error {
		if s.ActiveEvent() == nil {
			return engine.ErrNoActiveEvent
		}
		resp = transcript(s)
		return nil
	})
	if err != nil {
		writeEngineError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, resp)
}

func (h *ChatHandler) handleSend(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req chat.ChatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeEngineError(w, h.logger, err)
		return
	}

	resp := chat.ChatResponse{SessionID: id}
	err := h.manager.Update(r.Context(), id, func(s *engine.Session) error {
		if cmd := TryHandleCommand(s, req.Message); cmd.Handled {
			resp.Message = &chat.Message{Sender: "System", Role: cmd.Role, Text: cmd.Message}
			if ae := s.ActiveEvent(); ae != nil {
				resp.MessageCount = ae.ChatMessageCount
			}
			return nil
		}
		msg, err := s.SendEventMessage(r.Context(), req.Message)
		if err != nil {
			return err
		}
		resp.Message = msg
		resp.MessageCount = s.ActiveEvent().ChatMessageCount
		return nil
	})
	if err != nil {
		h.publishFailure(r, id, err)
		writeEngineError(w, h.logger, err)
		return
	}
	_ = h.feed.PublishChatReply(r.Context(), id, resp.Message, resp.MessageCount)
	writeJSON(w, h.logger, http.StatusOK, resp)
}

func (h *ChatHandler) handlePhase(w http.ResponseWriter, r *http.Request, id uuid.UUID, fn func(*engine.Session) error) {
	var resp TranscriptResponse
	err := h.manager.Update(r.Context(), id, func(s *engine.Session) error {
		if err := fn(s); err != nil {
			return err
		}
		resp = transcript(s)
		return nil
	})
	if err != nil {
		writeEngineError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, resp)
}

func (h *ChatHandler) handleReply(w http.ResponseWriter, r *http.Request, id uuid.UUID, fn func(*engine.Session, context.Context) (*chat.Message, error)) {
	resp := chat.ChatResponse{SessionID: id}
	err := h.manager.Update(r.Context(), id, func(s *engine.Session) error {
		msg, err := fn(s, r.Context())
		if err != nil {
			return err
		}
		resp.Message = msg
		resp.MessageCount = s.ActiveEvent().ChatMessageCount
		return nil
	})
	if err != nil {
		h.publishFailure(r, id, err)
		writeEngineError(w, h.logger, err)
		return
	}
	_ = h.feed.PublishChatReply(r.Context(), id, resp.Message, resp.MessageCount)
	writeJSON(w, h.logger, http.StatusOK, resp)
}

func (h *ChatHandler) handleSummarize(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var summary string
	err := h.manager.Update(r.Context(), id, func(s *engine.Session) error {
		var err error
		summary, err = s.SummarizeEventChat(r.Context())
		return err
	})
	if err != nil {
		writeEngineError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, SummaryResponse{Summary: summary})
}

func (h *ChatHandler) handleEdit(w http.ResponseWriter, r *http.Request, id uuid.UUID, rawIndex string) {
	index, err := strconv.Atoi(rawIndex)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid message index")
		return
	}
	var req EditMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeEngineError(w, h.logger, err)
		return
	}

	var resp TranscriptResponse
	err = h.manager.Update(r.Context(), id, func(s *engine.Session) error {
		if index < 0 || index >= len(s.EventMessages()) {
			return fmt.Errorf("%w: message index %d out of range", errBadRequest, index)
		}
		if err := s.EditEventMessage(index, req.Text); err != nil {
			return err
		}
		resp = transcript(s)
		return nil
	})
	if err != nil {
		writeEngineError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, resp)
}

func (h *ChatHandler) publishFailure(r *http.Request, id uuid.UUID, err error) {
	if errors.Is(err, engine.ErrGenerationFailed) {
		_ = h.feed.PublishChatFailed(r.Context(), id, err.Error())
	}
}
