package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/stage-engine/internal/services"
	"github.com/jwebster45206/stage-engine/internal/sessions"
	"github.com/jwebster45206/stage-engine/internal/storage"
	"github.com/jwebster45206/stage-engine/pkg/actor"
	"github.com/jwebster45206/stage-engine/pkg/chat"
	"github.com/jwebster45206/stage-engine/pkg/engine"
	"github.com/jwebster45206/stage-engine/pkg/event"
	"github.com/jwebster45206/stage-engine/pkg/skillcheck"
)

type testServer struct {
	mux     *http.ServeMux
	store   *storage.MockStorage
	llm     *services.MockLLMAPI
	manager *sessions.Manager
	handler *SessionHandler
}

func newTestServer(t *testing.T, replies ...string) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := storage.NewMockStorage()
	llm := services.NewMockLLMAPI(replies...)
	manager := sessions.NewManager(store, event.NewBuiltinRegistry(), logger,
		engine.WithGenerator(llm),
		engine.WithRoller(skillcheck.Fixed(50)),
	)

	mux := http.NewServeMux()
	sessionHandler := NewSessionHandler(manager, logger)
	eventHandler := NewEventHandler(manager, logger)
	pcHandler := NewPCHandler(logger, store)
	mux.Handle("/health", NewHealthHandler(store, llm, logger))
	mux.Handle("/v1/sessions", sessionHandler)
	mux.Handle("/v1/sessions/", sessionHandler)
	mux.Handle("/v1/events", eventHandler)
	mux.Handle("/v1/events/", eventHandler)
	mux.Handle("/v1/pcs", pcHandler)
	mux.Handle("/v1/pcs/", pcHandler)

	return &testServer{mux: mux, store: store, llm: llm, manager: manager, handler: sessionHandler}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	w := httptest.NewRecorder()
	ts.mux.ServeHTTP(w, req)
	return w
}

// createSession creates a session and returns its path prefix.
func (ts *testServer) createSession(t *testing.T) (uuid.UUID, string) {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		State struct {
			ID uuid.UUID `json:"id"`
		} `json:"state"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEqual(t, uuid.Nil, resp.State.ID)
	return resp.State.ID, "/v1/sessions/" + resp.State.ID.String()
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestSessionHandler_CreateReadPatchDelete(t *testing.T) {
	ts := newTestServer(t)
	id, base := ts.createSession(t)

	w := ts.do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := decode[map[string]any](t, w)
	assert.Nil(t, view["active_event"])

	rating := "PG"
	w = ts.do(t, http.MethodPatch, base, UpdateSessionRequest{ContentRating: &rating})
	require.Equal(t, http.StatusOK, w.Code)
	gs, err := ts.store.LoadGameState(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "PG", gs.ContentRating)

	w = ts.do(t, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = ts.do(t, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionHandler_Errors(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name       string
		method     string
		path       string
		body       any
		wantStatus int
	}{
		{name: "invalid id", method: http.MethodGet, path: "/v1/sessions/not-a-uuid", wantStatus: http.StatusBadRequest},
		{name: "unknown session", method: http.MethodGet, path: "/v1/sessions/" + uuid.NewString(), wantStatus: http.StatusNotFound},
		{name: "list not allowed", method: http.MethodGet, path: "/v1/sessions", wantStatus: http.StatusMethodNotAllowed},
		{name: "unknown pc", method: http.MethodPost, path: "/v1/sessions", body: CreateSessionRequest{PCID: "ghost"}, wantStatus: http.StatusNotFound},
		{name: "unknown field", method: http.MethodPost, path: "/v1/sessions", body: map[string]string{"scenario": "x"}, wantStatus: http.StatusBadRequest},
		{name: "unknown sub-resource", method: http.MethodGet, path: "/v1/sessions/" + uuid.NewString() + "/nope", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		})
	}
}

func TestSessionHandler_CreateWithPC(t *testing.T) {
	ts := newTestServer(t)
	ts.store.AddPCSpec("rook", &actor.PCSpec{ID: "rook", Name: "Rook"})

	w := ts.do(t, http.MethodPost, "/v1/sessions", CreateSessionRequest{PCID: "rook", ExplicitMode: true})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decode[struct {
		State struct {
			ExplicitMode bool `json:"explicit_mode"`
			PC           struct {
				Name string `json:"name"`
			} `json:"pc"`
		} `json:"state"`
	}](t, w)
	assert.True(t, resp.State.ExplicitMode)
	assert.Equal(t, "Rook", resp.State.PC.Name)
}

func TestSessionHandler_Subjects(t *testing.T) {
	ts := newTestServer(t, "Sable keeps the rooms now.")
	_, base := ts.createSession(t)

	w := ts.do(t, http.MethodPost, base+"/subjects", AddSubjectRequest{Name: "Sable", Description: "A knight."})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	subj := decode[actor.Subject](t, w)
	assert.Equal(t, actor.StatusFree, subj.Status)

	w = ts.do(t, http.MethodPost, base+"/subjects", AddSubjectRequest{Name: "Sable"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "duplicate name")

	w = ts.do(t, http.MethodPost, base+"/subjects", AddSubjectRequest{Name: " "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, base+"/subjects/Nobody/backstory", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(t, http.MethodPost, base+"/subjects/Sable/backstory", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Sable keeps the rooms now.", decode[BackstoryResponse](t, w).Backstory)
}

func TestSessionHandler_Busy(t *testing.T) {
	ts := newTestServer(t)
	id, base := ts.createSession(t)

	_, err := ts.store.AcquireLock(context.Background(), id, sessions.DefaultLockTTL)
	require.NoError(t, err)

	w := ts.do(t, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestEventFlow(t *testing.T) {
	ts := newTestServer(t, "*glares* Let me go.", "*trembles*", "Sable fought hard but listened.")
	_, base := ts.createSession(t)

	w := ts.do(t, http.MethodGet, base+"/event", nil)
	assert.Equal(t, http.StatusConflict, w.Code, "no active event")

	w = ts.do(t, http.MethodPost, base+"/event", StartEventRequest{EventID: "nope", Target: "Sable"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(t, http.MethodPost, base+"/event", StartEventRequest{EventID: event.Brainwashing, Target: "Sable"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	started := decode[EventResponse](t, w)
	assert.Equal(t, "capture_intro", started.Event.CurrentStepID)
	require.NotNil(t, started.Step)

	// soft failure keeps the snapshot
	w = ts.do(t, http.MethodPost, base+"/event/advance", AdvanceEventRequest{ChoiceID: "dance"})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	soft := decode[EventResponse](t, w)
	assert.Equal(t, "capture_intro", soft.Event.CurrentStepID)
	assert.NotEmpty(t, soft.Error)

	w = ts.do(t, http.MethodPost, base+"/event/advance", AdvanceEventRequest{ChoiceID: "gentle", Force: "sometimes"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, base+"/event/advance", AdvanceEventRequest{ChoiceID: "gentle"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	advanced := decode[EventResponse](t, w)
	assert.Equal(t, "session", advanced.Event.CurrentStepID)
	assert.Equal(t, "gentle", advanced.Event.Strategy)

	w = ts.do(t, http.MethodPost, base+"/chat", map[string]string{"message": "Hello"})
	assert.Equal(t, http.StatusConflict, w.Code, "chat phase not started")

	w = ts.do(t, http.MethodPost, base+"/chat/start", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = ts.do(t, http.MethodGet, base+"/actions", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	actions := decode[ActionsResponse](t, w)
	assert.NotEmpty(t, actions.Actions)

	w = ts.do(t, http.MethodPost, base+"/actions", ExecuteActionRequest{ActionID: "lullaby_whisper"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[map[string]any](t, w)
	assert.Equal(t, "lullaby_whisper", res["action_id"])
	assert.Equal(t, true, res["success"])

	w = ts.do(t, http.MethodPost, base+"/actions", ExecuteActionRequest{ActionID: "no_such_action"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(t, http.MethodPost, base+"/chat", map[string]string{"message": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, base+"/chat", map[string]string{"message": "Rest now."})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	reply := decode[struct {
		Message struct {
			Sender string `json:"sender"`
			Text   string `json:"text"`
		} `json:"message"`
		MessageCount int `json:"message_count"`
	}](t, w)
	assert.Equal(t, "Sable", reply.Message.Sender)
	assert.Equal(t, "*glares* Let me go.", reply.Message.Text)
	assert.Equal(t, 1, reply.MessageCount)

	w = ts.do(t, http.MethodPost, base+"/chat", map[string]string{"message": "i"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Your inventory is empty.")

	w = ts.do(t, http.MethodPost, base+"/chat/swipe", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "*trembles*")

	// the lullaby directive sits ahead of the player's line
	w = ts.do(t, http.MethodPut, base+"/chat/messages/1", EditMessageRequest{Text: "Rest, Sable."})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	transcript := decode[TranscriptResponse](t, w)
	require.Len(t, transcript.Messages, 3)
	assert.Equal(t, chat.RoleSystem, transcript.Messages[0].Role)
	assert.Contains(t, transcript.Messages[0].Text, "Warden hums a slow lullaby close to Sable's ear.")
	assert.Equal(t, "Warden", transcript.Messages[1].Sender)
	assert.Equal(t, chat.RolePlayer, transcript.Messages[1].Role)
	assert.Equal(t, "Rest, Sable.", transcript.Messages[1].Text)
	assert.Equal(t, "*trembles*", transcript.Messages[2].Text)

	w = ts.do(t, http.MethodPut, base+"/chat/messages/9", EditMessageRequest{Text: "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = ts.do(t, http.MethodPut, base+"/chat/messages/x", EditMessageRequest{Text: "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, base+"/chat/summarize", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Sable fought hard but listened.", decode[SummaryResponse](t, w).Summary)

	w = ts.do(t, http.MethodGet, base+"/chat", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[TranscriptResponse](t, w).Messages, 3)

	w = ts.do(t, http.MethodDelete, base+"/event", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = ts.do(t, http.MethodGet, base+"/event", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestChat_GenerationFailure(t *testing.T) {
	ts := newTestServer(t)
	_, base := ts.createSession(t)

	require.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, base+"/event", StartEventRequest{EventID: event.Brainwashing, Target: "Sable"}).Code)
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, base+"/event/advance", AdvanceEventRequest{ChoiceID: "firm"}).Code)
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, base+"/chat/start", nil).Code)

	ts.llm.SetGenerateTextError(errors.New("model offline"))
	w := ts.do(t, http.MethodPost, base+"/chat", map[string]string{"message": "Kneel."})
	assert.Equal(t, http.StatusBadGateway, w.Code)

	w = ts.do(t, http.MethodGet, base+"/chat", nil)
	require.Equal(t, http.StatusOK, w.Code)
	transcript := decode[TranscriptResponse](t, w)
	assert.Len(t, transcript.Messages, 1, "player message is kept")
	assert.Equal(t, 0, transcript.MessageCount)
}

func TestEventHandler_List(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/v1/events", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]EventSummary](t, w)
	assert.Len(t, list, 3)

	w = ts.do(t, http.MethodGet, "/v1/events/"+event.Brainwashing, nil)
	require.Equal(t, http.StatusOK, w.Code)
	def := decode[event.Definition](t, w)
	assert.Equal(t, "capture_intro", def.StartStep)

	w = ts.do(t, http.MethodGet, "/v1/events/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(t, http.MethodPost, "/v1/events", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestPCHandler(t *testing.T) {
	ts := newTestServer(t)
	ts.store.AddPCSpec("rook", &actor.PCSpec{ID: "rook", Name: "Rook", Pronouns: "he/him"})

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		wantBody   string
	}{
		{name: "list", method: http.MethodGet, path: "/v1/pcs", wantStatus: http.StatusOK, wantBody: `"name":"Rook"`},
		{name: "get", method: http.MethodGet, path: "/v1/pcs/rook", wantStatus: http.StatusOK, wantBody: "Rook"},
		{name: "not found", method: http.MethodGet, path: "/v1/pcs/ghost", wantStatus: http.StatusNotFound},
		{name: "traversal", method: http.MethodGet, path: "/v1/pcs/..", wantStatus: http.StatusBadRequest},
		{name: "method", method: http.MethodPost, path: "/v1/pcs", wantStatus: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/", nil)
			req.URL.Path = tt.path
			w := httptest.NewRecorder()
			NewPCHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), ts.store).ServeHTTP(w, req)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantBody != "" {
				assert.Contains(t, w.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestHealthHandler(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[HealthResponse](t, w)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "mock", resp.Components["model"])

	ts.store.SetPingError(errors.New("connection refused"))
	w = ts.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "unhealthy", decode[HealthResponse](t, w).Components["storage"])
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{sessions.ErrSessionNotFound, http.StatusNotFound},
		{storage.ErrNotFound, http.StatusNotFound},
		{sessions.ErrSessionBusy, http.StatusConflict},
		{engine.ErrNoChatPhase, http.StatusConflict},
		{engine.ErrEmptyMessage, http.StatusBadRequest},
		{engine.ErrMissingItem, http.StatusUnprocessableEntity},
		{engine.ErrGenerationFailed, http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
