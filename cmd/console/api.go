package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"

	"github.com/google/uuid"

	"github.com/jwebster45206/stage-engine/pkg/actor"
	"github.com/jwebster45206/stage-engine/pkg/chat"
	"github.com/jwebster45206/stage-engine/pkg/conditioning"
	"github.com/jwebster45206/stage-engine/pkg/event"
	"github.com/jwebster45206/stage-engine/pkg/state"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// sessionView mirrors the API's session response.
type sessionView struct {
	State       *state.GameState   `json:"state"`
	ActiveEvent *event.ActiveEvent `json:"active_event,omitempty"`
	Step        *event.Step        `json:"step,omitempty"`
	Messages    []chat.Message     `json:"messages,omitempty"`
	CanEndChat  bool               `json:"can_end_chat"`
}

type eventResponse struct {
	Event *event.ActiveEvent `json:"event"`
	Step  *event.Step        `json:"step,omitempty"`
	Error string             `json:"error,omitempty"`
}

type actionsResponse struct {
	Conditioning int                         `json:"conditioning"`
	Actions      []conditioning.Availability `json:"actions"`
}

type pcSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type eventSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// apiClient talks to the stage-engine API.
type apiClient struct {
	client  *http.Client
	baseURL string
}

func (c *apiClient) testConnection() bool {
	resp, err := c.client.Get(c.baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

// call sends body as JSON and decodes the response into out. Any status in
// ok is a success; 422 responses are decoded into out as well and returned
// with their error text.
func (c *apiClient) call(method, path string, body, out any, ok ...int) error {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, r)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	for _, code := range ok {
		if resp.StatusCode == code {
			if out == nil || len(data) == 0 {
				return nil
			}
			if err := json.Unmarshal(data, out); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}
			return nil
		}
	}

	var errorResp ErrorResponse
	if err := json.Unmarshal(data, &errorResp); err != nil || errorResp.Error == "" {
		return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(data))
	}
	if resp.StatusCode == http.StatusUnprocessableEntity && out != nil {
		_ = json.Unmarshal(data, out)
	}
	return fmt.Errorf("%s", errorResp.Error)
}

func (c *apiClient) sessionPath(id uuid.UUID, rest string) string {
	return fmt.Sprintf("/v1/sessions/%s%s", id, rest)
}

func (c *apiClient) listPCs() ([]pcSummary, error) {
	var pcs []pcSummary
	if err := c.call(http.MethodGet, "/v1/pcs", nil, &pcs, http.StatusOK); err != nil {
		return nil, err
	}
	sort.Slice(pcs, func(i, j int) bool { return pcs[i].Name < pcs[j].Name })
	return pcs, nil
}

func (c *apiClient) listEvents() ([]eventSummary, error) {
	var events []eventSummary
	err := c.call(http.MethodGet, "/v1/events", nil, &events, http.StatusOK)
	return events, err
}

func (c *apiClient) createSession(pcID string) (*sessionView, error) {
	var view sessionView
	err := c.call(http.MethodPost, "/v1/sessions", map[string]string{"pc_id": pcID}, &view, http.StatusCreated)
	return &view, err
}

func (c *apiClient) getSession(id uuid.UUID) (*sessionView, error) {
	var view sessionView
	err := c.call(http.MethodGet, c.sessionPath(id, ""), nil, &view, http.StatusOK)
	return &view, err
}

func (c *apiClient) addSubject(id uuid.UUID, name string) (*actor.Subject, error) {
	var subj actor.Subject
	err := c.call(http.MethodPost, c.sessionPath(id, "/subjects"), map[string]string{"name": name}, &subj, http.StatusCreated)
	return &subj, err
}

func (c *apiClient) backstory(id uuid.UUID, name string) (string, error) {
	var resp struct {
		Backstory string `json:"backstory"`
	}
	err := c.call(http.MethodPost, c.sessionPath(id, "/subjects/"+name+"/backstory"), nil, &resp, http.StatusOK)
	return resp.Backstory, err
}

func (c *apiClient) startEvent(id uuid.UUID, eventID, target string) (*eventResponse, error) {
	var resp eventResponse
	err := c.call(http.MethodPost, c.sessionPath(id, "/event"),
		map[string]string{"event_id": eventID, "target": target}, &resp, http.StatusCreated)
	return &resp, err
}

func (c *apiClient) advance(id uuid.UUID, choiceID, force string) (*eventResponse, error) {
	var resp eventResponse
	err := c.call(http.MethodPost, c.sessionPath(id, "/event/advance"),
		map[string]string{"choice_id": choiceID, "force": force}, &resp, http.StatusOK)
	return &resp, err
}

func (c *apiClient) endEvent(id uuid.UUID) error {
	return c.call(http.MethodDelete, c.sessionPath(id, "/event"), nil, nil, http.StatusNoContent)
}

func (c *apiClient) actions(id uuid.UUID) (*actionsResponse, error) {
	var resp actionsResponse
	err := c.call(http.MethodGet, c.sessionPath(id, "/actions"), nil, &resp, http.StatusOK)
	return &resp, err
}

func (c *apiClient) execute(id uuid.UUID, actionID, force string) (*conditioning.Result, error) {
	var res conditioning.Result
	err := c.call(http.MethodPost, c.sessionPath(id, "/actions"),
		map[string]string{"action_id": actionID, "force": force}, &res, http.StatusOK)
	return &res, err
}

// chatCall posts to a chat endpoint; rest is "", "/regenerate" or "/swipe".
func (c *apiClient) chatCall(id uuid.UUID, rest string, body any) (*chat.ChatResponse, error) {
	var resp chat.ChatResponse
	err := c.call(http.MethodPost, c.sessionPath(id, "/chat"+rest), body, &resp, http.StatusOK)
	return &resp, err
}

func (c *apiClient) sendMessage(id uuid.UUID, text string) (*chat.ChatResponse, error) {
	return c.chatCall(id, "", chat.ChatRequest{SessionID: id, Message: text})
}

func (c *apiClient) chatPhase(id uuid.UUID, action string) error {
	return c.call(http.MethodPost, c.sessionPath(id, "/chat/"+action), nil, nil, http.StatusOK)
}

func (c *apiClient) summarize(id uuid.UUID) (string, error) {
	var resp struct {
		Summary string `json:"summary"`
	}
	err := c.call(http.MethodPost, c.sessionPath(id, "/chat/summarize"), nil, &resp, http.StatusOK)
	return resp.Summary, err
}
