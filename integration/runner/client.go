package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/jwebster45206/stage-engine/internal/handlers"
)

// call sends a JSON request and decodes the body into out when the status
// is one of the accepted codes. It returns the status either way.
func (r *Runner) call(ctx context.Context, method, path string, body, out any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.BaseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create %s request: %w", method, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.Client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}
	if out != nil && len(raw) > 0 && resp.StatusCode < http.StatusInternalServerError {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, raw, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return resp.StatusCode, raw, nil
}

func sessionPath(id uuid.UUID) string {
	return "/v1/sessions/" + id.String()
}

// createSession creates a session for the suite and seeds its subjects.
func (r *Runner) createSession(ctx context.Context, suite TestSuite) (uuid.UUID, error) {
	var view handlers.SessionView
	status, raw, err := r.call(ctx, http.MethodPost, "/v1/sessions", handlers.CreateSessionRequest{PCID: suite.PCID}, &view)
	if err != nil {
		return uuid.Nil, err
	}
	if status != http.StatusCreated {
		return uuid.Nil, fmt.Errorf("create session returned %d: %s", status, string(raw))
	}
	id := view.State.ID

	for _, subj := range suite.Subjects {
		status, raw, err := r.call(ctx, http.MethodPost, sessionPath(id)+"/subjects", subj, nil)
		if err != nil {
			return uuid.Nil, err
		}
		if status != http.StatusCreated {
			return uuid.Nil, fmt.Errorf("add subject %s returned %d: %s", subj.Name, status, string(raw))
		}
	}
	return id, nil
}

func (r *Runner) deleteSession(ctx context.Context, id uuid.UUID) error {
	status, raw, err := r.call(ctx, http.MethodDelete, sessionPath(id), nil, nil)
	if err != nil {
		return err
	}
	if status != http.StatusNoContent && status != http.StatusNotFound {
		return fmt.Errorf("delete session returned %d: %s", status, string(raw))
	}
	return nil
}

// GetSession retrieves the current session view
func (r *Runner) GetSession(ctx context.Context, id uuid.UUID) (*handlers.SessionView, error) {
	var view handlers.SessionView
	status, raw, err := r.call(ctx, http.MethodGet, sessionPath(id), nil, &view)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("get session returned %d: %s", status, string(raw))
	}
	return &view, nil
}
