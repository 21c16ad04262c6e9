package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jwebster45206/stage-engine/internal/sessions"
	"github.com/jwebster45206/stage-engine/internal/storage"
	"github.com/jwebster45206/stage-engine/pkg/engine"
)

const maxBodyBytes = 1 << 20

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, log *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, log *slog.Logger, status int, msg string) {
	writeJSON(w, log, status, ErrorResponse{Error: msg})
}

// writeEngineError maps a manager or engine error onto an HTTP status.
func writeEngineError(w http.ResponseWriter, log *slog.Logger, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error("Request failed", "error", err)
	} else {
		log.Debug("Request rejected", "status", status, "error", err)
	}
	writeError(w, log, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, sessions.ErrSessionNotFound),
		errors.Is(err, storage.ErrNotFound),
		errors.Is(err, engine.ErrUnknownEvent),
		errors.Is(err, engine.ErrUnknownAction),
		errors.Is(err, engine.ErrUnknownSubject):
		return http.StatusNotFound
	case errors.Is(err, sessions.ErrSessionBusy),
		errors.Is(err, engine.ErrNoActiveEvent),
		errors.Is(err, engine.ErrNoChatPhase),
		errors.Is(err, engine.ErrUnknownTarget),
		errors.Is(err, engine.ErrUnknownStep):
		return http.StatusConflict
	case errors.Is(err, engine.ErrEmptyMessage),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrUnknownChoice),
		errors.Is(err, engine.ErrMissingStep),
		errors.Is(err, engine.ErrMissingItem):
		return http.StatusUnprocessableEntity
	case errors.Is(err, engine.ErrGenerationFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

var errBadRequest = errors.New("bad request")

// decodeJSON reads a JSON body into v. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: invalid request body: %v", errBadRequest, err)
	}
	return nil
}

// pathSegments splits the path below prefix into its non-empty parts.
func pathSegments(path, prefix string) []string {
	rest := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if rest == "" {
		return nil
	}
	return strings.Split(rest, "/")
}
