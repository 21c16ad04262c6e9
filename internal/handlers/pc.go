package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/jwebster45206/stage-engine/internal/storage"
	"github.com/jwebster45206/stage-engine/pkg/actor"
)

type PCSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Pronouns    string `json:"pronouns,omitempty"`
	Description string `json:"description,omitempty"`
}

type PCHandler struct {
	log     *slog.Logger
	storage storage.Storage
}

func NewPCHandler(log *slog.Logger, storage storage.Storage) *PCHandler {
	return &PCHandler{
		log:     log,
		storage: storage,
	}
}

func (h *PCHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, h.log, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if r.URL.Path == "/v1/pcs" || r.URL.Path == "/v1/pcs/" {
		h.ListPCs(w, r)
		return
	}
	h.handleGet(w, r)
}

// ListPCs lists all available PC files
func (h *PCHandler) ListPCs(w http.ResponseWriter, r *http.Request) {
	pcIDs, err := h.storage.ListPCs(r.Context())
	if err != nil {
		h.log.Error("Failed to list PCs", "error", err)
		writeError(w, h.log, http.StatusInternalServerError, "Failed to list PCs")
		return
	}

	pcList := make([]PCSummary, 0, len(pcIDs))
	for _, pcID := range pcIDs {
		spec, err := h.storage.GetPCSpec(r.Context(), pcID)
		if err != nil {
			h.log.Warn("Failed to load PC spec", "error", err, "id", pcID)
			continue
		}
		pcList = append(pcList, PCSummary{
			ID:          spec.ID,
			Name:        spec.Name,
			Pronouns:    spec.Pronouns,
			Description: spec.Description,
		})
	}
	writeJSON(w, h.log, http.StatusOK, pcList)
}

func (h *PCHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(strings.TrimPrefix(r.URL.Path, "/v1/pcs/"))
	if id == "" {
		writeError(w, h.log, http.StatusBadRequest, "PC ID is required in URL path (e.g., /v1/pcs/rook)")
		return
	}
	// Security: prevent directory traversal
	if strings.Contains(id, "..") || strings.Contains(id, "/") {
		writeError(w, h.log, http.StatusBadRequest, "Invalid PC ID")
		return
	}

	spec, err := h.storage.GetPCSpec(r.Context(), id)
	if err != nil {
		writeEngineError(w, h.log, err)
		return
	}

	// Build the PC so defaults (skills, HP) are filled in
	pc, err := actor.NewPCFromSpec(spec)
	if err != nil {
		h.log.Error("Failed to build PC from spec", "error", err, "id", id)
		writeError(w, h.log, http.StatusInternalServerError, "Failed to build PC")
		return
	}
	writeJSON(w, h.log, http.StatusOK, pc)
}
