package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jwebster45206/stage-engine/pkg/event"
)

// Event definition operations (filesystem-backed)

// ListEvents returns the ids of the definitions under <dataDir>/events.
func (r *RedisStorage) ListEvents(ctx context.Context) ([]string, error) {
	return listJSON(filepath.Join(r.dataDir, "events"))
}

// GetEvent reads and validates <dataDir>/events/<eventID>.json.
func (r *RedisStorage) GetEvent(ctx context.Context, eventID string) (*event.Definition, error) {
	path, err := resourcePath(r.dataDir, "events", eventID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("event %s: %w", eventID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read event file: %w", err)
	}

	def, err := ParseEvent(data, eventID)
	if err != nil {
		r.logger.Warn("Invalid event definition", "path", path, "error", err)
		return nil, fmt.Errorf("event %s: %w", eventID, err)
	}
	return def, nil
}

// ParseEvent decodes and validates one event definition. A missing id
// defaults to defaultID and step ids default to their map key.
func ParseEvent(data []byte, defaultID string) (*event.Definition, error) {
	var def event.Definition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	if def.ID == "" {
		def.ID = defaultID
	}
	for key, step := range def.Steps {
		if step.ID == "" {
			step.ID = key
			def.Steps[key] = step
		}
	}
	if err := event.Validate(&def); err != nil {
		return nil, err
	}
	return &def, nil
}

// resourcePath joins a resource id under dataDir/kind, refusing ids that
// would escape the directory.
func resourcePath(dataDir, kind, id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return "", fmt.Errorf("invalid %s id %q", strings.TrimSuffix(kind, "s"), id)
	}
	return filepath.Join(dataDir, kind, id+".json"), nil
}

func listJSON(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read %s directory: %w", filepath.Base(dir), err)
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".json" {
			ids = append(ids, strings.TrimSuffix(entry.Name(), ".json"))
		}
	}
	sort.Strings(ids)
	return ids, nil
}
