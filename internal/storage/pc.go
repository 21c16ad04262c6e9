package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jwebster45206/stage-engine/pkg/actor"
)

// PC operations (filesystem-backed, returns PCSpec only)

func (r *RedisStorage) GetPCSpec(ctx context.Context, pcID string) (*actor.PCSpec, error) {
	path, err := resourcePath(r.dataDir, "pcs", pcID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("pc %s: %w", pcID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read PC file: %w", err)
	}

	var spec actor.PCSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal PC spec: %w", err)
	}

	// Ensure ID is set from the parameter
	spec.ID = pcID
	return &spec, nil
}

func (r *RedisStorage) ListPCs(ctx context.Context) ([]string, error) {
	return listJSON(filepath.Join(r.dataDir, "pcs"))
}
