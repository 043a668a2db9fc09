package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// FileConfig configures the JSON-file backend. Intended for local
// development; production deployments use env or vault.
type FileConfig struct {
	Path string
}

// FileProvider resolves secrets from a flat JSON object on disk. The file
// is read once at construction.
type FileProvider struct {
	path string
	data map[string]string
}

func NewFileProvider(cfg *FileConfig) (*FileProvider, error) {
	if cfg == nil || cfg.Path == "" {
		return nil, fmt.Errorf("secrets file path required")
	}

	raw, err := os.ReadFile(cfg.Path)
	if err != nil {
		return nil, err
	}

	var data map[string]string
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse %s: %w", cfg.Path, err)
	}

	return &FileProvider{path: cfg.Path, data: data}, nil
}

func (p *FileProvider) Name() string { return "file" }

func (p *FileProvider) Get(ctx context.Context, key string) (string, error) {
	val, ok := p.data[key]
	if !ok {
		return "", fmt.Errorf("key %s not in %s", key, p.path)
	}
	return val, nil
}
