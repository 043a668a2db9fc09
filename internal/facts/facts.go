// Package facts defines the neutral "module import facts" input consumed by
// the analyzer. Facts are produced by an external extraction step (a language
// scanner, a manifest, a build-system export) and carry no source syntax.
package facts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ModuleFact describes one module discovered by the extraction step.
type ModuleFact struct {
	ID          string `json:"id" yaml:"id"`
	DisplayName string `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	Layer       string `json:"layer,omitempty" yaml:"layer,omitempty"`
}

// EdgeFact describes one directed dependency: From depends on To.
type EdgeFact struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
	Kind string `json:"kind,omitempty" yaml:"kind,omitempty"`
}

// FactSet is a complete snapshot of modules and edges for one analysis run.
type FactSet struct {
	Modules []ModuleFact `json:"modules" yaml:"modules"`
	Edges   []EdgeFact   `json:"edges" yaml:"edges"`
}

// Load reads a fact set from a JSON, YAML, or JSONL file, chosen by extension.
func Load(path string) (*FactSet, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return loadJSON(path)
	case ".yaml", ".yml":
		return loadYAML(path)
	case ".jsonl":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open facts file: %w", err)
		}
		defer f.Close()
		return ReadJSONL(f)
	default:
		return nil, fmt.Errorf("unsupported facts format: %s", filepath.Ext(path))
	}
}

func loadJSON(path string) (*FactSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read facts file: %w", err)
	}
	var fs FactSet
	if err := json.Unmarshal(data, &fs); err != nil {
		return nil, fmt.Errorf("parse facts JSON: %w", err)
	}
	return &fs, nil
}

func loadYAML(path string) (*FactSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read facts file: %w", err)
	}
	var fs FactSet
	if err := yaml.Unmarshal(data, &fs); err != nil {
		return nil, fmt.Errorf("parse facts YAML: %w", err)
	}
	return &fs, nil
}

func (f ModuleFact) String() string {
	if f.Layer != "" {
		return fmt.Sprintf("%s (layer=%s)", f.ID, f.Layer)
	}
	return f.ID
}

func (e EdgeFact) String() string {
	if e.Kind != "" {
		return fmt.Sprintf("%s -> %s [%s]", e.From, e.To, e.Kind)
	}
	return fmt.Sprintf("%s -> %s", e.From, e.To)
}
