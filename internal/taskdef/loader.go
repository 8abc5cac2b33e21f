// Package taskdef loads task definitions from YAML files and resolves
// them by name for the composition orchestrator.
package taskdef

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"

	"github.com/kestrelworks/warden/pkg/models"
)

// LoadFile parses a single task definition. Loading fails closed: an
// unrecognized tier or malformed schema is an error, never a default.
func LoadFile(path string) (*models.TaskDefinition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read task definition: %w", err)
	}

	var def models.TaskDefinition
	if err := yaml.Unmarshal(raw, &def); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	if def.Name == "" {
		def.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return &def, nil
}

// LoadDir loads every .yaml/.yml file in a directory into a registry.
func LoadDir(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read task directory: %w", err)
	}

	reg := NewRegistry()
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		def, err := LoadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		if err := reg.Add(def); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// Registry resolves task definitions by name. Safe for concurrent use.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]*models.TaskDefinition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*models.TaskDefinition)}
}

// Add registers a definition. Duplicate names are an error.
func (r *Registry) Add(def *models.TaskDefinition) error {
	if def == nil {
		return fmt.Errorf("nil task definition")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.defs[def.Name]; exists {
		return fmt.Errorf("duplicate task definition %q", def.Name)
	}
	r.defs[def.Name] = def
	return nil
}

// Resolve returns the definition for a task name.
func (r *Registry) Resolve(name string) (*models.TaskDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.defs[name]
	return def, ok
}

// Names returns all registered task names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Replace swaps the registry contents for a freshly loaded set.
func (r *Registry) Replace(other *Registry) {
	other.mu.RLock()
	defs := make(map[string]*models.TaskDefinition, len(other.defs))
	for name, def := range other.defs {
		defs[name] = def
	}
	other.mu.RUnlock()

	r.mu.Lock()
	r.defs = defs
	r.mu.Unlock()
}
