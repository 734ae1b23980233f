package adapters

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"tenderwatch/internal/features/tenders/models"
)

// SourceAdapter is the capability the ingestion pipeline needs from a
// source: hand back the current raw records or fail. Site-specific
// extraction lives behind this interface and is opaque to the pipeline.
type SourceAdapter interface {
	Fetch(ctx context.Context, source *models.Source) ([]models.RawRecord, error)
}

// FetchFunc adapts a plain function to a SourceAdapter
type FetchFunc func(ctx context.Context, source *models.Source) ([]models.RawRecord, error)

// Fetch implements SourceAdapter
func (f FetchFunc) Fetch(ctx context.Context, source *models.Source) ([]models.RawRecord, error) {
	return f(ctx, source)
}

// Registry maps adapter names from the source table to implementations.
// It is constructed at startup and handed to the feature; there is no
// package-level registry.
type Registry struct {
	mutex    sync.RWMutex
	adapters map[string]SourceAdapter
}

// NewRegistry creates an empty adapter registry
func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[string]SourceAdapter),
	}
}

// Register adds an adapter under a name
func (r *Registry) Register(name string, adapter SourceAdapter) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.adapters[name]; exists {
		return fmt.Errorf("adapter %s already registered", name)
	}

	r.adapters[name] = adapter
	return nil
}

// Get retrieves an adapter by name
func (r *Registry) Get(name string) (SourceAdapter, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	adapter, exists := r.adapters[name]
	return adapter, exists
}

// Names returns all registered adapter names in stable order
func (r *Registry) Names() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
