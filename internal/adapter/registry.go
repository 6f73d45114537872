package adapter

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/amishk599/jobscout/internal/model"
)

// New builds the site adapter for source. Every entry of model.KnownSources
// has a case here.
func New(source model.Source, opts Options, logger *slog.Logger) (model.SourceAdapter, error) {
	switch source {
	case model.SourceLinkedIn:
		return NewLinkedInAdapter(opts, logger), nil
	case model.SourceIndeed:
		return NewIndeedAdapter(opts, logger), nil
	case model.SourceWeWorkRemotely:
		return NewWeWorkRemotelyAdapter(opts, logger), nil
	case model.SourceRemoteOK:
		return NewRemoteOKAdapter(opts, logger), nil
	default:
		return nil, &model.UnsupportedSourceError{Source: source}
	}
}

// Registry maps source identifiers to adapters. Adding a site means
// registering one more adapter; nothing else changes.
type Registry struct {
	mu       sync.RWMutex
	adapters map[model.Source]model.SourceAdapter
}

// NewRegistry creates a registry holding adapters, keyed by their Source().
func NewRegistry(adapters ...model.SourceAdapter) *Registry {
	r := &Registry{adapters: make(map[model.Source]model.SourceAdapter, len(adapters))}
	for _, a := range adapters {
		r.Register(a)
	}
	return r
}

// Register adds a, replacing any adapter already registered for its source.
func (r *Registry) Register(a model.SourceAdapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[a.Source()] = a
}

// Lookup returns the adapter for source, or *model.UnsupportedSourceError.
func (r *Registry) Lookup(source model.Source) (model.SourceAdapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[source]
	if !ok {
		return nil, &model.UnsupportedSourceError{Source: source}
	}
	return a, nil
}

// Sources returns the registered source identifiers in sorted order.
func (r *Registry) Sources() []model.Source {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sources := make([]model.Source, 0, len(r.adapters))
	for s := range r.adapters {
		sources = append(sources, s)
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i] < sources[j] })
	return sources
}
