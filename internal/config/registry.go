package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/mzaiser/dictee/pkg/provider/llm"
	"github.com/mzaiser/dictee/pkg/provider/sentences"
)

// ErrNotRegistered is returned by Create* methods when no factory has been
// registered under the requested name.
var ErrNotRegistered = errors.New("config: factory not registered")

// Registry maps provider and source names to their constructor functions.
// It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	llm     map[string]func(ProviderEntry) (llm.Provider, error)
	sources map[SourceKind]func(SentencesConfig) (sentences.Source, error)
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{
		llm:     make(map[string]func(ProviderEntry) (llm.Provider, error)),
		sources: make(map[SourceKind]func(SentencesConfig) (sentences.Source, error)),
	}
}

// RegisterLLM registers an LLM provider factory under name.
// Subsequent calls with the same name overwrite the previous registration.
func (r *Registry) RegisterLLM(name string, factory func(ProviderEntry) (llm.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.llm[name] = factory
}

// RegisterSource registers a sentence-source factory under kind.
func (r *Registry) RegisterSource(kind SourceKind, factory func(SentencesConfig) (sentences.Source, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[kind] = factory
}

// CreateLLM instantiates an LLM provider using the factory registered under entry.Name.
// Returns [ErrNotRegistered] if no factory has been registered for that name.
func (r *Registry) CreateLLM(entry ProviderEntry) (llm.Provider, error) {
	r.mu.RLock()
	factory, ok := r.llm[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: llm/%q", ErrNotRegistered, entry.Name)
	}
	return factory(entry)
}

// CreateSource instantiates a sentence source using the factory registered
// under cfg.Source.
func (r *Registry) CreateSource(cfg SentencesConfig) (sentences.Source, error) {
	r.mu.RLock()
	factory, ok := r.sources[cfg.Source]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: source/%q", ErrNotRegistered, cfg.Source)
	}
	return factory(cfg)
}
