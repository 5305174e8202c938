package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ncecere/logprobs/provider"
)

// Registry is a simple, provider-agnostic registry for scoring models.
//
// It maps string model identifiers (for example, "davinci" or
// "openai:text-davinci-003") to concrete provider implementations so
// that application code can look models up by name.
type Registry interface {
	// LogprobModel returns the registered model for the given name.
	// If no such model exists, a *NoSuchModelError is returned.
	LogprobModel(name string) (provider.LogprobModel, error)

	// RegisterLogprobModel registers or replaces a model under the given name.
	// Passing a nil model removes any existing registration for that name.
	RegisterLogprobModel(name string, model provider.LogprobModel)

	// Names returns the registered names in sorted order.
	Names() []string
}

// NoSuchModelError indicates that a requested model name was not
// found in the registry.
type NoSuchModelError struct {
	// Name is the model name that was requested.
	Name string
}

func (e *NoSuchModelError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("registry: no such logprob model %q", e.Name)
}

// InMemoryRegistry is a concurrency-safe in-memory implementation of Registry.
// It is suitable for typical application startup wiring where models are
// registered once and then used throughout the lifetime of the process.
type InMemoryRegistry struct {
	mu     sync.RWMutex
	models map[string]provider.LogprobModel
}

// Ensure InMemoryRegistry implements Registry.
var _ Registry = (*InMemoryRegistry)(nil)

// NewInMemoryRegistry creates a new empty in-memory registry.
func NewInMemoryRegistry() *InMemoryRegistry {
	return &InMemoryRegistry{
		models: make(map[string]provider.LogprobModel),
	}
}

// LogprobModel implements Registry.LogprobModel.
func (r *InMemoryRegistry) LogprobModel(name string) (provider.LogprobModel, error) {
	r.mu.RLock()
	model, ok := r.models[name]
	r.mu.RUnlock()
	if !ok || model == nil {
		return nil, &NoSuchModelError{Name: name}
	}
	return model, nil
}

// RegisterLogprobModel implements Registry.RegisterLogprobModel.
func (r *InMemoryRegistry) RegisterLogprobModel(name string, model provider.LogprobModel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if model == nil {
		delete(r.models, name)
		return
	}
	r.models[name] = model
}

// Names implements Registry.Names.
func (r *InMemoryRegistry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}
