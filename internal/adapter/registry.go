package adapter

import (
	"fmt"
	"sync"

	"github.com/finchley-audio/auriga-core/internal/device"
)

// Factory binds a discovered device descriptor to a concrete adapter.
type Factory[T any] func(dev device.Descriptor, opts Options) (T, error)

// Registry maps device model names and adapter type names to factories
// for one adapter kind (streamer, media server or amplifier).
//
// Bindings resolve in two steps: an explicit type name (from configuration
// overrides) bypasses the model map entirely; otherwise the device's model
// name selects the factory. Registering the same model twice replaces the
// earlier factory, so overrides applied last win.
//
// All public methods are thread-safe.
type Registry[T any] struct {
	mu      sync.RWMutex
	byModel map[string]Factory[T]
	byType  map[string]Factory[T]
}

// NewRegistry creates an empty adapter registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{
		byModel: make(map[string]Factory[T]),
		byType:  make(map[string]Factory[T]),
	}
}

// Register adds a factory under its adapter type name and the given model
// names. A model already registered is remapped to this factory.
func (r *Registry[T]) Register(typeName string, factory Factory[T], models ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byType[typeName] = factory
	for _, m := range models {
		r.byModel[m] = factory
	}
}

// OverrideModel remaps a model name to the factory registered under the
// given adapter type name.
//
// Returns:
//   - error: ErrNoImplementation if no factory carries that type name
func (r *Registry[T]) OverrideModel(model, typeName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	factory, ok := r.byType[typeName]
	if !ok {
		return fmt.Errorf("%w: type %q", ErrNoImplementation, typeName)
	}
	r.byModel[model] = factory
	return nil
}

// Bind selects a factory for the device and invokes it.
//
// Parameters:
//   - dev: the resolved device descriptor
//   - typeName: explicit adapter type name, or "" to select by model
//   - opts: collaborators passed through to the factory
//
// Returns:
//   - T: the bound adapter
//   - error: ErrNoImplementation naming the unmatched type or model
func (r *Registry[T]) Bind(dev device.Descriptor, typeName string, opts Options) (T, error) {
	var zero T

	r.mu.RLock()
	var (
		factory Factory[T]
		ok      bool
	)
	if typeName != "" {
		factory, ok = r.byType[typeName]
	} else {
		factory, ok = r.byModel[dev.ModelName]
	}
	r.mu.RUnlock()

	if !ok {
		if typeName != "" {
			return zero, fmt.Errorf("%w: type %q", ErrNoImplementation, typeName)
		}
		return zero, fmt.Errorf("%w: model %q", ErrNoImplementation, dev.ModelName)
	}

	return factory(dev, opts)
}
