package gen

import (
	"sort"

	"github.com/tuanknguyen/tablegen/schema"
)

// Engine is one generation-engine variant. Every operation is a pure
// function of the Config it was constructed with: re-running with identical
// inputs produces byte-identical output.
type Engine interface {
	// GenerateEntity renders one entity definition.
	GenerateEntity(e *schema.Entity) (string, error)
	// GenerateRepository renders one entity's data-access class.
	GenerateRepository(e *schema.Entity) (string, error)
	// GenerateAll writes the full project tree into outDir and returns
	// summary counts for the caller's reporting.
	GenerateAll(outDir string, includeExamples bool) (*Report, error)
}

// Constructor builds an engine variant from a checked Config.
type Constructor func(*Config) (Engine, error)

// Registry maps engine-variant identifiers to constructors. It is an
// explicit value constructed once at process start and passed by reference
// to whoever needs lookup; it is immutable after construction, so no
// locking is needed anywhere.
type Registry struct {
	ctors map[string]Constructor
}

// NewRegistry builds a registry from the given constructor set. The map is
// copied; later mutation of the argument does not affect the registry.
func NewRegistry(ctors map[string]Constructor) *Registry {
	copied := make(map[string]Constructor, len(ctors))
	for k, v := range ctors {
		copied[k] = v
	}
	return &Registry{ctors: copied}
}

// DefaultRegistry returns a registry with the built-in engine variants.
func DefaultRegistry() *Registry {
	return NewRegistry(map[string]Constructor{
		"standard": func(c *Config) (Engine, error) { return NewGenerator(c), nil },
	})
}

// New constructs the named engine variant. Unknown identifiers fail closed
// with a ConfigError listing the registered variants, before any file is
// written.
func (r *Registry) New(kind string, cfg *Config) (Engine, error) {
	ctor, ok := r.ctors[kind]
	if !ok {
		return nil, NewConfigError("Engine", kind, "unknown engine variant", r.Kinds()...)
	}
	return ctor(cfg)
}

// Kinds returns the registered variant identifiers, sorted.
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.ctors))
	for k := range r.ctors {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
