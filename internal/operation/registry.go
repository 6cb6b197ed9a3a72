package operation

import (
	"fmt"

	"github.com/ankidote/ankidote/internal/ankerr"
	"github.com/ankidote/ankidote/internal/printer"
)

// Constructor builds an Operation from a printer and a resolved kwargs
// map, mirroring op_class(printer=printer, **op_args) in
// original_source/anki_terminal/ops/operation_factory.py.
type Constructor func(p printer.OperationPrinter, kwargs map[string]any) (Operation, error)

// Entry is a registered operation's static metadata plus its constructor.
type Entry struct {
	Name        string
	Description string
	Readonly    bool
	Arguments   []Argument
	New         Constructor
}

// Registry maps operation names to entries, grounded on
// original_source/anki_terminal/ops/op_registry.py.
type Registry struct {
	entries map[string]Entry
}

// NewRegistry returns an empty Registry. Callers register operations
// explicitly (see cmd/ankictl for the full built-in set) rather than
// having the registry reach into every operation package itself, avoiding
// an import cycle between operation/read, operation/write, and
// internal/metaop.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

// Register adds an operation entry. Returns ErrConflict if the name is
// already registered, or ErrInvalidInput if the name is empty.
func (r *Registry) Register(e Entry) error {
	if e.Name == "" {
		return fmt.Errorf("registering operation: %w: operation must have a name", ankerr.ErrInvalidInput)
	}
	if _, ok := r.entries[e.Name]; ok {
		return fmt.Errorf("registering operation %q: %w", e.Name, ankerr.ErrConflict)
	}
	r.entries[e.Name] = e
	return nil
}

// Get returns the entry registered under name.
func (r *Registry) Get(name string) (Entry, error) {
	e, ok := r.entries[name]
	if !ok {
		return Entry{}, fmt.Errorf("operation %q: %w", name, ankerr.ErrNotFound)
	}
	return e, nil
}

// All returns every registered entry, keyed by name.
func (r *Registry) All() map[string]Entry {
	out := make(map[string]Entry, len(r.entries))
	for k, v := range r.entries {
		out[k] = v
	}
	return out
}
