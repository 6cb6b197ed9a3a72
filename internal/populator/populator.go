// Package populator implements the field-derivation plug-in framework of
// spec.md §4.5: a capability trait (FieldPopulator), a registry of
// constructors, and a factory that resolves config arguments (including
// file:// substitution) before construction.
package populator

import (
	"fmt"

	"github.com/ankidote/ankidote/internal/ankerr"
	"github.com/ankidote/ankidote/internal/collection"
)

// ConfigArgument describes one named, possibly-required, possibly-defaulted
// configuration key a populator accepts. Shape matches operation.Argument.
type ConfigArgument struct {
	Name        string
	Description string
	Required    bool
	Default     any
}

// FieldPopulator derives field values for notes of a given model. Contract
// mirrors spec.md §4.5.
type FieldPopulator interface {
	Name() string
	Description() string
	ConfigArguments() []ConfigArgument
	TargetFields() []string
	SupportsBatching() bool
	Validate(model *collection.Model) error
	Populate(note *collection.Note) (map[string]string, error)
	// PopulateBatch is only callable when SupportsBatching returns true. It
	// may skip notes whose required source fields are absent; it must not
	// abort the batch on a per-note error.
	PopulateBatch(notes []*collection.Note) (map[collection.Id]map[string]string, error)
}

// Constructor builds a FieldPopulator from a resolved configuration map.
type Constructor func(config map[string]any) (FieldPopulator, error)

// Descriptor is a populator's static metadata plus its constructor. Static
// metadata (name, description, config argument schema) is available
// without constructing an instance, since construction may fail on missing
// required config — metadata must not.
type Descriptor struct {
	Name        string
	Description string
	ConfigArgs  []ConfigArgument
	New         Constructor
}

// Registry maps populator names to descriptors.
type Registry struct {
	entries map[string]Descriptor
}

// NewRegistry returns a Registry pre-populated with every built-in
// populator: copy-field, concat-fields, remove-brackets, furigana, jap-llm,
// and the pack-grounded sanitize-html populator (see SPEC_FULL.md's
// DOMAIN STACK section).
func NewRegistry() *Registry {
	r := &Registry{entries: make(map[string]Descriptor)}
	for _, d := range []Descriptor{
		CopyFieldDescriptor(),
		ConcatFieldsDescriptor(),
		RemoveBracketsDescriptor(),
		FuriganaDescriptor(),
		JapLLMDescriptor(),
		SanitizeHTMLDescriptor(),
	} {
		if err := r.Register(d); err != nil {
			panic(fmt.Sprintf("populator registry: %v", err))
		}
	}
	return r
}

// Register adds a new populator descriptor. Returns ErrConflict if the
// name is already registered.
func (r *Registry) Register(d Descriptor) error {
	if _, ok := r.entries[d.Name]; ok {
		return fmt.Errorf("registering populator %q: %w", d.Name, ankerr.ErrConflict)
	}
	r.entries[d.Name] = d
	return nil
}

// Get returns the descriptor registered under name.
func (r *Registry) Get(name string) (Descriptor, error) {
	d, ok := r.entries[name]
	if !ok {
		return Descriptor{}, fmt.Errorf("populator %q: %w", name, ankerr.ErrNotFound)
	}
	return d, nil
}

// Names returns every registered populator name.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.entries))
	for n := range r.entries {
		out = append(out, n)
	}
	return out
}

// FileLoader resolves a file:// path to its text contents, used to expand
// file://-prefixed config values before construction, per spec.md §4.5.
type FileLoader func(path string) (string, error)

// Factory builds populator instances from raw argument maps, applying
// config-file merge and file:// substitution exactly as
// original_source/populators/populator_factory.py does.
type Factory struct {
	Registry   *Registry
	LoadFile   FileLoader
	LoadConfig func(path string) (map[string]any, error)
}

// Create builds a populator named name from config, after resolving any
// file://-prefixed string values in config to file contents.
func (f *Factory) Create(name string, config map[string]any) (FieldPopulator, error) {
	d, err := f.Registry.Get(name)
	if err != nil {
		return nil, err
	}
	resolved, err := f.resolveFileArgs(config)
	if err != nil {
		return nil, err
	}
	p, err := d.New(resolved)
	if err != nil {
		return nil, fmt.Errorf("constructing populator %q: %w: %v", name, ankerr.ErrInvalidInput, err)
	}
	return p, nil
}

// CreateFromArgs builds a populator from a flat CLI-style argument bundle
// containing a "populator" key, an optional "populator_config_file" key,
// and per-populator keys, mirroring
// original_source/populators/populator_factory.py:create_populator_from_args.
func (f *Factory) CreateFromArgs(args map[string]any) (FieldPopulator, error) {
	name, _ := args["populator"].(string)
	if name == "" {
		return nil, fmt.Errorf("creating populator: %w: populator name is required", ankerr.ErrInvalidInput)
	}
	d, err := f.Registry.Get(name)
	if err != nil {
		return nil, err
	}

	config := make(map[string]any)
	for _, carg := range d.ConfigArgs {
		if v, ok := args[carg.Name]; ok && v != nil {
			config[carg.Name] = v
		}
	}

	if cf, ok := args["populator_config_file"].(string); ok && cf != "" && f.LoadConfig != nil {
		fileConfig, err := f.LoadConfig(cf)
		if err != nil {
			return nil, fmt.Errorf("loading populator config file %q: %w", cf, err)
		}
		for k, v := range fileConfig {
			config[k] = v
		}
	}

	return f.Create(name, config)
}

func (f *Factory) resolveFileArgs(config map[string]any) (map[string]any, error) {
	if f.LoadFile == nil {
		return config, nil
	}
	out := make(map[string]any, len(config))
	for k, v := range config {
		if s, ok := v.(string); ok && len(s) > len("file://") && s[:7] == "file://" {
			contents, err := f.LoadFile(s[7:])
			if err != nil {
				return nil, fmt.Errorf("loading file for argument %q: %w", k, err)
			}
			out[k] = contents
			continue
		}
		out[k] = v
	}
	return out, nil
}

// ApplyDefaults fills any ConfigArgument default into config when the key
// is absent, and reports the first missing required argument.
func ApplyDefaults(args []ConfigArgument, config map[string]any) error {
	for _, a := range args {
		if _, ok := config[a.Name]; ok {
			continue
		}
		if a.Required {
			return fmt.Errorf("populator config: %w: missing required argument %q", ankerr.ErrInvalidInput, a.Name)
		}
		if a.Default != nil {
			config[a.Name] = a.Default
		}
	}
	return nil
}
