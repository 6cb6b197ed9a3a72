// Package operation implements the declarative operation contract of
// spec.md §4.3, grounded on
// original_source/anki_terminal/ops/op_base.py.
package operation

import (
	"fmt"

	"github.com/ankidote/ankidote/internal/ankerr"
	"github.com/ankidote/ankidote/internal/changelog"
	"github.com/ankidote/ankidote/internal/collection"
	"github.com/ankidote/ankidote/internal/printer"
)

// Argument describes one named, possibly-required, possibly-defaulted CLI
// or config-file argument an operation accepts.
type Argument struct {
	Name        string
	Description string
	Required    bool
	Default     any
}

// Result is what an operation execution produces.
type Result struct {
	Success bool
	Message string
	Data    map[string]any
	Changes []changelog.Change
}

// Operation is the capability trait every read and write operation
// implements.
type Operation interface {
	Name() string
	Description() string
	Readonly() bool
	Arguments() []Argument
	Validate(coll *collection.Collection) error
	Execute() (Result, error)
}

// Base provides the shared argument-processing, model/template lookup,
// and collection-holding behavior op_base.py's Operation class provides,
// for embedding by concrete operations.
type Base struct {
	OpName        string
	OpDescription string
	OpReadonly    bool
	OpArguments   []Argument
	Printer       printer.OperationPrinter

	Args       map[string]any
	Collection *collection.Collection
}

// NewBase processes kwargs against the argument list: required arguments
// must be present, optional ones get their default when absent.
func NewBase(name, description string, readonly bool, args []Argument, p printer.OperationPrinter, kwargs map[string]any) (Base, error) {
	if p == nil {
		p = printer.NewHumanReadablePrinter()
	}
	processed, err := processArgs(args, kwargs)
	if err != nil {
		return Base{}, err
	}
	return Base{
		OpName: name, OpDescription: description, OpReadonly: readonly,
		OpArguments: args, Printer: p, Args: processed,
	}, nil
}

func processArgs(args []Argument, kwargs map[string]any) (map[string]any, error) {
	var missing []string
	for _, a := range args {
		if a.Required {
			if _, ok := kwargs[a.Name]; !ok {
				missing = append(missing, a.Name)
			}
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("processing arguments: %w: missing required arguments %v", ankerr.ErrInvalidInput, missing)
	}
	out := make(map[string]any)
	for _, a := range args {
		if !a.Required && a.Default != nil {
			out[a.Name] = a.Default
		}
	}
	for k, v := range kwargs {
		out[k] = v
	}
	return out, nil
}

func (b *Base) Name() string            { return b.OpName }
func (b *Base) Description() string     { return b.OpDescription }
func (b *Base) Readonly() bool          { return b.OpReadonly }
func (b *Base) Arguments() []Argument   { return b.OpArguments }

// ValidateCommon performs the shared precondition checks op_base.py's
// validate() performs before delegating to an operation's own validation.
func (b *Base) ValidateCommon(coll *collection.Collection) error {
	if coll == nil {
		return fmt.Errorf("validating %s: %w: collection is nil", b.OpName, ankerr.ErrStateError)
	}
	if b.OpName == "" {
		return fmt.Errorf("validating operation: %w: operation name not set", ankerr.ErrStateError)
	}
	b.Collection = coll
	return nil
}

// GetModel returns a model by name, or the collection's only model when
// name is empty, mirroring op_base.py's _get_model.
func (b *Base) GetModel(name string) (*collection.Model, error) {
	if b.Collection == nil {
		return nil, fmt.Errorf("getting model: %w: collection not set", ankerr.ErrStateError)
	}
	if name != "" {
		m := b.Collection.ModelByName(name)
		if m == nil {
			return nil, fmt.Errorf("getting model %q: %w", name, ankerr.ErrNotFound)
		}
		return m, nil
	}
	if len(b.Collection.Models) == 1 {
		for _, m := range b.Collection.Models {
			return m, nil
		}
	}
	names := make([]string, 0, len(b.Collection.Models))
	for _, m := range b.Collection.Models {
		names = append(names, m.Name)
	}
	return nil, fmt.Errorf("getting model: %w: multiple models found, specify one: %v", ankerr.ErrInvalidInput, names)
}

// GetTemplate returns a template from a model by name, or the model's only
// template when name is empty, mirroring op_base.py's _get_template.
func (b *Base) GetTemplate(modelName, templateName string) (*collection.Model, *collection.Template, error) {
	model, err := b.GetModel(modelName)
	if err != nil {
		return nil, nil, err
	}
	if templateName != "" {
		t := model.TemplateByName(templateName)
		if t == nil {
			return nil, nil, fmt.Errorf("getting template %q: %w", templateName, ankerr.ErrNotFound)
		}
		return model, t, nil
	}
	if len(model.Templates) > 1 {
		names := make([]string, 0, len(model.Templates))
		for _, t := range model.Templates {
			names = append(names, t.Name)
		}
		return nil, nil, fmt.Errorf("getting template: %w: multiple templates found in model %s, specify one: %v", ankerr.ErrInvalidInput, model.Name, names)
	}
	if len(model.Templates) == 0 {
		return nil, nil, fmt.Errorf("getting template: %w: model %s has no templates", ankerr.ErrNotFound, model.Name)
	}
	return model, &model.Templates[0], nil
}
