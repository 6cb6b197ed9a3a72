package metaop

import (
	"fmt"

	"github.com/ankidote/ankidote/internal/ankerr"
	"github.com/ankidote/ankidote/internal/operation"
	"github.com/ankidote/ankidote/internal/printer"
)

// MetaOp adapts a recipe bound to concrete arguments, either resolving
// directly into an Operation or into a list of further MetaOps.
// Grounded on metaop.py's MetaOp/MetaOpFromRecipe/MetaOpFromOpInstance.
type MetaOp interface {
	Name() string
	IsFundamental() bool
	Resolve() ([]MetaOp, error)
	ResolveOp(p printer.OperationPrinter) (operation.Operation, error)
	Readonly() bool
}

// FromRecipe is a composite or fundamental meta operation built from a
// Recipe and a set of arguments.
type FromRecipe struct {
	Recipe Recipe
	Args   map[string]any
}

// NewFromRecipe validates that every required argument of the recipe is
// present in args before constructing the meta operation.
func NewFromRecipe(recipe Recipe, args map[string]any) (*FromRecipe, error) {
	for _, arg := range recipe.Arguments() {
		if arg.Required {
			if _, ok := args[arg.Name]; !ok {
				return nil, fmt.Errorf("argument %q is required: %w", arg.Name, ankerr.ErrInvalidInput)
			}
		}
	}
	return &FromRecipe{Recipe: recipe, Args: args}, nil
}

func (m *FromRecipe) Name() string        { return m.Recipe.Name() }
func (m *FromRecipe) IsFundamental() bool { return m.Recipe.IsFundamental() }
func (m *FromRecipe) Readonly() bool      { return m.Recipe.Readonly() }

// Resolve expands a composite meta operation into its target meta
// operations, mapping this meta operation's arguments onto each
// target's arguments per the recipe's ArgumentMapping.
func (m *FromRecipe) Resolve() ([]MetaOp, error) {
	composite, ok := m.Recipe.(*CompositeRecipe)
	if !ok {
		return nil, fmt.Errorf("meta operation %q is fundamental, cannot resolve into a list of other meta operations: %w", m.Name(), ankerr.ErrInvalidInput)
	}
	out := make([]MetaOp, 0, len(composite.Targets))
	for _, target := range composite.Targets {
		targetArgs := make(map[string]any, len(target.ArgMapping)+len(target.StaticArgs))
		for argName, targetArgName := range target.ArgMapping {
			targetArgs[targetArgName] = m.Args[argName]
		}
		for k, v := range target.StaticArgs {
			targetArgs[k] = v
		}
		child, err := NewFromRecipe(target.Recipe, targetArgs)
		if err != nil {
			return nil, err
		}
		out = append(out, child)
	}
	return out, nil
}

// ResolveOp builds the underlying Operation for a fundamental meta
// operation.
func (m *FromRecipe) ResolveOp(p printer.OperationPrinter) (operation.Operation, error) {
	fundamental, ok := m.Recipe.(*FundamentalRecipe)
	if !ok {
		return nil, fmt.Errorf("meta operation %q is composite, cannot resolve into a regular operation: %w", m.Name(), ankerr.ErrInvalidInput)
	}
	return fundamental.New(p, m.Args)
}

// FromOpInstance wraps an already-constructed Operation as a
// fundamental meta operation.
type FromOpInstance struct {
	Op operation.Operation
}

func (m *FromOpInstance) Name() string        { return m.Op.Name() }
func (m *FromOpInstance) IsFundamental() bool { return true }
func (m *FromOpInstance) Readonly() bool      { return m.Op.Readonly() }

func (m *FromOpInstance) Resolve() ([]MetaOp, error) {
	return nil, fmt.Errorf("meta operation %q is fundamental, cannot resolve into a list of other meta operations: %w", m.Name(), ankerr.ErrInvalidInput)
}

func (m *FromOpInstance) ResolveOp(p printer.OperationPrinter) (operation.Operation, error) {
	return m.Op, nil
}
