package metaop

import (
	"fmt"

	"github.com/ankidote/ankidote/internal/ankerr"
	"github.com/ankidote/ankidote/internal/operation"
)

// Factory builds MetaOp instances from CLI-shaped argument bundles,
// merging config-file values beneath explicit arguments, grounded on
// original_source/anki_terminal/metaops/metaop_factory.py.
type Factory struct {
	RecipeRegistry *RecipeRegistry
	LoadConfig     operation.ConfigLoader
}

// NewFactory constructs a Factory bound to the given recipe registry.
func NewFactory(recipeRegistry *RecipeRegistry, loadConfig operation.ConfigLoader) *Factory {
	return &Factory{RecipeRegistry: recipeRegistry, LoadConfig: loadConfig}
}

// CreateFromArgs resolves the recipe named by args["operation"] and
// binds it to a merged argument map.
func (f *Factory) CreateFromArgs(args map[string]any) (MetaOp, error) {
	name, _ := args["operation"].(string)
	if name == "" {
		return nil, fmt.Errorf("creating meta operation: %w: operation name is required", ankerr.ErrInvalidInput)
	}
	recipe, err := f.RecipeRegistry.Get(name)
	if err != nil {
		return nil, err
	}

	opArgs := make(map[string]any, len(args))
	for k, v := range args {
		opArgs[k] = v
	}

	if cf, ok := opArgs["config_file"].(string); ok && cf != "" && f.LoadConfig != nil {
		config, err := f.LoadConfig(cf)
		if err != nil {
			return nil, fmt.Errorf("loading config file %q: %w", cf, err)
		}
		for k, v := range config {
			if existing, present := opArgs[k]; !present || existing == nil {
				opArgs[k] = v
			}
		}
	}

	return NewFromRecipe(recipe, opArgs)
}

// CreateFromOp wraps an already-validated Operation instance as a
// fundamental meta operation.
func (f *Factory) CreateFromOp(op operation.Operation) MetaOp {
	return &FromOpInstance{Op: op}
}
