package metaop

import "github.com/ankidote/ankidote/internal/operation"

// BuildRegistry creates a RecipeRegistry seeded with one fundamental
// recipe per entry in opRegistry plus the built-in composite bundles,
// mirroring MetaOpManager.initialize.
func BuildRegistry(opRegistry *operation.Registry) (*RecipeRegistry, error) {
	recipes := NewRecipeRegistry()
	for _, e := range opRegistry.All() {
		if err := recipes.Register(FundamentalRecipeFromEntry(e)); err != nil {
			return nil, err
		}
	}
	for _, bundle := range builtinBundles(recipes) {
		if err := recipes.Register(bundle); err != nil {
			return nil, err
		}
	}
	return recipes, nil
}

// builtinBundles returns the composite recipes shipped out of the box.
// Each bundle resolves lazily against whatever fundamental recipes the
// caller already registered, so a bundle referencing an operation name
// that was never registered simply fails to resolve at use time rather
// than at build time.
func builtinBundles(recipes *RecipeRegistry) []Recipe {
	return []Recipe{
		removeBracketsAndEmptyNotesRecipe(recipes),
	}
}

// removeBracketsAndEmptyNotesRecipe chains populate-fields (using the
// remove-brackets populator) with remove-empty-notes, grounded on
// original_source/anki_terminal/metaops/bundles/remove_brackets_and_empty_notes.py.
func removeBracketsAndEmptyNotesRecipe(recipes *RecipeRegistry) Recipe {
	populate, populateErr := recipes.Get("populate-fields")
	remove, removeErr := recipes.Get("remove-empty-notes")
	if populateErr != nil || removeErr != nil {
		return &unresolvableRecipe{name: "remove-brackets-and-empty-notes"}
	}
	return &CompositeRecipe{
		RecipeName:        "remove-brackets-and-empty-notes",
		RecipeDescription: "Strip bracketed annotations from a field, then delete notes left empty",
		RecipeArguments: []operation.Argument{
			{Name: "model_name", Description: "Name of the model to operate on", Required: true},
			{Name: "field", Description: "Field to strip brackets from and require non-empty", Required: true},
		},
		Targets: []Target{
			{
				Recipe: populate,
				ArgMapping: map[string]string{
					"model_name": "model_name",
					"field":      "source_field",
				},
				StaticArgs: map[string]any{"populator": "remove-brackets"},
			},
			{
				Recipe: remove,
				ArgMapping: map[string]string{
					"model_name": "model",
					"field":      "field",
				},
			},
		},
	}
}

// unresolvableRecipe stands in for a bundle whose fundamental
// dependencies were not registered; IsFundamental reports false so any
// attempt to resolve it surfaces a clear "not composite" style error
// rather than silently producing zero operations.
type unresolvableRecipe struct {
	name string
}

func (r *unresolvableRecipe) Name() string        { return r.name }
func (r *unresolvableRecipe) Description() string { return "unavailable: required operations not registered" }
func (r *unresolvableRecipe) Arguments() []operation.Argument { return nil }
func (r *unresolvableRecipe) Readonly() bool      { return false }
func (r *unresolvableRecipe) IsFundamental() bool { return false }
