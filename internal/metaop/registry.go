package metaop

import (
	"fmt"

	"github.com/ankidote/ankidote/internal/ankerr"
)

// RecipeRegistry maps recipe names to recipes, grounded on
// original_source/anki_terminal/metaops/recipe_registry.py.
type RecipeRegistry struct {
	recipes map[string]Recipe
}

// NewRecipeRegistry returns an empty RecipeRegistry.
func NewRecipeRegistry() *RecipeRegistry {
	return &RecipeRegistry{recipes: make(map[string]Recipe)}
}

// Register adds a recipe. Returns ErrConflict if the name is already
// registered.
func (r *RecipeRegistry) Register(recipe Recipe) error {
	if _, ok := r.recipes[recipe.Name()]; ok {
		return fmt.Errorf("recipe %q: %w", recipe.Name(), ankerr.ErrConflict)
	}
	r.recipes[recipe.Name()] = recipe
	return nil
}

// Get returns the recipe registered under name.
func (r *RecipeRegistry) Get(name string) (Recipe, error) {
	recipe, ok := r.recipes[name]
	if !ok {
		return nil, fmt.Errorf("recipe %q: %w", name, ankerr.ErrNotFound)
	}
	return recipe, nil
}

// All returns every registered recipe, keyed by name.
func (r *RecipeRegistry) All() map[string]Recipe {
	out := make(map[string]Recipe, len(r.recipes))
	for k, v := range r.recipes {
		out[k] = v
	}
	return out
}
