// Package metaop implements the recipe/meta-operation layer of spec.md
// §4.8, grounded on original_source/anki_terminal/metaops/*. A recipe
// describes how a named operation resolves, either directly into a
// fundamental operation or into a list of other recipes; a MetaOp is a
// recipe bound to a concrete set of arguments.
package metaop

import "github.com/ankidote/ankidote/internal/operation"

// Target pairs a target recipe with the argument mapping from the
// composite recipe's arguments to the target recipe's arguments, plus
// any literal arguments the bundle fixes for that target regardless of
// the composite's own arguments (e.g. selecting which populator a
// chained populate-fields step uses).
type Target struct {
	Recipe     Recipe
	ArgMapping map[string]string
	StaticArgs map[string]any
}

// Recipe describes how a named operation resolves: either directly into
// a single fundamental operation, or into a list of target recipes.
// Grounded on metaop_recipe.py's MetaOpRecipe/FundamentalMetaOpRecipe/
// CompositeMetaOpRecipe hierarchy.
type Recipe interface {
	Name() string
	Description() string
	Arguments() []operation.Argument
	Readonly() bool
	IsFundamental() bool
}

// FundamentalRecipe maps one-to-one onto a registered operation
// constructor.
type FundamentalRecipe struct {
	OpName        string
	OpDescription string
	OpArguments   []operation.Argument
	OpReadonly    bool
	New           operation.Constructor
}

func (r *FundamentalRecipe) Name() string                    { return r.OpName }
func (r *FundamentalRecipe) Description() string             { return r.OpDescription }
func (r *FundamentalRecipe) Arguments() []operation.Argument { return r.OpArguments }
func (r *FundamentalRecipe) Readonly() bool                  { return r.OpReadonly }
func (r *FundamentalRecipe) IsFundamental() bool             { return true }

// FundamentalRecipeFromEntry builds a FundamentalRecipe from a
// registered operation entry, mirroring RecipeFactory.create_from_operation.
func FundamentalRecipeFromEntry(e operation.Entry) *FundamentalRecipe {
	return &FundamentalRecipe{
		OpName:        e.Name,
		OpDescription: e.Description,
		OpArguments:   e.Arguments,
		OpReadonly:    e.Readonly,
		New:           e.New,
	}
}

// CompositeRecipe resolves into a fixed list of target recipes, each
// fed a subset of the composite's own arguments through an
// ArgumentMapping.
type CompositeRecipe struct {
	RecipeName        string
	RecipeDescription string
	RecipeArguments   []operation.Argument
	Targets           []Target
}

func (r *CompositeRecipe) Name() string                    { return r.RecipeName }
func (r *CompositeRecipe) Description() string             { return r.RecipeDescription }
func (r *CompositeRecipe) Arguments() []operation.Argument { return r.RecipeArguments }
func (r *CompositeRecipe) IsFundamental() bool             { return false }

// Readonly of a composite recipe holds only if every target recipe is
// itself readonly.
func (r *CompositeRecipe) Readonly() bool {
	for _, t := range r.Targets {
		if !t.Recipe.Readonly() {
			return false
		}
	}
	return true
}
