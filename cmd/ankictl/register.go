package main

import (
	"fmt"
	"strings"

	"github.com/ankidote/ankidote/internal/operation"
	"github.com/ankidote/ankidote/internal/operation/read"
	"github.com/ankidote/ankidote/internal/operation/write"
	"github.com/ankidote/ankidote/internal/populator"
	"github.com/ankidote/ankidote/internal/printer"
)

// wrapWithFileResolution resolves any file://-prefixed string argument to
// its file contents before delegating to ctor, mirroring
// operation.Factory.resolveFileArgs for constructors invoked outside that
// factory (the metaop layer binds FundamentalRecipe.New directly).
func wrapWithFileResolution(loadFile operation.FileLoader, ctor operation.Constructor) operation.Constructor {
	return func(p printer.OperationPrinter, kwargs map[string]any) (operation.Operation, error) {
		resolved := make(map[string]any, len(kwargs))
		for k, v := range kwargs {
			s, ok := v.(string)
			if ok && strings.HasPrefix(s, "file://") && loadFile != nil {
				contents, err := loadFile(strings.TrimPrefix(s, "file://"))
				if err != nil {
					return nil, fmt.Errorf("resolving file argument %q: %w", k, err)
				}
				resolved[k] = contents
				continue
			}
			resolved[k] = v
		}
		return ctor(p, resolved)
	}
}

// buildOperationRegistry registers every built-in read and write
// operation, mirroring OperationRegistry's static set of registered
// operation classes in original_source/anki_terminal/ops/op_registry.py.
// Argument metadata here mirrors each operation's own Arguments() list so
// the registry can describe a CLI command without constructing an
// instance first.
func buildOperationRegistry(populatorFactory *populator.Factory, loadFile operation.FileLoader) (*operation.Registry, error) {
	reg := operation.NewRegistry()

	pathArg := operation.Argument{Name: "path", Description: "Path expression selecting models/fields/templates/cards/notes", Required: true}

	entries := []operation.Entry{
		{
			Name: "list", Description: "List models, fields, templates, cards, or notes", Readonly: true,
			Arguments: []operation.Argument{pathArg, {Name: "limit", Description: "Maximum number of items to list (0 = unlimited)", Required: false, Default: 0}},
			New:       wrapWithFileResolution(loadFile, read.NewListOperation),
		},
		{
			Name: "count", Description: "Count models, fields, templates, cards, or notes", Readonly: true,
			Arguments: []operation.Argument{pathArg},
			New:       wrapWithFileResolution(loadFile, read.NewCountOperation),
		},
		{
			Name: "get", Description: "Get detailed information about a specific model, field, template, CSS, or example note", Readonly: true,
			Arguments: []operation.Argument{pathArg},
			New:       wrapWithFileResolution(loadFile, read.NewGetOperation),
		},
		{
			Name: "birds-eye-view", Description: "Summarize the whole collection: models, decks, and example notes", Readonly: true,
			Arguments: []operation.Argument{
				{Name: "show_empty_models", Description: "Include models with zero notes", Required: false, Default: false},
				{Name: "show_empty_decks", Description: "Include decks with zero cards", Required: false, Default: false},
				{Name: "example_count", Description: "Number of example notes to include per model", Required: false, Default: 3},
			},
			New: wrapWithFileResolution(loadFile, read.NewBirdsEyeViewOperation),
		},
		{
			Name: "rename-field", Description: "Rename a field in a model and every note of that model", Readonly: false,
			Arguments: []operation.Argument{
				{Name: "old_field_name", Required: true},
				{Name: "new_field_name", Required: true},
				{Name: "model", Required: false, Default: ""},
			},
			New: wrapWithFileResolution(loadFile, write.NewRenameFieldOperation),
		},
		{
			Name: "rename-model", Description: "Rename a model", Readonly: false,
			Arguments: []operation.Argument{
				{Name: "old_model_name", Required: true},
				{Name: "new_model_name", Required: true},
			},
			New: wrapWithFileResolution(loadFile, write.NewRenameModelOperation),
		},
		{
			Name: "add-field", Description: "Add a new field to a model and every note of that model", Readonly: false,
			Arguments: []operation.Argument{
				{Name: "model_name", Required: true},
				{Name: "field_name", Required: true},
			},
			New: wrapWithFileResolution(loadFile, write.NewAddFieldOperation),
		},
		{
			Name: "add-model", Description: "Add a new model with the given fields and template", Readonly: false,
			Arguments: []operation.Argument{
				{Name: "model", Required: true},
				{Name: "fields", Required: true},
				{Name: "template_name", Required: true},
				{Name: "question_format", Required: true},
				{Name: "answer_format", Required: true},
				{Name: "css", Required: true},
			},
			New: wrapWithFileResolution(loadFile, write.NewAddModelOperation),
		},
		{
			Name: "migrate-notes", Description: "Migrate notes from one model to another with field mapping", Readonly: false,
			Arguments: []operation.Argument{
				{Name: "model", Required: true},
				{Name: "target_model", Required: true},
				{Name: "field_mapping", Required: true},
			},
			New: wrapWithFileResolution(loadFile, write.NewMigrateNotesOperation),
		},
		{
			Name: "populate-fields", Description: "Populate fields in notes using a field populator", Readonly: false,
			Arguments: []operation.Argument{
				{Name: "model_name", Required: true},
				{Name: "batch_size", Required: false, Default: 1},
			},
			New: wrapWithFileResolution(loadFile, write.NewPopulateFieldsOperation(populatorFactory)),
		},
		{
			Name: "tag-notes", Description: "Tag notes based on field data using a regular expression pattern", Readonly: false,
			Arguments: []operation.Argument{
				{Name: "model", Required: true},
				{Name: "source_field", Required: true},
				{Name: "pattern", Required: true},
				{Name: "tag_prefix", Required: false, Default: ""},
			},
			New: wrapWithFileResolution(loadFile, write.NewTagNotesOperation),
		},
		{
			Name: "divide-decks-by-tags", Description: "Divide cards into multiple decks based on note tags", Readonly: false,
			Arguments: []operation.Argument{
				{Name: "source_deck", Required: true},
				{Name: "tag_prefix", Required: true},
				{Name: "tag_pattern", Required: true},
				{Name: "episodes_per_deck", Required: true},
				{Name: "target_deck_prefix", Required: false, Default: ""},
			},
			New: wrapWithFileResolution(loadFile, write.NewDivideDecksByTagsOperation),
		},
		{
			Name: "remove-empty-notes", Description: "Remove notes where a given field is empty", Readonly: false,
			Arguments: []operation.Argument{
				{Name: "model", Required: false, Default: ""},
				{Name: "field", Required: true},
			},
			New: wrapWithFileResolution(loadFile, write.NewRemoveEmptyNotesOperation),
		},
	}

	for _, e := range entries {
		if err := reg.Register(e); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
