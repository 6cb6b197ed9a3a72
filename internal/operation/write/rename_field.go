// Package write implements the mutating operations of spec.md §4.4:
// add-model, add-field, rename-field, rename-model, migrate-notes,
// populate-fields, tag-notes, divide-decks-by-tags, remove-empty-notes.
package write

import (
	"fmt"

	"github.com/ankidote/ankidote/internal/ankerr"
	"github.com/ankidote/ankidote/internal/changelog"
	"github.com/ankidote/ankidote/internal/collection"
	"github.com/ankidote/ankidote/internal/operation"
	"github.com/ankidote/ankidote/internal/printer"
)

// RenameFieldOperation renames a field in a model and updates every note
// of that model, grounded on
// original_source/anki_terminal/ops/write/rename_field.py.
type RenameFieldOperation struct {
	operation.Base
}

// NewRenameFieldOperation constructs a rename-field operation.
func NewRenameFieldOperation(p printer.OperationPrinter, kwargs map[string]any) (operation.Operation, error) {
	b, err := operation.NewBase("rename-field", "Rename a field in a model and update all related notes", false,
		[]operation.Argument{
			{Name: "old_field_name", Description: "Current name of the field to rename", Required: true},
			{Name: "new_field_name", Description: "New name for the field", Required: true},
			{Name: "model", Description: "Name of the model containing the field", Required: false},
		}, p, kwargs)
	if err != nil {
		return nil, err
	}
	return &RenameFieldOperation{Base: b}, nil
}

func (o *RenameFieldOperation) Validate(coll *collection.Collection) error {
	if err := o.ValidateCommon(coll); err != nil {
		return err
	}
	modelName, _ := o.Args["model"].(string)
	model, err := o.GetModel(modelName)
	if err != nil {
		return err
	}
	oldName, _ := o.Args["old_field_name"].(string)
	newName, _ := o.Args["new_field_name"].(string)
	if model.FieldByName(oldName) == nil {
		return fmt.Errorf("field %q not found in model %q: %w", oldName, model.Name, ankerr.ErrNotFound)
	}
	if model.FieldByName(newName) != nil {
		return fmt.Errorf("field %q already exists in model %q: %w", newName, model.Name, ankerr.ErrConflict)
	}
	return nil
}

func (o *RenameFieldOperation) Execute() (operation.Result, error) {
	modelName, _ := o.Args["model"].(string)
	model, err := o.GetModel(modelName)
	if err != nil {
		return operation.Result{}, err
	}
	oldName, _ := o.Args["old_field_name"].(string)
	newName, _ := o.Args["new_field_name"].(string)

	for i := range model.Fields {
		if model.Fields[i].Name == oldName {
			model.Fields[i].Name = newName
			break
		}
	}

	var noteChanges []changelog.Change
	for _, n := range o.Collection.Notes {
		if n.ModelID != model.ID {
			continue
		}
		if v, ok := n.Fields[oldName]; ok {
			n.Fields[newName] = v
			delete(n.Fields, oldName)
		}
		noteChanges = append(noteChanges, changelog.NoteFieldsUpdatedChange(n.ID, model.ID, n.Fields))
	}

	changes := append([]changelog.Change{changelog.ModelUpdatedChange(o.Collection.Models)}, noteChanges...)
	msg := fmt.Sprintf("Renamed field '%s' to '%s' in model '%s'", oldName, newName, model.Name)
	return operation.Result{Success: true, Message: msg, Changes: changes}, nil
}
