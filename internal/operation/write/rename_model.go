package write

import (
	"fmt"

	"github.com/ankidote/ankidote/internal/ankerr"
	"github.com/ankidote/ankidote/internal/changelog"
	"github.com/ankidote/ankidote/internal/collection"
	"github.com/ankidote/ankidote/internal/operation"
	"github.com/ankidote/ankidote/internal/printer"
)

// RenameModelOperation renames a model, grounded on
// original_source/anki_terminal/ops/write/rename_model.py.
type RenameModelOperation struct {
	operation.Base
}

// NewRenameModelOperation constructs a rename-model operation.
func NewRenameModelOperation(p printer.OperationPrinter, kwargs map[string]any) (operation.Operation, error) {
	b, err := operation.NewBase("rename-model", "Rename a model and update all related notes", false,
		[]operation.Argument{
			{Name: "old_model_name", Description: "Current name of the model to rename", Required: true},
			{Name: "new_model_name", Description: "New name for the model", Required: true},
		}, p, kwargs)
	if err != nil {
		return nil, err
	}
	return &RenameModelOperation{Base: b}, nil
}

func (o *RenameModelOperation) Validate(coll *collection.Collection) error {
	if err := o.ValidateCommon(coll); err != nil {
		return err
	}
	oldName, _ := o.Args["old_model_name"].(string)
	newName, _ := o.Args["new_model_name"].(string)
	if coll.ModelByName(oldName) == nil {
		return fmt.Errorf("model %q not found: %w", oldName, ankerr.ErrNotFound)
	}
	if coll.ModelByName(newName) != nil {
		return fmt.Errorf("model %q already exists: %w", newName, ankerr.ErrConflict)
	}
	return nil
}

func (o *RenameModelOperation) Execute() (operation.Result, error) {
	oldName, _ := o.Args["old_model_name"].(string)
	newName, _ := o.Args["new_model_name"].(string)
	model := o.Collection.ModelByName(oldName)
	model.Name = newName

	var noteChanges []changelog.Change
	for _, n := range o.Collection.Notes {
		if n.ModelID == model.ID {
			noteChanges = append(noteChanges, changelog.NoteFieldsUpdatedChange(n.ID, model.ID, n.Fields))
		}
	}

	changes := append([]changelog.Change{changelog.ModelUpdatedChange(o.Collection.Models)}, noteChanges...)
	return operation.Result{
		Success: true,
		Message: fmt.Sprintf("Renamed model '%s' to '%s'", oldName, newName),
		Changes: changes,
	}, nil
}
