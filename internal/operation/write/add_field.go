package write

import (
	"fmt"

	"github.com/ankidote/ankidote/internal/ankerr"
	"github.com/ankidote/ankidote/internal/changelog"
	"github.com/ankidote/ankidote/internal/collection"
	"github.com/ankidote/ankidote/internal/operation"
	"github.com/ankidote/ankidote/internal/printer"
)

// AddFieldOperation adds a new field to an existing model and initializes
// it (empty) on every note of that model, grounded on
// original_source/anki_terminal/ops/write/add_field.py.
type AddFieldOperation struct {
	operation.Base
}

// NewAddFieldOperation constructs an add-field operation.
func NewAddFieldOperation(p printer.OperationPrinter, kwargs map[string]any) (operation.Operation, error) {
	b, err := operation.NewBase("add-field", "Add a new field to an existing model", false,
		[]operation.Argument{
			{Name: "model_name", Description: "Name of the model to add the field to", Required: true},
			{Name: "field_name", Description: "Name of the new field to add", Required: true},
		}, p, kwargs)
	if err != nil {
		return nil, err
	}
	return &AddFieldOperation{Base: b}, nil
}

func (o *AddFieldOperation) Validate(coll *collection.Collection) error {
	if err := o.ValidateCommon(coll); err != nil {
		return err
	}
	modelName, _ := o.Args["model_name"].(string)
	model, err := o.GetModel(modelName)
	if err != nil {
		return err
	}
	fieldName, _ := o.Args["field_name"].(string)
	if model.FieldByName(fieldName) != nil {
		return fmt.Errorf("field %q already exists in model %q: %w", fieldName, model.Name, ankerr.ErrConflict)
	}
	return nil
}

func (o *AddFieldOperation) Execute() (operation.Result, error) {
	modelName, _ := o.Args["model_name"].(string)
	model, err := o.GetModel(modelName)
	if err != nil {
		return operation.Result{}, err
	}
	fieldName, _ := o.Args["field_name"].(string)

	model.Fields = append(model.Fields, collection.Field{
		Name: fieldName, Ordinal: len(model.Fields), Font: "Arial", FontSize: 20, PlainText: true,
	})

	var noteChanges []changelog.Change
	for _, n := range o.Collection.Notes {
		if n.ModelID != model.ID {
			continue
		}
		if n.Fields == nil {
			n.Fields = make(map[string]string)
		}
		n.Fields[fieldName] = ""
		noteChanges = append(noteChanges, changelog.NoteFieldsUpdatedChange(n.ID, model.ID, n.Fields))
	}

	changes := append([]changelog.Change{changelog.ModelUpdatedChange(o.Collection.Models)}, noteChanges...)
	return operation.Result{
		Success: true,
		Message: fmt.Sprintf("Added field '%s' to model '%s' successfully", fieldName, model.Name),
		Changes: changes,
	}, nil
}
