package write

import (
	"fmt"

	"github.com/ankidote/ankidote/internal/ankerr"
	"github.com/ankidote/ankidote/internal/changelog"
	"github.com/ankidote/ankidote/internal/collection"
	"github.com/ankidote/ankidote/internal/operation"
	"github.com/ankidote/ankidote/internal/populator"
	"github.com/ankidote/ankidote/internal/printer"
)

// PopulateFieldsOperation derives field values for notes of a model using
// a registered FieldPopulator, grounded on
// original_source/anki_terminal/ops/write/populate_fields.py.
type PopulateFieldsOperation struct {
	operation.Base
	Factory   *populator.Factory
	populator populator.FieldPopulator
}

// NewPopulateFieldsOperation constructs a populate-fields operation. The
// factory is required since the set of populators is pluggable and owned
// by the caller (mirrors PopulatorFactory being a class attribute shared
// across instances in populate_fields.py).
func NewPopulateFieldsOperation(factory *populator.Factory) func(printer.OperationPrinter, map[string]any) (operation.Operation, error) {
	return func(p printer.OperationPrinter, kwargs map[string]any) (operation.Operation, error) {
		b, err := operation.NewBase("populate-fields", "Populate fields in notes using a field populator", false,
			[]operation.Argument{
				{Name: "model_name", Description: "Name of the model to populate fields in", Required: true},
				{Name: "batch_size", Description: "Size of batches to process notes in", Required: false, Default: 1},
			}, p, kwargs)
		if err != nil {
			return nil, err
		}
		return &PopulateFieldsOperation{Base: b, Factory: factory}, nil
	}
}

func (o *PopulateFieldsOperation) Validate(coll *collection.Collection) error {
	if err := o.ValidateCommon(coll); err != nil {
		return err
	}
	modelName, _ := o.Args["model_name"].(string)
	model, err := o.GetModel(modelName)
	if err != nil {
		return err
	}

	p, err := o.Factory.CreateFromArgs(o.Args)
	if err != nil {
		return err
	}
	if err := p.Validate(model); err != nil {
		return err
	}
	o.populator = p

	hasNotes := false
	for _, n := range coll.Notes {
		if n.ModelID == model.ID {
			hasNotes = true
			break
		}
	}
	if !hasNotes {
		return fmt.Errorf("no notes found for model: %s: %w", modelName, ankerr.ErrNotFound)
	}

	batchSize, _ := o.Args["batch_size"].(int)
	if batchSize > 1 && !p.SupportsBatching() {
		return fmt.Errorf("populator %q does not support batch operations: %w", p.Name(), ankerr.ErrInvalidInput)
	}
	return nil
}

func (o *PopulateFieldsOperation) Execute() (operation.Result, error) {
	modelName, _ := o.Args["model_name"].(string)
	model, err := o.GetModel(modelName)
	if err != nil {
		return operation.Result{}, err
	}
	if o.populator == nil {
		return operation.Result{}, fmt.Errorf("populator not initialized, call Validate first: %w", ankerr.ErrStateError)
	}

	var modelNotes []*collection.Note
	for _, n := range o.Collection.Notes {
		if n.ModelID == model.ID {
			modelNotes = append(modelNotes, n)
		}
	}

	var changes []changelog.Change
	updated, skipped := 0, 0

	batchSize, _ := o.Args["batch_size"].(int)
	if batchSize > 1 && o.populator.SupportsBatching() {
		for i := 0; i < len(modelNotes); i += batchSize {
			end := i + batchSize
			if end > len(modelNotes) {
				end = len(modelNotes)
			}
			batch := modelNotes[i:end]
			results, err := o.populator.PopulateBatch(batch)
			if err != nil {
				skipped += len(batch)
				continue
			}
			byID := make(map[collection.Id]*collection.Note, len(batch))
			for _, n := range batch {
				byID[n.ID] = n
			}
			for noteID, fieldUpdates := range results {
				n := byID[noteID]
				if n == nil {
					continue
				}
				for k, v := range fieldUpdates {
					n.Fields[k] = v
				}
				changes = append(changes, changelog.NoteFieldsUpdatedChange(n.ID, model.ID, n.Fields))
				updated++
			}
		}
	} else {
		for _, n := range modelNotes {
			fieldUpdates, err := o.populator.Populate(n)
			if err != nil {
				skipped++
				continue
			}
			for k, v := range fieldUpdates {
				n.Fields[k] = v
			}
			changes = append(changes, changelog.NoteFieldsUpdatedChange(n.ID, model.ID, n.Fields))
			updated++
		}
	}

	return operation.Result{
		Success: true,
		Message: fmt.Sprintf("Updated %d notes, skipped %d notes", updated, skipped),
		Changes: changes,
	}, nil
}
