package write

import (
	"fmt"
	"strings"

	"github.com/ankidote/ankidote/internal/ankerr"
	"github.com/ankidote/ankidote/internal/changelog"
	"github.com/ankidote/ankidote/internal/collection"
	"github.com/ankidote/ankidote/internal/operation"
	"github.com/ankidote/ankidote/internal/printer"
)

// RemoveEmptyNotesOperation deletes notes (and their cards) whose given
// field is empty or whitespace-only, grounded on
// original_source/anki_terminal/ops/write/remove_empty_notes.py.
type RemoveEmptyNotesOperation struct {
	operation.Base
}

// NewRemoveEmptyNotesOperation constructs a remove-empty-notes operation.
func NewRemoveEmptyNotesOperation(p printer.OperationPrinter, kwargs map[string]any) (operation.Operation, error) {
	b, err := operation.NewBase("remove-empty-notes", "Remove notes where a given field is empty", false,
		[]operation.Argument{
			{Name: "model", Description: "Name of the model to check (defaults to the collection's only model)", Required: false, Default: ""},
			{Name: "field", Description: "Name of the field that must not be empty", Required: true},
		}, p, kwargs)
	if err != nil {
		return nil, err
	}
	return &RemoveEmptyNotesOperation{Base: b}, nil
}

func (o *RemoveEmptyNotesOperation) Validate(coll *collection.Collection) error {
	if err := o.ValidateCommon(coll); err != nil {
		return err
	}
	modelName, _ := o.Args["model"].(string)
	model, err := o.GetModel(modelName)
	if err != nil {
		return err
	}
	o.Args["model"] = model.Name

	fieldName, _ := o.Args["field"].(string)
	if model.FieldByName(fieldName) == nil {
		return fmt.Errorf("field %q not found in model: %w", fieldName, ankerr.ErrNotFound)
	}
	return nil
}

func (o *RemoveEmptyNotesOperation) Execute() (operation.Result, error) {
	modelName, _ := o.Args["model"].(string)
	model, err := o.GetModel(modelName)
	if err != nil {
		return operation.Result{}, err
	}
	fieldName, _ := o.Args["field"].(string)

	var emptyNotes []*collection.Note
	for _, n := range o.Collection.Notes {
		if n.ModelID != model.ID {
			continue
		}
		if strings.TrimSpace(n.Fields[fieldName]) == "" {
			emptyNotes = append(emptyNotes, n)
		}
	}

	var changes []changelog.Change
	removedCards, removedNotes := 0, 0

	for _, n := range emptyNotes {
		var cardsForNote []*collection.Card
		for _, c := range o.Collection.Cards {
			if c.NoteID == n.ID {
				cardsForNote = append(cardsForNote, c)
			}
		}
		for _, c := range cardsForNote {
			delete(o.Collection.Cards, c.ID)
			changes = append(changes, changelog.CardDeletedChange(c.ID))
			removedCards++
		}
		delete(o.Collection.Notes, n.ID)
		changes = append(changes, changelog.NoteDeletedChange(n.ID))
		removedNotes++
	}

	return operation.Result{
		Success: true,
		Message: fmt.Sprintf("Removed %d empty notes and %d associated cards", removedNotes, removedCards),
		Changes: changes,
	}, nil
}
