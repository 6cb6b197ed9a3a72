package write

import (
	"fmt"

	"github.com/ankidote/ankidote/internal/ankerr"
	"github.com/ankidote/ankidote/internal/changelog"
	"github.com/ankidote/ankidote/internal/collection"
	"github.com/ankidote/ankidote/internal/operation"
	"github.com/ankidote/ankidote/internal/printer"
)

// AddModelOperation creates a new model with the given fields and a
// single template, grounded on
// original_source/anki_terminal/ops/write/add_model.py.
type AddModelOperation struct {
	operation.Base
}

// NewAddModelOperation constructs an add-model operation.
func NewAddModelOperation(p printer.OperationPrinter, kwargs map[string]any) (operation.Operation, error) {
	b, err := operation.NewBase("add-model", "Add a new model with the given fields and template", false,
		[]operation.Argument{
			{Name: "model", Description: "Name of the model to create", Required: true},
			{Name: "fields", Description: "List of field names for the model", Required: true},
			{Name: "template_name", Description: "Name of the template", Required: true},
			{Name: "question_format", Description: "Format string for the question side", Required: true},
			{Name: "answer_format", Description: "Format string for the answer side", Required: true},
			{Name: "css", Description: "CSS styling for the cards", Required: true},
		}, p, kwargs)
	if err != nil {
		return nil, err
	}
	return &AddModelOperation{Base: b}, nil
}

func (o *AddModelOperation) fieldNames() ([]string, error) {
	switch v := o.Args["fields"].(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("field list must contain only strings: %w", ankerr.ErrInvalidInput)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("fields must be a list of strings: %w", ankerr.ErrInvalidInput)
	}
}

func (o *AddModelOperation) Validate(coll *collection.Collection) error {
	if err := o.ValidateCommon(coll); err != nil {
		return err
	}
	name, _ := o.Args["model"].(string)
	if coll.ModelByName(name) != nil {
		return fmt.Errorf("model %q already exists: %w", name, ankerr.ErrConflict)
	}
	fields, err := o.fieldNames()
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		return fmt.Errorf("at least one field is required: %w", ankerr.ErrInvalidInput)
	}
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if seen[f] {
			return fmt.Errorf("field names must be unique: %w", ankerr.ErrInvalidInput)
		}
		seen[f] = true
	}
	return nil
}

func (o *AddModelOperation) Execute() (operation.Result, error) {
	name, _ := o.Args["model"].(string)
	css, _ := o.Args["css"].(string)
	templateName, _ := o.Args["template_name"].(string)
	questionFormat, _ := o.Args["question_format"].(string)
	answerFormat, _ := o.Args["answer_format"].(string)
	fieldNames, _ := o.fieldNames()

	modelID := o.Collection.NextModelID()
	model := &collection.Model{
		ID: modelID, Name: name, CSS: css, DeckID: 1, Type: 0, USN: -1,
		LatexPre: collection.DefaultLatexPre, LatexPost: collection.DefaultLatexPost,
		Required: collection.DefaultRequired(),
	}
	for i, fn := range fieldNames {
		model.Fields = append(model.Fields, collection.Field{Name: fn, Ordinal: i})
	}
	deckOverride := collection.Id(1)
	model.Templates = append(model.Templates, collection.Template{
		Name: templateName, QuestionFormat: questionFormat, AnswerFormat: answerFormat,
		Ordinal: 0, DeckOverride: &deckOverride,
	})

	o.Collection.Models[modelID] = model

	change := changelog.ModelUpdatedChange(o.Collection.Models)
	return operation.Result{
		Success: true,
		Message: fmt.Sprintf("Added model '%s' with %d fields and 1 template", model.Name, len(model.Fields)),
		Changes: []changelog.Change{change},
	}, nil
}
