package read

import (
	"fmt"

	"github.com/ankidote/ankidote/internal/collection"
	"github.com/ankidote/ankidote/internal/operation"
	"github.com/ankidote/ankidote/internal/printer"
)

// CountOperation counts Anki objects at the specified path, grounded on
// original_source/anki_terminal/ops/read/count_operation.py.
type CountOperation struct {
	pathBase
}

// NewCountOperation constructs a count operation.
func NewCountOperation(p printer.OperationPrinter, kwargs map[string]any) (operation.Operation, error) {
	pb, err := newPathBase("count", "Count Anki objects at the specified path", nil, p, kwargs)
	if err != nil {
		return nil, err
	}
	return &CountOperation{pathBase: pb}, nil
}

func (o *CountOperation) Validate(coll *collection.Collection) error {
	if err := o.validatePath(coll); err != nil {
		return err
	}
	if !o.Path.IsCollection() {
		return errPathNotCollection
	}
	return nil
}

func (o *CountOperation) Execute() (operation.Result, error) {
	switch o.Path.ObjectType {
	case "models":
		return o.countModels()
	case "fields":
		return o.countFields()
	case "templates":
		return o.countTemplates()
	case "cards":
		return o.countCards()
	case "notes":
		return o.countNotes()
	}
	return operation.Result{}, fmt.Errorf("count: unsupported path object type %q", o.Path.ObjectType)
}

func (o *CountOperation) countModels() (operation.Result, error) {
	count := len(o.Collection.Models)
	data := map[string]any{"count": count}
	o.Printer.PrintResult(data)
	return operation.Result{Success: true, Message: fmt.Sprintf("Counted %d models", count), Data: data}, nil
}

func (o *CountOperation) countFields() (operation.Result, error) {
	model, err := o.GetModel(o.Path.ModelName)
	if err != nil {
		return operation.Result{}, err
	}
	count := len(model.Fields)
	data := map[string]any{"count": count}
	o.Printer.PrintResult(data)
	return operation.Result{Success: true, Message: fmt.Sprintf("Counted %d fields in model '%s'", count, model.Name), Data: data}, nil
}

func (o *CountOperation) countTemplates() (operation.Result, error) {
	model, err := o.GetModel(o.Path.ModelName)
	if err != nil {
		return operation.Result{}, err
	}
	count := len(model.Templates)
	data := map[string]any{"count": count}
	o.Printer.PrintResult(data)
	return operation.Result{Success: true, Message: fmt.Sprintf("Counted %d templates in model '%s'", count, model.Name), Data: data}, nil
}

func (o *CountOperation) countCards() (operation.Result, error) {
	count := 0
	var model *collection.Model
	if o.Path.ModelName != "" {
		m, err := o.GetModel(o.Path.ModelName)
		if err != nil {
			return operation.Result{}, err
		}
		model = m
	}
	for _, c := range o.Collection.Cards {
		if model != nil {
			n := o.Collection.Notes[c.NoteID]
			if n == nil || n.ModelID != model.ID {
				continue
			}
		}
		count++
	}
	data := map[string]any{"count": count}
	o.Printer.PrintResult(data)
	return operation.Result{Success: true, Message: fmt.Sprintf("Counted %d cards", count), Data: data}, nil
}

func (o *CountOperation) countNotes() (operation.Result, error) {
	if o.Path.ModelName != "" {
		model, err := o.GetModel(o.Path.ModelName)
		if err != nil {
			return operation.Result{}, err
		}
		count := 0
		for _, n := range o.Collection.Notes {
			if n.ModelID == model.ID {
				count++
			}
		}
		data := map[string]any{"count": count}
		o.Printer.PrintResult(data)
		return operation.Result{Success: true, Message: fmt.Sprintf("Counted %d notes for model '%s'", count, model.Name), Data: data}, nil
	}

	counts := make(map[string]any)
	total := 0
	for _, id := range modelIDs(o.Collection) {
		m := o.Collection.Models[id]
		c := 0
		for _, n := range o.Collection.Notes {
			if n.ModelID == id {
				c++
			}
		}
		counts[m.Name] = c
		total += c
	}
	data := map[string]any{"total": total, "by_model": counts}
	o.Printer.PrintResult(data)
	return operation.Result{Success: true, Message: fmt.Sprintf("Counted %d notes across %d models", total, len(counts)), Data: data}, nil
}
