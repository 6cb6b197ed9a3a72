package read

import (
	"fmt"
	"strings"

	"github.com/ankidote/ankidote/internal/collection"
	"github.com/ankidote/ankidote/internal/operation"
	"github.com/ankidote/ankidote/internal/printer"
)

// ListOperation lists Anki objects at the specified path, grounded on
// original_source/anki_terminal/ops/read/list_operation.py.
type ListOperation struct {
	pathBase
}

// NewListOperation constructs a list operation.
func NewListOperation(p printer.OperationPrinter, kwargs map[string]any) (operation.Operation, error) {
	pb, err := newPathBase("list", "List Anki objects at the specified path",
		[]operation.Argument{
			{Name: "limit", Description: "Maximum number of items to return (0 for all)", Required: false, Default: 0},
		}, p, kwargs)
	if err != nil {
		return nil, err
	}
	return &ListOperation{pathBase: pb}, nil
}

func (o *ListOperation) Validate(coll *collection.Collection) error {
	if err := o.validatePath(coll); err != nil {
		return err
	}
	if !o.Path.IsCollection() {
		return errPathNotCollection
	}
	return nil
}

func (o *ListOperation) Execute() (operation.Result, error) {
	switch o.Path.ObjectType {
	case "models":
		return o.listModels()
	case "fields":
		return o.listFields()
	case "templates":
		return o.listTemplates()
	case "cards":
		return o.listCards()
	case "notes":
		return o.listNotes()
	}
	return operation.Result{}, fmt.Errorf("list: unsupported path object type %q", o.Path.ObjectType)
}

func (o *ListOperation) listModels() (operation.Result, error) {
	var models []map[string]any
	for _, id := range modelIDs(o.Collection) {
		m := o.Collection.Models[id]
		typ := "Standard"
		if m.Type != 0 {
			typ = "Cloze"
		}
		models = append(models, map[string]any{"name": m.Name, "id": int64(id), "type": typ})
	}
	data := map[string]any{"models": models}
	o.Printer.PrintResult(data)
	return operation.Result{Success: true, Message: fmt.Sprintf("Listed %d models", len(models)), Data: data}, nil
}

func (o *ListOperation) listFields() (operation.Result, error) {
	model, err := o.GetModel(o.Path.ModelName)
	if err != nil {
		return operation.Result{}, err
	}
	var fields []map[string]any
	for _, f := range model.Fields {
		fields = append(fields, map[string]any{"name": f.Name, "type": "text"})
	}
	data := map[string]any{"fields": fields}
	o.Printer.PrintResult(data)
	return operation.Result{Success: true, Message: fmt.Sprintf("Listed %d fields from model '%s'", len(fields), model.Name), Data: data}, nil
}

func (o *ListOperation) listTemplates() (operation.Result, error) {
	model, err := o.GetModel(o.Path.ModelName)
	if err != nil {
		return operation.Result{}, err
	}
	var templates []map[string]any
	for _, t := range model.Templates {
		templates = append(templates, map[string]any{"name": t.Name, "ordinal": t.Ordinal})
	}
	data := map[string]any{"templates": templates}
	o.Printer.PrintResult(data)
	return operation.Result{Success: true, Message: fmt.Sprintf("Listed %d templates from model '%s'", len(templates), model.Name), Data: data}, nil
}

func (o *ListOperation) listCards() (operation.Result, error) {
	var cards []map[string]any
	var model *collection.Model
	if o.Path.ModelName != "" {
		m, err := o.GetModel(o.Path.ModelName)
		if err != nil {
			return operation.Result{}, err
		}
		model = m
	}
	for _, id := range cardIDs(o.Collection) {
		c := o.Collection.Cards[id]
		if model != nil {
			n := o.Collection.Notes[c.NoteID]
			if n == nil || n.ModelID != model.ID {
				continue
			}
		}
		cards = append(cards, map[string]any{"id": int64(id), "note_id": int64(c.NoteID)})
	}
	data := map[string]any{"cards": cards}
	o.Printer.PrintResult(data)
	return operation.Result{Success: true, Message: fmt.Sprintf("Listed %d cards", len(cards)), Data: data}, nil
}

func (o *ListOperation) listNotes() (operation.Result, error) {
	limit, _ := o.Args["limit"].(int)

	var model *collection.Model
	if o.Path.ModelName != "" {
		m, err := o.GetModel(o.Path.ModelName)
		if err != nil {
			return operation.Result{}, err
		}
		model = m
	}

	type entry struct {
		id    collection.Id
		note  *collection.Note
		model *collection.Model
	}
	var raw []entry
	for _, id := range noteIDs(o.Collection) {
		n := o.Collection.Notes[id]
		if model != nil {
			if n.ModelID != model.ID {
				continue
			}
			raw = append(raw, entry{id, n, model})
			continue
		}
		nm := o.Collection.Models[n.ModelID]
		if nm != nil {
			raw = append(raw, entry{id, n, nm})
		}
	}
	if limit > 0 && len(raw) > limit {
		raw = raw[:limit]
	}

	var notes []map[string]any
	for _, e := range raw {
		formatted := make(map[string]string, len(e.model.Fields))
		for _, f := range e.model.Fields {
			content := e.note.Fields[f.Name]
			content = truncate(content)
			content = strings.ReplaceAll(content, collection.FieldSeparator, " | ")
			formatted[f.Name] = content
		}
		notes = append(notes, map[string]any{
			"id": int64(e.id), "model": e.model.Name, "fields": formatted,
		})
	}

	data := map[string]any{"notes": notes}
	o.Printer.PrintResult(data)
	msg := fmt.Sprintf("Listed %d notes", len(notes))
	if limit > 0 {
		msg += fmt.Sprintf(" (limited to %d)", limit)
	}
	return operation.Result{Success: true, Message: msg, Data: data}, nil
}
