package read

import (
	"github.com/ankidote/ankidote/internal/collection"
	"github.com/ankidote/ankidote/internal/operation"
	"github.com/ankidote/ankidote/internal/printer"
)

// BirdsEyeViewOperation provides a summary of the collection: models with
// note counts, decks with card counts, and example notes per model.
// Grounded on
// original_source/anki_terminal/ops/read/birds_eye_view_operation.py.
type BirdsEyeViewOperation struct {
	operation.Base
}

// NewBirdsEyeViewOperation constructs a birds-eye-view operation.
func NewBirdsEyeViewOperation(p printer.OperationPrinter, kwargs map[string]any) (operation.Operation, error) {
	b, err := operation.NewBase("birds-eye-view", "Provide a birds-eye view of the Anki collection", true,
		[]operation.Argument{
			{Name: "show_empty_models", Description: "Whether to show models with no notes", Required: false, Default: false},
			{Name: "show_empty_decks", Description: "Whether to show decks with no cards", Required: false, Default: false},
			{Name: "example_count", Description: "Number of example notes to show per model", Required: false, Default: 3},
		}, p, kwargs)
	if err != nil {
		return nil, err
	}
	return &BirdsEyeViewOperation{Base: b}, nil
}

func (o *BirdsEyeViewOperation) Validate(coll *collection.Collection) error {
	return o.ValidateCommon(coll)
}

func (o *BirdsEyeViewOperation) Execute() (operation.Result, error) {
	data := map[string]any{
		"models":   o.modelsWithCounts(),
		"decks":    o.decksWithCounts(),
		"examples": o.exampleNotes(),
	}
	o.Printer.PrintResult(data)
	return operation.Result{Success: true, Message: "Birds-eye view of the collection", Data: data}, nil
}

func (o *BirdsEyeViewOperation) modelsWithCounts() map[string]any {
	showEmpty, _ := o.Args["show_empty_models"].(bool)
	out := make(map[string]any)
	for _, id := range modelIDs(o.Collection) {
		m := o.Collection.Models[id]
		count := 0
		for _, n := range o.Collection.Notes {
			if n.ModelID == id {
				count++
			}
		}
		if count == 0 && !showEmpty {
			continue
		}
		var fields, templates []string
		for _, f := range m.Fields {
			fields = append(fields, f.Name)
		}
		for _, t := range m.Templates {
			templates = append(templates, t.Name)
		}
		out[m.Name] = map[string]any{
			"id": int64(id), "note_count": count, "fields": fields, "templates": templates,
		}
	}
	return out
}

func (o *BirdsEyeViewOperation) decksWithCounts() map[string]any {
	showEmpty, _ := o.Args["show_empty_decks"].(bool)
	out := make(map[string]any)
	for _, id := range deckIDs(o.Collection) {
		d := o.Collection.Decks[id]
		count := 0
		for _, c := range o.Collection.Cards {
			if c.DeckID == id {
				count++
			}
		}
		if count == 0 && !showEmpty {
			continue
		}
		out[d.Name] = map[string]any{"id": int64(id), "card_count": count}
	}
	return out
}

func (o *BirdsEyeViewOperation) exampleNotes() map[string]any {
	exampleCount, ok := o.Args["example_count"].(int)
	if !ok {
		exampleCount = 3
	}
	out := make(map[string]any)
	for _, mid := range modelIDs(o.Collection) {
		m := o.Collection.Models[mid]
		var notes []*collection.Note
		for _, id := range noteIDs(o.Collection) {
			n := o.Collection.Notes[id]
			if n.ModelID == mid {
				notes = append(notes, n)
			}
		}
		if len(notes) == 0 {
			continue
		}
		if len(notes) > exampleCount {
			notes = notes[:exampleCount]
		}
		var examples []map[string]any
		for _, n := range notes {
			formatted := make(map[string]string, len(n.Fields))
			for name, content := range n.Fields {
				formatted[name] = truncate(content)
			}
			examples = append(examples, map[string]any{
				"id": int64(n.ID), "fields": formatted, "tags": n.Tags,
			})
		}
		out[m.Name] = examples
	}
	return out
}
