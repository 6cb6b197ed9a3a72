package write

import (
	"errors"
	"testing"

	"github.com/ankidote/ankidote/internal/ankerr"
	"github.com/ankidote/ankidote/internal/collection"
	"github.com/ankidote/ankidote/internal/populator"
	"github.com/ankidote/ankidote/internal/printer"
)

func basicCollection() *collection.Collection {
	c := collection.New()
	c.Models[1] = &collection.Model{
		ID:   1,
		Name: "Basic",
		Fields: []collection.Field{
			{Name: "Front", Ordinal: 0},
			{Name: "Back", Ordinal: 1},
		},
		Templates: []collection.Template{{Name: "Card 1", Ordinal: 0}},
	}
	c.Notes[100] = &collection.Note{
		ID: 100, ModelID: 1,
		Fields: map[string]string{"Front": "hello", "Back": "world"},
		Tags:   []string{},
	}
	c.Decks[1] = &collection.Deck{ID: 1, Name: "Default"}
	c.Cards[200] = &collection.Card{ID: 200, NoteID: 100, DeckID: 1}
	return c
}

func mustConstruct(t *testing.T, op interface {
	Validate(*collection.Collection) error
}, coll *collection.Collection) {
	t.Helper()
	if err := op.Validate(coll); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestRenameFieldOperation(t *testing.T) {
	coll := basicCollection()
	op, err := NewRenameFieldOperation(printer.NewMockPrinter(), map[string]any{
		"old_field_name": "Front", "new_field_name": "Question",
	})
	if err != nil {
		t.Fatalf("construct: %v", err)
	}
	if err := op.Validate(coll); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	result, err := op.Execute()
	if err != nil || !result.Success {
		t.Fatalf("Execute: %v, %+v", err, result)
	}
	if coll.Models[1].FieldByName("Question") == nil {
		t.Fatal("expected field renamed to Question")
	}
	if _, ok := coll.Notes[100].Fields["Front"]; ok {
		t.Fatal("expected old field key removed from note")
	}
	if coll.Notes[100].Fields["Question"] != "hello" {
		t.Fatalf("expected note value carried over, got %q", coll.Notes[100].Fields["Question"])
	}
	if len(result.Changes) != 2 {
		t.Fatalf("expected 1 ModelUpdated + 1 NoteFieldsUpdated change, got %d", len(result.Changes))
	}
}

func TestRenameFieldOperationRejectsCollision(t *testing.T) {
	coll := basicCollection()
	op, _ := NewRenameFieldOperation(printer.NewMockPrinter(), map[string]any{
		"old_field_name": "Front", "new_field_name": "Back",
	})
	if err := op.Validate(coll); !errors.Is(err, ankerr.ErrConflict) {
		t.Fatalf("expected ErrConflict renaming onto an existing field, got %v", err)
	}
}

func TestRenameModelOperation(t *testing.T) {
	coll := basicCollection()
	op, _ := NewRenameModelOperation(printer.NewMockPrinter(), map[string]any{
		"old_model_name": "Basic", "new_model_name": "Vocabulary",
	})
	if err := op.Validate(coll); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	result, err := op.Execute()
	if err != nil || !result.Success {
		t.Fatalf("Execute: %v, %+v", err, result)
	}
	if coll.Models[1].Name != "Vocabulary" {
		t.Fatalf("expected model renamed, got %q", coll.Models[1].Name)
	}
}

func TestRenameModelOperationRejectsUnknownSource(t *testing.T) {
	coll := basicCollection()
	op, _ := NewRenameModelOperation(printer.NewMockPrinter(), map[string]any{
		"old_model_name": "Missing", "new_model_name": "Vocabulary",
	})
	if err := op.Validate(coll); !errors.Is(err, ankerr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAddFieldOperation(t *testing.T) {
	coll := basicCollection()
	op, _ := NewAddFieldOperation(printer.NewMockPrinter(), map[string]any{
		"model_name": "Basic", "field_name": "Notes",
	})
	if err := op.Validate(coll); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	result, err := op.Execute()
	if err != nil || !result.Success {
		t.Fatalf("Execute: %v, %+v", err, result)
	}
	if coll.Models[1].FieldByName("Notes") == nil {
		t.Fatal("expected new field added to model")
	}
	if v, ok := coll.Notes[100].Fields["Notes"]; !ok || v != "" {
		t.Fatalf("expected new field initialized empty on existing note, got %q, %v", v, ok)
	}
}

func TestAddFieldOperationRejectsDuplicate(t *testing.T) {
	coll := basicCollection()
	op, _ := NewAddFieldOperation(printer.NewMockPrinter(), map[string]any{
		"model_name": "Basic", "field_name": "Front",
	})
	if err := op.Validate(coll); !errors.Is(err, ankerr.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestAddModelOperation(t *testing.T) {
	coll := basicCollection()
	op, _ := NewAddModelOperation(printer.NewMockPrinter(), map[string]any{
		"model": "Cloze", "fields": []string{"Text", "Extra"},
		"template_name": "Cloze Card", "question_format": "{{cloze:Text}}",
		"answer_format": "{{cloze:Text}}{{Extra}}", "css": ".card {}",
	})
	if err := op.Validate(coll); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	result, err := op.Execute()
	if err != nil || !result.Success {
		t.Fatalf("Execute: %v, %+v", err, result)
	}
	m := coll.ModelByName("Cloze")
	if m == nil {
		t.Fatal("expected Cloze model to be created")
	}
	if len(m.Fields) != 2 || len(m.Templates) != 1 {
		t.Fatalf("unexpected model shape: %+v", m)
	}
}

func TestAddModelOperationRejectsDuplicateNameAndEmptyFields(t *testing.T) {
	coll := basicCollection()
	dup, _ := NewAddModelOperation(printer.NewMockPrinter(), map[string]any{
		"model": "Basic", "fields": []string{"A"}, "template_name": "x",
		"question_format": "x", "answer_format": "x", "css": "",
	})
	if err := dup.Validate(coll); !errors.Is(err, ankerr.ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate model name, got %v", err)
	}

	empty, _ := NewAddModelOperation(printer.NewMockPrinter(), map[string]any{
		"model": "New", "fields": []string{}, "template_name": "x",
		"question_format": "x", "answer_format": "x", "css": "",
	})
	if err := empty.Validate(coll); !errors.Is(err, ankerr.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty field list, got %v", err)
	}
}

func TestMigrateNotesOperation(t *testing.T) {
	coll := basicCollection()
	coll.Models[2] = &collection.Model{
		ID: 2, Name: "Vocabulary",
		Fields: []collection.Field{{Name: "Term"}, {Name: "Definition"}, {Name: "Notes"}},
	}
	op, _ := NewMigrateNotesOperation(printer.NewMockPrinter(), map[string]any{
		"model": "Basic", "target_model": "Vocabulary",
		"field_mapping": map[string]string{"Front": "Term", "Back": "Definition"},
	})
	if err := op.Validate(coll); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	result, err := op.Execute()
	if err != nil || !result.Success {
		t.Fatalf("Execute: %v, %+v", err, result)
	}
	migrated := coll.Notes[100]
	if migrated == nil || migrated.ModelID != 2 {
		t.Fatalf("expected note 100 migrated to model 2, got %+v", migrated)
	}
	if migrated.Fields["Term"] != "hello" || migrated.Fields["Definition"] != "world" {
		t.Fatalf("unexpected migrated fields: %+v", migrated.Fields)
	}
	if migrated.Fields["Notes"] != "" {
		t.Fatalf("expected unmapped target field initialized empty, got %q", migrated.Fields["Notes"])
	}
	if len(result.Changes) != 2 {
		t.Fatalf("expected 2 NoteMigrated changes (new + vacated identity), got %d", len(result.Changes))
	}
}

func TestMigrateNotesOperationRejectsNonInjectiveMapping(t *testing.T) {
	coll := basicCollection()
	coll.Models[2] = &collection.Model{ID: 2, Name: "Vocabulary", Fields: []collection.Field{{Name: "Term"}}}
	op, _ := NewMigrateNotesOperation(printer.NewMockPrinter(), map[string]any{
		"model": "Basic", "target_model": "Vocabulary",
		"field_mapping": map[string]string{"Front": "Term", "Back": "Term"},
	})
	if err := op.Validate(coll); !errors.Is(err, ankerr.ErrConflict) {
		t.Fatalf("expected ErrConflict for a non-injective field mapping, got %v", err)
	}
}

func TestMigrateNotesOperationRejectsUnknownField(t *testing.T) {
	coll := basicCollection()
	coll.Models[2] = &collection.Model{ID: 2, Name: "Vocabulary", Fields: []collection.Field{{Name: "Term"}}}
	op, _ := NewMigrateNotesOperation(printer.NewMockPrinter(), map[string]any{
		"model": "Basic", "target_model": "Vocabulary",
		"field_mapping": map[string]string{"Missing": "Term"},
	})
	if err := op.Validate(coll); !errors.Is(err, ankerr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown source field, got %v", err)
	}
}

func TestTagNotesOperation(t *testing.T) {
	coll := basicCollection()
	coll.Notes[100].Fields["Front"] = "Episode 7 vocabulary"
	op, _ := NewTagNotesOperation(printer.NewMockPrinter(), map[string]any{
		"model": "Basic", "source_field": "Front", "pattern": `Episode (\d+)`, "tag_prefix": "ep_",
	})
	if err := op.Validate(coll); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	result, err := op.Execute()
	if err != nil || !result.Success {
		t.Fatalf("Execute: %v, %+v", err, result)
	}
	found := false
	for _, tag := range coll.Notes[100].Tags {
		if tag == "ep_7" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected tag ep_7 added, got %v", coll.Notes[100].Tags)
	}
}

func TestTagNotesOperationRejectsPatternWithoutCaptureGroup(t *testing.T) {
	coll := basicCollection()
	op, _ := NewTagNotesOperation(printer.NewMockPrinter(), map[string]any{
		"model": "Basic", "source_field": "Front", "pattern": `Episode \d+`,
	})
	if err := op.Validate(coll); !errors.Is(err, ankerr.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for pattern without a capture group, got %v", err)
	}
}

func TestDivideDecksByTagsOperation(t *testing.T) {
	coll := basicCollection()
	coll.Notes[100].Tags = []string{"Episode_3"}
	coll.Notes[101] = &collection.Note{ID: 101, ModelID: 1, Fields: map[string]string{"Front": "a"}, Tags: []string{"Episode_9"}}
	coll.Cards[201] = &collection.Card{ID: 201, NoteID: 101, DeckID: 1}

	op, _ := NewDivideDecksByTagsOperation(printer.NewMockPrinter(), map[string]any{
		"source_deck": "Default", "tag_prefix": "Episode", "tag_pattern": `Episode_(\d+)`,
		"episodes_per_deck": 5,
	})
	if err := op.Validate(coll); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	result, err := op.Execute()
	if err != nil || !result.Success {
		t.Fatalf("Execute: %v, %+v", err, result)
	}

	d1 := coll.DeckByName("Default 1-5")
	d2 := coll.DeckByName("Default 6-10")
	if d1 == nil || d2 == nil {
		t.Fatalf("expected both episode-range decks to be created, decks=%+v", coll.Decks)
	}
	if coll.Cards[200].DeckID != d1.ID {
		t.Fatalf("expected card 200 moved to deck 1-5, got deck %d", coll.Cards[200].DeckID)
	}
	if coll.Cards[201].DeckID != d2.ID {
		t.Fatalf("expected card 201 moved to deck 6-10, got deck %d", coll.Cards[201].DeckID)
	}
}

func TestDivideDecksByTagsOperationRejectsNonPositiveEpisodesPerDeck(t *testing.T) {
	coll := basicCollection()
	op, _ := NewDivideDecksByTagsOperation(printer.NewMockPrinter(), map[string]any{
		"source_deck": "Default", "tag_prefix": "Episode", "tag_pattern": `Episode_(\d+)`,
		"episodes_per_deck": 0,
	})
	if err := op.Validate(coll); !errors.Is(err, ankerr.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for non-positive episodes_per_deck, got %v", err)
	}
}

func TestRemoveEmptyNotesOperation(t *testing.T) {
	coll := basicCollection()
	coll.Notes[100].Fields["Back"] = "   "
	op, _ := NewRemoveEmptyNotesOperation(printer.NewMockPrinter(), map[string]any{
		"model": "Basic", "field": "Back",
	})
	if err := op.Validate(coll); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	result, err := op.Execute()
	if err != nil || !result.Success {
		t.Fatalf("Execute: %v, %+v", err, result)
	}
	if _, ok := coll.Notes[100]; ok {
		t.Fatal("expected note 100 to be deleted")
	}
	if _, ok := coll.Cards[200]; ok {
		t.Fatal("expected card 200 to be deleted along with its note")
	}
	if len(result.Changes) != 2 {
		t.Fatalf("expected 1 CardDeleted + 1 NoteDeleted change, got %d", len(result.Changes))
	}
}

func TestRemoveEmptyNotesOperationKeepsNonEmptyNotes(t *testing.T) {
	coll := basicCollection()
	op, _ := NewRemoveEmptyNotesOperation(printer.NewMockPrinter(), map[string]any{
		"model": "Basic", "field": "Back",
	})
	if err := op.Validate(coll); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if _, err := op.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if _, ok := coll.Notes[100]; !ok {
		t.Fatal("expected non-empty note to survive")
	}
}

func TestPopulateFieldsOperationCopyField(t *testing.T) {
	coll := basicCollection()
	factory := &populator.Factory{Registry: populator.NewRegistry()}
	ctor := NewPopulateFieldsOperation(factory)
	op, err := ctor(printer.NewMockPrinter(), map[string]any{
		"model_name": "Basic", "populator": "copy-field", "source_field": "Front", "target_field": "Back",
	})
	if err != nil {
		t.Fatalf("construct: %v", err)
	}
	if err := op.Validate(coll); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	result, err := op.Execute()
	if err != nil || !result.Success {
		t.Fatalf("Execute: %v, %+v", err, result)
	}
	if coll.Notes[100].Fields["Back"] != "hello" {
		t.Fatalf("expected Back copied from Front, got %q", coll.Notes[100].Fields["Back"])
	}
}

func TestPopulateFieldsOperationRejectsModelWithNoNotes(t *testing.T) {
	coll := basicCollection()
	coll.Models[2] = &collection.Model{ID: 2, Name: "Empty", Fields: []collection.Field{{Name: "A"}, {Name: "B"}}}
	factory := &populator.Factory{Registry: populator.NewRegistry()}
	ctor := NewPopulateFieldsOperation(factory)
	op, err := ctor(printer.NewMockPrinter(), map[string]any{
		"model_name": "Empty", "populator": "copy-field", "source_field": "A", "target_field": "B",
	})
	if err != nil {
		t.Fatalf("construct: %v", err)
	}
	if err := op.Validate(coll); !errors.Is(err, ankerr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for a model with no notes, got %v", err)
	}
}
