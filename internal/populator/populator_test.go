package populator

import (
	"errors"
	"testing"

	"github.com/ankidote/ankidote/internal/ankerr"
	"github.com/ankidote/ankidote/internal/collection"
)

func newTestModel() *collection.Model {
	return &collection.Model{
		ID:   1,
		Name: "Basic",
		Fields: []collection.Field{
			{Name: "Front", Ordinal: 0},
			{Name: "Back", Ordinal: 1},
		},
	}
}

func TestRegistryHasBuiltins(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"copy-field", "concat-fields", "remove-brackets", "furigana", "jap-llm", "sanitize-html"} {
		if _, err := r.Get(name); err != nil {
			t.Errorf("expected builtin populator %q registered, got: %v", name, err)
		}
	}
}

func TestRegistryGetMissing(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("does-not-exist")
	if !errors.Is(err, ankerr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRegistryRegisterConflict(t *testing.T) {
	r := NewRegistry()
	err := r.Register(CopyFieldDescriptor())
	if !errors.Is(err, ankerr.ErrConflict) {
		t.Errorf("expected ErrConflict on duplicate registration, got %v", err)
	}
}

func TestCopyFieldPopulate(t *testing.T) {
	d := CopyFieldDescriptor()
	p, err := d.New(map[string]any{"source_field": "Front", "target_field": "Back"})
	if err != nil {
		t.Fatalf("constructing copy-field: %v", err)
	}
	note := &collection.Note{Fields: map[string]string{"Front": "hello"}}
	out, err := p.Populate(note)
	if err != nil {
		t.Fatalf("populate: %v", err)
	}
	if out["Back"] != "hello" {
		t.Errorf("expected Back=hello, got %q", out["Back"])
	}
}

func TestCopyFieldMissingSource(t *testing.T) {
	d := CopyFieldDescriptor()
	p, _ := d.New(map[string]any{"source_field": "Front", "target_field": "Back"})
	_, err := p.Populate(&collection.Note{Fields: map[string]string{}})
	if !errors.Is(err, ankerr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCopyFieldNoBatching(t *testing.T) {
	d := CopyFieldDescriptor()
	p, _ := d.New(map[string]any{"source_field": "Front", "target_field": "Back"})
	if p.SupportsBatching() {
		t.Error("copy-field must not support batching")
	}
	if _, err := p.PopulateBatch(nil); !errors.Is(err, ankerr.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput from PopulateBatch, got %v", err)
	}
}

func TestCopyFieldValidateMissingField(t *testing.T) {
	d := CopyFieldDescriptor()
	p, _ := d.New(map[string]any{"source_field": "Missing", "target_field": "Back"})
	if err := p.Validate(newTestModel()); !errors.Is(err, ankerr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestConcatFieldsPopulate(t *testing.T) {
	d := ConcatFieldsDescriptor()
	p, err := d.New(map[string]any{
		"source_fields": []string{"Front", "Back"},
		"target_field":  "Combined",
	})
	if err != nil {
		t.Fatalf("constructing concat-fields: %v", err)
	}
	note := &collection.Note{Fields: map[string]string{"Front": "hi", "Back": "bye"}}
	out, err := p.Populate(note)
	if err != nil {
		t.Fatalf("populate: %v", err)
	}
	if out["Combined"] != "hi bye" {
		t.Errorf("expected default-space-separated concat, got %q", out["Combined"])
	}
}

func TestConcatFieldsCustomSeparator(t *testing.T) {
	d := ConcatFieldsDescriptor()
	p, _ := d.New(map[string]any{
		"source_fields": []string{"Front", "Back"},
		"target_field":  "Combined",
		"separator":     "-",
	})
	note := &collection.Note{Fields: map[string]string{"Front": "hi", "Back": "bye"}}
	out, _ := p.Populate(note)
	if out["Combined"] != "hi-bye" {
		t.Errorf("expected hi-bye, got %q", out["Combined"])
	}
}

func TestConcatFieldsBatchSkipsIncompleteNotes(t *testing.T) {
	d := ConcatFieldsDescriptor()
	p, _ := d.New(map[string]any{
		"source_fields": []string{"Front", "Back"},
		"target_field":  "Combined",
	})
	notes := []*collection.Note{
		{ID: 1, Fields: map[string]string{"Front": "a", "Back": "b"}},
		{ID: 2, Fields: map[string]string{"Front": "c"}},
	}
	updates, err := p.PopulateBatch(notes)
	if err != nil {
		t.Fatalf("populate batch: %v", err)
	}
	if _, ok := updates[1]; !ok {
		t.Error("expected update for note 1")
	}
	if _, ok := updates[2]; ok {
		t.Error("expected note 2 to be skipped, not updated")
	}
}

func TestRemoveBracketsDefaultsTargetToSource(t *testing.T) {
	d := RemoveBracketsDescriptor()
	p, _ := d.New(map[string]any{"source_field": "Front"})
	note := &collection.Note{Fields: map[string]string{"Front": "word (reading)"}}
	out, err := p.Populate(note)
	if err != nil {
		t.Fatalf("populate: %v", err)
	}
	if out["Front"] != "word " {
		t.Errorf("expected brackets stripped, got %q", out["Front"])
	}
}

func TestRemoveBracketsMissingFieldSkipped(t *testing.T) {
	d := RemoveBracketsDescriptor()
	p, _ := d.New(map[string]any{"source_field": "Front"})
	out, err := p.Populate(&collection.Note{Fields: map[string]string{}})
	if err != nil {
		t.Fatalf("populate: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("expected no update for missing field, got %v", out)
	}
}

func TestFuriganaWrapsKanjiRuns(t *testing.T) {
	d := FuriganaDescriptor()
	p, err := d.New(map[string]any{"source_field": "Front", "target_field": "Furigana"})
	if err != nil {
		t.Fatalf("constructing furigana: %v", err)
	}
	note := &collection.Note{Fields: map[string]string{"Front": "日本語"}}
	out, err := p.Populate(note)
	if err != nil {
		t.Fatalf("populate: %v", err)
	}
	if out["Furigana"] != "日本語[日本語]" {
		t.Errorf("expected bracketed kanji run, got %q", out["Furigana"])
	}
}

func TestJapLLMRequiresAPIKey(t *testing.T) {
	d := JapLLMDescriptor()
	p, err := d.New(map[string]any{"source_field": "Front", "translation_field": "Translation", "api_key": ""})
	if err != nil {
		t.Fatalf("constructing jap-llm: %v", err)
	}
	_, err = p.Populate(&collection.Note{Fields: map[string]string{"Front": "日本語"}})
	if !errors.Is(err, ankerr.ErrExternal) {
		t.Errorf("expected ErrExternal without an api key, got %v", err)
	}
}

func TestJapLLMRequiresAtLeastOneTargetField(t *testing.T) {
	d := JapLLMDescriptor()
	_, err := d.New(map[string]any{"source_field": "Front"})
	if !errors.Is(err, ankerr.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSanitizeHTMLStripsScriptTags(t *testing.T) {
	d := SanitizeHTMLDescriptor()
	p, err := d.New(map[string]any{"source_field": "Front"})
	if err != nil {
		t.Fatalf("constructing sanitize-html: %v", err)
	}
	note := &collection.Note{Fields: map[string]string{"Front": "<b>bold</b><script>alert(1)</script>"}}
	out, err := p.Populate(note)
	if err != nil {
		t.Fatalf("populate: %v", err)
	}
	if out["Front"] != "<b>bold</b>" {
		t.Errorf("expected script tag stripped, got %q", out["Front"])
	}
}

func TestFactoryCreateFromArgs(t *testing.T) {
	f := &Factory{Registry: NewRegistry()}
	p, err := f.CreateFromArgs(map[string]any{
		"populator":     "copy-field",
		"source_field":  "Front",
		"target_field":  "Back",
	})
	if err != nil {
		t.Fatalf("creating from args: %v", err)
	}
	if p.Name() != "copy-field" {
		t.Errorf("expected copy-field, got %q", p.Name())
	}
}

func TestFactoryCreateFromArgsMissingName(t *testing.T) {
	f := &Factory{Registry: NewRegistry()}
	_, err := f.CreateFromArgs(map[string]any{"source_field": "Front"})
	if !errors.Is(err, ankerr.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestFactoryResolvesFileArgs(t *testing.T) {
	f := &Factory{
		Registry: NewRegistry(),
		LoadFile: func(path string) (string, error) {
			if path == "template.html" {
				return "<p>loaded</p>", nil
			}
			return "", errors.New("not found")
		},
	}
	p, err := f.Create("sanitize-html", map[string]any{"source_field": "file://template.html"})
	if err != nil {
		t.Fatalf("creating populator: %v", err)
	}
	if p.(*sanitizeHTMLPopulator).sourceField != "<p>loaded</p>" {
		t.Errorf("expected file contents substituted as source_field, got %q", p.(*sanitizeHTMLPopulator).sourceField)
	}
}
