package operation

import (
	"errors"
	"testing"

	"github.com/ankidote/ankidote/internal/ankerr"
	"github.com/ankidote/ankidote/internal/printer"
)

func captureConstructor(lastArgs *map[string]any) Constructor {
	return func(p printer.OperationPrinter, kwargs map[string]any) (Operation, error) {
		*lastArgs = kwargs
		return nil, nil
	}
}

func TestFactoryCreateFromArgsMergesConfigBeneathExplicit(t *testing.T) {
	var captured map[string]any
	reg := NewRegistry()
	_ = reg.Register(Entry{Name: "tag-notes", New: captureConstructor(&captured)})

	f := &Factory{
		Registry: reg,
		LoadConfig: func(path string) (map[string]any, error) {
			return map[string]any{"tag_prefix": "from-config", "pattern": "from-config-pattern"}, nil
		},
	}

	args := map[string]any{
		"operation":   "tag-notes",
		"config_file": "some-config",
		"pattern":     "explicit-pattern",
	}
	if _, err := f.CreateFromArgs(printer.NewMockPrinter(), args); err != nil {
		t.Fatalf("CreateFromArgs: %v", err)
	}
	if captured["pattern"] != "explicit-pattern" {
		t.Fatalf("expected explicit arg to win over config, got %v", captured["pattern"])
	}
	if captured["tag_prefix"] != "from-config" {
		t.Fatalf("expected config value to fill an absent key, got %v", captured["tag_prefix"])
	}
}

func TestFactoryCreateFromArgsRequiresOperationName(t *testing.T) {
	f := &Factory{Registry: NewRegistry()}
	if _, err := f.CreateFromArgs(printer.NewMockPrinter(), map[string]any{}); !errors.Is(err, ankerr.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for missing operation name, got %v", err)
	}
}

func TestFactoryResolvesFileArgs(t *testing.T) {
	var captured map[string]any
	reg := NewRegistry()
	_ = reg.Register(Entry{Name: "add-model", New: captureConstructor(&captured)})

	f := &Factory{
		Registry: reg,
		LoadFile: func(path string) (string, error) {
			if path != "template.html" {
				t.Fatalf("unexpected file path: %s", path)
			}
			return "{{Front}}", nil
		},
	}

	args := map[string]any{"operation": "add-model", "question_format": "file://template.html"}
	if _, err := f.CreateFromArgs(printer.NewMockPrinter(), args); err != nil {
		t.Fatalf("CreateFromArgs: %v", err)
	}
	if captured["question_format"] != "{{Front}}" {
		t.Fatalf("expected file:// argument to resolve to file contents, got %v", captured["question_format"])
	}
}
