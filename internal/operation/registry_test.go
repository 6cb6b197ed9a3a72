package operation

import (
	"errors"
	"testing"

	"github.com/ankidote/ankidote/internal/ankerr"
	"github.com/ankidote/ankidote/internal/printer"
)

func stubConstructor(p printer.OperationPrinter, kwargs map[string]any) (Operation, error) {
	return nil, nil
}

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(Entry{Name: "list", New: stubConstructor}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	e, err := r.Get("list")
	if err != nil || e.Name != "list" {
		t.Fatalf("Get(%q) = %+v, %v", "list", e, err)
	}

	if _, err := r.Get("missing"); !errors.Is(err, ankerr.ErrNotFound) {
		t.Fatalf("Get(missing) error = %v, want ErrNotFound", err)
	}
}

func TestRegistryRejectsEmptyNameAndDuplicate(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(Entry{New: stubConstructor}); !errors.Is(err, ankerr.ErrInvalidInput) {
		t.Fatalf("Register(empty name) error = %v, want ErrInvalidInput", err)
	}

	if err := r.Register(Entry{Name: "list", New: stubConstructor}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(Entry{Name: "list", New: stubConstructor}); !errors.Is(err, ankerr.ErrConflict) {
		t.Fatalf("Register(duplicate) error = %v, want ErrConflict", err)
	}
}

func TestRegistryAllReturnsACopy(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(Entry{Name: "list", New: stubConstructor})

	all := r.All()
	all["list"] = Entry{Name: "tampered"}

	e, _ := r.Get("list")
	if e.Name != "list" {
		t.Fatalf("mutating All()'s result leaked into the registry: %+v", e)
	}
}
