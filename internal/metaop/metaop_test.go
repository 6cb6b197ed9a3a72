package metaop

import (
	"errors"
	"testing"

	"github.com/ankidote/ankidote/internal/ankerr"
	"github.com/ankidote/ankidote/internal/changelog"
	"github.com/ankidote/ankidote/internal/collection"
	"github.com/ankidote/ankidote/internal/operation"
	"github.com/ankidote/ankidote/internal/printer"
)

type stubOp struct {
	name      string
	readonly  bool
	executed  bool
	failValid bool
}

func (s *stubOp) Name() string                                 { return s.name }
func (s *stubOp) Description() string                          { return "stub" }
func (s *stubOp) Readonly() bool                                { return s.readonly }
func (s *stubOp) Arguments() []operation.Argument               { return nil }
func (s *stubOp) Validate(coll *collection.Collection) error {
	if s.failValid {
		return errStub
	}
	return nil
}
func (s *stubOp) Execute() (operation.Result, error) {
	s.executed = true
	return operation.Result{Success: true, Message: "ok"}, nil
}

var errStub = fmtErrorf("stub validation failed")

func fmtErrorf(msg string) error { return &stubErr{msg} }

type stubErr struct{ msg string }

func (e *stubErr) Error() string { return e.msg }

func fundamentalStub(name string, readonly bool) *FundamentalRecipe {
	return &FundamentalRecipe{
		OpName:     name,
		OpReadonly: readonly,
		New: func(p printer.OperationPrinter, kwargs map[string]any) (operation.Operation, error) {
			return &stubOp{name: name, readonly: readonly}, nil
		},
	}
}

func TestFundamentalRecipeRoundtrip(t *testing.T) {
	recipe := fundamentalStub("list", true)
	m, err := NewFromRecipe(recipe, map[string]any{})
	if err != nil {
		t.Fatalf("NewFromRecipe: %v", err)
	}
	if !m.IsFundamental() {
		t.Fatal("expected fundamental meta operation")
	}
	op, err := m.ResolveOp(printer.NewMockPrinter())
	if err != nil {
		t.Fatalf("ResolveOp: %v", err)
	}
	if op.Name() != "list" {
		t.Fatalf("got op name %q", op.Name())
	}
}

func TestFundamentalRecipeMissingRequiredArg(t *testing.T) {
	recipe := &FundamentalRecipe{
		OpName: "get",
		OpArguments: []operation.Argument{
			{Name: "path", Required: true},
		},
	}
	if _, err := NewFromRecipe(recipe, map[string]any{}); err == nil {
		t.Fatal("expected missing-argument error")
	}
}

func TestCompositeRecipeResolvesTargets(t *testing.T) {
	leafA := fundamentalStub("populate-fields", false)
	leafB := fundamentalStub("remove-empty-notes", false)

	composite := &CompositeRecipe{
		RecipeName: "bundle",
		RecipeArguments: []operation.Argument{
			{Name: "model_name", Required: true},
		},
		Targets: []Target{
			{Recipe: leafA, ArgMapping: map[string]string{"model_name": "model_name"}},
			{Recipe: leafB, ArgMapping: map[string]string{"model_name": "model"}},
		},
	}

	if composite.Readonly() {
		t.Fatal("composite of non-readonly targets must not be readonly")
	}

	m, err := NewFromRecipe(composite, map[string]any{"model_name": "Basic"})
	if err != nil {
		t.Fatalf("NewFromRecipe: %v", err)
	}
	children, err := m.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(children))
	}
	if children[1].(*FromRecipe).Args["model"] != "Basic" {
		t.Fatalf("argument mapping did not propagate model_name -> model")
	}
}

func TestExecutorEnforcesMaxDepth(t *testing.T) {
	var self *CompositeRecipe
	self = &CompositeRecipe{RecipeName: "loop"}
	self.Targets = []Target{{Recipe: self, ArgMapping: map[string]string{}}}

	m, err := NewFromRecipe(self, map[string]any{})
	if err != nil {
		t.Fatalf("NewFromRecipe: %v", err)
	}

	exec := NewExecutor(nil, nil, printer.NewMockPrinter())
	_, err = exec.ResolveOps(m)
	if err == nil {
		t.Fatal("expected max-depth error for self-referential recipe")
	}
	if !errors.Is(err, ankerr.ErrResolverLimit) {
		t.Fatalf("expected ErrResolverLimit, got %v", err)
	}
}

func TestExecutorEnforcesMaxResolvedOps(t *testing.T) {
	targets := make([]Target, 0, maxResolvedOps+1)
	for i := 0; i <= maxResolvedOps; i++ {
		targets = append(targets, Target{Recipe: fundamentalStub("list", true), ArgMapping: map[string]string{}})
	}
	composite := &CompositeRecipe{RecipeName: "wide-bundle", Targets: targets}

	m, err := NewFromRecipe(composite, map[string]any{})
	if err != nil {
		t.Fatalf("NewFromRecipe: %v", err)
	}

	exec := NewExecutor(nil, nil, printer.NewMockPrinter())
	_, err = exec.ResolveOps(m)
	if err == nil {
		t.Fatal("expected max-resolved-ops error for an oversized bundle")
	}
	if !errors.Is(err, ankerr.ErrResolverLimit) {
		t.Fatalf("expected ErrResolverLimit, got %v", err)
	}
}

func TestExecutorRunsFundamentalOp(t *testing.T) {
	recipe := fundamentalStub("list", true)
	m, err := NewFromRecipe(recipe, map[string]any{})
	if err != nil {
		t.Fatalf("NewFromRecipe: %v", err)
	}
	coll := &collection.Collection{}
	var cl *changelog.ChangeLog
	exec := NewExecutor(coll, cl, printer.NewMockPrinter())
	results, err := exec.Execute(m)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(results) != 1 || !results[0].Success {
		t.Fatalf("expected one successful result, got %+v", results)
	}
}
