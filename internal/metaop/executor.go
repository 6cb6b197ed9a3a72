package metaop

import (
	"fmt"
	"log"

	"github.com/ankidote/ankidote/internal/ankerr"
	"github.com/ankidote/ankidote/internal/changelog"
	"github.com/ankidote/ankidote/internal/collection"
	"github.com/ankidote/ankidote/internal/operation"
	"github.com/ankidote/ankidote/internal/printer"
)

const (
	maxResolveDepth = 10
	maxResolvedOps  = 100
)

// Executor resolves a MetaOp into its underlying operations and runs
// each one against a collection, recording changes in a changelog.
// Grounded on
// original_source/anki_terminal/metaops/metaop_executor.py:MetaOpExecutor.
type Executor struct {
	Collection *collection.Collection
	ChangeLog  *changelog.ChangeLog
	Printer    printer.OperationPrinter
}

// NewExecutor constructs an Executor bound to a collection, an optional
// changelog (required only for write operations), and a printer.
func NewExecutor(coll *collection.Collection, cl *changelog.ChangeLog, p printer.OperationPrinter) *Executor {
	return &Executor{Collection: coll, ChangeLog: cl, Printer: p}
}

// Execute resolves metaop into its leaf operations and runs each in turn,
// returning one Result per leaf operation.
func (e *Executor) Execute(m MetaOp) ([]operation.Result, error) {
	ops, err := e.ResolveOps(m)
	if err != nil {
		return nil, err
	}
	results := make([]operation.Result, 0, len(ops))
	for _, op := range ops {
		results = append(results, e.ExecuteOp(op))
	}
	return results, nil
}

// ResolveOps expands metaop into its list of leaf operations, enforcing
// the depth-10/op-count-100 hard caps of spec.md §4.8.
func (e *Executor) ResolveOps(m MetaOp) ([]operation.Operation, error) {
	var ops []operation.Operation
	if err := e.resolveRecursive(m, &ops, 0); err != nil {
		return nil, err
	}
	return ops, nil
}

func (e *Executor) resolveRecursive(m MetaOp, ops *[]operation.Operation, depth int) error {
	if depth > maxResolveDepth {
		return fmt.Errorf("max depth of %d reached for meta operation %q: %w", maxResolveDepth, m.Name(), ankerr.ErrResolverLimit)
	}
	if len(*ops) >= maxResolvedOps {
		return fmt.Errorf("max number of operations of %d reached for meta operation %q: %w", maxResolvedOps, m.Name(), ankerr.ErrResolverLimit)
	}

	if m.IsFundamental() {
		op, err := m.ResolveOp(e.Printer)
		if err != nil {
			return err
		}
		*ops = append(*ops, op)
		return nil
	}

	targets, err := m.Resolve()
	if err != nil {
		return err
	}
	for _, target := range targets {
		if err := e.resolveRecursive(target, ops, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// ExecuteOp validates and runs a single operation, converting a
// validation or execution error into a failed Result rather than
// propagating it, mirroring the try/except wrapping in
// metaop_executor.py's execute_op.
func (e *Executor) ExecuteOp(op operation.Operation) operation.Result {
	if err := op.Validate(e.Collection); err != nil {
		return operation.Result{Success: false, Message: fmt.Sprintf("Validation failed: %v", err)}
	}

	result, err := op.Execute()
	if err != nil {
		log.Printf("Operation failed: %v", err)
		return operation.Result{Success: false, Message: fmt.Sprintf("Operation failed: %v", err)}
	}

	if result.Success {
		log.Print(result.Message)
		if len(result.Changes) > 0 && e.ChangeLog != nil {
			e.ChangeLog.Changes = append(e.ChangeLog.Changes, result.Changes...)
		}
	} else {
		log.Printf("Operation %q reported failure: %s", op.Name(), result.Message)
	}

	return result
}
