// Package executor implements the run-lifecycle of spec.md §4.7: open a
// package, load its collection, run operations against it, and — for
// write runs — apply the accumulated changelog and repackage on exit.
// Grounded on original_source/anki_context.py:AnkiContext.
package executor

import (
	"fmt"
	"log"

	"github.com/ankidote/ankidote/internal/ankerr"
	"github.com/ankidote/ankidote/internal/changelog"
	"github.com/ankidote/ankidote/internal/collection"
	"github.com/ankidote/ankidote/internal/dbops"
	"github.com/ankidote/ankidote/internal/loader"
	"github.com/ankidote/ankidote/internal/metaop"
	"github.com/ankidote/ankidote/internal/operation"
	"github.com/ankidote/ankidote/internal/pkgio"
	"github.com/ankidote/ankidote/internal/printer"
)

// Context manages one run's resources in acquire/release order: the
// extracted package, the SQLite connection, and the in-memory
// Collection. Resources are released in the reverse order they were
// acquired. Read-only runs never open a write connection or produce
// output; write runs require an output path and repackage on Release if
// any change was recorded.
type Context struct {
	apkgPath   string
	outputPath string
	readOnly   bool

	pkg        *pkgio.Package
	writer     *dbops.Writer
	collection *collection.Collection
	changeLog  *changelog.ChangeLog
	metaExec   *metaop.Executor

	destroyed bool
}

// Open extracts apkgPath and loads its collection into memory. For write
// runs (readOnly=false) outputPath must be non-empty.
func Open(apkgPath, outputPath string, readOnly bool, p printer.OperationPrinter) (*Context, error) {
	if !readOnly && outputPath == "" {
		return nil, fmt.Errorf("opening context: %w: output path must be specified for write operations", ankerr.ErrInvalidInput)
	}

	c := &Context{apkgPath: apkgPath, outputPath: outputPath, readOnly: readOnly}

	pkg, err := pkgio.Open(apkgPath, readOnly)
	if err != nil {
		return nil, err
	}
	c.pkg = pkg

	coll, err := loader.Load(pkg.DBPath, pkg.DBVersion)
	if err != nil {
		c.cleanup()
		return nil, err
	}
	c.collection = coll

	if !readOnly {
		c.changeLog = changelog.New()
	}
	c.metaExec = metaop.NewExecutor(c.collection, c.changeLog, p)

	return c, nil
}

// Collection returns the loaded collection.
func (c *Context) Collection() *collection.Collection {
	return c.collection
}

// Run validates and executes one meta operation against the context's
// collection, recording any resulting changes. Returns ErrStateError if
// the context was already released, or if a write meta operation is run
// against a read-only context.
func (c *Context) Run(m metaop.MetaOp) ([]operation.Result, error) {
	if c.destroyed {
		return nil, fmt.Errorf("running meta operation %q: %w: context already released", m.Name(), ankerr.ErrStateError)
	}
	if !m.Readonly() && c.readOnly {
		return nil, fmt.Errorf("running meta operation %q: %w: cannot perform write operation in read-only mode", m.Name(), ankerr.ErrStateError)
	}
	return c.metaExec.Execute(m)
}

// Release flushes any accumulated changes to the database, repackages
// the archive if changes were made, and frees the extracted working
// directory. Safe to call once; subsequent calls are no-ops.
func (c *Context) Release() error {
	if c.destroyed {
		return nil
	}
	defer func() { c.destroyed = true }()

	if c.hasWrites() {
		if c.readOnly {
			log.Print("changes were made in read-only mode, changes will be lost")
		} else {
			log.Print("changes detected, packaging new .apkg file")
			if err := c.packageChanges(); err != nil {
				c.cleanup()
				return err
			}
		}
	}

	c.cleanup()
	return nil
}

func (c *Context) hasWrites() bool {
	return c.changeLog != nil && c.changeLog.HasChanges()
}

func (c *Context) packageChanges() error {
	if c.readOnly {
		return fmt.Errorf("packaging output: %w: cannot package in read-only mode", ankerr.ErrStateError)
	}
	if c.outputPath == "" {
		return fmt.Errorf("packaging output: %w: no output path specified", ankerr.ErrInvalidInput)
	}

	if c.hasWrites() {
		log.Print("applying changes to database before packaging")
		ops, err := dbops.GenerateOperations(c.collection, c.changeLog.Changes)
		if err != nil {
			return err
		}
		w, err := dbops.OpenWriter(c.pkg.DBPath)
		if err != nil {
			return err
		}
		c.writer = w
		if err := w.Apply(ops); err != nil {
			return err
		}
	}

	if c.writer != nil {
		if err := c.writer.Close(); err != nil {
			return fmt.Errorf("closing database writer: %w", err)
		}
		c.writer = nil
	}

	return c.pkg.Package(c.outputPath)
}

func (c *Context) cleanup() {
	if c.writer != nil {
		c.writer.Close()
		c.writer = nil
	}
	if c.pkg != nil {
		c.pkg.Close()
		c.pkg = nil
	}
}
