// Package dbops lowers a changelog.ChangeLog into an ordered list of
// table-level row operations and executes them against the extracted
// SQLite database inside one transaction, per spec.md §4.6. The
// transaction style mirrors the teacher's storage.go BeginTx/CommitTx/
// RollbackTx trio.
package dbops

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ankidote/ankidote/internal/ankerr"
	"github.com/ankidote/ankidote/internal/changelog"
	"github.com/ankidote/ankidote/internal/collection"
)

// DBOperation is one row-level mutation: either an UPDATE of SetValues on
// the row matched by Table/WhereCol/WhereVal, or — when Delete is true — a
// DELETE of that row.
type DBOperation struct {
	Table    string
	WhereCol string
	WhereVal any
	SetValues map[string]any
	Delete   bool
}

// GenerateOperations lowers a list of changes into row operations in the
// order produced, per the table in spec.md §4.6. coll supplies each
// change's owning model so field values can be joined in the model's
// field order rather than arbitrary map order. NoteMigrated changes are
// deduplicated by note id: the original source can emit one NoteMigrated
// for the newly-created note and one for the logically-deleted source note
// even though both now share the same id (see DESIGN.md's Open Questions
// resolutions); the database only needs one UPDATE.
func GenerateOperations(coll *collection.Collection, changes []changelog.Change) ([]DBOperation, error) {
	var ops []DBOperation
	seenMigrated := make(map[collection.Id]bool)

	for _, ch := range changes {
		switch ch.Kind {
		case changelog.ModelUpdated:
			blob, err := marshalModels(ch.Models)
			if err != nil {
				return nil, err
			}
			ops = append(ops, DBOperation{Table: "col", WhereCol: "id", WhereVal: 1, SetValues: map[string]any{"models": blob}})

		case changelog.NoteFieldsUpdated:
			flds, err := joinFields(coll, ch.ModelID, ch.Fields)
			if err != nil {
				return nil, err
			}
			ops = append(ops, DBOperation{Table: "notes", WhereCol: "id", WhereVal: int64(ch.NoteID), SetValues: map[string]any{"flds": flds}})

		case changelog.NoteMigrated:
			if seenMigrated[ch.NoteID] {
				continue
			}
			seenMigrated[ch.NoteID] = true
			flds, err := joinFields(coll, ch.TargetModelID, ch.Fields)
			if err != nil {
				return nil, err
			}
			ops = append(ops, DBOperation{Table: "notes", WhereCol: "id", WhereVal: int64(ch.NoteID),
				SetValues: map[string]any{"mid": int64(ch.TargetModelID), "flds": flds}})

		case changelog.NoteTagsUpdated:
			ops = append(ops, DBOperation{Table: "notes", WhereCol: "id", WhereVal: int64(ch.NoteID),
				SetValues: map[string]any{"tags": strings.Join(ch.Tags, " ")}})

		case changelog.CardMoved:
			ops = append(ops, DBOperation{Table: "cards", WhereCol: "id", WhereVal: int64(ch.CardID),
				SetValues: map[string]any{"did": int64(ch.TargetDeckID)}})

		case changelog.DeckCreated:
			blob, err := marshalDecks(ch.Decks)
			if err != nil {
				return nil, err
			}
			ops = append(ops, DBOperation{Table: "col", WhereCol: "id", WhereVal: 1, SetValues: map[string]any{"decks": blob}})

		case changelog.NoteDeleted:
			ops = append(ops, DBOperation{Table: "notes", WhereCol: "id", WhereVal: int64(ch.NoteID), Delete: true})

		case changelog.CardDeleted:
			ops = append(ops, DBOperation{Table: "cards", WhereCol: "id", WhereVal: int64(ch.CardID), Delete: true})

		default:
			return nil, fmt.Errorf("lowering change: %w: unknown change kind %v", ankerr.ErrInvalidInput, ch.Kind)
		}
	}
	return ops, nil
}

// joinFields checks for the forbidden 0x1F separator inside any value (a
// note field must never itself contain the field separator, per spec.md
// §8's boundary case), then joins values in modelID's field order. Any
// field the model defines but the change's Fields map omits is written as
// the empty string; the value already on disk is not consulted. Every
// write operation that emits NoteFieldsUpdated/NoteMigrated passes a map
// covering every field of the target model.
func joinFields(coll *collection.Collection, modelID collection.Id, fields map[string]string) (string, error) {
	model := coll.Models[modelID]
	if model == nil {
		return "", fmt.Errorf("joining fields: %w: model %d", ankerr.ErrNotFound, modelID)
	}
	names := model.FieldNames()
	values := make([]string, len(names))
	for i, name := range names {
		v := fields[name]
		if strings.Contains(v, collection.FieldSeparator) {
			return "", fmt.Errorf("joining fields for model %d: %w: field %q contains the field separator", modelID, ankerr.ErrInvalidInput, name)
		}
		values[i] = v
	}
	return strings.Join(values, collection.FieldSeparator), nil
}

func marshalModels(models map[collection.Id]*collection.Model) (string, error) {
	out := make(map[string]*collection.Model, len(models))
	for id, m := range models {
		out[fmt.Sprint(int64(id))] = m
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("marshaling models: %w", err)
	}
	return string(b), nil
}

func marshalDecks(decks map[collection.Id]*collection.Deck) (string, error) {
	out := make(map[string]*collection.Deck, len(decks))
	for id, d := range decks {
		out[fmt.Sprint(int64(id))] = d
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("marshaling decks: %w", err)
	}
	return string(b), nil
}

// Writer executes DBOperations against the extracted SQLite database.
type Writer struct {
	db *sql.DB
}

// OpenWriter opens a read-write connection to the database at dbPath.
func OpenWriter(dbPath string) (*Writer, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database for write: %w", err)
	}
	return &Writer{db: db}, nil
}

// Apply executes every operation inside a single transaction, in order. Any
// SQL error aborts and rolls back the whole transaction and surfaces as
// ErrPersistenceFailed.
func (w *Writer) Apply(ops []DBOperation) error {
	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w: %v", ankerr.ErrPersistenceFailed, err)
	}

	for _, op := range ops {
		if err := execOne(tx, op); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				return fmt.Errorf("applying changes: %w: %v (rollback also failed: %v)", ankerr.ErrPersistenceFailed, err, rbErr)
			}
			return fmt.Errorf("applying changes: %w: %v", ankerr.ErrPersistenceFailed, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing changes: %w: %v", ankerr.ErrPersistenceFailed, err)
	}
	return nil
}

func execOne(tx *sql.Tx, op DBOperation) error {
	if op.Delete {
		q := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", op.Table, op.WhereCol)
		_, err := tx.Exec(q, op.WhereVal)
		return err
	}

	cols := make([]string, 0, len(op.SetValues))
	for k := range op.SetValues {
		cols = append(cols, k)
	}
	setClauses := make([]string, len(cols))
	args := make([]any, 0, len(cols)+1)
	for i, c := range cols {
		setClauses[i] = fmt.Sprintf("%s = ?", c)
		args = append(args, op.SetValues[c])
	}
	args = append(args, op.WhereVal)
	q := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?", op.Table, strings.Join(setClauses, ", "), op.WhereCol)
	_, err := tx.Exec(q, args...)
	return err
}

// Close closes the writer's database connection.
func (w *Writer) Close() error {
	return w.db.Close()
}
