package dbops

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ankidote/ankidote/internal/changelog"
	"github.com/ankidote/ankidote/internal/collection"
)

func testCollection() *collection.Collection {
	c := collection.New()
	c.Models[1] = &collection.Model{
		ID:   1,
		Name: "Basic",
		Fields: []collection.Field{
			{Name: "Front", Ordinal: 0},
			{Name: "Back", Ordinal: 1},
		},
	}
	return c
}

func TestGenerateOperationsNoteFieldsUpdated(t *testing.T) {
	coll := testCollection()
	changes := []changelog.Change{
		changelog.NoteFieldsUpdatedChange(100, 1, map[string]string{"Front": "hello", "Back": "world"}),
	}

	ops, err := GenerateOperations(coll, changes)
	if err != nil {
		t.Fatalf("GenerateOperations: %v", err)
	}
	if len(ops) != 1 {
		t.Fatalf("expected 1 op, got %d", len(ops))
	}
	if ops[0].Table != "notes" || ops[0].SetValues["flds"] != "hello\x1fworld" {
		t.Fatalf("unexpected op: %+v", ops[0])
	}
}

func TestGenerateOperationsDeduplicatesNoteMigrated(t *testing.T) {
	coll := testCollection()
	coll.Models[2] = &collection.Model{ID: 2, Name: "Target", Fields: []collection.Field{{Name: "Front", Ordinal: 0}, {Name: "Back", Ordinal: 1}}}

	changes := []changelog.Change{
		changelog.NoteMigratedChange(100, 1, 2, map[string]string{"Front": "a", "Back": "b"}),
		changelog.NoteMigratedChange(100, 1, 2, map[string]string{"Front": "a", "Back": "b"}),
	}

	ops, err := GenerateOperations(coll, changes)
	if err != nil {
		t.Fatalf("GenerateOperations: %v", err)
	}
	if len(ops) != 1 {
		t.Fatalf("expected note-migrated changes to be deduplicated by note id, got %d ops", len(ops))
	}
}

func TestGenerateOperationsRejectsEmbeddedSeparator(t *testing.T) {
	coll := testCollection()
	changes := []changelog.Change{
		changelog.NoteFieldsUpdatedChange(100, 1, map[string]string{"Front": "bad\x1fvalue", "Back": "b"}),
	}
	if _, err := GenerateOperations(coll, changes); err == nil {
		t.Fatal("expected error for a field value containing the field separator")
	}
}

func TestWriterApplyRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "collection.anki21")
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("opening fixture db: %v", err)
	}
	if _, err := db.Exec(`CREATE TABLE notes (id integer primary key, flds text)`); err != nil {
		t.Fatalf("creating schema: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO notes VALUES (100, 'old')`); err != nil {
		t.Fatalf("seeding row: %v", err)
	}
	db.Close()

	w, err := OpenWriter(path)
	if err != nil {
		t.Fatalf("OpenWriter: %v", err)
	}
	defer w.Close()

	ops := []DBOperation{
		{Table: "notes", WhereCol: "id", WhereVal: int64(100), SetValues: map[string]any{"flds": "new"}},
	}
	if err := w.Apply(ops); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	verify, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("reopening fixture db: %v", err)
	}
	defer verify.Close()

	var flds string
	if err := verify.QueryRow(`SELECT flds FROM notes WHERE id = 100`).Scan(&flds); err != nil {
		t.Fatalf("reading back row: %v", err)
	}
	if flds != "new" {
		t.Fatalf("expected flds to be updated, got %q", flds)
	}
}

func TestWriterApplyRollsBackOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "collection.anki21")
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("opening fixture db: %v", err)
	}
	if _, err := db.Exec(`CREATE TABLE notes (id integer primary key, flds text)`); err != nil {
		t.Fatalf("creating schema: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO notes VALUES (100, 'old')`); err != nil {
		t.Fatalf("seeding row: %v", err)
	}
	db.Close()

	w, err := OpenWriter(path)
	if err != nil {
		t.Fatalf("OpenWriter: %v", err)
	}
	defer w.Close()

	ops := []DBOperation{
		{Table: "notes", WhereCol: "id", WhereVal: int64(100), SetValues: map[string]any{"flds": "new"}},
		{Table: "no_such_table", WhereCol: "id", WhereVal: int64(1), SetValues: map[string]any{"x": "y"}},
	}
	if err := w.Apply(ops); err == nil {
		t.Fatal("expected error applying an operation against a nonexistent table")
	}

	verify, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("reopening fixture db: %v", err)
	}
	defer verify.Close()

	var flds string
	if err := verify.QueryRow(`SELECT flds FROM notes WHERE id = 100`).Scan(&flds); err != nil {
		t.Fatalf("reading back row: %v", err)
	}
	if flds != "old" {
		t.Fatalf("expected rollback to leave original value, got %q", flds)
	}
}
