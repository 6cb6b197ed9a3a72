package executor

import (
	"archive/zip"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ankidote/ankidote/internal/ankerr"
	"github.com/ankidote/ankidote/internal/metaop"
	"github.com/ankidote/ankidote/internal/printer"
)

const fixtureModelsJSON = `{"1":{"id":1,"name":"Basic","flds":[{"name":"Front","ord":0},{"name":"Back","ord":1}],"tmpls":[{"name":"Card 1","ord":0,"qfmt":"{{Front}}","afmt":"{{Back}}"}],"css":"","did":1,"mod":0,"type":0,"usn":-1,"latexPre":"","latexPost":"","req":[]}}`
const fixtureDecksJSON = `{"1":{"id":1,"name":"Default","desc":"","mod":0,"usn":-1,"collapsed":false,"dyn":0,"conf":1,"newToday":[0,0],"revToday":[0,0],"lrnToday":[0,0],"timeToday":[0,0]}}`
const fixtureDconfJSON = `{"1":{"id":1,"name":"Default","mod":0,"usn":-1,"maxTaken":60,"autoplay":true,"timer":0,"replayq":true,"dyn":false}}`

func buildFixtureApkg(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "collection.anki21")

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("opening fixture database: %v", err)
	}

	schema := []string{
		`CREATE TABLE col (id integer primary key, crt integer, mod integer, scm integer, ver integer, dty integer, usn integer, ls integer, conf text, models text, decks text, dconf text, tags text)`,
		`CREATE TABLE notes (id integer primary key, guid text, mid integer, mod integer, usn integer, tags text, flds text, sfld text, csum integer, flags integer, data text)`,
		`CREATE TABLE cards (id integer primary key, nid integer, did integer, ord integer, mod integer, usn integer, type integer, queue integer, due integer, ivl integer, factor integer, reps integer, lapses integer, left integer, odue integer, odid integer, flags integer, data text)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("creating schema: %v", err)
		}
	}
	if _, err := db.Exec(`INSERT INTO col VALUES (1, 0, 0, 0, 21, 0, -1, 0, '{}', ?, ?, ?, '{}')`,
		fixtureModelsJSON, fixtureDecksJSON, fixtureDconfJSON); err != nil {
		t.Fatalf("inserting col row: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO notes VALUES (100, 'guid1', 1, 0, -1, '', ?, 'hello', 0, 0, '')`,
		fmt.Sprintf("hello%sworld", "\x1f")); err != nil {
		t.Fatalf("inserting note row: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO cards VALUES (200, 100, 1, 0, 0, -1, 0, 0, 0, 0, 2500, 0, 0, 0, 0, 0, 0, '')`); err != nil {
		t.Fatalf("inserting card row: %v", err)
	}
	db.Close()

	apkgPath := filepath.Join(t.TempDir(), "deck.apkg")
	out, err := os.Create(apkgPath)
	if err != nil {
		t.Fatalf("creating fixture archive: %v", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	w, err := zw.Create("collection.anki21")
	if err != nil {
		t.Fatalf("writing fixture archive entry: %v", err)
	}
	raw, err := os.ReadFile(dbPath)
	if err != nil {
		t.Fatalf("reading fixture db bytes: %v", err)
	}
	if _, err := w.Write(raw); err != nil {
		t.Fatalf("writing fixture db into archive: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing fixture archive: %v", err)
	}
	return apkgPath
}

func TestContextReadOnlyRunDoesNotPackage(t *testing.T) {
	apkgPath := buildFixtureApkg(t)

	ctx, err := Open(apkgPath, "", true, printer.NewMockPrinter())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if ctx.Collection().Models[1] == nil {
		t.Fatal("expected model 1 to be loaded")
	}
	if err := ctx.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
}

func TestContextRejectsWriteMetaOpInReadOnlyMode(t *testing.T) {
	apkgPath := buildFixtureApkg(t)

	ctx, err := Open(apkgPath, "", true, printer.NewMockPrinter())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer ctx.Release()

	recipe := &metaop.FundamentalRecipe{OpName: "rename-field", OpReadonly: false}
	m, err := metaop.NewFromRecipe(recipe, map[string]any{})
	if err != nil {
		t.Fatalf("NewFromRecipe: %v", err)
	}
	_, err = ctx.Run(m)
	if err == nil {
		t.Fatal("expected error running a write meta operation in a read-only context")
	}
	if !errors.Is(err, ankerr.ErrStateError) {
		t.Fatalf("expected ErrStateError, got %v", err)
	}
}

func TestContextRequiresOutputPathForWrites(t *testing.T) {
	apkgPath := buildFixtureApkg(t)
	if _, err := Open(apkgPath, "", false, printer.NewMockPrinter()); err == nil {
		t.Fatal("expected error opening a write context with no output path")
	}
}
