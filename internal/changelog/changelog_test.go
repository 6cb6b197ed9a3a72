package changelog

import (
	"testing"

	"github.com/ankidote/ankidote/internal/collection"
)

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		ModelUpdated:      "ModelUpdated",
		NoteFieldsUpdated: "NoteFieldsUpdated",
		NoteMigrated:      "NoteMigrated",
		NoteTagsUpdated:   "NoteTagsUpdated",
		CardMoved:         "CardMoved",
		DeckCreated:       "DeckCreated",
		NoteDeleted:       "NoteDeleted",
		CardDeleted:       "CardDeleted",
		Kind(99):          "Unknown",
	}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", kind, got, want)
		}
	}
}

func TestChangeConstructors(t *testing.T) {
	models := map[collection.Id]*collection.Model{1: {ID: 1}}
	if c := ModelUpdatedChange(models); c.Kind != ModelUpdated || c.Models[1].ID != 1 {
		t.Fatalf("unexpected ModelUpdatedChange: %+v", c)
	}

	fields := map[string]string{"Front": "hello"}
	c := NoteFieldsUpdatedChange(10, 1, fields)
	if c.Kind != NoteFieldsUpdated || c.NoteID != 10 || c.ModelID != 1 || c.Fields["Front"] != "hello" {
		t.Fatalf("unexpected NoteFieldsUpdatedChange: %+v", c)
	}

	m := NoteMigratedChange(10, 1, 2, fields)
	if m.Kind != NoteMigrated || m.ModelID != 1 || m.TargetModelID != 2 {
		t.Fatalf("unexpected NoteMigratedChange: %+v", m)
	}

	tg := NoteTagsUpdatedChange(10, 1, []string{"a"})
	if tg.Kind != NoteTagsUpdated || len(tg.Tags) != 1 {
		t.Fatalf("unexpected NoteTagsUpdatedChange: %+v", tg)
	}

	cm := CardMovedChange(20, 1, 2)
	if cm.Kind != CardMoved || cm.SourceDeckID != 1 || cm.TargetDeckID != 2 {
		t.Fatalf("unexpected CardMovedChange: %+v", cm)
	}

	decks := map[collection.Id]*collection.Deck{1: {ID: 1}}
	dc := DeckCreatedChange(decks)
	if dc.Kind != DeckCreated || dc.Decks[1].ID != 1 {
		t.Fatalf("unexpected DeckCreatedChange: %+v", dc)
	}

	nd := NoteDeletedChange(10)
	if nd.Kind != NoteDeleted || nd.NoteID != 10 {
		t.Fatalf("unexpected NoteDeletedChange: %+v", nd)
	}

	cd := CardDeletedChange(20)
	if cd.Kind != CardDeleted || cd.CardID != 20 {
		t.Fatalf("unexpected CardDeletedChange: %+v", cd)
	}
}

func TestChangeLogAccumulates(t *testing.T) {
	l := New()
	if l.HasChanges() {
		t.Fatal("expected fresh ChangeLog to have no changes")
	}

	l.Add(NoteDeletedChange(1))
	if !l.HasChanges() || len(l.Changes) != 1 {
		t.Fatalf("expected 1 change after Add, got %+v", l.Changes)
	}

	l.AddAll([]Change{CardDeletedChange(2), CardDeletedChange(3)})
	if len(l.Changes) != 3 {
		t.Fatalf("expected 3 changes after AddAll, got %d", len(l.Changes))
	}
}
