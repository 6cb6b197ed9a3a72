// Package changelog defines the tagged Change record emitted by write
// operations and the append-only ChangeLog that accumulates them within one
// run, per spec.md §4.6. Unlike the Python original's two divergent
// ChangeType enums, this mirrors the unified, richer eight-kind taxonomy
// spec.md calls authoritative (see DESIGN.md's Open Questions resolutions).
package changelog

import "github.com/ankidote/ankidote/internal/collection"

// Kind tags which lowering rule a Change follows.
type Kind int

const (
	ModelUpdated Kind = iota
	NoteFieldsUpdated
	NoteMigrated
	NoteTagsUpdated
	CardMoved
	DeckCreated
	NoteDeleted
	CardDeleted
)

func (k Kind) String() string {
	switch k {
	case ModelUpdated:
		return "ModelUpdated"
	case NoteFieldsUpdated:
		return "NoteFieldsUpdated"
	case NoteMigrated:
		return "NoteMigrated"
	case NoteTagsUpdated:
		return "NoteTagsUpdated"
	case CardMoved:
		return "CardMoved"
	case DeckCreated:
		return "DeckCreated"
	case NoteDeleted:
		return "NoteDeleted"
	case CardDeleted:
		return "CardDeleted"
	default:
		return "Unknown"
	}
}

// Change is a structural edit to the Collection, tagged by kind, emitted by
// an operation. Each field group below is populated only for the kinds that
// need it; Go has no sum types, so this follows the "tagged union via
// kind-enum plus payload" idiom spec.md's Design Notes call for.
type Change struct {
	Kind Kind

	// ModelUpdated
	Models map[collection.Id]*collection.Model

	// NoteFieldsUpdated, NoteMigrated
	NoteID        collection.Id
	ModelID       collection.Id
	TargetModelID collection.Id
	Fields        map[string]string

	// NoteTagsUpdated
	Tags []string

	// CardMoved
	CardID         collection.Id
	SourceDeckID   collection.Id
	TargetDeckID   collection.Id

	// DeckCreated
	Decks map[collection.Id]*collection.Deck

	// NoteDeleted, CardDeleted use NoteID / CardID above.
}

// ModelUpdatedChange records that one or more models changed; the lowering
// rule always serializes the *current full* models map, not a patch.
func ModelUpdatedChange(models map[collection.Id]*collection.Model) Change {
	return Change{Kind: ModelUpdated, Models: models}
}

// NoteFieldsUpdatedChange records a note's field values changing in place.
func NoteFieldsUpdatedChange(noteID, modelID collection.Id, fields map[string]string) Change {
	return Change{Kind: NoteFieldsUpdated, NoteID: noteID, ModelID: modelID, Fields: fields}
}

// NoteMigratedChange records a note moving from one model to another.
func NoteMigratedChange(noteID, sourceModelID, targetModelID collection.Id, fields map[string]string) Change {
	return Change{Kind: NoteMigrated, NoteID: noteID, ModelID: sourceModelID, TargetModelID: targetModelID, Fields: fields}
}

// NoteTagsUpdatedChange records a note's tag list growing.
func NoteTagsUpdatedChange(noteID, modelID collection.Id, tags []string) Change {
	return Change{Kind: NoteTagsUpdated, NoteID: noteID, ModelID: modelID, Tags: tags}
}

// CardMovedChange records a card moving to a new deck.
func CardMovedChange(cardID, sourceDeckID, targetDeckID collection.Id) Change {
	return Change{Kind: CardMoved, CardID: cardID, SourceDeckID: sourceDeckID, TargetDeckID: targetDeckID}
}

// DeckCreatedChange records one or more new decks; like ModelUpdated, the
// lowering rule serializes the full current decks map.
func DeckCreatedChange(decks map[collection.Id]*collection.Deck) Change {
	return Change{Kind: DeckCreated, Decks: decks}
}

// NoteDeletedChange records a note's removal.
func NoteDeletedChange(noteID collection.Id) Change {
	return Change{Kind: NoteDeleted, NoteID: noteID}
}

// CardDeletedChange records a card's removal.
func CardDeletedChange(cardID collection.Id) Change {
	return Change{Kind: CardDeleted, CardID: cardID}
}

// ChangeLog is an append-only ordered sequence of Changes accumulated
// within one run.
type ChangeLog struct {
	Changes []Change
}

// New returns an empty ChangeLog.
func New() *ChangeLog {
	return &ChangeLog{}
}

// Add appends one change to the end of the log.
func (l *ChangeLog) Add(c Change) {
	l.Changes = append(l.Changes, c)
}

// AddAll appends each change in cs, in order.
func (l *ChangeLog) AddAll(cs []Change) {
	l.Changes = append(l.Changes, cs...)
}

// HasChanges reports whether any change has been recorded.
func (l *ChangeLog) HasChanges() bool {
	return len(l.Changes) > 0
}
