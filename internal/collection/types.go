// Package collection holds the value types for the in-memory flashcard
// collection: models (note types), fields, templates, notes, cards, decks,
// and deck configs, plus the Collection aggregate that owns them all.
package collection

import "time"

// Id is the integer identifier Anki-style collections key every entity by.
type Id int64

// FieldSeparator is the canonical on-disk separator for packed note field
// strings in both v2 and v21 schemas: code point 0x1F. A leftover tab-based
// path exists in the original source but must not be reproduced (see
// DESIGN.md's Open Questions resolutions).
const FieldSeparator = "\x1f"

// Field describes one named slot in a Model's note layout.
type Field struct {
	Name              string `json:"name"`
	Ordinal           int    `json:"ord"`
	Sticky            bool   `json:"sticky"`
	RTL               bool   `json:"rtl"`
	Font              string `json:"font"`
	FontSize          int    `json:"size"`
	Description       string `json:"description"`
	Media             []string `json:"media"`
	PlainText         bool   `json:"plainText"`
	ExcludeFromSearch bool   `json:"excludeFromSearch"`
	PreventDeletion   bool   `json:"preventDeletion"`
	Collapsed         bool   `json:"collapsed"`
	Tag               *int   `json:"tag,omitempty"`
}

// Template describes one (question, answer) rendering pair within a Model.
type Template struct {
	Name                  string `json:"name"`
	Ordinal               int    `json:"ord"`
	QuestionFormat        string `json:"qfmt"`
	AnswerFormat          string `json:"afmt"`
	BrowserQuestionFormat string `json:"bqfmt"`
	BrowserAnswerFormat   string `json:"bafmt"`
	BrowserFontName       string `json:"bfont"`
	BrowserFontSize       int    `json:"bsize"`
	DeckOverride          *Id    `json:"did,omitempty"`
}

// RequiredEntry is one row of a Model's field-requirement matrix: template
// ordinal, requirement kind ("all"/"any"/"none"), and the field ordinals it
// refers to. Anki defaults every model to [[0, "all", [0]]].
type RequiredEntry struct {
	TemplateOrdinal int   `json:"ord"`
	Kind            string `json:"kind"`
	FieldOrdinals   []int `json:"fields"`
}

// Model (note type) is the schema shared by every Note that references it.
type Model struct {
	ID           Id
	Name         string
	Fields       []Field
	Templates    []Template
	CSS          string
	DeckID       Id
	ModTime      time.Time
	Type         int // 0 standard, 1 cloze
	USN          int64
	Version      int
	LatexPre     string
	LatexPost    string
	LatexSVG     bool
	Required     []RequiredEntry
	Tags         []string
}

// DefaultRequired is the Anki default field-requirement matrix for a
// freshly created single-template model.
func DefaultRequired() []RequiredEntry {
	return []RequiredEntry{{TemplateOrdinal: 0, Kind: "all", FieldOrdinals: []int{0}}}
}

const (
	// DefaultLatexPre/DefaultLatexPost match Anki's stock LaTeX preamble.
	DefaultLatexPre  = "\\documentclass[12pt]{article}\n\\special{papersize=3in,5in}\n\\usepackage[utf8]{inputenc}\n\\usepackage{amssymb,amsmath}\n\\pagestyle{empty}\n\\setlength{\\parindent}{0in}\n\\begin{document}\n"
	DefaultLatexPost = "\\end{document}"
)

// Note is a record of field values conforming to a Model.
type Note struct {
	ID         Id
	GUID       string
	ModelID    Id
	ModTime    time.Time
	USN        int64
	Tags       []string
	Fields     map[string]string // keys exactly the owning model's field names
	SortField  string            // sfld: text of the note's sort field, despite the column's INTEGER affinity
	Checksum   int64
	Flags      int
	Data       string
}

// Card is one renderable side produced from a Note by one of its Model's
// Templates. Review-state fields are carried verbatim; this engine never
// interprets or schedules them (see SPEC_FULL.md DOMAIN STACK: go-fsrs dropped).
type Card struct {
	ID             Id
	NoteID         Id
	DeckID         Id
	Ordinal        int
	ModTime        time.Time
	USN            int64
	Type           int
	Queue          int
	Due            int
	Interval       int
	Factor         int
	Reps           int
	Lapses         int
	Left           int
	OriginalDue    int
	OriginalDeckID Id
	Flags          int
	Data           string
}

// TodayCounter is one of a Deck's four today-counters: a (day index, count) pair.
type TodayCounter struct {
	Day   int `json:"day"`
	Count int `json:"count"`
}

// Deck is a named bucket of cards.
type Deck struct {
	ID               Id
	Name             string
	Description      string
	ModTime          time.Time
	USN              int64
	Collapsed        bool
	BrowserCollapsed bool
	Dynamic          bool
	NewToday         TodayCounter
	ReviewToday      TodayCounter
	LearnToday       TodayCounter
	TimeToday        TodayCounter
	ConfID           Id
	ExtendNew        int
	ExtendReview      int
}

// NewCardsConfig/ReviewCardsConfig/LapseCardsConfig are DeckConfig's three
// parameter blocks, with the defaults Anki ships for a fresh deck config.
type NewCardsConfig struct {
	Delays        []float64 `json:"delays"`
	Ints          []int     `json:"ints"`
	InitialFactor int       `json:"initialFactor"`
	Order         int       `json:"order"`
	PerDay        int       `json:"perDay"`
	Bury          bool      `json:"bury"`
}

type ReviewCardsConfig struct {
	PerDay         int     `json:"perDay"`
	Ease4          float64 `json:"ease4"`
	IntervalFactor float64 `json:"ivlFct"`
	MaxInterval    int     `json:"maxIvl"`
	Bury           bool    `json:"bury"`
}

type LapseCardsConfig struct {
	Delays       []float64 `json:"delays"`
	MinInterval  int       `json:"minInt"`
	LeechFails   int       `json:"leechFails"`
	LeechAction  int       `json:"leechAction"`
}

// DefaultNewCardsConfig/DefaultReviewCardsConfig/DefaultLapseCardsConfig
// mirror anki_types.py's DeckConfig dataclass field defaults exactly, so a
// collection with no explicit dconf override round-trips byte-for-byte.
func DefaultNewCardsConfig() NewCardsConfig {
	return NewCardsConfig{Delays: []float64{1, 10}, Ints: []int{1, 4, 7}, InitialFactor: 2500, Order: 1, PerDay: 20}
}

func DefaultReviewCardsConfig() ReviewCardsConfig {
	return ReviewCardsConfig{PerDay: 200, Ease4: 1.3, IntervalFactor: 1.0, MaxInterval: 36500}
}

func DefaultLapseCardsConfig() LapseCardsConfig {
	return LapseCardsConfig{Delays: []float64{10}, MinInterval: 1, LeechFails: 8, LeechAction: 0}
}

// DeckConfig holds the review-scheduling parameters shared by decks that
// reference it by ConfID. The engine carries these opaque blocks through
// unmodified; it never applies them (non-goal: card scheduling).
type DeckConfig struct {
	ID            Id
	Name          string
	ModTime       time.Time
	USN           int64
	MaxTaken      int
	Autoplay      bool
	Timer         int
	ReplayQuestion bool
	Dynamic       bool
	New           NewCardsConfig
	Review        ReviewCardsConfig
	Lapse         LapseCardsConfig
}

// Collection is the root aggregate loaded from a single package file.
// Exactly one Collection exists per run (see executor.Context).
type Collection struct {
	ID               Id
	CreationTime     time.Time // seconds precision
	ModTime          time.Time // milliseconds precision
	SchemaModTime    time.Time
	SchemaVersion    int
	Dirty            bool
	USN              int64
	LastSync         time.Time

	Models      map[Id]*Model
	Decks       map[Id]*Deck
	Notes       map[Id]*Note
	Cards       map[Id]*Card
	DeckConfigs map[Id]*DeckConfig

	Tags   map[string]struct{}
	Config map[string]any
}

// New returns an empty Collection with initialized maps, ready for a loader
// to populate.
func New() *Collection {
	return &Collection{
		Models:      make(map[Id]*Model),
		Decks:       make(map[Id]*Deck),
		Notes:       make(map[Id]*Note),
		Cards:       make(map[Id]*Card),
		DeckConfigs: make(map[Id]*DeckConfig),
		Tags:        make(map[string]struct{}),
		Config:      make(map[string]any),
	}
}

// RecomputeTags rebuilds the collection's tag set as the union of all note
// tag lists, satisfying invariant 5 in spec.md §3.
func (c *Collection) RecomputeTags() {
	tags := make(map[string]struct{})
	for _, n := range c.Notes {
		for _, t := range n.Tags {
			tags[t] = struct{}{}
		}
	}
	c.Tags = tags
}

// FieldNames returns the ordered field names of a model.
func (m *Model) FieldNames() []string {
	names := make([]string, len(m.Fields))
	for i, f := range m.Fields {
		names[i] = f.Name
	}
	return names
}

// FieldByName returns the field with the given name, or nil.
func (m *Model) FieldByName(name string) *Field {
	for i := range m.Fields {
		if m.Fields[i].Name == name {
			return &m.Fields[i]
		}
	}
	return nil
}

// TemplateByName returns the template with the given name, or nil.
func (m *Model) TemplateByName(name string) *Template {
	for i := range m.Templates {
		if m.Templates[i].Name == name {
			return &m.Templates[i]
		}
	}
	return nil
}

// NotesOfModel returns every note in the collection referencing the given
// model id, in no particular order.
func (c *Collection) NotesOfModel(modelID Id) []*Note {
	var out []*Note
	for _, n := range c.Notes {
		if n.ModelID == modelID {
			out = append(out, n)
		}
	}
	return out
}

// CardsOfNote returns every card referencing the given note id.
func (c *Collection) CardsOfNote(noteID Id) []*Card {
	var out []*Card
	for _, cd := range c.Cards {
		if cd.NoteID == noteID {
			out = append(out, cd)
		}
	}
	return out
}

// ModelByName returns the model with the given name, or nil.
func (c *Collection) ModelByName(name string) *Model {
	for _, m := range c.Models {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// DeckByName returns the deck with the given name, or nil.
func (c *Collection) DeckByName(name string) *Deck {
	for _, d := range c.Decks {
		if d.Name == name {
			return d
		}
	}
	return nil
}

// NextModelID returns one greater than the highest existing model id.
func (c *Collection) NextModelID() Id {
	var max Id
	for id := range c.Models {
		if id > max {
			max = id
		}
	}
	return max + 1
}

// NextDeckID returns one greater than the highest existing deck id.
func (c *Collection) NextDeckID() Id {
	var max Id
	for id := range c.Decks {
		if id > max {
			max = id
		}
	}
	return max + 1
}
