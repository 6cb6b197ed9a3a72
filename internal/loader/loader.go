// Package loader reads the three Anki-style tables (col, notes, cards) from
// an extracted SQLite database and builds an in-memory collection.Collection,
// per spec.md §4.2. Two version-specific factories (v2, v21) share a common
// read path but differ in field-ordinal source, deck today-counters, tag
// list source, and template browser-variant fields.
package loader

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ankidote/ankidote/internal/ankerr"
	"github.com/ankidote/ankidote/internal/collection"
)

// rawCol mirrors the singleton col row's columns.
type rawCol struct {
	id      int64
	crt     int64 // seconds
	mod     int64 // milliseconds
	scm     int64 // milliseconds
	ver     int
	dty     int
	usn     int64
	ls      int64 // seconds
	confRaw string
	modelsRaw string
	decksRaw  string
	dconfRaw  string
	tagsRaw   string
}

type rawNote struct {
	id    int64
	guid  string
	mid   int64
	mod   int64
	usn   int64
	tags  string
	flds  string
	sfld  string
	csum  int64
	flags int
	data  string
}

type rawCard struct {
	id    int64
	nid   int64
	did   int64
	ord   int
	mod   int64
	usn   int64
	typ   int
	queue int
	due   int
	ivl   int
	factor int
	reps  int
	lapses int
	left  int
	odue  int
	odid  int64
	flags int
	data  string
}

// Load opens the SQLite database at dbPath and builds a Collection using
// the factory selected by dbVersion (2 or 21).
func Load(dbPath string, dbVersion int) (*collection.Collection, error) {
	db, err := sql.Open("sqlite3", dbPath+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("opening collection database: %w", err)
	}
	defer db.Close()

	rc, err := readCol(db)
	if err != nil {
		return nil, err
	}
	notes, err := readNotes(db)
	if err != nil {
		return nil, err
	}
	cards, err := readCards(db)
	if err != nil {
		return nil, err
	}

	switch dbVersion {
	case 21:
		return buildV21(rc, notes, cards)
	case 2:
		return buildV2(rc, notes, cards)
	default:
		return nil, fmt.Errorf("loading collection: %w: unsupported schema version %d", ankerr.ErrInvalidInput, dbVersion)
	}
}

func readCol(db *sql.DB) (*rawCol, error) {
	row := db.QueryRow(`SELECT id, crt, mod, scm, ver, dty, usn, ls, conf, models, decks, dconf, tags FROM col`)
	var rc rawCol
	if err := row.Scan(&rc.id, &rc.crt, &rc.mod, &rc.scm, &rc.ver, &rc.dty, &rc.usn, &rc.ls,
		&rc.confRaw, &rc.modelsRaw, &rc.decksRaw, &rc.dconfRaw, &rc.tagsRaw); err != nil {
		return nil, fmt.Errorf("reading col row: %w", err)
	}
	return &rc, nil
}

func readNotes(db *sql.DB) ([]rawNote, error) {
	rows, err := db.Query(`SELECT id, guid, mid, mod, usn, tags, flds, sfld, csum, flags, data FROM notes`)
	if err != nil {
		return nil, fmt.Errorf("reading notes: %w", err)
	}
	defer rows.Close()

	var out []rawNote
	for rows.Next() {
		var n rawNote
		var sfld any
		if err := rows.Scan(&n.id, &n.guid, &n.mid, &n.mod, &n.usn, &n.tags, &n.flds, &sfld, &n.csum, &n.flags, &n.data); err != nil {
			return nil, fmt.Errorf("reading notes: %w", err)
		}
		n.sfld = fmt.Sprintf("%v", sfld)
		out = append(out, n)
	}
	return out, rows.Err()
}

func readCards(db *sql.DB) ([]rawCard, error) {
	rows, err := db.Query(`SELECT id, nid, did, ord, mod, usn, type, queue, due, ivl, factor, reps, lapses, left, odue, odid, flags, data FROM cards`)
	if err != nil {
		return nil, fmt.Errorf("reading cards: %w", err)
	}
	defer rows.Close()

	var out []rawCard
	for rows.Next() {
		var c rawCard
		if err := rows.Scan(&c.id, &c.nid, &c.did, &c.ord, &c.mod, &c.usn, &c.typ, &c.queue, &c.due,
			&c.ivl, &c.factor, &c.reps, &c.lapses, &c.left, &c.odue, &c.odid, &c.flags, &c.data); err != nil {
			return nil, fmt.Errorf("reading cards: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// splitFields splits a packed flds string on the unit-separator field
// separator and associates each positional value with the corresponding
// field name, in model field order. Extra values are dropped; missing
// positions yield empty strings, per spec.md §4.2's field-packing rule.
func splitFields(flds string, fieldNames []string) map[string]string {
	parts := strings.Split(flds, collection.FieldSeparator)
	out := make(map[string]string, len(fieldNames))
	for i, name := range fieldNames {
		if i < len(parts) {
			out[name] = parts[i]
		} else {
			out[name] = ""
		}
	}
	return out
}

func msToTime(ms int64) time.Time {
	return time.UnixMilli(ms)
}

func secToTime(s int64) time.Time {
	return time.Unix(s, 0)
}

// jsonModel/jsonField/jsonTemplate/jsonDeck/jsonDeckConfig mirror the raw
// JSON shapes stored in col.models/decks/dconf, matching
// original_source/anki_types.py's to_dict() output.
type jsonField struct {
	Name              string   `json:"name"`
	Ord               *int     `json:"ord"`
	Sticky            bool     `json:"sticky"`
	RTL               bool     `json:"rtl"`
	Font              string   `json:"font"`
	Size              int      `json:"size"`
	Description       string   `json:"description"`
	Media             []string `json:"media"`
	PlainText         bool     `json:"plainText"`
	ExcludeFromSearch bool     `json:"excludeFromSearch"`
	PreventDeletion   bool     `json:"preventDeletion"`
	Collapsed         bool     `json:"collapsed"`
}

type jsonTemplate struct {
	Name   string `json:"name"`
	Ord    int    `json:"ord"`
	Qfmt   string `json:"qfmt"`
	Afmt   string `json:"afmt"`
	Bqfmt  string `json:"bqfmt"`
	Bafmt  string `json:"bafmt"`
	Bfont  string `json:"bfont"`
	Bsize  int    `json:"bsize"`
	Did    *int64 `json:"did"`
}

type jsonRequired struct {
	Ord    int   `json:"-"`
	Kind   string `json:"-"`
	Fields []int `json:"-"`
}

type jsonModel struct {
	ID        int64          `json:"id"`
	Name      string         `json:"name"`
	Flds      []jsonField    `json:"flds"`
	Tmpls     []jsonTemplate `json:"tmpls"`
	CSS       string         `json:"css"`
	DID       int64          `json:"did"`
	Mod       int64          `json:"mod"`
	Type      int            `json:"type"`
	USN       int64          `json:"usn"`
	VerInt    int            `json:"ver"`
	LatexPre  string         `json:"latexPre"`
	LatexPost string         `json:"latexPost"`
	LatexSVG  bool           `json:"latexsvg"`
	Required  [][]any        `json:"req"`
	Tags      []string       `json:"tags"`
}

type jsonDeck struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	Desc             string `json:"desc"`
	Mod              int64  `json:"mod"`
	USN              int64  `json:"usn"`
	Collapsed        bool   `json:"collapsed"`
	BrowserCollapsed bool   `json:"browserCollapsed"`
	Dynamic          int    `json:"dyn"`
	Conf             int64  `json:"conf"`
	ExtendNew        int    `json:"extendNew"`
	ExtendRev        int    `json:"extendRev"`
	NewToday         [2]int `json:"newToday"`
	RevToday         [2]int `json:"revToday"`
	LrnToday         [2]int `json:"lrnToday"`
	TimeToday        [2]int `json:"timeToday"`
}

type jsonDeckConfig struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Mod      int64  `json:"mod"`
	USN      int64  `json:"usn"`
	MaxTaken int    `json:"maxTaken"`
	Autoplay bool   `json:"autoplay"`
	Timer    int    `json:"timer"`
	ReplayQ  bool   `json:"replayq"`
	Dyn      bool   `json:"dyn"`
	New      collection.NewCardsConfig    `json:"new"`
	Rev      collection.ReviewCardsConfig `json:"rev"`
	Lapse    collection.LapseCardsConfig  `json:"lapse"`
}

func parseRequired(raw [][]any) []collection.RequiredEntry {
	if len(raw) == 0 {
		return collection.DefaultRequired()
	}
	out := make([]collection.RequiredEntry, 0, len(raw))
	for _, row := range raw {
		if len(row) != 3 {
			continue
		}
		ord, _ := toInt(row[0])
		kind, _ := row[1].(string)
		fieldsRaw, _ := row[2].([]any)
		fields := make([]int, 0, len(fieldsRaw))
		for _, f := range fieldsRaw {
			if iv, ok := toInt(f); ok {
				fields = append(fields, iv)
			}
		}
		out = append(out, collection.RequiredEntry{TemplateOrdinal: ord, Kind: kind, FieldOrdinals: fields})
	}
	return out
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case json.Number:
		i, err := strconv.Atoi(n.String())
		return i, err == nil
	}
	return 0, false
}

func buildModel(jm jsonModel, fieldOrdFromOrd bool) *collection.Model {
	fields := make([]collection.Field, len(jm.Flds))
	for i, jf := range jm.Flds {
		ord := i
		if fieldOrdFromOrd && jf.Ord != nil {
			ord = *jf.Ord
		}
		fields[i] = collection.Field{
			Name: jf.Name, Ordinal: ord, Sticky: jf.Sticky, RTL: jf.RTL, Font: jf.Font,
			FontSize: jf.Size, Description: jf.Description, Media: jf.Media, PlainText: jf.PlainText,
			ExcludeFromSearch: jf.ExcludeFromSearch, PreventDeletion: jf.PreventDeletion, Collapsed: jf.Collapsed,
		}
	}
	if fieldOrdFromOrd {
		sort.SliceStable(fields, func(i, j int) bool { return fields[i].Ordinal < fields[j].Ordinal })
	}

	tmpls := make([]collection.Template, len(jm.Tmpls))
	for i, jt := range jm.Tmpls {
		var override *collection.Id
		if jt.Did != nil {
			id := collection.Id(*jt.Did)
			override = &id
		}
		tmpls[i] = collection.Template{
			Name: jt.Name, Ordinal: jt.Ord, QuestionFormat: jt.Qfmt, AnswerFormat: jt.Afmt,
			BrowserQuestionFormat: jt.Bqfmt, BrowserAnswerFormat: jt.Bafmt,
			BrowserFontName: jt.Bfont, BrowserFontSize: jt.Bsize, DeckOverride: override,
		}
	}

	return &collection.Model{
		ID: collection.Id(jm.ID), Name: jm.Name, Fields: fields, Templates: tmpls, CSS: jm.CSS,
		DeckID: collection.Id(jm.DID), ModTime: msToTime(jm.Mod), Type: jm.Type, USN: jm.USN, Version: jm.VerInt,
		LatexPre: jm.LatexPre, LatexPost: jm.LatexPost, LatexSVG: jm.LatexSVG,
		Required: parseRequired(jm.Required), Tags: jm.Tags,
	}
}

func buildDeckConfig(jc jsonDeckConfig) *collection.DeckConfig {
	return &collection.DeckConfig{
		ID: collection.Id(jc.ID), Name: jc.Name, ModTime: msToTime(jc.Mod), USN: jc.USN,
		MaxTaken: jc.MaxTaken, Autoplay: jc.Autoplay, Timer: jc.Timer, ReplayQuestion: jc.ReplayQ,
		Dynamic: jc.Dyn, New: jc.New, Review: jc.Rev, Lapse: jc.Lapse,
	}
}

func parseModels(raw string, fieldOrdFromOrd bool) (map[collection.Id]*collection.Model, error) {
	var m map[string]jsonModel
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("parsing col.models: %w: %v", ankerr.ErrInvalidInput, err)
	}
	out := make(map[collection.Id]*collection.Model, len(m))
	for _, jm := range m {
		mdl := buildModel(jm, fieldOrdFromOrd)
		out[mdl.ID] = mdl
	}
	return out, nil
}

func parseDeckConfigs(raw string) (map[collection.Id]*collection.DeckConfig, error) {
	var m map[string]jsonDeckConfig
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("parsing col.dconf: %w: %v", ankerr.ErrInvalidInput, err)
	}
	out := make(map[collection.Id]*collection.DeckConfig, len(m))
	for _, jc := range m {
		out[collection.Id(jc.ID)] = buildDeckConfig(jc)
	}
	return out, nil
}

func parseConfig(raw string) (map[string]any, error) {
	var m map[string]any
	if raw == "" {
		return map[string]any{}, nil
	}
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("parsing col.conf: %w: %v", ankerr.ErrInvalidInput, err)
	}
	return m, nil
}

func buildNotesAndCards(c *collection.Collection, notes []rawNote, cards []rawCard) {
	for _, rn := range notes {
		model := c.Models[collection.Id(rn.mid)]
		var fieldNames []string
		if model != nil {
			fieldNames = model.FieldNames()
		}
		var tags []string
		for _, t := range strings.Fields(rn.tags) {
			tags = append(tags, t)
		}
		c.Notes[collection.Id(rn.id)] = &collection.Note{
			ID: collection.Id(rn.id), GUID: rn.guid, ModelID: collection.Id(rn.mid),
			ModTime: msToTime(rn.mod), USN: rn.usn, Tags: tags,
			Fields: splitFields(rn.flds, fieldNames), SortField: rn.sfld, Checksum: rn.csum, Flags: rn.flags, Data: rn.data,
		}
	}
	for _, rc := range cards {
		c.Cards[collection.Id(rc.id)] = &collection.Card{
			ID: collection.Id(rc.id), NoteID: collection.Id(rc.nid), DeckID: collection.Id(rc.did),
			Ordinal: rc.ord, ModTime: msToTime(rc.mod), USN: rc.usn, Type: rc.typ, Queue: rc.queue,
			Due: rc.due, Interval: rc.ivl, Factor: rc.factor, Reps: rc.reps, Lapses: rc.lapses,
			Left: rc.left, OriginalDue: rc.odue, OriginalDeckID: collection.Id(rc.odid), Flags: rc.flags, Data: rc.data,
		}
	}
}

// buildV2 implements the v2 factory: field ordinal comes from the JSON
// array's position, deck today-counters default to (0,0), and the tag list
// is the union of note tags (computed after notes are loaded).
func buildV2(rc *rawCol, notes []rawNote, cards []rawCard) (*collection.Collection, error) {
	c := collection.New()
	c.ID = collection.Id(rc.id)
	c.CreationTime = secToTime(rc.crt)
	c.ModTime = msToTime(rc.mod)
	c.SchemaModTime = msToTime(rc.scm)
	c.SchemaVersion = rc.ver
	c.Dirty = rc.dty != 0
	c.USN = rc.usn
	c.LastSync = secToTime(rc.ls)

	var err error
	if c.Models, err = parseModels(rc.modelsRaw, false); err != nil {
		return nil, err
	}
	if c.DeckConfigs, err = parseDeckConfigs(rc.dconfRaw); err != nil {
		return nil, err
	}
	if c.Config, err = parseConfig(rc.confRaw); err != nil {
		return nil, err
	}

	var jdecks map[string]jsonDeck
	if err := json.Unmarshal([]byte(rc.decksRaw), &jdecks); err != nil {
		return nil, fmt.Errorf("parsing col.decks: %w: %v", ankerr.ErrInvalidInput, err)
	}
	c.Decks = make(map[collection.Id]*collection.Deck, len(jdecks))
	for _, jd := range jdecks {
		c.Decks[collection.Id(jd.ID)] = &collection.Deck{
			ID: collection.Id(jd.ID), Name: jd.Name, Description: jd.Desc, ModTime: msToTime(jd.Mod),
			USN: jd.USN, Collapsed: jd.Collapsed, BrowserCollapsed: jd.BrowserCollapsed, Dynamic: jd.Dynamic != 0,
			ConfID: collection.Id(jd.Conf), ExtendNew: jd.ExtendNew, ExtendReview: jd.ExtendRev,
			NewToday: collection.TodayCounter{}, ReviewToday: collection.TodayCounter{},
			LearnToday: collection.TodayCounter{}, TimeToday: collection.TodayCounter{},
		}
	}

	buildNotesAndCards(c, notes, cards)
	c.RecomputeTags()
	return c, nil
}

// buildV21 implements the v21 factory: field ordinal comes from the
// explicit "ord" key (fields sorted by it), deck today-counters are read
// from newToday/revToday/lrnToday/timeToday, and the tag list is parsed
// from col.tags' JSON map keys.
func buildV21(rc *rawCol, notes []rawNote, cards []rawCard) (*collection.Collection, error) {
	c := collection.New()
	c.ID = collection.Id(rc.id)
	c.CreationTime = secToTime(rc.crt)
	c.ModTime = msToTime(rc.mod)
	c.SchemaModTime = msToTime(rc.scm)
	c.SchemaVersion = rc.ver
	c.Dirty = rc.dty != 0
	c.USN = rc.usn
	c.LastSync = secToTime(rc.ls)

	var err error
	if c.Models, err = parseModels(rc.modelsRaw, true); err != nil {
		return nil, err
	}
	if c.DeckConfigs, err = parseDeckConfigs(rc.dconfRaw); err != nil {
		return nil, err
	}
	if c.Config, err = parseConfig(rc.confRaw); err != nil {
		return nil, err
	}

	var jdecks map[string]jsonDeck
	if err := json.Unmarshal([]byte(rc.decksRaw), &jdecks); err != nil {
		return nil, fmt.Errorf("parsing col.decks: %w: %v", ankerr.ErrInvalidInput, err)
	}
	c.Decks = make(map[collection.Id]*collection.Deck, len(jdecks))
	for _, jd := range jdecks {
		c.Decks[collection.Id(jd.ID)] = &collection.Deck{
			ID: collection.Id(jd.ID), Name: jd.Name, Description: jd.Desc, ModTime: msToTime(jd.Mod),
			USN: jd.USN, Collapsed: jd.Collapsed, BrowserCollapsed: jd.BrowserCollapsed, Dynamic: jd.Dynamic != 0,
			ConfID: collection.Id(jd.Conf), ExtendNew: jd.ExtendNew, ExtendReview: jd.ExtendRev,
			NewToday:    collection.TodayCounter{Day: jd.NewToday[0], Count: jd.NewToday[1]},
			ReviewToday: collection.TodayCounter{Day: jd.RevToday[0], Count: jd.RevToday[1]},
			LearnToday:  collection.TodayCounter{Day: jd.LrnToday[0], Count: jd.LrnToday[1]},
			TimeToday:   collection.TodayCounter{Day: jd.TimeToday[0], Count: jd.TimeToday[1]},
		}
	}

	buildNotesAndCards(c, notes, cards)

	var tagsMap map[string]any
	if rc.tagsRaw != "" {
		if err := json.Unmarshal([]byte(rc.tagsRaw), &tagsMap); err != nil {
			return nil, fmt.Errorf("parsing col.tags: %w: %v", ankerr.ErrInvalidInput, err)
		}
	}
	c.Tags = make(map[string]struct{}, len(tagsMap))
	for t := range tagsMap {
		c.Tags[t] = struct{}{}
	}

	return c, nil
}
