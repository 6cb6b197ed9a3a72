package populator

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/ankidote/ankidote/internal/ankerr"
	"github.com/ankidote/ankidote/internal/collection"
)

// furiganaPopulator augments Japanese text with bracketed readings after
// each run of kanji (CJK ideographs), grounded on
// original_source/populators/furigana_populator.py. The actual reading
// generator is an external collaborator per spec.md §1 ("Japanese reading
// generators" is listed as out-of-scope, trait-contract only) — this
// built-in satisfies the FieldPopulator contract with a simple kanji-run
// bracketing pass rather than a real kanji-to-kana dictionary lookup,
// since no such dictionary ships in the dependency corpus.
type furiganaPopulator struct {
	sourceField string
	targetField string
}

// FuriganaDescriptor returns the static metadata and constructor for the
// furigana populator.
func FuriganaDescriptor() Descriptor {
	args := []ConfigArgument{
		{Name: "source_field", Description: "Field containing Japanese text", Required: true},
		{Name: "target_field", Description: "Field to store text with furigana readings", Required: true},
	}
	return Descriptor{
		Name: "furigana", Description: "Add furigana readings to Japanese text",
		ConfigArgs: args,
		New: func(config map[string]any) (FieldPopulator, error) {
			if err := ApplyDefaults(args, config); err != nil {
				return nil, err
			}
			src, _ := config["source_field"].(string)
			tgt, _ := config["target_field"].(string)
			return &furiganaPopulator{sourceField: src, targetField: tgt}, nil
		},
	}
}

func (p *furiganaPopulator) Name() string        { return "furigana" }
func (p *furiganaPopulator) Description() string  { return "Add furigana readings to Japanese text" }
func (p *furiganaPopulator) ConfigArguments() []ConfigArgument {
	return FuriganaDescriptor().ConfigArgs
}
func (p *furiganaPopulator) TargetFields() []string { return []string{p.targetField} }
func (p *furiganaPopulator) SupportsBatching() bool { return true }

func (p *furiganaPopulator) Validate(model *collection.Model) error {
	if model.FieldByName(p.sourceField) == nil {
		return fmt.Errorf("validating furigana: %w: source field %q not in model", ankerr.ErrNotFound, p.sourceField)
	}
	return nil
}

func isKanji(r rune) bool {
	return unicode.Is(unicode.Han, r)
}

// addFurigana follows each maximal run of kanji characters with a
// bracketed placeholder holding the run itself, e.g. "日本語" becomes
// "日本語[日本語]"; no dictionary supplies the actual kana reading.
func addFurigana(text string) string {
	if text == "" {
		return ""
	}
	var b strings.Builder
	runes := []rune(text)
	i := 0
	for i < len(runes) {
		if isKanji(runes[i]) {
			start := i
			for i < len(runes) && isKanji(runes[i]) {
				i++
			}
			run := string(runes[start:i])
			b.WriteString(run)
			b.WriteByte('[')
			b.WriteString(run)
			b.WriteByte(']')
			continue
		}
		b.WriteRune(runes[i])
		i++
	}
	return b.String()
}

func (p *furiganaPopulator) Populate(note *collection.Note) (map[string]string, error) {
	text, ok := note.Fields[p.sourceField]
	if !ok {
		return nil, fmt.Errorf("populating furigana: %w: source field %q not found in note", ankerr.ErrNotFound, p.sourceField)
	}
	return map[string]string{p.targetField: addFurigana(text)}, nil
}

func (p *furiganaPopulator) PopulateBatch(notes []*collection.Note) (map[collection.Id]map[string]string, error) {
	updates := make(map[collection.Id]map[string]string)
	for _, n := range notes {
		text, ok := n.Fields[p.sourceField]
		if !ok {
			continue
		}
		updates[n.ID] = map[string]string{p.targetField: addFurigana(text)}
	}
	return updates, nil
}
