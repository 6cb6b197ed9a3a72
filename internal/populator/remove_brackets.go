package populator

import (
	"regexp"

	"github.com/ankidote/ankidote/internal/collection"
)

var bracketRe = regexp.MustCompile(`\([^()]*\)`)

// removeBracketsPopulator strips text in round brackets from a field,
// grounded on original_source/populators/remove_brackets.py. When
// target_field is omitted, it defaults to source_field (rewrite in place).
type removeBracketsPopulator struct {
	sourceField string
	targetField string
}

// RemoveBracketsDescriptor returns the static metadata and constructor for
// the remove-brackets populator.
func RemoveBracketsDescriptor() Descriptor {
	args := []ConfigArgument{
		{Name: "source_field", Description: "Field containing text to process", Required: true},
		{Name: "target_field", Description: "Field to store the processed text (defaults to source_field)", Required: false},
	}
	return Descriptor{
		Name: "remove-brackets", Description: "Remove text in round brackets (parentheses) from fields",
		ConfigArgs: args,
		New: func(config map[string]any) (FieldPopulator, error) {
			if err := ApplyDefaults(args, config); err != nil {
				return nil, err
			}
			src, _ := config["source_field"].(string)
			tgt, _ := config["target_field"].(string)
			if tgt == "" {
				tgt = src
			}
			return &removeBracketsPopulator{sourceField: src, targetField: tgt}, nil
		},
	}
}

func (p *removeBracketsPopulator) Name() string       { return "remove-brackets" }
func (p *removeBracketsPopulator) Description() string { return "Remove text in round brackets (parentheses) from fields" }
func (p *removeBracketsPopulator) ConfigArguments() []ConfigArgument {
	return RemoveBracketsDescriptor().ConfigArgs
}
func (p *removeBracketsPopulator) TargetFields() []string { return []string{p.targetField} }
func (p *removeBracketsPopulator) SupportsBatching() bool { return true }

func (p *removeBracketsPopulator) Validate(model *collection.Model) error {
	// source_field absence is tolerated per-note (skip), matching the
	// original's populate_fields_impl returning {} rather than failing.
	return nil
}

func (p *removeBracketsPopulator) Populate(note *collection.Note) (map[string]string, error) {
	text, ok := note.Fields[p.sourceField]
	if !ok || text == "" {
		return map[string]string{}, nil
	}
	return map[string]string{p.targetField: bracketRe.ReplaceAllString(text, "")}, nil
}

func (p *removeBracketsPopulator) PopulateBatch(notes []*collection.Note) (map[collection.Id]map[string]string, error) {
	updates := make(map[collection.Id]map[string]string)
	for _, n := range notes {
		fields, err := p.Populate(n)
		if err != nil {
			continue
		}
		if len(fields) > 0 {
			updates[n.ID] = fields
		}
	}
	return updates, nil
}
