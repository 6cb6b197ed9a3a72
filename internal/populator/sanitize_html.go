package populator

import (
	"fmt"

	"github.com/microcosm-cc/bluemonday"

	"github.com/ankidote/ankidote/internal/ankerr"
	"github.com/ankidote/ankidote/internal/collection"
)

var htmlPolicy = bluemonday.UGCPolicy()

// sanitizeHTML strips disallowed markup from a field value, grounded on
// the htmlPolicy/sanitizeHTML helpers in _teacher_src/server.go.
func sanitizeHTML(input string) string {
	return htmlPolicy.Sanitize(input)
}

// sanitizeHTMLPopulator runs a field through an HTML sanitization policy
// before storing it, guarding against markup injected through populate or
// migrate-notes pipelines.
type sanitizeHTMLPopulator struct {
	sourceField string
	targetField string
}

// SanitizeHTMLDescriptor returns the static metadata and constructor for
// the sanitize-html populator.
func SanitizeHTMLDescriptor() Descriptor {
	args := []ConfigArgument{
		{Name: "source_field", Description: "Field containing HTML to sanitize", Required: true},
		{Name: "target_field", Description: "Field to store the sanitized result (defaults to source_field)", Required: false},
	}
	return Descriptor{
		Name: "sanitize-html", Description: "Strip disallowed HTML markup from a field",
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
			return &sanitizeHTMLPopulator{sourceField: src, targetField: tgt}, nil
		},
	}
}

func (p *sanitizeHTMLPopulator) Name() string       { return "sanitize-html" }
func (p *sanitizeHTMLPopulator) Description() string { return "Strip disallowed HTML markup from a field" }
func (p *sanitizeHTMLPopulator) ConfigArguments() []ConfigArgument {
	return SanitizeHTMLDescriptor().ConfigArgs
}
func (p *sanitizeHTMLPopulator) TargetFields() []string { return []string{p.targetField} }
func (p *sanitizeHTMLPopulator) SupportsBatching() bool { return true }

func (p *sanitizeHTMLPopulator) Validate(model *collection.Model) error {
	if model.FieldByName(p.sourceField) == nil {
		return fmt.Errorf("validating sanitize-html: %w: source field %q not in model", ankerr.ErrNotFound, p.sourceField)
	}
	return nil
}

func (p *sanitizeHTMLPopulator) Populate(note *collection.Note) (map[string]string, error) {
	text, ok := note.Fields[p.sourceField]
	if !ok {
		return nil, fmt.Errorf("populating sanitize-html: %w: source field %q not found in note", ankerr.ErrNotFound, p.sourceField)
	}
	return map[string]string{p.targetField: sanitizeHTML(text)}, nil
}

func (p *sanitizeHTMLPopulator) PopulateBatch(notes []*collection.Note) (map[collection.Id]map[string]string, error) {
	updates := make(map[collection.Id]map[string]string)
	for _, n := range notes {
		text, ok := n.Fields[p.sourceField]
		if !ok {
			continue
		}
		updates[n.ID] = map[string]string{p.targetField: sanitizeHTML(text)}
	}
	return updates, nil
}
