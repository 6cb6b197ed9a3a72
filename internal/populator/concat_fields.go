package populator

import (
	"fmt"
	"strings"

	"github.com/ankidote/ankidote/internal/ankerr"
	"github.com/ankidote/ankidote/internal/collection"
)

// concatFieldsPopulator concatenates several source fields into one target
// field, separated by a configurable separator, grounded on
// original_source/populators/concat_fields.py.
type concatFieldsPopulator struct {
	sourceFields []string
	targetField  string
	separator    string
}

// ConcatFieldsDescriptor returns the static metadata and constructor for
// the concat-fields populator.
func ConcatFieldsDescriptor() Descriptor {
	args := []ConfigArgument{
		{Name: "source_fields", Description: "List of fields to concatenate", Required: true},
		{Name: "target_field", Description: "Field to store the concatenated result", Required: true},
		{Name: "separator", Description: "Separator to use between fields", Required: false, Default: " "},
	}
	return Descriptor{
		Name: "concat-fields", Description: "Concatenate multiple fields into a target field",
		ConfigArgs: args,
		New: func(config map[string]any) (FieldPopulator, error) {
			if err := ApplyDefaults(args, config); err != nil {
				return nil, err
			}
			srcs, err := toStringSlice(config["source_fields"])
			if err != nil {
				return nil, err
			}
			tgt, _ := config["target_field"].(string)
			sep, _ := config["separator"].(string)
			return &concatFieldsPopulator{sourceFields: srcs, targetField: tgt, separator: sep}, nil
		},
	}
}

func toStringSlice(v any) ([]string, error) {
	switch vv := v.(type) {
	case []string:
		return vv, nil
	case []any:
		out := make([]string, 0, len(vv))
		for _, e := range vv {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("parsing source_fields: %w: expected string list", ankerr.ErrInvalidInput)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("parsing source_fields: %w: expected string list", ankerr.ErrInvalidInput)
	}
}

func (p *concatFieldsPopulator) Name() string       { return "concat-fields" }
func (p *concatFieldsPopulator) Description() string { return "Concatenate multiple fields into a target field" }
func (p *concatFieldsPopulator) ConfigArguments() []ConfigArgument {
	return ConcatFieldsDescriptor().ConfigArgs
}
func (p *concatFieldsPopulator) TargetFields() []string { return []string{p.targetField} }
func (p *concatFieldsPopulator) SupportsBatching() bool { return true }

func (p *concatFieldsPopulator) Validate(model *collection.Model) error {
	var missing []string
	for _, f := range p.sourceFields {
		if model.FieldByName(f) == nil {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("validating concat-fields: %w: source fields not found in model: %s", ankerr.ErrNotFound, strings.Join(missing, ", "))
	}
	return nil
}

func (p *concatFieldsPopulator) Populate(note *collection.Note) (map[string]string, error) {
	var missing []string
	for _, f := range p.sourceFields {
		if _, ok := note.Fields[f]; !ok {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("populating concat-fields: %w: source fields not found in note: %s", ankerr.ErrNotFound, strings.Join(missing, ", "))
	}
	values := make([]string, len(p.sourceFields))
	for i, f := range p.sourceFields {
		values[i] = note.Fields[f]
	}
	return map[string]string{p.targetField: strings.Join(values, p.separator)}, nil
}

func (p *concatFieldsPopulator) PopulateBatch(notes []*collection.Note) (map[collection.Id]map[string]string, error) {
	all := make(map[string]struct{})
	for _, n := range notes {
		for f := range n.Fields {
			all[f] = struct{}{}
		}
	}
	var missing []string
	for _, f := range p.sourceFields {
		if _, ok := all[f]; !ok {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("populating concat-fields batch: %w: source fields not found in any note: %s", ankerr.ErrNotFound, strings.Join(missing, ", "))
	}

	updates := make(map[collection.Id]map[string]string)
	for _, n := range notes {
		hasAll := true
		for _, f := range p.sourceFields {
			if _, ok := n.Fields[f]; !ok {
				hasAll = false
				break
			}
		}
		if !hasAll {
			continue
		}
		values := make([]string, len(p.sourceFields))
		for i, f := range p.sourceFields {
			values[i] = n.Fields[f]
		}
		updates[n.ID] = map[string]string{p.targetField: strings.Join(values, p.separator)}
	}
	return updates, nil
}
