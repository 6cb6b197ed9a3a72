package populator

import (
	"fmt"

	"github.com/ankidote/ankidote/internal/ankerr"
	"github.com/ankidote/ankidote/internal/collection"
)

// copyFieldPopulator copies the value of one field into another, grounded
// on original_source/populators/copy_field.py.
type copyFieldPopulator struct {
	sourceField string
	targetField string
}

// CopyFieldDescriptor returns the static metadata and constructor for the
// copy-field populator.
func CopyFieldDescriptor() Descriptor {
	args := []ConfigArgument{
		{Name: "source_field", Description: "Field to copy from", Required: true},
		{Name: "target_field", Description: "Field to copy into", Required: true},
	}
	return Descriptor{
		Name: "copy-field", Description: "Copy values from one field to another",
		ConfigArgs: args,
		New: func(config map[string]any) (FieldPopulator, error) {
			if err := ApplyDefaults(args, config); err != nil {
				return nil, err
			}
			src, _ := config["source_field"].(string)
			tgt, _ := config["target_field"].(string)
			return &copyFieldPopulator{sourceField: src, targetField: tgt}, nil
		},
	}
}

func (p *copyFieldPopulator) Name() string        { return "copy-field" }
func (p *copyFieldPopulator) Description() string  { return "Copy values from one field to another" }
func (p *copyFieldPopulator) ConfigArguments() []ConfigArgument {
	return CopyFieldDescriptor().ConfigArgs
}
func (p *copyFieldPopulator) TargetFields() []string { return []string{p.targetField} }
func (p *copyFieldPopulator) SupportsBatching() bool { return false }

func (p *copyFieldPopulator) Validate(model *collection.Model) error {
	if model.FieldByName(p.sourceField) == nil {
		return fmt.Errorf("validating copy-field: %w: source field %q not in model", ankerr.ErrNotFound, p.sourceField)
	}
	if model.FieldByName(p.targetField) == nil {
		return fmt.Errorf("validating copy-field: %w: target field %q not in model", ankerr.ErrNotFound, p.targetField)
	}
	return nil
}

func (p *copyFieldPopulator) Populate(note *collection.Note) (map[string]string, error) {
	v, ok := note.Fields[p.sourceField]
	if !ok {
		return nil, fmt.Errorf("populating copy-field: %w: source field %q not found in note", ankerr.ErrNotFound, p.sourceField)
	}
	return map[string]string{p.targetField: v}, nil
}

func (p *copyFieldPopulator) PopulateBatch(notes []*collection.Note) (map[collection.Id]map[string]string, error) {
	return nil, fmt.Errorf("populating copy-field batch: %w: copy-field does not support batching", ankerr.ErrInvalidInput)
}
