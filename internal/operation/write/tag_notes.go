package write

import (
	"fmt"
	"regexp"

	"github.com/ankidote/ankidote/internal/ankerr"
	"github.com/ankidote/ankidote/internal/changelog"
	"github.com/ankidote/ankidote/internal/collection"
	"github.com/ankidote/ankidote/internal/operation"
	"github.com/ankidote/ankidote/internal/printer"
)

// TagNotesOperation tags notes by extracting capture groups from a field
// via a regular expression, grounded on
// original_source/anki_terminal/ops/write/tag_notes.py.
type TagNotesOperation struct {
	operation.Base
}

// NewTagNotesOperation constructs a tag-notes operation.
func NewTagNotesOperation(p printer.OperationPrinter, kwargs map[string]any) (operation.Operation, error) {
	b, err := operation.NewBase("tag-notes", "Tag notes based on field data using a regular expression pattern", false,
		[]operation.Argument{
			{Name: "model", Description: "Name of the model to tag notes in", Required: true},
			{Name: "source_field", Description: "Field containing the data to extract tags from", Required: true},
			{Name: "pattern", Description: "Regular expression pattern to extract tags; must contain a capture group", Required: true},
			{Name: "tag_prefix", Description: "Prefix to add to extracted tags", Required: false, Default: ""},
		}, p, kwargs)
	if err != nil {
		return nil, err
	}
	return &TagNotesOperation{Base: b}, nil
}

func (o *TagNotesOperation) Validate(coll *collection.Collection) error {
	if err := o.ValidateCommon(coll); err != nil {
		return err
	}
	modelName, _ := o.Args["model"].(string)
	model, err := o.GetModel(modelName)
	if err != nil {
		return err
	}
	sourceField, _ := o.Args["source_field"].(string)
	if model.FieldByName(sourceField) == nil {
		return fmt.Errorf("source field %q not found in model: %w", sourceField, ankerr.ErrNotFound)
	}
	pattern, _ := o.Args["pattern"].(string)
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid regular expression pattern: %v: %w", err, ankerr.ErrInvalidInput)
	}
	if re.NumSubexp() == 0 {
		return fmt.Errorf("pattern must contain at least one capture group: %w", ankerr.ErrInvalidInput)
	}
	return nil
}

func (o *TagNotesOperation) Execute() (operation.Result, error) {
	modelName, _ := o.Args["model"].(string)
	model, err := o.GetModel(modelName)
	if err != nil {
		return operation.Result{}, err
	}
	sourceField, _ := o.Args["source_field"].(string)
	pattern, _ := o.Args["pattern"].(string)
	tagPrefix, _ := o.Args["tag_prefix"].(string)
	re := regexp.MustCompile(pattern)

	var notesToTag []*collection.Note
	for _, n := range o.Collection.Notes {
		if n.ModelID == model.ID {
			if _, ok := n.Fields[sourceField]; ok {
				notesToTag = append(notesToTag, n)
			}
		}
	}

	if len(notesToTag) == 0 {
		return operation.Result{
			Success: true,
			Message: fmt.Sprintf("No notes found for model '%s' with field '%s'", model.Name, sourceField),
		}, nil
	}

	var changes []changelog.Change
	tagsAdded, notesTagged := 0, 0

	for _, n := range notesToTag {
		matches := re.FindAllStringSubmatch(n.Fields[sourceField], -1)
		if len(matches) == 0 {
			continue
		}

		var extracted []string
		for _, m := range matches {
			for _, group := range m[1:] {
				if group != "" {
					extracted = append(extracted, tagPrefix+group)
				}
			}
		}
		if len(extracted) == 0 {
			continue
		}

		existing := make(map[string]bool, len(n.Tags))
		for _, t := range n.Tags {
			existing[t] = true
		}
		originalCount := len(n.Tags)
		for _, t := range extracted {
			if !existing[t] {
				existing[t] = true
				n.Tags = append(n.Tags, t)
			}
		}

		if len(n.Tags) > originalCount {
			tagsAdded += len(n.Tags) - originalCount
			notesTagged++
			changes = append(changes, changelog.NoteTagsUpdatedChange(n.ID, model.ID, n.Tags))
		}
	}

	return operation.Result{
		Success: true,
		Message: fmt.Sprintf("Added %d tags to %d notes", tagsAdded, notesTagged),
		Changes: changes,
	}, nil
}
