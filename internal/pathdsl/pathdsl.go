// Package pathdsl implements the Anki path mini-language of spec.md §5,
// grounded on original_source/anki_terminal/ops/anki_path.py.
//
//	/models                       - all models
//	/models/Basic                 - the Basic model
//	/models/Basic/fields          - all fields in Basic
//	/models/Basic/fields/Front    - the Front field in Basic
//	/models/Basic/templates       - all templates in Basic
//	/models/Basic/templates/Card1 - the Card1 template in Basic
//	/models/Basic/css             - CSS for Basic
//	/models/Basic/example         - an example note for Basic
//	/cards                        - all cards
//	/cards/Basic                  - cards of notes using Basic
//	/notes                        - all notes
//	/notes/Basic                  - notes using Basic
package pathdsl

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ankidote/ankidote/internal/ankerr"
)

var pathRegex = regexp.MustCompile(`^/(?:models(?:/([^/]+)(?:/(?:fields|templates|css|example)(?:/([^/]+))?)?)?|(?:cards|notes)(?:/([^/]+))?)$`)

// Path is a parsed Anki path.
type Path struct {
	Raw        string
	ObjectType string // models, model, fields, templates, css, example, cards, notes
	ModelName  string
	ItemType   string // field, template, or ""
	ItemName   string
}

// Parse parses an Anki path string, returning ErrInvalidInput if it does
// not match the path grammar.
func Parse(path string) (*Path, error) {
	m := pathRegex.FindStringSubmatch(path)
	if m == nil {
		return nil, fmt.Errorf("parsing path %q: %w", path, ankerr.ErrInvalidInput)
	}
	modelName, itemName, collectionFilter := m[1], m[2], m[3]

	p := &Path{Raw: path}
	switch {
	case strings.HasPrefix(path, "/models"):
		switch {
		case modelName == "":
			p.ObjectType = "models"
		case strings.Contains(path, "/fields"):
			p.ModelName = modelName
			p.ObjectType = "fields"
			if itemName != "" {
				p.ItemType = "field"
				p.ItemName = itemName
			}
		case strings.Contains(path, "/templates"):
			p.ModelName = modelName
			p.ObjectType = "templates"
			if itemName != "" {
				p.ItemType = "template"
				p.ItemName = itemName
			}
		case strings.Contains(path, "/css"):
			p.ObjectType = "css"
			p.ModelName = modelName
		case strings.Contains(path, "/example"):
			p.ObjectType = "example"
			p.ModelName = modelName
		default:
			p.ObjectType = "model"
			p.ModelName = modelName
		}
	case strings.HasPrefix(path, "/cards"):
		p.ObjectType = "cards"
		p.ModelName = collectionFilter
	case strings.HasPrefix(path, "/notes"):
		p.ObjectType = "notes"
		p.ModelName = collectionFilter
	default:
		return nil, fmt.Errorf("parsing path %q: %w", path, ankerr.ErrInvalidInput)
	}
	return p, nil
}

// IsCollection reports whether the path refers to a collection of objects.
func (p *Path) IsCollection() bool {
	switch p.ObjectType {
	case "models", "fields", "templates", "cards", "notes":
		return p.ItemName == ""
	}
	return false
}

// IsItem reports whether the path refers to one specific item.
func (p *Path) IsItem() bool {
	if p.ItemName != "" {
		return true
	}
	switch p.ObjectType {
	case "model", "css", "example":
		return true
	}
	return false
}

func (p *Path) String() string { return p.Raw }
