// Package read implements the read-only operations of spec.md §4.4:
// list, count, get, and birds-eye-view.
package read

import (
	"fmt"
	"sort"

	"github.com/ankidote/ankidote/internal/ankerr"
	"github.com/ankidote/ankidote/internal/collection"
	"github.com/ankidote/ankidote/internal/operation"
	"github.com/ankidote/ankidote/internal/pathdsl"
	"github.com/ankidote/ankidote/internal/printer"
)

// pathBase is embedded by every operation whose path argument is resolved
// through the Anki path mini-language, grounded on
// original_source/anki_terminal/ops/read/path_operation.py.
type pathBase struct {
	operation.Base
	Path *pathdsl.Path
}

func newPathBase(name, description string, extraArgs []operation.Argument, p printer.OperationPrinter, kwargs map[string]any) (pathBase, error) {
	args := append([]operation.Argument{
		{Name: "path", Description: "Path to the Anki object(s)", Required: true},
	}, extraArgs...)
	b, err := operation.NewBase(name, description, true, args, p, kwargs)
	if err != nil {
		return pathBase{}, err
	}
	return pathBase{Base: b}, nil
}

func (pb *pathBase) validatePath(coll *collection.Collection) error {
	if err := pb.ValidateCommon(coll); err != nil {
		return err
	}
	raw, _ := pb.Args["path"].(string)
	p, err := pathdsl.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}
	pb.Path = p
	if pb.Path.ModelName != "" {
		if _, err := pb.GetModel(pb.Path.ModelName); err != nil {
			return err
		}
	}
	return nil
}

func modelIDs(coll *collection.Collection) []collection.Id {
	ids := make([]collection.Id, 0, len(coll.Models))
	for id := range coll.Models {
		ids = append(ids, id)
	}
	sortIDs(ids)
	return ids
}

func noteIDs(coll *collection.Collection) []collection.Id {
	ids := make([]collection.Id, 0, len(coll.Notes))
	for id := range coll.Notes {
		ids = append(ids, id)
	}
	sortIDs(ids)
	return ids
}

func cardIDs(coll *collection.Collection) []collection.Id {
	ids := make([]collection.Id, 0, len(coll.Cards))
	for id := range coll.Cards {
		ids = append(ids, id)
	}
	sortIDs(ids)
	return ids
}

func deckIDs(coll *collection.Collection) []collection.Id {
	ids := make([]collection.Id, 0, len(coll.Decks))
	for id := range coll.Decks {
		ids = append(ids, id)
	}
	sortIDs(ids)
	return ids
}

func sortIDs(ids []collection.Id) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}

var errPathNotCollection = fmt.Errorf("%w: path must refer to a collection of objects", ankerr.ErrInvalidInput)
var errPathNotItem = fmt.Errorf("%w: path must refer to a specific item", ankerr.ErrInvalidInput)

func truncate(s string) string {
	r := []rune(s)
	if len(r) > 100 {
		return string(r[:97]) + "..."
	}
	return s
}
