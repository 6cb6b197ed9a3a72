package write

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ankidote/ankidote/internal/ankerr"
	"github.com/ankidote/ankidote/internal/changelog"
	"github.com/ankidote/ankidote/internal/collection"
	"github.com/ankidote/ankidote/internal/operation"
	"github.com/ankidote/ankidote/internal/printer"
)

// DivideDecksByTagsOperation splits the cards of a source deck into
// several target decks, grouped by episode-number ranges extracted from
// note tags, grounded on
// original_source/anki_terminal/ops/write/divide_decks.py.
type DivideDecksByTagsOperation struct {
	operation.Base
	changes []changelog.Change
}

// NewDivideDecksByTagsOperation constructs a divide-decks-by-tags
// operation.
func NewDivideDecksByTagsOperation(p printer.OperationPrinter, kwargs map[string]any) (operation.Operation, error) {
	b, err := operation.NewBase("divide-decks-by-tags", "Divide cards into multiple decks based on note tags", false,
		[]operation.Argument{
			{Name: "source_deck", Description: "Name of the source deck containing all cards", Required: true},
			{Name: "tag_prefix", Description: "Prefix of the tags to use for dividing (e.g. 'Episode')", Required: true},
			{Name: "tag_pattern", Description: "Regular expression pattern to extract episode numbers from tags", Required: true},
			{Name: "episodes_per_deck", Description: "Number of episodes to include in each deck", Required: true},
			{Name: "target_deck_prefix", Description: "Prefix for the target deck names", Required: false, Default: ""},
		}, p, kwargs)
	if err != nil {
		return nil, err
	}
	return &DivideDecksByTagsOperation{Base: b}, nil
}

func (o *DivideDecksByTagsOperation) Validate(coll *collection.Collection) error {
	if err := o.ValidateCommon(coll); err != nil {
		return err
	}
	sourceDeckName, _ := o.Args["source_deck"].(string)
	if coll.DeckByName(sourceDeckName) == nil {
		return fmt.Errorf("source deck %q not found: %w", sourceDeckName, ankerr.ErrNotFound)
	}
	pattern, _ := o.Args["tag_pattern"].(string)
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid regular expression pattern: %v: %w", err, ankerr.ErrInvalidInput)
	}
	if re.NumSubexp() == 0 {
		return fmt.Errorf("tag pattern must contain at least one capture group: %w", ankerr.ErrInvalidInput)
	}
	episodesPerDeck, _ := o.Args["episodes_per_deck"].(int)
	if episodesPerDeck <= 0 {
		return fmt.Errorf("episodes per deck must be a positive integer: %w", ankerr.ErrInvalidInput)
	}
	return nil
}

func (o *DivideDecksByTagsOperation) getOrCreateDeck(name string) *collection.Deck {
	if d := o.Collection.DeckByName(name); d != nil {
		return d
	}
	deckID := o.Collection.NextDeckID()
	d := &collection.Deck{
		ID: deckID, Name: name, ModTime: time.Now(), USN: -1, ConfID: 1,
		NewToday: collection.TodayCounter{}, ReviewToday: collection.TodayCounter{},
		LearnToday: collection.TodayCounter{}, TimeToday: collection.TodayCounter{},
	}
	o.Collection.Decks[deckID] = d
	o.changes = append(o.changes, changelog.DeckCreatedChange(o.Collection.Decks))
	return d
}

func (o *DivideDecksByTagsOperation) episodeNumber(tagPattern, tag string) (int, bool) {
	re := regexp.MustCompile(tagPattern)
	m := re.FindStringSubmatch(tag)
	if m == nil || len(m) < 2 {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

func (o *DivideDecksByTagsOperation) episodeRangeForCard(c *collection.Card, tagPrefix, tagPattern string) (int, int, bool) {
	n := o.Collection.Notes[c.NoteID]
	if n == nil {
		return 0, 0, false
	}
	var numbers []int
	prefix := tagPrefix + "_"
	for _, tag := range n.Tags {
		if strings.HasPrefix(tag, prefix) {
			if num, ok := o.episodeNumber(tagPattern, tag); ok {
				numbers = append(numbers, num)
			}
		}
	}
	if len(numbers) == 0 {
		return 0, 0, false
	}
	sort.Ints(numbers)
	return numbers[0], numbers[len(numbers)-1], true
}

func (o *DivideDecksByTagsOperation) targetDeckName(minEp int, sourceDeck, targetPrefix string, episodesPerDeck int) string {
	deckIndex := (minEp - 1) / episodesPerDeck
	start := deckIndex*episodesPerDeck + 1
	end := (deckIndex + 1) * episodesPerDeck
	prefix := targetPrefix
	if prefix == "" {
		prefix = sourceDeck
	}
	return fmt.Sprintf("%s %d-%d", prefix, start, end)
}

func (o *DivideDecksByTagsOperation) Execute() (operation.Result, error) {
	sourceDeckName, _ := o.Args["source_deck"].(string)
	tagPrefix, _ := o.Args["tag_prefix"].(string)
	tagPattern, _ := o.Args["tag_pattern"].(string)
	episodesPerDeck, _ := o.Args["episodes_per_deck"].(int)
	targetDeckPrefix, _ := o.Args["target_deck_prefix"].(string)

	sourceDeck := o.Collection.DeckByName(sourceDeckName)

	var sourceCards []*collection.Card
	for _, c := range o.Collection.Cards {
		if c.DeckID == sourceDeck.ID {
			sourceCards = append(sourceCards, c)
		}
	}

	cardsByDeck := make(map[string][]*collection.Card)
	skipped := 0
	for _, c := range sourceCards {
		minEp, _, ok := o.episodeRangeForCard(c, tagPrefix, tagPattern)
		if !ok {
			skipped++
			continue
		}
		target := o.targetDeckName(minEp, sourceDeckName, targetDeckPrefix, episodesPerDeck)
		cardsByDeck[target] = append(cardsByDeck[target], c)
	}

	deckNames := make([]string, 0, len(cardsByDeck))
	for name := range cardsByDeck {
		deckNames = append(deckNames, name)
	}
	sort.Strings(deckNames)

	moved := 0
	for _, name := range deckNames {
		target := o.getOrCreateDeck(name)
		for _, c := range cardsByDeck[name] {
			c.DeckID = target.ID
			o.changes = append(o.changes, changelog.CardMovedChange(c.ID, sourceDeck.ID, target.ID))
			moved++
		}
	}

	return operation.Result{
		Success: true,
		Message: fmt.Sprintf("Moved %d cards to %d decks, skipped %d cards", moved, len(cardsByDeck), skipped),
		Changes: o.changes,
	}, nil
}
