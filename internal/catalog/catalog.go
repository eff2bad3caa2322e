// Package catalog loads card catalogs and deck lists from YAML files and
// translates them into runnable card definitions.
//
// Loading is strict: unknown effect, predicate, and selector kinds are
// rejected here, at load time, with every violation in the file collected
// into one structured error. Card data that survives loading can be resolved
// by the engine without runtime surprises.
package catalog

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/louisbranch/decksim/internal/core/card"
	"github.com/louisbranch/decksim/internal/errors"
)

// Catalog is an in-memory card resolver: card id to definition, synchronous.
// An unresolved id is a configuration error, never a retryable condition.
type Catalog struct {
	cards map[string]card.Definition
}

// Load reads and validates a YAML card catalog.
func Load(path string) (*Catalog, error) {
	var file catalogFile
	if err := readYAML(path, &file); err != nil {
		return nil, err
	}

	var v violations
	cards := make(map[string]card.Definition, len(file.Cards))
	for i, raw := range file.Cards {
		at := fmt.Sprintf("cards[%d]", i)
		if raw.ID == "" {
			v.add(errors.CodeCardEmptyID, "%s: missing id", at)
			continue
		}
		if _, dup := cards[raw.ID]; dup {
			v.add(errors.CodeCatalogInvalid, "%s: duplicate card id %q", at, raw.ID)
			continue
		}
		if raw.Cost < 0 {
			v.add(errors.CodeCardInvalidCost, "%s: cost %d must be >= 0", at, raw.Cost)
			continue
		}
		cards[raw.ID] = card.Definition{
			ID:     raw.ID,
			Name:   raw.Name,
			Cost:   raw.Cost,
			Traits: raw.Traits,
			Effect: translateEffect(at+".effect", raw.Effect, &v),
		}
	}
	if err := v.err(path); err != nil {
		return nil, err
	}
	return &Catalog{cards: cards}, nil
}

// Resolve returns the definition for a card id.
func (c *Catalog) Resolve(id string) (card.Definition, error) {
	def, ok := c.cards[id]
	if !ok {
		return card.Definition{}, errors.WithMetadata(errors.CodeCardUnresolved,
			"card id not in catalog",
			map[string]string{"card_id": id})
	}
	return def, nil
}

// Len returns the number of cards in the catalog.
func (c *Catalog) Len() int { return len(c.cards) }

// IDs returns all card ids in sorted order.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.cards))
	for id := range c.cards {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// DeckList is a deck file resolved against a catalog, with its optional
// investigator and scenario sections.
type DeckList struct {
	Deck         card.Deck
	Investigator card.Investigator
	Scenario     card.Scenario
}

// LoadDeck reads a YAML deck list and resolves every card id against the
// catalog. Unresolved ids are collected and reported together.
func LoadDeck(path string, cat *Catalog) (DeckList, error) {
	var file deckFile
	if err := readYAML(path, &file); err != nil {
		return DeckList{}, err
	}

	var v violations
	deck := card.Deck{Name: file.Name}
	for i, entry := range file.Cards {
		at := fmt.Sprintf("cards[%d]", i)
		if entry.ID == "" {
			v.add(errors.CodeCardEmptyID, "%s: missing id", at)
			continue
		}
		def, err := cat.Resolve(entry.ID)
		if err != nil {
			v.add(errors.CodeCardUnresolved, "%s: card id %q not in catalog", at, entry.ID)
			continue
		}
		qty := entry.Quantity
		if qty == 0 {
			qty = 1
		}
		deck.Entries = append(deck.Entries, card.Entry{Card: def, Quantity: qty})
	}

	list := DeckList{Deck: deck}
	if inv := file.Investigator; inv != nil {
		list.Investigator = card.Investigator{
			Name:              inv.Name,
			StartingResources: inv.StartingResources,
			StartingHandSize:  inv.StartingHandSize,
		}
		for i := range inv.SpecialRules {
			at := fmt.Sprintf("investigator.special_rules[%d]", i)
			if eff := translateEffect(at, &inv.SpecialRules[i], &v); eff != nil {
				list.Investigator.SpecialRules = append(list.Investigator.SpecialRules, eff)
			}
		}
	}
	if scen := file.Scenario; scen != nil {
		list.Scenario = card.Scenario{
			Name:           scen.Name,
			BonusResources: scen.BonusResources,
			BonusHandSize:  scen.BonusHandSize,
			StartingFlags:  scen.StartingFlags,
		}
	}

	if err := v.err(path); err != nil {
		return DeckList{}, err
	}
	return list, nil
}

// readYAML decodes one YAML document with strict field checking, so a typoed
// key fails loudly instead of silently dropping configuration.
func readYAML(path string, out any) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.WithMetadata(errors.CodeCatalogNotFound,
				"catalog file not found",
				map[string]string{"path": path})
		}
		return errors.Wrap(errors.CodeCatalogInvalid, "read catalog file", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return errors.Wrap(errors.CodeCatalogInvalid, "decode catalog file", err)
	}
	return nil
}
