package card

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/louisbranch/decksim/internal/errors"
)

// ValidationRules bound what counts as a legal deck composition.
type ValidationRules struct {
	MinDeckSize int
	MaxDeckSize int // 0 means unbounded
	CopyLimit   int // maximum copies of a single card; 0 means unbounded
}

// DefaultRules are the deckbuilding limits used when a run request does not
// override them.
var DefaultRules = ValidationRules{
	MinDeckSize: 1,
	MaxDeckSize: 120,
	CopyLimit:   2,
}

// ValidateDeck checks a deck against composition rules before a run starts.
//
// All violations are collected and reported as one structured error; an
// invalid configuration is rejected outright, never silently truncated.
func ValidateDeck(d Deck, rules ValidationRules) error {
	if len(d.Entries) == 0 {
		return errors.New(errors.CodeDeckEmpty, "deck has no entries")
	}

	var violations []string
	var code errors.Code
	record := func(c errors.Code, msg string) {
		if code == "" {
			code = c
		}
		violations = append(violations, msg)
	}

	seen := make(map[string]bool, len(d.Entries))
	for _, e := range d.Entries {
		switch {
		case strings.TrimSpace(e.Card.ID) == "":
			record(errors.CodeCardEmptyID, "card with empty id")
		case seen[e.Card.ID]:
			record(errors.CodeDeckDuplicateEntry, fmt.Sprintf("card %s listed twice", e.Card.ID))
		default:
			seen[e.Card.ID] = true
		}

		if e.Quantity <= 0 {
			record(errors.CodeDeckInvalidQuantity, fmt.Sprintf("card %s quantity %d must be >= 1", e.Card.ID, e.Quantity))
		}
		if rules.CopyLimit > 0 && e.Quantity > rules.CopyLimit {
			record(errors.CodeDeckCopyLimit, fmt.Sprintf("card %s quantity %d exceeds copy limit %d", e.Card.ID, e.Quantity, rules.CopyLimit))
		}
		if e.Card.Cost < 0 {
			record(errors.CodeCardInvalidCost, fmt.Sprintf("card %s cost %d must be >= 0", e.Card.ID, e.Card.Cost))
		}
	}

	size := d.Size()
	if size < rules.MinDeckSize || (rules.MaxDeckSize > 0 && size > rules.MaxDeckSize) {
		record(errors.CodeDeckSizeOutOfRange, fmt.Sprintf("deck size %d outside [%d, %d]", size, rules.MinDeckSize, rules.MaxDeckSize))
	}

	if len(violations) == 0 {
		return nil
	}
	return errors.WithMetadata(code,
		"invalid deck composition: "+strings.Join(violations, "; "),
		map[string]string{
			"deck":       d.Name,
			"violations": strconv.Itoa(len(violations)),
		})
}

// ValidateInvestigator checks investigator starting configuration.
func ValidateInvestigator(inv Investigator) error {
	if inv.StartingResources < 0 {
		return errors.WithMetadata(errors.CodeInvestigatorInvalidResources,
			"starting resources must be >= 0",
			map[string]string{"resources": strconv.Itoa(inv.StartingResources)})
	}
	if inv.StartingHandSize < 0 {
		return errors.WithMetadata(errors.CodeInvestigatorInvalidHandSize,
			"starting hand size must be >= 0",
			map[string]string{"hand_size": strconv.Itoa(inv.StartingHandSize)})
	}
	return nil
}
