package card

import (
	"testing"

	"github.com/louisbranch/decksim/internal/errors"
)

func testDeck(entries ...Entry) Deck {
	return Deck{Name: "test deck", Entries: entries}
}

func TestValidateDeck(t *testing.T) {
	rules := ValidationRules{MinDeckSize: 5, MaxDeckSize: 10, CopyLimit: 2}

	tests := []struct {
		name     string
		deck     Deck
		wantCode errors.Code
	}{
		{
			name: "valid deck",
			deck: testDeck(
				Entry{Card: Definition{ID: "a", Cost: 1}, Quantity: 2},
				Entry{Card: Definition{ID: "b", Cost: 0}, Quantity: 2},
				Entry{Card: Definition{ID: "c", Cost: 3}, Quantity: 1},
			),
			wantCode: "",
		},
		{
			name:     "empty deck",
			deck:     testDeck(),
			wantCode: errors.CodeDeckEmpty,
		},
		{
			name: "too small",
			deck: testDeck(
				Entry{Card: Definition{ID: "a"}, Quantity: 2},
			),
			wantCode: errors.CodeDeckSizeOutOfRange,
		},
		{
			name: "too large",
			deck: testDeck(
				Entry{Card: Definition{ID: "a"}, Quantity: 2},
				Entry{Card: Definition{ID: "b"}, Quantity: 2},
				Entry{Card: Definition{ID: "c"}, Quantity: 2},
				Entry{Card: Definition{ID: "d"}, Quantity: 2},
				Entry{Card: Definition{ID: "e"}, Quantity: 2},
				Entry{Card: Definition{ID: "f"}, Quantity: 2},
			),
			wantCode: errors.CodeDeckSizeOutOfRange,
		},
		{
			name: "copy limit exceeded",
			deck: testDeck(
				Entry{Card: Definition{ID: "a"}, Quantity: 3},
				Entry{Card: Definition{ID: "b"}, Quantity: 2},
			),
			wantCode: errors.CodeDeckCopyLimit,
		},
		{
			name: "zero quantity",
			deck: testDeck(
				Entry{Card: Definition{ID: "a"}, Quantity: 0},
				Entry{Card: Definition{ID: "b"}, Quantity: 2},
				Entry{Card: Definition{ID: "c"}, Quantity: 2},
				Entry{Card: Definition{ID: "d"}, Quantity: 2},
			),
			wantCode: errors.CodeDeckInvalidQuantity,
		},
		{
			name: "duplicate entry",
			deck: testDeck(
				Entry{Card: Definition{ID: "a"}, Quantity: 2},
				Entry{Card: Definition{ID: "a"}, Quantity: 2},
				Entry{Card: Definition{ID: "b"}, Quantity: 2},
			),
			wantCode: errors.CodeDeckDuplicateEntry,
		},
		{
			name: "empty card id",
			deck: testDeck(
				Entry{Card: Definition{ID: "  "}, Quantity: 2},
				Entry{Card: Definition{ID: "b"}, Quantity: 2},
				Entry{Card: Definition{ID: "c"}, Quantity: 2},
			),
			wantCode: errors.CodeCardEmptyID,
		},
		{
			name: "negative cost",
			deck: testDeck(
				Entry{Card: Definition{ID: "a", Cost: -1}, Quantity: 2},
				Entry{Card: Definition{ID: "b"}, Quantity: 2},
				Entry{Card: Definition{ID: "c"}, Quantity: 2},
			),
			wantCode: errors.CodeCardInvalidCost,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDeck(tt.deck, rules)
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("ValidateDeck() error = %v, want nil", err)
				}
				return
			}
			if !errors.IsCode(err, tt.wantCode) {
				t.Fatalf("ValidateDeck() error = %v, want code %s", err, tt.wantCode)
			}
		})
	}
}

func TestValidateDeck_UnboundedLimits(t *testing.T) {
	deck := testDeck(Entry{Card: Definition{ID: "a"}, Quantity: 40})
	rules := ValidationRules{MinDeckSize: 1}

	if err := ValidateDeck(deck, rules); err != nil {
		t.Fatalf("ValidateDeck() with unbounded limits error = %v", err)
	}
}

func TestValidateInvestigator(t *testing.T) {
	if err := ValidateInvestigator(Investigator{StartingResources: 5, StartingHandSize: 5}); err != nil {
		t.Fatalf("valid investigator rejected: %v", err)
	}
	err := ValidateInvestigator(Investigator{StartingResources: -1})
	if !errors.IsCode(err, errors.CodeInvestigatorInvalidResources) {
		t.Fatalf("error = %v, want INVESTIGATOR_INVALID_RESOURCES", err)
	}
	err = ValidateInvestigator(Investigator{StartingHandSize: -1})
	if !errors.IsCode(err, errors.CodeInvestigatorInvalidHandSize) {
		t.Fatalf("error = %v, want INVESTIGATOR_INVALID_HAND_SIZE", err)
	}
}

func TestDeckCardsExpansion(t *testing.T) {
	deck := testDeck(
		Entry{Card: Definition{ID: "a"}, Quantity: 2},
		Entry{Card: Definition{ID: "b"}, Quantity: 1},
	)

	cards := deck.Cards()
	if len(cards) != 3 {
		t.Fatalf("Cards() returned %d cards, want 3", len(cards))
	}
	wantIDs := []string{"a", "a", "b"}
	for i, c := range cards {
		if c.ID != wantIDs[i] {
			t.Errorf("Cards()[%d].ID = %s, want %s", i, c.ID, wantIDs[i])
		}
	}
}

func TestHasTrait(t *testing.T) {
	c := Definition{ID: "knife", Traits: []string{"item", "weapon"}}
	if !c.HasTrait("weapon") {
		t.Error("expected weapon trait")
	}
	if c.HasTrait("spell") {
		t.Error("unexpected spell trait")
	}
}
