// Package deck loads and validates the life-card deck the game draws from.
package deck

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Card types. Which types are drawable depends on round number and player
// progress; see engine.EligibleTypes.
const (
	TypePositive    = "positive"
	TypeNeutral     = "neutral"
	TypeNegativeOne = "negative_type_1"
	TypeNegativeTwo = "negative_type_2"
	TypeTemptation  = "temptation"
)

var knownTypes = map[string]struct{}{
	TypePositive:    {},
	TypeNeutral:     {},
	TypeNegativeOne: {},
	TypeNegativeTwo: {},
	TypeTemptation:  {},
}

// Option is one scripted response to a life card. Money is a signed delta
// (negative = cost), Wellbeing a signed delta, Time a cost in energy points.
type Option struct {
	Label     string `json:"label"`
	Money     int    `json:"money"`
	Wellbeing int    `json:"wellbeing"`
	Time      int    `json:"time"`
}

type Card struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Type        string   `json:"type,omitempty"`
	EFEligible  bool     `json:"ef_eligible,omitempty"`
	Options     []Option `json:"options"`
}

type Deck struct {
	Cards  []Card
	Digest string
}

const cardsSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "array",
  "minItems": 1,
  "items": {
    "type": "object",
    "required": ["title", "options"],
    "properties": {
      "title": {"type": "string", "minLength": 1},
      "description": {"type": "string"},
      "type": {"enum": ["positive", "neutral", "negative_type_1", "negative_type_2", "temptation"]},
      "ef_eligible": {"type": "boolean"},
      "options": {
        "type": "array",
        "minItems": 1,
        "items": {
          "type": "object",
          "required": ["label"],
          "properties": {
            "label": {"type": "string", "minLength": 1},
            "money": {"type": "integer"},
            "wellbeing": {"type": "integer"},
            "time": {"type": "integer"}
          }
        }
      }
    }
  }
}`

var compiledSchema = jsonschema.MustCompileString("cards.schema.json", cardsSchema)

// Load reads the deck file, validates it against the embedded schema and
// returns the parsed cards. The server refuses to start on any error here;
// operating on a partial deck is worse than not starting.
func Load(path string) (*Deck, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("deck unavailable: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Deck, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("deck: %w", err)
	}
	if err := compiledSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("deck: %w", err)
	}

	var cards []Card
	if err := json.Unmarshal(raw, &cards); err != nil {
		return nil, fmt.Errorf("deck: %w", err)
	}
	if len(cards) == 0 {
		return nil, fmt.Errorf("deck: no cards")
	}
	for i := range cards {
		if cards[i].Type == "" {
			cards[i].Type = TypeNeutral
		}
		if _, ok := knownTypes[cards[i].Type]; !ok {
			return nil, fmt.Errorf("deck: card %q: unknown type %q", cards[i].Title, cards[i].Type)
		}
	}

	sum := sha256.Sum256(raw)
	return &Deck{Cards: cards, Digest: hex.EncodeToString(sum[:])}, nil
}
