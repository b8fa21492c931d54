package planning

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
)

// BotanicalCharge is the weight of one botanical for a single still charge.
type BotanicalCharge struct {
	Name  string          `json:"name"`
	Grams decimal.Decimal `json:"weight_g"`
}

// RecipeTable maps a product name to its botanical charge.
type RecipeTable map[string][]BotanicalCharge

func charge(name string, grams int64) BotanicalCharge {
	return BotanicalCharge{Name: name, Grams: decimal.NewFromInt(grams)}
}

// DefaultRecipes returns the house gin recipes.
func DefaultRecipes() RecipeTable {
	return RecipeTable{
		"Rainforest Gin": {
			charge("Juniper Berries", 6360),
			charge("Coriander Seed", 1410),
			charge("Angelica Root", 175),
			charge("Cassia", 25),
			charge("Lemon Myrtle", 141),
			charge("Lemon Aspen", 71),
			charge("Grapefruit Peel", 567),
			charge("Macadamia", 102),
			charge("Orris Root", 71),
		},
		"Signature Dry Gin (Traditional)": {
			charge("Juniper Berries", 6400),
			charge("Coriander Seed", 1800),
			charge("Angelica Root", 180),
			charge("Orris Root", 90),
			charge("Orange Peel", 560),
			charge("Lemon Peel", 560),
			charge("Macadamia", 180),
			charge("Liquorice", 100),
			charge("Cardamom", 150),
			charge("Lavender", 100),
		},
		"Merchant Mae Gin": {
			charge("Juniper Berries", 6400),
			charge("Coriander Seed", 1800),
			charge("Angelica Root", 180),
			charge("Orris Root", 50),
			charge("Orange Peel", 380),
			charge("Lemon Peel", 380),
			charge("Liquorice", 100),
			charge("Cardamom", 150),
			charge("Chamomile", 50),
		},
	}
}

// LoadRecipes reads a recipe table from a JSON object of
// {"<product>": [{"name": "...", "weight_g": 123}, ...]}.
func LoadRecipes(path string) (RecipeTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read recipes: %w", err)
	}
	var table RecipeTable
	if err := json.Unmarshal(raw, &table); err != nil {
		return nil, fmt.Errorf("parse recipes %s: %w", path, err)
	}
	for product, charges := range table {
		for _, c := range charges {
			if c.Name == "" || !c.Grams.IsPositive() {
				return nil, fmt.Errorf("recipe %q: botanical %q needs a name and a positive weight", product, c.Name)
			}
		}
	}
	return table, nil
}
