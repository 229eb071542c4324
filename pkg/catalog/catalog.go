package catalog

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var ErrInvalidFood = errors.New("invalid food")

// Per-serving upper bounds accepted by Validate.
const (
	MaxServingKcal  = 10000.0
	MaxServingGrams = 1000.0
)

// Food holds per-serving nutrition values.
type Food struct {
	ID      string  `json:"id" yaml:"id"`
	Name    string  `json:"name" yaml:"name"`
	Unit    string  `json:"unit" yaml:"unit"`
	Kcal    float64 `json:"kcal" yaml:"kcal"`
	Protein float64 `json:"protein" yaml:"protein"`
	Carb    float64 `json:"carb" yaml:"carb"`
	Fat     float64 `json:"fat" yaml:"fat"`
}

// Seed is the built-in read-only food list.
var Seed = []Food{
	{ID: "egg", Name: "Boiled Egg", Unit: "1 egg", Kcal: 78, Protein: 6, Carb: 0, Fat: 5},
	{ID: "chick", Name: "Chicken Breast (150g)", Unit: "150 g", Kcal: 250, Protein: 45, Carb: 0, Fat: 6},
	{ID: "rice", Name: "White Rice (1 cup)", Unit: "1 cup", Kcal: 205, Protein: 4, Carb: 44, Fat: 0},
	{ID: "roti", Name: "Roti / Chapati", Unit: "1 piece", Kcal: 70, Protein: 3, Carb: 15, Fat: 0.5},
	{ID: "paneer", Name: "Paneer (100g)", Unit: "100 g", Kcal: 265, Protein: 18, Carb: 4, Fat: 20},
}

// Validate checks a user-supplied food.
func (f Food) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidFood)
	}
	for _, v := range []float64{f.Kcal, f.Protein, f.Carb, f.Fat} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: nutrition values must be non-negative numbers", ErrInvalidFood)
		}
	}
	if f.Kcal > MaxServingKcal {
		return fmt.Errorf("%w: more than %.0f kcal per serving", ErrInvalidFood, MaxServingKcal)
	}
	for _, v := range []float64{f.Protein, f.Carb, f.Fat} {
		if v > MaxServingGrams {
			return fmt.Errorf("%w: more than %.0f g of a macro per serving", ErrInvalidFood, MaxServingGrams)
		}
	}
	return nil
}

// Merge returns custom foods followed by seed foods. A custom food shadows a
// seed food with the same id.
func Merge(custom []Food) []Food {
	out := make([]Food, 0, len(custom)+len(Seed))
	seen := make(map[string]bool, len(custom))
	for _, f := range custom {
		if seen[f.ID] {
			continue
		}
		seen[f.ID] = true
		out = append(out, f)
	}
	for _, f := range Seed {
		if !seen[f.ID] {
			out = append(out, f)
		}
	}
	return out
}

// Find looks id up in the merged catalog.
func Find(custom []Food, id string) (Food, bool) {
	for _, f := range custom {
		if f.ID == id {
			return f, true
		}
	}
	for _, f := range Seed {
		if f.ID == id {
			return f, true
		}
	}
	return Food{}, false
}

// Search returns the foods whose name contains q, ignoring case.
func Search(foods []Food, q string) []Food {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return nil
	}
	var hits []Food
	for _, f := range foods {
		if strings.Contains(strings.ToLower(f.Name), q) {
			hits = append(hits, f)
		}
	}
	return hits
}
