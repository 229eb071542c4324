package catalog

import (
	"errors"
	"strings"
	"testing"
)

func TestMergeCustomShadowsSeed(t *testing.T) {
	custom := []Food{
		{ID: "egg", Name: "Duck Egg", Unit: "1 egg", Kcal: 130},
		{ID: "oats", Name: "Oats", Unit: "40 g", Kcal: 150},
	}
	merged := Merge(custom)
	if len(merged) != len(Seed)+1 {
		t.Fatalf("expected %d foods, got %d", len(Seed)+1, len(merged))
	}
	egg, ok := Find(custom, "egg")
	if !ok || egg.Name != "Duck Egg" {
		t.Fatalf("custom egg should win, got %+v", egg)
	}
	count := 0
	for _, f := range merged {
		if f.ID == "egg" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("egg appears %d times", count)
	}
	if _, ok := Find(nil, "missing"); ok {
		t.Fatal("unexpected hit for missing id")
	}
}

func TestSearch(t *testing.T) {
	hits := Search(Merge(nil), "RICE")
	if len(hits) != 1 || hits[0].ID != "rice" {
		t.Fatalf("unexpected hits: %+v", hits)
	}
	if Search(Seed, "  ") != nil {
		t.Fatal("blank query should return nil")
	}
	if got := Search(Seed, "e"); len(got) < 3 {
		t.Fatalf("expected several hits for 'e', got %d", len(got))
	}
}

func TestValidate(t *testing.T) {
	if err := (Food{Name: " "}).Validate(); !errors.Is(err, ErrInvalidFood) {
		t.Fatalf("empty name: %v", err)
	}
	if err := (Food{Name: "x", Fat: -1}).Validate(); !errors.Is(err, ErrInvalidFood) {
		t.Fatalf("negative fat: %v", err)
	}
	if err := (Food{Name: "x", Kcal: 1e308}).Validate(); !errors.Is(err, ErrInvalidFood) {
		t.Fatalf("huge kcal: %v", err)
	}
	if err := (Food{Name: "x", Protein: MaxServingGrams + 1}).Validate(); !errors.Is(err, ErrInvalidFood) {
		t.Fatalf("huge protein: %v", err)
	}
	if err := (Food{Name: "x", Kcal: MaxServingKcal, Fat: MaxServingGrams}).Validate(); err != nil {
		t.Fatalf("values at the bounds: %v", err)
	}
	if err := Seed[0].Validate(); err != nil {
		t.Fatalf("seed egg invalid: %v", err)
	}
}

func TestParseHTMLTable(t *testing.T) {
	const page = `<html><body>
<table>
  <tr><th>id</th><th>name</th><th>unit</th><th>kcal</th><th>p</th><th>c</th><th>f</th></tr>
  <tr><td>oats</td><td> Rolled Oats </td><td>40 g</td><td>150</td><td>5</td><td>27</td><td>2,5</td></tr>
  <tr><td>bad</td><td>Broken</td><td>1</td><td>n/a</td><td>0</td><td>0</td><td>0</td></tr>
  <tr><td>short</td><td>Row</td></tr>
  <tr><td>dal</td><td>Dal</td><td>1 bowl</td><td>180</td><td>9</td><td>30</td><td>3</td></tr>
</table>
<table><tr><td>x</td><td>Ignored</td><td>u</td><td>1</td><td>1</td><td>1</td><td>1</td></tr></table>
</body></html>`

	foods, err := ParseHTMLTable(strings.NewReader(page))
	if err != nil {
		t.Fatalf("ParseHTMLTable: %v", err)
	}
	if len(foods) != 2 {
		t.Fatalf("expected 2 foods, got %d: %+v", len(foods), foods)
	}
	if foods[0].Name != "Rolled Oats" || foods[0].Fat != 2.5 {
		t.Fatalf("unexpected first food: %+v", foods[0])
	}
	if foods[1].ID != "dal" || foods[1].Kcal != 180 {
		t.Fatalf("unexpected second food: %+v", foods[1])
	}
}
