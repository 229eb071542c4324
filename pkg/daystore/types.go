package daystore

import (
	"fmt"
	"strings"
	"time"

	"github.com/m72elite/m72/pkg/calendar"
	"github.com/m72elite/m72/pkg/catalog"
)

// CurrentSchemaVersion is written by Migrate.
// 0 - browser shape (settings.goal, meal, weight, short log fields)
// 1 - explicit field names, macros on log entries
const CurrentSchemaVersion = 1

// Meal selects which subset of a day's logs is shown.
type Meal string

const (
	Breakfast Meal = "Breakfast"
	Lunch     Meal = "Lunch"
	Snack     Meal = "Snack"
	Dinner    Meal = "Dinner"
)

// Meals in display order.
var Meals = []Meal{Breakfast, Lunch, Snack, Dinner}

// ParseMeal matches a meal name case-insensitively.
func ParseMeal(s string) (Meal, error) {
	for _, m := range Meals {
		if strings.EqualFold(string(m), strings.TrimSpace(s)) {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMeal, s)
}

func (m Meal) valid() bool {
	for _, x := range Meals {
		if m == x {
			return true
		}
	}
	return false
}

// Settings are the user's goals and sync target.
type Settings struct {
	CalorieGoal   float64 `json:"calorieGoal" yaml:"calorieGoal"`
	ProteinTarget float64 `json:"proteinTarget" yaml:"proteinTarget"`
	CarbTarget    float64 `json:"carbTarget" yaml:"carbTarget"`
	FatTarget     float64 `json:"fatTarget" yaml:"fatTarget"`
	SyncURL       string  `json:"syncUrl" yaml:"syncUrl"`
	SyncToken     string  `json:"syncToken" yaml:"syncToken"`
}

// LogEntry is a food eaten in a meal. Name, unit and nutrition values are
// snapshots taken when the entry was written.
type LogEntry struct {
	ID        string    `json:"id" yaml:"id"`
	FoodID    string    `json:"foodId" yaml:"foodId"`
	Name      string    `json:"name" yaml:"name"`
	Unit      string    `json:"unit" yaml:"unit"`
	Meal      Meal      `json:"meal" yaml:"meal"`
	Quantity  float64   `json:"qty" yaml:"qty"`
	Kcal      float64   `json:"kcal" yaml:"kcal"`
	Protein   float64   `json:"protein" yaml:"protein"`
	Carb      float64   `json:"carb" yaml:"carb"`
	Fat       float64   `json:"fat" yaml:"fat"`
	Timestamp time.Time `json:"ts" yaml:"ts"`
}

// DayRecord holds everything logged for one date key.
type DayRecord struct {
	Logs       []LogEntry `json:"logs" yaml:"logs"`
	WaterUnits int        `json:"water" yaml:"water"`
	BurnKcal   float64    `json:"burn" yaml:"burn"`
}

func newDayRecord() *DayRecord {
	return &DayRecord{Logs: []LogEntry{}}
}

// Document is the whole persisted state.
type Document struct {
	SchemaVersion   int                   `json:"schemaVersion" yaml:"schemaVersion"`
	Settings        Settings              `json:"settings" yaml:"settings"`
	ActiveMeal      Meal                  `json:"activeMeal" yaml:"activeMeal"`
	SelectedDate    string                `json:"selectedDate" yaml:"selectedDate"`
	FavoriteFoodIDs []string              `json:"favoriteFoodIds" yaml:"favoriteFoodIds"`
	CustomFoods     []catalog.Food        `json:"customFoods" yaml:"customFoods"`
	Days            map[string]*DayRecord `json:"days" yaml:"days"`
	WeightHistory   map[string]float64    `json:"weightHistory" yaml:"weightHistory"`
}

// DefaultSettings returns the settings of a fresh document.
func DefaultSettings() Settings {
	return Settings{
		CalorieGoal:   1650,
		ProteinTarget: 140,
		CarbTarget:    150,
		FatTarget:     55,
	}
}

// Default returns a fresh document with today selected.
func Default(today calendar.Date) *Document {
	return &Document{
		SchemaVersion:   CurrentSchemaVersion,
		Settings:        DefaultSettings(),
		ActiveMeal:      Breakfast,
		SelectedDate:    today.String(),
		FavoriteFoodIDs: []string{},
		CustomFoods:     []catalog.Food{},
		Days:            map[string]*DayRecord{},
		WeightHistory:   map[string]float64{},
	}
}

// clone returns a deep copy of d.
func (d *Document) clone() *Document {
	cp := *d
	cp.FavoriteFoodIDs = append([]string{}, d.FavoriteFoodIDs...)
	cp.CustomFoods = append([]catalog.Food{}, d.CustomFoods...)
	cp.Days = make(map[string]*DayRecord, len(d.Days))
	for k, day := range d.Days {
		if day == nil {
			cp.Days[k] = nil
			continue
		}
		rec := *day
		rec.Logs = append([]LogEntry{}, day.Logs...)
		cp.Days[k] = &rec
	}
	cp.WeightHistory = make(map[string]float64, len(d.WeightHistory))
	for k, v := range d.WeightHistory {
		cp.WeightHistory[k] = v
	}
	return &cp
}
