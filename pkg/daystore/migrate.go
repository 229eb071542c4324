package daystore

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/m72elite/m72/pkg/calendar"
	"github.com/m72elite/m72/pkg/catalog"
	"github.com/tidwall/gjson"
)

var errMalformed = errors.New("persisted document is not a JSON object")

// Decode builds a Document from persisted bytes. Fields that are missing or
// have the wrong JSON type keep their defaults; if raw is not a JSON object
// at all the default document is returned together with an error. The
// result is always usable and has been passed through Migrate.
func Decode(raw []byte, today calendar.Date) (*Document, error) {
	doc := Default(today)
	if len(strings.TrimSpace(string(raw))) == 0 {
		return doc, nil
	}
	if !gjson.ValidBytes(raw) {
		return doc, errMalformed
	}
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return doc, errMalformed
	}

	version := 0
	if v := root.Get("schemaVersion"); v.Type == gjson.Number {
		version = int(v.Int())
	}
	legacy := version < 1

	if s := root.Get("settings"); s.IsObject() {
		decodeSettings(s, legacy, &doc.Settings)
	}

	mealKey := "activeMeal"
	if legacy {
		mealKey = "meal"
	}
	if m := root.Get(mealKey); m.Type == gjson.String {
		doc.ActiveMeal = Meal(m.Str)
	}

	if d := root.Get("selectedDate"); d.Type == gjson.String {
		doc.SelectedDate = d.Str
	}

	if favs := root.Get("favoriteFoodIds"); favs.IsArray() {
		for _, f := range favs.Array() {
			if f.Type == gjson.String {
				doc.FavoriteFoodIDs = append(doc.FavoriteFoodIDs, f.Str)
			}
		}
	}

	if foods := root.Get("customFoods"); foods.IsArray() {
		for _, f := range foods.Array() {
			if f.IsObject() {
				doc.CustomFoods = append(doc.CustomFoods, decodeFood(f))
			}
		}
	}

	if days := root.Get("days"); days.IsObject() {
		days.ForEach(func(key, value gjson.Result) bool {
			if value.IsObject() {
				doc.Days[key.String()] = decodeDay(value)
			}
			return true
		})
	}

	weightKey := "weightHistory"
	if legacy {
		weightKey = "weight"
	}
	if w := root.Get(weightKey); w.IsObject() {
		w.ForEach(func(key, value gjson.Result) bool {
			if value.Type == gjson.Number {
				doc.WeightHistory[key.String()] = value.Num
			}
			return true
		})
	}

	return Migrate(doc, today), nil
}

func decodeSettings(s gjson.Result, legacy bool, out *Settings) {
	goalKey := "calorieGoal"
	if legacy {
		goalKey = "goal"
	}
	setNum(s, goalKey, &out.CalorieGoal)
	setNum(s, "proteinTarget", &out.ProteinTarget)
	setNum(s, "carbTarget", &out.CarbTarget)
	setNum(s, "fatTarget", &out.FatTarget)
	if v := s.Get("syncUrl"); v.Type == gjson.String {
		out.SyncURL = v.Str
	}
	if v := s.Get("syncToken"); v.Type == gjson.String {
		out.SyncToken = v.Str
	}
}

func decodeFood(f gjson.Result) catalog.Food {
	var food catalog.Food
	food.ID = str(f, "id")
	food.Name = str(f, "name", "n")
	food.Unit = str(f, "unit", "u")
	setNum(f, "kcal", &food.Kcal, "c")
	setNum(f, "protein", &food.Protein, "p")
	setNum(f, "carb", &food.Carb, "cb")
	setNum(f, "fat", &food.Fat, "f")
	return food
}

func decodeDay(v gjson.Result) *DayRecord {
	day := newDayRecord()
	if logs := v.Get("logs"); logs.IsArray() {
		for _, l := range logs.Array() {
			if l.IsObject() {
				day.Logs = append(day.Logs, decodeLog(l))
			}
		}
	}
	if w := v.Get("water"); w.Type == gjson.Number {
		day.WaterUnits = int(w.Int())
	}
	setNum(v, "burn", &day.BurnKcal)
	return day
}

func decodeLog(l gjson.Result) LogEntry {
	var e LogEntry
	id := l.Get("id")
	switch id.Type {
	case gjson.String:
		e.ID = id.Str
	case gjson.Number:
		e.ID = id.Raw
	}
	e.FoodID = str(l, "foodId")
	e.Name = str(l, "name", "n")
	e.Unit = str(l, "unit", "u")
	e.Meal = Meal(str(l, "meal"))
	setNum(l, "qty", &e.Quantity, "quantity")
	setNum(l, "kcal", &e.Kcal, "c")
	setNum(l, "protein", &e.Protein, "p")
	setNum(l, "carb", &e.Carb, "cb")
	setNum(l, "fat", &e.Fat, "f")

	if ts := l.Get("ts"); ts.Type == gjson.String {
		if t, err := time.Parse(time.RFC3339Nano, ts.Str); err == nil {
			e.Timestamp = t
		}
	}
	// Browser entries used the creation time in epoch milliseconds as id.
	if e.Timestamp.IsZero() {
		if ms, err := strconv.ParseInt(e.ID, 10, 64); err == nil && ms > 0 {
			e.Timestamp = time.UnixMilli(ms).UTC()
		}
	}
	return e
}

// str returns the first string field found among keys.
func str(r gjson.Result, keys ...string) string {
	for _, k := range keys {
		if v := r.Get(k); v.Type == gjson.String {
			return v.Str
		}
	}
	return ""
}

// setNum stores the first numeric field found among key and alts into dst.
func setNum(r gjson.Result, key string, dst *float64, alts ...string) {
	for _, k := range append([]string{key}, alts...) {
		if v := r.Get(k); v.Type == gjson.Number {
			*dst = v.Num
			return
		}
	}
}

// Migrate fills defaults and repairs out-of-range values in place and
// returns doc. Running it on its own output changes nothing.
func Migrate(doc *Document, today calendar.Date) *Document {
	if doc == nil {
		return Default(today)
	}
	doc.SchemaVersion = CurrentSchemaVersion
	doc.Settings = clampSettings(doc.Settings)
	doc.Settings.SyncURL = strings.TrimSpace(doc.Settings.SyncURL)

	if !doc.ActiveMeal.valid() {
		doc.ActiveMeal = Breakfast
	}
	if !calendar.IsKey(doc.SelectedDate) {
		doc.SelectedDate = today.String()
	}

	doc.FavoriteFoodIDs = normalizeSet(doc.FavoriteFoodIDs)

	foods := make([]catalog.Food, 0, len(doc.CustomFoods))
	seen := map[string]bool{}
	for _, f := range doc.CustomFoods {
		if strings.TrimSpace(f.Name) == "" {
			continue
		}
		if f.ID == "" {
			f.ID = customFoodSlug(f.Name)
		}
		if seen[f.ID] {
			continue
		}
		seen[f.ID] = true
		foods = append(foods, f)
	}
	doc.CustomFoods = foods

	if doc.Days == nil {
		doc.Days = map[string]*DayRecord{}
	}
	for key, day := range doc.Days {
		if !calendar.IsKey(key) {
			delete(doc.Days, key)
			continue
		}
		if day == nil {
			doc.Days[key] = newDayRecord()
			continue
		}
		repairDay(key, day)
	}

	if doc.WeightHistory == nil {
		doc.WeightHistory = map[string]float64{}
	}
	for key, w := range doc.WeightHistory {
		if !calendar.IsKey(key) || w <= 0 || badNumber(w) {
			delete(doc.WeightHistory, key)
		}
	}
	return doc
}

func repairDay(key string, day *DayRecord) {
	if day.Logs == nil {
		day.Logs = []LogEntry{}
	}
	if day.WaterUnits < 0 {
		day.WaterUnits = 0
	}
	if badNumber(day.BurnKcal) {
		day.BurnKcal = 0
	}
	day.BurnKcal = clamp(day.BurnKcal, 0, MaxBurnKcal)
	for i := range day.Logs {
		e := &day.Logs[i]
		if !e.Meal.valid() {
			e.Meal = Breakfast
		}
		if e.Quantity <= 0 || badNumber(e.Quantity) {
			e.Quantity = 1
		}
		for _, v := range []*float64{&e.Kcal, &e.Protein, &e.Carb, &e.Fat} {
			if badNumber(*v) {
				*v = 0
			}
		}
	}
	uniqueLogIDs(key, day.Logs)
}

// uniqueLogIDs keeps the first entry holding an id and gives empty or
// repeated ids a replacement built from the day key and the entry position.
// Replacements never reuse an id present anywhere in the day.
func uniqueLogIDs(key string, logs []LogEntry) {
	taken := make(map[string]bool, len(logs))
	for _, e := range logs {
		if e.ID != "" {
			taken[e.ID] = true
		}
	}
	kept := make(map[string]bool, len(logs))
	for i := range logs {
		e := &logs[i]
		if e.ID != "" && !kept[e.ID] {
			kept[e.ID] = true
			continue
		}
		id := fmt.Sprintf("%s-%d", key, i)
		for n := 1; taken[id]; n++ {
			id = fmt.Sprintf("%s-%d-%d", key, i, n)
		}
		e.ID = id
		taken[id] = true
		kept[id] = true
	}
}

func normalizeSet(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := map[string]bool{}
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func customFoodSlug(name string) string {
	return "custom-" + strings.ToLower(strings.Join(strings.Fields(name), "-"))
}
