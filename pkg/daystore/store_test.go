package daystore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/m72elite/m72/pkg/calendar"
	"github.com/m72elite/m72/pkg/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	fixedNow = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	egg      = catalog.Seed[0]
)

// newTestStore opens a store over an in-memory persister with a fixed clock
// and sequential ids.
func newTestStore(t *testing.T, initial []byte) (*Store, *MemPersister) {
	t.Helper()
	p := NewMemPersister(initial)
	n := 0
	s, err := Open(context.Background(), p,
		WithClock(func() time.Time { return fixedNow }),
		WithLocation(time.UTC),
		WithIDs(func() string { n++; return fmt.Sprintf("id-%d", n) }),
	)
	require.NoError(t, err)
	return s, p
}

func day(key string) calendar.Date { return calendar.MustParse(key) }

func TestOpen_FreshDocument(t *testing.T) {
	s, p := newTestStore(t, nil)

	assert.Equal(t, "2024-03-01", s.SelectedDate().String())
	assert.Equal(t, Breakfast, s.ActiveMeal())
	assert.Equal(t, 1650.0, s.Settings().CalorieGoal)
	assert.Equal(t, 0, p.Saves(), "opening must not persist")

	s.View(func(doc *Document) {
		assert.Contains(t, doc.Days, "2024-03-01", "today's record is created on open")
		assert.Equal(t, CurrentSchemaVersion, doc.SchemaVersion)
	})
}

func TestOpen_GarbageFallsBackToDefaults(t *testing.T) {
	for _, raw := range []string{"{not json", "[1,2,3]", `"text"`, "42"} {
		s, _ := newTestStore(t, []byte(raw))
		assert.Equal(t, DefaultSettings(), s.Settings(), "input %q", raw)
		assert.Empty(t, s.Weights())
	}
}

func TestOpen_LegacyBrowserDocument(t *testing.T) {
	raw := `{
	  "settings": {"goal": 1800},
	  "selectedDate": "2024-02-28",
	  "meal": "Dinner",
	  "days": {
	    "2024-02-28": {"logs": [{"id": "1709100000000", "n": "Boiled Egg", "c": 156, "qty": 2, "meal": "Breakfast"}], "water": 3, "burn": 200},
	    "not-a-date": {"logs": []},
	    "2024-02-27": "garbage"
	  },
	  "weight": {"2024-02-28": 80.5, "2024-02-29": -1}
	}`
	s, _ := newTestStore(t, []byte(raw))

	assert.Equal(t, 1800.0, s.Settings().CalorieGoal)
	assert.Equal(t, Dinner, s.ActiveMeal())
	assert.Equal(t, "2024-02-28", s.SelectedDate().String())

	rec := s.Day(day("2024-02-28"))
	require.Len(t, rec.Logs, 1)
	e := rec.Logs[0]
	assert.Equal(t, "Boiled Egg", e.Name)
	assert.Equal(t, 156.0, e.Kcal)
	assert.Equal(t, 2.0, e.Quantity)
	assert.Equal(t, Breakfast, e.Meal)
	assert.True(t, e.Timestamp.Equal(time.UnixMilli(1709100000000)))
	assert.Equal(t, 3, rec.WaterUnits)
	assert.Equal(t, 200.0, rec.BurnKcal)

	s.View(func(doc *Document) {
		assert.NotContains(t, doc.Days, "not-a-date")
		assert.NotContains(t, doc.Days, "2024-02-27")
		assert.Equal(t, map[string]float64{"2024-02-28": 80.5}, doc.WeightHistory)
	})
}

func TestSaveThenReopen(t *testing.T) {
	s, p := newTestStore(t, nil)
	ctx := context.Background()

	_, err := s.LogFood(ctx, day("2024-03-01"), egg, 2, Lunch)
	require.NoError(t, err)
	require.NoError(t, s.RecordWeight(ctx, day("2024-03-01"), 79.4))
	_, err = s.ToggleFavorite(ctx, "egg")
	require.NoError(t, err)

	reopened, _ := newTestStore(t, p.Bytes())
	want, err := s.Serialize()
	require.NoError(t, err)
	got, err := reopened.Serialize()
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(got))
}

func TestLogFoodThenAggregateDay(t *testing.T) {
	s, p := newTestStore(t, nil)

	entry, err := s.LogFood(context.Background(), day("2024-03-01"), egg, 2, Breakfast)
	require.NoError(t, err)
	assert.Equal(t, "id-1", entry.ID)
	assert.Equal(t, "egg", entry.FoodID)
	assert.Equal(t, 1, p.Saves())

	totals := s.AggregateDay(day("2024-03-01"))
	assert.Equal(t, 2*egg.Kcal, totals.EatenKcal)
	assert.Equal(t, 2*egg.Kcal, totals.NetKcal)
	assert.Equal(t, 2*egg.Protein, totals.Protein)
	assert.Equal(t, 2*egg.Fat, totals.Fat)
}

func TestLogFoodPrependsAndClamps(t *testing.T) {
	s, _ := newTestStore(t, nil)
	ctx := context.Background()
	d := day("2024-03-02")

	before := s.AggregateDay(d).EatenKcal
	small, err := s.LogFood(ctx, d, egg, 0.1, Snack)
	require.NoError(t, err)
	big, err := s.LogFood(ctx, d, egg, 80, Snack)
	require.NoError(t, err)

	assert.Equal(t, MinQuantity, small.Quantity)
	assert.Equal(t, MaxQuantity, big.Quantity)
	assert.Equal(t, before+egg.Kcal*(MinQuantity+MaxQuantity), s.AggregateDay(d).EatenKcal)

	logs := s.Day(d).Logs
	require.Len(t, logs, 2)
	assert.Equal(t, big.ID, logs[0].ID, "newest entry first")
}

func TestLogFoodRejectsBadInput(t *testing.T) {
	s, p := newTestStore(t, nil)
	ctx := context.Background()
	d := day("2024-03-01")

	for _, q := range []float64{0, -1, math.NaN()} {
		_, err := s.LogFood(ctx, d, egg, q, Lunch)
		assert.ErrorIs(t, err, ErrInvalidQuantity, "qty %v", q)
	}
	_, err := s.LogFood(ctx, d, egg, 1, Meal("Brunch"))
	assert.ErrorIs(t, err, ErrInvalidMeal)
	_, err = s.LogFood(ctx, d, catalog.Food{ID: "x"}, 1, Lunch)
	assert.ErrorIs(t, err, ErrInvalidFood)

	assert.Empty(t, s.Day(d).Logs)
	assert.Equal(t, 0, p.Saves())
}

func TestEditLogIsRatioBased(t *testing.T) {
	s, _ := newTestStore(t, nil)
	ctx := context.Background()
	d := day("2024-03-01")

	food, err := s.AddCustomFood(ctx, catalog.Food{ID: "shake", Name: "Shake", Kcal: 100, Protein: 20})
	require.NoError(t, err)
	entry, err := s.LogFood(ctx, d, food, 2, Breakfast)
	require.NoError(t, err)

	// The catalog changes after logging; the edit must not look at it.
	_, err = s.AddCustomFood(ctx, catalog.Food{ID: "shake", Name: "Shake v2", Kcal: 500})
	require.NoError(t, err)

	ok, err := s.EditLog(ctx, d, entry.ID, 4)
	require.NoError(t, err)
	require.True(t, ok)

	edited := s.Day(d).Logs[0]
	assert.Equal(t, entry.Kcal*2, edited.Kcal)
	assert.Equal(t, 80.0, edited.Protein)
	assert.Equal(t, 4.0, edited.Quantity)
	assert.Equal(t, "Shake", edited.Name, "name stays a snapshot")
}

func TestEditLogUnknownID(t *testing.T) {
	s, p := newTestStore(t, nil)
	ctx := context.Background()
	_, err := s.LogFood(ctx, day("2024-03-01"), egg, 1, Lunch)
	require.NoError(t, err)
	saves := p.Saves()

	ok, err := s.EditLog(ctx, day("2024-03-01"), "nope", 3)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = s.EditLog(ctx, day("2023-01-01"), "nope", 3)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, saves, p.Saves())
	s.View(func(doc *Document) {
		assert.NotContains(t, doc.Days, "2023-01-01")
	})

	_, err = s.EditLog(ctx, day("2024-03-01"), "nope", -2)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestDeleteLogIsIdempotent(t *testing.T) {
	s, p := newTestStore(t, nil)
	ctx := context.Background()
	d := day("2024-03-01")

	a, err := s.LogFood(ctx, d, egg, 1, Lunch)
	require.NoError(t, err)
	_, err = s.LogFood(ctx, d, egg, 2, Dinner)
	require.NoError(t, err)

	require.NoError(t, s.DeleteLog(ctx, d, a.ID))
	once, _ := json.Marshal(s.Day(d))
	saves := p.Saves()

	require.NoError(t, s.DeleteLog(ctx, d, a.ID))
	twice, _ := json.Marshal(s.Day(d))

	assert.JSONEq(t, string(once), string(twice))
	assert.Equal(t, saves, p.Saves())
	assert.Len(t, s.Day(d).Logs, 1)
}

func TestWaterAndBurnAreClamped(t *testing.T) {
	s, _ := newTestStore(t, nil)
	ctx := context.Background()
	d := day("2024-03-01")

	w, err := s.AdjustWater(ctx, d, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, w)
	w, err = s.AdjustWater(ctx, d, -10)
	require.NoError(t, err)
	assert.Equal(t, 0, w)

	b, err := s.SetBurn(ctx, d, -50)
	require.NoError(t, err)
	assert.Equal(t, 0.0, b)
	b, err = s.SetBurn(ctx, d, 300)
	require.NoError(t, err)
	assert.Equal(t, 300.0, b)
	b, err = s.AddBurn(ctx, d, 9000)
	require.NoError(t, err)
	assert.Equal(t, MaxBurnKcal, b)

	_, err = s.SetBurn(ctx, d, math.Inf(1))
	assert.ErrorIs(t, err, ErrInvalidBurn)

	_, err = s.LogFood(ctx, d, egg, 10, Lunch)
	require.NoError(t, err)
	totals := s.AggregateDay(d)
	assert.Equal(t, 780-MaxBurnKcal, totals.NetKcal)
}

func TestRecordWeight(t *testing.T) {
	s, p := newTestStore(t, nil)
	ctx := context.Background()
	d := day("2024-03-01")

	require.NoError(t, s.RecordWeight(ctx, d, 80))
	saves := p.Saves()

	err := s.RecordWeight(ctx, d, -5)
	assert.ErrorIs(t, err, ErrInvalidWeight)
	assert.ErrorIs(t, s.RecordWeight(ctx, d, 0), ErrInvalidWeight)
	assert.Equal(t, saves, p.Saves())
	assert.Equal(t, []WeightSample{{Date: d, Value: 80}}, s.Weights())

	require.NoError(t, s.RecordWeight(ctx, d, 79.5))
	assert.Equal(t, []WeightSample{{Date: d, Value: 79.5}}, s.Weights(), "one sample per day")

	removed, err := s.DeleteWeight(ctx, d)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Empty(t, s.Weights())
}

func TestDayIsCreatedLazily(t *testing.T) {
	s, _ := newTestStore(t, nil)
	d := day("2024-01-15")

	assert.Equal(t, DayTotals{Date: d}, s.AggregateDay(d))
	s.View(func(doc *Document) { assert.NotContains(t, doc.Days, d.String()) })

	rec := s.Day(d)
	require.NotNil(t, rec)
	assert.Empty(t, rec.Logs)
	assert.Same(t, rec, s.Day(d), "Day returns the live record")
}

func TestSelectionAndMeal(t *testing.T) {
	s, _ := newTestStore(t, nil)
	ctx := context.Background()

	d, err := s.ShiftSelected(ctx, -1)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", d.String())
	require.NoError(t, s.SelectDate(ctx, day("2024-02-10")))
	assert.Equal(t, "2024-02-10", s.SelectedDate().String())

	require.NoError(t, s.SetMeal(ctx, Dinner))
	assert.Equal(t, Dinner, s.ActiveMeal())
	assert.ErrorIs(t, s.SetMeal(ctx, "Elevenses"), ErrInvalidMeal)

	m, err := ParseMeal(" lunch ")
	require.NoError(t, err)
	assert.Equal(t, Lunch, m)
}

func TestSettings(t *testing.T) {
	s, _ := newTestStore(t, nil)
	ctx := context.Background()

	goal, err := s.SetCalorieGoal(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, MinCalorieGoal, goal)
	goal, err = s.SetCalorieGoal(ctx, 9999)
	require.NoError(t, err)
	assert.Equal(t, MaxCalorieGoal, goal)
	_, err = s.SetCalorieGoal(ctx, 0)
	assert.ErrorIs(t, err, ErrInvalidGoal)

	st, err := s.SetMacroTargets(ctx, 1000, 100, 5)
	require.NoError(t, err)
	assert.Equal(t, MaxProtein, st.ProteinTarget)
	assert.Equal(t, 100.0, st.CarbTarget)
	assert.Equal(t, MinFat, st.FatTarget)
	_, err = s.SetMacroTargets(ctx, 100, -1, 50)
	assert.ErrorIs(t, err, ErrInvalidTarget)

	require.NoError(t, s.SetSync(ctx, " https://hooks.example.com/m72 ", "secret"))
	assert.Equal(t, "https://hooks.example.com/m72", s.Settings().SyncURL)
	assert.ErrorIs(t, s.SetSync(ctx, "ftp://x", ""), ErrInvalidURL)
	require.NoError(t, s.SetSync(ctx, "", ""))
	assert.Empty(t, s.Settings().SyncURL)
}

func TestCustomFoodsAndFavorites(t *testing.T) {
	s, _ := newTestStore(t, nil)
	ctx := context.Background()

	_, err := s.AddCustomFood(ctx, catalog.Food{Name: "  "})
	assert.ErrorIs(t, err, ErrInvalidFood)

	oats, err := s.AddCustomFood(ctx, catalog.Food{Name: "Oats", Kcal: 150})
	require.NoError(t, err)
	assert.Equal(t, "custom-id-1", oats.ID)
	dal, err := s.AddCustomFood(ctx, catalog.Food{ID: "dal", Name: "Dal", Kcal: 180})
	require.NoError(t, err)

	foods := s.Foods()
	assert.Equal(t, dal.ID, foods[0].ID, "newest custom food first")
	assert.Equal(t, oats.ID, foods[1].ID)
	assert.Len(t, foods, len(catalog.Seed)+2)

	hits := s.SearchFoods("oat")
	require.Len(t, hits, 1)
	assert.Equal(t, "Oats", hits[0].Name)

	on, err := s.ToggleFavorite(ctx, "ghost-food")
	require.NoError(t, err)
	assert.True(t, on, "dangling favorites are allowed")
	on, err = s.ToggleFavorite(ctx, "egg")
	require.NoError(t, err)
	assert.True(t, on)
	assert.Equal(t, []string{"egg", "ghost-food"}, s.Favorites())
	on, err = s.ToggleFavorite(ctx, "egg")
	require.NoError(t, err)
	assert.False(t, on)

	removed, err := s.DeleteCustomFood(ctx, "dal")
	require.NoError(t, err)
	assert.True(t, removed)
	_, ok := s.FindFood("dal")
	assert.False(t, ok)
	removed, err = s.DeleteCustomFood(ctx, "dal")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestProgressAndHistory(t *testing.T) {
	s, _ := newTestStore(t, nil)
	ctx := context.Background()

	_, err := s.SetCalorieGoal(ctx, 1000)
	require.NoError(t, err)
	chicken := catalog.Seed[1]
	_, err = s.LogFood(ctx, day("2024-03-01"), chicken, 2, Lunch)
	require.NoError(t, err)
	_, err = s.LogFood(ctx, day("2024-02-29"), chicken, 5, Dinner)
	require.NoError(t, err)
	_, err = s.AdjustWater(ctx, day("2024-03-01"), 6)
	require.NoError(t, err)

	p := s.Progress(day("2024-03-01"))
	assert.Equal(t, 500.0, p.NetKcal)
	assert.Equal(t, 500.0, p.Remaining)
	assert.Equal(t, 50.0, p.Percent)
	assert.Equal(t, 1.5, p.WaterLitres)

	over := s.Progress(day("2024-02-29"))
	assert.Equal(t, 0.0, over.Remaining)
	assert.Equal(t, 100.0, over.Percent)

	h := s.History(day("2024-03-01"), 3)
	require.Len(t, h, 3)
	assert.Equal(t, StatusGood, h[0].Status)
	assert.True(t, h[0].Selected)
	assert.Equal(t, StatusBad, h[1].Status)
	assert.Equal(t, StatusEmpty, h[2].Status)
	s.View(func(doc *Document) {
		assert.NotContains(t, doc.Days, "2024-02-28", "history does not create records")
	})

	assert.Len(t, s.MealLogs(day("2024-03-01"), Lunch), 1)
	assert.Empty(t, s.MealLogs(day("2024-03-01"), Dinner))
}

func TestClearAll(t *testing.T) {
	s, p := newTestStore(t, nil)
	ctx := context.Background()
	_, err := s.LogFood(ctx, day("2024-02-01"), egg, 1, Lunch)
	require.NoError(t, err)

	require.NoError(t, s.ClearAll(ctx))
	assert.Equal(t, []calendar.Date{day("2024-03-01")}, s.Dates())

	reopened, _ := newTestStore(t, p.Bytes())
	assert.Equal(t, []calendar.Date{day("2024-03-01")}, reopened.Dates())
}

// brokenPersister fails every Save while fail is set.
type brokenPersister struct {
	*MemPersister
	fail bool
}

func (b *brokenPersister) Save(ctx context.Context, body []byte) error {
	if b.fail {
		return errors.New("disk full")
	}
	return b.MemPersister.Save(ctx, body)
}

func TestFailedSaveRollsBack(t *testing.T) {
	p := &brokenPersister{MemPersister: NewMemPersister(nil), fail: true}
	s, err := Open(context.Background(), p,
		WithClock(func() time.Time { return fixedNow }),
		WithLocation(time.UTC))
	require.NoError(t, err)
	ctx := context.Background()
	d := day("2024-03-01")

	_, err = s.LogFood(ctx, d, egg, 1, Lunch)
	require.Error(t, err)
	_, err = s.AdjustWater(ctx, d, 2)
	require.Error(t, err)
	require.Error(t, s.RecordWeight(ctx, d, 80))
	_, err = s.SetCalorieGoal(ctx, 2000)
	require.Error(t, err)
	_, err = s.AddCustomFood(ctx, catalog.Food{ID: "oats", Name: "Oats", Kcal: 150})
	require.Error(t, err)

	rec, _ := s.Lookup(d)
	assert.Empty(t, rec.Logs)
	assert.Zero(t, rec.WaterUnits)
	assert.Empty(t, s.Weights())
	assert.Equal(t, 1650.0, s.Settings().CalorieGoal)
	_, ok := s.FindFood("oats")
	assert.False(t, ok)

	p.fail = false
	units, err := s.AdjustWater(ctx, d, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, units)
	assert.Equal(t, 1, p.Saves())

	saved, err := Decode(p.Bytes(), d)
	require.NoError(t, err)
	assert.Empty(t, saved.Days["2024-03-01"].Logs)
	assert.Equal(t, 1, saved.Days["2024-03-01"].WaterUnits)
}

func TestOverflowingNutritionIsRejected(t *testing.T) {
	ctx := context.Background()
	d := day("2024-03-01")

	s, p := newTestStore(t, nil)
	_, err := s.LogFood(ctx, d, catalog.Food{ID: "x", Name: "x", Kcal: 1e308}, 2, Lunch)
	assert.ErrorIs(t, err, ErrInvalidFood)
	assert.Zero(t, p.Saves())

	raw := `{"schemaVersion":1,"days":{"2024-03-01":{"logs":[{"id":"big","name":"x","meal":"Lunch","qty":0.25,"kcal":1e307}]}}}`
	s, p = newTestStore(t, []byte(raw))

	ok, err := s.EditLog(ctx, d, "big", 50)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	assert.False(t, ok)
	assert.Zero(t, p.Saves())

	rec, _ := s.Lookup(d)
	require.Len(t, rec.Logs, 1)
	assert.Equal(t, 0.25, rec.Logs[0].Quantity)
	assert.Equal(t, 1e307, rec.Logs[0].Kcal)

	_, err = s.AdjustWater(ctx, d, 1)
	require.NoError(t, err, "later saves keep working")
	assert.Equal(t, 1, p.Saves())
}

func TestLegacyLogsWithoutUniqueIDs(t *testing.T) {
	raw := `{"days":{"2024-03-01":{"logs":[
	  {"n":"Boiled Egg","c":78,"qty":1,"meal":"Lunch"},
	  {"n":"Roti","c":70,"qty":1,"meal":"Lunch"},
	  {"id":7,"n":"Rice","c":205,"qty":1,"meal":"Dinner"},
	  {"id":"7","n":"Paneer","c":265,"qty":1,"meal":"Dinner"}
	]}}}`
	s, _ := newTestStore(t, []byte(raw))
	ctx := context.Background()
	d := day("2024-03-01")

	rec, _ := s.Lookup(d)
	ids := map[string]bool{}
	for _, e := range rec.Logs {
		require.NotEmpty(t, e.ID)
		ids[e.ID] = true
	}
	assert.Len(t, ids, 4)

	require.NoError(t, s.DeleteLog(ctx, d, "7"))
	rec, _ = s.Lookup(d)
	require.Len(t, rec.Logs, 3)
	assert.Equal(t, "Paneer", rec.Logs[2].Name)

	require.NoError(t, s.DeleteLog(ctx, d, ""))
	rec, _ = s.Lookup(d)
	assert.Len(t, rec.Logs, 3)

	ok, err := s.EditLog(ctx, d, rec.Logs[2].ID, 2)
	require.NoError(t, err)
	assert.True(t, ok)
	rec, _ = s.Lookup(d)
	assert.Equal(t, 530.0, rec.Logs[2].Kcal)
}
