// Package daystore owns the tracker's state document: day-keyed food logs,
// water and burn, weight history, settings, favorites and custom foods.
//
// A Store is safe for concurrent use. Every mutating method re-serializes
// the whole document and hands it to the Persister before returning.
package daystore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/m72elite/m72/internal/utils"
	"github.com/m72elite/m72/pkg/calendar"
	"github.com/m72elite/m72/pkg/catalog"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be a positive number")
	ErrInvalidMeal     = errors.New("unknown meal")
	ErrInvalidWeight   = errors.New("weight must be a positive number")
	ErrInvalidGoal     = errors.New("calorie goal must be a positive number")
	ErrInvalidTarget   = errors.New("macro targets must be positive numbers")
	ErrInvalidBurn     = errors.New("burn must be a number")
	ErrInvalidURL      = errors.New("sync url must be an http or https URL")
	ErrInvalidFood     = catalog.ErrInvalidFood
)

type Store struct {
	mu      sync.Mutex
	doc     *Document
	persist Persister
	now     func() time.Time
	loc     *time.Location
	newID   func() string
}

type Option func(*Store)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLocation sets the zone that decides what "today" is.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithIDs replaces the UUID generator used for log and food ids.
func WithIDs(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// Open loads the document from p. Unreadable content is replaced by the
// default document; only errors from p itself are returned.
func Open(ctx context.Context, p Persister, opts ...Option) (*Store, error) {
	s := &Store{
		persist: p,
		now:     time.Now,
		loc:     time.Local,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}

	raw, err := p.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	doc, err := Decode(raw, s.today())
	if err != nil {
		utils.Log.Warnf("Discarding unreadable saved state (%d bytes): %v", len(raw), err)
	}
	s.doc = doc
	s.dayLocked(s.today())
	return s, nil
}

func (s *Store) today() calendar.Date {
	return calendar.Today(s.now(), s.loc)
}

// Today is the current calendar day in the store's zone.
func (s *Store) Today() calendar.Date {
	return s.today()
}

func (s *Store) save(ctx context.Context) error {
	body, err := json.Marshal(s.doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if err := s.persist.Save(ctx, body); err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	utils.Log.Debugf("Saved document (%d bytes)", len(body))
	return nil
}

// commit saves the document. When the save fails the in-memory document is
// put back to prev so a failed write leaves no trace.
func (s *Store) commit(ctx context.Context, prev *Document) error {
	if err := s.save(ctx); err != nil {
		s.doc = prev
		return err
	}
	return nil
}

func (s *Store) dayLocked(d calendar.Date) *DayRecord {
	key := d.String()
	day := s.doc.Days[key]
	if day == nil {
		day = newDayRecord()
		s.doc.Days[key] = day
	}
	return day
}

// lookup returns the record for d without creating it.
func (s *Store) lookup(d calendar.Date) *DayRecord {
	return s.doc.Days[d.String()]
}

// Day returns the live record for d, creating an empty one if needed.
// The record is shared with the store; mutate it only through Store methods.
// A failed save swaps the document back, so fetch it again after an error.
func (s *Store) Day(d calendar.Date) *DayRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dayLocked(d)
}

// Lookup returns a copy of the record for d without creating it.
func (s *Store) Lookup(d calendar.Date) (DayRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	day := s.lookup(d)
	if day == nil {
		return DayRecord{Logs: []LogEntry{}}, false
	}
	cp := *day
	cp.Logs = append([]LogEntry{}, day.Logs...)
	return cp, true
}

// View runs fn with the live document under the store lock.
func (s *Store) View(fn func(doc *Document)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.doc)
}

func checkQuantity(qty float64) (float64, error) {
	if qty <= 0 || badNumber(qty) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidQuantity, qty)
	}
	return clamp(qty, MinQuantity, MaxQuantity), nil
}

// LogFood records qty servings of food in meal on day d. The quantity is
// clamped to [MinQuantity, MaxQuantity] and the new entry goes first.
func (s *Store) LogFood(ctx context.Context, d calendar.Date, food catalog.Food, qty float64, meal Meal) (LogEntry, error) {
	qty, err := checkQuantity(qty)
	if err != nil {
		return LogEntry{}, err
	}
	if !meal.valid() {
		return LogEntry{}, fmt.Errorf("%w: %q", ErrInvalidMeal, meal)
	}
	if err := food.Validate(); err != nil {
		return LogEntry{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.doc.clone()

	entry := LogEntry{
		ID:        s.newID(),
		FoodID:    food.ID,
		Name:      food.Name,
		Unit:      food.Unit,
		Meal:      meal,
		Quantity:  qty,
		Kcal:      food.Kcal * qty,
		Protein:   food.Protein * qty,
		Carb:      food.Carb * qty,
		Fat:       food.Fat * qty,
		Timestamp: s.now().UTC(),
	}
	if !finite(entry.Kcal, entry.Protein, entry.Carb, entry.Fat) {
		return LogEntry{}, fmt.Errorf("%w: nutrition values of %q overflow", ErrInvalidFood, food.Name)
	}
	day := s.dayLocked(d)
	day.Logs = append([]LogEntry{entry}, day.Logs...)
	return entry, s.commit(ctx, prev)
}

// EditLog changes the quantity of a logged entry, scaling its stored
// nutrition values by newQty/oldQty. It reports false when the entry does
// not exist, in which case nothing is changed or saved.
func (s *Store) EditLog(ctx context.Context, d calendar.Date, id string, qty float64) (bool, error) {
	qty, err := checkQuantity(qty)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.doc.clone()

	day := s.lookup(d)
	if day == nil {
		return false, nil
	}
	for i := range day.Logs {
		e := &day.Logs[i]
		if e.ID != id {
			continue
		}
		ratio := qty / e.Quantity
		kcal, protein, carb, fat := e.Kcal*ratio, e.Protein*ratio, e.Carb*ratio, e.Fat*ratio
		if !finite(kcal, protein, carb, fat) {
			return false, fmt.Errorf("%w: %v overflows the entry's nutrition values", ErrInvalidQuantity, qty)
		}
		e.Kcal, e.Protein, e.Carb, e.Fat = kcal, protein, carb, fat
		e.Quantity = qty
		e.Timestamp = s.now().UTC()
		return true, s.commit(ctx, prev)
	}
	return false, nil
}

// DeleteLog removes the entry with id from day d. Missing entries are
// ignored.
func (s *Store) DeleteLog(ctx context.Context, d calendar.Date, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.doc.clone()

	day := s.lookup(d)
	if day == nil {
		return nil
	}
	kept := day.Logs[:0]
	for _, e := range day.Logs {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(day.Logs) {
		return nil
	}
	day.Logs = kept
	return s.commit(ctx, prev)
}

// MealLogs returns copies of the entries of one meal on day d.
func (s *Store) MealLogs(d calendar.Date, meal Meal) []LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	day := s.lookup(d)
	if day == nil {
		return nil
	}
	var out []LogEntry
	for _, e := range day.Logs {
		if e.Meal == meal {
			out = append(out, e)
		}
	}
	return out
}

// AdjustWater adds delta units to day d, never going below zero.
func (s *Store) AdjustWater(ctx context.Context, d calendar.Date, delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.doc.clone()
	day := s.dayLocked(d)
	day.WaterUnits = max(0, day.WaterUnits+delta)
	return day.WaterUnits, s.commit(ctx, prev)
}

// SetBurn sets the exercise burn of day d, clamped to [0, MaxBurnKcal].
func (s *Store) SetBurn(ctx context.Context, d calendar.Date, kcal float64) (float64, error) {
	if badNumber(kcal) {
		return 0, ErrInvalidBurn
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.doc.clone()
	day := s.dayLocked(d)
	day.BurnKcal = clamp(kcal, 0, MaxBurnKcal)
	return day.BurnKcal, s.commit(ctx, prev)
}

// AddBurn adds kcal to the burn of day d with the same clamping as SetBurn.
func (s *Store) AddBurn(ctx context.Context, d calendar.Date, kcal float64) (float64, error) {
	if badNumber(kcal) {
		return 0, ErrInvalidBurn
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.doc.clone()
	day := s.dayLocked(d)
	day.BurnKcal = clamp(day.BurnKcal+kcal, 0, MaxBurnKcal)
	return day.BurnKcal, s.commit(ctx, prev)
}

// RecordWeight stores the body weight for day d, replacing any earlier
// sample for that day.
func (s *Store) RecordWeight(ctx context.Context, d calendar.Date, value float64) error {
	if value <= 0 || badNumber(value) {
		return fmt.Errorf("%w: %v", ErrInvalidWeight, value)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.doc.clone()
	s.doc.WeightHistory[d.String()] = value
	return s.commit(ctx, prev)
}

// DeleteWeight removes the sample for day d and reports whether one existed.
func (s *Store) DeleteWeight(ctx context.Context, d calendar.Date) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.doc.clone()
	key := d.String()
	if _, ok := s.doc.WeightHistory[key]; !ok {
		return false, nil
	}
	delete(s.doc.WeightHistory, key)
	return true, s.commit(ctx, prev)
}

// WeightSample is one day's body weight.
type WeightSample struct {
	Date  calendar.Date `json:"date"`
	Value float64       `json:"value"`
}

// Weights returns all samples in chronological order.
func (s *Store) Weights() []WeightSample {
	s.mu.Lock()
	defer s.mu.Unlock()
	return weightSamples(s.doc.WeightHistory)
}

func weightSamples(history map[string]float64) []WeightSample {
	keys := make([]string, 0, len(history))
	for k := range history {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]WeightSample, 0, len(keys))
	for _, k := range keys {
		d, err := calendar.Parse(k)
		if err != nil {
			continue
		}
		out = append(out, WeightSample{Date: d, Value: history[k]})
	}
	return out
}

// SetMeal changes the active meal.
func (s *Store) SetMeal(ctx context.Context, m Meal) error {
	if !m.valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMeal, m)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.doc.clone()
	s.doc.ActiveMeal = m
	return s.commit(ctx, prev)
}

// ActiveMeal returns the active meal.
func (s *Store) ActiveMeal() Meal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.ActiveMeal
}

// SelectDate changes the day being shown and edited.
func (s *Store) SelectDate(ctx context.Context, d calendar.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.doc.clone()
	s.doc.SelectedDate = d.String()
	s.dayLocked(d)
	return s.commit(ctx, prev)
}

// ShiftSelected moves the selected day by delta days.
func (s *Store) ShiftSelected(ctx context.Context, delta int) (calendar.Date, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.doc.clone()
	d := s.selectedLocked().AddDays(delta)
	s.doc.SelectedDate = d.String()
	s.dayLocked(d)
	return d, s.commit(ctx, prev)
}

// SelectedDate returns the day being shown and edited.
func (s *Store) SelectedDate() calendar.Date {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedLocked()
}

func (s *Store) selectedLocked() calendar.Date {
	d, err := calendar.Parse(s.doc.SelectedDate)
	if err != nil {
		return s.today()
	}
	return d
}

// Settings returns a copy of the current settings.
func (s *Store) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Settings
}

// SetCalorieGoal rejects non-positive goals and clamps the rest to
// [MinCalorieGoal, MaxCalorieGoal]. It returns the stored value.
func (s *Store) SetCalorieGoal(ctx context.Context, kcal float64) (float64, error) {
	if kcal <= 0 || badNumber(kcal) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidGoal, kcal)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.doc.clone()
	s.doc.Settings.CalorieGoal = clamp(kcal, MinCalorieGoal, MaxCalorieGoal)
	return s.doc.Settings.CalorieGoal, s.commit(ctx, prev)
}

// SetMacroTargets sets the protein, carb and fat targets in grams.
func (s *Store) SetMacroTargets(ctx context.Context, protein, carb, fat float64) (Settings, error) {
	for _, v := range []float64{protein, carb, fat} {
		if v <= 0 || badNumber(v) {
			return Settings{}, fmt.Errorf("%w: %v", ErrInvalidTarget, v)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.doc.clone()
	st := &s.doc.Settings
	st.ProteinTarget = clamp(protein, MinProtein, MaxProtein)
	st.CarbTarget = clamp(carb, MinCarb, MaxCarb)
	st.FatTarget = clamp(fat, MinFat, MaxFat)
	return *st, s.commit(ctx, prev)
}

// SetSync stores the webhook target. An empty URL disables sync.
func (s *Store) SetSync(ctx context.Context, rawURL, token string) error {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL != "" {
		u, err := url.Parse(rawURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.doc.clone()
	s.doc.Settings.SyncURL = rawURL
	s.doc.Settings.SyncToken = token
	return s.commit(ctx, prev)
}

// Foods returns custom foods followed by the seed catalog.
func (s *Store) Foods() []catalog.Food {
	s.mu.Lock()
	defer s.mu.Unlock()
	return catalog.Merge(s.doc.CustomFoods)
}

// FindFood looks a food up by id, custom foods first.
func (s *Store) FindFood(id string) (catalog.Food, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return catalog.Find(s.doc.CustomFoods, id)
}

// SearchFoods matches q against food names.
func (s *Store) SearchFoods(q string) []catalog.Food {
	return catalog.Search(s.Foods(), q)
}

// AddCustomFood validates f and puts it first in the custom list, replacing
// a custom food with the same id. An id is generated when f has none.
func (s *Store) AddCustomFood(ctx context.Context, f catalog.Food) (catalog.Food, error) {
	f.Name = strings.TrimSpace(f.Name)
	f.ID = strings.TrimSpace(f.ID)
	if err := f.Validate(); err != nil {
		return catalog.Food{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.doc.clone()
	if f.ID == "" {
		f.ID = "custom-" + s.newID()
	}
	foods := []catalog.Food{f}
	for _, existing := range s.doc.CustomFoods {
		if existing.ID != f.ID {
			foods = append(foods, existing)
		}
	}
	s.doc.CustomFoods = foods
	return f, s.commit(ctx, prev)
}

// DeleteCustomFood removes a custom food. Logged entries keep their
// snapshot and favorites may keep pointing at the id.
func (s *Store) DeleteCustomFood(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.doc.clone()
	foods := make([]catalog.Food, 0, len(s.doc.CustomFoods))
	for _, f := range s.doc.CustomFoods {
		if f.ID != id {
			foods = append(foods, f)
		}
	}
	if len(foods) == len(s.doc.CustomFoods) {
		return false, nil
	}
	s.doc.CustomFoods = foods
	return true, s.commit(ctx, prev)
}

// ToggleFavorite flips the favorite flag of a food id and returns the new
// state. The id does not need to exist in any catalog.
func (s *Store) ToggleFavorite(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.doc.clone()
	var (
		kept []string
		was  bool
	)
	for _, f := range s.doc.FavoriteFoodIDs {
		if f == id {
			was = true
			continue
		}
		kept = append(kept, f)
	}
	if !was {
		kept = append(kept, id)
	}
	s.doc.FavoriteFoodIDs = normalizeSet(kept)
	return !was, s.commit(ctx, prev)
}

// Favorites returns the favorite food ids, sorted.
func (s *Store) Favorites() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.doc.FavoriteFoodIDs...)
}

// Serialize returns the JSON form of the whole document.
func (s *Store) Serialize() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return json.Marshal(s.doc)
}

// ClearAll resets the document to defaults and saves it.
func (s *Store) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.persist.Clear(ctx); err != nil {
		return fmt.Errorf("clear document: %w", err)
	}
	prev := s.doc
	s.doc = Default(s.today())
	s.dayLocked(s.today())
	return s.commit(ctx, prev)
}
