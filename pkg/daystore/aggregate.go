package daystore

import (
	"fmt"
	"sort"
	"strings"

	"github.com/m72elite/m72/pkg/calendar"
)

// DayTotals summarizes one day.
type DayTotals struct {
	Date       calendar.Date `json:"date"`
	EatenKcal  float64       `json:"eatenKcal"`
	BurnKcal   float64       `json:"burnKcal"`
	NetKcal    float64       `json:"netKcal"`
	Protein    float64       `json:"proteinG"`
	Carb       float64       `json:"carbG"`
	Fat        float64       `json:"fatG"`
	WaterUnits int           `json:"waterUnits"`
	Entries    int           `json:"entries"`
}

func totalsOf(d calendar.Date, day *DayRecord) DayTotals {
	t := DayTotals{Date: d}
	if day == nil {
		return t
	}
	for _, e := range day.Logs {
		t.EatenKcal += e.Kcal
		t.Protein += e.Protein
		t.Carb += e.Carb
		t.Fat += e.Fat
	}
	t.BurnKcal = day.BurnKcal
	t.NetKcal = t.EatenKcal - t.BurnKcal
	t.WaterUnits = day.WaterUnits
	t.Entries = len(day.Logs)
	return t
}

// AggregateDay sums day d. It does not create a record for d.
func (s *Store) AggregateDay(d calendar.Date) DayTotals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return totalsOf(d, s.lookup(d))
}

// Mode selects how AggregateRange groups days.
type Mode string

const (
	Daily   Mode = "daily"
	Weekly  Mode = "weekly"
	Monthly Mode = "monthly"
)

// ParseMode accepts daily, weekly or monthly in any case.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case Daily, Weekly, Monthly:
		return m, nil
	}
	return "", fmt.Errorf("unknown aggregation mode %q (want daily, weekly or monthly)", s)
}

// PeriodTotals is one point of a trend. For Daily it carries that day's
// values; for Weekly and Monthly each value is the mean over the days of the
// group.
type PeriodTotals struct {
	Label     string        `json:"label"`
	Start     calendar.Date `json:"start"`
	End       calendar.Date `json:"end"`
	Days      int           `json:"days"`
	EatenKcal float64       `json:"eatenKcal"`
	BurnKcal  float64       `json:"burnKcal"`
	NetKcal   float64       `json:"netKcal"`
	Protein   float64       `json:"proteinG"`
	Carb      float64       `json:"carbG"`
	Fat       float64       `json:"fatG"`
}

func groupLabel(mode Mode, d calendar.Date) string {
	switch mode {
	case Weekly:
		y, w := d.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", y, w)
	case Monthly:
		return fmt.Sprintf("%04d-%02d", d.Year, int(d.Month))
	}
	return d.String()
}

// Aggregate groups day totals by mode. Input order does not matter; output
// groups are ordered by their first day.
func Aggregate(mode Mode, days []DayTotals) ([]PeriodTotals, error) {
	mode, err := ParseMode(string(mode))
	if err != nil {
		return nil, err
	}
	sorted := append([]DayTotals(nil), days...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	var (
		out   []PeriodTotals
		index = map[string]int{}
	)
	for _, d := range sorted {
		label := groupLabel(mode, d.Date)
		i, ok := index[label]
		if !ok {
			i = len(out)
			index[label] = i
			out = append(out, PeriodTotals{Label: label, Start: d.Date})
		}
		p := &out[i]
		p.End = d.Date
		p.Days++
		p.EatenKcal += d.EatenKcal
		p.BurnKcal += d.BurnKcal
		p.NetKcal += d.NetKcal
		p.Protein += d.Protein
		p.Carb += d.Carb
		p.Fat += d.Fat
	}

	if mode != Daily {
		for i := range out {
			n := float64(out[i].Days)
			out[i].EatenKcal /= n
			out[i].BurnKcal /= n
			out[i].NetKcal /= n
			out[i].Protein /= n
			out[i].Carb /= n
			out[i].Fat /= n
		}
	}
	return out, nil
}

// AggregateRange aggregates the given days. Days without a record are left
// out rather than counted as zero.
func (s *Store) AggregateRange(mode Mode, dates []calendar.Date) ([]PeriodTotals, error) {
	s.mu.Lock()
	seen := map[calendar.Date]bool{}
	var days []DayTotals
	for _, d := range dates {
		if seen[d] {
			continue
		}
		seen[d] = true
		if day := s.lookup(d); day != nil {
			days = append(days, totalsOf(d, day))
		}
	}
	s.mu.Unlock()
	return Aggregate(mode, days)
}

// AggregateWindow aggregates the n calendar days ending at end. Days
// without a record count as zero.
func (s *Store) AggregateWindow(mode Mode, end calendar.Date, n int) ([]PeriodTotals, error) {
	s.mu.Lock()
	var days []DayTotals
	for _, d := range calendar.Window(end, n) {
		days = append(days, totalsOf(d, s.lookup(d)))
	}
	s.mu.Unlock()
	return Aggregate(mode, days)
}

// Dates returns every day that has a record, oldest first.
func (s *Store) Dates() []calendar.Date {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.doc.Days))
	for k := range s.doc.Days {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]calendar.Date, 0, len(keys))
	for _, k := range keys {
		if d, err := calendar.Parse(k); err == nil {
			out = append(out, d)
		}
	}
	return out
}

// Progress is what the home screen shows for a day.
type Progress struct {
	DayTotals
	Goal        float64 `json:"goal"`
	Remaining   float64 `json:"remaining"`
	Percent     float64 `json:"percent"`
	WaterLitres float64 `json:"waterLitres"`
}

// Progress compares day d against the calorie goal. Percent is kept within
// [0, 100].
func (s *Store) Progress(d calendar.Date) Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := totalsOf(d, s.lookup(d))
	goal := s.doc.Settings.CalorieGoal
	return Progress{
		DayTotals:   t,
		Goal:        goal,
		Remaining:   max(0, goal-t.NetKcal),
		Percent:     clamp(t.NetKcal/goal*100, 0, 100),
		WaterLitres: float64(t.WaterUnits) * WaterUnitLitres,
	}
}

// DayStatus marks a history day against the goal.
type DayStatus string

const (
	StatusEmpty DayStatus = "empty"
	StatusGood  DayStatus = "good"
	StatusBad   DayStatus = "bad"
)

// HistoryDay is one cell of the history calendar.
type HistoryDay struct {
	Date     calendar.Date `json:"date"`
	Status   DayStatus     `json:"status"`
	NetKcal  float64       `json:"netKcal"`
	Selected bool          `json:"selected"`
}

// History returns the n days ending at end, newest first. A day with logs
// is good when its net intake is within the goal.
func (s *Store) History(end calendar.Date, n int) []HistoryDay {
	s.mu.Lock()
	defer s.mu.Unlock()
	selected := s.selectedLocked()
	out := make([]HistoryDay, 0, max(n, 0))
	for i := 0; i < n; i++ {
		d := end.AddDays(-i)
		t := totalsOf(d, s.lookup(d))
		h := HistoryDay{Date: d, Status: StatusEmpty, NetKcal: t.NetKcal, Selected: d == selected}
		if t.Entries > 0 {
			if t.NetKcal <= s.doc.Settings.CalorieGoal {
				h.Status = StatusGood
			} else {
				h.Status = StatusBad
			}
		}
		out = append(out, h)
	}
	return out
}
