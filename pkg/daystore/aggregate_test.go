package daystore

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/m72elite/m72/pkg/calendar"
	"github.com/m72elite/m72/pkg/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateWeeklyMean(t *testing.T) {
	s, _ := newTestStore(t, nil)
	ctx := context.Background()
	big := catalog.Food{ID: "big", Name: "Big Plate", Kcal: 1000}

	// 2024-03-04 and 2024-03-05 are Monday and Tuesday of ISO week 10.
	_, err := s.LogFood(ctx, day("2024-03-04"), big, 2, Lunch)
	require.NoError(t, err)
	_, err = s.LogFood(ctx, day("2024-03-05"), big, 1, Lunch)
	require.NoError(t, err)

	got, err := s.AggregateRange(Weekly, []calendar.Date{day("2024-03-05"), day("2024-03-04")})
	require.NoError(t, err)
	want := []PeriodTotals{{
		Label: "2024-W10", Start: day("2024-03-04"), End: day("2024-03-05"), Days: 2,
		EatenKcal: 1500, NetKcal: 1500,
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("weekly mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregateModeIgnoresCase(t *testing.T) {
	days := []DayTotals{
		{Date: day("2024-03-04"), EatenKcal: 2000, NetKcal: 2000},
		{Date: day("2024-03-05"), EatenKcal: 1000, NetKcal: 1000},
	}
	for _, mode := range []Mode{"WEEKLY", " Weekly "} {
		got, err := Aggregate(mode, days)
		require.NoError(t, err)
		require.Len(t, got, 1, "mode %q", mode)
		assert.Equal(t, "2024-W10", got[0].Label)
		assert.Equal(t, 1500.0, got[0].NetKcal)
	}
}

func TestAggregateRangeSkipsMissingDays(t *testing.T) {
	s, _ := newTestStore(t, nil)
	ctx := context.Background()
	_, err := s.LogFood(ctx, day("2024-02-10"), egg, 1, Lunch)
	require.NoError(t, err)

	dates := calendar.Window(day("2024-02-12"), 5)
	got, err := s.AggregateRange(Daily, append(dates, day("2024-02-10")))
	require.NoError(t, err)
	require.Len(t, got, 1, "only days with a record are aggregated")
	assert.Equal(t, "2024-02-10", got[0].Label)
	assert.Equal(t, egg.Kcal, got[0].EatenKcal)

	s.View(func(doc *Document) {
		assert.NotContains(t, doc.Days, "2024-02-11")
	})
}

func TestAggregateWindowFillsZeros(t *testing.T) {
	s, _ := newTestStore(t, nil)
	ctx := context.Background()
	_, err := s.LogFood(ctx, day("2024-02-28"), egg, 3, Lunch)
	require.NoError(t, err)

	got, err := s.AggregateWindow(Daily, day("2024-03-01"), 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"2024-02-28", "2024-02-29", "2024-03-01"},
		[]string{got[0].Label, got[1].Label, got[2].Label})
	assert.Equal(t, 3*egg.Kcal, got[0].EatenKcal)
	assert.Zero(t, got[1].EatenKcal)

	weekly, err := s.AggregateWindow(Weekly, day("2024-03-01"), 3)
	require.NoError(t, err)
	require.Len(t, weekly, 1)
	assert.Equal(t, 3, weekly[0].Days)
	assert.Equal(t, egg.Kcal, weekly[0].EatenKcal)

	s.View(func(doc *Document) {
		assert.NotContains(t, doc.Days, "2024-02-29", "window does not create records")
	})
}

func TestAggregateMonthly(t *testing.T) {
	days := []DayTotals{
		{Date: day("2024-03-02"), EatenKcal: 1800, BurnKcal: 200, NetKcal: 1600},
		{Date: day("2024-02-27"), EatenKcal: 1000, NetKcal: 1000, Protein: 90},
		{Date: day("2024-02-28"), EatenKcal: 2000, NetKcal: 2000, Protein: 110},
	}
	got, err := Aggregate(Monthly, days)
	require.NoError(t, err)
	want := []PeriodTotals{
		{Label: "2024-02", Start: day("2024-02-27"), End: day("2024-02-28"), Days: 2, EatenKcal: 1500, NetKcal: 1500, Protein: 100},
		{Label: "2024-03", Start: day("2024-03-02"), End: day("2024-03-02"), Days: 1, EatenKcal: 1800, BurnKcal: 200, NetKcal: 1600},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("monthly mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregateWeeklyAcrossYearBoundary(t *testing.T) {
	days := []DayTotals{
		{Date: day("2024-12-30"), NetKcal: 100},
		{Date: day("2025-01-05"), NetKcal: 300},
		{Date: day("2025-01-06"), NetKcal: 50},
	}
	got, err := Aggregate(Weekly, days)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2025-W01", got[0].Label)
	assert.Equal(t, 200.0, got[0].NetKcal)
	assert.Equal(t, "2025-W02", got[1].Label)
}

func TestAggregateEmptyAndBadMode(t *testing.T) {
	got, err := Aggregate(Daily, nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = Aggregate(Mode("hourly"), nil)
	assert.Error(t, err)

	m, err := ParseMode("WEEKLY")
	require.NoError(t, err)
	assert.Equal(t, Weekly, m)
}
