package calendar

import (
	"testing"
	"time"
	_ "time/tzdata"
)

func TestParseRoundTrip(t *testing.T) {
	for _, key := range []string{"2024-03-01", "1999-12-31", "2000-02-29", "0001-01-01"} {
		d, err := Parse(key)
		if err != nil {
			t.Fatalf("Parse(%q): %v", key, err)
		}
		if d.String() != key {
			t.Fatalf("round trip: got %q, want %q", d.String(), key)
		}
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, key := range []string{"", "2024-3-01", "2024/03/01", "2024-13-01", "2024-00-10", "2024-01-32", "abcd-ef-gh", "2024-03-01T00"} {
		if _, err := Parse(key); err == nil {
			t.Errorf("Parse(%q) succeeded, want error", key)
		}
	}
}

func TestAddDays(t *testing.T) {
	tests := []struct {
		from string
		n    int
		want string
	}{
		{"2024-03-09", 1, "2024-03-10"},
		{"2024-12-31", 1, "2025-01-01"},
		{"2024-02-28", 1, "2024-02-29"},
		{"2023-02-28", 1, "2023-03-01"},
		{"2024-03-01", -1, "2024-02-29"},
		{"2024-01-01", -1, "2023-12-31"},
		{"2024-03-01", 365, "2025-03-01"},
		{"2024-03-10", 0, "2024-03-10"},
	}
	for _, tt := range tests {
		got := MustParse(tt.from).AddDays(tt.n).String()
		if got != tt.want {
			t.Errorf("%s%+d: got %s, want %s", tt.from, tt.n, got, tt.want)
		}
	}
}

// Keys must not drift when the local day is 23 or 25 hours long.
func TestKeyOfAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	instants := []time.Time{
		time.Date(2024, 3, 10, 0, 30, 0, 0, loc),
		time.Date(2024, 3, 10, 23, 59, 0, 0, loc),
		time.Date(2024, 11, 3, 0, 30, 0, 0, loc),
		time.Date(2024, 11, 3, 23, 30, 0, 0, loc),
	}
	for _, ts := range instants {
		key := Of(ts).String()
		back := MustParse(key)
		y, m, d := ts.Date()
		if back.Year != y || back.Month != m || back.Day != d {
			t.Errorf("%v: key %s parsed back to %+v", ts, key, back)
		}
	}

	d := MustParse("2024-03-09")
	for i := 0; i < 3; i++ {
		next := d.AddDays(1)
		if d.DaysUntil(next) != 1 {
			t.Fatalf("%s -> %s is not one day", d, next)
		}
		if next.Midnight(loc).Before(d.Midnight(loc)) {
			t.Fatalf("midnight order broken at %s", next)
		}
		d = next
	}
	if d.String() != "2024-03-12" {
		t.Fatalf("got %s after three days", d)
	}
}

func TestTodayUsesLocation(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	now := time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)
	if got := Today(now, tokyo).String(); got != "2024-03-02" {
		t.Fatalf("Tokyo today: got %s", got)
	}
	if got := Today(now, time.UTC).String(); got != "2024-03-01" {
		t.Fatalf("UTC today: got %s", got)
	}
}

func TestWeekdayAndISOWeek(t *testing.T) {
	if wd := MustParse("2024-03-01").Weekday(); wd != time.Friday {
		t.Fatalf("2024-03-01 weekday: %v", wd)
	}
	if wd := MustParse("1969-12-31").Weekday(); wd != time.Wednesday {
		t.Fatalf("1969-12-31 weekday: %v", wd)
	}
	y, w := MustParse("2024-12-30").ISOWeek()
	if y != 2025 || w != 1 {
		t.Fatalf("2024-12-30: got %d-W%02d", y, w)
	}
	y, w = MustParse("2021-01-03").ISOWeek()
	if y != 2020 || w != 53 {
		t.Fatalf("2021-01-03: got %d-W%02d", y, w)
	}
}

func TestCompareAndWindow(t *testing.T) {
	a, b := MustParse("2024-02-28"), MustParse("2024-03-01")
	if !a.Before(b) || !b.After(a) || a.Compare(a) != 0 {
		t.Fatal("compare order broken")
	}
	if a.DaysUntil(b) != 2 {
		t.Fatalf("DaysUntil: %d", a.DaysUntil(b))
	}
	w := Window(b, 3)
	if len(w) != 3 || w[0].String() != "2024-02-28" || w[2].String() != "2024-03-01" {
		t.Fatalf("window: %v", w)
	}
	if Window(b, 0) != nil {
		t.Fatal("empty window should be nil")
	}
}
