// Package calendar implements a local calendar date with no time-of-day and
// no zone. Day arithmetic works on the (year, month, day) triple so a key
// never shifts across a daylight-saving change.
package calendar

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// KeyLayout is the canonical date key format.
const KeyLayout = "2006-01-02"

var ErrBadKey = errors.New("date key must be YYYY-MM-DD")

// Date is a calendar day.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// Of returns the calendar day t falls on in t's own location.
func Of(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Today returns the current calendar day in loc. A nil loc means time.Local.
func Today(now time.Time, loc *time.Location) Date {
	if loc == nil {
		loc = time.Local
	}
	return Of(now.In(loc))
}

// Parse reads a YYYY-MM-DD key. Month and day ranges are checked, whether
// the day exists in that month is not.
func Parse(key string) (Date, error) {
	if len(key) != 10 || key[4] != '-' || key[7] != '-' {
		return Date{}, fmt.Errorf("%w: %q", ErrBadKey, key)
	}
	y, err1 := atoiDigits(key[0:4])
	m, err2 := atoiDigits(key[5:7])
	d, err3 := atoiDigits(key[8:10])
	if err1 != nil || err2 != nil || err3 != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrBadKey, key)
	}
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return Date{}, fmt.Errorf("%w: %q", ErrBadKey, key)
	}
	return Date{Year: y, Month: time.Month(m), Day: d}, nil
}

// MustParse is Parse for constants and tests.
func MustParse(key string) Date {
	d, err := Parse(key)
	if err != nil {
		panic(err)
	}
	return d
}

// IsKey reports whether s is a well-formed date key.
func IsKey(s string) bool {
	_, err := Parse(s)
	return err == nil
}

func atoiDigits(s string) (int, error) {
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, ErrBadKey
		}
	}
	return strconv.Atoi(s)
}

// String returns the date key.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// MarshalText encodes d as its key.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText parses a key.
func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// AddDays returns d shifted by n calendar days.
func (d Date) AddDays(n int) Date {
	y, m, dd := civilFromDays(d.ordinal() + n)
	return Date{Year: y, Month: time.Month(m), Day: dd}
}

// Compare returns -1, 0 or +1.
func (d Date) Compare(o Date) int {
	a, b := d.ordinal(), o.ordinal()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }
func (d Date) After(o Date) bool  { return d.Compare(o) > 0 }

// DaysUntil returns the number of days from d to o (negative if o is earlier).
func (d Date) DaysUntil(o Date) int {
	return o.ordinal() - d.ordinal()
}

// Weekday of d.
func (d Date) Weekday() time.Weekday {
	// 1970-01-01 was a Thursday.
	w := (d.ordinal() + 4) % 7
	if w < 0 {
		w += 7
	}
	return time.Weekday(w)
}

// ISOWeek returns the ISO 8601 year and week number of d. The week is
// derived from the UTC midnight of the same calendar day.
func (d Date) ISOWeek() (year, week int) {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).ISOWeek()
}

// Midnight returns the first instant of d in loc.
func (d Date) Midnight(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// Format renders d using a time layout, for display only.
func (d Date) Format(layout string) string {
	return time.Date(d.Year, d.Month, d.Day, 12, 0, 0, 0, time.UTC).Format(layout)
}

// ordinal is the number of days since 1970-01-01 (days-from-civil).
func (d Date) ordinal() int {
	return daysFromCivil(d.Year, int(d.Month), d.Day)
}

func daysFromCivil(y, m, d int) int {
	if m <= 2 {
		y--
	}
	era := floorDiv(y, 400)
	yoe := y - era*400
	mp := (m + 9) % 12
	doy := (153*mp+2)/5 + d - 1
	doe := yoe*365 + yoe/4 - yoe/100 + doy
	return era*146097 + doe - 719468
}

func civilFromDays(z int) (y, m, d int) {
	z += 719468
	era := floorDiv(z, 146097)
	doe := z - era*146097
	yoe := (doe - doe/1460 + doe/36524 - doe/146096) / 365
	y = yoe + era*400
	doy := doe - (365*yoe + yoe/4 - yoe/100)
	mp := (5*doy + 2) / 153
	d = doy - (153*mp+2)/5 + 1
	if mp < 10 {
		m = mp + 3
	} else {
		m = mp - 9
	}
	if m <= 2 {
		y++
	}
	return y, m, d
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// Window returns the n days ending at end, oldest first.
func Window(end Date, n int) []Date {
	if n <= 0 {
		return nil
	}
	out := make([]Date, n)
	for i := 0; i < n; i++ {
		out[i] = end.AddDays(i - n + 1)
	}
	return out
}
