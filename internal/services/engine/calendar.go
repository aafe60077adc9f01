package engine

import (
	"sync"
	"time"

	"NoteFlow/internal/domain/models"
)

// maxRollDays caps how far NextTradingDay searches before treating the
// holiday data as corrupt.
const maxRollDays = 30

const dayKeyLayout = "2006-01-02"

// extraHolidays holds jurisdiction holidays merged in at runtime (e.g. from
// the holiday sync service) on top of the built-in rule-based tables.
var (
	extraMu       sync.RWMutex
	extraHolidays = map[models.CalendarID]map[string]bool{}
)

// AddHolidays registers additional non-trading dates for a jurisdiction.
func AddHolidays(cal models.CalendarID, dates []time.Time) {
	extraMu.Lock()
	defer extraMu.Unlock()
	m := extraHolidays[cal]
	if m == nil {
		m = make(map[string]bool, len(dates))
		extraHolidays[cal] = m
	}
	for _, d := range dates {
		m[d.Format(dayKeyLayout)] = true
	}
}

// IsTradingDay reports whether d is a trading day across every calendar in
// the set. A date that is a holiday in any one jurisdiction is non-trading
// (conservative union).
func IsTradingDay(d time.Time, calendars []models.CalendarID) bool {
	switch d.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	for _, cal := range calendars {
		if isHoliday(d, cal) {
			return false
		}
	}
	return true
}

// NextTradingDay rolls d forward, one calendar day at a time, to the first
// trading day. Rolling past maxRollDays indicates corrupt holiday data.
func NextTradingDay(d time.Time, calendars []models.CalendarID) (time.Time, error) {
	for i := 0; i <= maxRollDays; i++ {
		if IsTradingDay(d, calendars) {
			return d, nil
		}
		d = d.AddDate(0, 0, 1)
	}
	return time.Time{}, &DataIntegrityError{
		Reason: "no trading day within " + d.Format(dayKeyLayout) + " roll horizon",
	}
}

func isHoliday(d time.Time, cal models.CalendarID) bool {
	extraMu.RLock()
	extra := extraHolidays[cal][d.Format(dayKeyLayout)]
	extraMu.RUnlock()
	if extra {
		return true
	}

	switch cal {
	case models.CalendarUS:
		return isUSHoliday(d)
	case models.CalendarEU:
		return isEUHoliday(d)
	case models.CalendarGB:
		return isGBHoliday(d)
	default:
		return false
	}
}

func isUSHoliday(d time.Time) bool {
	y, m, day := d.Date()
	switch {
	case observedUS(d, time.January, 1): // New Year's Day
		return true
	case m == time.January && d.Weekday() == time.Monday && nthWeekdayOfMonth(day) == 3: // MLK Day
		return true
	case m == time.February && d.Weekday() == time.Monday && nthWeekdayOfMonth(day) == 3: // Presidents' Day
		return true
	case sameDay(d, goodFriday(y)):
		return true
	case m == time.May && d.Weekday() == time.Monday && day+7 > 31: // Memorial Day
		return true
	case observedUS(d, time.June, 19): // Juneteenth
		return true
	case observedUS(d, time.July, 4): // Independence Day
		return true
	case m == time.September && d.Weekday() == time.Monday && nthWeekdayOfMonth(day) == 1: // Labor Day
		return true
	case m == time.November && d.Weekday() == time.Thursday && nthWeekdayOfMonth(day) == 4: // Thanksgiving
		return true
	case observedUS(d, time.December, 25): // Christmas
		return true
	}
	return false
}

func isEUHoliday(d time.Time) bool {
	y, m, day := d.Date()
	easter := easterSunday(y)
	switch {
	case m == time.January && day == 1:
		return true
	case sameDay(d, easter.AddDate(0, 0, -2)): // Good Friday
		return true
	case sameDay(d, easter.AddDate(0, 0, 1)): // Easter Monday
		return true
	case m == time.May && day == 1: // Labour Day
		return true
	case m == time.December && (day == 25 || day == 26):
		return true
	}
	return false
}

func isGBHoliday(d time.Time) bool {
	y, m, day := d.Date()
	easter := easterSunday(y)
	switch {
	case observedGB(d, time.January, 1):
		return true
	case sameDay(d, easter.AddDate(0, 0, -2)): // Good Friday
		return true
	case sameDay(d, easter.AddDate(0, 0, 1)): // Easter Monday
		return true
	case m == time.May && d.Weekday() == time.Monday && nthWeekdayOfMonth(day) == 1: // Early May bank holiday
		return true
	case m == time.May && d.Weekday() == time.Monday && day+7 > 31: // Spring bank holiday
		return true
	case m == time.August && d.Weekday() == time.Monday && day+7 > 31: // Summer bank holiday
		return true
	case observedGB(d, time.December, 25), observedGB(d, time.December, 26):
		return true
	}
	return false
}

// observedUS applies the US observed-holiday shift: Saturday holidays are
// observed the Friday before, Sunday holidays the Monday after.
func observedUS(d time.Time, m time.Month, day int) bool {
	y := d.Year()
	h := time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
	switch h.Weekday() {
	case time.Saturday:
		h = h.AddDate(0, 0, -1)
	case time.Sunday:
		h = h.AddDate(0, 0, 1)
	}
	return sameDay(d, h)
}

// observedGB shifts weekend holidays to the next weekday (substitute day).
func observedGB(d time.Time, m time.Month, day int) bool {
	y := d.Year()
	h := time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
	for h.Weekday() == time.Saturday || h.Weekday() == time.Sunday {
		h = h.AddDate(0, 0, 1)
	}
	return sameDay(d, h)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// nthWeekdayOfMonth returns which occurrence of its weekday a day-of-month
// is (1 for days 1-7, 2 for 8-14, ...).
func nthWeekdayOfMonth(day int) int {
	return (day-1)/7 + 1
}

func goodFriday(year int) time.Time {
	return easterSunday(year).AddDate(0, 0, -2)
}

// easterSunday computes Gregorian Easter via the anonymous Gregorian
// algorithm (Meeus/Jones/Butcher).
func easterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}
