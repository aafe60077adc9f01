package engine

import (
	"testing"
	"time"

	"NoteFlow/internal/domain/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestIsTradingDayWeekend(t *testing.T) {
	if IsTradingDay(day(2025, time.August, 2), nil) { // Saturday
		t.Fatalf("saturday should not trade")
	}
	if IsTradingDay(day(2025, time.August, 3), nil) { // Sunday
		t.Fatalf("sunday should not trade")
	}
	if !IsTradingDay(day(2025, time.August, 4), nil) { // Monday
		t.Fatalf("monday should trade")
	}
}

func TestUSHolidays(t *testing.T) {
	us := []models.CalendarID{models.CalendarUS}
	holidays := []time.Time{
		day(2025, time.January, 1),   // New Year's Day
		day(2026, time.January, 19),  // MLK Day, third Monday
		day(2025, time.April, 18),    // Good Friday
		day(2025, time.May, 26),      // Memorial Day, last Monday
		day(2025, time.July, 4),      // Independence Day
		day(2025, time.September, 1), // Labor Day
		day(2025, time.November, 27), // Thanksgiving
		day(2025, time.December, 25), // Christmas
		day(2027, time.June, 18),     // Juneteenth observed (19th is a Saturday)
	}
	for _, h := range holidays {
		if IsTradingDay(h, us) {
			t.Fatalf("%s should be a US holiday", h.Format(dayKeyLayout))
		}
	}
	if !IsTradingDay(day(2025, time.July, 3), us) {
		t.Fatalf("2025-07-03 should trade")
	}
}

func TestEUHolidays(t *testing.T) {
	eu := []models.CalendarID{models.CalendarEU}
	if IsTradingDay(day(2025, time.April, 21), eu) { // Easter Monday
		t.Fatalf("easter monday should be an EU holiday")
	}
	if IsTradingDay(day(2025, time.May, 1), eu) {
		t.Fatalf("labour day should be an EU holiday")
	}
	// Easter Monday is not a US market holiday
	if !IsTradingDay(day(2025, time.April, 21), []models.CalendarID{models.CalendarUS}) {
		t.Fatalf("easter monday should trade in the US")
	}
}

func TestGBSubstituteDay(t *testing.T) {
	gb := []models.CalendarID{models.CalendarGB}
	// Boxing Day 2026 falls on a Saturday; substitute day is Monday the 28th.
	if IsTradingDay(day(2026, time.December, 28), gb) {
		t.Fatalf("2026-12-28 should be a GB substitute day")
	}
	if IsTradingDay(day(2026, time.December, 25), gb) { // Friday, no shift
		t.Fatalf("2026-12-25 should be a GB holiday")
	}
}

func TestCalendarUnion(t *testing.T) {
	both := []models.CalendarID{models.CalendarUS, models.CalendarEU}
	// Easter Monday: EU holiday only, union makes it non-trading.
	if IsTradingDay(day(2025, time.April, 21), both) {
		t.Fatalf("union should respect the EU holiday")
	}
	// Juneteenth: US holiday only.
	if IsTradingDay(day(2025, time.June, 19), both) {
		t.Fatalf("union should respect the US holiday")
	}
}

func TestNextTradingDayRolls(t *testing.T) {
	us := []models.CalendarID{models.CalendarUS}
	// 2025-07-04 Friday holiday, weekend follows: first trading day is Monday the 7th.
	got, err := NextTradingDay(day(2025, time.July, 4), us)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sameDay(got, day(2025, time.July, 7)) {
		t.Fatalf("expected 2025-07-07, got %s", got.Format(dayKeyLayout))
	}
	// Already a trading day: unchanged.
	got, err = NextTradingDay(day(2025, time.July, 8), us)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sameDay(got, day(2025, time.July, 8)) {
		t.Fatalf("expected identity roll, got %s", got.Format(dayKeyLayout))
	}
}

func TestAddHolidays(t *testing.T) {
	us := []models.CalendarID{models.CalendarUS}
	adHoc := day(2025, time.October, 7) // Tuesday
	if !IsTradingDay(adHoc, us) {
		t.Fatalf("precondition: 2025-10-07 trades")
	}
	AddHolidays(models.CalendarUS, []time.Time{adHoc})
	if IsTradingDay(adHoc, us) {
		t.Fatalf("ad-hoc closure should not trade")
	}
}

func TestNextTradingDayRollCap(t *testing.T) {
	var closed []time.Time
	for d := day(2030, time.January, 1); d.Before(day(2030, time.February, 20)); d = d.AddDate(0, 0, 1) {
		closed = append(closed, d)
	}
	AddHolidays(models.CalendarGB, closed)
	_, err := NextTradingDay(day(2030, time.January, 1), []models.CalendarID{models.CalendarGB})
	if err == nil {
		t.Fatalf("expected roll cap error")
	}
	if _, ok := err.(*DataIntegrityError); !ok {
		t.Fatalf("expected DataIntegrityError, got %T", err)
	}
}

func TestEasterSunday(t *testing.T) {
	if got := easterSunday(2025); !sameDay(got, day(2025, time.April, 20)) {
		t.Fatalf("easter 2025: got %s", got.Format(dayKeyLayout))
	}
	if got := easterSunday(2024); !sameDay(got, day(2024, time.March, 31)) {
		t.Fatalf("easter 2024: got %s", got.Format(dayKeyLayout))
	}
}
