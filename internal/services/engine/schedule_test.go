package engine

import (
	"testing"
	"time"

	"NoteFlow/internal/domain/models"
)

func quarterlyConfig() *models.ProductScheduleConfig {
	return &models.ProductScheduleConfig{
		ProductID:            "NOTE-1",
		TradeDate:            day(2025, time.January, 15),
		FinalObservationDate: day(2026, time.January, 15),
		Frequency:            models.FreqQuarterly,
		DelayDays:            2,
		CoolOffPeriods:       1,
		InitialAutocallLevel: 100,
		StepDownPerPeriod:    -5,
		CouponBarrier:        80,
		CouponRate:           2,
		CouponMemoryEnabled:  true,
		ProtectionBarrier:    70,
		BasketMode:           models.BasketWorstOf,
		MarketCalendars:      []models.CalendarID{models.CalendarUS},
		TemplateVariant:      models.VariantStandard,
	}
}

func TestGenerateQuarterlyStepDown(t *testing.T) {
	g := NewGenerator()
	schedule, err := g.Generate(quarterlyConfig(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(schedule) != 4 {
		t.Fatalf("expected 4 periods, got %d", len(schedule))
	}

	wantObs := []time.Time{
		day(2025, time.April, 15),
		day(2025, time.July, 15),
		day(2025, time.October, 15),
		day(2026, time.January, 15),
	}
	for i, p := range schedule {
		if p.PeriodIndex != i+1 {
			t.Fatalf("period %d: index %d", i, p.PeriodIndex)
		}
		if !sameDay(p.ObservationDate, wantObs[i]) {
			t.Fatalf("period %d: obs %s", i+1, p.ObservationDate.Format(dayKeyLayout))
		}
		if p.CouponBarrier != 80 {
			t.Fatalf("period %d: barrier %v", i+1, p.CouponBarrier)
		}
	}

	// cool-off: period 1 is not callable
	if schedule[0].IsCallable || schedule[0].AutocallLevel != nil {
		t.Fatalf("period 1 should not be callable")
	}
	wantLevels := []float64{100, 95, 90}
	for i, want := range wantLevels {
		p := schedule[i+1]
		if !p.IsCallable || p.AutocallLevel == nil {
			t.Fatalf("period %d should be callable", i+2)
		}
		if *p.AutocallLevel != want {
			t.Fatalf("period %d: autocall level %v, want %v", i+2, *p.AutocallLevel, want)
		}
	}

	if !schedule[3].IsFinal {
		t.Fatalf("last period should be final")
	}
	// final value date: Jan 17 is a Saturday and Jan 19 is MLK Day
	if !sameDay(schedule[3].ValueDate, day(2026, time.January, 20)) {
		t.Fatalf("final value date %s", schedule[3].ValueDate.Format(dayKeyLayout))
	}
}

func TestGenerateConfigErrors(t *testing.T) {
	g := NewGenerator()
	if _, err := g.Generate(nil, 0); err == nil {
		t.Fatalf("nil config should fail")
	}

	cfg := quarterlyConfig()
	cfg.FinalObservationDate = cfg.TradeDate
	if _, err := g.Generate(cfg, 0); err == nil {
		t.Fatalf("tradeDate >= final should fail")
	}

	cfg = quarterlyConfig()
	cfg.DelayDays = -1
	if _, err := g.Generate(cfg, 0); err == nil {
		t.Fatalf("negative delay should fail")
	}

	cfg = quarterlyConfig()
	cfg.Frequency = "weekly"
	if _, err := g.Generate(cfg, 0); err == nil {
		t.Fatalf("unknown frequency should fail")
	}
	cfg.Frequency = models.FreqQuarterly
	cfg.CoolOffPeriods = -1
	if _, err := g.Generate(cfg, 0); err == nil {
		t.Fatalf("negative cool-off should fail")
	}
}

func TestGenerateHimalaya(t *testing.T) {
	cfg := quarterlyConfig()
	cfg.TemplateVariant = models.VariantHimalaya

	g := NewGenerator()
	schedule, err := g.Generate(cfg, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(schedule) != 4 {
		t.Fatalf("expected one period per underlying, got %d", len(schedule))
	}
	for i, p := range schedule {
		if p.AutocallLevel != nil || p.CouponBarrier != 0 {
			t.Fatalf("period %d: autocall semantics should not apply", i+1)
		}
		if i > 0 && !schedule[i-1].ObservationDate.Before(p.ObservationDate) {
			t.Fatalf("period %d: dates not strictly increasing", i+1)
		}
		if !IsTradingDay(p.ObservationDate, cfg.MarketCalendars) {
			t.Fatalf("period %d: obs date is not a trading day", i+1)
		}
	}
	if !schedule[3].IsFinal {
		t.Fatalf("last himalaya period should be final")
	}
	if !sameDay(schedule[3].ObservationDate, day(2026, time.January, 15)) {
		t.Fatalf("final obs %s", schedule[3].ObservationDate.Format(dayKeyLayout))
	}

	if _, err := g.Generate(cfg, 0); err == nil {
		t.Fatalf("himalaya without underlyings should fail")
	}
}

func TestApplyDateEdit(t *testing.T) {
	g := NewGenerator()
	schedule, err := g.Generate(quarterlyConfig(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	edited, err := ApplyDateEdit(schedule, 2, day(2025, time.July, 16), day(2025, time.July, 18))
	if err != nil {
		t.Fatalf("valid edit failed: %v", err)
	}
	if !sameDay(edited[1].ObservationDate, day(2025, time.July, 16)) {
		t.Fatalf("edit not applied")
	}
	// original is untouched
	if !sameDay(schedule[1].ObservationDate, day(2025, time.July, 15)) {
		t.Fatalf("edit mutated the input schedule")
	}

	// moving period 2 past period 3 breaks ordering
	if _, err := ApplyDateEdit(schedule, 2, day(2025, time.November, 1), day(2025, time.November, 3)); err == nil {
		t.Fatalf("ordering violation should fail")
	}
	if _, err := ApplyDateEdit(schedule, 2, day(2025, time.July, 16), day(2025, time.July, 14)); err == nil {
		t.Fatalf("value date before observation date should fail")
	}
	if _, err := ApplyDateEdit(schedule, 99, day(2025, time.July, 16), day(2025, time.July, 18)); err == nil {
		t.Fatalf("unknown period should fail")
	}
}
