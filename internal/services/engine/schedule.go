package engine

import (
	"math"
	"time"

	"NoteFlow/internal/domain/models"
)

// Generator builds observation schedules. It is stateless; one instance
// serves any number of products concurrently.
type Generator struct{}

func NewGenerator() *Generator { return &Generator{} }

// Generate builds the ordered observation/value-date timetable for cfg.
// underlyingCount drives the Himalaya variant's period count and is
// ignored for the standard variant.
func (g *Generator) Generate(cfg *models.ProductScheduleConfig, underlyingCount int) (models.Schedule, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if cfg.TemplateVariant == models.VariantHimalaya {
		return g.generateHimalaya(cfg, underlyingCount)
	}
	return g.generateStandard(cfg)
}

func validateConfig(cfg *models.ProductScheduleConfig) error {
	if cfg == nil {
		return configErrorf("", "config is nil")
	}
	if !cfg.TradeDate.Before(cfg.FinalObservationDate) {
		return configErrorf("tradeDate", "must be before finalObservationDate")
	}
	if cfg.DelayDays < 0 {
		return configErrorf("delayDays", "must be >= 0")
	}
	if cfg.CoolOffPeriods < 0 {
		return configErrorf("coolOffPeriods", "must be >= 0")
	}
	if cfg.TemplateVariant != models.VariantHimalaya && cfg.Frequency.Months() == 0 {
		return configErrorf("frequency", "unknown frequency %q", cfg.Frequency)
	}
	return nil
}

func (g *Generator) generateStandard(cfg *models.ProductScheduleConfig) (models.Schedule, error) {
	months := cfg.Frequency.Months()
	var schedule models.Schedule

	for k := 1; ; k++ {
		candidate := cfg.TradeDate.AddDate(0, months*k, 0)
		final := false
		if !candidate.Before(cfg.FinalObservationDate) {
			candidate = cfg.FinalObservationDate
			final = true
		}

		period, err := g.buildPeriod(cfg, k, candidate, final)
		if err != nil {
			return nil, err
		}
		schedule = append(schedule, period)
		if final {
			break
		}
	}
	return schedule, nil
}

func (g *Generator) generateHimalaya(cfg *models.ProductScheduleConfig, underlyingCount int) (models.Schedule, error) {
	if underlyingCount <= 0 {
		return nil, configErrorf("underlyings", "himalaya requires at least one underlying")
	}

	totalDays := cfg.FinalObservationDate.Sub(cfg.TradeDate).Hours() / 24
	interval := totalDays / float64(underlyingCount)

	schedule := make(models.Schedule, 0, underlyingCount)
	for k := 1; k <= underlyingCount; k++ {
		offset := int(math.Round(interval * float64(k)))
		candidate := cfg.TradeDate.AddDate(0, 0, offset)
		period, err := g.buildPeriod(cfg, k, candidate, k == underlyingCount)
		if err != nil {
			return nil, err
		}
		// autocall/barrier semantics do not apply to this variant
		period.IsCallable = true
		period.AutocallLevel = nil
		period.CouponBarrier = 0
		schedule = append(schedule, period)
	}
	return schedule, nil
}

func (g *Generator) buildPeriod(cfg *models.ProductScheduleConfig, k int, candidate time.Time, final bool) (models.ObservationPeriod, error) {
	obsDate, err := NextTradingDay(candidate, cfg.MarketCalendars)
	if err != nil {
		return models.ObservationPeriod{}, err
	}
	valueDate, err := NextTradingDay(obsDate.AddDate(0, 0, cfg.DelayDays), cfg.MarketCalendars)
	if err != nil {
		return models.ObservationPeriod{}, err
	}

	period := models.ObservationPeriod{
		PeriodIndex:     k,
		ObservationDate: obsDate,
		ValueDate:       valueDate,
		CouponBarrier:   cfg.CouponBarrierFor(k),
		IsFinal:         final,
	}
	if k > cfg.CoolOffPeriods {
		callableIndex := k - cfg.CoolOffPeriods - 1
		level := cfg.InitialAutocallLevel + cfg.StepDownPerPeriod*float64(callableIndex)
		period.IsCallable = true
		period.AutocallLevel = &level
	}
	return period, nil
}

// ApplyDateEdit replaces one period's observation or value date with a
// manually edited value. Edits that break strict time ordering are
// rejected; the schedule is never silently reordered.
func ApplyDateEdit(schedule models.Schedule, periodIndex int, obsDate, valueDate time.Time) (models.Schedule, error) {
	pos := -1
	for i := range schedule {
		if schedule[i].PeriodIndex == periodIndex {
			pos = i
			break
		}
	}
	if pos < 0 {
		return nil, &DataIntegrityError{Reason: "unknown period index"}
	}
	if valueDate.Before(obsDate) {
		return nil, &DataIntegrityError{Reason: "value date before observation date"}
	}
	if pos > 0 && !schedule[pos-1].ObservationDate.Before(obsDate) {
		return nil, &DataIntegrityError{Reason: "edit breaks observation date ordering"}
	}
	if pos < len(schedule)-1 && !obsDate.Before(schedule[pos+1].ObservationDate) {
		return nil, &DataIntegrityError{Reason: "edit breaks observation date ordering"}
	}

	out := make(models.Schedule, len(schedule))
	copy(out, schedule)
	out[pos].ObservationDate = obsDate
	out[pos].ValueDate = valueDate
	return out, nil
}
