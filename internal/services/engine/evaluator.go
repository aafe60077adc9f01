package engine

import (
	"NoteFlow/internal/domain/models"
	domsvc "NoteFlow/internal/domain/service"
)

// Evaluator resolves occurred observation periods into outcomes. It is
// stateless; all running state (coupon memory, terminal flags) is carried
// explicitly through the fold so a re-run over the same inputs is
// idempotent.
type Evaluator struct{}

func NewEvaluator() *Evaluator { return &Evaluator{} }

// Evaluate walks schedule in period order, consuming one PeriodObservation
// per occurred period. Observations must be supplied in strictly
// consecutive order starting at period 1; anything else is a sequence
// violation. A product already called stops consuming observations. A
// period whose observation is absent leaves the product incomplete —
// outcomes are never fabricated from missing data.
func (e *Evaluator) Evaluate(cfg *models.ProductScheduleConfig, schedule models.Schedule, observations []domsvc.PeriodObservation) (*models.EvaluationResult, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if len(schedule) == 0 {
		return nil, configErrorf("schedule", "empty schedule")
	}

	if cfg.TemplateVariant == models.VariantHimalaya {
		return e.evaluateHimalaya(cfg, schedule, observations)
	}
	return e.evaluateStandard(cfg, schedule, observations)
}

func (e *Evaluator) evaluateStandard(cfg *models.ProductScheduleConfig, schedule models.Schedule, observations []domsvc.PeriodObservation) (*models.EvaluationResult, error) {
	res := &models.EvaluationResult{
		ProductID: cfg.ProductID,
		State:     models.StateActive,
	}
	memory := models.MemoryState{}

	byPeriod, err := indexObservations(observations)
	if err != nil {
		return nil, err
	}

	for i := range schedule {
		period := &schedule[i]
		obs, ok := byPeriod[period.PeriodIndex]
		if !ok {
			// market data absent: stop here, the period stays open
			res.State = models.StateIncomplete
			res.Memory = memory
			return res, nil
		}

		level, aggErr := Aggregate(obs.Performances, cfg.BasketMode)
		if aggErr != nil {
			return nil, aggErr
		}

		var outcome models.ObservationOutcome
		memory, outcome = evalPeriod(cfg, period, level, memory)
		res.Outcomes = append(res.Outcomes, outcome)

		if outcome.ProductCalled {
			res.State = models.StateCalled
			res.Memory = memory
			return res, nil
		}
		if period.IsFinal {
			res.State = models.StateMaturedNormally
			res.Regime = redemptionRegime(level, cfg.ProtectionBarrier)
			res.Memory = memory
			return res, nil
		}
	}

	res.State = models.StateIncomplete
	res.Memory = memory
	return res, nil
}

// evalPeriod is the per-period step of the evaluation fold:
// (memory, period, level) -> (memory', outcome).
func evalPeriod(cfg *models.ProductScheduleConfig, period *models.ObservationPeriod, level float64, memory models.MemoryState) (models.MemoryState, models.ObservationOutcome) {
	outcome := models.ObservationOutcome{
		ProductID:   cfg.ProductID,
		PeriodIndex: period.PeriodIndex,
		BasketLevel: level,
		ObservedAt:  period.ObservationDate,
	}
	coupon := cfg.CouponRateFor(period.PeriodIndex)

	switch {
	case period.IsCallable && period.AutocallLevel != nil && level >= *period.AutocallLevel:
		// autocall always pays the current coupon
		outcome.ProductCalled = true
		outcome.CouponPaid = coupon
		outcome.IsTerminal = true
		memory.AccumulatedAmount = 0

	case level >= period.CouponBarrier:
		outcome.CouponPaid = coupon
		if cfg.CouponMemoryEnabled {
			outcome.CouponPaid += memory.AccumulatedAmount
		}
		memory.AccumulatedAmount = 0

	default:
		if cfg.CouponMemoryEnabled {
			memory.AccumulatedAmount += coupon
			outcome.CouponAddedToMemory = coupon
		}
		// without memory the coupon is simply forfeited
	}

	if period.IsFinal {
		outcome.IsTerminal = true
	}
	return memory, outcome
}

func (e *Evaluator) evaluateHimalaya(cfg *models.ProductScheduleConfig, schedule models.Schedule, observations []domsvc.PeriodObservation) (*models.EvaluationResult, error) {
	res := &models.EvaluationResult{
		ProductID: cfg.ProductID,
		State:     models.StateActive,
	}
	removed := make(map[string]bool)

	byPeriod, err := indexObservations(observations)
	if err != nil {
		return nil, err
	}

	for i := range schedule {
		period := &schedule[i]
		obs, ok := byPeriod[period.PeriodIndex]
		if !ok {
			res.State = models.StateIncomplete
			return res, nil
		}

		best, selErr := HimalayaSelect(obs.Performances, removed)
		if selErr != nil {
			return nil, selErr
		}
		removed[best.Symbol] = true
		res.LockIns = append(res.LockIns, models.HimalayaLockIn{
			PeriodIndex: period.PeriodIndex,
			Symbol:      best.Symbol,
			Performance: best.Performance,
		})
		res.Outcomes = append(res.Outcomes, models.ObservationOutcome{
			ProductID:   cfg.ProductID,
			PeriodIndex: period.PeriodIndex,
			BasketLevel: best.Performance,
			IsTerminal:  period.IsFinal,
			ObservedAt:  period.ObservationDate,
		})
	}

	// re-mark locked-in performances at maturity when configured: the
	// final observation supplies the level for every locked-in symbol
	if cfg.HimalayaRemarkAtMaturity {
		if final, ok := byPeriod[schedule[len(schedule)-1].PeriodIndex]; ok {
			finalPerf := make(map[string]float64, len(final.Performances))
			for _, p := range final.Performances {
				finalPerf[p.Symbol] = p.Performance
			}
			for i := range res.LockIns {
				if p, ok := finalPerf[res.LockIns[i].Symbol]; ok {
					res.LockIns[i].Performance = p
				}
			}
		}
	}

	level := HimalayaFinalLevel(res.LockIns)
	res.FinalLevel = &level
	res.State = models.StateMaturedNormally
	res.Regime = redemptionRegime(level, cfg.ProtectionBarrier)
	return res, nil
}

// indexObservations checks the strictly consecutive 1-based ordering and
// returns a lookup by period index.
func indexObservations(observations []domsvc.PeriodObservation) (map[int]domsvc.PeriodObservation, error) {
	byPeriod := make(map[int]domsvc.PeriodObservation, len(observations))
	for i, obs := range observations {
		if obs.PeriodIndex != i+1 {
			return nil, &SequenceError{Want: i + 1, Got: obs.PeriodIndex}
		}
		byPeriod[obs.PeriodIndex] = obs
	}
	return byPeriod, nil
}

// redemptionRegime decides the capital-return regime at maturity: at or
// above the protection barrier capital is returned in full, below it the
// redemption tracks the basket level proportionally.
func redemptionRegime(level, protectionBarrier float64) models.RedemptionRegime {
	if level >= protectionBarrier {
		return models.RedemptionProtected
	}
	return models.RedemptionAtRisk
}
