package engine

import (
	"time"

	"NoteFlow/internal/domain/models"
)

// Predictor classifies the likely result of the first unresolved
// observation from a live basket level. Its output is advisory: it never
// creates outcomes and repeated calls with the same inputs return the
// same classification.
type Predictor struct{}

func NewPredictor() *Predictor { return &Predictor{} }

// PredictNext finds the first period without an outcome and classifies
// what would happen if the current live levels held until its observation
// date. A fully resolved product yields a nil prediction.
func (p *Predictor) PredictNext(cfg *models.ProductScheduleConfig, schedule models.Schedule, outcomes []models.ObservationOutcome, live []models.UnderlyingPerformance) (*models.NextObservationPrediction, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	period := schedule.FirstUnresolved(outcomes)
	if period == nil {
		return nil, nil
	}

	level, err := Aggregate(live, cfg.BasketMode)
	if err != nil {
		return nil, err
	}

	pred := &models.NextObservationPrediction{
		ProductID:          cfg.ProductID,
		PeriodIndex:        period.PeriodIndex,
		ObservationDate:    period.ObservationDate,
		CurrentBasketLevel: level,
		ComputedAt:         time.Now().UTC(),
	}
	pred.Outcome, pred.DistanceToBarrier = classifyPeriod(cfg, period, level)
	if pred.Outcome == models.OutcomeFinalRedemption {
		pred.Regime = redemptionRegime(level, cfg.ProtectionBarrier)
	}
	return pred, nil
}

// classifyPeriod maps a hypothetical basket level at one period onto the
// closed outcome set. Coupon and memory rules apply on the final period
// too; maturity redemption is only predicted when neither does. Distance
// is against the autocall level when it is met, otherwise against the
// period's coupon barrier.
func classifyPeriod(cfg *models.ProductScheduleConfig, period *models.ObservationPeriod, level float64) (models.OutcomeType, float64) {
	if period.IsCallable && period.AutocallLevel != nil && level >= *period.AutocallLevel {
		return models.OutcomeAutocall, level - *period.AutocallLevel
	}
	if level >= period.CouponBarrier {
		return models.OutcomeCoupon, level - period.CouponBarrier
	}
	if cfg.CouponMemoryEnabled {
		return models.OutcomeMemoryAdded, level - period.CouponBarrier
	}
	if period.IsFinal {
		return models.OutcomeFinalRedemption, level - period.CouponBarrier
	}
	return models.OutcomeNoEvent, level - period.CouponBarrier
}
