package engine

import (
	"testing"

	"NoteFlow/internal/domain/models"
)

func TestPredictMemoryAdded(t *testing.T) {
	cfg := quarterlyConfig()
	schedule := mustSchedule(t, cfg, 0)

	// no outcomes yet: the next period is the cool-off period 1 with its
	// 80 coupon barrier; live worst-of sits two points below it
	pred, err := NewPredictor().PredictNext(cfg, schedule, nil, perfs(78, 95))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pred == nil {
		t.Fatalf("expected a prediction")
	}
	if pred.PeriodIndex != 1 {
		t.Fatalf("period %d", pred.PeriodIndex)
	}
	if pred.Outcome != models.OutcomeMemoryAdded {
		t.Fatalf("outcome %s", pred.Outcome)
	}
	if pred.DistanceToBarrier != -2 {
		t.Fatalf("distance %v", pred.DistanceToBarrier)
	}
	if pred.CurrentBasketLevel != 78 {
		t.Fatalf("level %v", pred.CurrentBasketLevel)
	}
}

func TestPredictNoEventWithoutMemory(t *testing.T) {
	cfg := quarterlyConfig()
	cfg.CouponMemoryEnabled = false
	schedule := mustSchedule(t, cfg, 0)

	pred, err := NewPredictor().PredictNext(cfg, schedule, nil, perfs(78))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pred.Outcome != models.OutcomeNoEvent {
		t.Fatalf("outcome %s", pred.Outcome)
	}
}

func TestPredictAutocall(t *testing.T) {
	cfg := quarterlyConfig()
	schedule := mustSchedule(t, cfg, 0)

	outcomes := []models.ObservationOutcome{{PeriodIndex: 1, BasketLevel: 85}}
	pred, err := NewPredictor().PredictNext(cfg, schedule, outcomes, perfs(103))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pred.PeriodIndex != 2 {
		t.Fatalf("period %d", pred.PeriodIndex)
	}
	if pred.Outcome != models.OutcomeAutocall {
		t.Fatalf("outcome %s", pred.Outcome)
	}
	if pred.DistanceToBarrier != 3 {
		t.Fatalf("distance to the 100 autocall level: %v", pred.DistanceToBarrier)
	}
}

func TestPredictCoupon(t *testing.T) {
	cfg := quarterlyConfig()
	schedule := mustSchedule(t, cfg, 0)

	outcomes := []models.ObservationOutcome{{PeriodIndex: 1, BasketLevel: 85}}
	pred, err := NewPredictor().PredictNext(cfg, schedule, outcomes, perfs(92))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 92 misses the 100 autocall but clears the 80 coupon barrier
	if pred.Outcome != models.OutcomeCoupon {
		t.Fatalf("outcome %s", pred.Outcome)
	}
	if pred.DistanceToBarrier != 12 {
		t.Fatalf("distance %v", pred.DistanceToBarrier)
	}
}

func TestPredictFinalRedemption(t *testing.T) {
	cfg := quarterlyConfig()
	cfg.CouponMemoryEnabled = false
	schedule := mustSchedule(t, cfg, 0)

	outcomes := []models.ObservationOutcome{
		{PeriodIndex: 1, BasketLevel: 85},
		{PeriodIndex: 2, BasketLevel: 85},
		{PeriodIndex: 3, BasketLevel: 85},
	}
	pred, err := NewPredictor().PredictNext(cfg, schedule, outcomes, perfs(65))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 65 misses the 80 coupon barrier and there is no memory to feed, so
	// maturity redemption is all that is left
	if pred.Outcome != models.OutcomeFinalRedemption {
		t.Fatalf("outcome %s", pred.Outcome)
	}
	if pred.Regime != models.RedemptionAtRisk {
		t.Fatalf("65 < 70 protection barrier: regime %s", pred.Regime)
	}
	if pred.DistanceToBarrier != -15 {
		t.Fatalf("distance to the 80 coupon barrier: %v", pred.DistanceToBarrier)
	}
}

func TestPredictCouponOnFinalPeriod(t *testing.T) {
	cfg := quarterlyConfig()
	schedule := mustSchedule(t, cfg, 0)

	outcomes := []models.ObservationOutcome{
		{PeriodIndex: 1, BasketLevel: 85},
		{PeriodIndex: 2, BasketLevel: 85},
		{PeriodIndex: 3, BasketLevel: 85},
	}
	pred, err := NewPredictor().PredictNext(cfg, schedule, outcomes, perfs(85))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 85 misses the 90 final autocall level but clears the 80 coupon
	// barrier: the final period still pays a coupon
	if pred.Outcome != models.OutcomeCoupon {
		t.Fatalf("outcome %s", pred.Outcome)
	}
	if pred.DistanceToBarrier != 5 {
		t.Fatalf("distance %v", pred.DistanceToBarrier)
	}
	if pred.Regime != models.RedemptionNone {
		t.Fatalf("coupon prediction carries no regime, got %s", pred.Regime)
	}
}

func TestPredictMemoryAddedOnFinalPeriod(t *testing.T) {
	cfg := quarterlyConfig()
	schedule := mustSchedule(t, cfg, 0)

	outcomes := []models.ObservationOutcome{
		{PeriodIndex: 1, BasketLevel: 85},
		{PeriodIndex: 2, BasketLevel: 85},
		{PeriodIndex: 3, BasketLevel: 85},
	}
	pred, err := NewPredictor().PredictNext(cfg, schedule, outcomes, perfs(75))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// below the barrier with memory on, the missed coupon accrues even at
	// the final observation
	if pred.Outcome != models.OutcomeMemoryAdded {
		t.Fatalf("outcome %s", pred.Outcome)
	}
	if pred.DistanceToBarrier != -5 {
		t.Fatalf("distance %v", pred.DistanceToBarrier)
	}
	if pred.Regime != models.RedemptionNone {
		t.Fatalf("memory prediction carries no regime, got %s", pred.Regime)
	}
}

func TestPredictNilWhenResolved(t *testing.T) {
	cfg := quarterlyConfig()
	schedule := mustSchedule(t, cfg, 0)

	outcomes := []models.ObservationOutcome{
		{PeriodIndex: 1, BasketLevel: 85},
		{PeriodIndex: 2, BasketLevel: 105, ProductCalled: true},
	}
	pred, err := NewPredictor().PredictNext(cfg, schedule, outcomes, perfs(90))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pred != nil {
		t.Fatalf("called product should not predict, got %+v", pred)
	}
}

func TestPredictIdempotent(t *testing.T) {
	cfg := quarterlyConfig()
	schedule := mustSchedule(t, cfg, 0)

	p := NewPredictor()
	a, err := p.PredictNext(cfg, schedule, nil, perfs(78))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := p.PredictNext(cfg, schedule, nil, perfs(78))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Outcome != b.Outcome || a.DistanceToBarrier != b.DistanceToBarrier || a.PeriodIndex != b.PeriodIndex {
		t.Fatalf("prediction is not stable: %+v vs %+v", a, b)
	}
}
