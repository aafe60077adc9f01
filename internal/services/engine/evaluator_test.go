package engine

import (
	"testing"

	"NoteFlow/internal/domain/models"
	domsvc "NoteFlow/internal/domain/service"
)

func obs(period int, levels ...float64) domsvc.PeriodObservation {
	return domsvc.PeriodObservation{PeriodIndex: period, Performances: perfs(levels...)}
}

func mustSchedule(t *testing.T, cfg *models.ProductScheduleConfig, underlyings int) models.Schedule {
	t.Helper()
	schedule, err := NewGenerator().Generate(cfg, underlyings)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	return schedule
}

func TestEvaluateAutocallHalts(t *testing.T) {
	cfg := quarterlyConfig()
	schedule := mustSchedule(t, cfg, 0)

	// period 1 is in cool-off; period 2 crosses its 100 autocall level
	res, err := NewEvaluator().Evaluate(cfg, schedule, []domsvc.PeriodObservation{
		obs(1, 101), // would autocall were it callable
		obs(2, 103),
		obs(3, 120), // never observed
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.State != models.StateCalled {
		t.Fatalf("state %s", res.State)
	}
	if len(res.Outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(res.Outcomes))
	}
	if res.Outcomes[0].ProductCalled {
		t.Fatalf("cool-off period must not call")
	}
	call := res.Outcomes[1]
	if !call.ProductCalled || !call.IsTerminal {
		t.Fatalf("period 2 should call")
	}
	if call.CouponPaid != 2 {
		t.Fatalf("autocall pays the current coupon, got %v", call.CouponPaid)
	}
	if res.Memory.AccumulatedAmount != 0 {
		t.Fatalf("memory should be reset on call")
	}
}

func TestEvaluateMemoryAccrualAndRelease(t *testing.T) {
	cfg := quarterlyConfig()
	schedule := mustSchedule(t, cfg, 0)

	res, err := NewEvaluator().Evaluate(cfg, schedule, []domsvc.PeriodObservation{
		obs(1, 75), // below the 80 barrier: coupon goes to memory
		obs(2, 85), // recovery: current coupon plus memory
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first := res.Outcomes[0]
	if first.CouponPaid != 0 || first.CouponAddedToMemory != 2 {
		t.Fatalf("period 1: paid %v, memory add %v", first.CouponPaid, first.CouponAddedToMemory)
	}
	second := res.Outcomes[1]
	if second.CouponPaid != 4 {
		t.Fatalf("period 2 should release memory: paid %v", second.CouponPaid)
	}
	if res.Memory.AccumulatedAmount != 0 {
		t.Fatalf("memory should reset after payout, got %v", res.Memory.AccumulatedAmount)
	}
	if res.State != models.StateIncomplete {
		t.Fatalf("two of four periods observed: state %s", res.State)
	}
}

func TestEvaluateMemoryDisabledForfeits(t *testing.T) {
	cfg := quarterlyConfig()
	cfg.CouponMemoryEnabled = false
	schedule := mustSchedule(t, cfg, 0)

	res, err := NewEvaluator().Evaluate(cfg, schedule, []domsvc.PeriodObservation{
		obs(1, 75),
		obs(2, 85),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcomes[0].CouponAddedToMemory != 0 {
		t.Fatalf("memory disabled: nothing should accrue")
	}
	if res.Outcomes[1].CouponPaid != 2 {
		t.Fatalf("only the current coupon is paid, got %v", res.Outcomes[1].CouponPaid)
	}
}

func TestEvaluateMissingDataIncomplete(t *testing.T) {
	cfg := quarterlyConfig()
	schedule := mustSchedule(t, cfg, 0)

	res, err := NewEvaluator().Evaluate(cfg, schedule, []domsvc.PeriodObservation{
		obs(1, 90),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.State != models.StateIncomplete {
		t.Fatalf("state %s", res.State)
	}
	if len(res.Outcomes) != 1 {
		t.Fatalf("outcomes must stop at the missing period, got %d", len(res.Outcomes))
	}
}

func TestEvaluateSequenceViolation(t *testing.T) {
	cfg := quarterlyConfig()
	schedule := mustSchedule(t, cfg, 0)

	_, err := NewEvaluator().Evaluate(cfg, schedule, []domsvc.PeriodObservation{
		obs(1, 90),
		obs(3, 90),
	})
	if err == nil {
		t.Fatalf("expected sequence violation")
	}
	seq, ok := err.(*SequenceError)
	if !ok {
		t.Fatalf("expected SequenceError, got %T", err)
	}
	if seq.Want != 2 || seq.Got != 3 {
		t.Fatalf("want %d got %d", seq.Want, seq.Got)
	}
}

func TestEvaluateFinalRegimes(t *testing.T) {
	cfg := quarterlyConfig()
	schedule := mustSchedule(t, cfg, 0)

	// all four periods observed, always below the 90-100 autocall range
	run := func(finalLevel float64) *models.EvaluationResult {
		res, err := NewEvaluator().Evaluate(cfg, schedule, []domsvc.PeriodObservation{
			obs(1, 85), obs(2, 85), obs(3, 85), obs(4, finalLevel),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return res
	}

	protected := run(85)
	if protected.State != models.StateMaturedNormally {
		t.Fatalf("state %s", protected.State)
	}
	if protected.Regime != models.RedemptionProtected {
		t.Fatalf("85 >= 70 barrier should protect, got %s", protected.Regime)
	}

	atRisk := run(60)
	if atRisk.Regime != models.RedemptionAtRisk {
		t.Fatalf("60 < 70 barrier should be at risk, got %s", atRisk.Regime)
	}
	if !atRisk.Outcomes[3].IsTerminal {
		t.Fatalf("final outcome should be terminal")
	}
}

func TestEvaluatePerPeriodBarrierOverride(t *testing.T) {
	cfg := quarterlyConfig()
	cfg.CouponBarriers = []float64{90, 70, 80, 80}
	schedule := mustSchedule(t, cfg, 0)

	res, err := NewEvaluator().Evaluate(cfg, schedule, []domsvc.PeriodObservation{
		obs(1, 85), // below the period-1 barrier of 90
		obs(2, 75), // above the period-2 barrier of 70
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcomes[0].CouponPaid != 0 || res.Outcomes[0].CouponAddedToMemory != 2 {
		t.Fatalf("period 1 should accrue against its own barrier")
	}
	if res.Outcomes[1].CouponPaid != 4 {
		t.Fatalf("period 2 should pay against its own barrier, got %v", res.Outcomes[1].CouponPaid)
	}
}

func himalayaConfig() *models.ProductScheduleConfig {
	cfg := quarterlyConfig()
	cfg.TemplateVariant = models.VariantHimalaya
	cfg.Underlyings = []models.Underlying{
		{Symbol: "AAA", Strike: 100},
		{Symbol: "BBB", Strike: 100},
	}
	return cfg
}

func himalayaObs(period int, a, b float64) domsvc.PeriodObservation {
	return domsvc.PeriodObservation{PeriodIndex: period, Performances: []models.UnderlyingPerformance{
		{Symbol: "AAA", Performance: a},
		{Symbol: "BBB", Performance: b},
	}}
}

func TestEvaluateHimalaya(t *testing.T) {
	cfg := himalayaConfig()
	schedule := mustSchedule(t, cfg, 2)

	res, err := NewEvaluator().Evaluate(cfg, schedule, []domsvc.PeriodObservation{
		himalayaObs(1, 110, 105), // AAA locks at 110
		himalayaObs(2, 120, 95),  // AAA is gone, BBB locks at 95
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.State != models.StateMaturedNormally {
		t.Fatalf("state %s", res.State)
	}
	if len(res.LockIns) != 2 {
		t.Fatalf("expected 2 lock-ins, got %d", len(res.LockIns))
	}
	if res.LockIns[0].Symbol != "AAA" || res.LockIns[0].Performance != 110 {
		t.Fatalf("lock-in 1: %+v", res.LockIns[0])
	}
	if res.LockIns[1].Symbol != "BBB" || res.LockIns[1].Performance != 95 {
		t.Fatalf("lock-in 2: %+v", res.LockIns[1])
	}
	if res.FinalLevel == nil || *res.FinalLevel != 102.5 {
		t.Fatalf("final level: %v", res.FinalLevel)
	}
	if res.Regime != models.RedemptionProtected {
		t.Fatalf("102.5 >= 70 should protect, got %s", res.Regime)
	}
}

func TestEvaluateHimalayaRemarkAtMaturity(t *testing.T) {
	cfg := himalayaConfig()
	cfg.HimalayaRemarkAtMaturity = true
	schedule := mustSchedule(t, cfg, 2)

	res, err := NewEvaluator().Evaluate(cfg, schedule, []domsvc.PeriodObservation{
		himalayaObs(1, 110, 105),
		himalayaObs(2, 120, 95),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// AAA re-marked from its 110 lock-in to the 120 maturity level
	if res.LockIns[0].Performance != 120 {
		t.Fatalf("re-mark: %+v", res.LockIns[0])
	}
	if res.FinalLevel == nil || *res.FinalLevel != 107.5 {
		t.Fatalf("final level: %v", res.FinalLevel)
	}
}

func TestEvaluateHimalayaIncomplete(t *testing.T) {
	cfg := himalayaConfig()
	schedule := mustSchedule(t, cfg, 2)

	res, err := NewEvaluator().Evaluate(cfg, schedule, []domsvc.PeriodObservation{
		himalayaObs(1, 110, 105),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.State != models.StateIncomplete {
		t.Fatalf("state %s", res.State)
	}
	if res.FinalLevel != nil {
		t.Fatalf("no final level before maturity")
	}
}
