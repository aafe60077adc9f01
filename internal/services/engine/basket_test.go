package engine

import (
	"testing"

	"NoteFlow/internal/domain/models"
)

func perfs(levels ...float64) []models.UnderlyingPerformance {
	symbols := []string{"AAA", "BBB", "CCC", "DDD"}
	out := make([]models.UnderlyingPerformance, len(levels))
	for i, l := range levels {
		out[i] = models.UnderlyingPerformance{Symbol: symbols[i], Performance: l}
	}
	return out
}

func TestAggregateWorstOf(t *testing.T) {
	got, err := Aggregate(perfs(95, 102, 88), models.BasketWorstOf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 88 {
		t.Fatalf("worstOf: got %v", got)
	}
}

func TestAggregateBestOf(t *testing.T) {
	got, err := Aggregate(perfs(95, 102, 88), models.BasketBestOf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 102 {
		t.Fatalf("bestOf: got %v", got)
	}
}

func TestAggregateAverage(t *testing.T) {
	got, err := Aggregate(perfs(90, 100, 110), models.BasketAverage)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 100 {
		t.Fatalf("equal average: got %v", got)
	}

	weighted := []models.UnderlyingPerformance{
		{Symbol: "AAA", Performance: 90, Weight: 3},
		{Symbol: "BBB", Performance: 110, Weight: 1},
	}
	got, err = Aggregate(weighted, models.BasketAverage)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 95 {
		t.Fatalf("weighted average: got %v", got)
	}
}

func TestAggregateErrors(t *testing.T) {
	if _, err := Aggregate(nil, models.BasketWorstOf); err == nil {
		t.Fatalf("empty basket should fail")
	}
	if _, err := Aggregate(perfs(100), "median"); err == nil {
		t.Fatalf("unknown mode should fail")
	}
}

func TestHimalayaSelect(t *testing.T) {
	p := perfs(95, 120, 110)
	removed := map[string]bool{}

	best, err := HimalayaSelect(p, removed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if best.Symbol != "BBB" || best.Performance != 120 {
		t.Fatalf("expected BBB@120, got %s@%v", best.Symbol, best.Performance)
	}

	removed["BBB"] = true
	best, err = HimalayaSelect(p, removed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if best.Symbol != "CCC" {
		t.Fatalf("expected CCC after removal, got %s", best.Symbol)
	}

	removed["AAA"] = true
	removed["CCC"] = true
	if _, err := HimalayaSelect(p, removed); err == nil {
		t.Fatalf("exhausted basket should fail")
	}
}

func TestHimalayaFinalLevel(t *testing.T) {
	lockIns := []models.HimalayaLockIn{
		{PeriodIndex: 1, Symbol: "AAA", Performance: 110},
		{PeriodIndex: 2, Symbol: "BBB", Performance: 95},
	}
	if got := HimalayaFinalLevel(lockIns); got != 102.5 {
		t.Fatalf("final level: got %v", got)
	}
	if got := HimalayaFinalLevel(nil); got != 0 {
		t.Fatalf("empty lock-ins: got %v", got)
	}
}
