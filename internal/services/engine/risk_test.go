package engine

import (
	"testing"

	"NoteFlow/internal/domain/models"
)

func TestClassifyDistance(t *testing.T) {
	cases := []struct {
		distance float64
		want     models.RiskZone
	}{
		{15, models.RiskSafe},
		{10.01, models.RiskSafe},
		{10, models.RiskWarning},
		{5, models.RiskWarning},
		{0, models.RiskWarning},
		{-0.01, models.RiskBelowBarrier},
		{-20, models.RiskBelowBarrier},
	}
	for _, c := range cases {
		if got := ClassifyDistance(c.distance); got != c.want {
			t.Fatalf("distance %v: got %s, want %s", c.distance, got, c.want)
		}
	}
}

func TestClassifyUnderlyings(t *testing.T) {
	cfg := quarterlyConfig() // protection barrier 70
	live := []models.UnderlyingPerformance{
		{Symbol: "AAA", Performance: 95},
		{Symbol: "BBB", Performance: 75},
		{Symbol: "CCC", Performance: 60},
	}
	risks := ClassifyUnderlyings(cfg, live)
	if len(risks) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(risks))
	}
	wantZones := []models.RiskZone{models.RiskSafe, models.RiskWarning, models.RiskBelowBarrier}
	wantDist := []float64{25, 5, -10}
	for i, r := range risks {
		if r.Zone != wantZones[i] {
			t.Fatalf("%s: zone %s, want %s", r.Symbol, r.Zone, wantZones[i])
		}
		if r.Distance != wantDist[i] {
			t.Fatalf("%s: distance %v", r.Symbol, r.Distance)
		}
		if r.ProductID != cfg.ProductID {
			t.Fatalf("%s: product %s", r.Symbol, r.ProductID)
		}
	}
}
