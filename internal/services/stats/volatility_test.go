package stats

import (
	"math"
	"testing"
	"time"
)

func TestLogReturns(t *testing.T) {
	got := LogReturns([]float64{100, 110, 99})
	if len(got) != 2 {
		t.Fatalf("expected 2 returns, got %d", len(got))
	}
	if math.Abs(got[0]-math.Log(1.1)) > 1e-12 {
		t.Fatalf("first return %v", got[0])
	}
	if math.Abs(got[1]-math.Log(0.9)) > 1e-12 {
		t.Fatalf("second return %v", got[1])
	}
}

func TestLogReturnsSkipsNonPositivePrices(t *testing.T) {
	got := LogReturns([]float64{100, 0, 105})
	if got[0] != 0 || got[1] != 0 {
		t.Fatalf("non-positive prices must yield zero returns: %v", got)
	}
	if LogReturns([]float64{100}) != nil {
		t.Fatal("single price has no returns")
	}
}

func TestRealizedVolatility(t *testing.T) {
	// constant series: zero variance
	flat := make([]float64, 50)
	if v := RealizedVolatility(flat, 20, 252); v != 0 {
		t.Fatalf("flat series vol %v", v)
	}

	// alternating +-1% moves have a well-known sample deviation
	alt := make([]float64, 50)
	for i := range alt {
		if i%2 == 0 {
			alt[i] = 0.01
		} else {
			alt[i] = -0.01
		}
	}
	v := RealizedVolatility(alt, 20, 252)
	if v <= 0 {
		t.Fatalf("alternating series vol %v", v)
	}

	// short window or short series: no estimate
	if RealizedVolatility(alt, 1, 252) != 0 {
		t.Fatal("window of 1 has no variance")
	}
	if RealizedVolatility(alt[:5], 20, 252) != 0 {
		t.Fatal("series shorter than window has no estimate")
	}
}

func TestPeriodsPerYear(t *testing.T) {
	if got := PeriodsPerYear(time.Minute); got != 365*24*60 {
		t.Fatalf("minute bars: %v", got)
	}
	if PeriodsPerYear(0) != 0 {
		t.Fatal("zero spacing has no annualization")
	}
}
