package stats

import (
	"math"
	"time"
)

const secondsPerYear = 365 * 24 * 60 * 60

// LogReturns computes r_t = ln(P_t / P_{t-1}) over a price series.
// Returns a slice of length len(prices)-1, or nil if insufficient data.
func LogReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	out := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		prev, cur := prices[i-1], prices[i]
		if prev <= 0 || cur <= 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, math.Log(cur/prev))
	}
	return out
}

// RealizedVolatility computes annualized realized volatility over the
// trailing window of log returns. Returns 0 when the window cannot be
// filled.
func RealizedVolatility(logReturns []float64, window int, periodsPerYear float64) float64 {
	if window <= 1 || len(logReturns) < window || periodsPerYear <= 0 {
		return 0
	}
	sum := 0.0
	sum2 := 0.0
	for i := len(logReturns) - window; i < len(logReturns); i++ {
		r := logReturns[i]
		sum += r
		sum2 += r * r
	}
	n := float64(window)
	mean := sum / n
	variance := (sum2 - n*mean*mean) / (n - 1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance * periodsPerYear)
}

// PeriodsPerYear derives the annualization factor from the observed
// sampling interval. Tick streams are irregular, so the average spacing
// of the sample stands in for a fixed bar size.
func PeriodsPerYear(avgSpacing time.Duration) float64 {
	if avgSpacing <= 0 {
		return 0
	}
	return secondsPerYear / avgSpacing.Seconds()
}
