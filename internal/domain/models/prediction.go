package models

import "time"

// OutcomeType classifies the likely result of the next observation.
type OutcomeType string

const (
	OutcomeAutocall        OutcomeType = "autocall"
	OutcomeCoupon          OutcomeType = "coupon"
	OutcomeMemoryAdded     OutcomeType = "memoryAdded"
	OutcomeFinalRedemption OutcomeType = "finalRedemption"
	OutcomeNoEvent         OutcomeType = "noEvent"
)

// NextObservationPrediction is the advisory classification of the first
// non-occurred period. Recomputed on every price refresh, never persisted.
type NextObservationPrediction struct {
	ProductID          string
	PeriodIndex        int
	ObservationDate    time.Time
	Outcome            OutcomeType
	CurrentBasketLevel float64
	DistanceToBarrier  float64 // level minus the lowest applicable barrier
	Regime             RedemptionRegime
	ComputedAt         time.Time
}

// RiskZone is the three-bucket distance-to-barrier classification.
type RiskZone string

const (
	RiskSafe         RiskZone = "safe"         // distance > 10
	RiskWarning      RiskZone = "warning"      // 0 <= distance <= 10
	RiskBelowBarrier RiskZone = "belowBarrier" // distance < 0
)

// UnderlyingRisk is the per underlying-product pair risk classification
// consumed by portfolio risk dashboards.
type UnderlyingRisk struct {
	ProductID     string
	Symbol        string
	Performance   float64
	Distance      float64
	Zone          RiskZone
	AnnualizedVol float64 // 0 when too few quotes to estimate
}
