package models

import "time"

// ProductState is the lifecycle state of a product under evaluation.
type ProductState string

const (
	StateActive          ProductState = "active"
	StateCalled          ProductState = "called"
	StateMaturedNormally ProductState = "maturedNormally"
	StateIncomplete      ProductState = "incomplete"
)

// Terminal reports whether the state absorbs all further evaluation.
func (s ProductState) Terminal() bool {
	return s == StateCalled || s == StateMaturedNormally
}

// RedemptionRegime is the capital-return decision at maturity.
type RedemptionRegime string

const (
	RedemptionProtected RedemptionRegime = "protected" // full capital return
	RedemptionAtRisk    RedemptionRegime = "atRisk"    // capital reduced proportionally
	RedemptionNone      RedemptionRegime = ""          // not matured
)

// ObservationOutcome is the resolved result of one occurred period.
// Outcomes are append-only; they are never rewritten once produced.
type ObservationOutcome struct {
	ProductID           string
	PeriodIndex         int
	BasketLevel         float64
	ProductCalled       bool
	CouponPaid          float64
	CouponAddedToMemory float64
	IsTerminal          bool
	ObservedAt          time.Time
}

// MemoryState is the running coupon-memory accumulator. It is threaded
// through the evaluation fold and reset to zero on every payout.
type MemoryState struct {
	AccumulatedAmount float64
}

// HimalayaLockIn records the underlying removed from the basket at a period.
type HimalayaLockIn struct {
	PeriodIndex int
	Symbol      string
	Performance float64
}

// EvaluationResult is the full output of walking a product's schedule.
type EvaluationResult struct {
	ProductID string
	State     ProductState
	Outcomes  []ObservationOutcome
	Memory    MemoryState
	Regime    RedemptionRegime

	// Himalaya only: locked-in performances per period and their simple
	// average once every period has occurred.
	LockIns    []HimalayaLockIn
	FinalLevel *float64
}
