package models

import "time"

// Frequency is the observation period length.
type Frequency string

const (
	FreqMonthly      Frequency = "monthly"
	FreqQuarterly    Frequency = "quarterly"
	FreqSemiAnnually Frequency = "semiAnnually"
	FreqAnnually     Frequency = "annually"
)

// Months returns the period length in months, or 0 for an unknown frequency.
func (f Frequency) Months() int {
	switch f {
	case FreqMonthly:
		return 1
	case FreqQuarterly:
		return 3
	case FreqSemiAnnually:
		return 6
	case FreqAnnually:
		return 12
	default:
		return 0
	}
}

// BasketMode is the rule for reducing underlying performances to one level.
type BasketMode string

const (
	BasketWorstOf BasketMode = "worstOf"
	BasketBestOf  BasketMode = "bestOf"
	BasketAverage BasketMode = "average"
)

// TemplateVariant selects the product template.
type TemplateVariant string

const (
	VariantStandard TemplateVariant = "standard"
	VariantHimalaya TemplateVariant = "himalaya"
)

// CalendarID identifies a market jurisdiction for holiday adjustment.
type CalendarID string

const (
	CalendarUS CalendarID = "US"
	CalendarEU CalendarID = "EU"
	CalendarGB CalendarID = "GB"
)

// Underlying is one basket constituent with its initial fixing.
type Underlying struct {
	Symbol string
	Strike float64 // initial fixing price; performance = spot/strike*100
	Weight float64 // optional; 0 means equal-weighted
}

// ProductScheduleConfig is the immutable input for one evaluation run.
// Percentages are expressed with 100.0 = strike parity.
type ProductScheduleConfig struct {
	ProductID            string
	TradeDate            time.Time
	FinalObservationDate time.Time
	Frequency            Frequency
	DelayDays            int // calendar days from observation to value date
	CoolOffPeriods       int // leading non-callable periods
	InitialAutocallLevel float64
	StepDownPerPeriod    float64 // signed, applied per callable period index
	CouponBarrier        float64
	CouponBarriers       []float64 // optional per-period override, index = periodIndex-1
	CouponRate           float64   // coupon amount per period
	CouponRates          []float64 // optional per-period override, index = periodIndex-1
	CouponMemoryEnabled  bool
	ProtectionBarrier    float64
	BasketMode           BasketMode
	MarketCalendars      []CalendarID
	TemplateVariant      TemplateVariant

	// HimalayaRemarkAtMaturity re-marks locked-in performances at final
	// maturity instead of fixing them at the moment of removal.
	HimalayaRemarkAtMaturity bool

	Underlyings []Underlying

	// Carried for reporting; not used by the engine itself.
	Notional float64
	Currency string
	Issuer   string
}

// CouponBarrierFor returns the coupon barrier applicable to periodIndex (1-based).
func (c *ProductScheduleConfig) CouponBarrierFor(periodIndex int) float64 {
	if i := periodIndex - 1; i >= 0 && i < len(c.CouponBarriers) {
		return c.CouponBarriers[i]
	}
	return c.CouponBarrier
}

// CouponRateFor returns the coupon amount applicable to periodIndex (1-based).
func (c *ProductScheduleConfig) CouponRateFor(periodIndex int) float64 {
	if i := periodIndex - 1; i >= 0 && i < len(c.CouponRates) {
		return c.CouponRates[i]
	}
	return c.CouponRate
}
