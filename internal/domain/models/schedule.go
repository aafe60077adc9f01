package models

import "time"

// ObservationPeriod is one element of the generated schedule, 1-indexed.
type ObservationPeriod struct {
	PeriodIndex     int
	ObservationDate time.Time
	ValueDate       time.Time
	IsCallable      bool
	AutocallLevel   *float64 // nil while not callable
	CouponBarrier   float64
	IsFinal         bool
}

// Schedule is the ordered list of observation periods for one product.
type Schedule []ObservationPeriod

// Final returns the last period, or nil for an empty schedule.
func (s Schedule) Final() *ObservationPeriod {
	if len(s) == 0 {
		return nil
	}
	return &s[len(s)-1]
}

// FirstUnresolved returns the first period with no outcome recorded,
// or nil if every period is resolved (or the schedule is empty).
func (s Schedule) FirstUnresolved(outcomes []ObservationOutcome) *ObservationPeriod {
	resolved := make(map[int]bool, len(outcomes))
	for _, o := range outcomes {
		resolved[o.PeriodIndex] = true
		if o.ProductCalled {
			// nothing after a call is ever observed
			return nil
		}
	}
	for i := range s {
		if !resolved[s[i].PeriodIndex] {
			return &s[i]
		}
	}
	return nil
}
