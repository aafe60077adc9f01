package models

import "time"

// Quote is one live price tick for an underlying.
type Quote struct {
	Symbol    string
	Timestamp int64 // unix seconds
	Price     float64
	Volume    float64
}

// ObservationLevel is the closing/reference price of an underlying on or
// near an observation date, used to resolve historical periods.
type ObservationLevel struct {
	Symbol string
	Date   time.Time
	Close  float64
}

// UnderlyingPerformance is a spot expressed as a percentage of strike.
type UnderlyingPerformance struct {
	Symbol      string
	Performance float64 // 100 = parity
	Weight      float64 // optional; 0 means equal-weighted
}
