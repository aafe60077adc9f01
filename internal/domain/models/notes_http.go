package models

// Requests for the notes HTTP endpoints. Defined in domain for consistency and reuse.

type ScheduleRequest struct {
	ProductID string `param:"id" json:"product_id" validate:"required"`
}

type OutcomesRequest struct {
	ProductID string `param:"id" json:"product_id" validate:"required"`
	Limit     int    `query:"limit" json:"limit" default:"100" validate:"gte=1,lte=1000"`
}

type PredictionRequest struct {
	ProductID string `param:"id" json:"product_id" validate:"required"`
}

type RiskRequest struct {
	ProductID string `param:"id" json:"product_id" validate:"required"`
}

type RefreshRequest struct {
	ProductID string `param:"id" json:"product_id" validate:"required"`
}

// ScheduleEditRequest replaces one period's observation and/or value date.
// Empty date fields keep the current value.
type ScheduleEditRequest struct {
	ProductID       string `param:"id" json:"product_id" validate:"required"`
	PeriodIndex     int    `json:"period_index" validate:"required,gte=1"`
	ObservationDate string `json:"observation_date,omitempty"` // 2006-01-02
	ValueDate       string `json:"value_date,omitempty"`       // 2006-01-02
}

// SchedulePreviewRequest generates a schedule from a posted configuration
// without touching any stored product.
type SchedulePreviewRequest struct {
	TradeDate            string   `json:"trade_date" validate:"required"`
	FinalObservationDate string   `json:"final_observation_date" validate:"required"`
	Frequency            string   `json:"frequency" default:"quarterly" validate:"oneof=monthly quarterly semiAnnually annually"`
	DelayDays            int      `json:"delay_days" default:"2" validate:"gte=0,lte=30"`
	CoolOffPeriods       int      `json:"cool_off_periods" default:"0" validate:"gte=0,lte=40"`
	InitialAutocallLevel float64  `json:"initial_autocall_level" default:"100" validate:"gt=0"`
	StepDownPerPeriod    float64  `json:"step_down_per_period"`
	CouponBarrier        float64  `json:"coupon_barrier" default:"70" validate:"gte=0"`
	TemplateVariant      string   `json:"template_variant" default:"standard" validate:"oneof=standard himalaya"`
	MarketCalendars      []string `json:"market_calendars"`
	UnderlyingCount      int      `json:"underlying_count" default:"1" validate:"gte=0,lte=20"`
}
