package engine

import (
	"errors"
	"fmt"
)

// ErrMissingMarketData marks a period that has passed but has no usable
// basket level. It is a recoverable condition: the period stays incomplete
// and the product is re-evaluated on the next refresh.
var ErrMissingMarketData = errors.New("engine: missing market data")

// ConfigError reports an invalid or inconsistent product configuration.
// No partial work is performed when one is returned.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid config %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid config: %s", e.Reason)
}

func configErrorf(field, format string, a ...interface{}) *ConfigError {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, a...)}
}

// DataIntegrityError reports calendar or schedule data that cannot be
// auto-corrected (no trading day within the roll horizon, a manual edit
// breaking strict date ordering).
type DataIntegrityError struct {
	Reason string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("data integrity: %s", e.Reason)
}

// SequenceError reports an attempt to evaluate periods out of order.
// This is a programming error and must not be swallowed by callers.
type SequenceError struct {
	Want int
	Got  int
}

func (e *SequenceError) Error() string {
	return fmt.Sprintf("sequence violation: expected period %d, got %d", e.Want, e.Got)
}
