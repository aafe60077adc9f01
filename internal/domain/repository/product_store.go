package repository

import (
	"context"
	"time"

	"NoteFlow/internal/domain/models"
)

// ProductStore provides read access to structured-product definitions.
// The definition CRUD itself lives outside this service.
type ProductStore interface {
	GetProduct(ctx context.Context, productID string) (*models.ProductScheduleConfig, error)
	ListProductIDs(ctx context.Context) ([]string, error)
}

// MarketDataStore provides closing levels for resolving historical periods.
type MarketDataStore interface {
	// CloseOn returns the closing level of symbol on or before date,
	// searching back at most lookback days. A miss is reported with a
	// nil level, not an error.
	CloseOn(ctx context.Context, symbol string, date time.Time, lookback int) (*models.ObservationLevel, error)
	StoreLevel(ctx context.Context, lv *models.ObservationLevel) error
}

// OutcomeStore persists evaluation results. Outcomes are append-only and
// keyed by (product, period); re-running an evaluation is idempotent.
type OutcomeStore interface {
	SaveSchedule(ctx context.Context, productID string, schedule models.Schedule) error
	GetSchedule(ctx context.Context, productID string) (models.Schedule, error)
	SaveOutcomes(ctx context.Context, productID string, outcomes []models.ObservationOutcome) error
	GetOutcomes(ctx context.Context, productID string, limit int) ([]models.ObservationOutcome, error)
}

// EventPublisher emits evaluation lifecycle events for downstream consumers.
type EventPublisher interface {
	PublishEvaluation(ctx context.Context, res *models.EvaluationResult) error
	Close() error
}
