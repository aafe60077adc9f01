package service

import (
	"NoteFlow/internal/domain/models"
)

// ScheduleGenerator builds the contractual observation timetable for a product.
type ScheduleGenerator interface {
	Generate(cfg *models.ProductScheduleConfig, underlyingCount int) (models.Schedule, error)
}

// OutcomeEvaluator walks occurred periods in order and resolves outcomes.
type OutcomeEvaluator interface {
	Evaluate(cfg *models.ProductScheduleConfig, schedule models.Schedule, observations []PeriodObservation) (*models.EvaluationResult, error)
}

// PeriodObservation carries the per-underlying performances recorded for
// one occurred observation period.
type PeriodObservation struct {
	PeriodIndex  int
	Performances []models.UnderlyingPerformance
}

// OutcomePredictor classifies the likely result of the next observation
// from a live basket level. Advisory only; never writes outcomes.
type OutcomePredictor interface {
	PredictNext(cfg *models.ProductScheduleConfig, schedule models.Schedule, outcomes []models.ObservationOutcome, live []models.UnderlyingPerformance) (*models.NextObservationPrediction, error)
}
