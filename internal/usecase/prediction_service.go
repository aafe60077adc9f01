package usecase

import (
	"context"
	"fmt"
	"time"

	"NoteFlow/internal/domain/models"
	domrepo "NoteFlow/internal/domain/repository"
	domsvc "NoteFlow/internal/domain/service"
	svcache "NoteFlow/internal/service/cache"
	"NoteFlow/internal/services/engine"
	"NoteFlow/internal/services/stats"
)

// quoteLookback bounds how stale a live quote may be before prediction
// treats the symbol as having no usable level.
const quoteLookback = 24 * time.Hour

// volSampleSize and volWindow size the realized volatility estimate
// attached to risk rows.
const (
	volSampleSize = 128
	volWindow     = 60
)

// PredictionService classifies the next observation of a product from
// live quotes. Results are advisory and cached briefly; nothing here ever
// writes an outcome.
type PredictionService struct {
	evals     *EvaluationService
	predictor domsvc.OutcomePredictor
	quotes    domrepo.Storage
	cache     *svcache.TTLCache
	cacheTTL  time.Duration
	metrics   domrepo.Metrics
}

func NewPredictionService(
	evals *EvaluationService,
	predictor domsvc.OutcomePredictor,
	quotes domrepo.Storage,
	cache *svcache.TTLCache,
	cacheTTL time.Duration,
	metrics domrepo.Metrics,
) *PredictionService {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Second
	}
	return &PredictionService{
		evals:     evals,
		predictor: predictor,
		quotes:    quotes,
		cache:     cache,
		cacheTTL:  cacheTTL,
		metrics:   metrics,
	}
}

// Predict returns the advisory classification of productID's next
// observation, or nil when the product is fully resolved.
func (s *PredictionService) Predict(ctx context.Context, productID string) (*models.NextObservationPrediction, error) {
	if s.cache != nil {
		if v, ok := s.cache.Get("predict:" + productID); ok {
			if pred, ok := v.(*models.NextObservationPrediction); ok {
				return pred, nil
			}
		}
	}

	cfg, schedule, outcomes, err := s.load(ctx, productID)
	if err != nil {
		return nil, err
	}
	live, err := s.livePerformances(ctx, cfg)
	if err != nil {
		return nil, err
	}

	pred, err := s.predictor.PredictNext(cfg, schedule, outcomes, live)
	if err != nil {
		s.metrics.RecordError("predict")
		return nil, fmt.Errorf("predict %s: %w", productID, err)
	}
	if s.cache != nil && pred != nil {
		s.cache.Set("predict:"+productID, pred, s.cacheTTL)
	}
	return pred, nil
}

// Risk classifies every underlying of productID against the product's
// protection barrier using live quotes.
func (s *PredictionService) Risk(ctx context.Context, productID string) ([]models.UnderlyingRisk, error) {
	cfg, err := s.evals.Product(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("load product %s: %w", productID, err)
	}
	live, err := s.livePerformances(ctx, cfg)
	if err != nil {
		return nil, err
	}
	risks := engine.ClassifyUnderlyings(cfg, live)
	for i := range risks {
		risks[i].AnnualizedVol = s.annualizedVol(ctx, risks[i].Symbol)
	}
	return risks, nil
}

// annualizedVol estimates realized volatility from recent quotes. The
// estimate is best-effort; a thin tape yields 0 rather than an error.
func (s *PredictionService) annualizedVol(ctx context.Context, symbol string) float64 {
	now := time.Now()
	qs, err := s.quotes.Query(ctx, symbol, now.Add(-quoteLookback), now, volSampleSize)
	if err != nil || len(qs) < volWindow+1 || qs[0] == nil || qs[len(qs)-1] == nil {
		return 0
	}

	// query returns newest first
	prices := make([]float64, 0, len(qs))
	for i := len(qs) - 1; i >= 0; i-- {
		if qs[i] != nil {
			prices = append(prices, qs[i].Price)
		}
	}
	if len(prices) < volWindow+1 {
		return 0
	}

	span := time.Duration(qs[0].Timestamp-qs[len(qs)-1].Timestamp) * time.Second
	avgSpacing := span / time.Duration(len(qs)-1)
	returns := stats.LogReturns(prices)
	return stats.RealizedVolatility(returns, volWindow, stats.PeriodsPerYear(avgSpacing))
}

func (s *PredictionService) load(ctx context.Context, productID string) (*models.ProductScheduleConfig, models.Schedule, []models.ObservationOutcome, error) {
	cfg, err := s.evals.Product(ctx, productID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load product %s: %w", productID, err)
	}
	schedule, err := s.evals.Schedule(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	outcomes, err := s.evals.Outcomes(ctx, productID, 0)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load outcomes %s: %w", productID, err)
	}
	return cfg, schedule, outcomes, nil
}

func (s *PredictionService) livePerformances(ctx context.Context, cfg *models.ProductScheduleConfig) ([]models.UnderlyingPerformance, error) {
	now := time.Now()
	perfs := make([]models.UnderlyingPerformance, 0, len(cfg.Underlyings))
	for _, u := range cfg.Underlyings {
		qs, err := s.quotes.Query(ctx, u.Symbol, now.Add(-quoteLookback), now, 1)
		if err != nil {
			return nil, fmt.Errorf("live quote %s: %w", u.Symbol, err)
		}
		if len(qs) == 0 || qs[0] == nil {
			s.metrics.RecordError("missing_quote")
			return nil, fmt.Errorf("live quote %s: %w", u.Symbol, engine.ErrMissingMarketData)
		}
		if u.Strike <= 0 {
			return nil, fmt.Errorf("underlying %s has no strike", u.Symbol)
		}
		perfs = append(perfs, models.UnderlyingPerformance{
			Symbol:      u.Symbol,
			Performance: qs[0].Price / u.Strike * 100,
			Weight:      u.Weight,
		})
	}
	return perfs, nil
}
