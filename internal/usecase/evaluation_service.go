package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"NoteFlow/internal/domain/models"
	domrepo "NoteFlow/internal/domain/repository"
	domsvc "NoteFlow/internal/domain/service"
	"NoteFlow/internal/services/engine"
	"NoteFlow/pkg/cache"
	"NoteFlow/pkg/logger"
)

// levelLookbackDays bounds how far back the market data store is searched
// for a closing level around an observation date.
const levelLookbackDays = 5

// EvaluationService walks a product's schedule against stored closing
// levels and persists the resolved outcomes. Concurrent evaluations of
// the same product coalesce into one run; callers share its result.
type EvaluationService struct {
	products domrepo.ProductStore
	levels   domrepo.MarketDataStore
	outcomes domrepo.OutcomeStore
	events   domrepo.EventPublisher
	gen      domsvc.ScheduleGenerator
	eval     domsvc.OutcomeEvaluator
	metrics  domrepo.Metrics
	log      *logger.Logger
	cache    cache.Service

	mu       sync.Mutex
	inflight map[string]*evalCall
}

// outcomeCacheTTL bounds staleness of cached outcome reads between
// evaluations.
const outcomeCacheTTL = 30 * time.Second

type evalCall struct {
	done chan struct{}
	res  *models.EvaluationResult
	err  error
}

func NewEvaluationService(
	products domrepo.ProductStore,
	levels domrepo.MarketDataStore,
	outcomes domrepo.OutcomeStore,
	events domrepo.EventPublisher,
	gen domsvc.ScheduleGenerator,
	eval domsvc.OutcomeEvaluator,
	metrics domrepo.Metrics,
	log *logger.Logger,
	cacheSvc cache.Service,
) *EvaluationService {
	return &EvaluationService{
		products: products,
		levels:   levels,
		outcomes: outcomes,
		events:   events,
		gen:      gen,
		eval:     eval,
		metrics:  metrics,
		log:      log,
		cache:    cacheSvc,
		inflight: make(map[string]*evalCall),
	}
}

// Evaluate resolves every period of productID that has occurred by asOf.
// Re-running over the same data is idempotent; outcomes are keyed by
// (product, period) in the store.
func (s *EvaluationService) Evaluate(ctx context.Context, productID string, asOf time.Time) (*models.EvaluationResult, error) {
	s.mu.Lock()
	if c, ok := s.inflight[productID]; ok {
		s.mu.Unlock()
		select {
		case <-c.done:
			return c.res, c.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	c := &evalCall{done: make(chan struct{})}
	s.inflight[productID] = c
	s.mu.Unlock()

	c.res, c.err = s.run(ctx, productID, asOf)
	close(c.done)

	s.mu.Lock()
	delete(s.inflight, productID)
	s.mu.Unlock()

	return c.res, c.err
}

func (s *EvaluationService) run(ctx context.Context, productID string, asOf time.Time) (*models.EvaluationResult, error) {
	start := time.Now()
	cfg, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		s.metrics.RecordError("product_load")
		return nil, fmt.Errorf("load product %s: %w", productID, err)
	}

	schedule, err := s.Schedule(ctx, cfg)
	if err != nil {
		return nil, err
	}

	observations, err := s.collectObservations(ctx, cfg, schedule, asOf)
	if err != nil {
		return nil, err
	}

	res, err := s.eval.Evaluate(cfg, schedule, observations)
	if err != nil {
		s.metrics.RecordError("evaluate")
		return nil, fmt.Errorf("evaluate %s: %w", productID, err)
	}

	if len(res.Outcomes) > 0 {
		if err := s.outcomes.SaveOutcomes(ctx, productID, res.Outcomes); err != nil {
			s.metrics.RecordError("outcome_save")
			return nil, fmt.Errorf("save outcomes %s: %w", productID, err)
		}
		if s.cache != nil {
			_ = s.cache.DeleteByPattern(ctx, "outcomes:"+productID+":*")
		}
	}
	if s.events != nil {
		if err := s.events.PublishEvaluation(ctx, res); err != nil {
			// delivery failure does not invalidate the evaluation itself
			s.metrics.RecordError("event_publish")
			s.log.Warn("evaluation event publish failed",
				logger.String("product", productID), logger.Error(err))
		}
	}

	s.metrics.RecordLatency("evaluate", time.Since(start).Seconds())
	return res, nil
}

// Schedule returns the stored schedule for cfg, generating and persisting
// it on first use.
func (s *EvaluationService) Schedule(ctx context.Context, cfg *models.ProductScheduleConfig) (models.Schedule, error) {
	if stored, err := s.outcomes.GetSchedule(ctx, cfg.ProductID); err == nil && len(stored) > 0 {
		return stored, nil
	}

	schedule, err := s.gen.Generate(cfg, len(cfg.Underlyings))
	if err != nil {
		s.metrics.RecordError("schedule_generate")
		return nil, fmt.Errorf("generate schedule %s: %w", cfg.ProductID, err)
	}
	if err := s.outcomes.SaveSchedule(ctx, cfg.ProductID, schedule); err != nil {
		s.metrics.RecordError("schedule_save")
		return nil, fmt.Errorf("save schedule %s: %w", cfg.ProductID, err)
	}
	return schedule, nil
}

// EditScheduleDate replaces one period's observation and/or value date and
// persists the amended schedule. Edits that break the strict period
// ordering are rejected by the generator's validation.
func (s *EvaluationService) EditScheduleDate(ctx context.Context, productID string, periodIndex int, obsDate, valueDate time.Time) (models.Schedule, error) {
	cfg, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("load product %s: %w", productID, err)
	}
	schedule, err := s.Schedule(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// an omitted date keeps the current one
	for _, p := range schedule {
		if p.PeriodIndex == periodIndex {
			if obsDate.IsZero() {
				obsDate = p.ObservationDate
			}
			if valueDate.IsZero() {
				valueDate = p.ValueDate
			}
			break
		}
	}

	edited, err := engine.ApplyDateEdit(schedule, periodIndex, obsDate, valueDate)
	if err != nil {
		s.metrics.RecordError("schedule_edit")
		return nil, err
	}
	if err := s.outcomes.SaveSchedule(ctx, productID, edited); err != nil {
		s.metrics.RecordError("schedule_save")
		return nil, fmt.Errorf("save schedule %s: %w", productID, err)
	}
	s.log.Info("schedule date edited",
		logger.String("product", productID),
		logger.Int("period", periodIndex))
	return edited, nil
}

// collectObservations gathers per-underlying performances for every period
// observed by asOf. Collection stops at the first period with a missing
// level: later periods cannot be evaluated out of order, and levels are
// never fabricated.
func (s *EvaluationService) collectObservations(ctx context.Context, cfg *models.ProductScheduleConfig, schedule models.Schedule, asOf time.Time) ([]domsvc.PeriodObservation, error) {
	var out []domsvc.PeriodObservation
	for _, period := range schedule {
		if period.ObservationDate.After(asOf) {
			break
		}
		perfs, ok, err := s.performancesOn(ctx, cfg, period.ObservationDate)
		if err != nil {
			return nil, err
		}
		if !ok {
			s.metrics.RecordError("missing_level")
			s.log.Warn("missing closing level",
				logger.String("product", cfg.ProductID),
				logger.Int("period", period.PeriodIndex))
			break
		}
		out = append(out, domsvc.PeriodObservation{
			PeriodIndex:  period.PeriodIndex,
			Performances: perfs,
		})
	}
	return out, nil
}

func (s *EvaluationService) performancesOn(ctx context.Context, cfg *models.ProductScheduleConfig, date time.Time) ([]models.UnderlyingPerformance, bool, error) {
	perfs := make([]models.UnderlyingPerformance, 0, len(cfg.Underlyings))
	for _, u := range cfg.Underlyings {
		lv, err := s.levels.CloseOn(ctx, u.Symbol, date, levelLookbackDays)
		if err != nil {
			return nil, false, fmt.Errorf("level %s@%s: %w", u.Symbol, date.Format("2006-01-02"), err)
		}
		if lv == nil {
			return nil, false, nil
		}
		if u.Strike <= 0 {
			return nil, false, fmt.Errorf("underlying %s has no strike", u.Symbol)
		}
		perfs = append(perfs, models.UnderlyingPerformance{
			Symbol:      u.Symbol,
			Performance: lv.Close / u.Strike * 100,
			Weight:      u.Weight,
		})
	}
	return perfs, true, nil
}

// Outcomes returns the stored outcome history for a product. Reads go
// through the cache; evaluations invalidate it on write.
func (s *EvaluationService) Outcomes(ctx context.Context, productID string, limit int) ([]models.ObservationOutcome, error) {
	key := fmt.Sprintf("outcomes:%s:%d", productID, limit)
	if s.cache != nil {
		var cached []models.ObservationOutcome
		if err := s.cache.Get(ctx, key, &cached); err == nil && len(cached) > 0 {
			return cached, nil
		}
	}

	outcomes, err := s.outcomes.GetOutcomes(ctx, productID, limit)
	if err != nil {
		return nil, err
	}
	if s.cache != nil && len(outcomes) > 0 {
		_ = s.cache.Set(ctx, key, outcomes, outcomeCacheTTL)
	}
	return outcomes, nil
}

// Product exposes product lookup to sibling services.
func (s *EvaluationService) Product(ctx context.Context, productID string) (*models.ProductScheduleConfig, error) {
	return s.products.GetProduct(ctx, productID)
}

// ListProducts returns every product ID known to the store.
func (s *EvaluationService) ListProducts(ctx context.Context) ([]string, error) {
	return s.products.ListProductIDs(ctx)
}
