package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"NoteFlow/internal/domain/models"
	"NoteFlow/internal/domain/repository"
	svcache "NoteFlow/internal/service/cache"
	"NoteFlow/internal/services/engine"
)

type fakeQuotes struct {
	mu     sync.Mutex
	quotes map[string][]*models.Quote // newest first, like the ClickHouse query
	reads  int
}

func (f *fakeQuotes) put(symbol string, price float64, at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.quotes == nil {
		f.quotes = make(map[string][]*models.Quote)
	}
	q := &models.Quote{Symbol: symbol, Price: price, Timestamp: at.Unix()}
	f.quotes[symbol] = append([]*models.Quote{q}, f.quotes[symbol]...)
}

func (f *fakeQuotes) Query(_ context.Context, symbol string, _, _ time.Time, limit int) ([]*models.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	qs := f.quotes[symbol]
	if limit > 0 && limit < len(qs) {
		qs = qs[:limit]
	}
	return qs, nil
}

func (f *fakeQuotes) Init(context.Context) error { return nil }

func (f *fakeQuotes) Store(context.Context, *models.Quote) error { return nil }

func (f *fakeQuotes) StoreBatch(context.Context, []*models.Quote) error { return nil }

func (f *fakeQuotes) Health(context.Context) error { return nil }

func (f *fakeQuotes) Close() error { return nil }

var _ repository.Storage = (*fakeQuotes)(nil)

func newPredictionFixture(t *testing.T, quotes *fakeQuotes) *PredictionService {
	t.Helper()
	evals := newTestService(&fakeProducts{cfg: testConfig()}, &fakeLevels{}, &memOutcomes{}, &fakeEvents{}, nil, t)
	return NewPredictionService(evals, engine.NewPredictor(), quotes, svcache.NewTTLCache(), 0, nopMetrics{})
}

func TestPredictBelowBarrierAddsToMemory(t *testing.T) {
	quotes := &fakeQuotes{}
	quotes.put("AAA", 78, time.Now())
	svc := newPredictionFixture(t, quotes)

	pred, err := svc.Predict(context.Background(), "NOTE-1")
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if pred == nil {
		t.Fatal("expected a prediction")
	}
	if pred.PeriodIndex != 1 {
		t.Fatalf("period %d", pred.PeriodIndex)
	}
	if pred.Outcome != models.OutcomeMemoryAdded {
		t.Fatalf("outcome %s", pred.Outcome)
	}
	if pred.DistanceToBarrier != -2 {
		t.Fatalf("distance %v", pred.DistanceToBarrier)
	}
}

func TestPredictUsesCache(t *testing.T) {
	quotes := &fakeQuotes{}
	quotes.put("AAA", 95, time.Now())
	svc := newPredictionFixture(t, quotes)

	first, err := svc.Predict(context.Background(), "NOTE-1")
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	readsAfterFirst := quotes.reads

	second, err := svc.Predict(context.Background(), "NOTE-1")
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if quotes.reads != readsAfterFirst {
		t.Fatalf("cached call hit the quote store")
	}
	if second != first {
		t.Fatal("cached call should return the same prediction")
	}
}

func TestPredictMissingQuoteFails(t *testing.T) {
	svc := newPredictionFixture(t, &fakeQuotes{}) // no quotes at all

	_, err := svc.Predict(context.Background(), "NOTE-1")
	if !errors.Is(err, engine.ErrMissingMarketData) {
		t.Fatalf("expected missing market data, got %v", err)
	}
}

func TestRiskClassifiesAgainstProtectionBarrier(t *testing.T) {
	quotes := &fakeQuotes{}
	quotes.put("AAA", 75, time.Now()) // 5 points above the 70 barrier
	svc := newPredictionFixture(t, quotes)

	risks, err := svc.Risk(context.Background(), "NOTE-1")
	if err != nil {
		t.Fatalf("risk: %v", err)
	}
	if len(risks) != 1 {
		t.Fatalf("expected 1 row, got %d", len(risks))
	}
	r := risks[0]
	if r.Zone != models.RiskWarning {
		t.Fatalf("zone %s", r.Zone)
	}
	if r.Distance != 5 {
		t.Fatalf("distance %v", r.Distance)
	}
	// a single quote is far too thin for a volatility estimate
	if r.AnnualizedVol != 0 {
		t.Fatalf("vol %v", r.AnnualizedVol)
	}
}

func TestRiskVolatilityFromQuoteHistory(t *testing.T) {
	quotes := &fakeQuotes{}
	base := time.Now().Add(-2 * time.Hour)
	price := 90.0
	for i := 0; i < 100; i++ {
		// alternate up and down moves so variance is nonzero
		if i%2 == 0 {
			price *= 1.01
		} else {
			price *= 0.99
		}
		quotes.put("AAA", price, base.Add(time.Duration(i)*time.Minute))
	}
	svc := newPredictionFixture(t, quotes)

	risks, err := svc.Risk(context.Background(), "NOTE-1")
	if err != nil {
		t.Fatalf("risk: %v", err)
	}
	if risks[0].AnnualizedVol <= 0 {
		t.Fatalf("expected a positive volatility estimate, got %v", risks[0].AnnualizedVol)
	}
}
