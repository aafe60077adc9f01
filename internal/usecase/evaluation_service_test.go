package usecase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"NoteFlow/internal/domain/models"
	"NoteFlow/internal/domain/repository"
	domsvc "NoteFlow/internal/domain/service"
	"NoteFlow/internal/services/engine"
	pkgcache "NoteFlow/pkg/cache"
	"NoteFlow/pkg/logger"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testConfig() *models.ProductScheduleConfig {
	return &models.ProductScheduleConfig{
		ProductID:            "NOTE-1",
		TradeDate:            day(2025, time.January, 15),
		FinalObservationDate: day(2026, time.January, 15),
		Frequency:            models.FreqQuarterly,
		DelayDays:            2,
		CoolOffPeriods:       1,
		InitialAutocallLevel: 100,
		StepDownPerPeriod:    -5,
		CouponBarrier:        80,
		CouponRate:           2,
		CouponMemoryEnabled:  true,
		ProtectionBarrier:    70,
		BasketMode:           models.BasketWorstOf,
		MarketCalendars:      []models.CalendarID{models.CalendarUS},
		TemplateVariant:      models.VariantStandard,
		Underlyings:          []models.Underlying{{Symbol: "AAA", Strike: 100}},
	}
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

type fakeProducts struct {
	cfg   *models.ProductScheduleConfig
	gate  chan struct{} // when set, GetProduct blocks until closed
	calls int64
}

func (f *fakeProducts) GetProduct(_ context.Context, id string) (*models.ProductScheduleConfig, error) {
	atomic.AddInt64(&f.calls, 1)
	if f.gate != nil {
		<-f.gate
	}
	if id != f.cfg.ProductID {
		return nil, fmt.Errorf("unknown product %s", id)
	}
	return f.cfg, nil
}

func (f *fakeProducts) ListProductIDs(context.Context) ([]string, error) {
	return []string{f.cfg.ProductID}, nil
}

type fakeLevels struct {
	mu     sync.Mutex
	closes map[string]float64 // "SYM@2006-01-02"
}

func (f *fakeLevels) put(symbol string, date time.Time, close float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closes == nil {
		f.closes = make(map[string]float64)
	}
	f.closes[symbol+"@"+date.Format("2006-01-02")] = close
}

func (f *fakeLevels) CloseOn(_ context.Context, symbol string, date time.Time, lookback int) (*models.ObservationLevel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for d := 0; d <= lookback; d++ {
		at := date.AddDate(0, 0, -d)
		if c, ok := f.closes[symbol+"@"+at.Format("2006-01-02")]; ok {
			return &models.ObservationLevel{Symbol: symbol, Date: at, Close: c}, nil
		}
	}
	return nil, nil
}

func (f *fakeLevels) StoreLevel(_ context.Context, lv *models.ObservationLevel) error {
	f.put(lv.Symbol, lv.Date, lv.Close)
	return nil
}

type memOutcomes struct {
	mu       sync.Mutex
	schedule models.Schedule
	outcomes []models.ObservationOutcome
	reads    int
}

func (m *memOutcomes) SaveSchedule(_ context.Context, _ string, s models.Schedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schedule = s
	return nil
}

func (m *memOutcomes) GetSchedule(context.Context, string) (models.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.schedule, nil
}

func (m *memOutcomes) SaveOutcomes(_ context.Context, _ string, outcomes []models.ObservationOutcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = outcomes
	return nil
}

func (m *memOutcomes) GetOutcomes(_ context.Context, _ string, limit int) ([]models.ObservationOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	if limit > 0 && limit < len(m.outcomes) {
		return m.outcomes[:limit], nil
	}
	return m.outcomes, nil
}

type fakeEvents struct {
	mu        sync.Mutex
	published int
}

func (f *fakeEvents) PublishEvaluation(context.Context, *models.EvaluationResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published++
	return nil
}

func (f *fakeEvents) Close() error { return nil }

type nopMetrics struct{}

func (nopMetrics) RecordMessageSent(string, string) {}
func (nopMetrics) RecordError(string)               {}
func (nopMetrics) RecordLastLevel(string, float64)  {}
func (nopMetrics) RecordLatency(string, float64)    {}

func newTestService(products *fakeProducts, levels *fakeLevels, outcomes *memOutcomes, events *fakeEvents, cacheSvc pkgcache.Service, t *testing.T) *EvaluationService {
	return NewEvaluationService(
		products, levels, outcomes, events,
		engine.NewGenerator(), engine.NewEvaluator(),
		nopMetrics{}, testLogger(t), cacheSvc,
	)
}

func TestEvaluateResolvesAndPersists(t *testing.T) {
	products := &fakeProducts{cfg: testConfig()}
	levels := &fakeLevels{}
	outcomes := &memOutcomes{}
	events := &fakeEvents{}
	svc := newTestService(products, levels, outcomes, events, nil, t)

	// quarterly observations land on Apr 15 and Jul 15
	levels.put("AAA", day(2025, time.April, 15), 95)
	levels.put("AAA", day(2025, time.July, 15), 95)

	res, err := svc.Evaluate(context.Background(), "NOTE-1", day(2025, time.August, 1))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(res.Outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(res.Outcomes))
	}
	for _, o := range res.Outcomes {
		if o.CouponPaid != 2 {
			t.Fatalf("period %d: coupon %v", o.PeriodIndex, o.CouponPaid)
		}
	}
	if res.State != models.StateIncomplete {
		t.Fatalf("two of four periods: state %s", res.State)
	}
	if len(outcomes.schedule) != 4 {
		t.Fatalf("schedule not persisted: %d periods", len(outcomes.schedule))
	}
	if len(outcomes.outcomes) != 2 {
		t.Fatalf("outcomes not persisted: %d", len(outcomes.outcomes))
	}
	if events.published != 1 {
		t.Fatalf("expected 1 event, got %d", events.published)
	}
}

func TestEvaluateStopsAtMissingLevel(t *testing.T) {
	products := &fakeProducts{cfg: testConfig()}
	levels := &fakeLevels{}
	outcomes := &memOutcomes{}
	svc := newTestService(products, levels, outcomes, &fakeEvents{}, nil, t)

	// only the first observation has a closing level, the second has passed
	// without data
	levels.put("AAA", day(2025, time.April, 15), 95)

	res, err := svc.Evaluate(context.Background(), "NOTE-1", day(2025, time.August, 1))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(res.Outcomes) != 1 {
		t.Fatalf("expected 1 outcome, got %d", len(res.Outcomes))
	}
	if res.State != models.StateIncomplete {
		t.Fatalf("state %s", res.State)
	}
}

func TestEvaluateAutocallTerminates(t *testing.T) {
	products := &fakeProducts{cfg: testConfig()}
	levels := &fakeLevels{}
	outcomes := &memOutcomes{}
	svc := newTestService(products, levels, outcomes, &fakeEvents{}, nil, t)

	levels.put("AAA", day(2025, time.April, 15), 95)
	levels.put("AAA", day(2025, time.July, 15), 105) // above the 100 call level

	res, err := svc.Evaluate(context.Background(), "NOTE-1", day(2026, time.February, 1))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if res.State != models.StateCalled {
		t.Fatalf("state %s", res.State)
	}
	if len(res.Outcomes) != 2 || !res.Outcomes[1].ProductCalled {
		t.Fatalf("period 2 should call: %+v", res.Outcomes)
	}
}

func TestEvaluateCoalescesConcurrentCallers(t *testing.T) {
	products := &fakeProducts{cfg: testConfig(), gate: make(chan struct{})}
	levels := &fakeLevels{}
	levels.put("AAA", day(2025, time.April, 15), 95)
	svc := newTestService(products, levels, &memOutcomes{}, &fakeEvents{}, nil, t)

	const callers = 4
	results := make([]*models.EvaluationResult, callers)
	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer wg.Done()
			res, err := svc.Evaluate(context.Background(), "NOTE-1", day(2025, time.May, 1))
			if err != nil {
				t.Errorf("caller %d: %v", i, err)
				return
			}
			results[i] = res
		}(i)
	}

	// let every caller either start the run or queue behind it
	time.Sleep(50 * time.Millisecond)
	close(products.gate)
	wg.Wait()

	if n := atomic.LoadInt64(&products.calls); n != 1 {
		t.Fatalf("expected a single coalesced run, got %d product loads", n)
	}
	for i := 1; i < callers; i++ {
		if results[i] != results[0] {
			t.Fatalf("caller %d got a different result", i)
		}
	}
}

func TestScheduleGeneratedOnceThenStored(t *testing.T) {
	outcomes := &memOutcomes{}
	svc := newTestService(&fakeProducts{cfg: testConfig()}, &fakeLevels{}, outcomes, &fakeEvents{}, nil, t)

	first, err := svc.Schedule(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if len(first) != 4 {
		t.Fatalf("expected 4 periods, got %d", len(first))
	}

	// mutate the stored copy so a regeneration would be visible
	outcomes.schedule[0].CouponBarrier = 42

	second, err := svc.Schedule(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if second[0].CouponBarrier != 42 {
		t.Fatalf("second call should return the stored schedule")
	}
}

func TestEditScheduleDatePersistsAndValidates(t *testing.T) {
	outcomes := &memOutcomes{}
	svc := newTestService(&fakeProducts{cfg: testConfig()}, &fakeLevels{}, outcomes, &fakeEvents{}, nil, t)

	// move period 2 (Jul 15) forward a day; value date omitted keeps pace
	edited, err := svc.EditScheduleDate(context.Background(), "NOTE-1", 2,
		day(2025, time.July, 16), day(2025, time.July, 18))
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if !edited[1].ObservationDate.Equal(day(2025, time.July, 16)) {
		t.Fatalf("obs date %s", edited[1].ObservationDate)
	}
	if !outcomes.schedule[1].ObservationDate.Equal(day(2025, time.July, 16)) {
		t.Fatal("edit not persisted")
	}

	// an edit past the next period's observation date breaks ordering
	_, err = svc.EditScheduleDate(context.Background(), "NOTE-1", 2,
		day(2025, time.November, 1), day(2025, time.November, 3))
	if err == nil {
		t.Fatal("expected ordering violation")
	}
}

func TestOutcomesServedFromCache(t *testing.T) {
	outcomes := &memOutcomes{outcomes: []models.ObservationOutcome{
		{ProductID: "NOTE-1", PeriodIndex: 1, BasketLevel: 95, CouponPaid: 2},
	}}
	cacheSvc := pkgcache.NewMemoryCache()
	defer cacheSvc.Close()
	svc := newTestService(&fakeProducts{cfg: testConfig()}, &fakeLevels{}, outcomes, &fakeEvents{}, cacheSvc, t)

	for i := 0; i < 3; i++ {
		got, err := svc.Outcomes(context.Background(), "NOTE-1", 0)
		if err != nil {
			t.Fatalf("outcomes: %v", err)
		}
		if len(got) != 1 || got[0].CouponPaid != 2 {
			t.Fatalf("call %d: %+v", i, got)
		}
	}
	if outcomes.reads != 1 {
		t.Fatalf("expected 1 store read, got %d", outcomes.reads)
	}
}

var _ repository.ProductStore = (*fakeProducts)(nil)
var _ repository.MarketDataStore = (*fakeLevels)(nil)
var _ repository.OutcomeStore = (*memOutcomes)(nil)
var _ repository.EventPublisher = (*fakeEvents)(nil)
var _ repository.Metrics = nopMetrics{}
var _ domsvc.ScheduleGenerator = engine.NewGenerator()
