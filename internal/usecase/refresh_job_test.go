package usecase

import (
	"context"
	"testing"
	"time"
)

func TestRefreshJobEvaluatesProduct(t *testing.T) {
	levels := &fakeLevels{}
	levels.put("AAA", day(2025, time.April, 15), 95)
	outcomes := &memOutcomes{}
	evals := newTestService(&fakeProducts{cfg: testConfig()}, levels, outcomes, &fakeEvents{}, nil, t)
	job := NewRefreshJob(evals, testLogger(t))

	err := job.Handle(context.Background(), map[string]interface{}{
		"product_id": "NOTE-1",
		"as_of":      "2025-05-01T00:00:00Z",
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(outcomes.outcomes) != 1 {
		t.Fatalf("expected 1 persisted outcome, got %d", len(outcomes.outcomes))
	}
}

func TestRefreshJobRejectsEmptyProduct(t *testing.T) {
	evals := newTestService(&fakeProducts{cfg: testConfig()}, &fakeLevels{}, &memOutcomes{}, &fakeEvents{}, nil, t)
	job := NewRefreshJob(evals, testLogger(t))

	if err := job.Handle(context.Background(), map[string]interface{}{}); err == nil {
		t.Fatal("expected an error for an empty product_id")
	}
}

func TestRefreshJobRejectsBadAsOf(t *testing.T) {
	evals := newTestService(&fakeProducts{cfg: testConfig()}, &fakeLevels{}, &memOutcomes{}, &fakeEvents{}, nil, t)
	job := NewRefreshJob(evals, testLogger(t))

	err := job.Handle(context.Background(), map[string]interface{}{
		"product_id": "NOTE-1",
		"as_of":      "yesterday",
	})
	if err == nil {
		t.Fatal("expected an error for a malformed as_of")
	}
}
