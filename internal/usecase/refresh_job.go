package usecase

import (
	"context"
	"fmt"
	"time"

	"NoteFlow/pkg/logger"
	"NoteFlow/pkg/queue"
)

// RefreshMessageType is the queue message type handled by RefreshJob.
const RefreshMessageType = "product.refresh"

// RefreshPayload asks for one product to be re-evaluated. An empty AsOf
// means "now".
type RefreshPayload struct {
	ProductID string `json:"product_id"`
	AsOf      string `json:"as_of,omitempty"` // RFC3339
}

// RefreshJob re-runs the evaluation of a product off the work queue.
// API refresh requests and scheduled sweeps both enqueue this job.
type RefreshJob struct {
	evals *EvaluationService
	log   *logger.Logger
}

func NewRefreshJob(evals *EvaluationService, log *logger.Logger) *RefreshJob {
	return &RefreshJob{evals: evals, log: log}
}

func (j *RefreshJob) Name() string { return "product-refresh" }
func (j *RefreshJob) Type() string { return RefreshMessageType }

func (j *RefreshJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[RefreshPayload](payload)
	if err != nil {
		return fmt.Errorf("refresh payload: %w", err)
	}
	if p.ProductID == "" {
		return fmt.Errorf("refresh payload: empty product_id")
	}

	asOf := time.Now().UTC()
	if p.AsOf != "" {
		t, err := time.Parse(time.RFC3339, p.AsOf)
		if err != nil {
			return fmt.Errorf("refresh payload as_of: %w", err)
		}
		asOf = t
	}

	res, err := j.evals.Evaluate(ctx, p.ProductID, asOf)
	if err != nil {
		return err
	}
	j.log.Info("product refreshed",
		logger.String("product", p.ProductID),
		logger.String("state", string(res.State)),
		logger.Int("outcomes", len(res.Outcomes)))
	return nil
}

var _ queue.Job = (*RefreshJob)(nil)
