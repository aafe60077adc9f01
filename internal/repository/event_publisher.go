package repository

import (
	"context"
	"time"

	"NoteFlow/internal/domain/models"
	"NoteFlow/internal/domain/repository"
	pkgkafka "NoteFlow/pkg/kafka"
)

// KafkaEventPublisher emits evaluation lifecycle events so downstream
// consumers (reporting, notifications) see state transitions without
// polling the outcome tables.
type KafkaEventPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaEventPublisher(producer *pkgkafka.Producer, topic string) repository.EventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

func (p *KafkaEventPublisher) PublishEvaluation(ctx context.Context, res *models.EvaluationResult) error {
	payload := map[string]interface{}{
		"product_id": res.ProductID,
		"state":      string(res.State),
		"regime":     string(res.Regime),
		"outcomes":   len(res.Outcomes),
		"memory":     res.Memory.AccumulatedAmount,
		"ts":         time.Now().Unix(),
	}
	if res.FinalLevel != nil {
		payload["final_level"] = *res.FinalLevel
	}
	return p.producer.Publish(ctx, p.topic, []byte(res.ProductID), payload)
}

func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
