package usecase

import (
	"context"
	"encoding/json"
	"time"

	"NoteFlow/internal/domain/models"
	domrepo "NoteFlow/internal/domain/repository"
	pkgkafka "NoteFlow/pkg/kafka"
)

// KafkaLevelsHandler consumes closing-level messages off Kafka and writes
// them into the market data store for later period resolution.
type KafkaLevelsHandler struct {
	topic   string
	levels  domrepo.MarketDataStore
	metrics domrepo.Metrics
}

func NewKafkaLevelsHandler(topic string, levels domrepo.MarketDataStore, metrics domrepo.Metrics) *KafkaLevelsHandler {
	return &KafkaLevelsHandler{topic: topic, levels: levels, metrics: metrics}
}

func (h *KafkaLevelsHandler) Topic() string { return h.topic }

// incoming message schema: {symbol, t, c}
func (h *KafkaLevelsHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Symbol string  `json:"symbol"`
		T      int64   `json:"t"`
		C      float64 `json:"c"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if m.T > 1e11 { // ms
		m.T = m.T / 1000
	}
	h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(time.Unix(m.T, 0)).Seconds())

	start := time.Now()
	err := h.levels.StoreLevel(ctx, &models.ObservationLevel{
		Symbol: m.Symbol,
		Date:   time.Unix(m.T, 0).UTC(),
		Close:  m.C,
	})
	h.metrics.RecordLatency("level_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordMessageSent("clickhouse", m.Symbol)
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaLevelsHandler)(nil)
