// Code generated by Wire. DO NOT EDIT.

//go:generate go run -mod=mod github.com/google/wire/cmd/wire
//go:build !wireinject
// +build !wireinject

package di

import (
	"NoteFlow/pkg/config"
	"NoteFlow/pkg/server"
)

// Injectors from wire.go:

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	logger, err := ProvideLogger(cfg)
	if err != nil {
		return nil, err
	}
	quoteStream := ProvideFeedStream(cfg)
	producer, err := ProvideKafkaProducer(cfg)
	if err != nil {
		return nil, err
	}
	publisher := ProvideQuotePublisher(producer, cfg)
	client, err := ProvideClickHouseClient(cfg)
	if err != nil {
		return nil, err
	}
	storage := ProvideQuoteStorage(client, cfg)
	metrics := ProvideMetrics()
	quoteProcessor := ProvideQuoteProcessor(publisher, storage, metrics, cfg)
	quoteCollector := ProvideQuoteCollector(quoteStream, quoteProcessor, metrics)
	consumer, err := ProvideKafkaConsumer(cfg)
	if err != nil {
		return nil, err
	}
	marketDataStore := ProvideLevelStore(client, cfg)
	kafkaLevelsHandler := ProvideKafkaLevelsHandler(marketDataStore, metrics, cfg)
	productStore, err := ProvideProductStore(cfg)
	if err != nil {
		return nil, err
	}
	outcomeStore := ProvideOutcomeStore(client, cfg)
	eventPublisher := ProvideEventPublisher(producer, cfg)
	scheduleGenerator := ProvideScheduleGenerator()
	outcomeEvaluator := ProvideOutcomeEvaluator()
	service, err := ProvideCache(cfg)
	if err != nil {
		return nil, err
	}
	evaluationService := ProvideEvaluationService(productStore, marketDataStore, outcomeStore, eventPublisher, scheduleGenerator, outcomeEvaluator, metrics, logger, service)
	outcomePredictor := ProvideOutcomePredictor()
	predictionService := ProvidePredictionService(evaluationService, outcomePredictor, storage, metrics, cfg)
	redisQueue := ProvideRefreshQueue(cfg, logger, evaluationService)
	handler := ProvideNotesHandler(logger, evaluationService, predictionService, redisQueue)
	syncer := ProvideHolidaySyncer(cfg, logger)
	app := ProvideApp(cfg, logger, quoteCollector, consumer, kafkaLevelsHandler, client, handler, redisQueue, syncer)
	return app, nil
}
