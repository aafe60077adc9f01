//go:build wireinject
// +build wireinject

package di

import (
	"NoteFlow/pkg/config"
	"NoteFlow/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideCache,

		// Repositories
		ProvideQuoteStorage,
		ProvideQuotePublisher,
		ProvideLevelStore,
		ProvideOutcomeStore,
		ProvideEventPublisher,
		ProvideProductStore,
		ProvideFeedStream,

		// Engine
		ProvideScheduleGenerator,
		ProvideOutcomeEvaluator,
		ProvideOutcomePredictor,

		// Use cases
		ProvideQuoteProcessor,
		ProvideQuoteCollector,
		ProvideKafkaLevelsHandler,
		ProvideEvaluationService,
		ProvidePredictionService,
		ProvideRefreshQueue,

		// HTTP and background services
		ProvideNotesHandler,
		ProvideHolidaySyncer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
