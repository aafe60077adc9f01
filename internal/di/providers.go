package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"NoteFlow/internal/domain/repository"
	domsvc "NoteFlow/internal/domain/service"
	"NoteFlow/internal/handler/api"
	mid "NoteFlow/internal/middleware"
	internalrepo "NoteFlow/internal/repository"
	svcache "NoteFlow/internal/service/cache"
	"NoteFlow/internal/service/feed"
	"NoteFlow/internal/service/holidays"
	enginemetrics "NoteFlow/internal/service/metrics"
	"NoteFlow/internal/services/engine"
	"NoteFlow/internal/usecase"
	pkgcache "NoteFlow/pkg/cache"
	pkgch "NoteFlow/pkg/clickhouse"
	"NoteFlow/pkg/config"
	xhttp "NoteFlow/pkg/http"
	pkgkafka "NoteFlow/pkg/kafka"
	"NoteFlow/pkg/logger"
	"NoteFlow/pkg/metrics"
	"NoteFlow/pkg/queue"
	"NoteFlow/pkg/server"

	"github.com/redis/go-redis/v9"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	level := "info"
	if cfg.Environment == "development" {
		level = "debug"
	}
	return logger.New(&logger.Config{Level: level, Format: "console", Output: "stdout"})
}

// ProvideClickHouseClient creates a ClickHouse client and initializes the
// schema. Schedules and outcomes use ReplacingMergeTree keyed by
// (product_id, period_index) so re-evaluation is idempotent.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db := cfg.ClickHouse.Database
	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + db,
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s.quotes (ts DateTime, symbol String, price Float64, volume Float64, event_id String) ENGINE=MergeTree ORDER BY (symbol, ts)", db),
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s.levels (symbol String, day Date, close Float64) ENGINE=ReplacingMergeTree ORDER BY (symbol, day)", db),
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s.schedules (product_id String, period_index UInt16, obs_date Date, value_date Date, is_callable UInt8, autocall_level Nullable(Float64), coupon_barrier Float64, is_final UInt8) ENGINE=ReplacingMergeTree ORDER BY (product_id, period_index)", db),
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s.outcomes (product_id String, period_index UInt16, basket_level Float64, product_called UInt8, coupon_paid Float64, coupon_to_memory Float64, is_terminal UInt8, observed_at DateTime) ENGINE=ReplacingMergeTree ORDER BY (product_id, period_index)", db),
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideMetrics creates a Prometheus metrics recorder and registers the
// engine collectors alongside it.
func ProvideMetrics() repository.Metrics {
	enginemetrics.Register()
	return metrics.New()
}

// ProvideQuoteStorage creates ClickHouse storage for live quotes.
func ProvideQuoteStorage(chClient *pkgch.Client, cfg *config.Config) repository.Storage {
	return internalrepo.NewClickHouseQuoteStorage(chClient.DB(), cfg.ClickHouse.Database+".quotes")
}

// ProvideQuotePublisher creates the Kafka quote publisher.
func ProvideQuotePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	return internalrepo.NewKafkaQuotePublisher(producer, cfg.Kafka.Topic)
}

// ProvideLevelStore creates the daily closing level store.
func ProvideLevelStore(chClient *pkgch.Client, cfg *config.Config) repository.MarketDataStore {
	return internalrepo.NewClickHouseLevelStore(chClient.DB(), cfg.ClickHouse.Database+".levels")
}

// ProvideOutcomeStore creates the schedule/outcome store.
func ProvideOutcomeStore(chClient *pkgch.Client, cfg *config.Config) repository.OutcomeStore {
	return internalrepo.NewClickHouseOutcomeStore(
		chClient.DB(),
		cfg.ClickHouse.Database+".schedules",
		cfg.ClickHouse.Database+".outcomes",
	)
}

// ProvideEventPublisher emits evaluation lifecycle events to Kafka.
func ProvideEventPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.EventPublisher {
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.EventsTopic)
}

// ProvideProductStore loads product terms from the configured YAML file.
func ProvideProductStore(cfg *config.Config) (repository.ProductStore, error) {
	return internalrepo.NewYAMLProductStore(cfg.Engine.ProductsPath)
}

// ProvideFeedStream creates the WebSocket quote stream.
func ProvideFeedStream(cfg *config.Config) repository.QuoteStream {
	return feed.New(
		cfg.Feed.APIKey,
		cfg.Feed.WebSocketURL,
		cfg.Feed.Symbols,
		cfg.Feed.ReconnectDelay,
		cfg.Feed.PingInterval,
	)
}

// ProvideQuoteProcessor creates the quote processor use case.
func ProvideQuoteProcessor(
	pub repository.Publisher,
	store repository.Storage,
	metrics repository.Metrics,
	cfg *config.Config,
) *usecase.QuoteProcessor {
	return usecase.NewQuoteProcessor(
		pub,
		store,
		metrics,
		cfg.Backend.Type,
		cfg.Backend.BatchSize,
		cfg.Backend.BatchTimeout,
	)
}

// ProvideQuoteCollector creates the quote collector with a rate-limited
// pipeline between the WebSocket and the backend.
func ProvideQuoteCollector(
	stream repository.QuoteStream,
	processor *usecase.QuoteProcessor,
	metrics repository.Metrics,
) *usecase.QuoteCollector {
	pipe := mid.NewQuotePipeline(processor, metrics,
		mid.WithMaxRPS(50),
		mid.WithBufferSize(2000),
	)
	return usecase.NewQuoteCollector(stream, processor, metrics, pipe)
}

// ProvideKafkaLevelsHandler consumes daily closing levels off Kafka.
func ProvideKafkaLevelsHandler(levels repository.MarketDataStore, metrics repository.Metrics, cfg *config.Config) *usecase.KafkaLevelsHandler {
	return usecase.NewKafkaLevelsHandler(cfg.Kafka.LevelsTopic, levels, metrics)
}

// ProvideScheduleGenerator binds the engine generator.
func ProvideScheduleGenerator() domsvc.ScheduleGenerator { return engine.NewGenerator() }

// ProvideOutcomeEvaluator binds the engine evaluator.
func ProvideOutcomeEvaluator() domsvc.OutcomeEvaluator { return engine.NewEvaluator() }

// ProvideOutcomePredictor binds the engine predictor.
func ProvideOutcomePredictor() domsvc.OutcomePredictor { return engine.NewPredictor() }

// ProvideCache builds the read-path cache. With Redis enabled the layered
// memory+Redis cache serves cross-instance reads; otherwise an in-process
// memory cache is used.
func ProvideCache(cfg *config.Config) (pkgcache.Service, error) {
	if !cfg.Redis.Enabled {
		return pkgcache.NewMemoryCache(), nil
	}
	host, portStr, err := net.SplitHostPort(cfg.Redis.Addr)
	if err != nil {
		return nil, fmt.Errorf("redis addr: %w", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("redis port: %w", err)
	}
	rc, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(host),
		pkgcache.WithRedisPort(port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
		pkgcache.WithRedisPrefix("noteflow"),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return pkgcache.NewLayeredCache(rc), nil
}

// ProvideEvaluationService wires the evaluation use case.
func ProvideEvaluationService(
	products repository.ProductStore,
	levels repository.MarketDataStore,
	outcomes repository.OutcomeStore,
	events repository.EventPublisher,
	gen domsvc.ScheduleGenerator,
	eval domsvc.OutcomeEvaluator,
	metrics repository.Metrics,
	log *logger.Logger,
	cacheSvc pkgcache.Service,
) *usecase.EvaluationService {
	return usecase.NewEvaluationService(products, levels, outcomes, events, gen, eval, metrics, log, cacheSvc)
}

// ProvidePredictionService wires the prediction use case.
func ProvidePredictionService(
	evals *usecase.EvaluationService,
	predictor domsvc.OutcomePredictor,
	quotes repository.Storage,
	metrics repository.Metrics,
	cfg *config.Config,
) *usecase.PredictionService {
	return usecase.NewPredictionService(evals, predictor, quotes, svcache.NewTTLCache(), cfg.Engine.PredictionCacheTTL, metrics)
}

// ProvideRefreshQueue builds the Redis-backed refresh queue with the
// refresh job registered. Returns nil when Redis is disabled.
func ProvideRefreshQueue(cfg *config.Config, log *logger.Logger, evals *usecase.EvaluationService) *queue.RedisQueue {
	if !cfg.Redis.Enabled {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	q := queue.NewRedisQueue(log, &queue.QueueConfig{
		Workers:    cfg.Redis.Queue.Workers,
		RetryLimit: cfg.Redis.Queue.RetryLimit,
		RetryDelay: cfg.Redis.Queue.RetryDelay,
	}, client, queue.ModeProducerConsumer, queue.WithKeyPrefix("noteflow:queue"))
	q.RegisterJob(usecase.NewRefreshJob(evals, log))
	return q
}

// ProvideNotesHandler creates the HTTP handler for the product endpoints.
func ProvideNotesHandler(
	log *logger.Logger,
	evals *usecase.EvaluationService,
	preds *usecase.PredictionService,
	q *queue.RedisQueue,
) xhttp.Handler {
	var refresh queue.QueueService
	if q != nil {
		refresh = q
	}
	return api.NewNotesEchoHandler(log, evals, preds, refresh)
}

// ProvideHolidaySyncer builds the calendar sync service. Returns nil when
// the sync is disabled.
func ProvideHolidaySyncer(cfg *config.Config, log *logger.Logger) *holidays.Syncer {
	if !cfg.Holidays.Enabled {
		return nil
	}
	return holidays.New(cfg.Holidays.URL, cfg.Holidays.Calendars, cfg.Holidays.SyncInterval, cfg.Holidays.Timeout, log)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	collector *usecase.QuoteCollector,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaLevelsHandler,
	chClient *pkgch.Client,
	handler xhttp.Handler,
	q *queue.RedisQueue,
	syncer *holidays.Syncer,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	app := server.New(cfg, log, collector, consumer, kh, chClient, handler, q, syncer)
	if collector != nil {
		app.QuoteProc = collector.Processor()
	}
	return app
}
