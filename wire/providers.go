package wire

import (
	"github.com/Digital-Creators-Team/lottery-engine-module/config"
	"github.com/Digital-Creators-Team/lottery-engine-module/db/redis"
	"github.com/Digital-Creators-Team/lottery-engine-module/events/kafka"
	"github.com/Digital-Creators-Team/lottery-engine-module/indexer"
	"github.com/Digital-Creators-Team/lottery-engine-module/logging"
	"github.com/Digital-Creators-Team/lottery-engine-module/lottery"
	"github.com/Digital-Creators-Team/lottery-engine-module/pkg/providers"
	"github.com/Digital-Creators-Team/lottery-engine-module/provider"
	"github.com/Digital-Creators-Team/lottery-engine-module/server"
	"github.com/google/wire"
	"github.com/rs/zerolog"
)

// ProvideLogger provides a zerolog.Logger
func ProvideLogger(cfg *config.Config) zerolog.Logger {
	return logging.New(cfg.Logging)
}

// ProvideRedisClient provides a Redis client
func ProvideRedisClient(cfg *config.Config) (*redis.Client, error) {
	return redis.New(cfg.Redis)
}

// ProvideStore provides the Redis-backed lottery store
func ProvideStore(client *redis.Client, logger zerolog.Logger) *provider.RedisStore {
	return provider.NewRedisStore(client, logger)
}

// ProvideKafkaProducer provides the Kafka event producer. Nil when no
// brokers are configured.
func ProvideKafkaProducer(cfg *config.Config, logger zerolog.Logger) (*kafka.Producer, error) {
	return kafka.NewProducer(kafka.ProducerConfig{
		Brokers:     cfg.Kafka.Brokers,
		EventsTopic: cfg.Kafka.EventsTopic(),
		Logger:      logger,
	})
}

// ProvideEventPublisher adapts the producer to the engine-facing interface,
// keeping the interface nil when the producer is disabled.
func ProvideEventPublisher(producer *kafka.Producer) providers.EventPublisher {
	if producer == nil {
		return nil
	}
	return producer
}

// ProvideWalletProvider provides the treasury-backed wallet provider
func ProvideWalletProvider(cfg *config.Config, logger zerolog.Logger) *provider.WalletProvider {
	return provider.NewWalletProvider(cfg, logger)
}

// ProvideSeedProvider provides the chain RPC seed provider
func ProvideSeedProvider(cfg *config.Config, logger zerolog.Logger) *provider.SeedProvider {
	return provider.NewSeedProvider(cfg, logger)
}

// ProvideHistoryProvider provides the round history provider
func ProvideHistoryProvider(cfg *config.Config, producer *kafka.Producer, logger zerolog.Logger) *provider.HistoryProvider {
	return provider.NewHistoryProvider(cfg, producer, logger)
}

// ProvideEngine provides the lottery engine
func ProvideEngine(
	cfg *config.Config,
	store *provider.RedisStore,
	wallets *provider.WalletProvider,
	seeds *provider.SeedProvider,
	events providers.EventPublisher,
	history *provider.HistoryProvider,
	logger zerolog.Logger,
) *lottery.Engine {
	return lottery.NewEngine(lottery.EngineConfig{
		Store:   store,
		Wallets: wallets,
		Seeds:   seeds,
		Events:  events,
		History: history,
		Lottery: cfg.Lottery,
		Logger:  logger,
	})
}

// ProvideScheduler provides the snapshot scheduler
func ProvideScheduler(cfg *config.Config, engine *lottery.Engine, logger zerolog.Logger) *lottery.Scheduler {
	return lottery.NewScheduler(engine, cfg.Lottery.AdminWallet, cfg.Lottery.AutoSnapshotInterval, logger)
}

// ProvideIndexer provides the winner indexer service
func ProvideIndexer(cfg *config.Config, store *provider.RedisStore, engine *lottery.Engine, logger zerolog.Logger) *indexer.Service {
	return indexer.NewService(indexer.ServiceConfig{
		Source:      store,
		Sink:        engine,
		AdminWallet: cfg.Lottery.AdminWallet,
		Logger:      logger,
	})
}

// ProvideServerOptions provides server options
func ProvideServerOptions(cfg *config.Config, engine *lottery.Engine, history *provider.HistoryProvider, logger zerolog.Logger) server.Options {
	return server.Options{
		Config:  cfg,
		Logger:  logger,
		Engine:  engine,
		History: history,
	}
}

// ProvideApp provides the main application
func ProvideApp(opts server.Options) *server.App {
	return server.New(opts)
}

// ConfigSet is the wire provider set for configuration
var ConfigSet = wire.NewSet(
	config.Load,
)

// LoggingSet is the wire provider set for logging
var LoggingSet = wire.NewSet(
	ProvideLogger,
)

// RedisSet is the wire provider set for Redis
var RedisSet = wire.NewSet(
	ProvideRedisClient,
	ProvideStore,
)

// ProviderSet is the wire provider set for external providers
var ProviderSet = wire.NewSet(
	ProvideKafkaProducer,
	ProvideEventPublisher,
	ProvideWalletProvider,
	ProvideSeedProvider,
	ProvideHistoryProvider,
)

// EngineSet is the wire provider set for the lottery engine and workers
var EngineSet = wire.NewSet(
	ProvideEngine,
	ProvideScheduler,
	ProvideIndexer,
)

// ServerSet is the wire provider set for server
var ServerSet = wire.NewSet(
	ProvideServerOptions,
	ProvideApp,
)

// DefaultSet is the default wire provider set including all common providers
var DefaultSet = wire.NewSet(
	LoggingSet,
	ServerSet,
)

// FullSet includes all providers including Redis, Kafka and the engine
var FullSet = wire.NewSet(
	DefaultSet,
	RedisSet,
	ProviderSet,
	EngineSet,
)
