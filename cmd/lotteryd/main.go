package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Digital-Creators-Team/lottery-engine-module/config"
	"github.com/Digital-Creators-Team/lottery-engine-module/db/redis"
	"github.com/Digital-Creators-Team/lottery-engine-module/docs"
	"github.com/Digital-Creators-Team/lottery-engine-module/events/kafka"
	"github.com/Digital-Creators-Team/lottery-engine-module/indexer"
	"github.com/Digital-Creators-Team/lottery-engine-module/logging"
	"github.com/Digital-Creators-Team/lottery-engine-module/lottery"
	"github.com/Digital-Creators-Team/lottery-engine-module/pkg/providers"
	"github.com/Digital-Creators-Team/lottery-engine-module/provider"
	"github.com/Digital-Creators-Team/lottery-engine-module/server"
	"github.com/spf13/cobra"
)

// @title           Lottery Engine API
// @version         1.0
// @description     50/50 rollover lottery service API

// @BasePath  /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "lotteryd",
		Short: "Lottery engine service",
		Long: `Lottery engine service.

Runs the HTTP API, the snapshot scheduler, the winner indexer and the
Kafka entry feed in one process.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath)
		},
	}

	rootCmd.Flags().StringVarP(&configPath, "config", "c", "config/config.yaml", "Path to config file")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	// 1. Load config & logger
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := logging.New(cfg.Logging)

	// 2. Initialize dependencies
	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	kafkaProducer, err := kafka.NewProducer(kafka.ProducerConfig{
		Brokers:     cfg.Kafka.Brokers,
		EventsTopic: cfg.Kafka.EventsTopic(),
		Logger:      logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create Kafka producer")
	}

	// 3. Build providers
	store := provider.NewRedisStore(redisClient, logger)
	wallets := provider.NewWalletProvider(cfg, logger)
	seeds := provider.NewSeedProvider(cfg, logger)
	history := provider.NewHistoryProvider(cfg, kafkaProducer, logger)

	var events providers.EventPublisher
	if kafkaProducer != nil {
		events = kafkaProducer
	}

	// 4. Create the engine
	engine := lottery.NewEngine(lottery.EngineConfig{
		Store:   store,
		Wallets: wallets,
		Seeds:   seeds,
		Events:  events,
		History: history,
		Lottery: cfg.Lottery,
		Logger:  logger,
	})

	// 5. Create app & routes
	app := server.New(server.Options{
		Config:  cfg,
		Logger:  logger,
		Engine:  engine,
		History: history,
	})
	app.UseCommonMiddlewares()
	app.RegisterHealthCheck()
	app.RegisterLotteryRoutes()
	app.RegisterSwagger(server.SwaggerInfo{Title: "Lottery Engine API", Version: "1.0"}, func(host string) {
		docs.SwaggerInfo.Host = host
	})

	// 6. Background workers
	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	app.OnShutdown(cancelWorkers)

	if cfg.Lottery.AutoSnapshot {
		scheduler := lottery.NewScheduler(engine, cfg.Lottery.AdminWallet, cfg.Lottery.AutoSnapshotInterval, logger)
		scheduler.Start(workerCtx)
		app.OnShutdown(scheduler.Stop)
	}

	winnerIndexer := indexer.NewService(indexer.ServiceConfig{
		Source:      store,
		Sink:        engine,
		AdminWallet: cfg.Lottery.AdminWallet,
		Logger:      logger,
	})
	winnerIndexer.Start(workerCtx)
	app.OnShutdown(winnerIndexer.Stop)

	// 7. Kafka entry feed (topic: lottery.entries or config override)
	if len(cfg.Kafka.Brokers) > 0 {
		consumer := kafka.NewConsumer(kafka.ConsumerConfig{
			Brokers:       cfg.Kafka.Brokers,
			Topic:         cfg.Kafka.EntriesTopic(),
			ConsumerGroup: cfg.Kafka.ConsumerGroup,
			Logger:        logger,
		}, engine)
		if err := consumer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("Failed to start Kafka entry consumer")
		}
		app.OnShutdown(func() {
			_ = consumer.Stop()
		})
	}

	// 8. Cleanup & run
	app.OnShutdown(func() {
		if kafkaProducer != nil {
			kafkaProducer.Close()
		}
		redisClient.Close()
	})

	logger.Info().Int("port", cfg.Server.Port).Msg("Starting lottery engine service")
	return app.Run()
}
