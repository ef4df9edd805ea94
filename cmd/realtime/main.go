package main

import (
	// Go Internal Packages
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	// Local Packages
	config "card-pipeline/config"
	helpers "card-pipeline/helpers"
	kafka "card-pipeline/kafka"
	redis "card-pipeline/repositories/redis"
	txpsr "card-pipeline/services/processors"
	window "card-pipeline/services/window"

	// External Packages
	"github.com/shopspring/decimal"
	"github.com/twmb/franz-go/plugin/kprom"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	k, appKonf, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// Validate the config loaded
	if err = appKonf.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if !appKonf.IsProdMode {
		k.Print()
	}

	logger, err := helpers.NewLogger(appKonf, appKonf.Realtime.ConsumerName)
	if err != nil {
		log.Fatalf("Error building logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Redis Connection
	redisClient, err := redis.Connect(ctx, appKonf.Redis.URI, appKonf.Redis.Password)
	if err != nil {
		logger.Fatal("cannot create redis client", zap.Error(err))
	}
	dlQueue := redis.NewDeadLetterQueue(redisClient, logger, appKonf.Redis.DLQList)

	producerMetrics := kprom.NewMetrics(appKonf.Metrics.Namespace)
	producer, err := kafka.NewProducer(appKonf.Kafka.Brokers, appKonf.Kafka.RealtimeTopic, logger, producerMetrics)
	if err != nil {
		logger.Fatal("cannot create aggregates producer", zap.Error(err))
	}
	defer producer.Close()

	function, err := window.ParseFunction(appKonf.Realtime.Aggregation)
	if err != nil {
		logger.Fatal("invalid aggregation function", zap.Error(err))
	}
	aggregator, err := window.NewAggregator(window.Config{
		Size:            appKonf.Realtime.Window,
		WatermarkLag:    appKonf.Realtime.WatermarkLag,
		Function:        function,
		Threshold:       decimal.NewFromFloat(appKonf.Realtime.Threshold),
		Shards:          appKonf.Realtime.Shards,
		FlushOnShutdown: appKonf.Realtime.FlushOnShutdown,
	}, window.NewStreamEmitter(producer), logger)
	if err != nil {
		logger.Fatal("cannot create window aggregator", zap.Error(err))
	}
	txProcessor := txpsr.NewTxProcessor(logger, aggregator)

	consumerMetrics := kprom.NewMetrics(appKonf.Metrics.Namespace)
	conf := &kafka.ConsumerConfig{
		Brokers:        appKonf.Kafka.Brokers,
		Name:           appKonf.Realtime.ConsumerName,
		Topic:          appKonf.Kafka.IngestionTopic,
		RecordsPerPoll: appKonf.Kafka.RecordsPerPoll,
		PollTimeout:    appKonf.Kafka.PollTimeout,
	}
	txConsumer, err := kafka.NewConsumer(conf, logger, txProcessor, dlQueue, consumerMetrics)
	if err != nil {
		logger.Fatal("cannot create transactions consumer", zap.Error(err))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return aggregator.Run(gctx)
	})
	g.Go(func() error {
		return helpers.ServeMetrics(gctx, appKonf.Metrics.Addr, map[string]http.Handler{
			"consumer": consumerMetrics.Handler(),
			"producer": producerMetrics.Handler(),
		}, logger)
	})
	g.Go(func() error {
		pollErr := txConsumer.Poll(gctx)

		// Poll releases the aggregator before its final commit on shutdown. This covers the
		// client closing underneath it, so the shard goroutines always stop.
		closeCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := aggregator.Close(closeCtx); err != nil {
			logger.Error("cannot flush open windows", zap.Error(err))
		}
		return pollErr
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("realtime aggregator stopped", zap.Error(err))
	}
}
