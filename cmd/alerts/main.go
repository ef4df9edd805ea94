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

	// Local Packages
	config "card-pipeline/config"
	helpers "card-pipeline/helpers"
	kafka "card-pipeline/kafka"
	redis "card-pipeline/repositories/redis"
	alerts "card-pipeline/services/alerts"
	txpsr "card-pipeline/services/processors"

	// External Packages
	"github.com/twmb/franz-go/plugin/kprom"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	k, appKonf, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	if err = appKonf.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if !appKonf.IsProdMode {
		k.Print()
	}

	logger, err := helpers.NewLogger(appKonf, appKonf.Alerts.ConsumerName)
	if err != nil {
		log.Fatalf("Error building logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, _, err := alerts.OpenStore(ctx, appKonf)
	if err != nil {
		logger.Fatal("cannot open alert store", zap.String("store", appKonf.Alerts.Store), zap.Error(err))
	}
	service := alerts.NewService(store, appKonf.Alerts.TTL, appKonf.Alerts.Retry, logger)

	redisClient, err := redis.Connect(ctx, appKonf.Redis.URI, appKonf.Redis.Password)
	if err != nil {
		logger.Fatal("cannot create redis client", zap.Error(err))
	}
	dlQueue := redis.NewDeadLetterQueue(redisClient, logger, appKonf.Redis.DLQList)

	metrics := kprom.NewMetrics(appKonf.Metrics.Namespace)
	conf := &kafka.ConsumerConfig{
		Brokers:        appKonf.Kafka.Brokers,
		Name:           appKonf.Alerts.ConsumerName,
		Topic:          appKonf.Kafka.RealtimeTopic,
		RecordsPerPoll: appKonf.Kafka.RecordsPerPoll,
		PollTimeout:    appKonf.Kafka.PollTimeout,
	}
	consumer, err := kafka.NewConsumer(conf, logger, txpsr.NewAlertProcessor(logger, service), dlQueue, metrics)
	if err != nil {
		logger.Fatal("cannot create aggregates consumer", zap.Error(err))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return helpers.ServeMetrics(gctx, appKonf.Metrics.Addr, map[string]http.Handler{"consumer": metrics.Handler()}, logger)
	})
	g.Go(func() error {
		return consumer.Poll(gctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("alert consumer stopped", zap.Error(err))
	}
}
