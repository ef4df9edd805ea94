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
	natsrepo "card-pipeline/repositories/nats"
	redis "card-pipeline/repositories/redis"
	s3store "card-pipeline/repositories/s3"
	sink "card-pipeline/services/sink"

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

	logger, err := helpers.NewLogger(appKonf, appKonf.Sink.ConsumerName)
	if err != nil {
		log.Fatalf("Error building logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := s3store.Connect(ctx, s3store.Options{
		Bucket:       appKonf.S3.Bucket,
		Region:       appKonf.S3.Region,
		Endpoint:     appKonf.S3.Endpoint,
		UsePathStyle: appKonf.S3.UsePathStyle,
	})
	if err != nil {
		logger.Fatal("cannot create s3 client", zap.Error(err))
	}

	natsConn, err := natsrepo.Connect(appKonf.Nats.URL, appKonf.Sink.ConsumerName)
	if err != nil {
		logger.Fatal("cannot connect to nats", zap.Error(err))
	}
	defer natsConn.Close()
	notifier := natsrepo.NewNotifier(natsConn, appKonf.Nats.Subject)

	redisClient, err := redis.Connect(ctx, appKonf.Redis.URI, appKonf.Redis.Password)
	if err != nil {
		logger.Fatal("cannot create redis client", zap.Error(err))
	}
	dlQueue := redis.NewDeadLetterQueue(redisClient, logger, appKonf.Redis.DLQList)

	metrics := map[string]http.Handler{}

	// The forward producer is optional, a nil interface disables forwarding.
	var forwarder sink.Forwarder
	if topic := appKonf.Sink.ForwardTopic; topic != "" {
		producerMetrics := kprom.NewMetrics(appKonf.Metrics.Namespace)
		producer, err := kafka.NewProducer(appKonf.Kafka.Brokers, topic, logger, producerMetrics)
		if err != nil {
			logger.Fatal("cannot create forward producer", zap.Error(err))
		}
		defer producer.Close()
		forwarder = producer
		metrics["producer"] = producerMetrics.Handler()
	}

	deliverySink := sink.New(appKonf.Sink, store, notifier, forwarder, logger)

	consumerMetrics := kprom.NewMetrics(appKonf.Metrics.Namespace)
	metrics["consumer"] = consumerMetrics.Handler()
	conf := &kafka.ConsumerConfig{
		Brokers:        appKonf.Kafka.Brokers,
		Name:           appKonf.Sink.ConsumerName,
		Topic:          appKonf.Kafka.IngestionTopic,
		RecordsPerPoll: appKonf.Kafka.RecordsPerPoll,
		PollTimeout:    appKonf.Kafka.PollTimeout,
	}
	consumer, err := kafka.NewConsumer(conf, logger, deliverySink, dlQueue, consumerMetrics)
	if err != nil {
		logger.Fatal("cannot create delivery consumer", zap.Error(err))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return helpers.ServeMetrics(gctx, appKonf.Metrics.Addr, metrics, logger)
	})
	g.Go(func() error {
		return consumer.Poll(gctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("delivery sink stopped", zap.Error(err))
	}
}
