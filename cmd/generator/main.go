package main

import (
	// Go Internal Packages
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	// Local Packages
	config "card-pipeline/config"
	helpers "card-pipeline/helpers"
	kafka "card-pipeline/kafka"
	generator "card-pipeline/services/generator"

	// External Packages
	"github.com/alecthomas/kingpin/v2"
	"github.com/twmb/franz-go/plugin/kprom"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	dryRun := kingpin.Flag("dry-run", "Print events to stdout instead of publishing them").Bool()

	k, appKonf, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	if err = appKonf.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if !appKonf.IsProdMode && !*dryRun {
		k.Print()
	}

	logger, err := helpers.NewLogger(appKonf, "generator")
	if err != nil {
		log.Fatalf("Error building logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := generator.Options{Seed: appKonf.Generator.Seed}
	if appKonf.Generator.GeocoderURL != "" {
		opts.Geocoder = generator.NewNominatimGeocoder(appKonf.Generator.GeocoderURL, appKonf.Generator.UserAgent)
	}
	gen := generator.New(opts)

	g, gctx := errgroup.WithContext(ctx)

	var sink generator.Sink
	if *dryRun {
		sink = generator.NewWriterSink(os.Stdout)
	} else {
		metrics := kprom.NewMetrics(appKonf.Metrics.Namespace)
		producer, err := kafka.NewProducer(appKonf.Kafka.Brokers, appKonf.Kafka.IngestionTopic, logger, metrics)
		if err != nil {
			logger.Fatal("cannot create ingestion producer", zap.Error(err))
		}
		defer producer.Close()
		sink = producer

		g.Go(func() error {
			return helpers.ServeMetrics(gctx, appKonf.Metrics.Addr, map[string]http.Handler{"producer": metrics.Handler()}, logger)
		})
	}

	publisher := generator.NewPublisher(gen, sink, appKonf.Generator, logger)
	g.Go(func() error {
		return publisher.Run(gctx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("generator stopped", zap.Error(err))
	}
}
