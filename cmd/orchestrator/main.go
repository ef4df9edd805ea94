package main

import (
	// Go Internal Packages
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	// Local Packages
	config "card-pipeline/config"
	helpers "card-pipeline/helpers"
	mongodb "card-pipeline/repositories/mongodb"
	natsrepo "card-pipeline/repositories/nats"
	s3store "card-pipeline/repositories/s3"
	crawler "card-pipeline/services/crawler"
	pipeline "card-pipeline/services/pipeline"
	transform "card-pipeline/services/transform"

	// External Packages
	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	once := kingpin.Flag("once", "Execute a single pipeline run and exit").Bool()

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

	logger, err := helpers.NewLogger(appKonf, "orchestrator")
	if err != nil {
		log.Fatalf("Error building logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Mongo Connection
	mongoClient, err := mongodb.Connect(ctx, appKonf.Mongo.URI)
	if err != nil {
		logger.Fatal("cannot create mongo client", zap.Error(err))
	}
	defer func() {
		_ = mongoClient.Disconnect(context.Background())
	}()
	db := mongoClient.Database(appKonf.Mongo.Database)
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		logger.Fatal("cannot create mongo indexes", zap.Error(err))
	}

	store, err := s3store.Connect(ctx, s3store.Options{
		Bucket:       appKonf.S3.Bucket,
		Region:       appKonf.S3.Region,
		Endpoint:     appKonf.S3.Endpoint,
		UsePathStyle: appKonf.S3.UsePathStyle,
	})
	if err != nil {
		logger.Fatal("cannot create s3 client", zap.Error(err))
	}

	catalog := mongodb.NewCatalogRepository(db)
	deps := transform.Deps{
		Store:     store,
		Catalog:   catalog,
		Bookmarks: mongodb.NewBookmarkRepository(db),
		Database:  appKonf.Catalog.Database,
		Logger:    logger,
	}
	stageJob := &transform.StageJob{
		Deps:         deps,
		SourceTable:  "raw",
		TargetPrefix: appKonf.Transform.StagePrefix,
		PartitionKey: appKonf.Transform.PartitionKey,
	}
	specJob := &transform.SpecJob{
		Deps:         deps,
		SourceTable:  "stage",
		TargetPrefix: appKonf.Transform.SpecPrefix,
		PartitionKey: appKonf.Transform.PartitionKey,
	}

	targets := pipeline.Targets{
		Raw:   crawler.Target{Table: "raw", Prefix: appKonf.Sink.Prefix},
		Stage: crawler.Target{Table: "stage", Prefix: appKonf.Transform.StagePrefix},
		Spec:  crawler.Target{Table: "spec", Prefix: appKonf.Transform.SpecPrefix},
	}
	c := crawler.New(store, catalog, appKonf.Catalog.Database, appKonf.Catalog.SampleObjects, logger)
	pl := pipeline.New(c, stageJob, specJob, mongodb.NewRunRepository(db), targets, appKonf.Pipeline.TriggerPrefix, logger)

	if *once {
		run, err := pl.Execute(ctx, "manual")
		if err != nil {
			logger.Fatal("pipeline run failed", zap.Error(err))
		}
		helpers.PrintStruct(os.Stdout, run)
		return
	}

	natsConn, err := natsrepo.Connect(appKonf.Nats.URL, "orchestrator")
	if err != nil {
		logger.Fatal("cannot connect to nats", zap.Error(err))
	}
	defer natsConn.Close()
	subscriber := natsrepo.NewSubscriber(natsConn, appKonf.Nats.Subject, appKonf.Nats.Queue, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return pl.Run(gctx)
	})
	g.Go(func() error {
		return subscriber.Run(gctx, pl.Notify)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("orchestrator stopped", zap.Error(err))
	}
}
