package main

import (
	// Go Internal Packages
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	// Local Packages
	api "card-pipeline/api"
	config "card-pipeline/config"
	helpers "card-pipeline/helpers"
	alerts "card-pipeline/services/alerts"

	// External Packages
	"go.uber.org/zap"
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

	logger, err := helpers.NewLogger(appKonf, "api")
	if err != nil {
		log.Fatalf("Error building logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, probe, err := alerts.OpenStore(ctx, appKonf)
	if err != nil {
		logger.Fatal("cannot open alert store", zap.String("store", appKonf.Alerts.Store), zap.Error(err))
	}
	service := alerts.NewService(store, appKonf.Alerts.TTL, appKonf.Alerts.Retry, logger)

	handler := api.NewHandler(service, api.HealthProbe(probe), logger)
	if err := api.Serve(ctx, appKonf.API, handler, logger); err != nil {
		logger.Fatal("api stopped", zap.Error(err))
	}
}
