package main

import (
	// Go Internal Packages
	"context"
	"log"
	"os"

	// Local Packages
	api "card-pipeline/api"
	config "card-pipeline/config"
	helpers "card-pipeline/helpers"
	dynamodb "card-pipeline/repositories/dynamodb"
	alerts "card-pipeline/services/alerts"

	// External Packages
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"
)

func main() {
	_, appKonf, err := config.Load("")
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	if table := os.Getenv("TABLE"); table != "" {
		appKonf.DynamoDB.Table = table
	}

	logger, err := helpers.NewLogger(appKonf, "api-lambda")
	if err != nil {
		log.Fatalf("Error building logger: %v", err)
	}

	store, err := dynamodb.Connect(context.Background(), appKonf.DynamoDB.Table, appKonf.DynamoDB.Region, appKonf.DynamoDB.Endpoint)
	if err != nil {
		logger.Fatal("cannot create dynamodb client", zap.Error(err))
	}
	service := alerts.NewService(store, appKonf.Alerts.TTL, appKonf.Alerts.Retry, logger)

	lambda.Start(api.NewProxyHandler(api.NewHandler(service, nil, logger)))
}
