package main

import (
	// Go Internal Packages
	"context"
	"log"
	"os"

	// Local Packages
	config "card-pipeline/config"
	helpers "card-pipeline/helpers"
	dynamodb "card-pipeline/repositories/dynamodb"
	alerts "card-pipeline/services/alerts"
	txpsr "card-pipeline/services/processors"

	// External Packages
	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"
)

type recordProcessor interface {
	ProcessRecord(ctx context.Context, value []byte) error
}

// newHandler reports failed records individually so only they are redelivered.
func newHandler(processor recordProcessor, logger *zap.Logger) func(context.Context, events.KinesisEvent) (events.KinesisEventResponse, error) {
	return func(ctx context.Context, evt events.KinesisEvent) (events.KinesisEventResponse, error) {
		var resp events.KinesisEventResponse
		for _, rec := range evt.Records {
			if err := processor.ProcessRecord(ctx, rec.Kinesis.Data); err != nil {
				logger.Error("failed to process record", zap.String("sequence_number", rec.Kinesis.SequenceNumber), zap.Error(err))
				resp.BatchItemFailures = append(resp.BatchItemFailures, events.KinesisBatchItemFailure{
					ItemIdentifier: rec.Kinesis.SequenceNumber,
				})
			}
		}
		return resp, nil
	}
}

func main() {
	_, appKonf, err := config.Load("")
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	table := os.Getenv("TABLE")
	if table == "" {
		log.Fatal("TABLE env var is required")
	}

	logger, err := helpers.NewLogger(appKonf, "alerts-lambda")
	if err != nil {
		log.Fatalf("Error building logger: %v", err)
	}

	store, err := dynamodb.Connect(context.Background(), table, appKonf.DynamoDB.Region, appKonf.DynamoDB.Endpoint)
	if err != nil {
		logger.Fatal("cannot create dynamodb client", zap.Error(err))
	}
	service := alerts.NewService(store, appKonf.Alerts.TTL, appKonf.Alerts.Retry, logger)

	lambda.Start(newHandler(txpsr.NewAlertProcessor(logger, service), logger))
}
