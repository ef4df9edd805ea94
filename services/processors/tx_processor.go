package processors

import (
	// Go Internal Packages
	"context"
	"encoding/json"
	"fmt"

	// Local Packages
	errors "card-pipeline/errors"
	models "card-pipeline/models"
	window "card-pipeline/services/window"

	// External Packages
	"go.uber.org/zap"
)

type WindowAggregator interface {
	ProcessFrom(ctx context.Context, events []models.TransactionEvent, sources []window.Source) error
	Held() window.Held
	Close(ctx context.Context) error
}

// TxProcessor feeds transaction records from the ingestion stream into the window aggregator.
// Records stay uncommitted while their window is open.
type TxProcessor struct {
	Logger     *zap.Logger
	Aggregator WindowAggregator
}

func NewTxProcessor(logger *zap.Logger, aggregator WindowAggregator) *TxProcessor {
	return &TxProcessor{Aggregator: aggregator, Logger: logger}
}

func (p *TxProcessor) ProcessRecords(ctx context.Context, records []models.Record) error {
	if len(records) == 0 {
		return nil
	}

	events := make([]models.TransactionEvent, 0, len(records))
	sources := make([]window.Source, 0, len(records))
	for _, record := range records {
		tx, err := decodeTransaction(record.Value)
		if err != nil {
			p.Logger.Error("skipping transaction", zap.Int32("partition", record.Partition), zap.Int64("offset", record.Offset), zap.Error(err))
			continue
		}
		events = append(events, tx)
		sources = append(sources, window.Source{Partition: record.Partition, Offset: record.Offset})
	}

	if err := p.Aggregator.ProcessFrom(ctx, events, sources); err != nil {
		return fmt.Errorf("failed to aggregate transactions: %w", err)
	}
	return nil
}

// Held returns the lowest offset per partition whose window has not been emitted yet.
func (p *TxProcessor) Held() map[int32]int64 {
	return p.Aggregator.Held()
}

// Release closes the aggregator, firing open windows when flush on shutdown is enabled.
func (p *TxProcessor) Release(ctx context.Context) error {
	return p.Aggregator.Close(ctx)
}

func decodeTransaction(value []byte) (models.TransactionEvent, error) {
	var tx models.TransactionEvent
	if err := json.Unmarshal(value, &tx); err != nil {
		return tx, errors.InvalidRecordErr(err)
	}
	if err := tx.Validate(); err != nil {
		return tx, errors.InvalidRecordErr(err)
	}
	return tx, nil
}
