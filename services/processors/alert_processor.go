package processors

import (
	// Go Internal Packages
	"context"
	"encoding/json"
	"fmt"

	// Local Packages
	errors "card-pipeline/errors"
	models "card-pipeline/models"

	// External Packages
	"go.uber.org/zap"
)

type AlertRecorder interface {
	Record(ctx context.Context, agg models.WindowedAggregate) error
}

// AlertProcessor writes every aggregate of the realtime stream to the alert store.
type AlertProcessor struct {
	Logger   *zap.Logger
	Recorder AlertRecorder
}

func NewAlertProcessor(logger *zap.Logger, recorder AlertRecorder) *AlertProcessor {
	return &AlertProcessor{Logger: logger, Recorder: recorder}
}

func (p *AlertProcessor) ProcessRecords(ctx context.Context, records []models.Record) error {
	for _, record := range records {
		if err := p.ProcessRecord(ctx, record.Value); err != nil {
			return err
		}
	}
	return nil
}

// ProcessRecord handles one JSON encoded aggregate. Malformed and invalid aggregates are
// logged and skipped since retrying them cannot succeed.
func (p *AlertProcessor) ProcessRecord(ctx context.Context, value []byte) error {
	var agg models.WindowedAggregate
	err := json.Unmarshal(value, &agg)
	if err != nil {
		err = errors.InvalidRecordErr(err)
	} else {
		err = p.Recorder.Record(ctx, agg)
	}
	switch {
	case err == nil:
		p.Logger.Info("recorded suspicious transaction",
			zap.String("card_number", agg.CardNumber),
			zap.String("amount", agg.Amount.String()),
			zap.Time("window_end", agg.WindowEnd),
		)
		return nil
	case errors.IsKind(err, errors.Invalid):
		p.Logger.Error("invalid aggregate", zap.Error(err))
		return nil
	default:
		return fmt.Errorf("failed to record aggregate: %w", err)
	}
}
