package window

import (
	// Go Internal Packages
	"context"
	"encoding/json"

	// Local Packages
	models "card-pipeline/models"
)

type recordPublisher interface {
	PublishRecords(ctx context.Context, records []models.Record) error
}

// StreamEmitter writes aggregates as JSON records keyed by card number.
type StreamEmitter struct {
	publisher recordPublisher
}

func NewStreamEmitter(publisher recordPublisher) *StreamEmitter {
	return &StreamEmitter{publisher: publisher}
}

func (e *StreamEmitter) Emit(ctx context.Context, aggregates []models.WindowedAggregate) error {
	records := make([]models.Record, 0, len(aggregates))
	for _, agg := range aggregates {
		value, err := json.Marshal(agg)
		if err != nil {
			return err
		}
		records = append(records, models.Record{Key: []byte(agg.CardNumber), Value: value})
	}
	return e.publisher.PublishRecords(ctx, records)
}
