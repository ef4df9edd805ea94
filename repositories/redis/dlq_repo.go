package redis

import (
	// Go Internal Packages
	"context"
	"encoding/json"
	"time"

	// Local Packages
	models "card-pipeline/models"

	// External Packages
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type deadLetter struct {
	Source    string    `json:"source"`
	Topic     string    `json:"topic"`
	Partition int32     `json:"partition"`
	Offset    int64     `json:"offset"`
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	FailedAt  time.Time `json:"failed_at"`
}

type DeadLetterQueue struct {
	client   redis.Cmdable
	logger   *zap.Logger
	listName string
	now      func() time.Time
}

func NewDeadLetterQueue(client redis.Cmdable, logger *zap.Logger, listName string) *DeadLetterQueue {
	if listName == "" {
		listName = "dead-letters"
	}
	return &DeadLetterQueue{client: client, logger: logger, listName: listName, now: time.Now}
}

// Send appends every failed record to the dead-letter list in a single pipeline.
func (r *DeadLetterQueue) Send(ctx context.Context, source string, records []models.Record) error {
	if len(records) == 0 {
		return nil
	}

	entries := make([]any, 0, len(records))
	for _, record := range records {
		jsonData, err := json.Marshal(deadLetter{
			Source:    source,
			Topic:     record.Topic,
			Partition: record.Partition,
			Offset:    record.Offset,
			Key:       string(record.Key),
			Value:     string(record.Value),
			FailedAt:  r.now().UTC(),
		})
		if err != nil {
			r.logger.Error("failed to marshal record", zap.Error(err))
			continue
		}
		entries = append(entries, jsonData)
	}
	if len(entries) == 0 {
		return nil
	}

	if err := r.client.RPush(ctx, r.listName, entries...).Err(); err != nil {
		return err
	}
	r.logger.Info("successfully sent records", zap.String("list", r.listName), zap.Int("count", len(entries)))
	return nil
}
