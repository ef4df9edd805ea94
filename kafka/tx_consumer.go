package kafka

import (
	// Go Internal Packages
	"context"
	"errors"
	"time"

	// Local Packages
	models "card-pipeline/models"

	// External Packages
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kprom"
	"go.uber.org/zap"
)

type ConsumerConfig struct {
	Brokers        []string
	Name           string
	Topic          string
	RecordsPerPoll int
	PollTimeout    time.Duration
}

// Processor handles a polled batch. Offsets are committed once it returns.
type Processor interface {
	ProcessRecords(ctx context.Context, records []models.Record) error
}

// BufferingProcessor holds records across polls. Offsets of buffered records are committed
// only after a successful Flush, which the consumer triggers when Due reports true.
type BufferingProcessor interface {
	Processor
	Due(now time.Time) bool
	Flush(ctx context.Context) error
}

// HoldingProcessor keeps state built from records after ProcessRecords returns. Records at
// or above the Held offset of their partition stay uncommitted. On shutdown Release runs
// before the final commit.
type HoldingProcessor interface {
	Processor
	Held() map[int32]int64
	Release(ctx context.Context) error
}

type DeadLetterQueue interface {
	Send(ctx context.Context, source string, records []models.Record) error
}

type client interface {
	PollRecords(ctx context.Context, maxPollRecords int) kgo.Fetches
	CommitRecords(ctx context.Context, rs ...*kgo.Record) error
	AllowRebalance()
	Close()
}

type Consumer struct {
	Client    client
	Config    *ConsumerConfig
	Processor Processor
	DLQ       DeadLetterQueue
	Logger    *zap.Logger

	pending []*kgo.Record
}

// NewConsumer creates a new group consumer for a single topic
// (PS: Must call Poll to start consuming the records)
func NewConsumer(conf *ConsumerConfig, logger *zap.Logger, processor Processor, dlq DeadLetterQueue, metrics *kprom.Metrics) (*Consumer, error) {
	c := &Consumer{Config: conf, Processor: processor, DLQ: dlq, Logger: logger}
	if c.Config.PollTimeout <= 0 {
		c.Config.PollTimeout = 5 * time.Second
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(conf.Brokers...), // Connects to Kafka brokers
		kgo.ConsumerGroup(conf.Name),     // Specifies the consumer group
		kgo.ConsumeTopics(conf.Topic),    // Specifies a single topic to consume
		kgo.DisableAutoCommit(),          // Disables auto-commit
		kgo.BlockRebalanceOnPoll(),       // Blocks rebalancing until the poll loop is running
	}
	if metrics != nil {
		opts = append(opts, kgo.WithHooks(metrics)) // Attaches monitoring hooks
	}

	cl, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, err
	}

	c.Client = cl
	return c, nil
}

// Poll polls for records from the Kafka broker until ctx is canceled.
func (c *Consumer) Poll(ctx context.Context) error {
	defer c.Client.Close()

	consumerName := c.Config.Name
	recordsPerPoll := c.Config.RecordsPerPoll
	buffering, isBuffering := c.Processor.(BufferingProcessor)

	for {
		// Check if the context is canceled before polling
		if ctx.Err() != nil {
			c.Logger.Warn("polling stopped: context canceled", zap.String("consumer", consumerName))
			c.drain(buffering, isBuffering)
			return ctx.Err()
		}

		pollCtx, cancel := context.WithTimeout(ctx, c.Config.PollTimeout)
		fetches := c.Client.PollRecords(pollCtx, recordsPerPoll)
		cancel()

		// Handle client shutdown
		if fetches.IsClientClosed() {
			return errors.New("kafka client closed")
		}

		fetches.EachError(func(topic string, partition int32, err error) {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				return
			}
			c.Logger.Error("fetch error", zap.String("topic", topic), zap.Int32("partition", partition), zap.Error(err))
		})

		fetched := fetches.Records()
		if len(fetched) > 0 {
			records := toRecords(fetched)
			if err := c.Processor.ProcessRecords(ctx, records); err != nil {
				c.Logger.Error("failed to process records", zap.Int("count", len(records)), zap.Error(err))
				c.deadLetter(ctx, records)
			}
			c.pending = append(c.pending, fetched...)
		}

		if isBuffering && !buffering.Due(time.Now()) {
			c.Client.AllowRebalance()
			continue
		}
		if isBuffering {
			if err := buffering.Flush(ctx); err != nil {
				c.Logger.Error("failed to flush buffered records", zap.Int("count", len(c.pending)), zap.Error(err))
				c.deadLetter(ctx, toRecords(c.pending))
			}
		}

		c.commit(ctx)
		c.Client.AllowRebalance()
	}
}

func (c *Consumer) drain(buffering BufferingProcessor, isBuffering bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if isBuffering {
		if err := buffering.Flush(ctx); err != nil {
			c.Logger.Error("failed to flush on shutdown", zap.Error(err))
			c.deadLetter(ctx, toRecords(c.pending))
		}
	}
	if holder, ok := c.Processor.(HoldingProcessor); ok {
		// Whatever the release could not emit stays held and is consumed again on restart.
		if err := holder.Release(ctx); err != nil {
			c.Logger.Error("failed to release held records on shutdown", zap.Error(err))
		}
	}
	c.commit(ctx)
}

func (c *Consumer) commit(ctx context.Context) {
	if len(c.pending) == 0 {
		return
	}
	ready, held := c.pending, []*kgo.Record(nil)
	if holder, ok := c.Processor.(HoldingProcessor); ok {
		ready, held = splitHeld(c.pending, holder.Held())
	}
	if len(ready) > 0 {
		if err := c.Client.CommitRecords(ctx, ready...); err != nil {
			c.Logger.Error("failed to commit offsets", zap.Error(err))
			return
		}
	}
	if len(held) > 0 {
		c.Logger.Debug("holding offsets of open windows", zap.Int("count", len(held)))
	}
	c.pending = held
}

// splitHeld separates the records below the held offset of their partition from the rest.
func splitHeld(records []*kgo.Record, held map[int32]int64) (ready, rest []*kgo.Record) {
	for _, r := range records {
		if limit, ok := held[r.Partition]; ok && r.Offset >= limit {
			rest = append(rest, r)
			continue
		}
		ready = append(ready, r)
	}
	return ready, rest
}

func (c *Consumer) deadLetter(ctx context.Context, records []models.Record) {
	if c.DLQ == nil || len(records) == 0 {
		return
	}
	if err := c.DLQ.Send(ctx, c.Config.Name, records); err != nil {
		c.Logger.Error("failed to dead-letter records", zap.Int("count", len(records)), zap.Error(err))
	}
}

func toRecords(fetched []*kgo.Record) []models.Record {
	// Preallocate records slice efficiently
	records := make([]models.Record, len(fetched))
	for idx, record := range fetched {
		records[idx] = models.Record{
			Key:       record.Key,
			Value:     record.Value,
			Topic:     record.Topic,
			Partition: record.Partition,
			Offset:    record.Offset,
			Timestamp: record.Timestamp,
		}
	}
	return records
}
