package kafka

import (
	// Go Internal Packages
	"context"

	// Local Packages
	models "card-pipeline/models"

	// External Packages
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kprom"
	"go.uber.org/zap"
)

type producerClient interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

// Producer appends records to a single topic and waits for broker acknowledgement.
type Producer struct {
	Client producerClient
	Topic  string
	Logger *zap.Logger
}

func NewProducer(brokers []string, topic string, logger *zap.Logger, metrics *kprom.Metrics) (*Producer, error) {
	opts := []kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerLinger(0),
	}
	if metrics != nil {
		opts = append(opts, kgo.WithHooks(metrics))
	}

	cl, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, err
	}
	return &Producer{Client: cl, Topic: topic, Logger: logger}, nil
}

// Publish appends one record keyed by key.
func (p *Producer) Publish(ctx context.Context, key, value []byte) error {
	return p.Client.ProduceSync(ctx, &kgo.Record{Topic: p.Topic, Key: key, Value: value}).FirstErr()
}

// PublishRecords appends records to the producer topic keeping their keys.
func (p *Producer) PublishRecords(ctx context.Context, records []models.Record) error {
	if len(records) == 0 {
		return nil
	}
	rs := make([]*kgo.Record, len(records))
	for i, r := range records {
		rs[i] = &kgo.Record{Topic: p.Topic, Key: r.Key, Value: r.Value}
	}
	return p.Client.ProduceSync(ctx, rs...).FirstErr()
}

func (p *Producer) Close() {
	p.Client.Close()
}
