package generator

import (
	// Go Internal Packages
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	// Local Packages
	config "card-pipeline/config"
	helpers "card-pipeline/helpers"
	models "card-pipeline/models"

	// External Packages
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Sink receives encoded events.
type Sink interface {
	Publish(ctx context.Context, key, value []byte) error
}

// Publisher runs independent workers, each emitting one event per interval.
type Publisher struct {
	gen      *Generator
	sink     Sink
	workers  int
	interval time.Duration
	retry    config.Retry
	logger   *zap.Logger

	published atomic.Int64
	dropped   atomic.Int64
}

func NewPublisher(gen *Generator, sink Sink, conf config.Generator, logger *zap.Logger) *Publisher {
	workers := conf.Workers
	if workers < 1 {
		workers = 1
	}
	return &Publisher{
		gen:      gen,
		sink:     sink,
		workers:  workers,
		interval: conf.Interval,
		retry:    conf.Retry,
		logger:   logger,
	}
}

// Run blocks until ctx is canceled.
func (p *Publisher) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < p.workers; i++ {
		worker := i
		g.Go(func() error {
			return p.work(ctx, worker)
		})
	}
	err := g.Wait()
	p.logger.Info("generator stopped",
		zap.Int64("published", p.published.Load()),
		zap.Int64("dropped", p.dropped.Load()),
	)
	return err
}

func (p *Publisher) work(ctx context.Context, worker int) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := p.EmitOne(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				p.dropped.Add(1)
				p.logger.Error("dropping event", zap.Int("worker", worker), zap.Error(err))
			}
		}
	}
}

// EmitOne generates and publishes one event, retrying geocoding and publish failures
// with exponential backoff.
func (p *Publisher) EmitOne(ctx context.Context) error {
	var event models.TransactionEvent
	err := retry.Do(ctx, helpers.Backoff(p.retry), func(ctx context.Context) error {
		var err error
		if event, err = p.gen.Next(ctx); err != nil {
			p.logger.Warn("generate failed, retrying", zap.Error(err))
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("generate event: %w", err)
	}

	value, err := json.Marshal(event)
	if err != nil {
		return err
	}
	key := []byte(uuid.NewString())

	err = retry.Do(ctx, helpers.Backoff(p.retry), func(ctx context.Context) error {
		if err := p.sink.Publish(ctx, key, value); err != nil {
			p.logger.Warn("publish failed, retrying", zap.Error(err))
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	p.published.Add(1)
	p.logger.Debug("event published", zap.String("key", string(key)), zap.String("amount", event.Amount.String()))
	return nil
}

// WriterSink writes one JSON line per event, used for dry runs.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) Publish(_ context.Context, _, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintln(s.w, string(value))
	return err
}
