package window

import (
	// Go Internal Packages
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	// Local Packages
	models "card-pipeline/models"

	// External Packages
	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shardQueueSize = 1024

var ErrClosed = errors.New("aggregator closed")

// Emitter receives the aggregates of fired windows.
type Emitter interface {
	Emit(ctx context.Context, aggregates []models.WindowedAggregate) error
}

// Source locates the stream record an event was decoded from.
type Source struct {
	Partition int32
	Offset    int64
}

type message struct {
	ctx       context.Context
	event     *models.TransactionEvent
	source    *Source
	advance   bool
	watermark time.Time
	flushAll  bool
	ack       chan<- shardAck
}

// shardAck answers a barrier with the emit result and the offsets the shard still holds.
type shardAck struct {
	err  error
	held Held
}

// Aggregator assigns events to tumbling windows keyed by card number. Cards are routed to
// single-writer shards by hash, and each shard receives events and watermark advances
// through one ordered queue.
type Aggregator struct {
	cfg     Config
	emitter Emitter
	logger  *zap.Logger

	mu        sync.Mutex
	watermark *Watermark
	inputs    []chan message
	closed    bool
	held      Held

	late atomic.Int64
}

func NewAggregator(cfg Config, emitter Emitter, logger *zap.Logger) (*Aggregator, error) {
	if cfg.Size <= 0 {
		return nil, fmt.Errorf("window size must be positive, got %s", cfg.Size)
	}
	if cfg.Shards < 1 {
		cfg.Shards = 1
	}
	if _, err := ParseFunction(string(cfg.Function)); err != nil {
		return nil, err
	}

	a := &Aggregator{
		cfg:       cfg,
		emitter:   emitter,
		logger:    logger,
		watermark: NewWatermark(cfg.WatermarkLag),
		inputs:    make([]chan message, cfg.Shards),
		held:      Held{},
	}
	for i := range a.inputs {
		a.inputs[i] = make(chan message, shardQueueSize)
	}
	return a, nil
}

// Run processes shard queues until Close is called.
func (a *Aggregator) Run(ctx context.Context) error {
	var g errgroup.Group
	for i, in := range a.inputs {
		state := newShardState(a.cfg)
		g.Go(func() error {
			a.runShard(i, state, in)
			return nil
		})
	}
	a.logger.Info("window aggregator running",
		zap.Int("shards", len(a.inputs)),
		zap.Duration("window", a.cfg.Size),
		zap.String("function", string(a.cfg.Function)),
	)
	return g.Wait()
}

func (a *Aggregator) runShard(id int, state *shardState, in <-chan message) {
	var fired []models.WindowedAggregate
	firedHeld := Held{}
	collect := func(aggs []models.WindowedAggregate, held Held) {
		fired = append(fired, aggs...)
		firedHeld.merge(held)
	}
	for msg := range in {
		switch {
		case msg.event != nil:
			state.add(*msg.event, msg.source)
		case msg.flushAll:
			collect(state.flushAll())
		case msg.advance:
			collect(state.advance(msg.watermark))
		}
		if msg.ack == nil {
			continue
		}

		var err error
		if len(fired) > 0 {
			// Fired aggregates are kept until a barrier manages to emit them.
			if err = a.emitter.Emit(msg.ctx, fired); err == nil {
				a.logger.Debug("emitted aggregates", zap.Int("shard", id), zap.Int("count", len(fired)))
				fired = fired[:0]
				firedHeld = Held{}
			}
		}
		held := state.held()
		held.merge(firedHeld)
		msg.ack <- shardAck{err: err, held: held}
	}
	if len(fired) > 0 {
		a.logger.Warn("discarding unemitted aggregates", zap.Int("shard", id), zap.Int("count", len(fired)))
	}
}

// Process dispatches a batch of events and returns once every shard has emitted the windows
// the batch closed. Events whose window already lies behind the watermark are dropped.
func (a *Aggregator) Process(ctx context.Context, events []models.TransactionEvent) error {
	return a.ProcessFrom(ctx, events, nil)
}

// ProcessFrom is Process for events read from a partitioned stream, sources[i] being the
// record events[i] was decoded from. Offsets stay in Held until their window is emitted.
func (a *Aggregator) ProcessFrom(ctx context.Context, events []models.TransactionEvent, sources []Source) error {
	if sources != nil && len(sources) != len(events) {
		return fmt.Errorf("got %d sources for %d events", len(sources), len(events))
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrClosed
	}

	advanced := false
	for i := range events {
		ev := events[i]
		if _, end := Bounds(ev.Timestamp, a.cfg.Size); a.watermark.Late(end) {
			a.late.Add(1)
			a.logger.Debug("dropping late event",
				zap.String("card_number", ev.CardNumber),
				zap.Time("timestamp", ev.Timestamp),
				zap.Time("window_end", end),
			)
			continue
		}
		msg := message{event: &ev}
		if sources != nil {
			// Held until the barrier reports the real state, so a failed barrier keeps it.
			src := sources[i]
			a.held.hold(src.Partition, src.Offset)
			msg.source = &src
		}
		if err := a.send(ctx, a.shardFor(ev.CardNumber), msg); err != nil {
			return err
		}
		if a.watermark.Observe(ev.Timestamp) {
			advanced = true
		}
	}

	wm, _ := a.watermark.Current()
	return a.barrier(ctx, message{advance: advanced, watermark: wm})
}

// Close stops accepting events. With FlushOnShutdown every open window fires first,
// otherwise open windows are discarded and their offsets remain in Held.
func (a *Aggregator) Close(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true

	var err error
	if a.cfg.FlushOnShutdown {
		err = a.barrier(ctx, message{flushAll: true})
	} else {
		a.logger.Warn("discarding open windows on shutdown")
	}
	for _, in := range a.inputs {
		close(in)
	}
	return err
}

// Watermark returns the current watermark, if any event has been seen.
func (a *Aggregator) Watermark() (time.Time, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.watermark.Current()
}

// Held returns, per partition, the lowest source offset whose window has not been emitted.
// Offsets below it are safe to commit.
func (a *Aggregator) Held() Held {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(Held, len(a.held))
	out.merge(a.held)
	return out
}

// LateEvents returns how many events were dropped for arriving behind the watermark.
func (a *Aggregator) LateEvents() int64 {
	return a.late.Load()
}

func (a *Aggregator) shardFor(card string) int {
	return int(xxhash.Sum64String(card) % uint64(len(a.inputs)))
}

func (a *Aggregator) send(ctx context.Context, shard int, msg message) error {
	select {
	case a.inputs[shard] <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// barrier sends msg to every shard and waits for all of them to acknowledge. Once every
// shard answered, Held is replaced with what the shards report.
func (a *Aggregator) barrier(ctx context.Context, msg message) error {
	acks := make(chan shardAck, len(a.inputs))
	msg.ctx, msg.ack = ctx, acks

	sent := 0
	for i := range a.inputs {
		if err := a.send(ctx, i, msg); err != nil {
			return err
		}
		sent++
	}

	var errs []error
	held := Held{}
	for ; sent > 0; sent-- {
		select {
		case ack := <-acks:
			if ack.err != nil {
				errs = append(errs, ack.err)
			}
			held.merge(ack.held)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	a.held = held
	if len(errs) > 0 {
		return fmt.Errorf("emit aggregates: %w", errors.Join(errs...))
	}
	return nil
}
