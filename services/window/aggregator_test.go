package window

import (
	// Go Internal Packages
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	// Local Packages
	models "card-pipeline/models"

	// External Packages
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const card = "4111111111111111"

var base = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

type recordingEmitter struct {
	mu   sync.Mutex
	aggs []models.WindowedAggregate
	err  error
}

func (r *recordingEmitter) Emit(_ context.Context, aggs []models.WindowedAggregate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.aggs = append(r.aggs, aggs...)
	return nil
}

func (r *recordingEmitter) emitted() []models.WindowedAggregate {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.WindowedAggregate(nil), r.aggs...)
}

func event(cardNumber string, amount int64, at time.Time) models.TransactionEvent {
	return models.TransactionEvent{CardNumber: cardNumber, Amount: decimal.NewFromInt(amount), Timestamp: at}
}

func testConfig(fn Function) Config {
	return Config{
		Size:            120 * time.Second,
		WatermarkLag:    2 * time.Minute,
		Function:        fn,
		Threshold:       decimal.NewFromInt(5000),
		Shards:          4,
		FlushOnShutdown: true,
	}
}

// startAggregator runs the aggregator in the background and closes it on cleanup.
func startAggregator(t *testing.T, cfg Config) (*Aggregator, *recordingEmitter) {
	t.Helper()
	emitter := &recordingEmitter{}
	agg, err := NewAggregator(cfg, emitter, zap.NewNop())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- agg.Run(context.Background()) }()
	t.Cleanup(func() {
		_ = agg.Close(context.Background())
		<-done
	})
	return agg, emitter
}

func TestBounds(t *testing.T) {
	size := 120 * time.Second

	start, end := Bounds(base.Add(30*time.Second), size)
	assert.Equal(t, base, start)
	assert.Equal(t, base.Add(size), end)

	// start is inclusive, end is exclusive
	start, _ = Bounds(base, size)
	assert.Equal(t, base, start)
	start, _ = Bounds(base.Add(size), size)
	assert.Equal(t, base.Add(size), start)
	start, _ = Bounds(base.Add(size-time.Nanosecond), size)
	assert.Equal(t, base, start)

	start, end = Bounds(time.Unix(-1, 0), size)
	assert.Equal(t, time.Unix(-120, 0).UTC(), start)
	assert.Equal(t, time.Unix(0, 0).UTC(), end)
}

func TestWatermarkIsMonotonic(t *testing.T) {
	w := NewWatermark(2 * time.Minute)
	_, ok := w.Current()
	assert.False(t, ok)
	assert.False(t, w.Late(base))

	assert.True(t, w.Observe(base.Add(5*time.Minute)))
	assert.False(t, w.Observe(base.Add(time.Minute)))
	current, ok := w.Current()
	require.True(t, ok)
	assert.Equal(t, base.Add(3*time.Minute), current)

	assert.True(t, w.Late(base.Add(3*time.Minute)))
	assert.False(t, w.Late(base.Add(3*time.Minute+time.Second)))
}

func TestSumAboveThresholdIsEmittedOnce(t *testing.T) {
	agg, emitter := startAggregator(t, testConfig(Sum))
	ctx := context.Background()

	require.NoError(t, agg.Process(ctx, []models.TransactionEvent{
		event(card, 2000, base.Add(10*time.Second)),
		event(card, 3500, base.Add(40*time.Second)),
		event(card, 1000, base.Add(90*time.Second)),
	}))
	assert.Empty(t, emitter.emitted())

	// watermark moves to 12:02:01 and closes [12:00, 12:02)
	require.NoError(t, agg.Process(ctx, []models.TransactionEvent{event("5500000000000004", 10, base.Add(4*time.Minute+time.Second))}))

	got := emitter.emitted()
	require.Len(t, got, 1)
	assert.Equal(t, card, got[0].CardNumber)
	assert.True(t, got[0].Amount.Equal(decimal.NewFromInt(6500)))
	assert.Equal(t, 3, got[0].EventCount)
	assert.Equal(t, base, got[0].WindowStart)
	assert.Equal(t, base.Add(2*time.Minute), got[0].WindowEnd)
	assert.Equal(t, "sum", got[0].Function)

	// further advances never fire the same window again
	require.NoError(t, agg.Process(ctx, []models.TransactionEvent{event("5500000000000004", 10, base.Add(10*time.Minute))}))
	assert.Len(t, emitter.emitted(), 1)
}

func TestMaxBelowThresholdIsNotEmitted(t *testing.T) {
	agg, emitter := startAggregator(t, testConfig(Max))
	ctx := context.Background()

	require.NoError(t, agg.Process(ctx, []models.TransactionEvent{
		event(card, 2000, base.Add(10*time.Second)),
		event(card, 3500, base.Add(40*time.Second)),
		event(card, 1000, base.Add(90*time.Second)),
		event("5500000000000004", 10, base.Add(5*time.Minute)),
	}))
	require.NoError(t, agg.Close(ctx))
	assert.Empty(t, emitter.emitted())
}

func TestThresholdIsExclusive(t *testing.T) {
	agg, emitter := startAggregator(t, testConfig(Sum))
	ctx := context.Background()

	require.NoError(t, agg.Process(ctx, []models.TransactionEvent{
		event(card, 2000, base.Add(10*time.Second)),
		event(card, 3000, base.Add(20*time.Second)),
		event("4000000000000002", 5001, base.Add(30*time.Second)),
	}))
	require.NoError(t, agg.Close(ctx))

	got := emitter.emitted()
	require.Len(t, got, 1)
	assert.Equal(t, "4000000000000002", got[0].CardNumber)
}

func TestLateEventIsDropped(t *testing.T) {
	agg, emitter := startAggregator(t, testConfig(Sum))
	ctx := context.Background()

	require.NoError(t, agg.Process(ctx, []models.TransactionEvent{event(card, 100, base.Add(5*time.Minute))}))
	wm, ok := agg.Watermark()
	require.True(t, ok)
	assert.Equal(t, base.Add(3*time.Minute), wm)

	// [12:00, 12:02) is already behind the watermark
	require.NoError(t, agg.Process(ctx, []models.TransactionEvent{event(card, 9000, base.Add(time.Minute))}))
	assert.Equal(t, int64(1), agg.LateEvents())

	require.NoError(t, agg.Close(ctx))
	assert.Empty(t, emitter.emitted())
}

func TestEventsOnBothSidesOfBoundaryAreSeparate(t *testing.T) {
	agg, emitter := startAggregator(t, testConfig(Sum))
	ctx := context.Background()

	require.NoError(t, agg.Process(ctx, []models.TransactionEvent{
		event(card, 3000, base.Add(2*time.Minute-time.Second)),
		event(card, 3000, base.Add(2*time.Minute)),
	}))
	require.NoError(t, agg.Close(ctx))
	assert.Empty(t, emitter.emitted())
}

func TestCloseFlushPolicy(t *testing.T) {
	ctx := context.Background()

	agg, emitter := startAggregator(t, testConfig(Sum))
	require.NoError(t, agg.Process(ctx, []models.TransactionEvent{event(card, 6000, base)}))
	require.NoError(t, agg.Close(ctx))
	require.Len(t, emitter.emitted(), 1)
	assert.ErrorIs(t, agg.Process(ctx, []models.TransactionEvent{event(card, 1, base)}), ErrClosed)

	cfg := testConfig(Sum)
	cfg.FlushOnShutdown = false
	agg, emitter = startAggregator(t, cfg)
	require.NoError(t, agg.Process(ctx, []models.TransactionEvent{event(card, 6000, base)}))
	require.NoError(t, agg.Close(ctx))
	assert.Empty(t, emitter.emitted())
}

func TestFailedEmitIsRetriedAtNextBarrier(t *testing.T) {
	cfg := testConfig(Sum)
	cfg.Shards = 1
	agg, emitter := startAggregator(t, cfg)
	ctx := context.Background()

	require.NoError(t, agg.Process(ctx, []models.TransactionEvent{event(card, 6000, base)}))

	emitter.mu.Lock()
	emitter.err = errors.New("broker unavailable")
	emitter.mu.Unlock()
	err := agg.Process(ctx, []models.TransactionEvent{event("other", 1, base.Add(5*time.Minute))})
	assert.ErrorContains(t, err, "broker unavailable")

	emitter.mu.Lock()
	emitter.err = nil
	emitter.mu.Unlock()
	require.NoError(t, agg.Process(ctx, nil))
	require.Len(t, emitter.emitted(), 1)
}

func TestHeldCoversUnemittedAggregates(t *testing.T) {
	cfg := testConfig(Sum)
	cfg.Shards = 1
	agg, emitter := startAggregator(t, cfg)
	ctx := context.Background()

	require.NoError(t, agg.ProcessFrom(ctx, []models.TransactionEvent{event(card, 6000, base)}, []Source{{Partition: 1, Offset: 10}}))
	assert.Equal(t, Held{1: 10}, agg.Held())

	emitter.mu.Lock()
	emitter.err = errors.New("broker unavailable")
	emitter.mu.Unlock()
	err := agg.ProcessFrom(ctx, []models.TransactionEvent{event("other", 1, base.Add(5*time.Minute))}, []Source{{Partition: 1, Offset: 11}})
	require.Error(t, err)
	assert.Equal(t, Held{1: 10}, agg.Held())

	emitter.mu.Lock()
	emitter.err = nil
	emitter.mu.Unlock()
	require.NoError(t, agg.ProcessFrom(ctx, nil, nil))
	assert.Equal(t, Held{1: 11}, agg.Held())

	// events without a source are never held
	require.NoError(t, agg.Process(ctx, []models.TransactionEvent{event(card, 1, base.Add(6*time.Minute))}))
	assert.Equal(t, Held{1: 11}, agg.Held())

	assert.Error(t, agg.ProcessFrom(ctx, []models.TransactionEvent{event(card, 1, base)}, []Source{}))
}

func TestNewAggregatorRejectsBadConfig(t *testing.T) {
	_, err := NewAggregator(Config{Size: 0, Function: Sum}, &recordingEmitter{}, zap.NewNop())
	assert.Error(t, err)
	_, err = NewAggregator(Config{Size: time.Minute, Function: "avg"}, &recordingEmitter{}, zap.NewNop())
	assert.Error(t, err)
}

type fakePublisher struct{ records []models.Record }

func (f *fakePublisher) PublishRecords(_ context.Context, records []models.Record) error {
	f.records = append(f.records, records...)
	return nil
}

func TestStreamEmitterKeysByCard(t *testing.T) {
	pub := &fakePublisher{}
	e := NewStreamEmitter(pub)
	require.NoError(t, e.Emit(context.Background(), []models.WindowedAggregate{{CardNumber: card, Amount: decimal.NewFromInt(6500), WindowEnd: base}}))

	require.Len(t, pub.records, 1)
	assert.Equal(t, card, string(pub.records[0].Key))
	var got models.WindowedAggregate
	require.NoError(t, json.Unmarshal(pub.records[0].Value, &got))
	assert.True(t, got.Amount.Equal(decimal.NewFromInt(6500)))
}
