package processors

import (
	// Go Internal Packages
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	// Local Packages
	perrors "card-pipeline/errors"
	models "card-pipeline/models"
	window "card-pipeline/services/window"

	// External Packages
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAggregator struct {
	events  []models.TransactionEvent
	sources []window.Source
	err     error
	closed  bool
}

func (f *fakeAggregator) ProcessFrom(_ context.Context, events []models.TransactionEvent, sources []window.Source) error {
	f.events = append(f.events, events...)
	f.sources = append(f.sources, sources...)
	return f.err
}

func (f *fakeAggregator) Held() window.Held { return window.Held{} }

func (f *fakeAggregator) Close(context.Context) error {
	f.closed = true
	return nil
}

func validEvent() models.TransactionEvent {
	return models.TransactionEvent{
		CardholderName:  "Ana Souza",
		TaxID:           "529.982.247-25",
		Amount:          decimal.RequireFromString("2000.50"),
		CardBrand:       "visa",
		CardNumber:      "4111111111111111",
		CVV:             "123",
		Expiry:          "10/29",
		CardType:        models.CardGold,
		CardColor:       models.ColorBlue,
		TransactionType: models.TxCredit,
		Location:        models.Location{Lat: -23.55, Lng: -46.63, City: "São Paulo", State: "SP"},
		Timestamp:       time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC),
	}
}

func TestTxProcessorSkipsBadRecords(t *testing.T) {
	agg := &fakeAggregator{}
	p := NewTxProcessor(zap.NewNop(), agg)

	valid, err := json.Marshal(validEvent())
	require.NoError(t, err)
	invalid := validEvent()
	invalid.CardType = "diamond"
	invalidJSON, err := json.Marshal(invalid)
	require.NoError(t, err)

	err = p.ProcessRecords(context.Background(), []models.Record{
		{Value: []byte("not json"), Partition: 2, Offset: 1},
		{Value: valid, Partition: 2, Offset: 2},
		{Value: invalidJSON, Partition: 2, Offset: 3},
	})
	require.NoError(t, err)
	require.Len(t, agg.events, 1)
	assert.Equal(t, "4111111111111111", agg.events[0].CardNumber)
	assert.Equal(t, []window.Source{{Partition: 2, Offset: 2}}, agg.sources)

	agg.err = errors.New("closed")
	assert.Error(t, p.ProcessRecords(context.Background(), []models.Record{{Value: valid}}))
	assert.NoError(t, p.ProcessRecords(context.Background(), nil))

	require.NoError(t, p.Release(context.Background()))
	assert.True(t, agg.closed)
}

func TestDecodeTransactionRejectsAreInvalidRecords(t *testing.T) {
	_, err := decodeTransaction([]byte("{"))
	assert.True(t, perrors.IsKind(err, perrors.Invalid))
	assert.Contains(t, err.Error(), "invalid record")

	invalid := validEvent()
	invalid.CVV = ""
	value, err := json.Marshal(invalid)
	require.NoError(t, err)
	_, err = decodeTransaction(value)
	assert.True(t, perrors.IsKind(err, perrors.Invalid))
}

type collectingEmitter struct {
	mu   sync.Mutex
	aggs []models.WindowedAggregate
}

func (e *collectingEmitter) Emit(_ context.Context, aggs []models.WindowedAggregate) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.aggs = append(e.aggs, aggs...)
	return nil
}

func (e *collectingEmitter) emitted() []models.WindowedAggregate {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]models.WindowedAggregate(nil), e.aggs...)
}

func txRecord(t *testing.T, amount int64, at time.Time, offset int64) models.Record {
	t.Helper()
	tx := validEvent()
	tx.Amount = decimal.NewFromInt(amount)
	tx.Timestamp = at
	value, err := json.Marshal(tx)
	require.NoError(t, err)
	return models.Record{Value: value, Partition: 0, Offset: offset}
}

func TestTxProcessorHoldsOffsetsOfOpenWindows(t *testing.T) {
	emitter := &collectingEmitter{}
	agg, err := window.NewAggregator(window.Config{
		Size:            120 * time.Second,
		WatermarkLag:    2 * time.Minute,
		Function:        window.Sum,
		Threshold:       decimal.NewFromInt(5000),
		Shards:          2,
		FlushOnShutdown: true,
	}, emitter, zap.NewNop())
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- agg.Run(context.Background()) }()

	p := NewTxProcessor(zap.NewNop(), agg)
	ctx := context.Background()
	start := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

	require.NoError(t, p.ProcessRecords(ctx, []models.Record{txRecord(t, 9000, start.Add(30*time.Second), 7)}))
	assert.Empty(t, emitter.emitted())
	assert.Equal(t, map[int32]int64{0: 7}, p.Held())

	// watermark reaches 12:02, the first window fires and only offset 8 stays open
	require.NoError(t, p.ProcessRecords(ctx, []models.Record{txRecord(t, 10, start.Add(4*time.Minute), 8)}))
	require.Len(t, emitter.emitted(), 1)
	assert.Equal(t, map[int32]int64{0: 8}, p.Held())

	require.NoError(t, p.Release(ctx))
	assert.Empty(t, p.Held())
	require.NoError(t, <-done)
}

func TestTxProcessorKeepsOffsetsWhenWindowsAreDiscarded(t *testing.T) {
	agg, err := window.NewAggregator(window.Config{
		Size:         120 * time.Second,
		WatermarkLag: 2 * time.Minute,
		Function:     window.Sum,
		Threshold:    decimal.NewFromInt(5000),
	}, &collectingEmitter{}, zap.NewNop())
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- agg.Run(context.Background()) }()

	p := NewTxProcessor(zap.NewNop(), agg)
	start := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	require.NoError(t, p.ProcessRecords(context.Background(), []models.Record{txRecord(t, 9000, start, 3)}))

	require.NoError(t, p.Release(context.Background()))
	assert.Equal(t, map[int32]int64{0: 3}, p.Held())
	require.NoError(t, <-done)
}

type fakeRecorder struct {
	recorded []models.WindowedAggregate
	err      error
}

func (f *fakeRecorder) Record(_ context.Context, agg models.WindowedAggregate) error {
	if f.err != nil {
		return f.err
	}
	f.recorded = append(f.recorded, agg)
	return nil
}

func TestAlertProcessor(t *testing.T) {
	rec := &fakeRecorder{}
	p := NewAlertProcessor(zap.NewNop(), rec)
	ctx := context.Background()

	value, err := json.Marshal(models.WindowedAggregate{CardNumber: "4111111111111111", Amount: decimal.NewFromInt(6500), WindowEnd: time.Now()})
	require.NoError(t, err)

	require.NoError(t, p.ProcessRecords(ctx, []models.Record{{Value: value}, {Value: []byte("{")}}))
	assert.Len(t, rec.recorded, 1)

	rec.err = perrors.EmptyParamErr("card_number")
	assert.NoError(t, p.ProcessRecord(ctx, value))

	rec.err = perrors.TransientErr("write", errors.New("throttled"))
	assert.Error(t, p.ProcessRecord(ctx, value))
}
