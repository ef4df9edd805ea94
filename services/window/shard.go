package window

import (
	// Go Internal Packages
	"sort"
	"time"

	// Local Packages
	models "card-pipeline/models"

	// External Packages
	"github.com/shopspring/decimal"
)

type windowKey struct {
	card string
	end  int64
}

type accumulator struct {
	start  time.Time
	end    time.Time
	amount decimal.Decimal
	count  int
	held   Held
}

// Held maps a stream partition to the lowest offset whose event has not been emitted yet.
type Held map[int32]int64

func (h Held) hold(partition int32, offset int64) {
	if cur, ok := h[partition]; !ok || offset < cur {
		h[partition] = offset
	}
}

func (h Held) merge(other Held) {
	for p, o := range other {
		h.hold(p, o)
	}
}

// shardState owns the open windows of the cards routed to one shard.
// It is not safe for concurrent use; each shard goroutine owns exactly one.
type shardState struct {
	cfg     Config
	windows map[windowKey]*accumulator
}

func newShardState(cfg Config) *shardState {
	return &shardState{cfg: cfg, windows: make(map[windowKey]*accumulator)}
}

func (s *shardState) add(ev models.TransactionEvent, src *Source) {
	start, end := Bounds(ev.Timestamp, s.cfg.Size)
	k := windowKey{card: ev.CardNumber, end: end.UnixNano()}

	acc, ok := s.windows[k]
	if !ok {
		acc = &accumulator{start: start, end: end, held: Held{}}
		s.windows[k] = acc
	}
	if src != nil {
		acc.held.hold(src.Partition, src.Offset)
	}
	switch s.cfg.Function {
	case Max:
		if acc.count == 0 || ev.Amount.GreaterThan(acc.amount) {
			acc.amount = ev.Amount
		}
	default:
		acc.amount = acc.amount.Add(ev.Amount)
	}
	acc.count++
}

// advance fires every window with end <= watermark and returns the aggregates above threshold
// along with the source offsets they carry.
func (s *shardState) advance(watermark time.Time) ([]models.WindowedAggregate, Held) {
	return s.fire(func(acc *accumulator) bool { return !acc.end.After(watermark) })
}

// flushAll fires every open window regardless of the watermark.
func (s *shardState) flushAll() ([]models.WindowedAggregate, Held) {
	return s.fire(func(*accumulator) bool { return true })
}

// held returns the lowest source offsets still sitting in open windows.
func (s *shardState) held() Held {
	out := Held{}
	for _, acc := range s.windows {
		out.merge(acc.held)
	}
	return out
}

func (s *shardState) fire(closed func(*accumulator) bool) ([]models.WindowedAggregate, Held) {
	var out []models.WindowedAggregate
	held := Held{}
	for k, acc := range s.windows {
		if !closed(acc) {
			continue
		}
		delete(s.windows, k)
		if !acc.amount.GreaterThan(s.cfg.Threshold) {
			continue
		}
		held.merge(acc.held)
		out = append(out, models.WindowedAggregate{
			CardNumber:  k.card,
			Amount:      acc.amount,
			Function:    string(s.cfg.Function),
			EventCount:  acc.count,
			WindowStart: acc.start,
			WindowEnd:   acc.end,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].WindowEnd.Equal(out[j].WindowEnd) {
			return out[i].WindowEnd.Before(out[j].WindowEnd)
		}
		return out[i].CardNumber < out[j].CardNumber
	})
	return out, held
}
