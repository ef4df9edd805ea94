package window

import (
	// Go Internal Packages
	"fmt"
	"time"

	// External Packages
	"github.com/shopspring/decimal"
)

type Function string

const (
	Sum Function = "sum"
	Max Function = "max"
)

func ParseFunction(s string) (Function, error) {
	switch Function(s) {
	case Sum, Max:
		return Function(s), nil
	}
	return "", fmt.Errorf("unknown aggregation function %q", s)
}

type Config struct {
	Size            time.Duration
	WatermarkLag    time.Duration
	Function        Function
	Threshold       decimal.Decimal
	Shards          int
	FlushOnShutdown bool
}

// Bounds returns the epoch-aligned tumbling window [start, end) containing t.
func Bounds(t time.Time, size time.Duration) (start, end time.Time) {
	ns := t.UnixNano()
	rem := ns % int64(size)
	if rem < 0 {
		rem += int64(size)
	}
	start = time.Unix(0, ns-rem).UTC()
	return start, start.Add(size)
}

// Watermark tracks the maximum event time seen minus the allowed lateness.
// It never moves backwards.
type Watermark struct {
	lag     time.Duration
	current time.Time
	set     bool
}

func NewWatermark(lag time.Duration) *Watermark {
	return &Watermark{lag: lag}
}

// Observe folds an event time in and reports whether the watermark advanced.
func (w *Watermark) Observe(eventTime time.Time) bool {
	candidate := eventTime.Add(-w.lag)
	if w.set && !candidate.After(w.current) {
		return false
	}
	w.current, w.set = candidate, true
	return true
}

func (w *Watermark) Current() (time.Time, bool) {
	return w.current, w.set
}

// Late reports whether a window ending at end has already been closed.
func (w *Watermark) Late(end time.Time) bool {
	return w.set && !end.After(w.current)
}
