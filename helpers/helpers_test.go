package helpers

import (
	// Go Internal Packages
	"bytes"
	"context"
	"net/http"
	"testing"
	"time"

	// Local Packages
	config "card-pipeline/config"

	// External Packages
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPrintStruct(t *testing.T) {
	var buf bytes.Buffer
	PrintStruct(&buf, struct {
		Name string `json:"name"`
	}{Name: "card-stream"})
	assert.Equal(t, "{\n  \"name\": \"card-stream\"\n}\n", buf.String())
}

func TestBackoffIsCappedAndBounded(t *testing.T) {
	b := Backoff(config.Retry{MaxAttempts: 3, BaseDelay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond})

	var delays []time.Duration
	for {
		d, stop := b.Next()
		if stop {
			break
		}
		delays = append(delays, d)
	}
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond}, delays)
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(config.Config{Logger: config.Logger{Level: "warn"}}, "test")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.InfoLevel))
	assert.True(t, logger.Core().Enabled(zap.WarnLevel))
}

func TestServeMetricsWithoutHandlersReturns(t *testing.T) {
	err := ServeMetrics(context.Background(), ":0", map[string]http.Handler{}, zap.NewNop())
	assert.NoError(t, err)
}
