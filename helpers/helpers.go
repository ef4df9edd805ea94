package helpers

import (
	// Go Internal Packages
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	// Local Packages
	config "card-pipeline/config"

	// External Packages
	_ "github.com/jsternberg/zap-logfmt"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// PrintStruct prints a givens struct in pretty format with indent
func PrintStruct(w io.Writer, v any) {
	res, _ := json.MarshalIndent(v, "", "  ")
	fmt.Fprintln(w, string(res))
}

// NewLogger builds the logfmt production logger shared by every command.
func NewLogger(appKonf config.Config, service string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "logfmt"
	_ = cfg.Level.UnmarshalText([]byte(appKonf.Logger.Level))
	cfg.InitialFields = make(map[string]any)
	cfg.InitialFields["host"], _ = os.Hostname()
	cfg.InitialFields["service"] = service
	cfg.OutputPaths = []string{"stdout"}
	return cfg.Build()
}

// ServeMetrics exposes each handler on addr under /metrics/<name> until ctx is done.
// Every kafka client gets its own kprom registry, hence one path per client.
func ServeMetrics(ctx context.Context, addr string, handlers map[string]http.Handler, logger *zap.Logger) error {
	if addr == "" || len(handlers) == 0 {
		return nil
	}
	mux := http.NewServeMux()
	for name, handler := range handlers {
		mux.Handle("/metrics/"+name, handler)
	}
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("serving metrics", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Backoff builds an exponential backoff capped at r.MaxDelay and limited to r.MaxAttempts retries.
func Backoff(r config.Retry) retry.Backoff {
	b := retry.NewExponential(r.BaseDelay)
	if r.MaxDelay > 0 {
		b = retry.WithCappedDuration(r.MaxDelay, b)
	}
	return retry.WithMaxRetries(r.MaxAttempts, b)
}
