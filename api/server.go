package api

import (
	// Go Internal Packages
	"context"
	"errors"
	"net/http"
	"time"

	// Local Packages
	config "card-pipeline/config"

	// External Packages
	"go.uber.org/zap"
)

// Serve runs the HTTP server until ctx is canceled, then shuts it down gracefully.
func Serve(ctx context.Context, conf config.API, handler http.Handler, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:              conf.Addr,
		Handler:           handler,
		ReadTimeout:       conf.ReadTimeout,
		ReadHeaderTimeout: conf.ReadTimeout,
		WriteTimeout:      conf.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("api shutdown", zap.Error(err))
		}
	}()

	logger.Info("serving api", zap.String("addr", conf.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
