// Command apimock serves the canned JSONPlaceholder and TMDB routes locally.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/samvad-hq/deferred-feeds/internal/mockapi"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "apimock failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	addr := pflag.String("addr", ":8089", "listen address")
	apiKey := pflag.String("api-key", "", "api_key required on /3/movie/popular (empty accepts any non-empty key)")
	requestLog := pflag.Bool("request-log", true, "log every request")
	pflag.Parse()

	log, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	fixtures, err := mockapi.DefaultFixtures()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mockapi.NewRouter(mockapi.Options{APIKey: *apiKey, Fixtures: fixtures, RequestLog: *requestLog}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("apimock listening", zap.String("addr", *addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	log.Info("apimock stopped")
	return nil
}
