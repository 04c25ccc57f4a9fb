// Command mockbackend serves canned analysis results on the orchestrator's
// API so the web server can be run and demoed without it.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rahul4469/crisis-analyzer/internal/logging"
	"github.com/rahul4469/crisis-analyzer/internal/mockbackend"
	"github.com/rahul4469/crisis-analyzer/internal/scenario"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	_ = godotenv.Load()

	port := flag.String("port", envOr("MOCK_BACKEND_PORT", "8000"), "listen port")
	delay := flag.Duration("delay", 2*time.Second, "pause before every analysis answer")
	level := flag.String("log-level", envOr("LOG_LEVEL", "info"), "log level")
	flag.Parse()

	logger, err := logging.New(*level, "console")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend := mockbackend.New(scenario.MustLoad(), logger)
	backend.Delay = *delay

	srv := &http.Server{
		Addr:              ":" + *port,
		Handler:           backend.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("mock backend listening", zap.String("addr", srv.Addr), zap.Duration("delay", backend.Delay))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("mock backend exited", zap.Error(err))
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
