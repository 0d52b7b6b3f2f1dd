// cmd/obras-stub/main.go
//
// Development server speaking the remote works API over an in-memory store.
// Point the client at it with OBRAS_API_URL or api.base_url.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kingrea/sistema-obras/internal/config"
	"github.com/kingrea/sistema-obras/internal/gateway"
	"github.com/kingrea/sistema-obras/internal/logbook"
	"github.com/kingrea/sistema-obras/internal/stubapi"
)

type stdoutLogger struct {
	journal *logbook.Logbook
}

func (l stdoutLogger) Printf(format string, args ...any) {
	fmt.Printf(format+"\n", args...)
	l.journal.Printf(format, args...)
}

func main() {
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error getting working directory: %v\n", err)
		os.Exit(1)
	}
	dir := flag.String("dir", cwd, "project directory holding .obras/")
	noSeed := flag.Bool("empty", false, "start with no sample data")
	flag.Parse()

	if err := config.InitObrasDir(*dir); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing .obras directory: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.NewConfig(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	lb, err := logbook.New(cfg.JourneyLogPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening journey log: %v\n", err)
		os.Exit(1)
	}
	logger := stdoutLogger{journal: lb}

	settings := stubapi.SettingsFromConfig(cfg)
	store := gateway.NewMemory()
	if settings.Seed && !*noSeed {
		if err := stubapi.Seed(context.Background(), store, time.Now()); err != nil {
			fmt.Fprintf(os.Stderr, "Error seeding store: %v\n", err)
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := stubapi.NewServer(settings, stubapi.WithStore(store), stubapi.WithLogger(logger))
	if err := srv.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error starting server: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("obras-stub serving %s\n", srv.BaseURL())

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Error shutting down: %v\n", err)
		os.Exit(1)
	}
}
