// cmd/obras/main.go
//
// This is the entry point for the obras field client.
// When you run `obras` from any directory, this is what executes.
//
// Flow:
// 1. Create the .obras folder (config, logs, captures) if it is missing
// 2. Optionally persist a new API address, or start an in-process stub
// 3. Launch the TUI

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/sistema-obras/internal/config"
	"github.com/kingrea/sistema-obras/internal/gateway"
	"github.com/kingrea/sistema-obras/internal/logbook"
	"github.com/kingrea/sistema-obras/internal/stubapi"
	"github.com/kingrea/sistema-obras/internal/tui"
)

func main() {
	// Get the current working directory - this is the default project
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error getting working directory: %v\n", err)
		os.Exit(1)
	}

	dir := flag.String("dir", cwd, "project directory holding .obras/")
	api := flag.String("api", "", "save this API base URL to .obras/config.yaml before starting")
	stub := flag.Bool("stub", false, "serve a seeded in-memory API in-process and use it")
	flag.Parse()

	if err := config.InitObrasDir(*dir); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing .obras directory: %v\n", err)
		os.Exit(1)
	}

	if *api != "" {
		cfg, err := config.NewConfig(*dir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		if err := cfg.SetBaseURL(*api); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving API URL: %v\n", err)
			os.Exit(1)
		}
	}

	var opts []tui.AppOption
	if *stub {
		srv, client, err := startStub(*dir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error starting stub API: %v\n", err)
			os.Exit(1)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
		opts = append(opts, tui.WithGateway(client))
	}

	app, err := tui.NewApp(*dir, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting obras: %v\n", err)
		os.Exit(1)
	}

	// Run blocks until the user quits
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}

// startStub serves a seeded in-memory store on a free loopback port and
// returns a client for it. Server lines go to the journey log.
func startStub(dir string) (*stubapi.Server, *gateway.Client, error) {
	cfg, err := config.NewConfig(dir)
	if err != nil {
		return nil, nil, err
	}
	lb, err := logbook.New(cfg.JourneyLogPath())
	if err != nil {
		return nil, nil, err
	}
	store := gateway.NewMemory()
	if err := stubapi.Seed(context.Background(), store, time.Now()); err != nil {
		return nil, nil, err
	}
	settings := stubapi.SettingsFromConfig(cfg)
	settings.Port = 0
	srv := stubapi.NewServer(settings, stubapi.WithStore(store), stubapi.WithLogger(lb))
	if err := srv.Start(context.Background()); err != nil {
		return nil, nil, err
	}
	client, err := gateway.NewClient(srv.BaseURL(),
		gateway.WithTimeout(cfg.Timeout()),
		gateway.WithLogger(lb),
	)
	if err != nil {
		_ = srv.Shutdown(context.Background())
		return nil, nil, err
	}
	return srv, client, nil
}
