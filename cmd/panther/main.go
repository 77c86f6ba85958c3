package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/eleven-am/panther"
	"github.com/eleven-am/panther/internal/adapters/observability"
	"github.com/eleven-am/panther/internal/xjson"
	"github.com/joho/godotenv"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML or JSON config file")
	timeout := flag.Duration("timeout", 15*time.Second, "how long to wait for every selection to be revealed")
	asJSON := flag.Bool("json", false, "print the view journal as JSON")
	statusAddr := flag.String("status-addr", "", "serve /health, /runs and /journal on this address until interrupted")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-config file] <artist-id>...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
		os.Exit(1)
	}

	config, err := panther.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	config.Logger = newLogger(config.Logging)

	if err := run(config, flag.Args(), *timeout, *asJSON, *statusAddr); err != nil {
		config.Logger.Error("panther failed", "error", err)
		os.Exit(1)
	}
}

func run(config *panther.Config, ids []string, timeout time.Duration, asJSON bool, statusAddr string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	manager, err := panther.New(config)
	if err != nil {
		return err
	}

	if err := manager.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := manager.Stop(); err != nil {
			config.Logger.Warn("shutdown incomplete", "error", err)
		}
	}()

	statusDone := make(chan struct{})
	if statusAddr != "" {
		server := observability.NewServer(statusAddr, manager, manager.View(), config.Logger)
		go func() {
			defer close(statusDone)
			if err := server.Start(ctx); err != nil {
				config.Logger.Error("status server failed", "error", err)
			}
		}()
	} else {
		close(statusDone)
	}

	finished := make(chan panther.RunEvent, len(ids))
	for _, subscribe := range []func(func(panther.RunEvent)) (func(), error){
		manager.OnRunCompleted,
		manager.OnRunCancelled,
	} {
		if _, err := subscribe(func(run panther.RunEvent) { finished <- run }); err != nil {
			return err
		}
	}

	for _, id := range ids {
		if err := manager.SelectArtist(panther.NodeRef{ID: id}); err != nil {
			return fmt.Errorf("select %s: %w", id, err)
		}
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for pending := len(ids); pending > 0; pending-- {
		select {
		case run := <-finished:
			config.Logger.Info("run finished", "node", run.Node.ID, "state", run.State)
		case <-deadline.C:
			config.Logger.Warn("timed out waiting for reveals", "pending", pending)
			pending = 0
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if err := printJournal(manager, asJSON); err != nil {
		return err
	}

	if statusAddr != "" {
		config.Logger.Info("serving status until interrupted", "addr", statusAddr)
	}
	<-statusDone
	return nil
}

func printJournal(manager *panther.Manager, asJSON bool) error {
	journal := manager.View().Journal()
	panel, revealed := manager.View().Panel()

	if asJSON {
		out := struct {
			Journal []panther.Signal      `json:"journal"`
			Panel   *panther.Panel        `json:"panel,omitempty"`
			History []panther.WorkflowRun `json:"history"`
		}{Journal: journal, History: manager.History()}
		if revealed {
			out.Panel = &panel
		}

		data, err := xjson.Marshal(out)
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	if len(journal) == 0 {
		fmt.Println("no view signals recorded")
		return nil
	}

	origin := journal[0].At
	for _, s := range journal {
		fmt.Printf("+%-8s %-10s %s\n", s.At.Sub(origin).Round(time.Millisecond), s.Kind, s.Node.String())
	}

	if revealed && panel.Data != nil {
		data := panel.Data
		fmt.Printf("\n%s\n", data.Name)
		if len(data.Genres) > 0 {
			fmt.Printf("  genres:    %s\n", strings.Join(data.Genres, ", "))
		}
		fmt.Printf("  followers: %d\n", data.Followers)
		fmt.Printf("  related:   %d artists\n", len(data.Related))
	}
	return nil
}

func newLogger(config panther.LoggingConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(config.Level)); err != nil {
		level = slog.LevelInfo
	}

	options := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(config.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, options))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, options))
}
