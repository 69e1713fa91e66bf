package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"github.com/tailored-agentic-units/turnstate/kernel"
	"github.com/tailored-agentic-units/turnstate/observability"
	"github.com/tailored-agentic-units/turnstate/turn"
)

func main() {
	var (
		configFile   = flag.String("config", "", "Path to config JSON file (optional)")
		text         = flag.String("text", "", "Message text to process (required)")
		channel      = flag.String("channel", "cli", "Channel ID of the inbound message")
		conversation = flag.String("conversation", "default", "Conversation ID of the inbound message")
		from         = flag.String("from", os.Getenv("USER"), "Sender ID of the inbound message")
		backend      = flag.String("backend", "", "Storage backend: memory, file, sqlite (overrides config)")
		path         = flag.String("path", "", "Storage path for file or sqlite backends (overrides config)")
		verbose      = flag.Bool("verbose", false, "Enable verbose logging to stderr")
	)
	flag.Parse()

	if *text == "" {
		fmt.Fprintln(os.Stderr, "Usage: turnstate -text <message> [-backend file -path <dir>]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := kernel.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *backend != "" {
		cfg.Storage.Backend = *backend
	}
	if *path != "" {
		cfg.Storage.Path = *path
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	observability.RegisterObserver("slog", observability.NewSlogObserver(logger))

	runtime, err := kernel.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create runtime: %v", err)
	}
	defer runtime.Close()

	if err := registerState(runtime); err != nil {
		log.Fatalf("Failed to register state: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	activity := turn.NewActivity(*channel, *conversation, *from, *text)
	result, err := runtime.Process(ctx, activity, handleMessage)
	if err != nil {
		log.Fatalf("Turn failed: %v", err)
	}

	for _, reply := range result.Replies {
		fmt.Println(reply.Text)
	}
	logger.Debug("turn processed", "activity_id", result.ActivityID, "duration", result.Duration)
}
