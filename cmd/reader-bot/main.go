// ABOUTME: Sample reader bot that joins every conversation as a silent reader
// ABOUTME: and logs the content stream without publishing anything.

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"github.com/LivePersonInc/messaging-bot-samples/internal/botconfig"
	"github.com/LivePersonInc/messaging-bot-samples/internal/config"
	"github.com/LivePersonInc/messaging-bot-samples/internal/events"
	"github.com/LivePersonInc/messaging-bot-samples/internal/session"
	"github.com/LivePersonInc/messaging-bot-samples/internal/simulator"
	"github.com/LivePersonInc/messaging-bot-samples/internal/transport"
)

// Version is set by goreleaser at build time.
var version = "dev"

func main() {
	configPath := flag.String("config", "reader-bot.yaml", "path to bot config file")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	cfg, err := botconfig.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)

	cyan := color.New(color.FgCyan)
	gray := color.New(color.FgHiBlack)
	cyan.Println("reader-bot")
	gray.Printf("  version: %s\n  config:  %s\n\n", version, configPath)

	creds, err := config.Load(cfg.Credentials.Path)
	if err != nil {
		logger.Warn("no platform credentials, running against the in-process simulator", "error", err)
	} else {
		logger.Info("credentials loaded", "account_id", creds.AccountID)
	}

	sim := simulator.New(logger)

	sess := session.New(sim.Transport(), session.Config{
		// Readers want to see conversations they are not part of yet.
		AllConversations:  true,
		InitialState:      cfg.Session.InitialState,
		KeepAliveInterval: cfg.Session.KeepAliveInterval,
	}, logger)

	conversations, _ := sess.Subscribe(ctx, events.KindConversation)
	content, _ := sess.Subscribe(ctx, events.KindContent)

	go sim.Run(ctx)
	go func() {
		if err := sess.Run(ctx); err != nil {
			logger.Error("session stopped", "error", err)
		}
	}()

	joined := make(map[string]bool)

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return nil

		case evt := <-conversations:
			for _, change := range evt.Conversation {
				if change.Type != transport.ChangeUpsert || joined[change.ConversationID] {
					continue
				}
				joined[change.ConversationID] = true
				if err := sess.Join(change.ConversationID, transport.RoleReader, false); err != nil {
					logger.Warn("join failed", "conversation_id", change.ConversationID, "error", err)
				}
			}

		case evt := <-content:
			logger.Info("observed message",
				"conversation_id", evt.Content.ConversationID,
				"sequence", evt.Content.Sequence,
				"originator_role", string(evt.Content.Originator.Role),
				"text", evt.Content.Message.Message,
			)
		}
	}
}

func setupLogger(cfg botconfig.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}
