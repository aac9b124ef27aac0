// ABOUTME: Sample agent bot that accepts waiting rings, joins as the assigned agent,
// ABOUTME: greets the consumer, echoes messages, and lets the session mark them read.

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

const defaultGreeting = "Hi! You have reached the agent bot. How can I help?"

func main() {
	configPath := flag.String("config", "agent-bot.yaml", "path to bot config file")
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
	cyan.Println("agent-bot")
	gray.Printf("  version: %s\n  config:  %s\n\n", version, configPath)

	creds, err := config.Load(cfg.Credentials.Path)
	if err != nil {
		logger.Warn("no platform credentials, running against the in-process simulator", "error", err)
	} else {
		logger.Info("credentials loaded", "account_id", creds.AccountID)
	}

	sim := simulator.New(logger)

	greeting := cfg.Behavior.Greeting
	if greeting == "" {
		greeting = defaultGreeting
	}

	sess := session.New(sim.Transport(), session.Config{
		AllConversations:  cfg.Session.AllConversations,
		InitialState:      cfg.Session.InitialState,
		KeepAliveInterval: cfg.Session.KeepAliveInterval,
	}, logger)

	connected, _ := sess.Subscribe(ctx, events.KindConnected)
	routing, _ := sess.Subscribe(ctx, events.KindRouting)
	conversations, _ := sess.Subscribe(ctx, events.KindConversation)
	content, _ := sess.Subscribe(ctx, events.KindContent)

	go sim.Run(ctx)
	go func() {
		if err := sess.Run(ctx); err != nil {
			logger.Error("session stopped", "error", err)
		}
	}()

	// Conversations this bot has already joined or greeted.
	joined := make(map[string]bool)
	greeted := make(map[string]bool)
	var agentID string

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return nil

		case evt := <-connected:
			agentID = evt.Connected.AgentID
			logger.Info("connected", "agent_id", agentID)

		case evt := <-routing:
			sess.AcceptWaitingConversations(evt.Routing)

		case evt := <-conversations:
			for _, change := range evt.Conversation {
				if change.Type != transport.ChangeUpsert {
					continue
				}
				id := change.ConversationID
				if !joined[id] {
					joined[id] = true
					if err := sess.Join(id, transport.RoleAssignedAgent, cfg.Behavior.Announce); err != nil {
						logger.Warn("join failed", "conversation_id", id, "error", err)
					}
				}
				if !greeted[id] && session.RoleOf(change.Details, agentID) == transport.RoleAssignedAgent {
					greeted[id] = true
					sess.SendText(id, greeting)
				}
			}

		case evt := <-content:
			logger.Info("consumer message",
				"conversation_id", evt.Content.ConversationID,
				"text", evt.Content.Message.Message,
			)
			sess.SendText(evt.Content.ConversationID,
				fmt.Sprintf("You said: %s", evt.Content.Message.Message))
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
