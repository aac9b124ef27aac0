// ABOUTME: Session manager core: owns the transport connection, timers, and tracked state.
// ABOUTME: Single run loop serializes notifications, timer ticks, and async completions.

package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/LivePersonInc/messaging-bot-samples/internal/clock"
	"github.com/LivePersonInc/messaging-bot-samples/internal/dedupe"
	"github.com/LivePersonInc/messaging-bot-samples/internal/events"
	"github.com/LivePersonInc/messaging-bot-samples/internal/transport"
)

// State is the connection state of the session.
type State int

const (
	StateIdle State = iota
	StateConnected
	StateReconnecting
	StateExhausted
)

// String returns the lowercase state name used in logs.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Defaults for Config zero values.
const (
	defaultKeepAliveInterval    = 300 * time.Second
	defaultReconnectDelay       = 5 * time.Second
	defaultReconnectMultiplier  = 1.2
	defaultReconnectMaxAttempts = 35
	defaultDedupeTTL            = 10 * time.Minute
	defaultDedupeSize           = 4096
)

// Config tunes one Session. The zero value selects the defaults above.
type Config struct {
	// AllConversations subscribes to every open conversation on the
	// account instead of only the ones the agent participates in.
	AllConversations bool

	// InitialState is the presence set right after connect
	// (e.g. "ONLINE"). Empty skips the call.
	InitialState string

	KeepAliveInterval     time.Duration
	ReconnectInitialDelay time.Duration
	ReconnectMultiplier   float64
	ReconnectMaxAttempts  int

	DedupeTTL  time.Duration
	DedupeSize int
}

func (c *Config) applyDefaults() {
	if c.KeepAliveInterval <= 0 {
		c.KeepAliveInterval = defaultKeepAliveInterval
	}
	if c.ReconnectInitialDelay <= 0 {
		c.ReconnectInitialDelay = defaultReconnectDelay
	}
	if c.ReconnectMultiplier <= 1 {
		c.ReconnectMultiplier = defaultReconnectMultiplier
	}
	if c.ReconnectMaxAttempts <= 0 {
		c.ReconnectMaxAttempts = defaultReconnectMaxAttempts
	}
	if c.DedupeTTL <= 0 {
		c.DedupeTTL = defaultDedupeTTL
	}
	if c.DedupeSize <= 0 {
		c.DedupeSize = defaultDedupeSize
	}
}

// Session owns one persistent connection to the messaging platform.
// It consumes raw transport events, maintains the tracked-conversation
// table, and re-emits the typed event taxonomy. One per process; on
// disconnect the same Session re-establishes its transport session
// rather than being recreated.
//
// All state below the tasks channel is owned by the Run loop and must
// only be touched there.
type Session struct {
	transport transport.Transport
	emitter   *events.Emitter
	delivered *dedupe.Cache
	clk       clock.Clock
	logger    *slog.Logger
	cfg       Config

	// tasks carries async completion closures back onto the run loop.
	tasks chan func()

	// ctx is the run context, set by Run. Fire-and-forget transport
	// calls inherit it.
	ctx context.Context

	agentID string
	tracked map[string]*TrackedConversation

	state            State
	keepAlive        *clock.Ticker
	keepAliveC       <-chan time.Time
	reconnectC       <-chan time.Time
	reconnectAttempt int
	reconnectDelay   time.Duration
}

// New creates a Session over the given transport. Pass nil logger for
// default.
func New(t transport.Transport, cfg Config, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.applyDefaults()
	logger = logger.With("component", "session")

	return &Session{
		transport: t,
		emitter:   events.NewEmitter(logger),
		delivered: dedupe.New(cfg.DedupeTTL, cfg.DedupeSize),
		clk:       clock.Real(),
		logger:    logger,
		cfg:       cfg,
		tasks:     make(chan func(), 64),
		tracked:   make(map[string]*TrackedConversation),
		state:     StateIdle,
	}
}

// Subscribe registers a downstream listener for one emitted event kind.
// The subscription is cleaned up when ctx is cancelled.
func (s *Session) Subscribe(ctx context.Context, kind events.Kind) (<-chan events.Event, string) {
	return s.emitter.Subscribe(ctx, kind)
}

// Run connects the transport and processes events until ctx is
// cancelled or the transport closes its event channel for good. All
// notification handling, timer callbacks, and async completions are
// serialized here; no other goroutine mutates session state.
func (s *Session) Run(ctx context.Context) error {
	s.ctx = ctx
	defer s.shutdown()

	if err := s.transport.Connect(ctx); err != nil {
		s.logger.Error("initial connect failed, scheduling reconnect", "error", err)
		s.beginReconnect()
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("session shutting down")
			return nil

		case evt, ok := <-s.transport.Events():
			if !ok {
				s.logger.Info("transport event channel closed")
				return nil
			}
			s.handleTransportEvent(evt)

		case fn := <-s.tasks:
			fn()

		case <-s.keepAliveC:
			s.probe()

		case <-s.reconnectC:
			s.reconnectTick()
		}
	}
}

// handleTransportEvent dispatches one raw transport event.
func (s *Session) handleTransportEvent(evt transport.Event) {
	switch evt.Kind {
	case transport.KindConnected:
		s.handleConnected(evt.Connected)

	case transport.KindNotification:
		s.handleNotification(evt.Notification)

	case transport.KindClosed:
		s.handleClosed(evt.Reason)

	case transport.KindError:
		s.logger.Error("transport error", "error", evt.Err)
		s.emitter.Publish(events.Event{Kind: events.KindError, Err: evt.Err})

	default:
		s.logger.Warn("unhandled transport event", "kind", evt.Kind.String())
	}
}

// handleConnected processes a successful connect or reconnect: cancel
// any pending reconnect timer, restart the keep-alive probe, set the
// initial presence, and issue the standing subscriptions.
func (s *Session) handleConnected(c *transport.Connected) {
	if c != nil && c.AgentID != "" {
		s.agentID = c.AgentID
	}
	s.cancelReconnect()
	s.state = StateConnected
	s.startKeepAlive()

	s.logger.Info("session connected", "agent_id", s.agentID)

	if s.cfg.InitialState != "" {
		initial := s.cfg.InitialState
		s.do("set_agent_state", func(ctx context.Context) error {
			return s.transport.SetAgentState(ctx, initial)
		})
	}

	// Standing subscriptions. Each is fire-and-forget: a failure is
	// logged by do() and never retried.
	s.do("subscribe_agent_state", s.transport.SubscribeAgentState)

	convReq := transport.SubscribeConversationsRequest{
		State: []transport.ConversationState{transport.ConversationOpen},
	}
	if !s.cfg.AllConversations {
		convReq.AgentID = s.agentID
	}
	s.do("subscribe_conversations", func(ctx context.Context) error {
		return s.transport.SubscribeConversations(ctx, convReq)
	})

	s.do("subscribe_routing_tasks", s.transport.SubscribeRoutingTasks)

	s.emitter.Publish(events.Event{Kind: events.KindConnected, Connected: c})
}

// handleClosed processes a socket drop: stop the keep-alive probe,
// notify downstream, and start the bounded reconnect sequence.
func (s *Session) handleClosed(reason string) {
	s.logger.Warn("socket closed", "reason", reason)
	s.stopKeepAlive()
	s.emitter.Publish(events.Event{Kind: events.KindSocketClosed, Reason: reason})
	s.beginReconnect()
}

// startKeepAlive (re)arms the periodic server-time probe.
func (s *Session) startKeepAlive() {
	s.stopKeepAlive()
	s.keepAlive = s.clk.NewTicker(s.cfg.KeepAliveInterval)
	s.keepAliveC = s.keepAlive.C
}

func (s *Session) stopKeepAlive() {
	if s.keepAlive != nil {
		s.keepAlive.Stop()
		s.keepAlive = nil
		s.keepAliveC = nil
	}
}

// probe queries server time purely to keep the socket alive. The
// response is logged and never acted upon.
func (s *Session) probe() {
	s.do("get_clock", func(ctx context.Context) error {
		serverTime, err := s.transport.GetClock(ctx)
		if err != nil {
			return err
		}
		s.logger.Debug("keep-alive probe", "server_time", serverTime)
		return nil
	})
}

// do runs a transport call on its own goroutine, fire-and-forget. The
// result is logged only; callers never see it.
func (s *Session) do(op string, fn func(context.Context) error) {
	ctx := s.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	go func() {
		if err := fn(ctx); err != nil {
			s.logger.Warn("transport call failed", "op", op, "error", err)
		}
	}()
}

// post serializes a closure onto the run loop. Used by async
// completions that mutate session state.
func (s *Session) post(fn func()) {
	select {
	case s.tasks <- fn:
	case <-s.ctx.Done():
	}
}

func (s *Session) shutdown() {
	s.stopKeepAlive()
	s.delivered.Close()
	s.emitter.Close()
}
