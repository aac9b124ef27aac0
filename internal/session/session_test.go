// ABOUTME: Tests for the session run loop lifecycle.
// ABOUTME: Connect handling, standing subscriptions, keep-alive probe, error and close events.

package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LivePersonInc/messaging-bot-samples/internal/clock"
	"github.com/LivePersonInc/messaging-bot-samples/internal/events"
	"github.com/LivePersonInc/messaging-bot-samples/internal/transport"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// harness runs a Session against a fake transport and a fake clock.
type harness struct {
	t       *testing.T
	session *Session
	fake    *transport.Fake
	clk     *clock.FakeClock
	cancel  context.CancelFunc
	done    chan error
	exited  chan struct{}
}

// startSession spins up a Session on its own goroutine. The fake
// transport auto-connects unless the caller flipped AutoConnect off via
// configure before Run starts.
func startSession(t *testing.T, cfg Config, configure func(*transport.Fake)) *harness {
	t.Helper()

	fake := transport.NewFake()
	fake.AutoConnect = true
	if configure != nil {
		configure(fake)
	}

	clk := clock.Fake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	s := New(fake, cfg, testLogger())
	s.clk = clk

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	exited := make(chan struct{})
	go func() {
		done <- s.Run(ctx)
		close(exited)
	}()

	h := &harness{t: t, session: s, fake: fake, clk: clk, cancel: cancel, done: done, exited: exited}
	t.Cleanup(h.stop)
	return h
}

func (h *harness) stop() {
	h.cancel()
	select {
	case <-h.exited:
	case <-time.After(2 * time.Second):
		h.t.Fatal("session did not shut down")
	}
}

// snapshot captures run-loop-owned state by posting onto the tasks
// channel, so reads never race the loop.
type snapshot struct {
	state      State
	agentID    string
	trackedIDs []string
	tracked    map[string]TrackedConversation
	attempt    int
	delay      time.Duration
}

func (h *harness) snapshot() snapshot {
	h.t.Helper()

	var snap snapshot
	captured := make(chan struct{})
	h.session.tasks <- func() {
		snap.state = h.session.state
		snap.agentID = h.session.agentID
		snap.attempt = h.session.reconnectAttempt
		snap.delay = h.session.reconnectDelay
		snap.tracked = make(map[string]TrackedConversation, len(h.session.tracked))
		for id, tc := range h.session.tracked {
			snap.trackedIDs = append(snap.trackedIDs, id)
			snap.tracked[id] = *tc
		}
		close(captured)
	}

	select {
	case <-captured:
	case <-time.After(2 * time.Second):
		h.t.Fatal("run loop did not pick up snapshot task")
	}
	return snap
}

// subscribe registers a downstream listener for one emitted kind.
func (h *harness) subscribe(kind events.Kind) <-chan events.Event {
	h.t.Helper()
	ch, _ := h.session.Subscribe(context.Background(), kind)
	return ch
}

// recv reads one emitted event or fails the test.
func (h *harness) recv(ch <-chan events.Event) events.Event {
	h.t.Helper()
	select {
	case evt := <-ch:
		return evt
	case <-time.After(2 * time.Second):
		h.t.Fatal("timed out waiting for emitted event")
		return events.Event{}
	}
}

// expectNone asserts no event arrives within a short window.
func (h *harness) expectNone(ch <-chan events.Event) {
	h.t.Helper()
	select {
	case evt := <-ch:
		h.t.Fatalf("unexpected emitted event of kind %s", evt.Kind)
	case <-time.After(100 * time.Millisecond):
	}
}

func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 5*time.Millisecond, msg)
}

func TestRun_ConnectEmitsConnected(t *testing.T) {
	h := startSession(t, Config{}, nil)
	connected := h.subscribe(events.KindConnected)

	evt := h.recv(connected)
	require.NotNil(t, evt.Connected)
	assert.Equal(t, "agent-self", evt.Connected.AgentID)

	snap := h.snapshot()
	assert.Equal(t, StateConnected, snap.state)
	assert.Equal(t, "agent-self", snap.agentID)
}

func TestRun_ConnectedIssuesStandingSubscriptions(t *testing.T) {
	h := startSession(t, Config{}, nil)

	eventually(t, func() bool { return h.fake.AgentStateSubscriptions() == 1 }, "agent state subscription")
	eventually(t, func() bool { return h.fake.RoutingTaskSubscriptions() == 1 }, "routing task subscription")
	eventually(t, func() bool { return len(h.fake.ConversationSubscriptions()) == 1 }, "conversation subscription")

	sub := h.fake.ConversationSubscriptions()[0]
	assert.Equal(t, "agent-self", sub.AgentID)
	assert.Equal(t, []transport.ConversationState{transport.ConversationOpen}, sub.State)
}

func TestRun_AllConversationsOmitsAgentFilter(t *testing.T) {
	h := startSession(t, Config{AllConversations: true}, nil)

	eventually(t, func() bool { return len(h.fake.ConversationSubscriptions()) == 1 }, "conversation subscription")
	assert.Empty(t, h.fake.ConversationSubscriptions()[0].AgentID)
}

func TestRun_InitialStateSetsPresence(t *testing.T) {
	h := startSession(t, Config{InitialState: "ONLINE"}, nil)

	eventually(t, func() bool { return len(h.fake.StateCalls()) == 1 }, "initial presence call")
	assert.Equal(t, []string{"ONLINE"}, h.fake.StateCalls())
}

func TestRun_NoInitialStateSkipsPresence(t *testing.T) {
	h := startSession(t, Config{}, nil)

	eventually(t, func() bool { return h.fake.AgentStateSubscriptions() == 1 }, "connected handled")
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, h.fake.StateCalls())
}

func TestKeepAlive_ProbesAtInterval(t *testing.T) {
	h := startSession(t, Config{KeepAliveInterval: 10 * time.Second}, nil)

	// The keep-alive ticker is armed once the connected event lands.
	h.clk.WaitForTimers(1)

	h.clk.Advance(10 * time.Second)
	eventually(t, func() bool { return h.fake.ClockCalls() == 1 }, "first probe")

	h.clk.Advance(10 * time.Second)
	eventually(t, func() bool { return h.fake.ClockCalls() == 2 }, "second probe")
}

func TestKeepAlive_NotProbedBeforeInterval(t *testing.T) {
	h := startSession(t, Config{KeepAliveInterval: 10 * time.Second}, nil)
	h.clk.WaitForTimers(1)

	h.clk.Advance(9 * time.Second)
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, h.fake.ClockCalls())
}

func TestKeepAlive_StopsOnSocketClose(t *testing.T) {
	cfg := Config{
		KeepAliveInterval:     10 * time.Second,
		ReconnectInitialDelay: time.Hour,
	}
	h := startSession(t, cfg, nil)
	h.clk.WaitForTimers(1)

	closed := h.subscribe(events.KindSocketClosed)
	h.fake.Deliver(transport.Event{Kind: transport.KindClosed, Reason: "server went away"})
	evt := h.recv(closed)
	assert.Equal(t, "server went away", evt.Reason)

	// Only the hour-long reconnect timer remains; no probes fire.
	h.clk.Advance(30 * time.Second)
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, h.fake.ClockCalls())
}

func TestTransportError_ReEmitted(t *testing.T) {
	h := startSession(t, Config{}, nil)
	errs := h.subscribe(events.KindError)

	cause := errors.New("frame decode failed")
	h.fake.Deliver(transport.Event{Kind: transport.KindError, Err: cause})

	evt := h.recv(errs)
	assert.ErrorIs(t, evt.Err, cause)

	// The loop keeps running after a transport error.
	snap := h.snapshot()
	assert.Equal(t, StateConnected, snap.state)
}

func TestRun_EventChannelCloseEndsLoop(t *testing.T) {
	h := startSession(t, Config{}, nil)
	eventually(t, func() bool { return h.fake.ConnectCalls() == 1 }, "connected")

	h.fake.CloseEvents()

	select {
	case err := <-h.done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("run loop did not exit after event channel close")
	}
}

func TestRun_ContextCancelEndsLoop(t *testing.T) {
	h := startSession(t, Config{}, nil)
	eventually(t, func() bool { return h.fake.ConnectCalls() == 1 }, "connected")

	h.cancel()

	select {
	case err := <-h.done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("run loop did not exit after context cancel")
	}
}

func TestConfig_Defaults(t *testing.T) {
	var cfg Config
	cfg.applyDefaults()

	assert.Equal(t, 300*time.Second, cfg.KeepAliveInterval)
	assert.Equal(t, 5*time.Second, cfg.ReconnectInitialDelay)
	assert.Equal(t, 1.2, cfg.ReconnectMultiplier)
	assert.Equal(t, 35, cfg.ReconnectMaxAttempts)
	assert.Equal(t, 10*time.Minute, cfg.DedupeTTL)
	assert.Equal(t, 4096, cfg.DedupeSize)
}
