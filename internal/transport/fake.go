// ABOUTME: Fake Transport implementation for testing
// ABOUTME: Records operation calls and lets tests inject raw events

package transport

import (
	"context"
	"sync"
	"time"
)

// Fake is an in-memory Transport for testing. Operation calls are
// recorded for assertions; raw events are injected with Deliver.
type Fake struct {
	mu sync.Mutex

	events chan Event

	// AgentID is assigned on Connect/Reconnect. Defaults to "agent-self".
	AgentID string

	// Errors injected per operation name; nil means success.
	Errs map[string]error

	// Profiles returned by GetUserProfile, keyed by user ID.
	Profiles map[string]UserProfile

	// ServerTime returned by GetClock.
	ServerTime time.Time

	// AutoConnect, when true, makes Connect and Reconnect deliver the
	// KindConnected event themselves.
	AutoConnect bool

	connectCalls   int
	reconnectCalls int

	subAgentState    int
	subConversations []SubscribeConversationsRequest
	subRoutingTasks  int
	subMessaging     []string

	stateCalls    []string
	profileCalls  []string
	clockCalls    int
	published     []PublishEventRequest
	fieldUpdates  []UpdateConversationFieldRequest
	ringUpdates   []RingUpdate
}

// RingUpdate records one UpdateRingState call.
type RingUpdate struct {
	RingID string
	State  RingState
}

// NewFake creates a Fake transport with a buffered event channel.
func NewFake() *Fake {
	return &Fake{
		events:   make(chan Event, 64),
		AgentID:  "agent-self",
		Errs:     make(map[string]error),
		Profiles: make(map[string]UserProfile),
	}
}

// Deliver injects a raw event as if it arrived from the wire.
func (f *Fake) Deliver(evt Event) { f.events <- evt }

// DeliverConnected injects the connected event carrying f.AgentID.
func (f *Fake) DeliverConnected() {
	f.mu.Lock()
	agentID := f.AgentID
	f.mu.Unlock()
	f.events <- Event{Kind: KindConnected, Connected: &Connected{AgentID: agentID}}
}

// CloseEvents closes the raw event channel, ending any consuming loop.
func (f *Fake) CloseEvents() { close(f.events) }

func (f *Fake) Connect(ctx context.Context) error {
	f.mu.Lock()
	f.connectCalls++
	err := f.Errs["connect"]
	auto := f.AutoConnect
	f.mu.Unlock()
	if err != nil {
		return err
	}
	if auto {
		f.DeliverConnected()
	}
	return nil
}

func (f *Fake) Reconnect(ctx context.Context) error {
	f.mu.Lock()
	f.reconnectCalls++
	err := f.Errs["reconnect"]
	auto := f.AutoConnect
	f.mu.Unlock()
	if err != nil {
		return err
	}
	if auto {
		f.DeliverConnected()
	}
	return nil
}

func (f *Fake) Events() <-chan Event { return f.events }

func (f *Fake) SubscribeAgentState(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subAgentState++
	return f.Errs["subscribe_agent_state"]
}

func (f *Fake) SubscribeConversations(ctx context.Context, req SubscribeConversationsRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subConversations = append(f.subConversations, req)
	return f.Errs["subscribe_conversations"]
}

func (f *Fake) SubscribeRoutingTasks(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subRoutingTasks++
	return f.Errs["subscribe_routing_tasks"]
}

func (f *Fake) SubscribeMessagingEvents(ctx context.Context, conversationID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subMessaging = append(f.subMessaging, conversationID)
	return f.Errs["subscribe_messaging_events"]
}

func (f *Fake) SetAgentState(ctx context.Context, availability string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stateCalls = append(f.stateCalls, availability)
	return f.Errs["set_agent_state"]
}

func (f *Fake) GetUserProfile(ctx context.Context, userID string) (UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profileCalls = append(f.profileCalls, userID)
	if err := f.Errs["get_user_profile"]; err != nil {
		return UserProfile{}, err
	}
	return f.Profiles[userID], nil
}

func (f *Fake) GetClock(ctx context.Context) (time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clockCalls++
	if err := f.Errs["get_clock"]; err != nil {
		return time.Time{}, err
	}
	return f.ServerTime, nil
}

func (f *Fake) PublishEvent(ctx context.Context, req PublishEventRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, req)
	return f.Errs["publish_event"]
}

func (f *Fake) UpdateConversationField(ctx context.Context, req UpdateConversationFieldRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fieldUpdates = append(f.fieldUpdates, req)
	return f.Errs["update_conversation_field"]
}

func (f *Fake) UpdateRingState(ctx context.Context, ringID string, state RingState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ringUpdates = append(f.ringUpdates, RingUpdate{RingID: ringID, State: state})
	return f.Errs["update_ring_state"]
}

// Accessors below return copies so tests can assert without racing the
// code under test.

func (f *Fake) ConnectCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connectCalls
}

func (f *Fake) ReconnectCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reconnectCalls
}

func (f *Fake) AgentStateSubscriptions() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subAgentState
}

func (f *Fake) ConversationSubscriptions() []SubscribeConversationsRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]SubscribeConversationsRequest(nil), f.subConversations...)
}

func (f *Fake) RoutingTaskSubscriptions() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subRoutingTasks
}

func (f *Fake) MessagingSubscriptions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.subMessaging...)
}

func (f *Fake) StateCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.stateCalls...)
}

func (f *Fake) ProfileCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.profileCalls...)
}

func (f *Fake) ClockCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clockCalls
}

func (f *Fake) Published() []PublishEventRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]PublishEventRequest(nil), f.published...)
}

func (f *Fake) FieldUpdates() []UpdateConversationFieldRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]UpdateConversationFieldRequest(nil), f.fieldUpdates...)
}

func (f *Fake) RingUpdates() []RingUpdate {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RingUpdate(nil), f.ringUpdates...)
}
