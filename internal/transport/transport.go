// ABOUTME: Transport interface consumed by the session manager.
// ABOUTME: Raw event delivery plus the RPC-style subscribe/publish/update operations.

package transport

import (
	"context"
	"encoding/json"
	"time"
)

// EventKind discriminates raw transport-level events.
type EventKind int

const (
	// KindConnected is delivered after a successful connect or
	// reconnect. Connected carries the agent identity.
	KindConnected EventKind = iota
	// KindNotification is a raw upstream notification.
	KindNotification
	// KindClosed signals that the socket dropped.
	KindClosed
	// KindError is a transport-level error that did not close the socket.
	KindError
)

// String returns the lowercase event kind name used in logs.
func (k EventKind) String() string {
	switch k {
	case KindConnected:
		return "connected"
	case KindNotification:
		return "notification"
	case KindClosed:
		return "closed"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// Connected carries the identity the server assigned on connect.
type Connected struct {
	// AgentID is the stable identity assigned by the transport. It does
	// not change across reconnects of the same session.
	AgentID string `json:"agentId"`
}

// NotificationKind discriminates the upstream notification families the
// session manager understands. Anything else arrives as KindUnknown and
// is logged then ignored.
type NotificationKind int

const (
	NotifConversationChanges NotificationKind = iota
	NotifMessagingEvents
	NotifRoutingTasks
	NotifAgentState
	NotifUnknown
)

// String returns the lowercase notification kind name used in logs.
func (k NotificationKind) String() string {
	switch k {
	case NotifConversationChanges:
		return "conversation_changes"
	case NotifMessagingEvents:
		return "messaging_events"
	case NotifRoutingTasks:
		return "routing_tasks"
	case NotifAgentState:
		return "agent_state"
	default:
		return "unknown"
	}
}

// Notification is one decoded upstream notification. Exactly the field
// matching Kind is populated; Raw always carries the original payload.
type Notification struct {
	Kind NotificationKind

	// Type is the wire-level type string, kept for logging unknown kinds.
	Type string

	ConversationChanges []ConversationChange
	MessagingEvents     *MessagingEventBatch
	RoutingTasks        *RoutingTaskBatch
	AgentState          json.RawMessage

	Raw json.RawMessage
}

// Event is one raw transport-level event delivered on Events().
type Event struct {
	Kind EventKind

	Connected    *Connected
	Notification *Notification

	// Err is set for KindError events.
	Err error

	// Reason describes a KindClosed event when the transport knows why.
	Reason string
}

// SubscribeConversationsRequest scopes a conversation-update subscription.
type SubscribeConversationsRequest struct {
	// AgentID limits the subscription to conversations the agent
	// participates in. Empty subscribes to all conversations.
	AgentID string
	// State filters the subscribed conversation states.
	State []ConversationState
}

// PublishEventRequest publishes a messaging event into a conversation.
type PublishEventRequest struct {
	ConversationID string
	Event          MessagingEvent
	// ExternalID correlates structured content with the caller's card.
	ExternalID string
}

// FieldOperation is one mutation inside an UpdateConversationField call.
type FieldOperation struct {
	Field string // "ParticipantsChange", "Skill", "ConversationStateField"
	Type  string // "ADD", "REMOVE", "UPDATE"
	Role  Role
	Skill string
	State ConversationState
}

// Field and operation names used by UpdateConversationField.
const (
	FieldParticipants = "ParticipantsChange"
	FieldSkill        = "Skill"
	FieldState        = "ConversationStateField"

	OperationAdd    = "ADD"
	OperationRemove = "REMOVE"
	OperationUpdate = "UPDATE"
)

// UpdateConversationFieldRequest mutates one or more conversation
// fields in a single request.
type UpdateConversationFieldRequest struct {
	ConversationID string
	Operations     []FieldOperation
}

// Transport is the external session provider. Implementations own the
// socket, the wire protocol, and request timeouts; the session manager
// owns everything above that.
//
// Events() delivers raw events in arrival order on a single channel.
// The channel is closed when the transport is shut down for good.
// Operation methods are safe for concurrent use.
type Transport interface {
	// Connect establishes the session. A successful connect is followed
	// by a KindConnected event on Events().
	Connect(ctx context.Context) error

	// Reconnect re-establishes a dropped session, preserving the agent
	// identity. Success is signalled by a fresh KindConnected event.
	Reconnect(ctx context.Context) error

	// Events delivers raw transport events in arrival order.
	Events() <-chan Event

	SubscribeAgentState(ctx context.Context) error
	SubscribeConversations(ctx context.Context, req SubscribeConversationsRequest) error
	SubscribeRoutingTasks(ctx context.Context) error
	SubscribeMessagingEvents(ctx context.Context, conversationID string) error

	SetAgentState(ctx context.Context, availability string) error
	GetUserProfile(ctx context.Context, userID string) (UserProfile, error)

	// GetClock queries server time. Used as a keep-alive probe; the
	// response is informational only.
	GetClock(ctx context.Context) (time.Time, error)

	PublishEvent(ctx context.Context, req PublishEventRequest) error
	UpdateConversationField(ctx context.Context, req UpdateConversationFieldRequest) error
	UpdateRingState(ctx context.Context, ringID string, state RingState) error
}
