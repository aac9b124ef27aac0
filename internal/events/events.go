// ABOUTME: Typed event taxonomy emitted by the session manager.
// ABOUTME: One Kind per downstream-visible event, flat union payload like the transport's.

package events

import (
	"encoding/json"

	"github.com/LivePersonInc/messaging-bot-samples/internal/transport"
)

// Kind indicates the type of emitted event.
type Kind int

const (
	// KindConnected fires after every successful connect or reconnect.
	KindConnected Kind = iota
	// KindRouting re-emits a routing-task notification verbatim.
	KindRouting
	// KindConversation re-emits a conversation-change batch after the
	// tracked table has been reconciled with it.
	KindConversation
	// KindAgentState re-emits an agent-state notification verbatim.
	KindAgentState
	// KindContent is one inbound content event that survived read-receipt
	// reconciliation and deduplication.
	KindContent
	// KindSocketClosed fires when the transport socket drops.
	KindSocketClosed
	// KindError re-emits a transport-level error.
	KindError
)

// String returns the lowercase kind name used in logs.
func (k Kind) String() string {
	switch k {
	case KindConnected:
		return "connected"
	case KindRouting:
		return "routing"
	case KindConversation:
		return "conversation"
	case KindAgentState:
		return "agent_state"
	case KindContent:
		return "content"
	case KindSocketClosed:
		return "socket_closed"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// ContentNotification is the reduced per-message payload of a
// KindContent event.
type ContentNotification struct {
	ConversationID string
	Sequence       int64
	Message        transport.MessagingEvent
	Originator     transport.Originator
}

// Event is one emitted event. Exactly the fields matching Kind are set.
type Event struct {
	Kind Kind

	Connected    *transport.Connected
	Routing      *transport.RoutingTaskBatch
	Conversation []transport.ConversationChange
	AgentState   json.RawMessage
	Content      *ContentNotification

	// Err is set for KindError events.
	Err error

	// Reason describes a KindSocketClosed event when known.
	Reason string
}
