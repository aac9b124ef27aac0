// ABOUTME: Wire-level payload types delivered by the messaging transport.
// ABOUTME: Conversation changes, messaging events, routing tasks, rings, participants, roles.

package transport

import (
	"encoding/json"
	"time"
)

// Role identifies a participant's privilege level in a conversation.
type Role string

const (
	RoleAssignedAgent Role = "ASSIGNED_AGENT"
	RoleReader        Role = "READER"
	RoleManager       Role = "MANAGER"
	RoleConsumer      Role = "CONSUMER"

	// RoleNone is returned by role lookups when the participant is not
	// present in the conversation.
	RoleNone Role = ""
)

// ChangeType tags a subscription change record.
type ChangeType string

const (
	ChangeUpsert ChangeType = "UPSERT"
	ChangeDelete ChangeType = "DELETE"
)

// ConversationState is the lifecycle state of a conversation.
type ConversationState string

const (
	ConversationOpen   ConversationState = "OPEN"
	ConversationClosed ConversationState = "CLOSE"
)

// RingState is the state of a routing ring.
type RingState string

const (
	RingWaiting  RingState = "WAITING"
	RingAccepted RingState = "ACCEPTED"
)

// Participant is one member of a conversation.
type Participant struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// ConversationDetails is the server's snapshot of a conversation.
type ConversationDetails struct {
	SkillID      string            `json:"skillId"`
	State        ConversationState `json:"state"`
	Participants []Participant     `json:"participants"`
}

// ConversationChange is one record in a conversation-change notification.
type ConversationChange struct {
	Type           ChangeType          `json:"type"`
	ConversationID string              `json:"convId"`
	Details        ConversationDetails `json:"conversationDetails"`

	// LastContentEvent is the most recent content event the server has
	// seen for this conversation, when present.
	LastContentEvent *MessagingEventChange `json:"lastContentEventNotification,omitempty"`
}

// EventType discriminates messaging-event payloads.
type EventType string

const (
	EventContent      EventType = "ContentEvent"
	EventAcceptStatus EventType = "AcceptStatusEvent"
	EventChatState    EventType = "ChatStateEvent"
)

// AcceptStatusRead marks a read receipt in an AcceptStatusEvent.
const AcceptStatusRead = "READ"

// Content types for published content events.
const (
	ContentTypeText = "text/plain"
	ContentTypeRich = "application/json"
)

// MessagingEvent is the payload of one messaging-event change.
// Exactly the fields matching Type are populated.
type MessagingEvent struct {
	Type EventType `json:"type"`

	// ContentEvent fields.
	Message     string          `json:"message,omitempty"`
	ContentType string          `json:"contentType,omitempty"`
	Content     json.RawMessage `json:"content,omitempty"`

	// AcceptStatusEvent fields.
	Status       string  `json:"status,omitempty"`
	SequenceList []int64 `json:"sequenceList,omitempty"`

	// ChatStateEvent field.
	ChatState string `json:"chatState,omitempty"`
}

// Originator identifies the participant that produced an event.
type Originator struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// MessagingEventChange is one record in a messaging-event notification.
type MessagingEventChange struct {
	ConversationID  string         `json:"dialogId"`
	Sequence        int64          `json:"sequence"`
	ServerTimestamp time.Time      `json:"serverTimestamp"`
	Originator      Originator     `json:"originatorMetadata"`
	Event           MessagingEvent `json:"event"`
}

// MessagingEventBatch groups the messaging-event changes delivered in
// one notification. All changes share the batch's dialog id.
type MessagingEventBatch struct {
	DialogID string                 `json:"dialogId"`
	Changes  []MessagingEventChange `json:"changes"`
}

// Ring is one routing ring offered to the agent.
type Ring struct {
	RingID string    `json:"ringId"`
	State  RingState `json:"ringState"`
}

// RoutingTaskChange is one record in a routing-task notification.
type RoutingTaskChange struct {
	Type           ChangeType `json:"type"`
	ConversationID string     `json:"conversationId"`
	SkillID        string     `json:"skillId"`
	Rings          []Ring     `json:"ringsDetails"`
}

// RoutingTaskBatch groups routing-task changes delivered in one
// notification.
type RoutingTaskBatch struct {
	Changes []RoutingTaskChange `json:"changes"`
}

// UserProfile is the directory record for a platform user.
type UserProfile struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Avatar    string `json:"avatarUrl,omitempty"`
}

// RichContent is a structured content card published to a conversation.
type RichContent struct {
	// ID correlates the published event with the caller's card.
	ID      string          `json:"id"`
	Content json.RawMessage `json:"content"`
}
