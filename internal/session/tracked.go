// ABOUTME: Tracked-conversation table entries and role lookup.
// ABOUTME: A conversation is tracked iff an upsert notification was received for it.

package session

import (
	"time"

	"github.com/LivePersonInc/messaging-bot-samples/internal/transport"
)

// ContentSummary is the reduced projection of the most recent content
// event in a conversation. Of the originator metadata only the id and
// role survive the narrowing; consumers needing more read the raw batch
// from the conversation event.
type ContentSummary struct {
	Sequence        int64
	ServerTimestamp time.Time
	OriginatorID    string
	OriginatorRole  transport.Role
	EventType       transport.EventType
}

// TrackedConversation is one entry in the session's conversation table.
// Created on the first upsert for its id, refreshed on every
// subsequent upsert, removed on delete.
type TrackedConversation struct {
	ID      string
	Details transport.ConversationDetails

	// ConsumerProfile is fetched lazily after the first upsert and
	// cached once available. Nil until the lookup succeeds; a lookup
	// failure leaves it nil for good.
	ConsumerProfile *transport.UserProfile

	LastContent *ContentSummary
}

// reduceContentEvent projects a messaging-event change down to the
// summary stored on the tracked conversation.
func reduceContentEvent(change *transport.MessagingEventChange) ContentSummary {
	return ContentSummary{
		Sequence:        change.Sequence,
		ServerTimestamp: change.ServerTimestamp,
		OriginatorID:    change.Originator.ID,
		OriginatorRole:  change.Originator.Role,
		EventType:       change.Event.Type,
	}
}

// RoleOf returns the role of the given participant in a detail
// snapshot, or RoleNone if the participant is absent.
func RoleOf(details transport.ConversationDetails, participantID string) transport.Role {
	for _, p := range details.Participants {
		if p.ID == participantID {
			return p.Role
		}
	}
	return transport.RoleNone
}
