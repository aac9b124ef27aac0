// ABOUTME: Scripted in-process platform peer for running the bot drivers locally.
// ABOUTME: Feeds a ring, a conversation, and consumer messages through a fake transport.

package simulator

import (
	"context"
	"log/slog"
	"time"

	"github.com/LivePersonInc/messaging-bot-samples/internal/transport"
)

const (
	conversationID = "sim-conv-1"
	consumerID     = "sim-visitor-1"
	ringID         = "sim-ring-1"
	pollInterval   = 50 * time.Millisecond
)

// consumerLines are the messages the simulated visitor sends, one per
// bot reply.
var consumerLines = []string{
	"hi, my last order never arrived",
	"order number is 8813-AA",
	"thanks, goodbye",
}

// Simulator plays the platform side of a conversation against the
// session manager, entirely in memory. It offers a ring, upserts a
// conversation with a consumer participant, mirrors participant changes
// the bot makes, and types a consumer line after each bot message.
type Simulator struct {
	fake   *transport.Fake
	logger *slog.Logger
}

// New creates a Simulator and the transport it drives.
func New(logger *slog.Logger) *Simulator {
	if logger == nil {
		logger = slog.Default()
	}

	fake := transport.NewFake()
	fake.AutoConnect = true
	fake.ServerTime = time.Now()
	fake.Profiles[consumerID] = transport.UserProfile{
		ID:        consumerID,
		FirstName: "Sam",
		LastName:  "Visitor",
	}

	return &Simulator{
		fake:   fake,
		logger: logger.With("component", "simulator"),
	}
}

// Transport returns the transport the session should be built on.
func (s *Simulator) Transport() transport.Transport { return s.fake }

// Run plays the script until it completes or ctx is cancelled. Pacing
// follows the bot: a consumer line is typed after each bot message,
// with an idle fallback for bots that never publish.
func (s *Simulator) Run(ctx context.Context) {
	// Give the session a moment to issue its standing subscriptions.
	if !s.sleep(ctx, 200*time.Millisecond) {
		return
	}

	s.logger.Info("offering ring", "ring_id", ringID, "conversation_id", conversationID)
	s.fake.Deliver(transport.Event{
		Kind: transport.KindNotification,
		Notification: &transport.Notification{
			Kind: transport.NotifRoutingTasks,
			RoutingTasks: &transport.RoutingTaskBatch{
				Changes: []transport.RoutingTaskChange{{
					Type:           transport.ChangeUpsert,
					ConversationID: conversationID,
					SkillID:        "sim-skill",
					Rings:          []transport.Ring{{RingID: ringID, State: transport.RingWaiting}},
				}},
			},
		},
	})

	participants := []transport.Participant{{ID: consumerID, Role: transport.RoleConsumer}}
	s.upsert(participants)

	seq := int64(1)
	published := 0
	fieldUpdates := 0
	line := 0
	lastLine := time.Now()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		// A silent bot (the reader) never replies; keep the consumer
		// typing anyway so there is something to observe.
		if line < len(consumerLines) && time.Since(lastLine) > 2*time.Second {
			s.say(consumerLines[line], seq)
			line++
			seq += 2
			lastLine = time.Now()
		}
		if line >= len(consumerLines) && time.Since(lastLine) > 2*time.Second {
			s.logger.Info("script complete, closing conversation")
			s.delete()
			return
		}

		// Mirror participant changes so the tracked snapshot reflects
		// the bot's joins and removals.
		for _, update := range s.fake.FieldUpdates()[fieldUpdates:] {
			fieldUpdates++
			participants = applyOperations(participants, s.fake.AgentID, update.Operations)
			if closedBy(update.Operations) {
				s.logger.Info("conversation closed by bot")
				s.delete()
				return
			}
			s.upsert(participants)
		}

		for _, req := range s.fake.Published()[published:] {
			published++
			if req.Event.Type != transport.EventContent {
				continue
			}
			s.logger.Info("bot message", "text", req.Event.Message)

			if line >= len(consumerLines) {
				s.logger.Info("script complete, closing conversation")
				s.delete()
				return
			}
			if !s.sleep(ctx, 300*time.Millisecond) {
				return
			}
			s.say(consumerLines[line], seq)
			line++
			seq += 2
			lastLine = time.Now()
		}
	}
}

func (s *Simulator) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

func (s *Simulator) upsert(participants []transport.Participant) {
	s.fake.Deliver(transport.Event{
		Kind: transport.KindNotification,
		Notification: &transport.Notification{
			Kind: transport.NotifConversationChanges,
			ConversationChanges: []transport.ConversationChange{{
				Type:           transport.ChangeUpsert,
				ConversationID: conversationID,
				Details: transport.ConversationDetails{
					SkillID:      "sim-skill",
					State:        transport.ConversationOpen,
					Participants: participants,
				},
			}},
		},
	})
}

func (s *Simulator) delete() {
	s.fake.Deliver(transport.Event{
		Kind: transport.KindNotification,
		Notification: &transport.Notification{
			Kind: transport.NotifConversationChanges,
			ConversationChanges: []transport.ConversationChange{{
				Type:           transport.ChangeDelete,
				ConversationID: conversationID,
			}},
		},
	})
}

func (s *Simulator) say(text string, seq int64) {
	s.logger.Info("consumer message", "text", text, "sequence", seq)
	s.fake.Deliver(transport.Event{
		Kind: transport.KindNotification,
		Notification: &transport.Notification{
			Kind: transport.NotifMessagingEvents,
			MessagingEvents: &transport.MessagingEventBatch{
				DialogID: conversationID,
				Changes: []transport.MessagingEventChange{{
					ConversationID:  conversationID,
					Sequence:        seq,
					ServerTimestamp: time.Now(),
					Originator:      transport.Originator{ID: consumerID, Role: transport.RoleConsumer},
					Event: transport.MessagingEvent{
						Type:        transport.EventContent,
						ContentType: transport.ContentTypeText,
						Message:     text,
					},
				}},
			},
		},
	})
}

// applyOperations mirrors participant field operations into the
// simulated detail snapshot.
func applyOperations(participants []transport.Participant, agentID string, ops []transport.FieldOperation) []transport.Participant {
	for _, op := range ops {
		if op.Field != transport.FieldParticipants {
			continue
		}
		switch op.Type {
		case transport.OperationAdd:
			participants = append(participants, transport.Participant{ID: agentID, Role: op.Role})
		case transport.OperationRemove:
			kept := participants[:0]
			for _, p := range participants {
				if p.Role != op.Role {
					kept = append(kept, p)
				}
			}
			participants = kept
		}
	}
	return participants
}

func closedBy(ops []transport.FieldOperation) bool {
	for _, op := range ops {
		if op.Field == transport.FieldState && op.State == transport.ConversationClosed {
			return true
		}
	}
	return false
}
