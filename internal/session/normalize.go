// ABOUTME: Notification normalizer: raw upstream notifications to typed emitted events.
// ABOUTME: Reconciles the tracked table, pending read receipts, and the delivered-event cache.

package session

import (
	"context"

	"github.com/LivePersonInc/messaging-bot-samples/internal/events"
	"github.com/LivePersonInc/messaging-bot-samples/internal/transport"
)

// handleNotification performs kind-specific bookkeeping and re-emits
// one typed event per notification. Unknown kinds are logged and
// dropped so new upstream notification families cannot break us.
func (s *Session) handleNotification(n *transport.Notification) {
	if n == nil {
		return
	}

	switch n.Kind {
	case transport.NotifRoutingTasks:
		count := 0
		if n.RoutingTasks != nil {
			count = len(n.RoutingTasks.Changes)
		}
		s.logger.Info("routing task notification", "changes", count)
		s.emitter.Publish(events.Event{Kind: events.KindRouting, Routing: n.RoutingTasks})

	case transport.NotifAgentState:
		s.logger.Info("agent state notification")
		s.emitter.Publish(events.Event{Kind: events.KindAgentState, AgentState: n.AgentState})

	case transport.NotifConversationChanges:
		s.handleConversationChanges(n.ConversationChanges)

	case transport.NotifMessagingEvents:
		s.handleMessagingEvents(n.MessagingEvents)

	default:
		s.logger.Warn("unhandled notification kind", "type", n.Type)
	}
}

// handleConversationChanges reconciles the tracked table with a batch
// of change records, then re-emits the batch as one conversation event.
func (s *Session) handleConversationChanges(changes []transport.ConversationChange) {
	for i := range changes {
		change := &changes[i]

		switch change.Type {
		case transport.ChangeUpsert:
			tc, ok := s.tracked[change.ConversationID]
			if !ok {
				tc = &TrackedConversation{ID: change.ConversationID}
				s.tracked[change.ConversationID] = tc
				s.logger.Info("tracking conversation", "conversation_id", change.ConversationID)

				s.fetchConsumerProfile(change)

				conversationID := change.ConversationID
				s.do("subscribe_messaging_events", func(ctx context.Context) error {
					return s.transport.SubscribeMessagingEvents(ctx, conversationID)
				})
			}

			tc.Details = change.Details
			if change.LastContentEvent != nil {
				summary := reduceContentEvent(change.LastContentEvent)
				tc.LastContent = &summary
			}

		case transport.ChangeDelete:
			if _, ok := s.tracked[change.ConversationID]; ok {
				delete(s.tracked, change.ConversationID)
				s.delivered.Forget(change.ConversationID)
				s.logger.Info("conversation removed", "conversation_id", change.ConversationID)
			}

		default:
			s.logger.Warn("unhandled conversation change type",
				"type", string(change.Type),
				"conversation_id", change.ConversationID,
			)
		}
	}

	s.emitter.Publish(events.Event{Kind: events.KindConversation, Conversation: changes})
}

// fetchConsumerProfile asynchronously looks up the consumer
// participant's profile and caches it on the tracked conversation. A
// lookup failure is logged and leaves the profile empty; some
// conversations legitimately have no consumer yet.
func (s *Session) fetchConsumerProfile(change *transport.ConversationChange) {
	var consumerID string
	for _, p := range change.Details.Participants {
		if p.Role == transport.RoleConsumer {
			consumerID = p.ID
			break
		}
	}
	if consumerID == "" {
		return
	}

	conversationID := change.ConversationID
	s.do("get_user_profile", func(ctx context.Context) error {
		profile, err := s.transport.GetUserProfile(ctx, consumerID)
		if err != nil {
			return err
		}
		s.post(func() {
			tc, ok := s.tracked[conversationID]
			if !ok {
				// Conversation was deleted before the lookup finished.
				return
			}
			tc.ConsumerProfile = &profile
			s.logger.Debug("consumer profile cached",
				"conversation_id", conversationID,
				"consumer_id", consumerID,
			)
		})
		return nil
	})
}

// pendingKey identifies one inbound content event awaiting a receipt.
type pendingKey struct {
	conversationID string
	sequence       int64
}

// handleMessagingEvents processes one messaging-event batch. Content
// events from other participants enter a pending map; read receipts we
// originated elsewhere reconcile it. Whatever remains is marked read
// (when we are the assigned agent) and emitted downstream once.
func (s *Session) handleMessagingEvents(batch *transport.MessagingEventBatch) {
	if batch == nil || len(batch.Changes) == 0 {
		return
	}

	pending := make(map[pendingKey]*transport.MessagingEventChange)
	var order []pendingKey
	hasContent := false

	for i := range batch.Changes {
		change := &batch.Changes[i]

		conversationID := change.ConversationID
		if conversationID == "" {
			conversationID = batch.DialogID
		}
		if change.Event.Type == transport.EventContent {
			hasContent = true
		}

		// The upstream delivers notifications for conversations this
		// session never subscribed to. Only tracked conversations feed
		// the per-message logic.
		if _, ok := s.tracked[conversationID]; !ok {
			continue
		}

		switch {
		case change.Event.Type == transport.EventContent && change.Originator.ID != s.agentID:
			k := pendingKey{conversationID: conversationID, sequence: change.Sequence}
			if _, dup := pending[k]; !dup {
				order = append(order, k)
			}
			pending[k] = change

		case change.Event.Type == transport.EventAcceptStatus &&
			change.Originator.ID == s.agentID &&
			change.Event.Status == transport.AcceptStatusRead:
			// A read receipt we issued elsewhere already covers these
			// sequences. Delivery-only statuses do not.
			for _, seq := range change.Event.SequenceList {
				delete(pending, pendingKey{conversationID: conversationID, sequence: seq})
			}
		}
	}

	if hasContent {
		s.logger.Info("messaging event batch",
			"dialog_id", batch.DialogID,
			"changes", len(batch.Changes),
			"pending", len(pending),
		)
	} else {
		s.logger.Debug("chat state batch", "dialog_id", batch.DialogID, "changes", len(batch.Changes))
	}

	for _, k := range order {
		change, ok := pending[k]
		if !ok {
			continue
		}

		tc, ok := s.tracked[k.conversationID]
		if !ok {
			continue
		}

		if RoleOf(tc.Details, s.agentID) == transport.RoleAssignedAgent {
			s.MarkAsRead(k.conversationID, []int64{k.sequence})
		}

		if s.delivered.CheckAndMark(k.conversationID, k.sequence) {
			s.logger.Debug("duplicate content event suppressed",
				"conversation_id", k.conversationID,
				"sequence", k.sequence,
			)
			continue
		}

		s.emitter.Publish(events.Event{
			Kind: events.KindContent,
			Content: &events.ContentNotification{
				ConversationID: k.conversationID,
				Sequence:       k.sequence,
				Message:        change.Event,
				Originator:     change.Originator,
			},
		})
	}
}
