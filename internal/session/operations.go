// ABOUTME: Outbound operation API: validated thin wrappers over transport calls.
// ABOUTME: All asynchronous and fire-and-forget; results are logged, never returned.

package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/LivePersonInc/messaging-bot-samples/internal/transport"
)

// ErrInvalidRole indicates a join was requested with a role the
// platform does not accept.
var ErrInvalidRole = errors.New("invalid participant role")

// joinableRoles are the roles a bot may join a conversation as.
var joinableRoles = map[transport.Role]bool{
	transport.RoleReader:        true,
	transport.RoleManager:       true,
	transport.RoleAssignedAgent: true,
}

// Join adds the session's agent to a conversation as the given role.
// Invalid roles are rejected immediately without a transport call.
// With announce set and a role other than READER, a "<role> joined"
// text is published after the join succeeds.
func (s *Session) Join(conversationID string, role transport.Role, announce bool) error {
	if !joinableRoles[role] {
		s.logger.Warn("join rejected: invalid role",
			"conversation_id", conversationID,
			"role", string(role),
		)
		return ErrInvalidRole
	}

	s.do("join", func(ctx context.Context) error {
		err := s.transport.UpdateConversationField(ctx, transport.UpdateConversationFieldRequest{
			ConversationID: conversationID,
			Operations: []transport.FieldOperation{{
				Field: transport.FieldParticipants,
				Type:  transport.OperationAdd,
				Role:  role,
			}},
		})
		if err != nil {
			return err
		}
		s.logger.Info("joined conversation",
			"conversation_id", conversationID,
			"role", string(role),
		)

		if announce && role != transport.RoleReader {
			return s.transport.PublishEvent(ctx, transport.PublishEventRequest{
				ConversationID: conversationID,
				Event: transport.MessagingEvent{
					Type:        transport.EventContent,
					ContentType: transport.ContentTypeText,
					Message:     fmt.Sprintf("%s joined", role),
				},
			})
		}
		return nil
	})
	return nil
}

// SendText publishes a plain-text content event to a conversation.
func (s *Session) SendText(conversationID, text string) {
	s.do("send_text", func(ctx context.Context) error {
		return s.transport.PublishEvent(ctx, transport.PublishEventRequest{
			ConversationID: conversationID,
			Event: transport.MessagingEvent{
				Type:        transport.EventContent,
				ContentType: transport.ContentTypeText,
				Message:     text,
			},
		})
	})
}

// SendRichContent publishes a structured content event, tagged with the
// card's id so delivery receipts can be correlated back to it.
func (s *Session) SendRichContent(conversationID string, card transport.RichContent) {
	s.do("send_rich_content", func(ctx context.Context) error {
		return s.transport.PublishEvent(ctx, transport.PublishEventRequest{
			ConversationID: conversationID,
			ExternalID:     card.ID,
			Event: transport.MessagingEvent{
				Type:        transport.EventContent,
				ContentType: transport.ContentTypeRich,
				Content:     card.Content,
			},
		})
	})
}

// MarkAsRead publishes a read receipt covering the given sequences.
func (s *Session) MarkAsRead(conversationID string, sequences []int64) {
	if len(sequences) == 0 {
		return
	}
	seqs := append([]int64(nil), sequences...)
	s.do("mark_as_read", func(ctx context.Context) error {
		return s.transport.PublishEvent(ctx, transport.PublishEventRequest{
			ConversationID: conversationID,
			Event: transport.MessagingEvent{
				Type:         transport.EventAcceptStatus,
				Status:       transport.AcceptStatusRead,
				SequenceList: seqs,
			},
		})
	})
}

// Transfer atomically removes the assigned agent and retargets the
// conversation to another skill in a single request.
func (s *Session) Transfer(conversationID, targetSkillID string) {
	s.do("transfer", func(ctx context.Context) error {
		return s.transport.UpdateConversationField(ctx, transport.UpdateConversationFieldRequest{
			ConversationID: conversationID,
			Operations: []transport.FieldOperation{
				{
					Field: transport.FieldParticipants,
					Type:  transport.OperationRemove,
					Role:  transport.RoleAssignedAgent,
				},
				{
					Field: transport.FieldSkill,
					Type:  transport.OperationUpdate,
					Skill: targetSkillID,
				},
			},
		})
	})
}

// RemoveParticipant removes a participant from a conversation by role.
func (s *Session) RemoveParticipant(conversationID string, role transport.Role) {
	s.do("remove_participant", func(ctx context.Context) error {
		return s.transport.UpdateConversationField(ctx, transport.UpdateConversationFieldRequest{
			ConversationID: conversationID,
			Operations: []transport.FieldOperation{{
				Field: transport.FieldParticipants,
				Type:  transport.OperationRemove,
				Role:  role,
			}},
		})
	})
}

// Close sets a conversation's state to closed.
func (s *Session) Close(conversationID string) {
	s.do("close_conversation", func(ctx context.Context) error {
		return s.transport.UpdateConversationField(ctx, transport.UpdateConversationFieldRequest{
			ConversationID: conversationID,
			Operations: []transport.FieldOperation{{
				Field: transport.FieldState,
				Type:  transport.OperationUpdate,
				State: transport.ConversationClosed,
			}},
		})
	})
}

// AcceptWaitingConversations scans a routing batch and accepts every
// ring still in the waiting state, joining each conversation as the
// ringed role.
func (s *Session) AcceptWaitingConversations(batch *transport.RoutingTaskBatch) {
	if batch == nil {
		return
	}
	for _, change := range batch.Changes {
		if change.Type != transport.ChangeUpsert {
			continue
		}
		for _, ring := range change.Rings {
			if ring.State != transport.RingWaiting {
				continue
			}
			ringID := ring.RingID
			conversationID := change.ConversationID
			s.do("accept_ring", func(ctx context.Context) error {
				err := s.transport.UpdateRingState(ctx, ringID, transport.RingAccepted)
				if err != nil {
					return err
				}
				s.logger.Info("ring accepted",
					"ring_id", ringID,
					"conversation_id", conversationID,
				)
				return nil
			})
		}
	}
}

// SetAgentState updates the agent's presence.
func (s *Session) SetAgentState(availability string) {
	s.do("set_agent_state", func(ctx context.Context) error {
		return s.transport.SetAgentState(ctx, availability)
	})
}
