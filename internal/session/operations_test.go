// ABOUTME: Tests for the outbound operation API.
// ABOUTME: Join validation, publish payload shapes, transfer, close, ring acceptance.

package session

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LivePersonInc/messaging-bot-samples/internal/transport"
)

// newOpsSession builds a Session without running its loop. The
// operations below are fire-and-forget transport calls and need no
// loop to be exercised.
func newOpsSession(t *testing.T) (*Session, *transport.Fake) {
	t.Helper()
	fake := transport.NewFake()
	s := New(fake, Config{}, testLogger())
	t.Cleanup(s.delivered.Close)
	return s, fake
}

func TestJoin_InvalidRoleRejected(t *testing.T) {
	s, fake := newOpsSession(t)

	err := s.Join("conv-1", transport.RoleConsumer, false)
	require.ErrorIs(t, err, ErrInvalidRole)

	err = s.Join("conv-1", transport.Role("SUPERVISOR"), true)
	require.ErrorIs(t, err, ErrInvalidRole)

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, fake.FieldUpdates(), "invalid roles never reach the transport")
}

func TestJoin_AddsParticipant(t *testing.T) {
	s, fake := newOpsSession(t)

	require.NoError(t, s.Join("conv-1", transport.RoleReader, false))

	eventually(t, func() bool { return len(fake.FieldUpdates()) == 1 }, "join field update")
	update := fake.FieldUpdates()[0]
	assert.Equal(t, "conv-1", update.ConversationID)
	require.Len(t, update.Operations, 1)
	assert.Equal(t, transport.FieldParticipants, update.Operations[0].Field)
	assert.Equal(t, transport.OperationAdd, update.Operations[0].Type)
	assert.Equal(t, transport.RoleReader, update.Operations[0].Role)

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, fake.Published(), "no announcement without announce")
}

func TestJoin_AnnouncesForManager(t *testing.T) {
	s, fake := newOpsSession(t)

	require.NoError(t, s.Join("conv-1", transport.RoleManager, true))

	eventually(t, func() bool { return len(fake.Published()) == 1 }, "join announcement")
	published := fake.Published()[0]
	assert.Equal(t, "conv-1", published.ConversationID)
	assert.Equal(t, transport.EventContent, published.Event.Type)
	assert.Equal(t, transport.ContentTypeText, published.Event.ContentType)
	assert.Equal(t, "MANAGER joined", published.Event.Message)
}

func TestJoin_ReaderNeverAnnounces(t *testing.T) {
	s, fake := newOpsSession(t)

	require.NoError(t, s.Join("conv-1", transport.RoleReader, true))

	eventually(t, func() bool { return len(fake.FieldUpdates()) == 1 }, "join field update")
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, fake.Published())
}

func TestSendText(t *testing.T) {
	s, fake := newOpsSession(t)

	s.SendText("conv-1", "how can I help?")

	eventually(t, func() bool { return len(fake.Published()) == 1 }, "text published")
	published := fake.Published()[0]
	assert.Equal(t, "conv-1", published.ConversationID)
	assert.Equal(t, transport.EventContent, published.Event.Type)
	assert.Equal(t, transport.ContentTypeText, published.Event.ContentType)
	assert.Equal(t, "how can I help?", published.Event.Message)
	assert.Empty(t, published.ExternalID)
}

func TestSendRichContent(t *testing.T) {
	s, fake := newOpsSession(t)

	card := transport.RichContent{
		ID:      "card-42",
		Content: json.RawMessage(`{"type":"vertical","elements":[]}`),
	}
	s.SendRichContent("conv-1", card)

	eventually(t, func() bool { return len(fake.Published()) == 1 }, "card published")
	published := fake.Published()[0]
	assert.Equal(t, "card-42", published.ExternalID)
	assert.Equal(t, transport.ContentTypeRich, published.Event.ContentType)
	assert.Equal(t, card.Content, published.Event.Content)
}

func TestMarkAsRead(t *testing.T) {
	s, fake := newOpsSession(t)

	s.MarkAsRead("conv-1", []int64{2, 3, 5})

	eventually(t, func() bool { return len(fake.Published()) == 1 }, "receipt published")
	published := fake.Published()[0]
	assert.Equal(t, transport.EventAcceptStatus, published.Event.Type)
	assert.Equal(t, transport.AcceptStatusRead, published.Event.Status)
	assert.Equal(t, []int64{2, 3, 5}, published.Event.SequenceList)
}

func TestMarkAsRead_EmptySequencesNoop(t *testing.T) {
	s, fake := newOpsSession(t)

	s.MarkAsRead("conv-1", nil)

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, fake.Published())
}

func TestTransfer_RemovesAgentAndRetargetsSkill(t *testing.T) {
	s, fake := newOpsSession(t)

	s.Transfer("conv-1", "skill-billing")

	eventually(t, func() bool { return len(fake.FieldUpdates()) == 1 }, "transfer field update")
	update := fake.FieldUpdates()[0]
	require.Len(t, update.Operations, 2, "transfer is one request with both operations")

	assert.Equal(t, transport.FieldParticipants, update.Operations[0].Field)
	assert.Equal(t, transport.OperationRemove, update.Operations[0].Type)
	assert.Equal(t, transport.RoleAssignedAgent, update.Operations[0].Role)

	assert.Equal(t, transport.FieldSkill, update.Operations[1].Field)
	assert.Equal(t, transport.OperationUpdate, update.Operations[1].Type)
	assert.Equal(t, "skill-billing", update.Operations[1].Skill)
}

func TestRemoveParticipant(t *testing.T) {
	s, fake := newOpsSession(t)

	s.RemoveParticipant("conv-1", transport.RoleManager)

	eventually(t, func() bool { return len(fake.FieldUpdates()) == 1 }, "remove field update")
	op := fake.FieldUpdates()[0].Operations[0]
	assert.Equal(t, transport.FieldParticipants, op.Field)
	assert.Equal(t, transport.OperationRemove, op.Type)
	assert.Equal(t, transport.RoleManager, op.Role)
}

func TestClose_SetsClosedState(t *testing.T) {
	s, fake := newOpsSession(t)

	s.Close("conv-1")

	eventually(t, func() bool { return len(fake.FieldUpdates()) == 1 }, "close field update")
	op := fake.FieldUpdates()[0].Operations[0]
	assert.Equal(t, transport.FieldState, op.Field)
	assert.Equal(t, transport.OperationUpdate, op.Type)
	assert.Equal(t, transport.ConversationClosed, op.State)
}

func TestAcceptWaitingConversations(t *testing.T) {
	s, fake := newOpsSession(t)

	s.AcceptWaitingConversations(&transport.RoutingTaskBatch{
		Changes: []transport.RoutingTaskChange{
			{
				Type:           transport.ChangeUpsert,
				ConversationID: "conv-1",
				Rings: []transport.Ring{
					{RingID: "ring-waiting", State: transport.RingWaiting},
					{RingID: "ring-done", State: transport.RingAccepted},
				},
			},
			{
				Type:           transport.ChangeDelete,
				ConversationID: "conv-2",
				Rings:          []transport.Ring{{RingID: "ring-gone", State: transport.RingWaiting}},
			},
		},
	})

	eventually(t, func() bool { return len(fake.RingUpdates()) == 1 }, "waiting ring accepted")
	update := fake.RingUpdates()[0]
	assert.Equal(t, "ring-waiting", update.RingID)
	assert.Equal(t, transport.RingAccepted, update.State)

	time.Sleep(50 * time.Millisecond)
	assert.Len(t, fake.RingUpdates(), 1, "accepted and deleted rings untouched")
}

func TestAcceptWaitingConversations_NilBatch(t *testing.T) {
	s, fake := newOpsSession(t)

	s.AcceptWaitingConversations(nil)

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, fake.RingUpdates())
}

func TestSetAgentState(t *testing.T) {
	s, fake := newOpsSession(t)

	s.SetAgentState("AWAY")

	eventually(t, func() bool { return len(fake.StateCalls()) == 1 }, "presence update")
	assert.Equal(t, []string{"AWAY"}, fake.StateCalls())
}
