// Package events defines the typed event taxonomy the session manager
// emits and the fan-out Emitter downstream bot logic subscribes to.
//
// # Taxonomy
//
// Seven kinds cover everything a bot can observe:
//
//   - connected: session established (fires on every reconnect too)
//   - routing: routing-task notification, verbatim
//   - conversation: conversation-change batch, after table reconciliation
//   - agent_state: agent-state notification, verbatim
//   - content: one inbound content event, post receipt reconciliation
//   - socket_closed: the transport socket dropped
//   - error: a transport-level error
//
// # Fan-out
//
// The Emitter is per-kind pub/sub with buffered subscriber channels.
// Publishing never blocks; slow subscribers drop events. Subscriptions
// clean themselves up when their context is cancelled.
package events
