// Package session implements the session/event manager for one
// persistent connection to the messaging platform.
//
// # Overview
//
// A Session owns the transport connection, a keep-alive clock, a
// reconnect state machine, and the in-memory table of tracked
// conversations. Raw transport notifications are normalized into the
// typed event taxonomy in the events package; outbound operations are
// thin validated wrappers over transport calls.
//
// # Run loop
//
// Everything runs on one logical actor:
//
//	sess := session.New(tr, session.Config{InitialState: "ONLINE"}, logger)
//	go sess.Run(ctx)
//
// The Run loop serializes raw transport events, keep-alive and
// reconnect timer ticks, and async completion closures. The tracked
// table is mutated only there, so no locking is needed.
//
// # Connection lifecycle
//
// After every successful connect the session restarts the 300 s
// keep-alive probe (a server-time query whose response is only logged)
// and issues the standing subscriptions: agent state, conversation
// updates (own conversations unless configured for all, open only),
// and routing tasks. Messaging events are subscribed lazily, once per
// conversation, on its first upsert.
//
// On socket closure the reconnect machine runs:
//
//	IDLE -> RECONNECTING(attempt, delay) -> RECONNECTED | EXHAUSTED
//
// starting at 5 s, multiplying the delay by 1.2 per attempt, giving up
// terminally after 35 attempts. A fresh connected event cancels the
// pending timer and resets the counter.
//
// # Tracked conversations
//
// A conversation is tracked iff an upsert notification was received
// for it. The upstream is known to deliver messaging events for
// conversations the session never subscribed to; those are silently
// ignored. The first upsert also triggers a lazy consumer-profile
// fetch (failure is non-fatal) and the per-conversation messaging
// subscription.
//
// # Receipt reconciliation
//
// Within one messaging-event batch, inbound content events and our own
// read receipts cancel out: a receipt covering a sequence removes it
// from the pending set before anything is emitted. Remaining messages
// are marked read when the local role is ASSIGNED_AGENT and emitted as
// content events exactly once; the dedupe cache suppresses replays
// after a reconnect.
//
// # Error philosophy
//
// Log and continue. Transport-call failures are logged and never
// retried; no error escalates to a process-ending fault. The single
// designed recovery path is the reconnect state machine.
package session
