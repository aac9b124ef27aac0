// Package transport defines the collaborator surface of the messaging
// platform: the Transport interface the session manager drives, and the
// wire payload types it receives.
//
// # Raw events
//
// The transport delivers four raw event kinds on a single channel, in
// arrival order:
//
//   - connected: session established, carries the agent identity
//   - notification: an upstream subscription notification
//   - closed: the socket dropped
//   - error: a transport-level error that did not close the socket
//
// Notifications decode into one of four known families (conversation
// changes, messaging events, routing tasks, agent state); anything else
// arrives tagged unknown and is ignored upstream.
//
// # Operations
//
// Subscribe, publish, and update operations are RPC-style calls taking
// a context and a typed request. The session manager invokes them
// fire-and-forget and only logs their results.
//
// # Fake
//
// Fake is an in-memory implementation for tests. It records every
// operation call and lets tests inject raw events with Deliver.
package transport
