// Package ws implements the WebSocket event stream for ttlpool.
//
// Hub manages a set of connected clients. It pushes the full pool listing to
// all of them every interval, and pushes each collector notification the
// moment it happens (Hub implements collector.Notifier).
//
// New(store, interval) creates a Hub.
// Hub.Run(ctx) starts the listing ticker and blocks until ctx is cancelled,
// then closes all active connections.
// Hub.ServeHTTP upgrades an HTTP connection to WebSocket and sends the
// current listing immediately on connect.
//
// Messages sent to clients:
//
//	{"event": "pool",  "data": {"entries": [...], "generated_at": "..."}}
//	{"event": "event", "data": {"type": "entry_removed", "id": "...", "kind": "periodic", "at": "..."}}
//
// The upgrader accepts all origins. Apply CORS restrictions at the reverse
// proxy level. The hub is mounted at /ws/stream by the server.
package ws
