// Package ws implements the WebSocket hub for the viewer.
//
// Hub keeps a set of connected clients and pushes the current collection
// snapshot to all of them whenever the notifier fires: after each commit and
// after each remount.
//
// New(notifier, source) creates a Hub.
// Hub.Run(ctx) waits for notifications and blocks until ctx is cancelled,
// then closes all active connections.
// Hub.ServeHTTP upgrades an HTTP connection to WebSocket, sends the current
// snapshot immediately on connect, then streams updates.
//
// Message format sent to clients:
//
//	{
//	  "event": "collection",
//	  "data":  { /* same schema as GET /api/v1/records */ }
//	}
//
// The upgrader accepts all origins. Apply CORS restrictions at the reverse
// proxy level. The endpoint is mounted at /ws/stream by the server.
package ws
