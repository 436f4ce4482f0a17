// Package server exposes the client stores to a local presentation layer
// over HTTP.
//
// Every store is published as a [Topic]. The server provides:
//
//   - Snapshots: GET /api/session, /api/notifications, /api/preferences and
//     /api/collections/{name} return the current state as JSON
//   - Commands: filter changes and notification read/remove requests are
//     forwarded to a [Commands] implementation
//   - Server-Sent Events: GET /api/sse streams one named event per snapshot
//
// The server supports graceful shutdown via context cancellation, with a
// 5-second timeout for in-flight requests.
package server
