// Package api implements the viewer's JSON endpoints.
//
// Routes:
//
//	GET /api/v1/records  current collection as a view.Snapshot
//	GET /api/v1/health   mount status of the session
//
// Responses are application/json. Errors use {"error": "..."}.
package api
