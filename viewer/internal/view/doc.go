// Package view projects a collection into display rows and renders them.
//
// Rows is a pure function: one Row per record, in collection order, keyed by
// the record's key. Each row carries the name, category and currency-formatted
// value read from the record at the configured gjson paths.
//
// Renderers:
//   - RenderText: lipgloss heading plus a go-pretty table, for the terminal
//   - RenderHTML: the list markup (heading, one block per row)
//   - RenderPage: full HTML document that re-renders from /ws/stream
//   - Snapshot:   JSON-ready rows for /api/v1/records and the WebSocket hub
package view
